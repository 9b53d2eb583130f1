package interfaces

import (
	"context"
	"errors"

	"dleon_gold/internal/domain/entities"
)

// Gateway error taxonomy. Gateways wrap causes with these sentinels so the
// checkout orchestrator can tell a retryable outage from a hard rejection
// without knowing provider specifics.
var (
	// ErrProviderUnavailable covers network failures, timeouts and provider
	// 5xx responses. Retryable with backoff.
	ErrProviderUnavailable = errors.New("payment provider unavailable")

	// ErrProviderRejected covers provider-side business rejections (bad
	// amount, bad customer data). Not retryable; the order fails.
	ErrProviderRejected = errors.New("payment provider rejected transaction")
)

// ProviderTransaction is the normalized result of a provider-side create.
//
// Redirect providers return Status AWAITING_PROVIDER plus a RedirectURL and
// leave final resolution to their webhook. Gateways that resolve
// synchronously return a terminal Status and no redirect.
type ProviderTransaction struct {
	Reference   string
	RedirectURL string
	Status      entities.OrderStatus
}

// IPaymentGateway abstracts one external payment provider.
//
// Gateways must not touch the order store; persisting the outcome belongs to
// the orchestrator and the webhook reconciler. The order's own ID is sent as
// the provider-side reference, so a retried call cannot create two provider
// transactions for one order.
type IPaymentGateway interface {
	Name() string
	CreateTransaction(ctx context.Context, order entities.Order) (ProviderTransaction, error)
}
