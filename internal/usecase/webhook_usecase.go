package usecase

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"strings"

	"dleon_gold/internal/domain/entities"
)

var (
	ErrMissingWebhookReference = errors.New("webhook reference missing")
	ErrUnknownWebhookReference = errors.New("webhook reference does not match any order")
)

// ReconcileOutcome tells the handler what actually happened so it can pick a
// response code without re-deriving state.
type ReconcileOutcome string

const (
	// OutcomeApplied: the transition landed.
	OutcomeApplied ReconcileOutcome = "applied"
	// OutcomeDuplicate: the order was already in the mapped status. Replayed
	// deliveries end here; they are acknowledged as success.
	OutcomeDuplicate ReconcileOutcome = "duplicate"
	// OutcomeConflict: the order sits in a terminal status that contradicts
	// the delivery (e.g. PAID then DECLINED arrives). Never downgraded;
	// acknowledged with an inconsistency alert in the logs.
	OutcomeConflict ReconcileOutcome = "conflict"
	// OutcomeIgnored: the provider status is not in our vocabulary. Ack'd to
	// stop the provider's retry storm; state untouched.
	OutcomeIgnored ReconcileOutcome = "ignored"
)

// WebhookEvent is a provider notification after signature verification and
// payload parsing, reduced to what reconciliation structurally needs.
type WebhookEvent struct {
	Provider string
	// Reference correlates the event to an order: providers echo our order id
	// back (Wompi transaction.reference, Addi externalReference).
	Reference string
	// ProviderReference is the provider's own transaction/application id.
	ProviderReference string
	ProviderStatus    string
}

type ReconcileResult struct {
	Order   entities.Order
	Outcome ReconcileOutcome
}

// IWebhookUseCase reconciles asynchronous provider notifications onto stored
// orders. Handlers own transport concerns (raw body, signature header); this
// layer owns vocabulary mapping and the idempotent apply.

type IWebhookUseCase interface {
	Reconcile(ctx context.Context, evt WebhookEvent) (ReconcileResult, error)
}

type WebhookUseCase struct {
	orders IOrderUseCase
}

var _ IWebhookUseCase = (*WebhookUseCase)(nil)

func NewWebhookUseCase(orders IOrderUseCase) *WebhookUseCase {
	return &WebhookUseCase{orders: orders}
}

func (u *WebhookUseCase) Reconcile(ctx context.Context, evt WebhookEvent) (ReconcileResult, error) {
	ref := strings.TrimSpace(evt.Reference)
	if ref == "" {
		log.Printf("[webhook][usecase] missing reference provider=%s", evt.Provider)
		return ReconcileResult{}, ErrMissingWebhookReference
	}

	order, err := u.resolveOrder(ctx, ref)
	if err != nil {
		return ReconcileResult{}, err
	}

	target, known := MapProviderStatus(evt.ProviderStatus)
	if !known {
		// Intentional no-op: answering non-2xx would only trigger the
		// provider's retry storm without ever succeeding.
		log.Printf("[webhook][usecase] unrecognized provider status provider=%s order_id=%s status=%q",
			evt.Provider, order.ID, evt.ProviderStatus)
		return ReconcileResult{Order: order, Outcome: OutcomeIgnored}, nil
	}

	previous := order.Status
	updated, err := u.orders.UpdateStatus(ctx, order.ID, target, evt.Provider, evt.ProviderReference)
	if errors.Is(err, ErrInvalidTransition) {
		// ALERT: terminal state contradicted by a later delivery. Needs
		// manual review; the webhook is still acknowledged.
		log.Printf("[webhook][usecase] ALERT status conflict provider=%s order_id=%s stored=%s webhook=%s provider_status=%s",
			evt.Provider, updated.ID, updated.Status, target, evt.ProviderStatus)
		return ReconcileResult{Order: updated, Outcome: OutcomeConflict}, nil
	}
	if err != nil {
		log.Printf("[webhook][usecase] apply failed provider=%s order_id=%s err=%v", evt.Provider, order.ID, err)
		return ReconcileResult{}, err
	}

	if previous == target {
		log.Printf("[webhook][usecase] duplicate delivery provider=%s order_id=%s status=%s", evt.Provider, updated.ID, target)
		return ReconcileResult{Order: updated, Outcome: OutcomeDuplicate}, nil
	}
	log.Printf("[webhook][usecase] applied provider=%s order_id=%s %s -> %s", evt.Provider, updated.ID, previous, updated.Status)
	return ReconcileResult{Order: updated, Outcome: OutcomeApplied}, nil
}

// resolveOrder tries the reference as our own order id first (providers echo
// it back), then as a provider reference via the GSI.
func (u *WebhookUseCase) resolveOrder(ctx context.Context, ref string) (entities.Order, error) {
	order, err := u.orders.GetByID(ctx, ref)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, ErrOrderNotFound) && !errors.Is(err, ErrInvalidOrderID) {
		return entities.Order{}, err
	}

	order, err = u.orders.GetByProviderReference(ctx, ref)
	if errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrInvalidOrderID) {
		log.Printf("[webhook][usecase] unknown reference ref=%s", ref)
		return entities.Order{}, ErrUnknownWebhookReference
	}
	if err != nil {
		return entities.Order{}, err
	}
	return order, nil
}

// MapProviderStatus folds every provider's vocabulary into the internal one.
// APPROVED earns PAID; the rejection family earns PAYMENT_FAILED; anything
// else is unknown and left to the caller to ignore.
func MapProviderStatus(providerStatus string) (entities.OrderStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(providerStatus)) {
	case "APPROVED":
		return entities.OrderStatusPaid, true
	case "REJECTED", "DECLINED", "ABANDONED", "VOIDED", "ERROR":
		return entities.OrderStatusPaymentFailed, true
	default:
		return "", false
	}
}

// VerifySignature checks a provider-supplied hex HMAC-SHA256 signature over
// the raw request body. The comparison is constant time; an empty secret
// never verifies, so an unconfigured deployment fails closed.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature)))
}
