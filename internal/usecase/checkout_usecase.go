package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"dleon_gold/internal/domain/entities"
	"dleon_gold/internal/usecase/interfaces"
)

var (
	ErrEmptyCart = errors.New("cart is empty")

	// ErrPaymentMethodNotConfigured means the chosen method needs a gateway
	// this deployment does not have credentials for. Checked before the order
	// is created so no dangling INITIATED record is left behind.
	ErrPaymentMethodNotConfigured = errors.New("payment method not configured")

	// ErrPaymentRejected is terminal: the provider refused the transaction.
	// The buyer should correct their data or pick another method.
	ErrPaymentRejected = errors.New("payment rejected by provider")

	// ErrPaymentUnavailable is transient: retries were exhausted. The buyer
	// can try the same checkout again.
	ErrPaymentUnavailable = errors.New("payment provider unavailable")
)

// defaultRetryBackoff spaces the retries after a failed provider call. The
// initial attempt plus these three retries bound the worst case a buyer waits
// for a redirect.
var defaultRetryBackoff = []time.Duration{500 * time.Millisecond, 1500 * time.Millisecond, 4 * time.Second}

type CheckoutResult struct {
	Order       entities.Order
	RedirectURL string
}

// ICheckoutUseCase is the checkout orchestrator: it turns a cart snapshot
// into a persisted order and hands off to the chosen payment provider.

type ICheckoutUseCase interface {
	SubmitCheckout(ctx context.Context, draft OrderDraft) (CheckoutResult, error)
}

type CheckoutUseCase struct {
	orders   IOrderUseCase
	gateways map[entities.PaymentMethod]interfaces.IPaymentGateway

	backoff []time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

var _ ICheckoutUseCase = (*CheckoutUseCase)(nil)

func NewCheckoutUseCase(orders IOrderUseCase, gateways map[entities.PaymentMethod]interfaces.IPaymentGateway) *CheckoutUseCase {
	return &CheckoutUseCase{
		orders:   orders,
		gateways: gateways,
		backoff:  defaultRetryBackoff,
		sleep:    sleepContext,
	}
}

func (u *CheckoutUseCase) SubmitCheckout(ctx context.Context, draft OrderDraft) (CheckoutResult, error) {
	if len(draft.Items) == 0 {
		return CheckoutResult{}, ErrEmptyCart
	}
	if !draft.PaymentMethod.Valid() {
		return CheckoutResult{}, ErrInvalidOrderDraft
	}

	var gateway interfaces.IPaymentGateway
	if draft.PaymentMethod.RequiresProvider() {
		gw, ok := u.gateways[draft.PaymentMethod]
		if !ok || gw == nil {
			log.Printf("[checkout][usecase] no gateway for method=%s", draft.PaymentMethod)
			return CheckoutResult{}, ErrPaymentMethodNotConfigured
		}
		gateway = gw
	}

	order, err := u.orders.CreateOrder(ctx, draft)
	if err != nil {
		return CheckoutResult{}, err
	}
	log.Printf("[checkout][usecase] order created order_id=%s method=%s total=%.2f", order.ID, order.PaymentMethod, order.Total)

	// Cash on delivery needs no provider: finalize immediately.
	if gateway == nil {
		updated, err := u.orders.UpdateStatus(ctx, order.ID, entities.OrderStatusAwaitingFulfillment, "", "")
		if err != nil {
			return CheckoutResult{}, err
		}
		log.Printf("[checkout][usecase] cod finalized order_id=%s status=%s", updated.ID, updated.Status)
		return CheckoutResult{Order: updated}, nil
	}

	tx, err := u.createTransactionWithRetry(ctx, gateway, order)
	if err != nil {
		failed, updErr := u.orders.UpdateStatus(ctx, order.ID, entities.OrderStatusPaymentFailed, gateway.Name(), "")
		if updErr != nil {
			log.Printf("[checkout][usecase] failed marking order failed order_id=%s err=%v", order.ID, updErr)
		} else {
			order = failed
		}
		if errors.Is(err, interfaces.ErrProviderRejected) {
			log.Printf("[checkout][usecase] provider rejected order_id=%s provider=%s err=%v", order.ID, gateway.Name(), err)
			return CheckoutResult{Order: order}, fmt.Errorf("%w: %v", ErrPaymentRejected, err)
		}
		log.Printf("[checkout][usecase] provider unavailable order_id=%s provider=%s err=%v", order.ID, gateway.Name(), err)
		return CheckoutResult{Order: order}, fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
	}

	target := tx.Status
	if target == "" {
		target = entities.OrderStatusAwaitingProvider
	}

	updated, err := u.orders.UpdateStatus(ctx, order.ID, target, gateway.Name(), tx.Reference)
	if err != nil {
		return CheckoutResult{}, err
	}
	log.Printf("[checkout][usecase] handoff done order_id=%s provider=%s status=%s redirect=%t",
		updated.ID, gateway.Name(), updated.Status, tx.RedirectURL != "")

	if target == entities.OrderStatusPaymentFailed {
		return CheckoutResult{Order: updated}, ErrPaymentRejected
	}
	return CheckoutResult{Order: updated, RedirectURL: tx.RedirectURL}, nil
}

// createTransactionWithRetry retries only on ErrProviderUnavailable; a
// rejection is final on the first answer. The context deadline set by the
// handler bounds the whole loop.
func (u *CheckoutUseCase) createTransactionWithRetry(ctx context.Context, gateway interfaces.IPaymentGateway, order entities.Order) (interfaces.ProviderTransaction, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		tx, err := gateway.CreateTransaction(ctx, order)
		if err == nil {
			return tx, nil
		}
		if !errors.Is(err, interfaces.ErrProviderUnavailable) {
			return interfaces.ProviderTransaction{}, err
		}
		lastErr = err
		if attempt >= len(u.backoff) {
			return interfaces.ProviderTransaction{}, lastErr
		}
		log.Printf("[checkout][usecase] provider retry order_id=%s provider=%s attempt=%d backoff=%s",
			order.ID, gateway.Name(), attempt+1, u.backoff[attempt])
		if err := u.sleep(ctx, u.backoff[attempt]); err != nil {
			return interfaces.ProviderTransaction{}, fmt.Errorf("%w: %v", interfaces.ErrProviderUnavailable, err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
