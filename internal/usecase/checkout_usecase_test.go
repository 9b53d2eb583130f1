package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"dleon_gold/internal/domain/entities"
	"dleon_gold/internal/usecase/interfaces"
	mock_interfaces "dleon_gold/internal/usecase/interfaces/mocks"

	"go.uber.org/mock/gomock"
)

// newCheckoutForTest wires a real order use case over a repository mock and
// swaps the retry sleep for an instant counter.
func newCheckoutForTest(repo interfaces.IOrderRepository, gateways map[entities.PaymentMethod]interfaces.IPaymentGateway, sleeps *int) *CheckoutUseCase {
	uc := NewCheckoutUseCase(NewOrderUseCase(repo), gateways)
	uc.backoff = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	uc.sleep = func(ctx context.Context, d time.Duration) error {
		if sleeps != nil {
			*sleeps++
		}
		return nil
	}
	return uc
}

func TestCheckoutUseCase_SubmitCheckout_EmptyCart(t *testing.T) {
	uc := newCheckoutForTest(nil, nil, nil)
	d := validDraft()
	d.Items = nil
	if _, err := uc.SubmitCheckout(context.Background(), d); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCheckoutUseCase_SubmitCheckout_MethodNotConfigured(t *testing.T) {
	// No gateway for wompi: rejected before any order is created.
	uc := newCheckoutForTest(nil, map[entities.PaymentMethod]interfaces.IPaymentGateway{}, nil)
	if _, err := uc.SubmitCheckout(context.Background(), validDraft()); !errors.Is(err, ErrPaymentMethodNotConfigured) {
		t.Fatalf("expected ErrPaymentMethodNotConfigured, got %v", err)
	}
}

func TestCheckoutUseCase_SubmitCheckout_CashOnDelivery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIOrderRepository(ctrl)
	uc := newCheckoutForTest(repo, nil, nil)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, o entities.Order) (entities.Order, error) { return o, nil })
	repo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), entities.TransitionSources(entities.OrderStatusAwaitingFulfillment), entities.OrderStatusAwaitingFulfillment, "", "").
		DoAndReturn(func(_ context.Context, id string, _ []entities.OrderStatus, to entities.OrderStatus, _, _ string) (entities.Order, error) {
			return entities.Order{ID: id, Status: to}, nil
		})

	d := validDraft()
	d.PaymentMethod = entities.PaymentMethodCashOnDelivery
	result, err := uc.SubmitCheckout(context.Background(), d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Order.Status != entities.OrderStatusAwaitingFulfillment {
		t.Fatalf("expected AWAITING_FULFILLMENT, got %s", result.Order.Status)
	}
	if result.RedirectURL != "" {
		t.Fatalf("cod must not produce a redirect, got %q", result.RedirectURL)
	}
}

func TestCheckoutUseCase_SubmitCheckout_RedirectProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIOrderRepository(ctrl)
	gateway := mock_interfaces.NewMockIPaymentGateway(ctrl)
	gateway.EXPECT().Name().Return("WOMPI").AnyTimes()

	uc := newCheckoutForTest(repo, map[entities.PaymentMethod]interfaces.IPaymentGateway{
		entities.PaymentMethodWompi: gateway,
	}, nil)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, o entities.Order) (entities.Order, error) { return o, nil })
	gateway.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(interfaces.ProviderTransaction{
		Reference:   "tx-9",
		RedirectURL: "https://checkout.wompi.co/p/pub?transaction_id=tx-9",
	}, nil)
	repo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any(), entities.OrderStatusAwaitingProvider, "WOMPI", "tx-9").
		DoAndReturn(func(_ context.Context, id string, _ []entities.OrderStatus, to entities.OrderStatus, provider, ref string) (entities.Order, error) {
			return entities.Order{ID: id, Status: to, PaymentProvider: provider, ProviderReference: ref}, nil
		})

	result, err := uc.SubmitCheckout(context.Background(), validDraft())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Order.Status != entities.OrderStatusAwaitingProvider {
		t.Fatalf("expected AWAITING_PROVIDER, got %s", result.Order.Status)
	}
	if result.RedirectURL == "" {
		t.Fatalf("expected redirect url")
	}
	if result.Order.ProviderReference != "tx-9" {
		t.Fatalf("expected provider reference recorded, got %+v", result.Order)
	}
}

func TestCheckoutUseCase_SubmitCheckout_SynchronousApproval(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIOrderRepository(ctrl)
	gateway := mock_interfaces.NewMockIPaymentGateway(ctrl)
	gateway.EXPECT().Name().Return("MERCADOPAGO").AnyTimes()

	uc := newCheckoutForTest(repo, map[entities.PaymentMethod]interfaces.IPaymentGateway{
		entities.PaymentMethodMercadoPago: gateway,
	}, nil)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, o entities.Order) (entities.Order, error) { return o, nil })
	gateway.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(interfaces.ProviderTransaction{
		Reference: "123456",
		Status:    entities.OrderStatusPaid,
	}, nil)
	repo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any(), entities.OrderStatusPaid, "MERCADOPAGO", "123456").
		DoAndReturn(func(_ context.Context, id string, _ []entities.OrderStatus, to entities.OrderStatus, _, _ string) (entities.Order, error) {
			return entities.Order{ID: id, Status: to}, nil
		})

	d := validDraft()
	d.PaymentMethod = entities.PaymentMethodMercadoPago
	result, err := uc.SubmitCheckout(context.Background(), d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Order.Status != entities.OrderStatusPaid {
		t.Fatalf("expected PAID, got %s", result.Order.Status)
	}
	if result.RedirectURL != "" {
		t.Fatalf("synchronous approval must not redirect")
	}
}

func TestCheckoutUseCase_SubmitCheckout_ProviderRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIOrderRepository(ctrl)
	gateway := mock_interfaces.NewMockIPaymentGateway(ctrl)
	gateway.EXPECT().Name().Return("ADDI").AnyTimes()

	sleeps := 0
	uc := newCheckoutForTest(repo, map[entities.PaymentMethod]interfaces.IPaymentGateway{
		entities.PaymentMethodAddi: gateway,
	}, &sleeps)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, o entities.Order) (entities.Order, error) { return o, nil })
	// A rejection is final on the first answer: exactly one provider call.
	gateway.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).
		Return(interfaces.ProviderTransaction{}, interfaces.ErrProviderRejected).Times(1)
	repo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any(), entities.OrderStatusPaymentFailed, "ADDI", "").
		DoAndReturn(func(_ context.Context, id string, _ []entities.OrderStatus, to entities.OrderStatus, _, _ string) (entities.Order, error) {
			return entities.Order{ID: id, Status: to}, nil
		})

	d := validDraft()
	d.PaymentMethod = entities.PaymentMethodAddi
	result, err := uc.SubmitCheckout(context.Background(), d)
	if !errors.Is(err, ErrPaymentRejected) {
		t.Fatalf("expected ErrPaymentRejected, got %v", err)
	}
	if result.Order.Status != entities.OrderStatusPaymentFailed {
		t.Fatalf("expected PAYMENT_FAILED, got %s", result.Order.Status)
	}
	if sleeps != 0 {
		t.Fatalf("rejection must not be retried, slept %d times", sleeps)
	}
}

func TestCheckoutUseCase_SubmitCheckout_ProviderUnavailableExhaustsRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIOrderRepository(ctrl)
	gateway := mock_interfaces.NewMockIPaymentGateway(ctrl)
	gateway.EXPECT().Name().Return("WOMPI").AnyTimes()

	sleeps := 0
	uc := newCheckoutForTest(repo, map[entities.PaymentMethod]interfaces.IPaymentGateway{
		entities.PaymentMethodWompi: gateway,
	}, &sleeps)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, o entities.Order) (entities.Order, error) { return o, nil })
	// Initial attempt plus one retry per backoff step.
	gateway.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).
		Return(interfaces.ProviderTransaction{}, interfaces.ErrProviderUnavailable).Times(4)
	repo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any(), entities.OrderStatusPaymentFailed, "WOMPI", "").
		DoAndReturn(func(_ context.Context, id string, _ []entities.OrderStatus, to entities.OrderStatus, _, _ string) (entities.Order, error) {
			return entities.Order{ID: id, Status: to}, nil
		})

	result, err := uc.SubmitCheckout(context.Background(), validDraft())
	if !errors.Is(err, ErrPaymentUnavailable) {
		t.Fatalf("expected ErrPaymentUnavailable, got %v", err)
	}
	if result.Order.Status != entities.OrderStatusPaymentFailed {
		t.Fatalf("expected PAYMENT_FAILED, got %s", result.Order.Status)
	}
	if sleeps != 3 {
		t.Fatalf("expected 3 backoff sleeps, got %d", sleeps)
	}
}

func TestCheckoutUseCase_SubmitCheckout_RetryThenSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIOrderRepository(ctrl)
	gateway := mock_interfaces.NewMockIPaymentGateway(ctrl)
	gateway.EXPECT().Name().Return("WOMPI").AnyTimes()

	sleeps := 0
	uc := newCheckoutForTest(repo, map[entities.PaymentMethod]interfaces.IPaymentGateway{
		entities.PaymentMethodWompi: gateway,
	}, &sleeps)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, o entities.Order) (entities.Order, error) { return o, nil })
	gomock.InOrder(
		gateway.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).
			Return(interfaces.ProviderTransaction{}, interfaces.ErrProviderUnavailable),
		gateway.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).
			Return(interfaces.ProviderTransaction{Reference: "tx-2", RedirectURL: "https://r"}, nil),
	)
	repo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any(), entities.OrderStatusAwaitingProvider, "WOMPI", "tx-2").
		DoAndReturn(func(_ context.Context, id string, _ []entities.OrderStatus, to entities.OrderStatus, _, _ string) (entities.Order, error) {
			return entities.Order{ID: id, Status: to}, nil
		})

	result, err := uc.SubmitCheckout(context.Background(), validDraft())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RedirectURL != "https://r" {
		t.Fatalf("unexpected redirect: %q", result.RedirectURL)
	}
	if sleeps != 1 {
		t.Fatalf("expected 1 backoff sleep, got %d", sleeps)
	}
}

func TestCheckoutUseCase_SubmitCheckout_SynchronousRejection(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIOrderRepository(ctrl)
	gateway := mock_interfaces.NewMockIPaymentGateway(ctrl)
	gateway.EXPECT().Name().Return("MERCADOPAGO").AnyTimes()

	uc := newCheckoutForTest(repo, map[entities.PaymentMethod]interfaces.IPaymentGateway{
		entities.PaymentMethodMercadoPago: gateway,
	}, nil)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, o entities.Order) (entities.Order, error) { return o, nil })
	gateway.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(interfaces.ProviderTransaction{
		Reference: "123456",
		Status:    entities.OrderStatusPaymentFailed,
	}, nil)
	repo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any(), entities.OrderStatusPaymentFailed, "MERCADOPAGO", "123456").
		DoAndReturn(func(_ context.Context, id string, _ []entities.OrderStatus, to entities.OrderStatus, _, _ string) (entities.Order, error) {
			return entities.Order{ID: id, Status: to}, nil
		})

	d := validDraft()
	d.PaymentMethod = entities.PaymentMethodMercadoPago
	result, err := uc.SubmitCheckout(context.Background(), d)
	if !errors.Is(err, ErrPaymentRejected) {
		t.Fatalf("expected ErrPaymentRejected, got %v", err)
	}
	if result.Order.Status != entities.OrderStatusPaymentFailed {
		t.Fatalf("expected PAYMENT_FAILED, got %s", result.Order.Status)
	}
}
