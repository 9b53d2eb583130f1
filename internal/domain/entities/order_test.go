package entities

import "testing"

func TestOrderStatus_Valid(t *testing.T) {
	for _, s := range []OrderStatus{
		OrderStatusInitiated, OrderStatusAwaitingProvider, OrderStatusAwaitingFulfillment,
		OrderStatusPaid, OrderStatusPaymentFailed,
	} {
		if !s.Valid() {
			t.Fatalf("expected %s to be valid", s)
		}
	}
	if OrderStatus("SHIPPED").Valid() {
		t.Fatalf("expected SHIPPED to be invalid")
	}
	if OrderStatus("").Valid() {
		t.Fatalf("expected empty status to be invalid")
	}
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	terminal := []OrderStatus{OrderStatusAwaitingFulfillment, OrderStatusPaid, OrderStatusPaymentFailed}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Fatalf("expected %s to be terminal", s)
		}
	}
	if OrderStatusInitiated.IsTerminal() || OrderStatusAwaitingProvider.IsTerminal() {
		t.Fatalf("INITIATED and AWAITING_PROVIDER must not be terminal")
	}
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to OrderStatus }{
		{OrderStatusInitiated, OrderStatusAwaitingProvider},
		{OrderStatusInitiated, OrderStatusAwaitingFulfillment},
		{OrderStatusInitiated, OrderStatusPaid},
		{OrderStatusInitiated, OrderStatusPaymentFailed},
		{OrderStatusAwaitingProvider, OrderStatusPaid},
		{OrderStatusAwaitingProvider, OrderStatusPaymentFailed},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	// Terminal statuses are monotonic: nothing leaves them.
	for _, from := range []OrderStatus{OrderStatusPaid, OrderStatusPaymentFailed, OrderStatusAwaitingFulfillment} {
		for _, to := range []OrderStatus{OrderStatusInitiated, OrderStatusAwaitingProvider, OrderStatusAwaitingFulfillment, OrderStatusPaid, OrderStatusPaymentFailed} {
			if from == to {
				continue
			}
			if CanTransition(from, to) {
				t.Fatalf("expected %s -> %s to be rejected", from, to)
			}
		}
	}

	if CanTransition(OrderStatusAwaitingProvider, OrderStatusAwaitingFulfillment) {
		t.Fatalf("provider-backed orders must not jump to AWAITING_FULFILLMENT")
	}
}

func TestTransitionSources(t *testing.T) {
	if got := TransitionSources(OrderStatusPaid); len(got) != 2 {
		t.Fatalf("expected 2 sources for PAID, got %v", got)
	}
	if got := TransitionSources(OrderStatusInitiated); len(got) != 0 {
		t.Fatalf("expected no sources for INITIATED, got %v", got)
	}
	if got := TransitionSources(OrderStatus("SHIPPED")); len(got) != 0 {
		t.Fatalf("expected no sources for unknown status, got %v", got)
	}
}

func TestPaymentMethod_ValidAndRequiresProvider(t *testing.T) {
	for _, m := range []PaymentMethod{PaymentMethodCashOnDelivery, PaymentMethodAddi, PaymentMethodWompi, PaymentMethodMercadoPago} {
		if !m.Valid() {
			t.Fatalf("expected %s to be valid", m)
		}
	}
	if PaymentMethod("paypal").Valid() {
		t.Fatalf("expected paypal to be invalid")
	}

	if PaymentMethodCashOnDelivery.RequiresProvider() {
		t.Fatalf("cash on delivery must not require a provider")
	}
	for _, m := range []PaymentMethod{PaymentMethodAddi, PaymentMethodWompi, PaymentMethodMercadoPago} {
		if !m.RequiresProvider() {
			t.Fatalf("expected %s to require a provider", m)
		}
	}
}

func TestOrder_ItemsSubtotal(t *testing.T) {
	o := Order{Items: []OrderItem{
		{ProductID: "p-1", UnitPrice: 50000, Quantity: 2},
		{ProductID: "p-2", UnitPrice: 12500, Quantity: 1},
	}}
	if got := o.ItemsSubtotal(); got != 112500 {
		t.Fatalf("expected 112500, got %v", got)
	}

	if got := (Order{}).ItemsSubtotal(); got != 0 {
		t.Fatalf("expected 0 for empty items, got %v", got)
	}
}
