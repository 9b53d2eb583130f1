package entities

import "time"

// OrderStatus represents the order lifecycle.
//
// Domain notes:
//   - INITIATED is the only status the checkout flow creates orders in.
//   - Terminal statuses (PAID, PAYMENT_FAILED, AWAITING_FULFILLMENT) are
//     monotonic: once reached, webhook deliveries must never move the order
//     away from them. Out-of-order and duplicate provider notifications are
//     expected in production.

type OrderStatus string

const (
	OrderStatusInitiated           OrderStatus = "INITIATED"
	OrderStatusAwaitingProvider    OrderStatus = "AWAITING_PROVIDER"
	OrderStatusAwaitingFulfillment OrderStatus = "AWAITING_FULFILLMENT"
	OrderStatusPaid                OrderStatus = "PAID"
	OrderStatusPaymentFailed       OrderStatus = "PAYMENT_FAILED"
)

// orderTransitions lists, per target status, the statuses an order is allowed
// to move from. This table is the single source of truth for the state
// machine; the repository turns it into a conditional write.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusAwaitingProvider:    {OrderStatusInitiated},
	OrderStatusAwaitingFulfillment: {OrderStatusInitiated},
	OrderStatusPaid:                {OrderStatusInitiated, OrderStatusAwaitingProvider},
	OrderStatusPaymentFailed:       {OrderStatusInitiated, OrderStatusAwaitingProvider},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusInitiated, OrderStatusAwaitingProvider, OrderStatusAwaitingFulfillment,
		OrderStatusPaid, OrderStatusPaymentFailed:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusAwaitingFulfillment, OrderStatusPaid, OrderStatusPaymentFailed:
		return true
	}
	return false
}

// TransitionSources returns the statuses an order may be in for a transition
// into target to be legal. An empty slice means no transition reaches target.
func TransitionSources(target OrderStatus) []OrderStatus {
	return orderTransitions[target]
}

func CanTransition(from, to OrderStatus) bool {
	for _, s := range orderTransitions[to] {
		if s == from {
			return true
		}
	}
	return false
}

// PaymentMethod is the closed set of checkout payment options.

type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentMethodAddi           PaymentMethod = "addi"
	PaymentMethodWompi          PaymentMethod = "wompi"
	PaymentMethodMercadoPago    PaymentMethod = "mercadopago"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCashOnDelivery, PaymentMethodAddi, PaymentMethodWompi, PaymentMethodMercadoPago:
		return true
	}
	return false
}

// RequiresProvider reports whether checkout must hand the order off to an
// external payment provider. Cash on delivery is finalized in-process.
func (m PaymentMethod) RequiresProvider() bool {
	return m != PaymentMethodCashOnDelivery
}

// Customer is the buyer snapshot captured at checkout time. Later changes to
// a buyer profile never retroactively change a placed order.
type Customer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Document  string `json:"document"`
	Address   string `json:"address"`
	City      string `json:"city"`
}

type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Variant   string  `json:"variant,omitempty"`
}

func (i OrderItem) Subtotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// Order is the canonical purchase record persisted in DynamoDB.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI1 (provider_reference-index): provider_reference
//
// Monetary representation:
//   - Amounts are decimal COP. Subtotal and Total are always recomputed
//     server-side from Items; a client-supplied total is never trusted.
//
// Orders are an append-only financial record: never deleted, status mutated
// only through the repository's conditional-update contract.
type Order struct {
	ID                string        `json:"id"`
	Customer          Customer      `json:"customer"`
	Items             []OrderItem   `json:"items"`
	Subtotal          float64       `json:"subtotal"`
	Shipping          float64       `json:"shipping"`
	Total             float64       `json:"total"`
	PaymentMethod     PaymentMethod `json:"payment_method"`
	PaymentChannel    string        `json:"payment_channel,omitempty"`
	Status            OrderStatus   `json:"status"`
	PaymentProvider   string        `json:"payment_provider,omitempty"`
	ProviderReference string        `json:"provider_reference,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// ItemsSubtotal recomputes the line-item sum. Checkout uses this instead of
// any amount present in the inbound draft.
func (o Order) ItemsSubtotal() float64 {
	total := 0.0
	for _, it := range o.Items {
		total += it.Subtotal()
	}
	return total
}
