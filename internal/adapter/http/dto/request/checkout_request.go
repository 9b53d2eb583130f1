package request

import (
	"strings"

	"dleon_gold/internal/domain/entities"
	"dleon_gold/internal/usecase"
)

type CheckoutItemRequest struct {
	ProductID string  `json:"product_id" binding:"required"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity" binding:"required"`
	Variant   string  `json:"variant"`
}

type CheckoutCustomerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" binding:"required"`
	Phone     string `json:"phone"`
	Document  string `json:"document"`
	Address   string `json:"address"`
	City      string `json:"city"`
}

// CheckoutRequest is the checkout submission payload.
//
// Subtotal and Total are accepted for backward compatibility with older
// storefront clients but are never trusted: the order use case recomputes
// both from the line items.
type CheckoutRequest struct {
	Customer       CheckoutCustomerRequest `json:"customer" binding:"required"`
	Items          []CheckoutItemRequest   `json:"items" binding:"required"`
	Shipping       float64                 `json:"shipping"`
	PaymentMethod  string                  `json:"payment_method" binding:"required"`
	PaymentChannel string                  `json:"payment_channel"`

	Subtotal float64 `json:"subtotal"`
	Total    float64 `json:"total"`
}

// ToDraft maps the payload to the domain draft, dropping the client-supplied
// amounts on the floor.
func (r CheckoutRequest) ToDraft() usecase.OrderDraft {
	items := make([]entities.OrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, entities.OrderItem{
			ProductID: strings.TrimSpace(it.ProductID),
			Name:      strings.TrimSpace(it.Name),
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Variant:   strings.TrimSpace(it.Variant),
		})
	}
	return usecase.OrderDraft{
		Customer: entities.Customer{
			FirstName: strings.TrimSpace(r.Customer.FirstName),
			LastName:  strings.TrimSpace(r.Customer.LastName),
			Email:     strings.TrimSpace(r.Customer.Email),
			Phone:     strings.TrimSpace(r.Customer.Phone),
			Document:  strings.TrimSpace(r.Customer.Document),
			Address:   strings.TrimSpace(r.Customer.Address),
			City:      strings.TrimSpace(r.Customer.City),
		},
		Items:          items,
		Shipping:       r.Shipping,
		PaymentMethod:  entities.PaymentMethod(strings.ToLower(strings.TrimSpace(r.PaymentMethod))),
		PaymentChannel: strings.TrimSpace(r.PaymentChannel),
	}
}
