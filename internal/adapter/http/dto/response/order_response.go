package response

import (
	"time"

	"dleon_gold/internal/domain/entities"
)

type OrderItemResponse struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Variant   string  `json:"variant,omitempty"`
}

type OrderCustomerResponse struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	City      string `json:"city,omitempty"`
}

type OrderResponse struct {
	OrderID           string                `json:"order_id"`
	ID                string                `json:"id"`
	Customer          OrderCustomerResponse `json:"customer"`
	Items             []OrderItemResponse   `json:"items"`
	Subtotal          float64               `json:"subtotal"`
	Shipping          float64               `json:"shipping"`
	Total             float64               `json:"total"`
	PaymentMethod     string                `json:"payment_method"`
	Status            string                `json:"status"`
	PaymentProvider   string                `json:"payment_provider,omitempty"`
	ProviderReference string                `json:"provider_reference,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

func FromOrder(o entities.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Variant:   it.Variant,
		})
	}
	return OrderResponse{
		OrderID: o.ID,
		ID:      o.ID,
		Customer: OrderCustomerResponse{
			FirstName: o.Customer.FirstName,
			LastName:  o.Customer.LastName,
			Email:     o.Customer.Email,
			Phone:     o.Customer.Phone,
			City:      o.Customer.City,
		},
		Items:             items,
		Subtotal:          o.Subtotal,
		Shipping:          o.Shipping,
		Total:             o.Total,
		PaymentMethod:     string(o.PaymentMethod),
		Status:            string(o.Status),
		PaymentProvider:   o.PaymentProvider,
		ProviderReference: o.ProviderReference,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

// OrderStatusResponse is the poll payload clients read after returning from a
// provider redirect.
type OrderStatusResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

func StatusFromOrder(o entities.Order) OrderStatusResponse {
	return OrderStatusResponse{OrderID: o.ID, Status: string(o.Status)}
}

type CheckoutResponse struct {
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

func FromCheckout(o entities.Order, redirectURL string) CheckoutResponse {
	return CheckoutResponse{
		OrderID:     o.ID,
		Status:      string(o.Status),
		RedirectURL: redirectURL,
	}
}

// WebhookAckResponse acknowledges a processed provider notification.
type WebhookAckResponse struct {
	OrderID string `json:"order_id,omitempty"`
	Status  string `json:"status,omitempty"`
	Result  string `json:"result"`
}
