package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"dleon_gold/internal/domain/entities"
	"dleon_gold/internal/usecase/interfaces"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
)

var ErrMissingMercadoPagoAccessToken = errors.New("missing MERCADOPAGO_ACCESS_TOKEN")
var ErrMercadoPagoGatewayNotConfigured = errors.New("mercado pago gateway not configured")

const mercadoPagoProviderName = "MERCADOPAGO"

// MercadoPagoGateway creates direct payments through the official SDK. Unlike
// the redirect providers, the create call resolves synchronously: the
// returned status already says approved or rejected, so checkout can finalize
// the order without waiting for a notification.
type MercadoPagoGateway struct {
	client   payment.Client
	mockMode bool
}

var _ interfaces.IPaymentGateway = (*MercadoPagoGateway)(nil)

func NewMercadoPagoGateway(accessToken string) (*MercadoPagoGateway, error) {
	if isPaymentGatewayMockEnabled() {
		log.Printf("[payment][mercadopago] mock mode enabled")
		return &MercadoPagoGateway{mockMode: true}, nil
	}

	if accessToken == "" {
		log.Printf("[payment][mercadopago] missing MERCADOPAGO_ACCESS_TOKEN")
		return nil, ErrMissingMercadoPagoAccessToken
	}

	cfg, err := mpconfig.New(accessToken)
	if err != nil {
		log.Printf("[payment][mercadopago] failed creating sdk config err=%v", err)
		return nil, err
	}
	log.Printf("[payment][mercadopago] client initialized")

	return &MercadoPagoGateway{client: payment.NewClient(cfg)}, nil
}

func (g *MercadoPagoGateway) Name() string { return mercadoPagoProviderName }

func (g *MercadoPagoGateway) CreateTransaction(ctx context.Context, order entities.Order) (interfaces.ProviderTransaction, error) {
	if g != nil && g.mockMode {
		id := strconv.FormatInt(time.Now().UTC().UnixNano(), 10)
		log.Printf("[payment][mercadopago] mock create success order_id=%s provider_payment_id=%s provider_status=approved", order.ID, id)
		return interfaces.ProviderTransaction{Reference: id, Status: entities.OrderStatusPaid}, nil
	}

	if g == nil || g.client == nil {
		log.Printf("[payment][mercadopago] gateway not configured")
		return interfaces.ProviderTransaction{}, ErrMercadoPagoGatewayNotConfigured
	}

	// The amount is the store's recomputed total and external_reference is
	// our order id; both are non-negotiable regardless of what the buyer
	// side submitted.
	reqMap := map[string]any{
		"transaction_amount": order.Total,
		"description":        fmt.Sprintf("Order %s", order.ID),
		"external_reference": order.ID,
		"payer": map[string]any{
			"email": order.Customer.Email,
		},
	}
	if order.PaymentChannel != "" {
		reqMap["payment_method_id"] = order.PaymentChannel
	}

	payload, err := json.Marshal(reqMap)
	if err != nil {
		return interfaces.ProviderTransaction{}, err
	}
	var req payment.Request
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Printf("[payment][mercadopago] payload unmarshal failed order_id=%s err=%v", order.ID, err)
		return interfaces.ProviderTransaction{}, err
	}

	log.Printf("[payment][mercadopago] create start order_id=%s amount=%.2f", order.ID, order.Total)
	resp, err := g.client.Create(ctx, req)
	if err != nil {
		log.Printf("[payment][mercadopago] sdk create failed order_id=%s err=%v", order.ID, err)
		if isGatewayRejection(err) {
			return interfaces.ProviderTransaction{}, fmt.Errorf("%w: %v", interfaces.ErrProviderRejected, err)
		}
		return interfaces.ProviderTransaction{}, fmt.Errorf("%w: %v", interfaces.ErrProviderUnavailable, err)
	}

	log.Printf("[payment][mercadopago] create success order_id=%s provider_payment_id=%d provider_status=%s", order.ID, resp.ID, resp.Status)
	return interfaces.ProviderTransaction{
		Reference: fmt.Sprintf("%d", resp.ID),
		Status:    mapMercadoPagoStatus(resp.Status),
	}, nil
}

func mapMercadoPagoStatus(status string) entities.OrderStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "approved":
		return entities.OrderStatusPaid
	case "pending", "in_process", "authorized":
		return entities.OrderStatusAwaitingProvider
	default:
		// rejected, cancelled, refunded, charged_back
		return entities.OrderStatusPaymentFailed
	}
}

// isGatewayRejection sniffs the SDK error text the same way the provider's
// API reports it; the SDK does not expose a typed status code.
func isGatewayRejection(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"\"status\":400", "\"status\":401", "\"status\":403", "\"status\":404",
		"\"error\":\"bad_request\"", "\"error\":\"unauthorized\"", "invalid users involved", "customer not found"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func isPaymentGatewayMockEnabled() bool {
	for _, key := range []string{"PAYMENT_GATEWAY_MOCK", "MERCADOPAGO_MOCK"} {
		v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
		switch v {
		case "1", "true", "yes", "on", "mock":
			return true
		}
	}
	return false
}
