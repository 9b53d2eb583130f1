package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"dleon_gold/internal/domain/entities"
	"dleon_gold/internal/infrastructure/config"
	"dleon_gold/internal/usecase/interfaces"
)

var ErrMissingWompiCredentials = errors.New("missing wompi credentials")

const wompiProviderName = "WOMPI"

// WompiGateway creates Wompi transactions (card, PSE, Nequi). The buyer is
// redirected to Wompi's hosted checkout, keyed by the public key plus the
// transaction id the create call returns.
type WompiGateway struct {
	httpClient  *http.Client
	apiURL      string
	checkoutURL string
	publicKey   string
	privateKey  string
	redirectURL string
}

var _ interfaces.IPaymentGateway = (*WompiGateway)(nil)

func NewWompiGateway(cfg config.WompiConfig, redirectURL string, timeout time.Duration) (*WompiGateway, error) {
	if cfg.PrivateKey == "" || cfg.PublicKey == "" {
		log.Printf("[payment][wompi] missing credentials")
		return nil, ErrMissingWompiCredentials
	}
	return &WompiGateway{
		httpClient:  &http.Client{Timeout: timeout},
		apiURL:      cfg.APIURL,
		checkoutURL: cfg.CheckoutURL,
		publicKey:   cfg.PublicKey,
		privateKey:  cfg.PrivateKey,
		redirectURL: redirectURL,
	}, nil
}

func (g *WompiGateway) Name() string { return wompiProviderName }

func (g *WompiGateway) CreateTransaction(ctx context.Context, order entities.Order) (interfaces.ProviderTransaction, error) {
	body := map[string]any{
		"amount_in_cents": int64(math.Round(order.Total * 100)),
		"currency":        "COP",
		"reference":       order.ID,
		"customer_email":  order.Customer.Email,
		"payment_method": map[string]any{
			"type": wompiMethodType(order.PaymentChannel),
		},
		"redirect_url": g.redirectURL,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return interfaces.ProviderTransaction{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL+"/transactions", bytes.NewReader(payload))
	if err != nil {
		return interfaces.ProviderTransaction{}, err
	}
	req.Header.Set("Authorization", "Bearer "+g.privateKey)
	req.Header.Set("Content-Type", "application/json")

	log.Printf("[payment][wompi] create start order_id=%s amount=%.2f type=%s", order.ID, order.Total, wompiMethodType(order.PaymentChannel))
	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Printf("[payment][wompi] create request failed order_id=%s err=%v", order.ID, err)
		return interfaces.ProviderTransaction{}, fmt.Errorf("%w: %v", interfaces.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		log.Printf("[payment][wompi] create unavailable order_id=%s status=%d", order.ID, resp.StatusCode)
		return interfaces.ProviderTransaction{}, fmt.Errorf("%w: wompi status %d", interfaces.ErrProviderUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		detail := readBodySnippet(resp.Body)
		log.Printf("[payment][wompi] create rejected order_id=%s status=%d body=%s", order.ID, resp.StatusCode, detail)
		return interfaces.ProviderTransaction{}, fmt.Errorf("%w: wompi status %d: %s", interfaces.ErrProviderRejected, resp.StatusCode, detail)
	}

	var out struct {
		Data struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return interfaces.ProviderTransaction{}, fmt.Errorf("%w: %v", interfaces.ErrProviderUnavailable, err)
	}
	if out.Data.ID == "" {
		log.Printf("[payment][wompi] create response missing transaction id order_id=%s", order.ID)
		return interfaces.ProviderTransaction{}, fmt.Errorf("%w: wompi response missing transaction id", interfaces.ErrProviderUnavailable)
	}

	log.Printf("[payment][wompi] create success order_id=%s transaction_id=%s", order.ID, out.Data.ID)
	return interfaces.ProviderTransaction{
		Reference:   out.Data.ID,
		RedirectURL: fmt.Sprintf("%s/p/%s?transaction_id=%s", g.checkoutURL, g.publicKey, out.Data.ID),
		Status:      entities.OrderStatusAwaitingProvider,
	}, nil
}

func wompiMethodType(channel string) string {
	switch strings.ToUpper(strings.TrimSpace(channel)) {
	case "PSE":
		return "PSE"
	case "NEQUI":
		return "NEQUI"
	default:
		return "CARD"
	}
}
