package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"dleon_gold/internal/domain/entities"
	"dleon_gold/internal/infrastructure/config"
	"dleon_gold/internal/usecase/interfaces"
)

var ErrMissingAddiCredentials = errors.New("missing addi credentials")

const addiProviderName = "ADDI"

// AddiGateway creates Addi online-application transactions (buy-now-pay-later
// financing). Addi answers the application create with a 301 whose Location
// header is the buyer redirect URL, so redirects must not be followed.
type AddiGateway struct {
	httpClient   *http.Client
	authURL      string
	apiURL       string
	clientID     string
	clientSecret string
	allySlug     string
	callbackURL  string
}

var _ interfaces.IPaymentGateway = (*AddiGateway)(nil)

func NewAddiGateway(cfg config.AddiConfig, callbackURL string, timeout time.Duration) (*AddiGateway, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		log.Printf("[payment][addi] missing credentials")
		return nil, ErrMissingAddiCredentials
	}
	return &AddiGateway{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		authURL:      cfg.AuthURL,
		apiURL:       cfg.APIURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		allySlug:     cfg.AllySlug,
		callbackURL:  callbackURL,
	}, nil
}

func (g *AddiGateway) Name() string { return addiProviderName }

func (g *AddiGateway) CreateTransaction(ctx context.Context, order entities.Order) (interfaces.ProviderTransaction, error) {
	token, err := g.fetchToken(ctx)
	if err != nil {
		return interfaces.ProviderTransaction{}, err
	}

	body := map[string]any{
		"allySlug":        g.allySlug,
		"requestedAmount": order.Total,
		"reference":       order.ID,
		"callbackUrl":     g.callbackURL,
		"customer": map[string]any{
			"email":          order.Customer.Email,
			"phoneNumber":    order.Customer.Phone,
			"documentNumber": order.Customer.Document,
			"documentType":   "CC",
			"firstName":      order.Customer.FirstName,
			"lastName":       order.Customer.LastName,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return interfaces.ProviderTransaction{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL+"/online-applications", bytes.NewReader(payload))
	if err != nil {
		return interfaces.ProviderTransaction{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	log.Printf("[payment][addi] create start order_id=%s amount=%.2f", order.ID, order.Total)
	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Printf("[payment][addi] create request failed order_id=%s err=%v", order.ID, err)
		return interfaces.ProviderTransaction{}, fmt.Errorf("%w: %v", interfaces.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusMovedPermanently || resp.StatusCode == http.StatusFound:
		redirect := resp.Header.Get("Location")
		if redirect == "" {
			log.Printf("[payment][addi] create missing location order_id=%s", order.ID)
			return interfaces.ProviderTransaction{}, fmt.Errorf("%w: empty redirect location", interfaces.ErrProviderUnavailable)
		}
		log.Printf("[payment][addi] create success order_id=%s", order.ID)
		return interfaces.ProviderTransaction{
			Reference:   order.ID,
			RedirectURL: redirect,
			Status:      entities.OrderStatusAwaitingProvider,
		}, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		detail := readBodySnippet(resp.Body)
		log.Printf("[payment][addi] create rejected order_id=%s status=%d body=%s", order.ID, resp.StatusCode, detail)
		return interfaces.ProviderTransaction{}, fmt.Errorf("%w: addi status %d: %s", interfaces.ErrProviderRejected, resp.StatusCode, detail)
	default:
		log.Printf("[payment][addi] create unavailable order_id=%s status=%d", order.ID, resp.StatusCode)
		return interfaces.ProviderTransaction{}, fmt.Errorf("%w: addi status %d", interfaces.ErrProviderUnavailable, resp.StatusCode)
	}
}

func (g *AddiGateway) fetchToken(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     g.clientID,
		"client_secret": g.clientSecret,
		"audience":      g.apiURL,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.authURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Printf("[payment][addi] auth request failed err=%v", err)
		return "", fmt.Errorf("%w: %v", interfaces.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[payment][addi] auth failed status=%d", resp.StatusCode)
		if resp.StatusCode >= 500 {
			return "", fmt.Errorf("%w: addi auth status %d", interfaces.ErrProviderUnavailable, resp.StatusCode)
		}
		return "", fmt.Errorf("%w: addi auth status %d", interfaces.ErrProviderRejected, resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", interfaces.ErrProviderUnavailable, err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%w: addi auth returned empty token", interfaces.ErrProviderUnavailable)
	}
	return out.AccessToken, nil
}

func readBodySnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return string(b)
}
