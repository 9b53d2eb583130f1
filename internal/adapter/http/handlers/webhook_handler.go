package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	response "dleon_gold/internal/adapter/http/dto/response"
	"dleon_gold/internal/usecase"
	"dleon_gold/pkg"

	"github.com/gin-gonic/gin"
)

// maxWebhookBodyBytes caps inbound notification bodies.
const maxWebhookBodyBytes = int64(65536)

var (
	errWebhookUnauthorized = pkg.NewDomainErrorSimple("INVALID_SIGNATURE", "Webhook signature verification failed", http.StatusUnauthorized)
	errWebhookBadPayload   = pkg.NewDomainErrorSimple("INVALID_WEBHOOK", "Invalid webhook payload", http.StatusBadRequest)
)

// WebhookSecrets carries the per-provider shared secrets used to
// authenticate inbound notifications.
type WebhookSecrets struct {
	Wompi string
	Addi  string
}

// WebhookHandler receives asynchronous provider notifications.
//
// The order of operations is fixed: read the raw body, verify the signature,
// only then parse and reconcile. Nothing mutates order state before the
// signature checks out.

type WebhookHandler struct {
	usecase usecase.IWebhookUseCase
	secrets WebhookSecrets
}

func NewWebhookHandler(uc usecase.IWebhookUseCase, secrets WebhookSecrets) *WebhookHandler {
	return &WebhookHandler{usecase: uc, secrets: secrets}
}

// HandleWompiWebhook processes Wompi transaction events.
//
// @Summary      Wompi webhook
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-Wompi-Signature  header  string  true  "hex HMAC-SHA256 of the raw body"
// @Success      200  {object}  response.WebhookAckResponse
// @Failure      400  {object}  pkg.HTTPError
// @Failure      401  {object}  pkg.HTTPError
// @Router       /webhooks/wompi [post]
func (h *WebhookHandler) HandleWompiWebhook(c *gin.Context) {
	body, ok := h.verifiedBody(c, "wompi", h.secrets.Wompi, c.GetHeader("X-Wompi-Signature"))
	if !ok {
		return
	}

	var event struct {
		Data struct {
			Transaction struct {
				ID        string `json:"id"`
				Reference string `json:"reference"`
				Status    string `json:"status"`
			} `json:"transaction"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("[webhook][wompi] malformed body err=%v", err)
		c.JSON(errWebhookBadPayload.HTTPStatus, errWebhookBadPayload.ToHTTPError())
		return
	}

	h.reconcile(c, usecase.WebhookEvent{
		Provider:          "WOMPI",
		Reference:         event.Data.Transaction.Reference,
		ProviderReference: event.Data.Transaction.ID,
		ProviderStatus:    event.Data.Transaction.Status,
	})
}

// HandleAddiCallback processes Addi application status callbacks.
//
// @Summary      Addi callback
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-Addi-Signature  header  string  true  "hex HMAC-SHA256 of the raw body"
// @Success      200  {object}  response.WebhookAckResponse
// @Failure      400  {object}  pkg.HTTPError
// @Failure      401  {object}  pkg.HTTPError
// @Router       /webhooks/addi [post]
func (h *WebhookHandler) HandleAddiCallback(c *gin.Context) {
	body, ok := h.verifiedBody(c, "addi", h.secrets.Addi, c.GetHeader("X-Addi-Signature"))
	if !ok {
		return
	}

	var event struct {
		ApplicationID     string `json:"applicationId"`
		ExternalReference string `json:"externalReference"`
		Status            string `json:"status"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("[webhook][addi] malformed body err=%v", err)
		c.JSON(errWebhookBadPayload.HTTPStatus, errWebhookBadPayload.ToHTTPError())
		return
	}

	h.reconcile(c, usecase.WebhookEvent{
		Provider:          "ADDI",
		Reference:         event.ExternalReference,
		ProviderReference: event.ApplicationID,
		ProviderStatus:    event.Status,
	})
}

// verifiedBody reads the capped raw body and authenticates it. A signature
// mismatch is a potential security event: it is logged and answered with 401
// before any parsing happens.
func (h *WebhookHandler) verifiedBody(c *gin.Context, provider, secret, signature string) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Printf("[webhook][%s] failed reading body err=%v", provider, err)
		appErr := pkg.NewDomainErrorSimple("INVALID_WEBHOOK", "Failed reading request body", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return nil, false
	}

	if !usecase.VerifySignature(secret, body, signature) {
		log.Printf("[webhook][%s] SECURITY signature verification failed remote=%s", provider, c.ClientIP())
		c.JSON(errWebhookUnauthorized.HTTPStatus, errWebhookUnauthorized.ToHTTPError())
		return nil, false
	}
	return body, true
}

// reconcile applies the event and translates the outcome to the response
// contract: 2xx for anything durably processed (including intentional
// no-ops), 4xx for payloads the provider should not retry, 5xx only for
// transient internal failures so the provider's retry is the recovery path.
func (h *WebhookHandler) reconcile(c *gin.Context, evt usecase.WebhookEvent) {
	result, err := h.usecase.Reconcile(c.Request.Context(), evt)
	if err != nil {
		appErr := mapWebhookError(err)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			log.Printf("[webhook][%s] transient failure ref=%s err=%v", evt.Provider, evt.Reference, err)
		}
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.WebhookAckResponse{
		OrderID: result.Order.ID,
		Status:  string(result.Order.Status),
		Result:  string(result.Outcome),
	})
}

func mapWebhookError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrMissingWebhookReference):
		return pkg.NewDomainErrorSimple("MISSING_REFERENCE", "Webhook carries no order reference", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrUnknownWebhookReference):
		return pkg.NewDomainErrorSimple("UNKNOWN_REFERENCE", "Webhook reference does not match any order", http.StatusBadRequest)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
