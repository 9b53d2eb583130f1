package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	request "dleon_gold/internal/adapter/http/dto/request"
	response "dleon_gold/internal/adapter/http/dto/response"
	"dleon_gold/internal/usecase"
	"dleon_gold/pkg"

	"github.com/gin-gonic/gin"
)

var errInvalidCheckoutPayload = pkg.NewDomainErrorSimple("INVALID_CHECKOUT_INPUT", "Invalid checkout payload", http.StatusBadRequest)

// checkoutDeadline bounds the whole submit path, including the provider
// retry loop, so a buyer is never left hanging for a redirect.
const checkoutDeadline = 15 * time.Second

// CheckoutHandler handles checkout submissions.

type CheckoutHandler struct {
	usecase usecase.ICheckoutUseCase
}

func NewCheckoutHandler(uc usecase.ICheckoutUseCase) *CheckoutHandler {
	return &CheckoutHandler{usecase: uc}
}

// SubmitCheckout creates an order from a cart snapshot and hands off to the
// chosen payment provider.
//
// @Summary      Submit checkout
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        payload  body  request.CheckoutRequest  true  "cart snapshot, customer and payment method"
// @Success      201  {object}  response.CheckoutResponse
// @Failure      400  {object}  pkg.HTTPError
// @Failure      422  {object}  pkg.HTTPError
// @Failure      503  {object}  pkg.HTTPError
// @Router       /checkout [post]
func (h *CheckoutHandler) SubmitCheckout(c *gin.Context) {
	var payload request.CheckoutRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Printf("[checkout][handler] invalid payload err=%v", err)
		c.JSON(errInvalidCheckoutPayload.HTTPStatus, errInvalidCheckoutPayload.ToHTTPError())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), checkoutDeadline)
	defer cancel()

	result, err := h.usecase.SubmitCheckout(ctx, payload.ToDraft())
	if err != nil {
		log.Printf("[checkout][handler] submit failed err=%v", err)
		appErr := mapCheckoutError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	log.Printf("[checkout][handler] submit success order_id=%s status=%s redirect=%t",
		result.Order.ID, result.Order.Status, result.RedirectURL != "")

	c.JSON(http.StatusCreated, response.FromCheckout(result.Order, result.RedirectURL))
}

func mapCheckoutError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrEmptyCart):
		return pkg.NewDomainErrorSimple("EMPTY_CART", "Cart is empty", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrInvalidOrderDraft):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrPaymentMethodNotConfigured):
		return pkg.NewDomainErrorSimple("PAYMENT_METHOD_NOT_CONFIGURED", "Payment method is not available", http.StatusServiceUnavailable)
	case errors.Is(err, usecase.ErrPaymentRejected):
		return pkg.NewDomainErrorSimple("PAYMENT_REJECTED", "Payment was rejected, verify your data or choose another method", http.StatusUnprocessableEntity)
	case errors.Is(err, usecase.ErrPaymentUnavailable):
		return pkg.NewDomainErrorSimple("PAYMENT_PROVIDER_UNAVAILABLE", "Payment provider is unavailable, try again", http.StatusServiceUnavailable)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
