package routes

import (
	"dleon_gold/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
)

const (
	PathCheckout = "/checkout"
	PathOrders   = "/orders"
	PathWebhooks = "/webhooks"
)

func addStoreRoutes(rg *gin.RouterGroup, checkoutHandler *handlers.CheckoutHandler, orderHandler *handlers.OrderHandler, webhookHandler *handlers.WebhookHandler) {
	rg.POST(PathCheckout, checkoutHandler.SubmitCheckout)

	orders := rg.Group(PathOrders)
	{
		orders.GET("/:id", orderHandler.GetOrder)
		orders.GET("/:id/status", orderHandler.GetOrderStatus)
	}

	webhooks := rg.Group(PathWebhooks)
	{
		// One handler per provider; each verifies its own signature scheme.
		webhooks.POST("/wompi", webhookHandler.HandleWompiWebhook)
		webhooks.POST("/addi", webhookHandler.HandleAddiCallback)
	}
}
