package routes

import (
	"log"

	_ "dleon_gold/docs" // This will be auto-generated
	"dleon_gold/internal/adapter/http/handlers"
	repository2 "dleon_gold/internal/adapter/persistence/repository"
	"dleon_gold/internal/domain/entities"
	"dleon_gold/internal/infrastructure/config"
	"dleon_gold/internal/infrastructure/database"
	"dleon_gold/internal/infrastructure/payments"
	"dleon_gold/internal/usecase"
	"dleon_gold/internal/usecase/interfaces"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

var router = gin.Default()

// Run will start the server
func Run() {
	cfg := config.Load()

	setMiddlewares()

	// Swagger documentation endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	getRoutes(cfg)

	err := router.Run(":" + cfg.Port)
	if err != nil {
		log.Fatalf("Failed to startup the application: %v", err.Error())
	}
}

func getRoutes(cfg *config.Config) {
	ddb := database.ConnectDynamoDB()

	orderRepo := repository2.NewOrderDynamoRepository(ddb)
	orderUseCase := usecase.NewOrderUseCase(orderRepo)

	gateways := buildGateways(cfg)

	checkoutUseCase := usecase.NewCheckoutUseCase(orderUseCase, gateways)
	webhookUseCase := usecase.NewWebhookUseCase(orderUseCase)

	checkoutHandler := handlers.NewCheckoutHandler(checkoutUseCase)
	orderHandler := handlers.NewOrderHandler(orderUseCase)
	webhookHandler := handlers.NewWebhookHandler(webhookUseCase, handlers.WebhookSecrets{
		Wompi: cfg.Wompi.WebhookSecret,
		Addi:  cfg.Addi.WebhookSecret,
	})

	// Rutas publicas
	v1 := router.Group("/v1")
	addPingRoutes(v1)
	addStoreRoutes(v1, checkoutHandler, orderHandler, webhookHandler)
}

// buildGateways wires one gateway per configured provider. A provider with no
// credentials simply stays out of the map; checkout rejects its method with a
// clear error instead of failing mid-flow.
func buildGateways(cfg *config.Config) map[entities.PaymentMethod]interfaces.IPaymentGateway {
	gateways := map[entities.PaymentMethod]interfaces.IPaymentGateway{}

	if cfg.Addi.Enabled() {
		addiGateway, err := payments.NewAddiGateway(cfg.Addi, cfg.PublicURL+"/v1/webhooks/addi", cfg.ProviderTimeout)
		if err != nil {
			log.Printf("Addi gateway not configured: %v", err)
		} else {
			gateways[entities.PaymentMethodAddi] = addiGateway
		}
	}

	if cfg.Wompi.Enabled() {
		wompiGateway, err := payments.NewWompiGateway(cfg.Wompi, cfg.FrontendURL+"/checkout/success", cfg.ProviderTimeout)
		if err != nil {
			log.Printf("Wompi gateway not configured: %v", err)
		} else {
			gateways[entities.PaymentMethodWompi] = wompiGateway
		}
	}

	mpGateway, err := payments.NewMercadoPagoGateway(cfg.MercadoPago.AccessToken)
	if err != nil {
		log.Printf("Mercado Pago gateway not configured: %v", err)
	} else {
		gateways[entities.PaymentMethodMercadoPago] = mpGateway
	}

	return gateways
}

func setMiddlewares() {
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("Recovered from panic: %v", recovered)
		c.AbortWithStatus(500)
	}))
}
