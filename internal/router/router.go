package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"zarinpal/internal/handler/api"
	"zarinpal/internal/middleware"
)

// Setup configures all routes for the Echo server.
func Setup(
	e *echo.Echo,
	gateway api.PaymentGateway,
	logger *zap.Logger,
	apiKey string,
	claimer middleware.KeyClaimer,
) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.AccessLog(logger))
	e.Use(middleware.CORS())

	paymentHandler := api.NewPaymentHandler(gateway, logger)

	apiGroup := e.Group("/api")
	apiGroup.Use(middleware.APIAuth(apiKey))

	apiGroup.POST("/payments/request", paymentHandler.Request, middleware.Idempotency(claimer))
	apiGroup.POST("/payments/verify", paymentHandler.Verify)
	apiGroup.GET("/payments/unverified", paymentHandler.Unverified)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
}
