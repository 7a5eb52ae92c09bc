package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"zarinpal/internal/middleware"
	"zarinpal/internal/payment"
)

// PaymentGateway is what the payment routes need from a gateway client.
type PaymentGateway interface {
	payment.Gateway
	UnverifiedTransactions(ctx context.Context) *payment.UnverifiedOutcome
}

// PaymentHandler exposes the gateway client over HTTP.
type PaymentHandler struct {
	gateway PaymentGateway
	logger  *zap.Logger
}

func NewPaymentHandler(gateway PaymentGateway, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{gateway: gateway, logger: logger}
}

// Request creates a payment and returns the authority and checkout URL.
// POST /api/payments/request
func (h *PaymentHandler) Request(c echo.Context) error {
	var in payment.PaymentRequestInput
	if err := c.Bind(&in); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body", nil)
	}

	out := h.gateway.RequestPayment(c.Request().Context(), in)
	if !out.Succeeded() {
		middleware.Logger(c, h.logger).Info("Payment request rejected",
			zap.String("kind", string(out.Failure.Kind)),
			zap.Int("code", out.Failure.Code))
		return failureResponse(c, out.Failure, out)
	}

	middleware.Logger(c, h.logger).Info("Payment requested",
		zap.String("authority", out.Authority),
		zap.Int64("amount", in.Amount))
	return successResponse(c, "Successful", out)
}

// Verify confirms a payment.
// POST /api/payments/verify
func (h *PaymentHandler) Verify(c echo.Context) error {
	var in payment.PaymentVerifyInput
	if err := c.Bind(&in); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body", nil)
	}

	out := h.gateway.VerifyPayment(c.Request().Context(), in)
	if !out.Succeeded() {
		middleware.Logger(c, h.logger).Info("Payment verification failed",
			zap.String("authority", in.Authority),
			zap.String("kind", string(out.Failure.Kind)),
			zap.Int("code", out.Failure.Code))
		return failureResponse(c, out.Failure, out)
	}

	middleware.Logger(c, h.logger).Info("Payment verified",
		zap.String("authority", in.Authority),
		zap.String("ref_id", out.RefID),
		zap.Bool("already_verified", out.AlreadyVerified()))
	return successResponse(c, "Successful", out)
}

// Unverified lists paid but unverified transactions.
// GET /api/payments/unverified
func (h *PaymentHandler) Unverified(c echo.Context) error {
	out := h.gateway.UnverifiedTransactions(c.Request().Context())
	if !out.Succeeded() {
		return failureResponse(c, out.Failure, out)
	}
	return successResponse(c, "Successful", out)
}
