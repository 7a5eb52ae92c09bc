package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"zarinpal/internal/payment"
)

// APIResponse is the envelope every /api route answers with.
type APIResponse struct {
	Status bool        `json:"status"`
	Msg    string      `json:"msg"`
	Obj    interface{} `json:"obj"`
}

func successResponse(c echo.Context, msg string, obj interface{}) error {
	return c.JSON(http.StatusOK, APIResponse{
		Status: true,
		Msg:    msg,
		Obj:    obj,
	})
}

func errorResponse(c echo.Context, code int, msg string, obj interface{}) error {
	return c.JSON(code, APIResponse{
		Status: false,
		Msg:    msg,
		Obj:    obj,
	})
}

// failureStatus maps a gateway failure to the HTTP status of our reply.
func failureStatus(f *payment.Failure) int {
	switch f.Kind {
	case payment.FailureInvalidInput:
		return http.StatusBadRequest
	case payment.FailureGateway:
		return http.StatusPaymentRequired
	default:
		return http.StatusBadGateway
	}
}

func failureResponse(c echo.Context, f *payment.Failure, obj interface{}) error {
	return errorResponse(c, failureStatus(f), f.Error(), obj)
}
