package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	fulfillmentdomain "github.com/xtreino/platform/internal/fulfillment/domain"
	"github.com/xtreino/platform/internal/gateway/mercadopago"
	orderdomain "github.com/xtreino/platform/internal/order/domain"
	productdomain "github.com/xtreino/platform/internal/product/domain"
	userdomain "github.com/xtreino/platform/internal/user/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var gatewayErr *mercadopago.GatewayError
	if errors.As(err, &gatewayErr) {
		return http.StatusBadGateway, errorPayload{
			Type:    "gateway_error",
			Message: gatewayErr.Body,
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, orderdomain.ErrUnauthenticated),
		errors.Is(err, userdomain.ErrUnauthenticated):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, fulfillmentdomain.ErrMissingFileURL),
		errors.Is(err, mercadopago.ErrMissingCredential):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, orderdomain.ErrInvalidTitle),
		errors.Is(err, orderdomain.ErrInvalidAmount),
		errors.Is(err, orderdomain.ErrInvalidKind),
		errors.Is(err, orderdomain.ErrInvalidEvent),
		errors.Is(err, userdomain.ErrInvalidAmount),
		errors.Is(err, productdomain.ErrInvalidName),
		errors.Is(err, productdomain.ErrInvalidPrice),
		errors.Is(err, productdomain.ErrInvalidType),
		errors.Is(err, productdomain.ErrInvalidID),
		errors.Is(err, fulfillmentdomain.ErrInvalidIndex):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, userdomain.ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, fulfillmentdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
