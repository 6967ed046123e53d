package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xtreino/platform/internal/gateway/mercadopago"
	reconciledomain "github.com/xtreino/platform/internal/reconcile/domain"
	"go.uber.org/zap"
)

type createPreferenceRequest struct {
	Title     string   `json:"title"`
	UnitPrice *float64 `json:"unit_price"`
	Quantity  int      `json:"quantity"`
	Currency  string   `json:"currency_id"`
	BackURL   string   `json:"back_url"`
}

// CreatePreference asks the gateway for a checkout session. The response
// keeps the gateway's own field names so the storefront can redirect the
// buyer straight to init_point.
func (s *Server) CreatePreference(c *gin.Context) {
	var req createPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	if strings.TrimSpace(req.Title) == "" || req.UnitPrice == nil || *req.UnitPrice <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and unit_price are required"})
		return
	}

	pref, err := s.gateway.CreatePreference(c.Request.Context(), mercadopago.PreferenceRequest{
		Title:     req.Title,
		UnitPrice: *req.UnitPrice,
		Quantity:  req.Quantity,
		Currency:  req.Currency,
	})
	if err != nil {
		s.obsMetrics.RecordGatewayRequest("create_preference", "error")

		var gatewayErr *mercadopago.GatewayError
		if errors.As(err, &gatewayErr) {
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "gateway rejected the preference",
				"message": gatewayErr.Body,
			})
			return
		}
		if errors.Is(err, mercadopago.ErrMissingCredential) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "payment gateway not configured"})
			return
		}

		s.log.Error("create preference failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create preference"})
		return
	}

	s.obsMetrics.RecordGatewayRequest("create_preference", "ok")
	c.JSON(http.StatusOK, gin.H{
		"id":                 pref.ID,
		"init_point":         pref.InitPoint,
		"sandbox_init_point": pref.SandboxInitPoint,
	})
}

// HandlePaymentWebhook acknowledges every recognized notification with 200
// so the gateway stops retrying. Only a failed fetch of the payment object
// returns 500; that is the one failure a gateway retry can fix.
func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	var event reconciledomain.WebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusOK, reconciledomain.Result{Received: true, Status: reconciledomain.OutcomeIgnored})
		return
	}

	result, err := s.reconcileSvc.ProcessNotification(c.Request.Context(), event)
	if err != nil {
		s.log.Error("webhook processing failed",
			zap.String("payment_id", event.Data.ID.String()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "payment lookup failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
