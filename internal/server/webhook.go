package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

// StripeWebhook hands the raw body and signature header to the sync service.
// Any non-2xx response makes the sender retry the delivery.
func (s *Server) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	sig := c.GetHeader("Stripe-Signature")
	if err := s.webhooksvc.HandleEvent(c.Request.Context(), payload, sig); err != nil {
		s.log.Warn("webhook processing failed", zap.Error(err))
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
