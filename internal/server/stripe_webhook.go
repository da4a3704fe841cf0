package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/worktugal/worktugal/internal/payment/domain"
)

// HandleStripeWebhook returns non-2xx only when the payload cannot be
// authenticated. Once the signature passes, the response is always 200:
// the provider would otherwise redeliver an event whose side effects are
// already idempotently absorbed.
func (s *Server) HandleStripeWebhook(c *gin.Context) {
	sigHeader := strings.TrimSpace(c.GetHeader("Stripe-Signature"))
	if sigHeader == "" {
		AbortWithError(c, paymentdomain.ErrInvalidSignature)
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, paymentdomain.ErrInvalidSignature)
		return
	}

	if err := s.reconciler.Reconcile(c.Request.Context(), payload, sigHeader); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
