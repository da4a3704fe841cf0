package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/worktugal/worktugal/internal/payment/domain"
)

func (s *Server) HandleCreateCheckout(c *gin.Context) {
	var req paymentdomain.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, &paymentdomain.ValidationError{
			Fields: []paymentdomain.FieldError{
				{Field: "body", Code: "invalid_json", Message: "request body must be valid JSON"},
			},
		})
		return
	}

	resp, err := s.checkoutSvc.CreateCheckoutSession(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
