package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/worktugal/worktugal/internal/payment/domain"
	reviewdomain "github.com/worktugal/worktugal/internal/review/domain"
)

func (s *Server) HandleVerifyPaidReview(c *gin.Context) {
	var req reviewdomain.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, paymentdomain.ErrMissingFields)
		return
	}

	resp, err := s.reviewSvc.VerifySession(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) HandleSubmitPaidReview(c *gin.Context) {
	var req reviewdomain.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, paymentdomain.ErrMissingFields)
		return
	}

	resp, err := s.reviewSvc.Submit(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) HandleNotifyPaidReview(c *gin.Context) {
	var req reviewdomain.NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, paymentdomain.ErrMissingFields)
		return
	}

	if err := s.reviewSvc.NotifyStatusChange(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notified": true})
}
