package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	leaddomain "github.com/worktugal/worktugal/internal/lead/domain"
	partnerdomain "github.com/worktugal/worktugal/internal/partner/domain"
)

// The lead-capture endpoints keep the response contract the marketing site
// already consumes: {success, data} on success, {error, details} on 400.

var errInvalidJSONBody = errors.New("invalid json body")

func (s *Server) HandleSubmitLead(c *gin.Context) {
	var req leaddomain.SubmitLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondLeadError(c, errInvalidJSONBody)
		return
	}

	resp, err := s.leadSvc.SubmitLead(c.Request.Context(), req)
	if err != nil {
		respondLeadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

func (s *Server) HandleSubmitContact(c *gin.Context) {
	var req leaddomain.SubmitContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondLeadError(c, errInvalidJSONBody)
		return
	}

	resp, err := s.leadSvc.SubmitContact(c.Request.Context(), req)
	if err != nil {
		respondLeadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

func (s *Server) HandleSubmitApplication(c *gin.Context) {
	var req leaddomain.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondLeadError(c, errInvalidJSONBody)
		return
	}

	resp, err := s.leadSvc.SubmitApplication(c.Request.Context(), req)
	if err != nil {
		respondLeadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

func (s *Server) HandleSubmitPartner(c *gin.Context) {
	var req partnerdomain.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondLeadError(c, errInvalidJSONBody)
		return
	}

	resp, err := s.partnerSvc.Submit(c.Request.Context(), req)
	if err != nil {
		var vErr *partnerdomain.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "details": vErr.Fields})
			return
		}
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

func respondLeadError(c *gin.Context, err error) {
	var vErr *leaddomain.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "details": vErr.Fields})
		return
	}
	if errors.Is(err, errInvalidJSONBody) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_json", "details": []string{"request body must be valid JSON"}})
		return
	}
	AbortWithError(c, err)
}
