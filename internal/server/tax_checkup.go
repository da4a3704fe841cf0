package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	checkupdomain "github.com/worktugal/worktugal/internal/checkup/domain"
)

func (s *Server) HandleTaxCheckup(c *gin.Context) {
	var req checkupdomain.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, &checkupdomain.ValidationError{
			Fields: []checkupdomain.FieldError{
				{Field: "body", Code: "invalid_json", Message: "request body must be valid JSON"},
			},
		})
		return
	}

	resp, err := s.checkupSvc.Submit(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
