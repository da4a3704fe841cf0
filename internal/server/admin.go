package server

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	checkupdomain "github.com/worktugal/worktugal/internal/checkup/domain"
	"github.com/worktugal/worktugal/pkg/db/pagination"
)

// AdminAuthRequired gates the back-office listings behind a static bearer
// token. No token configured means the admin surface is switched off.
func (s *Server) AdminAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := s.cfg.AdminAPIToken
		if token == "" {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		presented := strings.TrimPrefix(header, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (s *Server) HandleListCheckups(c *gin.Context) {
	var req checkupdomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.checkupSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) HandleListLeads(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, err)
		return
	}
	limit := page.Clamp(100)

	var afterID int64
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err == nil && cursor.ID != "" {
			afterID, _ = strconv.ParseInt(cursor.ID, 10, 64)
		}
	}

	leads, err := s.leadRepo.ListLeads(c.Request.Context(), s.db, afterID, limit+1)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	info := pagination.PageInfo{}
	if len(leads) > limit {
		leads = leads[:limit]
		last := leads[len(leads)-1]
		if token, err := pagination.EncodeCursor(pagination.Cursor{ID: last.ID.String()}); err == nil {
			info.HasMore = true
			info.NextPageToken = token
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"leads":           leads,
		"next_page_token": info.NextPageToken,
		"has_more":        info.HasMore,
	})
}
