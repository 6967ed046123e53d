package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	userdomain "github.com/xtreino/platform/internal/user/domain"
)

func (s *Server) GetMyProfile(c *gin.Context) {
	profile, err := s.userSvc.EnsureProfile(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (s *Server) UpdateMyProfile(c *gin.Context) {
	var req userdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	profile, err := s.userSvc.UpdateProfile(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
