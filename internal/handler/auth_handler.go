package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/courseloop/marketplace-api/internal/models"
	"github.com/courseloop/marketplace-api/internal/service"
	appErrors "github.com/courseloop/marketplace-api/pkg/errors"
	"github.com/courseloop/marketplace-api/pkg/response"
)

// AuthHandler issues access tokens for authenticated frontend sessions.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// IssueToken signs a token for the posted identity payload. The response
// body is {"token": ...} to match the original client contract.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req models.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	token, err := h.service.IssueToken(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, token)
}
