package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/courseloop/marketplace-api/internal/models"
	"github.com/courseloop/marketplace-api/internal/service"
	appErrors "github.com/courseloop/marketplace-api/pkg/errors"
	"github.com/courseloop/marketplace-api/pkg/response"
)

// UserHandler handles account registration, role promotion, and role checks.
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{service: svc}
}

// Register stores a user profile. Registering an existing email reports
// "already exists" with HTTP 200 rather than failing.
func (h *UserHandler) Register(c *gin.Context) {
	var req service.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.AlreadyExists {
		response.JSON(c, http.StatusOK, gin.H{"message": "user already exists"}, nil)
		return
	}
	response.Created(c, result.User)
}

// List returns all registered users.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, nil)
}

// ListInstructors returns users holding the instructor role.
func (h *UserHandler) ListInstructors(c *gin.Context) {
	users, err := h.service.ListInstructors(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, nil)
}

// PromoteAdmin assigns the admin role to a user by id.
func (h *UserHandler) PromoteAdmin(c *gin.Context) {
	h.promote(c, models.RoleAdmin)
}

// PromoteInstructor assigns the instructor role to a user by id.
func (h *UserHandler) PromoteInstructor(c *gin.Context) {
	h.promote(c, models.RoleInstructor)
}

func (h *UserHandler) promote(c *gin.Context, role models.UserRole) {
	if err := h.service.Promote(c.Request.Context(), c.Param("id"), role); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"role": role}, nil)
}

// CheckAdmin reports whether the path email holds the admin role. The body
// is {"admin": bool} to match the original client contract; a token issued
// for a different email always yields false.
func (h *UserHandler) CheckAdmin(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	matches, err := h.service.CheckRole(c.Request.Context(), claims.Email, c.Param("email"), models.RoleAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admin": matches})
}

// CheckInstructor mirrors CheckAdmin for the instructor role.
func (h *UserHandler) CheckInstructor(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	matches, err := h.service.CheckRole(c.Request.Context(), claims.Email, c.Param("email"), models.RoleInstructor)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"instructor": matches})
}
