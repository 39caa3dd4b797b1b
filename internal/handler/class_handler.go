package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/courseloop/marketplace-api/internal/service"
	appErrors "github.com/courseloop/marketplace-api/pkg/errors"
	"github.com/courseloop/marketplace-api/pkg/response"
)

// ClassHandler handles class submission, moderation, and catalog listings.
type ClassHandler struct {
	service *service.ClassService
}

// NewClassHandler creates a new class handler.
func NewClassHandler(svc *service.ClassService) *ClassHandler {
	return &ClassHandler{service: svc}
}

// Submit accepts a new class from an instructor. The class starts pending.
func (h *ClassHandler) Submit(c *gin.Context) {
	var req service.SubmitClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	class, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Approve moves a pending class to approved.
func (h *ClassHandler) Approve(c *gin.Context) {
	outcome, err := h.service.Approve(c.Request.Context(), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}

type denyRequest struct {
	Feedback string `json:"feedback"`
}

// Deny moves a pending class to denied, attaching reviewer feedback.
func (h *ClassHandler) Deny(c *gin.Context) {
	var req denyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	outcome, err := h.service.Deny(c.Request.Context(), c.Param("classId"), req.Feedback)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}

// ListApproved returns the public catalog of approved classes.
func (h *ClassHandler) ListApproved(c *gin.Context) {
	classes, err := h.service.ListApproved(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// ListAll returns every class regardless of status.
func (h *ClassHandler) ListAll(c *gin.Context) {
	classes, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// ListByInstructor returns the classes submitted by one instructor.
func (h *ClassHandler) ListByInstructor(c *gin.Context) {
	classes, err := h.service.ListByInstructor(c.Request.Context(), c.Param("email"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// IncrementTotalStudents bumps a class's enrolled-student counter.
func (h *ClassHandler) IncrementTotalStudents(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.IncrementTotalStudents(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"class_id": id, "updated": true}, nil)
}
