package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/courseloop/marketplace-api/internal/service"
	appErrors "github.com/courseloop/marketplace-api/pkg/errors"
	"github.com/courseloop/marketplace-api/pkg/response"
)

// SelectionHandler handles the per-student selection queue.
type SelectionHandler struct {
	service *service.SelectionService
}

// NewSelectionHandler creates a new selection handler.
func NewSelectionHandler(svc *service.SelectionService) *SelectionHandler {
	return &SelectionHandler{service: svc}
}

// Add queues a class for later checkout.
func (h *SelectionHandler) Add(c *gin.Context) {
	var req service.AddSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	selection, err := h.service.Add(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, selection)
}

// ListForStudent returns the selections queued by one student.
func (h *SelectionHandler) ListForStudent(c *gin.Context) {
	selections, err := h.service.ListForStudent(c.Request.Context(), c.Param("email"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, selections, nil)
}

// Remove drops a selection from the queue.
func (h *SelectionHandler) Remove(c *gin.Context) {
	if err := h.service.Remove(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": true}, nil)
}
