package handler

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/courseloop/marketplace-api/internal/service"
	appErrors "github.com/courseloop/marketplace-api/pkg/errors"
	"github.com/courseloop/marketplace-api/pkg/response"
)

// PaymentHandler handles payment authorization, checkout, history, receipts,
// and the admin sales export.
type PaymentHandler struct {
	payments *service.PaymentService
	receipts *service.ReceiptService
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(payments *service.PaymentService, receipts *service.ReceiptService) *PaymentHandler {
	return &PaymentHandler{payments: payments, receipts: receipts}
}

// CreateIntent authorizes a card charge and returns the client secret as
// {"clientSecret": ...} for the card widget.
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req service.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	intent, err := h.payments.CreateIntent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, intent)
}

// Checkout records a confirmed payment and enrolls the student.
func (h *PaymentHandler) Checkout(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.payments.Checkout(c.Request.Context(), claims.Email, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// EnrolledClasses returns a student's enrollments, newest first.
func (h *PaymentHandler) EnrolledClasses(c *gin.Context) {
	enrollments, err := h.payments.EnrolledClasses(c.Request.Context(), c.Param("email"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// ReceiptLink returns a signed, short-lived download link for a payment's
// PDF receipt.
func (h *PaymentHandler) ReceiptLink(c *gin.Context) {
	link, err := h.receipts.SignedLink(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// DownloadReceipt streams a receipt PDF for a valid signed token.
func (h *PaymentHandler) DownloadReceipt(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing token"))
		return
	}

	file, err := h.receipts.Open(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(file.Name())))
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}

// ExportCSV streams the full sales log as a CSV attachment.
func (h *PaymentHandler) ExportCSV(c *gin.Context) {
	data, err := h.payments.ExportCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("sales_%s.csv", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}
