package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veridianip/veridian/backend/internal/reports"
	"github.com/veridianip/veridian/backend/internal/submissions"
)

func (h *httpHandler) handleAdminListSubmissions(c *gin.Context) {
	results, err := h.submissions.ListAll(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err, "list_failed")
		return
	}
	payloads := make([]submissionPayload, 0, len(results))
	for _, submission := range results {
		payloads = append(payloads, toSubmissionPayload(submission))
	}
	c.JSON(http.StatusOK, gin.H{"submissions": payloads})
}

type statusUpdatePayload struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	Note          string `json:"note"`
}

func (h *httpHandler) handleAdminUpdateStatus(c *gin.Context) {
	var request statusUpdatePayload
	if err := c.ShouldBindJSON(&request); err != nil || request.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	submission, err := h.submissions.UpdateStatus(c.Request.Context(), c.Param("id"), submissions.StatusUpdate{
		Status:        submissions.Status(request.Status),
		PaymentStatus: submissions.PaymentStatus(request.PaymentStatus),
		Note:          request.Note,
	})
	if err != nil {
		h.respondServiceError(c, err, "status_update_failed")
		return
	}
	c.JSON(http.StatusOK, toSubmissionPayload(submission))
}

func (h *httpHandler) handleAdminPayments(c *gin.Context) {
	records, err := h.submissions.Payments(c.Request.Context(), c.Param("reference"))
	if err != nil {
		h.respondServiceError(c, err, "payments_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": records})
}

type createReportPayload struct {
	Reference string `json:"reference"`
}

func (h *httpHandler) handleCreateReport(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	var request createReportPayload
	if err := c.ShouldBindJSON(&request); err != nil || request.Reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	report, err := h.reports.Create(c.Request.Context(), request.Reference, c.GetString(userIDContextKey))
	if err != nil {
		if errors.Is(err, reports.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "report_exists"})
			return
		}
		h.respondServiceError(c, err, "report_create_failed")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *httpHandler) handleGetReport(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	report, err := h.reports.Get(c.Request.Context(), c.Param("reference"))
	if err != nil {
		h.respondServiceError(c, err, "report_get_failed")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *httpHandler) handleUpdateReportSection(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	var payload json.RawMessage
	if err := c.ShouldBindJSON(&payload); err != nil || len(payload) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	report, err := h.reports.UpdateSection(c.Request.Context(), c.Param("reference"), c.Param("section"), payload)
	if err != nil {
		if errors.Is(err, reports.ErrUnknownSection) || errors.Is(err, reports.ErrInvalidSection) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_section"})
			return
		}
		h.respondServiceError(c, err, "report_update_failed")
		return
	}
	c.JSON(http.StatusOK, report)
}

type reportStatusPayload struct {
	Status string `json:"status"`
}

func (h *httpHandler) handleReportStatus(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	var request reportStatusPayload
	if err := c.ShouldBindJSON(&request); err != nil || request.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	report, err := h.reports.SetStatus(c.Request.Context(), c.Param("reference"), reports.ReportStatus(request.Status))
	if err != nil {
		h.respondServiceError(c, err, "report_status_failed")
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleFinalizeReport locks the report, renders its PDF, uploads it, and
// backfills the download URL. Render or upload failure after the lock is
// logged and surfaced; the lock itself is not reverted.
func (h *httpHandler) handleFinalizeReport(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	reference := c.Param("reference")
	report, err := h.reports.Finalize(c.Request.Context(), reference)
	if err != nil {
		h.respondServiceError(c, err, "report_finalize_failed")
		return
	}

	if h.renderer != nil && h.blobs != nil {
		pdf, renderErr := h.renderer.ReportPDF(report)
		if renderErr != nil {
			h.respondServiceError(c, renderErr, "report_render_failed")
			return
		}
		key := fmt.Sprintf("reports/%s.pdf", reference)
		if putErr := h.blobs.Put(c.Request.Context(), key, pdf, "application/pdf"); putErr != nil {
			h.respondServiceError(c, putErr, "report_upload_failed")
			return
		}
		if url, urlErr := h.blobs.DownloadURL(c.Request.Context(), key); urlErr == nil {
			if setErr := h.reports.SetPDFURL(c.Request.Context(), reference, url); setErr == nil {
				report.PDFURL = url
			}
		}
	}

	c.JSON(http.StatusOK, report)
}
