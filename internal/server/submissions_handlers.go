package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/veridianip/veridian/backend/internal/submissions"
)

type draftPayload struct {
	Reference  string                  `json:"reference"`
	SearchType string                  `json:"search_type"`
	NDAID      string                  `json:"nda_id"`
	Form       submissions.FormPayload `json:"form"`
}

type submissionPayload struct {
	ID             string                  `json:"id"`
	Reference      string                  `json:"reference"`
	Status         string                  `json:"status"`
	PaymentStatus  string                  `json:"payment_status"`
	SearchType     string                  `json:"search_type"`
	NDAID          string                  `json:"nda_id,omitempty"`
	Form           submissions.FormPayload `json:"form"`
	AttachmentURLs []string                `json:"attachment_urls,omitempty"`
	SnapshotURL    string                  `json:"snapshot_url,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

func toSubmissionPayload(submission submissions.Submission) submissionPayload {
	form, _ := submissions.DecodeForm(submission)
	var urls []string
	if len(submission.AttachmentURLs) > 0 {
		_ = json.Unmarshal(submission.AttachmentURLs, &urls)
	}
	return submissionPayload{
		ID:             submission.ID,
		Reference:      submission.Reference,
		Status:         string(submission.Status),
		PaymentStatus:  string(submission.PaymentStatus),
		SearchType:     string(submission.SearchType),
		NDAID:          submission.NDAID,
		Form:           form,
		AttachmentURLs: urls,
		SnapshotURL:    submission.SnapshotURL,
		CreatedAt:      submission.CreatedAt,
		UpdatedAt:      submission.UpdatedAt,
	}
}

// handleAutoSave schedules the debounced draft upsert and acknowledges
// immediately with the reference the draft will live under.
func (h *httpHandler) handleAutoSave(c *gin.Context) {
	var request draftPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	reference, err := h.submissions.AutoSave(c.Request.Context(), c.GetString(userIDContextKey), submissions.DraftInput{
		Reference:  request.Reference,
		SearchType: submissions.SearchType(request.SearchType),
		NDAID:      request.NDAID,
		Form:       request.Form,
	})
	if err != nil {
		h.respondServiceError(c, err, "draft_save_failed")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"reference": reference})
}

type validatePayload struct {
	Step int                     `json:"step"`
	Form submissions.FormPayload `json:"form"`
}

func (h *httpHandler) handleValidateStep(c *gin.Context) {
	var request validatePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	missing := submissions.ValidateStep(request.Step, request.Form)
	c.JSON(http.StatusOK, gin.H{
		"step":    request.Step,
		"valid":   len(missing) == 0,
		"missing": missing,
	})
}

func (h *httpHandler) handleListSubmissions(c *gin.Context) {
	results, err := h.submissions.ListForOwner(c.Request.Context(), c.GetString(userIDContextKey))
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

func (h *httpHandler) handleGetSubmission(c *gin.Context) {
	submission, err := h.submissions.GetByReference(c.Request.Context(), c.GetString(userIDContextKey), c.Param("reference"))
	if err != nil {
		h.respondServiceError(c, err, "get_failed")
		return
	}
	c.JSON(http.StatusOK, toSubmissionPayload(submission))
}

func (h *httpHandler) handleReview(c *gin.Context) {
	submission, err := h.submissions.GetByReference(c.Request.Context(), c.GetString(userIDContextKey), c.Param("reference"))
	if err != nil {
		h.respondServiceError(c, err, "get_failed")
		return
	}
	form, err := submissions.DecodeForm(submission)
	if err != nil {
		h.respondServiceError(c, err, "decode_failed")
		return
	}
	c.JSON(http.StatusOK, submissions.RenderReview(form))
}

func (h *httpHandler) handleProgress(c *gin.Context) {
	entries, err := h.submissions.Progress(c.Request.Context(), c.Param("reference"))
	if err != nil {
		h.respondServiceError(c, err, "progress_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": entries})
}

func (h *httpHandler) handleSubmitForReview(c *gin.Context) {
	submission, err := h.submissions.SubmitForReview(c.Request.Context(), c.GetString(userIDContextKey), c.Param("reference"))
	if err != nil {
		h.respondServiceError(c, err, "submit_failed")
		return
	}
	c.JSON(http.StatusOK, toSubmissionPayload(submission))
}

type capturePayload struct {
	OrderID     string                  `json:"order_id"`
	Reference   string                  `json:"reference"`
	SearchType  string                  `json:"search_type"`
	NDAID       string                  `json:"nda_id"`
	Form        submissions.FormPayload `json:"form"`
	Attachments []attachmentPayload     `json:"attachments"`
}

type attachmentPayload struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	DataBase64  string `json:"data"`
}

func (h *httpHandler) handlePaymentCapture(c *gin.Context) {
	var request capturePayload
	if err := c.ShouldBindJSON(&request); err != nil || request.OrderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	attachments := make([]submissions.AttachmentInput, 0, len(request.Attachments))
	for _, attachment := range request.Attachments {
		data, err := base64.StdEncoding.DecodeString(attachment.DataBase64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_attachment"})
			return
		}
		attachments = append(attachments, submissions.AttachmentInput{
			Name:        attachment.Name,
			ContentType: attachment.ContentType,
			Data:        data,
		})
	}

	result, err := h.submissions.HandlePaymentCapture(c.Request.Context(), c.GetString(userIDContextKey), submissions.CaptureInput{
		OrderID:     request.OrderID,
		Reference:   request.Reference,
		SearchType:  submissions.SearchType(request.SearchType),
		NDAID:       request.NDAID,
		Form:        request.Form,
		Attachments: attachments,
	})
	if err != nil {
		h.respondServiceError(c, err, "capture_failed")
		return
	}

	response := gin.H{
		"submission": toSubmissionPayload(result.Submission),
		"replayed":   result.Replayed,
	}
	if len(result.SnapshotPDF) > 0 {
		response["snapshot_pdf"] = base64.StdEncoding.EncodeToString(result.SnapshotPDF)
	}
	c.JSON(http.StatusOK, response)
}

type consultationPayload struct {
	ScheduledAt time.Time `json:"scheduled_at"`
	Name        string    `json:"name"`
}

func (h *httpHandler) handleConsultationRequest(c *gin.Context) {
	var request consultationPayload
	if err := c.ShouldBindJSON(&request); err != nil || request.ScheduledAt.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if h.notify != nil {
		h.notify.VideoCallRequested(c.Request.Context(), c.GetString(emailContextKey), request.Name, request.ScheduledAt)
	}
	h.logger.Info("consultation requested",
		zap.String("user_id", c.GetString(userIDContextKey)),
		zap.Time("scheduled_at", request.ScheduledAt))
	c.JSON(http.StatusAccepted, gin.H{"status": "requested"})
}
