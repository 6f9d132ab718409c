package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veridianip/veridian/backend/internal/nda"
)

type signPayload struct {
	SignerName      string `json:"signer_name"`
	Company         string `json:"company"`
	Email           string `json:"email"`
	SignatureBase64 string `json:"signature"`
}

type agreementPayload struct {
	ID           string    `json:"id"`
	SignerName   string    `json:"signer_name"`
	Company      string    `json:"company,omitempty"`
	Email        string    `json:"email"`
	TermsVersion string    `json:"terms_version"`
	Status       string    `json:"status"`
	PDFURL       string    `json:"pdf_url,omitempty"`
	SignedAt     time.Time `json:"signed_at"`
}

func toAgreementPayload(agreement nda.Agreement) agreementPayload {
	return agreementPayload{
		ID:           agreement.ID,
		SignerName:   agreement.SignerName,
		Company:      agreement.Company,
		Email:        agreement.Email,
		TermsVersion: agreement.TermsVersion,
		Status:       string(agreement.Status),
		PDFURL:       agreement.PDFURL,
		SignedAt:     agreement.SignedAt,
	}
}

func (h *httpHandler) handleSignNDA(c *gin.Context) {
	if h.nda == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	var request signPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	var signature []byte
	if request.SignatureBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(request.SignatureBase64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_signature"})
			return
		}
		signature = decoded
	}

	agreement, reused, err := h.nda.Sign(c.Request.Context(), c.GetString(userIDContextKey), nda.SignInput{
		SignerName:   request.SignerName,
		Company:      request.Company,
		Email:        request.Email,
		SignaturePNG: signature,
	})
	if err != nil {
		h.respondServiceError(c, err, "nda_sign_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"agreement": toAgreementPayload(agreement),
		"reused":    reused,
	})
}

func (h *httpHandler) handleCurrentNDA(c *gin.Context) {
	if h.nda == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	agreement, err := h.nda.ForSigner(c.Request.Context(), c.GetString(userIDContextKey))
	if err != nil {
		h.respondServiceError(c, err, "nda_lookup_failed")
		return
	}
	c.JSON(http.StatusOK, toAgreementPayload(agreement))
}

// handleStageDraft stashes in-progress form values for an unauthenticated
// visitor headed through the login redirect.
func (h *httpHandler) handleStageDraft(c *gin.Context) {
	if h.ndaStage == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	var payload json.RawMessage
	if err := c.ShouldBindJSON(&payload); err != nil || len(payload) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	token := h.ndaStage.StageDraft(payload)
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *httpHandler) handleResumeDraft(c *gin.Context) {
	if h.ndaStage == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	payload, ok := h.ndaStage.TakeDraft(c.Param("token"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.Data(http.StatusOK, "application/json", payload)
}
