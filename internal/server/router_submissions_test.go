package server

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/veridianip/veridian/backend/internal/submissions"
)

func TestAutoSaveAcknowledgesWithReference(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "jane@example.com")

	status, body := env.request(t, http.MethodPut, "/submissions/draft", token, map[string]interface{}{
		"search_type": "fto",
		"form":        completeFormPayload(),
	})
	if status != http.StatusAccepted {
		t.Fatalf("unexpected status %d: %s", status, body)
	}
	var response struct {
		Reference string `json:"reference"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Reference == "" {
		t.Fatalf("expected a reference in the acknowledgement")
	}

	// The write is debounced; poll until it lands.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		status, _ = env.request(t, http.MethodGet, "/submissions/"+response.Reference, token, nil)
		if status == http.StatusOK {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("draft never became readable, last status %d", status)
}

func TestValidateStepReportsMissingFields(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "jane@example.com")

	status, body := env.request(t, http.MethodPost, "/submissions/validate", token, map[string]interface{}{
		"step": 0,
		"form": submissions.FormPayload{},
	})
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	var response struct {
		Valid   bool     `json:"valid"`
		Missing []string `json:"missing"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Valid {
		t.Fatalf("empty form must not validate")
	}
	if len(response.Missing) != 4 {
		t.Fatalf("unexpected missing fields %v", response.Missing)
	}
}

func TestSubmitForReviewRejectsIncompleteDraft(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "jane@example.com")

	if _, err := env.submissions.SaveDraft(context.Background(), ownerID(t, env, token), submissions.DraftInput{
		Reference:  "FTO-20260601-00042",
		SearchType: submissions.SearchFTO,
		Form:       submissions.FormPayload{Project: submissions.ProjectDetails{ProjectName: "solar panel"}},
	}); err != nil {
		t.Fatalf("failed to seed draft: %v", err)
	}

	status, body := env.request(t, http.MethodPost, "/submissions/FTO-20260601-00042/submit", token, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("unexpected status %d: %s", status, body)
	}
	var response struct {
		Error   string   `json:"error"`
		Step    int      `json:"step"`
		Missing []string `json:"missing"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Error != "validation_failed" {
		t.Fatalf("unexpected error code %q", response.Error)
	}
	if response.Step != 0 || len(response.Missing) == 0 {
		t.Fatalf("unexpected validation detail %+v", response)
	}
}

func TestPaymentCaptureReturnsSnapshotThenReplays(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "jane@example.com")

	payload := map[string]interface{}{
		"order_id":    "order-1",
		"reference":   "FTO-20260601-00042",
		"search_type": "fto",
		"form":        completeFormPayload(),
	}

	status, body := env.request(t, http.MethodPost, "/submissions/capture", token, payload)
	if status != http.StatusOK {
		t.Fatalf("unexpected capture status %d: %s", status, body)
	}
	var first struct {
		Submission  submissionPayload `json:"submission"`
		Replayed    bool              `json:"replayed"`
		SnapshotPDF string            `json:"snapshot_pdf"`
	}
	if err := json.Unmarshal(body, &first); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if first.Replayed {
		t.Fatalf("first capture must not be a replay")
	}
	if first.SnapshotPDF == "" {
		t.Fatalf("expected snapshot pdf in response")
	}
	if first.Submission.Status != "Submitted" || first.Submission.PaymentStatus != "Paid" {
		t.Fatalf("unexpected submission state %s/%s", first.Submission.Status, first.Submission.PaymentStatus)
	}

	status, body = env.request(t, http.MethodPost, "/submissions/capture", token, payload)
	if status != http.StatusOK {
		t.Fatalf("unexpected replay status %d: %s", status, body)
	}
	var second struct {
		Replayed bool `json:"replayed"`
	}
	if err := json.Unmarshal(body, &second); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected replay to be flagged")
	}
}

func TestCaptureRejectsMissingOrderID(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "jane@example.com")

	status, _ := env.request(t, http.MethodPost, "/submissions/capture", token, map[string]interface{}{
		"form": completeFormPayload(),
	})
	if status != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", status)
	}
}

func TestReviewEndpointRendersDisplayNames(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "jane@example.com")

	if _, err := env.submissions.SaveDraft(context.Background(), ownerID(t, env, token), submissions.DraftInput{
		Reference:  "FTO-20260601-00042",
		SearchType: submissions.SearchFTO,
		Form:       completeFormPayload(),
	}); err != nil {
		t.Fatalf("failed to seed draft: %v", err)
	}

	status, body := env.request(t, http.MethodGet, "/submissions/FTO-20260601-00042/review", token, nil)
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", status, body)
	}
	var view submissions.ReviewView
	if err := json.Unmarshal(body, &view); err != nil {
		t.Fatalf("failed to decode review: %v", err)
	}
	if view.ProjectName != "Solar Panel" {
		t.Fatalf("unexpected project name %q", view.ProjectName)
	}
	if view.Phone != "(555) 123-4567" {
		t.Fatalf("phone must pass through verbatim, got %q", view.Phone)
	}
}

func TestConsultationRequestAccepted(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "jane@example.com")

	status, _ := env.request(t, http.MethodPost, "/consultations", token, map[string]interface{}{
		"scheduled_at": "2026-07-01T15:00:00Z",
		"name":         "Jane Doe",
	})
	if status != http.StatusAccepted {
		t.Fatalf("unexpected status %d", status)
	}

	status, _ = env.request(t, http.MethodPost, "/consultations", token, map[string]interface{}{
		"name": "Jane Doe",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("unexpected status for missing schedule %d", status)
	}
}

// ownerID resolves the authenticated account's user id for direct service
// seeding.
func ownerID(t *testing.T, env *testEnv, token string) string {
	t.Helper()
	principal, err := env.tokens.ValidateToken(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	return principal.UserID
}
