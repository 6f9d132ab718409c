package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/veridianip/veridian/backend/internal/reports"
)

func captureSubmission(t *testing.T, env *testEnv, token, reference string) submissionPayload {
	t.Helper()
	status, body := env.request(t, http.MethodPost, "/submissions/capture", token, map[string]interface{}{
		"order_id":    "order-1",
		"reference":   reference,
		"search_type": "fto",
		"form":        completeFormPayload(),
	})
	if status != http.StatusOK {
		t.Fatalf("capture failed with %d: %s", status, body)
	}
	var response struct {
		Submission submissionPayload `json:"submission"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("failed to decode capture response: %v", err)
	}
	return response.Submission
}

func TestAdminStatusUpdateFlow(t *testing.T) {
	env := newTestEnv(t)
	userToken := env.signUp(t, "jane@example.com")
	adminToken := env.adminToken(t)
	submission := captureSubmission(t, env, userToken, "FTO-20260601-00042")

	status, body := env.request(t, http.MethodPost, "/admin/submissions/"+submission.ID+"/status", adminToken, map[string]interface{}{
		"status": "In Progress",
		"note":   "Search underway",
	})
	if status != http.StatusOK {
		t.Fatalf("unexpected status update result %d: %s", status, body)
	}
	var updated submissionPayload
	if err := json.Unmarshal(body, &updated); err != nil {
		t.Fatalf("failed to decode updated submission: %v", err)
	}
	if updated.Status != "In Progress" {
		t.Fatalf("unexpected status %q", updated.Status)
	}

	status, body = env.request(t, http.MethodGet, "/submissions/"+submission.Reference+"/progress", userToken, nil)
	if status != http.StatusOK {
		t.Fatalf("unexpected progress status %d", status)
	}
	var progress struct {
		Progress []struct {
			CurrentStep int    `json:"CurrentStep"`
			Note        string `json:"Note"`
		} `json:"progress"`
	}
	if err := json.Unmarshal(body, &progress); err != nil {
		t.Fatalf("failed to decode progress: %v", err)
	}
	if len(progress.Progress) != 2 {
		t.Fatalf("expected two progress entries, got %d", len(progress.Progress))
	}

	status, _ = env.request(t, http.MethodPost, "/admin/submissions/"+submission.ID+"/status", adminToken, map[string]interface{}{
		"status": "Archived",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("unexpected unknown-status result %d", status)
	}
}

func TestAdminPaymentsListing(t *testing.T) {
	env := newTestEnv(t)
	userToken := env.signUp(t, "jane@example.com")
	adminToken := env.adminToken(t)
	submission := captureSubmission(t, env, userToken, "FTO-20260601-00042")

	status, body := env.request(t, http.MethodGet, "/admin/submissions/"+submission.Reference+"/payments", adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("unexpected payments status %d", status)
	}
	var response struct {
		Payments []struct {
			CaptureID string `json:"CaptureID"`
			Amount    string `json:"Amount"`
		} `json:"payments"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("failed to decode payments: %v", err)
	}
	if len(response.Payments) != 1 {
		t.Fatalf("expected one payment record, got %d", len(response.Payments))
	}
	if response.Payments[0].Amount != "899.00" {
		t.Fatalf("unexpected amount %q", response.Payments[0].Amount)
	}
}

func TestReportAuthoringLifecycle(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.adminToken(t)

	status, body := env.request(t, http.MethodPost, "/admin/reports", adminToken, map[string]interface{}{
		"reference": "FTO-20260601-00042",
	})
	if status != http.StatusOK {
		t.Fatalf("unexpected create status %d: %s", status, body)
	}

	status, _ = env.request(t, http.MethodPost, "/admin/reports", adminToken, map[string]interface{}{
		"reference": "FTO-20260601-00042",
	})
	if status != http.StatusConflict {
		t.Fatalf("unexpected duplicate create status %d", status)
	}

	status, body = env.request(t, http.MethodPut, "/admin/reports/FTO-20260601-00042/sections/scope", adminToken, map[string]interface{}{
		"databases":     []string{"EPO", "USPTO"},
		"jurisdictions": []string{"US", "EP"},
	})
	if status != http.StatusOK {
		t.Fatalf("unexpected section update status %d: %s", status, body)
	}

	status, _ = env.request(t, http.MethodPut, "/admin/reports/FTO-20260601-00042/sections/scope", adminToken, map[string]interface{}{
		"databases": []string{"EPO"},
		"surprise":  true,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("unknown fields must be rejected, got %d", status)
	}

	status, body = env.request(t, http.MethodPost, "/admin/reports/FTO-20260601-00042/finalize", adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("unexpected finalize status %d: %s", status, body)
	}
	var finalized reports.Report
	if err := json.Unmarshal(body, &finalized); err != nil {
		t.Fatalf("failed to decode finalized report: %v", err)
	}
	if finalized.Status != reports.StatusFinal {
		t.Fatalf("unexpected status %q", finalized.Status)
	}
	if finalized.PDFURL == "" {
		t.Fatalf("expected pdf url backfill on finalize")
	}
	if _, ok := env.blobs.objects["reports/FTO-20260601-00042.pdf"]; !ok {
		t.Fatalf("report pdf was not uploaded")
	}

	status, _ = env.request(t, http.MethodPut, "/admin/reports/FTO-20260601-00042/sections/scope", adminToken, map[string]interface{}{
		"databases": []string{"EPO"},
	})
	if status != http.StatusConflict {
		t.Fatalf("final report must reject writes, got %d", status)
	}
}

func TestAdminListSeesAllSubmissions(t *testing.T) {
	env := newTestEnv(t)
	userToken := env.signUp(t, "jane@example.com")
	adminToken := env.adminToken(t)
	captureSubmission(t, env, userToken, "FTO-20260601-00042")

	status, body := env.request(t, http.MethodGet, "/admin/submissions", adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("unexpected list status %d", status)
	}
	var response struct {
		Submissions []submissionPayload `json:"submissions"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(response.Submissions) != 1 {
		t.Fatalf("expected one submission, got %d", len(response.Submissions))
	}
}
