package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/veridianip/veridian/backend/internal/accounts"
	"github.com/veridianip/veridian/backend/internal/auth"
	"github.com/veridianip/veridian/backend/internal/docgen"
	"github.com/veridianip/veridian/backend/internal/nda"
	"github.com/veridianip/veridian/backend/internal/payments"
	"github.com/veridianip/veridian/backend/internal/realtime"
	"github.com/veridianip/veridian/backend/internal/reports"
	"github.com/veridianip/veridian/backend/internal/storage"
	"github.com/veridianip/veridian/backend/internal/submissions"
)

const testSigningSecret = "test-signing-secret"

var testIDSequence atomic.Int64

type sequenceIDProvider struct{}

func (sequenceIDProvider) NewID() (string, error) {
	return fmt.Sprintf("test-id-%d", testIDSequence.Add(1)), nil
}

type stubVerifier struct {
	receipt payments.CaptureReceipt
	err     error
}

func (v *stubVerifier) VerifyCapture(_ context.Context, _ string) (payments.CaptureReceipt, error) {
	if v.err != nil {
		return payments.CaptureReceipt{}, v.err
	}
	return v.receipt, nil
}

type memoryBlobStore struct {
	objects map[string][]byte
}

func newMemoryBlobStore() *memoryBlobStore {
	return &memoryBlobStore{objects: make(map[string][]byte)}
}

func (m *memoryBlobStore) Put(_ context.Context, key string, data []byte, _ string) error {
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *memoryBlobStore) DownloadURL(_ context.Context, key string) (string, error) {
	return "https://blobs.test/" + key, nil
}

var _ storage.BlobStore = (*memoryBlobStore)(nil)

type testEnv struct {
	handler     http.Handler
	db          *gorm.DB
	tokens      *auth.TokenIssuer
	accounts    *accounts.Service
	submissions *submissions.Service
	verifier    *stubVerifier
	blobs       *memoryBlobStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:veridian_server_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&accounts.Account{},
		&submissions.Submission{},
		&submissions.ProgressEntry{},
		&submissions.PaymentRecord{},
		&nda.Agreement{},
		&reports.Report{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	tokens := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(testSigningSecret),
		TokenTTL:      time.Hour,
	})

	accountService, err := accounts.NewService(accounts.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to construct account service: %v", err)
	}

	env := &testEnv{
		db:       db,
		tokens:   tokens,
		accounts: accountService,
		verifier: &stubVerifier{receipt: payments.CaptureReceipt{
			CaptureID:  fmt.Sprintf("capture-%d", testIDSequence.Add(1)),
			OrderID:    "order-1",
			PayerEmail: "payer@example.com",
			Amount:     "899.00",
			Currency:   "USD",
			Status:     "COMPLETED",
		}},
		blobs: newMemoryBlobStore(),
	}

	renderer := docgen.NewRenderer()
	events := realtime.NewDispatcher()
	ids := sequenceIDProvider{}

	submissionService, err := submissions.NewService(submissions.ServiceConfig{
		Database:      db,
		IDProvider:    ids,
		Blobs:         env.blobs,
		Verifier:      env.verifier,
		Renderer:      renderer,
		Events:        events,
		AutosaveQuiet: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("failed to construct submission service: %v", err)
	}
	t.Cleanup(submissionService.Close)
	env.submissions = submissionService

	ndaService, err := nda.NewService(nda.ServiceConfig{
		Database: db,
		IDs:      ids,
		Blobs:    env.blobs,
		Renderer: renderer,
	})
	if err != nil {
		t.Fatalf("failed to construct nda service: %v", err)
	}

	reportService, err := reports.NewService(reports.ServiceConfig{
		Database: db,
		IDs:      ids,
	})
	if err != nil {
		t.Fatalf("failed to construct report service: %v", err)
	}

	handler, err := NewHTTPHandler(Dependencies{
		Accounts:    accountService,
		Tokens:      tokens,
		Submissions: submissionService,
		NDA:         ndaService,
		NDAStage:    nda.NewStage(time.Minute, nil),
		Reports:     reportService,
		Renderer:    renderer,
		Blobs:       env.blobs,
		Events:      events,
	})
	if err != nil {
		t.Fatalf("failed to construct handler: %v", err)
	}
	env.handler = handler
	return env
}

func (env *testEnv) signUp(t *testing.T, email string) string {
	t.Helper()
	status, body := env.request(t, http.MethodPost, "/auth/signup", "", map[string]interface{}{
		"email":    email,
		"password": "hunter2-hunter2",
	})
	if status != http.StatusOK {
		t.Fatalf("sign up failed with %d: %s", status, body)
	}
	var response struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("failed to decode sign-up response: %v", err)
	}
	return response.AccessToken
}

func (env *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	account, err := env.accounts.EnsureAdmin(context.Background(), "admin@example.com", "hunter2-hunter2")
	if err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}
	token, _, err := env.tokens.IssueToken(context.Background(), account.Principal())
	if err != nil {
		t.Fatalf("failed to issue admin token: %v", err)
	}
	return token
}

func (env *testEnv) request(t *testing.T, method, path, token string, payload interface{}) (int, []byte) {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to encode request payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, path, body)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, request)
	return recorder.Code, recorder.Body.Bytes()
}

func completeFormPayload() submissions.FormPayload {
	return submissions.FormPayload{
		Project: submissions.ProjectDetails{
			ProjectName: "solar panel",
			ContactName: "jane doe",
			Email:       "jane@example.com",
			Phone:       "(555) 123-4567",
		},
		Invention: submissions.InventionDetails{
			Title:       "adaptive mount",
			Description: "Tracks the sun across seasons.",
			Features:    []string{"dual axis"},
		},
	}
}
