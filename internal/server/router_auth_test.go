package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/veridianip/veridian/backend/internal/auth"
)

func TestMissingTokenReturnsUnauthorized(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.request(t, http.MethodGet, "/submissions", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d, want %d", status, http.StatusUnauthorized)
	}
}

func TestAuthorizeRequestLogsExpiredTokenAtInfoLevel(t *testing.T) {
	gin.SetMode(gin.TestMode)

	past := time.Now().Add(-2 * time.Hour)
	staleIssuer := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(testSigningSecret),
		TokenTTL:      time.Hour,
		Clock:         func() time.Time { return past },
	})
	expiredToken, _, err := staleIssuer.IssueToken(context.Background(), auth.Principal{UserID: "user-1"})
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	core, logs := observer.New(zapcore.DebugLevel)
	handler := &httpHandler{
		tokens: auth.NewTokenIssuer(auth.TokenIssuerConfig{SigningSecret: []byte(testSigningSecret)}),
		logger: zap.New(core),
	}

	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)
	request := httptest.NewRequest(http.MethodGet, "/submissions", http.NoBody)
	request.Header.Set("Authorization", "Bearer "+expiredToken)
	ctx.Request = request

	handler.authorizeRequest(ctx)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status code: got %d, want %d", recorder.Code, http.StatusUnauthorized)
	}
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected exactly one log entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Level != zapcore.InfoLevel {
		t.Fatalf("expected info level for expired token, got %s", entry.Level)
	}
	hasExpired := false
	for _, field := range entry.Context {
		if field.Type == zapcore.ErrorType && errors.Is(field.Interface.(error), jwt.ErrTokenExpired) {
			hasExpired = true
			break
		}
	}
	if !hasExpired {
		t.Fatalf("expected expired token error context, got %v", entry.Context)
	}
}

func TestMalformedTokenLoggedAtWarnLevel(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.DebugLevel)
	handler := &httpHandler{
		tokens: auth.NewTokenIssuer(auth.TokenIssuerConfig{SigningSecret: []byte(testSigningSecret)}),
		logger: zap.New(core),
	}

	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)
	request := httptest.NewRequest(http.MethodGet, "/submissions", http.NoBody)
	request.Header.Set("Authorization", "Bearer not-a-token")
	ctx.Request = request

	handler.authorizeRequest(ctx)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status code: got %d", recorder.Code)
	}
	entries := logs.FilterLevelExact(zapcore.WarnLevel).All()
	if len(entries) != 1 {
		t.Fatalf("expected one warn entry, got %d", len(entries))
	}
}

func TestAccessTokenQueryParameterAccepted(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "jane@example.com")

	status, _ := env.request(t, http.MethodGet, "/submissions?access_token="+token, "", nil)
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d, want %d", status, http.StatusOK)
	}
}

func TestAdminRoutesForbiddenForRegularUser(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "jane@example.com")

	status, _ := env.request(t, http.MethodGet, "/admin/submissions", token, nil)
	if status != http.StatusForbidden {
		t.Fatalf("unexpected status %d, want %d", status, http.StatusForbidden)
	}
}

func TestSignUpConflictAndSignIn(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "jane@example.com")

	status, _ := env.request(t, http.MethodPost, "/auth/signup", "", map[string]interface{}{
		"email":    "jane@example.com",
		"password": "other-password",
	})
	if status != http.StatusConflict {
		t.Fatalf("unexpected duplicate sign-up status %d", status)
	}

	status, _ = env.request(t, http.MethodPost, "/auth/signin", "", map[string]interface{}{
		"email":    "jane@example.com",
		"password": "hunter2-hunter2",
	})
	if status != http.StatusOK {
		t.Fatalf("unexpected sign-in status %d", status)
	}

	status, _ = env.request(t, http.MethodPost, "/auth/signin", "", map[string]interface{}{
		"email":    "jane@example.com",
		"password": "wrong",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("unexpected bad-password status %d", status)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "jane@example.com")

	status, _ := env.request(t, http.MethodPut, "/profile", token, map[string]interface{}{
		"display_name": "Jane Doe",
		"company":      "Acme Labs",
	})
	if status != http.StatusOK {
		t.Fatalf("unexpected update status %d", status)
	}

	status, body := env.request(t, http.MethodGet, "/profile", token, nil)
	if status != http.StatusOK {
		t.Fatalf("unexpected get status %d", status)
	}
	var profile profilePayload
	if err := json.Unmarshal(body, &profile); err != nil {
		t.Fatalf("failed to decode profile: %v", err)
	}
	if profile.DisplayName != "Jane Doe" || profile.Company != "Acme Labs" {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if profile.Role != "user" {
		t.Fatalf("unexpected role %q", profile.Role)
	}
}
