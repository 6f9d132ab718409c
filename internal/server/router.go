package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/veridianip/veridian/backend/internal/accounts"
	"github.com/veridianip/veridian/backend/internal/auth"
	"github.com/veridianip/veridian/backend/internal/docgen"
	"github.com/veridianip/veridian/backend/internal/nda"
	"github.com/veridianip/veridian/backend/internal/notify"
	"github.com/veridianip/veridian/backend/internal/payments"
	"github.com/veridianip/veridian/backend/internal/realtime"
	"github.com/veridianip/veridian/backend/internal/reports"
	"github.com/veridianip/veridian/backend/internal/storage"
	"github.com/veridianip/veridian/backend/internal/submissions"
)

const (
	userIDContextKey = "veridian_user_id"
	roleContextKey   = "veridian_role"
	emailContextKey  = "veridian_email"
)

var (
	errMissingTokenManager = errors.New("token manager dependency required")
	errMissingAccounts     = errors.New("account service dependency required")
	errMissingSubmissions  = errors.New("submission service dependency required")
	errInvalidAuthorizaton = errors.New("authorization header missing or invalid")
)

// Dependencies wires the HTTP surface to the domain services.
type Dependencies struct {
	Accounts    *accounts.Service
	Tokens      *auth.TokenIssuer
	Submissions *submissions.Service
	NDA         *nda.Service
	NDAStage    *nda.Stage
	Reports     *reports.Service
	Renderer    *docgen.Renderer
	Blobs       storage.BlobStore
	Notify      *notify.Dispatcher
	Events      *realtime.Dispatcher
	Logger      *zap.Logger
}

// NewHTTPHandler builds the gin router with all routes registered.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Tokens == nil {
		return nil, errMissingTokenManager
	}
	if deps.Accounts == nil {
		return nil, errMissingAccounts
	}
	if deps.Submissions == nil {
		return nil, errMissingSubmissions
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		accounts:    deps.Accounts,
		tokens:      deps.Tokens,
		submissions: deps.Submissions,
		nda:         deps.NDA,
		ndaStage:    deps.NDAStage,
		reports:     deps.Reports,
		renderer:    deps.Renderer,
		blobs:       deps.Blobs,
		notify:      deps.Notify,
		events:      deps.Events,
		logger:      logger,
	}

	router.POST("/auth/signup", handler.handleSignUp)
	router.POST("/auth/signin", handler.handleSignIn)
	router.POST("/nda/stage", handler.handleStageDraft)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	{
		protected.GET("/profile", handler.handleGetProfile)
		protected.PUT("/profile", handler.handleUpdateProfile)

		protected.GET("/nda/stage/:token", handler.handleResumeDraft)
		protected.POST("/nda/sign", handler.handleSignNDA)
		protected.GET("/nda/current", handler.handleCurrentNDA)

		protected.PUT("/submissions/draft", handler.handleAutoSave)
		protected.POST("/submissions/validate", handler.handleValidateStep)
		protected.GET("/submissions", handler.handleListSubmissions)
		protected.GET("/submissions/:reference", handler.handleGetSubmission)
		protected.GET("/submissions/:reference/review", handler.handleReview)
		protected.GET("/submissions/:reference/progress", handler.handleProgress)
		protected.POST("/submissions/:reference/submit", handler.handleSubmitForReview)
		protected.POST("/submissions/capture", handler.handlePaymentCapture)

		protected.POST("/consultations", handler.handleConsultationRequest)

		protected.GET("/events/stream", handler.handleEventStream)
	}

	admin := protected.Group("/admin")
	admin.Use(handler.requireAdmin)
	{
		admin.GET("/submissions", handler.handleAdminListSubmissions)
		admin.POST("/submissions/:id/status", handler.handleAdminUpdateStatus)
		admin.GET("/submissions/:reference/payments", handler.handleAdminPayments)

		admin.POST("/reports", handler.handleCreateReport)
		admin.GET("/reports/:reference", handler.handleGetReport)
		admin.PUT("/reports/:reference/sections/:section", handler.handleUpdateReportSection)
		admin.POST("/reports/:reference/status", handler.handleReportStatus)
		admin.POST("/reports/:reference/finalize", handler.handleFinalizeReport)
	}

	return router, nil
}

type httpHandler struct {
	accounts    *accounts.Service
	tokens      *auth.TokenIssuer
	submissions *submissions.Service
	nda         *nda.Service
	ndaStage    *nda.Stage
	reports     *reports.Service
	renderer    *docgen.Renderer
	blobs       storage.BlobStore
	notify      *notify.Dispatcher
	events      *realtime.Dispatcher
	logger      *zap.Logger
}

type credentialsPayload struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Company     string `json:"company"`
	Phone       string `json:"phone"`
}

type authResponsePayload struct {
	AccessToken string         `json:"access_token"`
	ExpiresIn   int64          `json:"expires_in"`
	TokenType   string         `json:"token_type"`
	Profile     profilePayload `json:"profile"`
}

type profilePayload struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Company     string `json:"company"`
	Phone       string `json:"phone"`
	Role        string `json:"role"`
}

func toProfilePayload(account accounts.Account) profilePayload {
	return profilePayload{
		UserID:      account.UserID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Company:     account.Company,
		Phone:       account.Phone,
		Role:        account.Role,
	}
}

func (h *httpHandler) handleSignUp(c *gin.Context) {
	var request credentialsPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Email) == "" || request.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	account, err := h.accounts.SignUp(c.Request.Context(), request.Email, request.Password, accounts.ProfileUpdate{
		DisplayName: request.DisplayName,
		Company:     request.Company,
		Phone:       request.Phone,
	})
	if errors.Is(err, accounts.ErrEmailTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "email_taken"})
		return
	}
	if err != nil {
		h.logger.Error("sign up failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup_failed"})
		return
	}

	h.respondWithToken(c, account)
}

func (h *httpHandler) handleSignIn(c *gin.Context) {
	var request credentialsPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	account, err := h.accounts.SignIn(c.Request.Context(), request.Email, request.Password)
	if errors.Is(err, accounts.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
		return
	}
	if err != nil {
		h.logger.Error("sign in failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signin_failed"})
		return
	}

	h.respondWithToken(c, account)
}

func (h *httpHandler) respondWithToken(c *gin.Context, account accounts.Account) {
	token, expiresIn, err := h.tokens.IssueToken(c.Request.Context(), account.Principal())
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}
	c.JSON(http.StatusOK, authResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
		Profile:     toProfilePayload(account),
	})
}

func (h *httpHandler) handleGetProfile(c *gin.Context) {
	account, err := h.accounts.Get(c.Request.Context(), c.GetString(userIDContextKey))
	if errors.Is(err, accounts.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		h.logger.Error("profile lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_failed"})
		return
	}
	c.JSON(http.StatusOK, toProfilePayload(account))
}

func (h *httpHandler) handleUpdateProfile(c *gin.Context) {
	var request credentialsPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	account, err := h.accounts.UpdateProfile(c.Request.Context(), c.GetString(userIDContextKey), accounts.ProfileUpdate{
		DisplayName: request.DisplayName,
		Company:     request.Company,
		Phone:       request.Phone,
	})
	if err != nil {
		h.logger.Error("profile update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_failed"})
		return
	}
	c.JSON(http.StatusOK, toProfilePayload(account))
}

// authorizeRequest accepts a bearer header or, for the event stream, an
// access_token query parameter.
func (h *httpHandler) authorizeRequest(c *gin.Context) {
	token := ""
	header := c.GetHeader("Authorization")
	switch {
	case strings.HasPrefix(header, "Bearer "):
		token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	case c.Query("access_token") != "":
		token = c.Query("access_token")
	}
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorizaton.Error()})
		return
	}

	principal, err := h.tokens.ValidateToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			h.logger.Info("token validation failed", zap.Error(err))
		} else {
			h.logger.Warn("token validation failed", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(userIDContextKey, principal.UserID)
	c.Set(roleContextKey, principal.Role)
	c.Set(emailContextKey, principal.Email)
	c.Next()
}

func (h *httpHandler) requireAdmin(c *gin.Context) {
	if c.GetString(roleContextKey) != accounts.RoleAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin_required"})
		return
	}
	c.Next()
}

// respondServiceError maps domain errors onto the HTTP error taxonomy:
// validation failures block with a field list, provider errors surface as a
// bad gateway, everything else becomes a generic error with a stable code.
func (h *httpHandler) respondServiceError(c *gin.Context, err error, fallbackCode string) {
	var validationErr *submissions.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"step":    validationErr.Step,
			"missing": validationErr.Missing,
		})
		return
	}
	var providerErr *payments.ProviderError
	if errors.As(err, &providerErr) {
		h.logger.Warn("payment provider error", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment_provider_error"})
		return
	}
	if errors.Is(err, submissions.ErrNotFound) || errors.Is(err, reports.ErrNotFound) || errors.Is(err, nda.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if errors.Is(err, submissions.ErrUnknownStatus) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_status"})
		return
	}
	if errors.Is(err, reports.ErrReportFinal) {
		c.JSON(http.StatusConflict, gin.H{"error": "report_final"})
		return
	}
	h.logger.Error("request failed", zap.String("code", fallbackCode), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallbackCode})
}
