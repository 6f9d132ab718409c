package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veridianip/veridian/backend/internal/auth"
)

var (
	// ErrEmailTaken indicates a sign-up against an already registered email.
	ErrEmailTaken = errors.New("accounts: email already registered")
	// ErrInvalidCredentials indicates a failed email/password check.
	ErrInvalidCredentials = errors.New("accounts: invalid credentials")
	// ErrNotFound indicates the account does not exist.
	ErrNotFound = errors.New("accounts: account not found")
	// ErrInvalidRole indicates a role outside the admin|user set.
	ErrInvalidRole = errors.New("accounts: invalid role")
)

// ServiceConfig describes the dependencies required for account management.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// Service manages sign-up, sign-in, and profile records.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService constructs the account service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("accounts: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{db: cfg.Database, now: clock}, nil
}

// SignUp registers a new account with the user role.
func (s *Service) SignUp(ctx context.Context, email, password string, profile ProfileUpdate) (Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Account{}, ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return Account{}, err
	}

	account := Account{
		UserID:       uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  normalize(profile.DisplayName),
		Company:      normalize(profile.Company),
		Phone:        normalize(profile.Phone),
		Role:         RoleUser,
	}
	// No pre-check on the email: the unique index is the arbiter, so two
	// concurrent sign-ups cannot both slip through.
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return Account{}, ErrEmailTaken
		}
		return Account{}, err
	}
	return account, nil
}

// SignIn verifies the credentials and returns the stored profile.
func (s *Service) SignIn(ctx context.Context, email, password string) (Account, error) {
	var account Account
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, err
	}
	if !auth.CheckPassword(password, account.PasswordHash) {
		return Account{}, ErrInvalidCredentials
	}
	return account, nil
}

// Get returns the account for the provided user id.
func (s *Service) Get(ctx context.Context, userID string) (Account, error) {
	var account Account
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}
	return account, nil
}

// UpdateProfile applies the self-service editable fields.
func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (Account, error) {
	account, err := s.Get(ctx, userID)
	if err != nil {
		return Account{}, err
	}

	updates := map[string]interface{}{}
	if value := normalize(update.DisplayName); value != "" && value != account.DisplayName {
		updates["display_name"] = value
	}
	if value := normalize(update.Company); value != "" && value != account.Company {
		updates["company"] = value
	}
	if value := normalize(update.Phone); value != "" && value != account.Phone {
		updates["phone"] = value
	}
	if len(updates) == 0 {
		return account, nil
	}
	if err := s.db.WithContext(ctx).Model(&Account{}).
		Where("user_id = ?", userID).
		Updates(updates).Error; err != nil {
		return Account{}, err
	}
	return s.Get(ctx, userID)
}

// SetRole promotes or demotes the account identified by email.
func (s *Service) SetRole(ctx context.Context, email, role string) (Account, error) {
	if role != RoleUser && role != RoleAdmin {
		return Account{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	var account Account
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}
	if err := s.db.WithContext(ctx).Model(&Account{}).
		Where("user_id = ?", account.UserID).
		Update("role", role).Error; err != nil {
		return Account{}, err
	}
	account.Role = role
	return account, nil
}

// EnsureAdmin creates an admin account unless the email is already registered.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (Account, error) {
	email = normalizeEmail(email)

	var existing Account
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&existing).Error
	if err == nil {
		if existing.Role == RoleAdmin {
			return existing, nil
		}
		return s.SetRole(ctx, email, RoleAdmin)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Account{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return Account{}, err
	}
	account := Account{
		UserID:       uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  "Administrator",
		Role:         RoleAdmin,
	}
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return Account{}, ErrEmailTaken
		}
		return Account{}, err
	}
	return account, nil
}

// Principal maps the account onto the auth principal embedded in tokens.
func (a Account) Principal() auth.Principal {
	return auth.Principal{UserID: a.UserID, Email: a.Email, Role: a.Role}
}
