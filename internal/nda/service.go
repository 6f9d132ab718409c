package nda

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/veridianip/veridian/backend/internal/storage"
)

var (
	// ErrNotFound indicates no agreement exists for the signer.
	ErrNotFound = errors.New("nda: agreement not found")
	// ErrMissingSigner indicates the sign request lacked signer identity.
	ErrMissingSigner = errors.New("nda: signer identity required")
)

// Document carries everything the PDF rendering of an agreement needs.
type Document struct {
	SignerName   string
	Company      string
	Email        string
	TermsText    string
	SignaturePNG []byte
	SignedAt     time.Time
}

// Renderer produces the PDF form of a signed agreement.
type Renderer interface {
	AgreementPDF(doc Document) ([]byte, error)
}

// IDProvider issues identifiers for new agreements.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies of the NDA capture flow.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	IDs      IDProvider
	Blobs    storage.BlobStore
	Renderer Renderer
	Logger   *zap.Logger
}

// Service captures NDA signatures and reuses prior signed agreements.
type Service struct {
	db       *gorm.DB
	clock    func() time.Time
	ids      IDProvider
	blobs    storage.BlobStore
	renderer Renderer
	logger   *zap.Logger
}

// NewService constructs the NDA service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("nda: database connection required")
	}
	if cfg.IDs == nil {
		return nil, fmt.Errorf("nda: id provider required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:       cfg.Database,
		clock:    clock,
		ids:      cfg.IDs,
		blobs:    cfg.Blobs,
		renderer: cfg.Renderer,
		logger:   logger,
	}, nil
}

// SignInput is the modal's captured signer identity and signature image.
type SignInput struct {
	SignerName   string
	Company      string
	Email        string
	SignaturePNG []byte
}

// Sign records an acceptance event. A signer with an existing signed
// agreement is never re-requested: the prior agreement is returned with
// reused=true and nothing is written.
func (s *Service) Sign(ctx context.Context, signerID string, input SignInput) (Agreement, bool, error) {
	if strings.TrimSpace(signerID) == "" {
		return Agreement{}, false, ErrMissingSigner
	}

	existing, err := s.ForSigner(ctx, signerID)
	if err == nil && existing.Status == StatusSigned {
		return existing, true, nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Agreement{}, false, err
	}

	if strings.TrimSpace(input.SignerName) == "" {
		return Agreement{}, false, fmt.Errorf("%w: signer name", ErrMissingSigner)
	}

	id, err := s.ids.NewID()
	if err != nil {
		return Agreement{}, false, err
	}
	signedAt := s.clock().UTC()
	agreement := Agreement{
		ID:           id,
		SignerID:     signerID,
		SignerName:   strings.TrimSpace(input.SignerName),
		Company:      strings.TrimSpace(input.Company),
		Email:        strings.TrimSpace(input.Email),
		TermsVersion: TermsVersion,
		TermsHash:    TermsHash(),
		HasSignature: len(input.SignaturePNG) > 0,
		Status:       StatusSigned,
		SignedAt:     signedAt,
	}
	if err := s.db.WithContext(ctx).Create(&agreement).Error; err != nil {
		return Agreement{}, false, err
	}

	// PDF rendering and upload happen after the record exists; the URL is
	// backfilled and its absence tolerated.
	if s.renderer != nil && s.blobs != nil {
		if err := s.backfillPDF(ctx, &agreement, input.SignaturePNG); err != nil {
			s.logger.Warn("nda pdf backfill failed",
				zap.String("agreement_id", agreement.ID),
				zap.Error(err))
		}
	}

	return agreement, false, nil
}

func (s *Service) backfillPDF(ctx context.Context, agreement *Agreement, signaturePNG []byte) error {
	pdf, err := s.renderer.AgreementPDF(Document{
		SignerName:   agreement.SignerName,
		Company:      agreement.Company,
		Email:        agreement.Email,
		TermsText:    TermsText,
		SignaturePNG: signaturePNG,
		SignedAt:     agreement.SignedAt,
	})
	if err != nil {
		return err
	}
	key := fmt.Sprintf("ndas/%s.pdf", agreement.ID)
	if err := s.blobs.Put(ctx, key, pdf, "application/pdf"); err != nil {
		return err
	}
	url, err := s.blobs.DownloadURL(ctx, key)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&Agreement{}).
		Where("id = ?", agreement.ID).
		Update("pdf_url", url).Error; err != nil {
		return err
	}
	agreement.PDFURL = url
	return nil
}

// ForSigner returns the signer's most recent agreement.
func (s *Service) ForSigner(ctx context.Context, signerID string) (Agreement, error) {
	var agreement Agreement
	err := s.db.WithContext(ctx).
		Where("signer_id = ?", signerID).
		Order("signed_at DESC").
		Take(&agreement).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Agreement{}, ErrNotFound
	}
	if err != nil {
		return Agreement{}, err
	}
	return agreement, nil
}
