package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates no report exists for the reference.
	ErrNotFound = errors.New("reports: report not found")
	// ErrAlreadyExists indicates a second report for the same reference.
	ErrAlreadyExists = errors.New("reports: report already exists for reference")
	// ErrReportFinal indicates an edit against a finalized report.
	ErrReportFinal = errors.New("reports: report is final and locked")
	// ErrUnknownSection indicates a partial update against an unknown section.
	ErrUnknownSection = errors.New("reports: unknown section")
	// ErrInvalidSection indicates a payload that does not decode into the
	// section's typed structure.
	ErrInvalidSection = errors.New("reports: invalid section payload")
)

// IDProvider issues identifiers for new reports.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies of the report authoring module.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	IDs      IDProvider
	Logger   *zap.Logger
}

// Service manages admin-authored search reports.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	ids    IDProvider
	logger *zap.Logger
}

// NewService constructs the report service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("reports: database connection required")
	}
	if cfg.IDs == nil {
		return nil, fmt.Errorf("reports: id provider required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, clock: clock, ids: cfg.IDs, logger: logger}, nil
}

// Create opens a draft report for the submission reference.
func (s *Service) Create(ctx context.Context, reference, authorID string) (Report, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return Report{}, fmt.Errorf("reports: reference required")
	}

	var existing Report
	err := s.db.WithContext(ctx).Where("reference = ?", reference).Take(&existing).Error
	if err == nil {
		return Report{}, fmt.Errorf("%w: %s", ErrAlreadyExists, reference)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Report{}, err
	}

	id, err := s.ids.NewID()
	if err != nil {
		return Report{}, err
	}
	report := Report{
		ID:        id,
		Reference: reference,
		AuthorID:  authorID,
		Status:    StatusDraft,
	}
	if err := s.db.WithContext(ctx).Create(&report).Error; err != nil {
		return Report{}, err
	}
	return report, nil
}

// Get returns the report for the submission reference.
func (s *Service) Get(ctx context.Context, reference string) (Report, error) {
	var report Report
	err := s.db.WithContext(ctx).Where("reference = ?", reference).Take(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Report{}, ErrNotFound
	}
	if err != nil {
		return Report{}, err
	}
	return report, nil
}

// UpdateSection validates the payload against the section's typed structure
// and writes only that section's column. Concurrent editors are not
// reconciled; the last write wins.
func (s *Service) UpdateSection(ctx context.Context, reference, section string, payload json.RawMessage) (Report, error) {
	report, err := s.Get(ctx, reference)
	if err != nil {
		return Report{}, err
	}
	if report.Status == StatusFinal {
		return Report{}, ErrReportFinal
	}

	column, normalized, err := validateSection(section, payload)
	if err != nil {
		return Report{}, err
	}

	if err := s.db.WithContext(ctx).Model(&Report{}).
		Where("reference = ?", reference).
		Update(column, datatypes.JSON(normalized)).Error; err != nil {
		return Report{}, err
	}
	return s.Get(ctx, reference)
}

// validateSection decodes the payload into the section's typed structure and
// re-encodes it, dropping unknown fields at the boundary.
func validateSection(section string, payload json.RawMessage) (string, []byte, error) {
	var (
		column string
		target interface{}
	)
	switch section {
	case SectionScope:
		column, target = "scope_json", &SearchScope{}
	case SectionFeatures:
		column, target = "features_json", &FeatureAnalysis{}
	case SectionMarket:
		column, target = "market_json", &MarketAnalysis{}
	case SectionRisk:
		column, target = "risk_json", &RiskMitigation{}
	case SectionAppendices:
		column, target = "appendices_json", &Appendices{}
	case SectionDisclaimers:
		column, target = "disclaimers_json", &LegalDisclaimers{}
	default:
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}

	decoder := json.NewDecoder(strings.NewReader(string(payload)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidSection, err)
	}
	normalized, err := json.Marshal(target)
	if err != nil {
		return "", nil, err
	}
	return column, normalized, nil
}

// SetStatus moves the report between draft, review, and final.
func (s *Service) SetStatus(ctx context.Context, reference string, status ReportStatus) (Report, error) {
	switch status {
	case StatusDraft, StatusReview, StatusFinal:
	default:
		return Report{}, fmt.Errorf("reports: unknown status %q", status)
	}

	report, err := s.Get(ctx, reference)
	if err != nil {
		return Report{}, err
	}
	if report.Status == StatusFinal {
		return Report{}, ErrReportFinal
	}

	if err := s.db.WithContext(ctx).Model(&Report{}).
		Where("reference = ?", reference).
		Update("status", status).Error; err != nil {
		return Report{}, err
	}
	report.Status = status
	return report, nil
}

// Finalize applies the write-lock.
func (s *Service) Finalize(ctx context.Context, reference string) (Report, error) {
	return s.SetStatus(ctx, reference, StatusFinal)
}

// SetPDFURL backfills the rendered report's download URL.
func (s *Service) SetPDFURL(ctx context.Context, reference, url string) error {
	return s.db.WithContext(ctx).Model(&Report{}).
		Where("reference = ?", reference).
		Update("pdf_url", url).Error
}

// Sections decodes every stored section for rendering.
func (r Report) Sections() (SearchScope, FeatureAnalysis, MarketAnalysis, RiskMitigation, Appendices, LegalDisclaimers, error) {
	var (
		scope       SearchScope
		features    FeatureAnalysis
		market      MarketAnalysis
		risk        RiskMitigation
		appendices  Appendices
		disclaimers LegalDisclaimers
	)
	for _, pair := range []struct {
		data   datatypes.JSON
		target interface{}
	}{
		{r.ScopeJSON, &scope},
		{r.FeaturesJSON, &features},
		{r.MarketJSON, &market},
		{r.RiskJSON, &risk},
		{r.AppendicesJSON, &appendices},
		{r.DisclaimersJSON, &disclaimers},
	} {
		if len(pair.data) == 0 {
			continue
		}
		if err := json.Unmarshal(pair.data, pair.target); err != nil {
			return scope, features, market, risk, appendices, disclaimers, err
		}
	}
	return scope, features, market, risk, appendices, disclaimers, nil
}
