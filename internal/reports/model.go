package reports

import (
	"time"

	"gorm.io/datatypes"
)

// ReportStatus enumerates the authoring lifecycle. Final is a write-lock.
type ReportStatus string

const (
	StatusDraft  ReportStatus = "draft"
	StatusReview ReportStatus = "review"
	StatusFinal  ReportStatus = "final"
)

// Section names addressable by partial updates.
const (
	SectionScope       = "scope"
	SectionFeatures    = "features"
	SectionMarket      = "market"
	SectionRisk        = "risk"
	SectionAppendices  = "appendices"
	SectionDisclaimers = "disclaimers"
)

// Report is the admin-authored search report, one-to-one with a submission
// reference. Each section is stored as its own JSON column so a sub-editor's
// partial update touches only its column; last write wins.
type Report struct {
	ID              string         `gorm:"column:id;primaryKey;size:190;not null"`
	Reference       string         `gorm:"column:reference;size:64;not null;uniqueIndex"`
	AuthorID        string         `gorm:"column:author_id;size:190;not null"`
	Status          ReportStatus   `gorm:"column:status;size:16;not null;default:draft"`
	ScopeJSON       datatypes.JSON `gorm:"column:scope_json;type:text"`
	FeaturesJSON    datatypes.JSON `gorm:"column:features_json;type:text"`
	MarketJSON      datatypes.JSON `gorm:"column:market_json;type:text"`
	RiskJSON        datatypes.JSON `gorm:"column:risk_json;type:text"`
	AppendicesJSON  datatypes.JSON `gorm:"column:appendices_json;type:text"`
	DisclaimersJSON datatypes.JSON `gorm:"column:disclaimers_json;type:text"`
	PDFURL          string         `gorm:"column:pdf_url;size:512"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Report) TableName() string {
	return "search_reports"
}

// SearchScope describes the databases and jurisdictions covered.
type SearchScope struct {
	Databases       []string `json:"databases,omitempty"`
	Jurisdictions   []string `json:"jurisdictions,omitempty"`
	Classifications []string `json:"classifications,omitempty"`
	DateRange       string   `json:"dateRange,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

// Citation is one prior-art reference against a feature.
type Citation struct {
	PatentNumber string `json:"patentNumber"`
	Title        string `json:"title,omitempty"`
	Assignee     string `json:"assignee,omitempty"`
	Relevance    string `json:"relevance,omitempty"`
	Excerpt      string `json:"excerpt,omitempty"`
}

// FeatureFinding maps one claimed feature to its citations and risk level.
type FeatureFinding struct {
	Feature   string     `json:"feature"`
	RiskLevel string     `json:"riskLevel,omitempty"`
	Citations []Citation `json:"citations,omitempty"`
}

// FeatureAnalysis is the features-to-citations section.
type FeatureAnalysis struct {
	Findings []FeatureFinding `json:"findings,omitempty"`
	Summary  string           `json:"summary,omitempty"`
}

// MarketEntry is one jurisdiction's patent-activity assessment.
type MarketEntry struct {
	Jurisdiction   string `json:"jurisdiction"`
	PatentActivity string `json:"patentActivity,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// MarketAnalysis is the target-market section.
type MarketAnalysis struct {
	Entries []MarketEntry `json:"entries,omitempty"`
	Summary string        `json:"summary,omitempty"`
}

// RiskItem is one identified risk and its mitigation.
type RiskItem struct {
	Risk       string `json:"risk"`
	Severity   string `json:"severity,omitempty"`
	Mitigation string `json:"mitigation,omitempty"`
}

// RiskMitigation is the risk-mitigation section.
type RiskMitigation struct {
	Items   []RiskItem `json:"items,omitempty"`
	Summary string     `json:"summary,omitempty"`
}

// Appendix is one titled appendix document.
type Appendix struct {
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
}

// Appendices is the appendix section.
type Appendices struct {
	Items []Appendix `json:"items,omitempty"`
}

// LegalDisclaimers is the fixed-text disclaimers section.
type LegalDisclaimers struct {
	Text string `json:"text"`
}
