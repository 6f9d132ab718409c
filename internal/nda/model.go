package nda

import "time"

// AgreementStatus enumerates NDA states.
type AgreementStatus string

const (
	StatusPending AgreementStatus = "pending"
	StatusSigned  AgreementStatus = "signed"
	StatusExpired AgreementStatus = "expired"
)

// Agreement records one acceptance event per signer. Signed agreements are
// immutable except for the deferred PDF-URL backfill.
type Agreement struct {
	ID           string          `gorm:"column:id;primaryKey;size:190;not null"`
	SignerID     string          `gorm:"column:signer_id;size:190;not null;index"`
	SignerName   string          `gorm:"column:signer_name;size:320;not null"`
	Company      string          `gorm:"column:company;size:320"`
	Email        string          `gorm:"column:email;size:320;not null"`
	TermsVersion string          `gorm:"column:terms_version;size:32;not null"`
	TermsHash    string          `gorm:"column:terms_hash;size:64;not null"`
	HasSignature bool            `gorm:"column:has_signature;not null;default:false"`
	Status       AgreementStatus `gorm:"column:status;size:16;not null"`
	PDFURL       string          `gorm:"column:pdf_url;size:512"`
	SignedAt     time.Time       `gorm:"column:signed_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Agreement) TableName() string {
	return "nda_agreements"
}
