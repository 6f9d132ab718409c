package submissions

import (
	"time"

	"gorm.io/datatypes"
)

// Status enumerates the submission lifecycle states.
type Status string

const (
	StatusDraft         Status = "Draft"
	StatusSubmitted     Status = "Submitted"
	StatusPendingReview Status = "Pending Review"
	StatusInProgress    Status = "In Progress"
	StatusOnHold        Status = "On Hold"
	StatusCompleted     Status = "Completed"
)

// PaymentStatus enumerates payment capture states on a submission.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "Unpaid"
	PaymentPaid   PaymentStatus = "Paid"
)

// SearchType enumerates the offered search products.
type SearchType string

const (
	SearchFTO           SearchType = "fto"
	SearchPatentability SearchType = "patentability"
)

// ProgressStep returns the numeric wizard step recorded alongside a status.
func ProgressStep(status Status) int {
	switch status {
	case StatusSubmitted:
		return 1
	case StatusPendingReview:
		return 2
	case StatusInProgress:
		return 3
	case StatusOnHold:
		return 4
	case StatusCompleted:
		return 5
	default:
		return 0
	}
}

// KnownStatus reports whether the value belongs to the lifecycle enum.
func KnownStatus(status Status) bool {
	switch status {
	case StatusDraft, StatusSubmitted, StatusPendingReview,
		StatusInProgress, StatusOnHold, StatusCompleted:
		return true
	}
	return false
}

// Submission identifies one FTO or patentability request.
type Submission struct {
	ID             string         `gorm:"column:id;primaryKey;size:190;not null"`
	Reference      string         `gorm:"column:reference;size:64;not null;index:idx_submissions_owner_ref,priority:2"`
	OwnerID        string         `gorm:"column:owner_id;size:190;not null;index:idx_submissions_owner_ref,priority:1"`
	Status         Status         `gorm:"column:status;size:32;not null;index"`
	PaymentStatus  PaymentStatus  `gorm:"column:payment_status;size:32;not null;default:Unpaid"`
	SearchType     SearchType     `gorm:"column:search_type;size:32;not null"`
	FormJSON       datatypes.JSON `gorm:"column:form_json;type:text"`
	NDAID          string         `gorm:"column:nda_id;size:190"`
	AttachmentURLs datatypes.JSON `gorm:"column:attachment_urls;type:text"`
	SnapshotURL    string         `gorm:"column:snapshot_url;size:512"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Submission) TableName() string {
	return "submissions"
}

// ProgressEntry is an append-only audit record for a submission; current state
// lives on the Submission row.
type ProgressEntry struct {
	EntryID     string    `gorm:"column:entry_id;primaryKey;size:190;not null"`
	Reference   string    `gorm:"column:reference;size:64;not null;index:idx_progress_ref_time,priority:1"`
	OwnerID     string    `gorm:"column:owner_id;size:190;not null"`
	CurrentStep int       `gorm:"column:current_step;not null"`
	Status      Status    `gorm:"column:status;size:32;not null"`
	Note        string    `gorm:"column:note;type:text"`
	RecordedAt  time.Time `gorm:"column:recorded_at;not null;index:idx_progress_ref_time,priority:2"`
}

// TableName provides the explicit table binding for GORM.
func (ProgressEntry) TableName() string {
	return "progress_entries"
}

// PaymentRecord is an append-only record of a captured payment.
type PaymentRecord struct {
	CaptureID  string    `gorm:"column:capture_id;primaryKey;size:190;not null"`
	Reference  string    `gorm:"column:reference;size:64;not null;index"`
	OwnerID    string    `gorm:"column:owner_id;size:190;not null"`
	PayerEmail string    `gorm:"column:payer_email;size:320"`
	Amount     string    `gorm:"column:amount;size:32;not null"`
	Currency   string    `gorm:"column:currency;size:8;not null"`
	Status     string    `gorm:"column:status;size:32;not null"`
	RecordedAt time.Time `gorm:"column:recorded_at;not null"`
}

// TableName provides the explicit table binding for GORM.
func (PaymentRecord) TableName() string {
	return "payment_records"
}
