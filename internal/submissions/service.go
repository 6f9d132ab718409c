package submissions

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

	"github.com/veridianip/veridian/backend/internal/payments"
	"github.com/veridianip/veridian/backend/internal/realtime"
	"github.com/veridianip/veridian/backend/internal/storage"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	errMissingOwnerID    = errors.New("owner identifier is required")

	// ErrNotFound indicates no submission matches the lookup.
	ErrNotFound = errors.New("submissions: submission not found")
	// ErrUnknownStatus indicates a status outside the lifecycle enum.
	ErrUnknownStatus = errors.New("submissions: unknown status")

	noOpLogger = zap.NewNop()
)

// ValidationError reports the required fields missing at a wizard step.
type ValidationError struct {
	Step    int
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("submissions: step %d missing required fields: %s", e.Step, strings.Join(e.Missing, ", "))
}

// ServiceError carries a stable operation.reason code alongside the cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the stable operation.reason code.
func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew     = "submissions.service.new"
	opSaveDraft      = "submissions.save_draft"
	opSubmit         = "submissions.submit_for_review"
	opPaymentCapture = "submissions.payment_capture"
	opUpdateStatus   = "submissions.update_status"
	opList           = "submissions.list"
	opGet            = "submissions.get"
	opProgress       = "submissions.progress"
	opPayments       = "submissions.payments"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// IDProvider issues identifiers for new records.
type IDProvider interface {
	NewID() (string, error)
}

// CaptureVerifier verifies a client-side capture approval with the provider.
type CaptureVerifier interface {
	VerifyCapture(ctx context.Context, orderID string) (payments.CaptureReceipt, error)
}

// SnapshotRenderer produces the PDF snapshot of a submitted form.
type SnapshotRenderer interface {
	SubmissionSnapshot(submission Submission, view ReviewView) ([]byte, error)
}

// Notifier dispatches lifecycle emails. Implementations must swallow their
// own failures: a failed notification never rolls back a transition.
type Notifier interface {
	SubmissionConfirmed(ctx context.Context, submission Submission, view ReviewView, snapshotPDF []byte)
	AdminAlert(ctx context.Context, submission Submission, view ReviewView)
	StatusChanged(ctx context.Context, submission Submission, previous Status, note string)
}

// ServiceConfig describes the dependencies of the lifecycle manager.
type ServiceConfig struct {
	Database      *gorm.DB
	Clock         func() time.Time
	IDProvider    IDProvider
	Logger        *zap.Logger
	Blobs         storage.BlobStore
	Verifier      CaptureVerifier
	Renderer      SnapshotRenderer
	Notifier      Notifier
	Events        *realtime.Dispatcher
	AutosaveQuiet time.Duration
}

// Service drives the submission lifecycle: draft auto-save, submission,
// payment capture, and admin status transitions.
type Service struct {
	db        *gorm.DB
	clock     func() time.Time
	ids       IDProvider
	logger    *zap.Logger
	blobs     storage.BlobStore
	verifier  CaptureVerifier
	renderer  SnapshotRenderer
	notifier  Notifier
	events    *realtime.Dispatcher
	debouncer *Debouncer
}

// NewService constructs the lifecycle manager.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	quiet := cfg.AutosaveQuiet
	if quiet <= 0 {
		quiet = 2 * time.Second
	}
	return &Service{
		db:        cfg.Database,
		clock:     clock,
		ids:       cfg.IDProvider,
		logger:    logger,
		blobs:     cfg.Blobs,
		verifier:  cfg.Verifier,
		renderer:  cfg.Renderer,
		notifier:  cfg.Notifier,
		events:    cfg.Events,
		debouncer: NewDebouncer(quiet),
	}, nil
}

// Close flushes any pending debounced draft saves.
func (s *Service) Close() {
	s.debouncer.Close()
}

// DraftInput is the wizard state persisted on auto-save.
type DraftInput struct {
	Reference  string
	SearchType SearchType
	NDAID      string
	Form       FormPayload
}

// SaveDraft performs the at-most-one-draft upsert keyed by
// (owner, reference, status=Draft). Only the owning client writes its own
// draft, so the find-or-create needs no cross-writer guard.
func (s *Service) SaveDraft(ctx context.Context, ownerID string, input DraftInput) (Submission, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Submission{}, newServiceError(opSaveDraft, "missing_owner", errMissingOwnerID)
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		reference = NewReference(input.SearchType, s.clock())
	}
	if !ValidReference(reference) {
		return Submission{}, newServiceError(opSaveDraft, "invalid_reference", fmt.Errorf("reference %q", input.Reference))
	}

	input.Form = capFeatures(input.Form)
	formJSON, err := json.Marshal(input.Form)
	if err != nil {
		return Submission{}, newServiceError(opSaveDraft, "encode_form_failed", err)
	}

	var draft Submission
	err = s.db.WithContext(ctx).
		Where("owner_id = ? AND reference = ? AND status = ?", ownerID, reference, StatusDraft).
		Take(&draft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		id, idErr := s.ids.NewID()
		if idErr != nil {
			return Submission{}, newServiceError(opSaveDraft, "id_generation_failed", idErr)
		}
		draft = Submission{
			ID:            id,
			Reference:     reference,
			OwnerID:       ownerID,
			Status:        StatusDraft,
			PaymentStatus: PaymentUnpaid,
			SearchType:    input.SearchType,
			FormJSON:      datatypes.JSON(formJSON),
			NDAID:         input.NDAID,
		}
		if err := s.db.WithContext(ctx).Create(&draft).Error; err != nil {
			s.logError(opSaveDraft, "draft_insert_failed", err, zap.String("reference", reference))
			return Submission{}, newServiceError(opSaveDraft, "draft_insert_failed", err)
		}
	} else if err != nil {
		s.logError(opSaveDraft, "draft_select_failed", err, zap.String("reference", reference))
		return Submission{}, newServiceError(opSaveDraft, "draft_select_failed", err)
	} else {
		updates := map[string]interface{}{"form_json": datatypes.JSON(formJSON)}
		if input.NDAID != "" {
			updates["nda_id"] = input.NDAID
		}
		if input.SearchType != "" {
			updates["search_type"] = input.SearchType
		}
		if err := s.db.WithContext(ctx).Model(&Submission{}).
			Where("id = ?", draft.ID).
			Updates(updates).Error; err != nil {
			s.logError(opSaveDraft, "draft_update_failed", err, zap.String("reference", reference))
			return Submission{}, newServiceError(opSaveDraft, "draft_update_failed", err)
		}
		draft.FormJSON = datatypes.JSON(formJSON)
		if input.NDAID != "" {
			draft.NDAID = input.NDAID
		}
	}

	s.publish(realtime.EventSubmissionChanged, draft)
	return draft, nil
}

// AutoSave schedules a debounced draft upsert and returns the reference the
// draft will be stored under. Writes are coalesced per (owner, reference)
// with a quiet period, the only deliberate rate limiting in the system.
func (s *Service) AutoSave(ctx context.Context, ownerID string, input DraftInput) (string, error) {
	if strings.TrimSpace(ownerID) == "" {
		return "", newServiceError(opSaveDraft, "missing_owner", errMissingOwnerID)
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		reference = NewReference(input.SearchType, s.clock())
	}
	input.Reference = reference

	s.debouncer.Schedule(draftKey(ownerID, reference), func() {
		// Detached from the request context: the save may fire after the
		// originating request has completed.
		if _, err := s.SaveDraft(context.Background(), ownerID, input); err != nil {
			s.logError(opSaveDraft, "autosave_failed", err,
				zap.String("owner_id", ownerID),
				zap.String("reference", reference))
		}
	})
	return reference, nil
}

func draftKey(ownerID, reference string) string {
	return ownerID + "/" + reference
}

// SubmitForReview moves a draft to Submitted without payment capture.
func (s *Service) SubmitForReview(ctx context.Context, ownerID, reference string) (Submission, error) {
	s.debouncer.Flush(draftKey(ownerID, reference))

	var draft Submission
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND reference = ? AND status = ?", ownerID, reference, StatusDraft).
		Take(&draft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Submission{}, newServiceError(opSubmit, "draft_not_found", ErrNotFound)
	}
	if err != nil {
		return Submission{}, newServiceError(opSubmit, "draft_select_failed", err)
	}

	form, err := DecodeForm(draft)
	if err != nil {
		return Submission{}, newServiceError(opSubmit, "decode_form_failed", err)
	}
	for _, step := range []int{StepProject, StepInvention} {
		if missing := ValidateStep(step, form); len(missing) > 0 {
			return Submission{}, &ValidationError{Step: step, Missing: missing}
		}
	}

	now := s.clock().UTC()
	if err := s.db.WithContext(ctx).Model(&Submission{}).
		Where("id = ?", draft.ID).
		Update("status", StatusSubmitted).Error; err != nil {
		s.logError(opSubmit, "status_update_failed", err, zap.String("reference", reference))
		return Submission{}, newServiceError(opSubmit, "status_update_failed", err)
	}
	draft.Status = StatusSubmitted

	if err := s.appendProgress(ctx, draft, "Submitted for review", now); err != nil {
		s.logError(opSubmit, "progress_insert_failed", err, zap.String("reference", reference))
		return Submission{}, newServiceError(opSubmit, "progress_insert_failed", err)
	}

	if s.notifier != nil {
		s.notifier.AdminAlert(ctx, draft, RenderReview(form))
	}
	s.publish(realtime.EventSubmissionChanged, draft)
	return draft, nil
}

// AttachmentInput is one file uploaded with a paid submission.
type AttachmentInput struct {
	Name        string
	ContentType string
	Data        []byte
}

// CaptureInput carries the capture receipt reference and the final wizard
// state for the irreversible payment transition.
type CaptureInput struct {
	OrderID     string
	Reference   string
	SearchType  SearchType
	NDAID       string
	Form        FormPayload
	Attachments []AttachmentInput
}

// CaptureResult is the outcome of HandlePaymentCapture. SnapshotPDF is
// returned for direct client download and is empty on a replay.
type CaptureResult struct {
	Submission  Submission
	SnapshotPDF []byte
	Replayed    bool
}

// HandlePaymentCapture is the single irreversible transition point. It
// verifies the capture with the provider, uploads attachments, renders and
// stores the PDF snapshot, marks the submission Submitted/Paid, appends the
// initial progress entry, and dispatches the confirmation emails. Email
// failure never rolls the transition back. The capture id is the idempotency
// key: replaying a capture payload returns the existing submission and
// writes nothing.
func (s *Service) HandlePaymentCapture(ctx context.Context, ownerID string, input CaptureInput) (CaptureResult, error) {
	if strings.TrimSpace(ownerID) == "" {
		return CaptureResult{}, newServiceError(opPaymentCapture, "missing_owner", errMissingOwnerID)
	}
	if s.verifier == nil {
		return CaptureResult{}, newServiceError(opPaymentCapture, "missing_verifier", errors.New("capture verifier required"))
	}

	receipt, err := s.verifier.VerifyCapture(ctx, input.OrderID)
	if err != nil {
		s.logError(opPaymentCapture, "capture_verify_failed", err, zap.String("order_id", input.OrderID))
		return CaptureResult{}, newServiceError(opPaymentCapture, "capture_verify_failed", err)
	}

	var existingRecord PaymentRecord
	err = s.db.WithContext(ctx).Where("capture_id = ?", receipt.CaptureID).Take(&existingRecord).Error
	if err == nil {
		var existing Submission
		selectErr := s.db.WithContext(ctx).
			Where("owner_id = ? AND reference = ?", existingRecord.OwnerID, existingRecord.Reference).
			Take(&existing).Error
		if selectErr != nil {
			return CaptureResult{}, newServiceError(opPaymentCapture, "replay_select_failed", selectErr)
		}
		s.logger.Info("payment capture replayed",
			zap.String("capture_id", receipt.CaptureID),
			zap.String("reference", existingRecord.Reference))
		return CaptureResult{Submission: existing, Replayed: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return CaptureResult{}, newServiceError(opPaymentCapture, "record_select_failed", err)
	}

	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		reference = NewReference(input.SearchType, s.clock())
	}
	s.debouncer.Flush(draftKey(ownerID, reference))

	attachmentURLs, err := s.uploadAttachments(ctx, reference, input.Attachments)
	if err != nil {
		s.logError(opPaymentCapture, "attachment_upload_failed", err, zap.String("reference", reference))
		return CaptureResult{}, newServiceError(opPaymentCapture, "attachment_upload_failed", err)
	}

	input.Form = capFeatures(input.Form)
	formJSON, err := json.Marshal(input.Form)
	if err != nil {
		return CaptureResult{}, newServiceError(opPaymentCapture, "encode_form_failed", err)
	}
	urlsJSON, err := json.Marshal(attachmentURLs)
	if err != nil {
		return CaptureResult{}, newServiceError(opPaymentCapture, "encode_urls_failed", err)
	}

	var submission Submission
	err = s.db.WithContext(ctx).
		Where("owner_id = ? AND reference = ? AND status = ?", ownerID, reference, StatusDraft).
		Take(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		id, idErr := s.ids.NewID()
		if idErr != nil {
			return CaptureResult{}, newServiceError(opPaymentCapture, "id_generation_failed", idErr)
		}
		submission = Submission{ID: id, Reference: reference, OwnerID: ownerID}
	} else if err != nil {
		return CaptureResult{}, newServiceError(opPaymentCapture, "draft_select_failed", err)
	}

	submission.Status = StatusSubmitted
	submission.PaymentStatus = PaymentPaid
	submission.SearchType = input.SearchType
	submission.FormJSON = datatypes.JSON(formJSON)
	submission.AttachmentURLs = datatypes.JSON(urlsJSON)
	if input.NDAID != "" {
		submission.NDAID = input.NDAID
	}

	view := RenderReview(input.Form)
	var snapshotPDF []byte
	if s.renderer != nil {
		snapshotPDF, err = s.renderer.SubmissionSnapshot(submission, view)
		if err != nil {
			s.logError(opPaymentCapture, "snapshot_render_failed", err, zap.String("reference", reference))
			return CaptureResult{}, newServiceError(opPaymentCapture, "snapshot_render_failed", err)
		}
		if s.blobs != nil {
			key := fmt.Sprintf("submissions/%s/snapshot.pdf", reference)
			if err := s.blobs.Put(ctx, key, snapshotPDF, "application/pdf"); err != nil {
				s.logError(opPaymentCapture, "snapshot_upload_failed", err, zap.String("reference", reference))
				return CaptureResult{}, newServiceError(opPaymentCapture, "snapshot_upload_failed", err)
			}
			url, urlErr := s.blobs.DownloadURL(ctx, key)
			if urlErr == nil {
				submission.SnapshotURL = url
			}
		}
	}

	if err := s.db.WithContext(ctx).Save(&submission).Error; err != nil {
		s.logError(opPaymentCapture, "submission_save_failed", err, zap.String("reference", reference))
		return CaptureResult{}, newServiceError(opPaymentCapture, "submission_save_failed", err)
	}

	now := s.clock().UTC()
	record := PaymentRecord{
		CaptureID:  receipt.CaptureID,
		Reference:  reference,
		OwnerID:    ownerID,
		PayerEmail: receipt.PayerEmail,
		Amount:     receipt.Amount,
		Currency:   receipt.Currency,
		Status:     receipt.Status,
		RecordedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.logError(opPaymentCapture, "record_insert_failed", err, zap.String("reference", reference))
		return CaptureResult{}, newServiceError(opPaymentCapture, "record_insert_failed", err)
	}

	if err := s.appendProgress(ctx, submission, "Payment received; submission created", now); err != nil {
		s.logError(opPaymentCapture, "progress_insert_failed", err, zap.String("reference", reference))
		return CaptureResult{}, newServiceError(opPaymentCapture, "progress_insert_failed", err)
	}

	if s.notifier != nil {
		s.notifier.SubmissionConfirmed(ctx, submission, view, snapshotPDF)
		s.notifier.AdminAlert(ctx, submission, view)
	}
	s.publish(realtime.EventPaymentRecorded, submission)
	s.publish(realtime.EventSubmissionChanged, submission)

	return CaptureResult{Submission: submission, SnapshotPDF: snapshotPDF}, nil
}

func (s *Service) uploadAttachments(ctx context.Context, reference string, attachments []AttachmentInput) ([]string, error) {
	if len(attachments) == 0 || s.blobs == nil {
		return nil, nil
	}
	urls := make([]string, 0, len(attachments))
	for _, attachment := range attachments {
		key := fmt.Sprintf("submissions/%s/attachments/%s", reference, attachment.Name)
		if err := s.blobs.Put(ctx, key, attachment.Data, attachment.ContentType); err != nil {
			return nil, err
		}
		url, err := s.blobs.DownloadURL(ctx, key)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// StatusUpdate is an admin-driven transition.
type StatusUpdate struct {
	Status        Status
	PaymentStatus PaymentStatus
	Note          string
}

// UpdateStatus applies an admin status change, appends the matching progress
// entry, and dispatches the status-change notification.
func (s *Service) UpdateStatus(ctx context.Context, submissionID string, update StatusUpdate) (Submission, error) {
	if !KnownStatus(update.Status) {
		return Submission{}, newServiceError(opUpdateStatus, "unknown_status", fmt.Errorf("%w: %q", ErrUnknownStatus, update.Status))
	}

	var submission Submission
	err := s.db.WithContext(ctx).Where("id = ?", submissionID).Take(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Submission{}, newServiceError(opUpdateStatus, "not_found", ErrNotFound)
	}
	if err != nil {
		return Submission{}, newServiceError(opUpdateStatus, "select_failed", err)
	}

	previous := submission.Status
	updates := map[string]interface{}{"status": update.Status}
	if update.PaymentStatus != "" {
		updates["payment_status"] = update.PaymentStatus
	}
	if err := s.db.WithContext(ctx).Model(&Submission{}).
		Where("id = ?", submissionID).
		Updates(updates).Error; err != nil {
		s.logError(opUpdateStatus, "update_failed", err, zap.String("submission_id", submissionID))
		return Submission{}, newServiceError(opUpdateStatus, "update_failed", err)
	}
	submission.Status = update.Status
	if update.PaymentStatus != "" {
		submission.PaymentStatus = update.PaymentStatus
	}

	if err := s.appendProgress(ctx, submission, update.Note, s.clock().UTC()); err != nil {
		s.logError(opUpdateStatus, "progress_insert_failed", err, zap.String("submission_id", submissionID))
		return Submission{}, newServiceError(opUpdateStatus, "progress_insert_failed", err)
	}

	if s.notifier != nil {
		s.notifier.StatusChanged(ctx, submission, previous, update.Note)
	}
	s.publish(realtime.EventStatusChanged, submission)
	return submission, nil
}

func (s *Service) appendProgress(ctx context.Context, submission Submission, note string, at time.Time) error {
	entryID, err := s.ids.NewID()
	if err != nil {
		return err
	}
	entry := ProgressEntry{
		EntryID:     entryID,
		Reference:   submission.Reference,
		OwnerID:     submission.OwnerID,
		CurrentStep: ProgressStep(submission.Status),
		Status:      submission.Status,
		Note:        note,
		RecordedAt:  at,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return err
	}
	s.publish(realtime.EventProgressAppended, submission)
	return nil
}

// ListForOwner returns the owner's submissions, most recently updated first.
func (s *Service) ListForOwner(ctx context.Context, ownerID string) ([]Submission, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, newServiceError(opList, "missing_owner", errMissingOwnerID)
	}
	var results []Submission
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&results).Error; err != nil {
		return nil, newServiceError(opList, "query_failed", err)
	}
	return results, nil
}

// ListAll returns every submission for the admin dashboard.
func (s *Service) ListAll(ctx context.Context) ([]Submission, error) {
	var results []Submission
	if err := s.db.WithContext(ctx).
		Order("updated_at DESC").
		Find(&results).Error; err != nil {
		return nil, newServiceError(opList, "query_failed", err)
	}
	return results, nil
}

// GetByReference returns the owner's submission with the given reference.
func (s *Service) GetByReference(ctx context.Context, ownerID, reference string) (Submission, error) {
	var submission Submission
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND reference = ?", ownerID, reference).
		Order("updated_at DESC").
		Take(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Submission{}, newServiceError(opGet, "not_found", ErrNotFound)
	}
	if err != nil {
		return Submission{}, newServiceError(opGet, "select_failed", err)
	}
	return submission, nil
}

// GetByID returns the submission with the given id.
func (s *Service) GetByID(ctx context.Context, submissionID string) (Submission, error) {
	var submission Submission
	err := s.db.WithContext(ctx).Where("id = ?", submissionID).Take(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Submission{}, newServiceError(opGet, "not_found", ErrNotFound)
	}
	if err != nil {
		return Submission{}, newServiceError(opGet, "select_failed", err)
	}
	return submission, nil
}

// Progress returns the append-only audit trail for a reference, oldest first.
func (s *Service) Progress(ctx context.Context, reference string) ([]ProgressEntry, error) {
	var entries []ProgressEntry
	if err := s.db.WithContext(ctx).
		Where("reference = ?", reference).
		Order("recorded_at ASC").
		Find(&entries).Error; err != nil {
		return nil, newServiceError(opProgress, "query_failed", err)
	}
	return entries, nil
}

// Payments returns the captured payment records for a reference.
func (s *Service) Payments(ctx context.Context, reference string) ([]PaymentRecord, error) {
	var records []PaymentRecord
	if err := s.db.WithContext(ctx).
		Where("reference = ?", reference).
		Order("recorded_at ASC").
		Find(&records).Error; err != nil {
		return nil, newServiceError(opPayments, "query_failed", err)
	}
	return records, nil
}

// DecodeForm unmarshals the stored wizard state.
func DecodeForm(submission Submission) (FormPayload, error) {
	var form FormPayload
	if len(submission.FormJSON) == 0 {
		return form, nil
	}
	if err := json.Unmarshal(submission.FormJSON, &form); err != nil {
		return FormPayload{}, err
	}
	return form, nil
}

func (s *Service) publish(eventType string, submission Submission) {
	if s.events == nil {
		return
	}
	s.events.Publish(realtime.Message{
		OwnerID:   submission.OwnerID,
		EventType: eventType,
		Reference: submission.Reference,
		Status:    string(submission.Status),
		Timestamp: s.clock().UTC(),
	})
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("submission service error", attrs...)
}
