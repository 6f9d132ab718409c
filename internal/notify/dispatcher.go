package notify

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/veridianip/veridian/backend/internal/submissions"
)

// Template identifiers registered with the email provider.
const (
	TemplateSubmissionConfirmation = 11
	TemplateAdminAlert             = 12
	TemplateStatusChange           = 13
	TemplateVideoCallRequest       = 14
)

const confirmationRetryAttempts = 3

// DispatcherConfig describes the dependencies of the notification dispatcher.
type DispatcherConfig struct {
	Mailer     Mailer
	AdminInbox string
	Logger     *zap.Logger
}

// Dispatcher formats lifecycle events into transactional email sends. It is
// stateless: every method swallows send failures after logging them, so a
// failed email never rolls back the transition that triggered it.
type Dispatcher struct {
	mailer     Mailer
	adminInbox string
	logger     *zap.Logger
}

// NewDispatcher constructs the dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		mailer:     cfg.Mailer,
		adminInbox: cfg.AdminInbox,
		logger:     logger,
	}
}

// SubmissionConfirmed sends the owner confirmation for a paid submission,
// attaching the PDF snapshot. The send is retried with fibonacci backoff;
// exhausting the retries is logged and swallowed.
func (d *Dispatcher) SubmissionConfirmed(ctx context.Context, submission submissions.Submission, view submissions.ReviewView, snapshotPDF []byte) {
	if d.mailer == nil {
		return
	}
	message := Message{
		TemplateID: TemplateSubmissionConfirmation,
		To:         []string{view.Email},
		Params: map[string]interface{}{
			"reference":   submission.Reference,
			"projectName": view.ProjectName,
			"contactName": view.ContactName,
			"searchType":  string(submission.SearchType),
		},
	}
	if len(snapshotPDF) > 0 {
		message.Attachments = []Attachment{{
			Name:          submission.Reference + ".pdf",
			ContentBase64: base64.StdEncoding.EncodeToString(snapshotPDF),
		}}
	}

	backoff := retry.WithMaxRetries(confirmationRetryAttempts, retry.NewFibonacci(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		return retry.RetryableError(d.mailer.Send(ctx, message))
	})
	if err != nil {
		d.logger.Error("owner confirmation email failed",
			zap.String("reference", submission.Reference),
			zap.Error(err))
	}
}

// AdminAlert notifies the admin inbox of a new paid submission.
func (d *Dispatcher) AdminAlert(ctx context.Context, submission submissions.Submission, view submissions.ReviewView) {
	if d.mailer == nil || d.adminInbox == "" {
		return
	}
	err := d.mailer.Send(ctx, Message{
		TemplateID: TemplateAdminAlert,
		To:         []string{d.adminInbox},
		Params: map[string]interface{}{
			"reference":   submission.Reference,
			"projectName": view.ProjectName,
			"ownerEmail":  view.Email,
			"searchType":  string(submission.SearchType),
		},
	})
	if err != nil {
		d.logger.Warn("admin alert email failed",
			zap.String("reference", submission.Reference),
			zap.Error(err))
	}
}

// StatusChanged notifies the owner of an admin-driven status transition.
func (d *Dispatcher) StatusChanged(ctx context.Context, submission submissions.Submission, previous submissions.Status, note string) {
	if d.mailer == nil {
		return
	}
	view := submissions.ReviewView{}
	if form, err := submissions.DecodeForm(submission); err == nil {
		view = submissions.RenderReview(form)
	}
	err := d.mailer.Send(ctx, Message{
		TemplateID: TemplateStatusChange,
		To:         []string{view.Email},
		Params: map[string]interface{}{
			"reference":      submission.Reference,
			"previousStatus": string(previous),
			"status":         string(submission.Status),
			"note":           note,
		},
	})
	if err != nil {
		d.logger.Warn("status change email failed",
			zap.String("reference", submission.Reference),
			zap.String("status", string(submission.Status)),
			zap.Error(err))
	}
}

// VideoCallRequested notifies the admin inbox of a consultation booking.
func (d *Dispatcher) VideoCallRequested(ctx context.Context, requesterEmail, requesterName string, scheduledAt time.Time) {
	if d.mailer == nil || d.adminInbox == "" {
		return
	}
	err := d.mailer.Send(ctx, Message{
		TemplateID: TemplateVideoCallRequest,
		To:         []string{d.adminInbox},
		Params: map[string]interface{}{
			"requesterEmail": requesterEmail,
			"requesterName":  requesterName,
			"scheduledAt":    scheduledAt.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		d.logger.Warn("video call request email failed",
			zap.String("requester", requesterEmail),
			zap.Error(err))
	}
}
