package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var errMissingEndpoint = errors.New("notify: mail endpoint required")

// Attachment carries a file for a transactional email, base64-encoded as the
// provider API expects.
type Attachment struct {
	Name          string `json:"name"`
	ContentBase64 string `json:"content"`
}

// Message is one templated transactional email send.
type Message struct {
	TemplateID  int                    `json:"templateId"`
	To          []string               `json:"-"`
	Params      map[string]interface{} `json:"params,omitempty"`
	Attachments []Attachment           `json:"attachment,omitempty"`
}

// Mailer sends a templated transactional email.
type Mailer interface {
	Send(ctx context.Context, message Message) error
}

// HTTPMailerConfig configures the transactional email API client.
type HTTPMailerConfig struct {
	Endpoint   string
	APIKey     string
	Sender     string
	HTTPClient *http.Client
}

// HTTPMailer posts template sends to a Brevo-style transactional email API.
type HTTPMailer struct {
	endpoint   string
	apiKey     string
	sender     string
	httpClient *http.Client
}

// NewHTTPMailer constructs the mail API client.
func NewHTTPMailer(cfg HTTPMailerConfig) (*HTTPMailer, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errMissingEndpoint
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPMailer{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		sender:     cfg.Sender,
		httpClient: httpClient,
	}, nil
}

type sendPayload struct {
	Sender      recipient              `json:"sender"`
	To          []recipient            `json:"to"`
	TemplateID  int                    `json:"templateId"`
	Params      map[string]interface{} `json:"params,omitempty"`
	Attachments []Attachment           `json:"attachment,omitempty"`
}

type recipient struct {
	Email string `json:"email"`
}

// Send posts the message to the provider.
func (m *HTTPMailer) Send(ctx context.Context, message Message) error {
	payload := sendPayload{
		Sender:      recipient{Email: m.sender},
		TemplateID:  message.TemplateID,
		Params:      message.Params,
		Attachments: message.Attachments,
	}
	for _, to := range message.To {
		if strings.TrimSpace(to) == "" {
			continue
		}
		payload.To = append(payload.To, recipient{Email: to})
	}
	if len(payload.To) == 0 {
		return fmt.Errorf("notify: message has no recipients")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint+"/v3/smtp/email", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notify: mail api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
