package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

var (
	// ErrCaptureNotCompleted indicates the order exists but has no completed capture.
	ErrCaptureNotCompleted = errors.New("payments: capture not completed")

	errMissingBaseURL     = errors.New("payments: base url required")
	errMissingCredentials = errors.New("payments: client credentials required")
)

// ProviderError is the typed error surface for non-2xx provider responses.
type ProviderError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	DebugID string `json:"debug_id"`
	Status  int    `json:"-"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payments: provider error %s (%d): %s", e.Name, e.Status, e.Message)
}

// CaptureReceipt is the verified outcome of a client-side capture approval.
type CaptureReceipt struct {
	CaptureID  string
	OrderID    string
	PayerEmail string
	Amount     string
	Currency   string
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ClientConfig configures the order-verification client.
type ClientConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
	Clock        func() time.Time
}

// Client verifies capture receipts against the payment provider's Orders API.
// The browser-side button performs the actual capture; the backend never
// trusts the browser's receipt without this lookup.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	clock        func() time.Time

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient constructs the provider client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errMissingBaseURL
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errMissingCredentials
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   httpClient,
		clock:        clock,
	}, nil
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Payer  struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
				Amount struct {
					CurrencyCode string `json:"currency_code"`
					Value        string `json:"value"`
				} `json:"amount"`
				CreateTime time.Time `json:"create_time"`
				UpdateTime time.Time `json:"update_time"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// VerifyCapture looks the order up with the provider and returns its
// completed capture receipt.
func (c *Client) VerifyCapture(ctx context.Context, orderID string) (CaptureReceipt, error) {
	token, err := c.accessTokenLocked(ctx)
	if err != nil {
		return CaptureReceipt{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v2/checkout/orders/"+url.PathEscape(orderID), http.NoBody)
	if err != nil {
		return CaptureReceipt{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CaptureReceipt{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return CaptureReceipt{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return CaptureReceipt{}, decodeProviderError(resp.StatusCode, body)
	}

	var order orderResponse
	if err := json.Unmarshal(body, &order); err != nil {
		return CaptureReceipt{}, err
	}

	for _, unit := range order.PurchaseUnits {
		for _, capture := range unit.Payments.Captures {
			if capture.Status != "COMPLETED" {
				continue
			}
			return CaptureReceipt{
				CaptureID:  capture.ID,
				OrderID:    order.ID,
				PayerEmail: order.Payer.EmailAddress,
				Amount:     capture.Amount.Value,
				Currency:   capture.Amount.CurrencyCode,
				Status:     capture.Status,
				CreatedAt:  capture.CreateTime,
				UpdatedAt:  capture.UpdateTime,
			}, nil
		}
	}
	return CaptureReceipt{}, fmt.Errorf("%w: order %s status %s", ErrCaptureNotCompleted, orderID, order.Status)
}

func (c *Client) accessTokenLocked(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && c.clock().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", decodeProviderError(resp.StatusCode, body)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", err
	}
	if payload.AccessToken == "" {
		return "", &ProviderError{Name: "EMPTY_TOKEN", Message: "token endpoint returned no access token", Status: resp.StatusCode}
	}

	c.accessToken = payload.AccessToken
	// refresh one minute early
	c.tokenExpiry = c.clock().Add(time.Duration(payload.ExpiresIn)*time.Second - time.Minute)
	return c.accessToken, nil
}

func decodeProviderError(status int, body []byte) error {
	providerErr := &ProviderError{Status: status}
	if err := json.Unmarshal(body, providerErr); err != nil || providerErr.Name == "" {
		providerErr.Name = http.StatusText(status)
		providerErr.Message = strings.TrimSpace(string(body))
	}
	return providerErr
}
