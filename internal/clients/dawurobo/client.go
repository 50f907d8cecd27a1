package dawurobo

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

	"susu-app-go/internal/config"
	"susu-app-go/pkg/logger"
)

const (
	messageTemplate   = "Your SnappX verification code is: %OTPCODE%. Expires in %EXPIRY% minutes."
	defaultRetryDelay = 10 * time.Second
	verifyTimeout     = 10 * time.Second

	// NoteAlreadyActive is returned by Send when the provider reports that a
	// code is still live for the number.
	NoteAlreadyActive = "otp already sent recently"
)

var ErrNotConfigured = errors.New("dawurobo credentials not configured")

// Guard tracks codes that are being verified or already verified.
type Guard interface {
	Claim(phone, code string, ttl time.Duration) bool
	Release(phone, code string)
}

type Client struct {
	baseURL     string
	apiKey      string
	accessToken string
	senderID    string
	expiry      int
	length      int
	maxAttempts int
	retryDelay  time.Duration
	client      *http.Client
	guard       Guard
	log         logger.Logger
}

type generateRequest struct {
	SenderID        string `json:"senderid"`
	Number          string `json:"number"`
	MessageTemplate string `json:"messagetemplate"`
	Expiry          int    `json:"expiry"`
	Length          int    `json:"length"`
	Type            string `json:"type"`
}

type verifyRequest struct {
	OTPCode string `json:"otpcode"`
	Number  string `json:"number"`
}

func New(cfg config.DawuroboConfig, guard Guard, log logger.Logger) *Client {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		accessToken: cfg.AccessToken,
		senderID:    cfg.SenderID,
		expiry:      cfg.ExpiryMinutes,
		length:      cfg.CodeLength,
		maxAttempts: maxAttempts,
		retryDelay:  defaultRetryDelay,
		client:      &http.Client{Timeout: cfg.Timeout},
		guard:       guard,
		log:         log.With("component", "dawurobo"),
	}
}

// Send asks Dawurobo to generate and text a code. A 409 means a code is
// already active for the number and counts as success.
func (c *Client) Send(ctx context.Context, phone string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(generateRequest{
		SenderID:        c.senderID,
		Number:          strings.TrimPrefix(phone, "+"),
		MessageTemplate: messageTemplate,
		Expiry:          c.expiry,
		Length:          c.length,
		Type:            "NUMERIC",
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		status, respBody, err := c.post(ctx, "/generate", body)
		if err != nil {
			lastErr = err
			c.log.Warn("dawurobo: generate request failed", "err", err, "attempt", attempt+1)
			continue
		}

		switch {
		case status == http.StatusConflict:
			c.log.Debug("dawurobo: otp already active", "phone", phone)
			return NoteAlreadyActive, nil
		case status >= 200 && status < 300:
			c.log.Info("dawurobo: otp sent", "phone", phone)
			return "", nil
		case status == http.StatusTooManyRequests || status >= 500:
			lastErr = fmt.Errorf("dawurobo generate error (%d): %s", status, respBody)
			c.log.Warn("dawurobo: generate rejected", "status", status, "attempt", attempt+1)
			continue
		default:
			return "", fmt.Errorf("dawurobo generate error (%d): %s", status, respBody)
		}
	}
	return "", fmt.Errorf("max attempts (%d) exceeded: %w", c.maxAttempts, lastErr)
}

// Verify reports whether the code is valid for the phone. A code that
// verified once is refused locally for the rest of its lifetime.
func (c *Client) Verify(ctx context.Context, phone, code string) (bool, error) {
	if c.apiKey == "" {
		return false, ErrNotConfigured
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if c.guard != nil {
		if !c.guard.Claim(phone, code, c.claimTTL()) {
			return false, nil
		}
	}

	ok, err := c.verify(ctx, phone, code)
	if !ok && c.guard != nil {
		c.guard.Release(phone, code)
	}
	return ok, err
}

func (c *Client) verify(ctx context.Context, phone, code string) (bool, error) {
	body, err := json.Marshal(verifyRequest{
		OTPCode: code,
		Number:  strings.TrimPrefix(phone, "+"),
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	status, respBody, err := c.post(ctx, "/verify", body)
	if err != nil {
		return false, err
	}
	if status != http.StatusOK || !strings.Contains(strings.ToLower(respBody), "success") {
		c.log.Debug("dawurobo: otp rejected", "phone", phone, "status", status)
		return false, nil
	}
	return true, nil
}

// claimTTL covers the code's lifetime at the provider.
func (c *Client) claimTTL() time.Duration {
	if c.expiry > 0 {
		return time.Duration(c.expiry) * time.Minute
	}
	return verifyTimeout
}

func (c *Client) post(ctx context.Context, path string, body []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("x-access-token", c.accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, string(respBody), nil
}
