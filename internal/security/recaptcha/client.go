// Package recaptcha verifies Google reCAPTCHA tokens for public endpoints.
package recaptcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/raftaar7864/rental-management-backend/platform/apperr"
	"github.com/raftaar7864/rental-management-backend/platform/config"
)

const verifyURL = "https://www.google.com/recaptcha/api/siteverify"

// Client verifies reCAPTCHA tokens. When no secret is configured the
// verification is skipped, so local development works without keys.
type Client struct {
	secret string
	http   *http.Client
}

func NewClient(cfg config.RecaptchaConfig) *Client {
	return &Client{
		secret: cfg.GetRecaptchaSecret(),
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks the token with Google. A failed verification maps to a
// forbidden error for the caller.
func (c *Client) Verify(ctx context.Context, token, remoteIP string) error {
	if c.secret == "" {
		return nil
	}
	if strings.TrimSpace(token) == "" {
		return apperr.Forbidden("captcha verification required")
	}

	form := url.Values{}
	form.Set("secret", c.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("recaptcha request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode recaptcha response: %w", err)
	}

	if !result.Success {
		return apperr.Forbidden("captcha verification failed")
	}
	return nil
}
