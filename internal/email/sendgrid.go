package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/raftaar7864/rental-management-backend/platform/config"
)

const sendGridAPIURL = "https://api.sendgrid.com/v3/mail/send"

// SendGridSender delivers email through the SendGrid v3 HTTP API.
type SendGridSender struct {
	apiKey    string
	fromName  string
	fromEmail string
	http      *http.Client
}

// NewSendGridSender creates a SendGrid sender from configuration.
func NewSendGridSender(cfg config.EmailConfig) *SendGridSender {
	return &SendGridSender{
		apiKey:    cfg.GetSendGridAPIKey(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridAttachment struct {
	Content     string `json:"content"`
	FileName    string `json:"filename"`
	Type        string `json:"type,omitempty"`
	Disposition string `json:"disposition"`
}

type sendGridRequest struct {
	Personalizations []struct {
		To []sendGridAddress `json:"to"`
	} `json:"personalizations"`
	From        sendGridAddress      `json:"from"`
	Subject     string               `json:"subject"`
	Content     []sendGridContent    `json:"content"`
	Attachments []sendGridAttachment `json:"attachments,omitempty"`
}

// IsConfigured reports whether the sender has an API key.
func (s *SendGridSender) IsConfigured() bool {
	return s.apiKey != ""
}

// Send delivers one HTML email through SendGrid.
func (s *SendGridSender) Send(ctx context.Context, toEmail, subject, htmlContent string, attachments ...Attachment) error {
	payload := sendGridRequest{
		From:    sendGridAddress{Email: s.fromEmail, Name: s.fromName},
		Subject: subject,
		Content: []sendGridContent{{Type: "text/html", Value: htmlContent}},
	}
	payload.Personalizations = append(payload.Personalizations, struct {
		To []sendGridAddress `json:"to"`
	}{To: []sendGridAddress{{Email: toEmail}}})

	for _, att := range attachments {
		payload.Attachments = append(payload.Attachments, sendGridAttachment{
			Content:     base64.StdEncoding.EncodeToString(att.Content),
			FileName:    att.FileName,
			Type:        att.MIMEType,
			Disposition: "attachment",
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sendgrid payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendGridAPIURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return nil
}
