package whatsapp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/raftaar7864/rental-management-backend/platform/config"
)

// TwilioChannel delivers through the Twilio Messages API using the
// whatsapp: address scheme.
type TwilioChannel struct {
	accountSID string
	authToken  string
	from       string
	http       *http.Client
}

func NewTwilioChannel(cfg config.WhatsAppConfig) *TwilioChannel {
	return &TwilioChannel{
		accountSID: cfg.GetTwilioAccountSID(),
		authToken:  cfg.GetTwilioAuthToken(),
		from:       cfg.GetTwilioWhatsAppFrom(),
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *TwilioChannel) Name() string { return "twilio" }

func (c *TwilioChannel) Configured() bool {
	return c.accountSID != "" && c.authToken != "" && c.from != ""
}

func (c *TwilioChannel) Send(ctx context.Context, toE164 string, msg Message) error {
	form := url.Values{}
	form.Set("From", "whatsapp:"+c.from)
	form.Set("To", "whatsapp:"+toE164)
	form.Set("Body", msg.Text)

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("twilio returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return nil
}
