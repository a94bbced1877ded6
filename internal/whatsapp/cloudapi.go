package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/raftaar7864/rental-management-backend/platform/config"
)

// CloudAPIChannel delivers through the Meta WhatsApp Cloud API. When a
// template name is configured the structured template path is used, which is
// required for business-initiated conversations outside the 24 hour window.
// Otherwise it falls back to a plain text message.
type CloudAPIChannel struct {
	accessToken   string
	phoneNumberID string
	templateName  string
	templateLang  string
	http          *http.Client
}

const graphAPIBase = "https://graph.facebook.com/v19.0"

func NewCloudAPIChannel(cfg config.WhatsAppConfig) *CloudAPIChannel {
	return &CloudAPIChannel{
		accessToken:   cfg.GetMetaAccessToken(),
		phoneNumberID: cfg.GetMetaPhoneNumberID(),
		templateName:  cfg.GetMetaTemplateName(),
		templateLang:  cfg.GetMetaTemplateLanguage(),
		http:          &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *CloudAPIChannel) Name() string { return "meta_cloud_api" }

func (c *CloudAPIChannel) Configured() bool {
	return c.accessToken != "" && c.phoneNumberID != ""
}

type cloudAPIParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type cloudAPIComponent struct {
	Type       string              `json:"type"`
	Parameters []cloudAPIParameter `json:"parameters"`
}

type cloudAPITemplate struct {
	Name       string              `json:"name"`
	Language   map[string]string   `json:"language"`
	Components []cloudAPIComponent `json:"components,omitempty"`
}

type cloudAPIRequest struct {
	MessagingProduct string            `json:"messaging_product"`
	To               string            `json:"to"`
	Type             string            `json:"type"`
	Text             map[string]string `json:"text,omitempty"`
	Template         *cloudAPITemplate `json:"template,omitempty"`
}

func (c *CloudAPIChannel) Send(ctx context.Context, toE164 string, msg Message) error {
	payload := cloudAPIRequest{
		MessagingProduct: "whatsapp",
		To:               strings.TrimPrefix(toE164, "+"),
	}

	if c.templateName != "" && len(msg.TemplateVars) > 0 {
		lang := c.templateLang
		if lang == "" {
			lang = "en"
		}
		payload.Type = "template"
		payload.Template = &cloudAPITemplate{
			Name:     c.templateName,
			Language: map[string]string{"code": lang},
			Components: []cloudAPIComponent{
				{Type: "body", Parameters: orderedParameters(msg.TemplateVars)},
			},
		}
	} else {
		payload.Type = "text"
		payload.Text = map[string]string{"body": msg.Text}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal cloud api payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/messages", graphAPIBase, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cloud api request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("cloud api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return nil
}

// orderedParameters flattens positional template variables keyed "1".."n"
// into the order the template body expects.
func orderedParameters(vars map[string]string) []cloudAPIParameter {
	params := make([]cloudAPIParameter, 0, len(vars))
	for i := 1; ; i++ {
		text, ok := vars[strconv.Itoa(i)]
		if !ok {
			break
		}
		params = append(params, cloudAPIParameter{Type: "text", Text: text})
	}
	return params
}
