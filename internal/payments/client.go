// Package payments integrates the Razorpay gateway: order creation for the
// public payment page and webhook-driven bill settlement.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/raftaar7864/rental-management-backend/platform/config"
)

const razorpayBaseURL = "https://api.razorpay.com/v1"

// Order is a created Razorpay order.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// Client is a minimal Razorpay REST client covering order creation.
type Client struct {
	keyID     string
	keySecret string
	http      *http.Client
}

func NewClient(cfg config.RazorpayConfig) *Client {
	return &Client{
		keyID:     cfg.GetRazorpayKeyID(),
		keySecret: cfg.GetRazorpayKeySecret(),
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// IsConfigured reports whether API credentials are set.
func (c *Client) IsConfigured() bool {
	return c.keyID != "" && c.keySecret != ""
}

// KeyID returns the public key the checkout widget needs.
func (c *Client) KeyID() string {
	return c.keyID
}

type createOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// CreateOrder creates an order for the amount in paise, tagged with the
// bill ID so the webhook can settle the right bill.
func (c *Client) CreateOrder(ctx context.Context, amountPaise int64, receipt string, notes map[string]string) (Order, error) {
	payload := createOrderRequest{
		Amount:   amountPaise,
		Currency: "INR",
		Receipt:  receipt,
		Notes:    notes,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Order{}, fmt.Errorf("marshal order payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, razorpayBaseURL+"/orders", bytes.NewBuffer(body))
	if err != nil {
		return Order{}, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return Order{}, fmt.Errorf("razorpay request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return Order{}, fmt.Errorf("razorpay returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return Order{}, fmt.Errorf("decode razorpay order: %w", err)
	}

	return order, nil
}
