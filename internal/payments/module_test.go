package payments

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/raftaar7864/rental-management-backend/internal/security/recaptcha"
	"github.com/raftaar7864/rental-management-backend/platform/config"
	"github.com/raftaar7864/rental-management-backend/platform/logger"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	m := NewModule(svc, recaptcha.NewClient(&config.Config{}))
	r := gin.New()
	r.POST("/order", m.createOrder)
	r.POST("/webhook", m.handleWebhook)
	return r
}

func TestCreateOrderEndpointRejectsBadRequests(t *testing.T) {
	r := newTestRouter(newTestService(&fakeBills{}, "whsec"))

	cases := []struct {
		name string
		body string
	}{
		{"missing bill id", `{}`},
		{"malformed bill id", `{"billId":"not-a-uuid"}`},
		{"malformed json", `{`},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/order", strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", tc.name, w.Code)
		}
	}
}

func TestCreateOrderEndpointReportsUnpayableBill(t *testing.T) {
	cfg := &config.Config{RazorpayWebhookSecret: "whsec"}
	svc := NewService(NewClient(cfg), &fakeBills{}, cfg, logger.New("test"))
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	body := `{"billId":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/order", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when the gateway is unconfigured", w.Code)
	}
}

func TestWebhookEndpointSettlesBill(t *testing.T) {
	bills := &fakeBills{}
	r := newTestRouter(newTestService(bills, "whsec"))
	body := capturedPayload(uuid.New(), "pay_abc123", "upi")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
	req.Header.Set("X-Razorpay-Signature", sign("whsec", body))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if len(bills.markPaid) != 1 {
		t.Fatalf("mark paid calls = %d, want 1", len(bills.markPaid))
	}
}

func TestWebhookEndpointRejectsForgedSignature(t *testing.T) {
	bills := &fakeBills{}
	r := newTestRouter(newTestService(bills, "whsec"))
	body := capturedPayload(uuid.New(), "pay_abc123", "upi")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
	req.Header.Set("X-Razorpay-Signature", "deadbeef")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if len(bills.markPaid) != 0 {
		t.Fatal("forged webhook must not settle a bill")
	}
}
