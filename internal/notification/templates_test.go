package notification

import (
	"math"
	"strings"
	"testing"
)

func testRenderer() *Renderer {
	return NewRenderer(CompanyInfo{
		Name:  "Shanti Properties",
		GSTIN: "29ABCDE1234F1Z5",
	})
}

func testLinks(paid bool) BillLinks {
	links := BillLinks{
		DownloadLink: "https://api.example.com/api/v1/bills/abc/download?v=42",
		Stamp:        42,
	}
	if !paid {
		links.PaymentLink = "https://app.example.com/pay/abc?v=42"
	}
	return links
}

func TestRenderSubjectPerType(t *testing.T) {
	r := testRenderer()
	bill := testBill(false)

	cases := []struct {
		typ  Type
		want string
	}{
		{TypeCreated, "Rent bill for March 2024 (Room 203)"},
		{TypeUpdated, "Updated rent bill for March 2024 (Room 203)"},
		{TypePaid, "Payment received — rent bill for March 2024 (Room 203)"},
	}
	for _, tc := range cases {
		got := r.RenderSubject(bill, RenderOptions{Type: tc.typ})
		if got != tc.want {
			t.Fatalf("subject for %q = %q, want %q", tc.typ, got, tc.want)
		}
	}
}

func TestRenderSubjectInfersTypeFromStatus(t *testing.T) {
	r := testRenderer()

	if got := r.RenderSubject(testBill(true), RenderOptions{}); !strings.HasPrefix(got, "Payment received") {
		t.Fatalf("subject for paid bill = %q, want payment received", got)
	}
	if got := r.RenderSubject(testBill(false), RenderOptions{}); !strings.HasPrefix(got, "Rent bill for") {
		t.Fatalf("subject for unpaid bill = %q, want new bill subject", got)
	}
}

func TestRenderEmailBodyUnpaid(t *testing.T) {
	r := testRenderer()
	bill := testBill(false)
	links := testLinks(false)

	body, err := r.RenderEmailBody(bill, RenderOptions{Links: links, Type: TypeCreated})
	if err != nil {
		t.Fatalf("render email: %v", err)
	}

	if got := strings.Count(body, "Pay Now"); got != 1 {
		t.Fatalf("Pay Now occurrences = %d, want exactly 1", got)
	}
	for _, want := range []string{
		"Asha Verma",
		"March 2024",
		"Room 203",
		"Shanti Niwas",
		"NOT PAID",
		links.PaymentLink,
		links.DownloadLink,
		"Water",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("email body missing %q", want)
		}
	}
	if strings.Contains(body, "{{") {
		t.Fatal("email body contains unexpanded template markers")
	}
}

func TestRenderEmailBodyPaid(t *testing.T) {
	r := testRenderer()
	bill := testBill(true)

	body, err := r.RenderEmailBody(bill, RenderOptions{Links: testLinks(true), Type: TypePaid})
	if err != nil {
		t.Fatalf("render email: %v", err)
	}

	if strings.Contains(body, "Pay Now") {
		t.Fatal("paid email body must not contain a Pay Now button")
	}
	for _, want := range []string{"PAID", "UPI", "pay_abc123", "5 Mar 2024"} {
		if !strings.Contains(body, want) {
			t.Fatalf("paid email body missing %q", want)
		}
	}
}

func TestRenderEmailBodyFallbackNames(t *testing.T) {
	r := testRenderer()
	bill := testBill(false)
	bill.Tenant.FullName = "  "
	bill.Room.Number = ""
	bill.Building.Name = ""

	body, err := r.RenderEmailBody(bill, RenderOptions{Links: testLinks(false)})
	if err != nil {
		t.Fatalf("render email: %v", err)
	}

	if !strings.Contains(body, "Dear Tenant,") {
		t.Fatal("email body should fall back to generic tenant salutation")
	}
}

func TestRenderWhatsAppMessage(t *testing.T) {
	r := testRenderer()
	bill := testBill(false)
	links := testLinks(false)

	msg := r.RenderWhatsAppMessage(bill, RenderOptions{Links: links, Type: TypeCreated})

	for _, want := range []string{
		"Asha Verma",
		"March 2024",
		"Room: 203, Shanti Niwas",
		"Status: NOT PAID",
		"Pay now: " + links.PaymentLink,
		"Download: " + links.DownloadLink,
		"Shanti Properties",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q in:\n%s", want, msg)
		}
	}
}

func TestRenderWhatsAppMessagePaidIncludesReference(t *testing.T) {
	r := testRenderer()
	bill := testBill(true)

	msg := r.RenderWhatsAppMessage(bill, RenderOptions{Links: testLinks(true), Type: TypePaid})

	if !strings.Contains(msg, "Status: PAID (ref pay_abc123)") {
		t.Fatalf("message missing payment reference:\n%s", msg)
	}
	if strings.Contains(msg, "Pay now:") {
		t.Fatal("paid message must not contain a payment link")
	}
}

func TestRenderTemplateVariables(t *testing.T) {
	r := testRenderer()
	bill := testBill(false)
	links := testLinks(false)

	vars := r.RenderTemplateVariables(bill, RenderOptions{Links: links})

	if len(vars) != 5 {
		t.Fatalf("variables = %d, want 5", len(vars))
	}
	if vars["1"] != "Asha Verma" {
		t.Fatalf("var 1 = %q, want tenant name", vars["1"])
	}
	if vars["4"] != "NOT PAID" {
		t.Fatalf("var 4 = %q, want NOT PAID", vars["4"])
	}
	if vars["5"] != links.DownloadLink {
		t.Fatalf("var 5 = %q, want download link", vars["5"])
	}
}

func TestFormatINR(t *testing.T) {
	cases := []struct {
		amount float64
		want   string
	}{
		{0, "₹0.00"},
		{8500, "₹8,500.00"},
		{123456.5, "₹1,23,456.50"},
		{10000000, "₹1,00,00,000.00"},
	}
	for _, tc := range cases {
		if got := FormatINR(tc.amount); got != tc.want {
			t.Fatalf("FormatINR(%v) = %q, want %q", tc.amount, got, tc.want)
		}
	}
}

func TestFormatINRNeverPanics(t *testing.T) {
	for _, amount := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 1e300, -1e300} {
		if got := FormatINR(amount); got == "" {
			t.Fatalf("FormatINR(%v) returned empty string", amount)
		}
	}
}
