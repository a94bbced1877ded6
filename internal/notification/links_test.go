package notification

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/raftaar7864/rental-management-backend/internal/bills/domain"
)

func testBill(paid bool) *domain.Bill {
	bill := &domain.Bill{
		ID:           uuid.MustParse("6f1e8a3c-2b4d-4e5f-9a7b-1c2d3e4f5a6b"),
		BillingMonth: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		TotalAmount:  8500,
		Charges: []domain.Charge{
			{Title: "Rent", Amount: 8000},
			{Title: "Water", Amount: 500},
		},
		PaymentStatus: domain.PaymentStatusNotPaid,
		Tenant: domain.Tenant{
			FullName: "Asha Verma",
			Email:    "asha@example.com",
			Phone:    "9876543210",
		},
		Room:      domain.Room{Number: "203"},
		Building:  domain.Building{Name: "Shanti Niwas"},
		UpdatedAt: time.Date(2024, time.March, 2, 10, 30, 0, 0, time.UTC),
	}
	if paid {
		bill.PaymentStatus = domain.PaymentStatusPaid
		bill.Payment = &domain.Payment{
			Method:    "UPI",
			Reference: "pay_abc123",
			PaidAt:    time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC),
		}
	}
	return bill
}

func TestComputeLinksFormats(t *testing.T) {
	lb := NewLinkBuilder("https://app.example.com", "https://api.example.com")
	bill := testBill(false)

	links := lb.ComputeLinks(bill, 1700000000000)

	wantDownload := fmt.Sprintf("https://api.example.com/api/v1/bills/%s/download?v=1700000000000", bill.ID)
	if links.DownloadLink != wantDownload {
		t.Fatalf("download link = %q, want %q", links.DownloadLink, wantDownload)
	}
	wantPay := fmt.Sprintf("https://app.example.com/pay/%s?v=1700000000000", bill.ID)
	if links.PaymentLink != wantPay {
		t.Fatalf("payment link = %q, want %q", links.PaymentLink, wantPay)
	}
	if links.Stamp != 1700000000000 {
		t.Fatalf("stamp = %d, want 1700000000000", links.Stamp)
	}
}

func TestComputeLinksIsDeterministic(t *testing.T) {
	lb := NewLinkBuilder("https://app.example.com", "https://api.example.com")
	bill := testBill(false)

	first := lb.ComputeLinks(bill, 42)
	second := lb.ComputeLinks(bill, 42)

	if first != second {
		t.Fatalf("links differ across calls: %+v vs %+v", first, second)
	}
}

func TestComputeLinksZeroStampUsesUpdateTimestamp(t *testing.T) {
	lb := NewLinkBuilder("https://app.example.com", "https://api.example.com")
	bill := testBill(false)

	links := lb.ComputeLinks(bill, 0)

	if want := bill.UpdatedAt.UnixMilli(); links.Stamp != want {
		t.Fatalf("stamp = %d, want %d", links.Stamp, want)
	}
}

func TestComputeLinksOmitsPaymentLinkWhenPaid(t *testing.T) {
	lb := NewLinkBuilder("https://app.example.com", "https://api.example.com")
	bill := testBill(true)

	links := lb.ComputeLinks(bill, 42)

	if links.PaymentLink != "" {
		t.Fatalf("payment link = %q, want empty for paid bill", links.PaymentLink)
	}
	if links.DownloadLink == "" {
		t.Fatal("download link must be present for paid bill")
	}
}

func TestComputeLinksPaymentStatusCaseInsensitive(t *testing.T) {
	lb := NewLinkBuilder("https://app.example.com", "https://api.example.com")
	bill := testBill(false)
	bill.PaymentStatus = "PAID"

	links := lb.ComputeLinks(bill, 42)

	if links.PaymentLink != "" {
		t.Fatalf("payment link = %q, want empty for bill marked PAID", links.PaymentLink)
	}
}
