// Package notification implements the bill notification pipeline: link
// building, template rendering, the throttled email dispatch queue and the
// orchestrator that fans out to email and WhatsApp.
package notification

import (
	"fmt"

	"github.com/raftaar7864/rental-management-backend/internal/bills/domain"
)

// BillLinks holds the derived links for one notification attempt. They are
// recomputed for every attempt because payment status can change between
// attempts; never cache them across events.
type BillLinks struct {
	DownloadLink string
	PaymentLink  string // empty when the bill is paid
	Stamp        int64
}

// LinkBuilder computes versioned public links for a bill.
type LinkBuilder struct {
	frontendBaseURL string
	backendBaseURL  string
}

// NewLinkBuilder creates a link builder over the configured public base URLs.
func NewLinkBuilder(frontendBaseURL, backendBaseURL string) *LinkBuilder {
	return &LinkBuilder{
		frontendBaseURL: frontendBaseURL,
		backendBaseURL:  backendBaseURL,
	}
}

// ComputeLinks derives the download and payment links for a bill. A stamp of
// zero defaults to the bill's update timestamp (epoch millis) or now. The
// stamp is appended as a query parameter so every regeneration invalidates
// client-side caches. The payment link is omitted for paid bills.
func (lb *LinkBuilder) ComputeLinks(bill *domain.Bill, stamp int64) BillLinks {
	if stamp == 0 {
		stamp = bill.StampMillis()
	}

	links := BillLinks{
		DownloadLink: fmt.Sprintf("%s/api/v1/bills/%s/download?v=%d", lb.backendBaseURL, bill.ID, stamp),
		Stamp:        stamp,
	}

	if !bill.IsPaid() {
		links.PaymentLink = fmt.Sprintf("%s/pay/%s?v=%d", lb.frontendBaseURL, bill.ID, stamp)
	}

	return links
}
