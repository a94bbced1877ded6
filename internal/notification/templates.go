package notification

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/raftaar7864/rental-management-backend/internal/bills/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Type identifies the lifecycle event behind a notification. It is supplied
// explicitly by the caller that triggered the event; inference from payment
// status is only a fallback for callers that pass TypeUnknown.
type Type string

const (
	TypeUnknown Type = ""
	TypeCreated Type = "created"
	TypeUpdated Type = "updated"
	TypePaid    Type = "paid"
)

// RenderOptions carries the computed links and event type into the renderers.
type RenderOptions struct {
	Links BillLinks
	Type  Type
}

// CompanyInfo holds the company display fields rendered into templates.
type CompanyInfo struct {
	Name        string
	LogoURL     string
	GSTIN       string
	BankDetails string
}

// Renderer produces subjects, email bodies and WhatsApp messages for bills.
type Renderer struct {
	company CompanyInfo
}

// NewRenderer creates a renderer with the given company display fields.
func NewRenderer(company CompanyInfo) *Renderer {
	if company.Name == "" {
		company.Name = "Rental Manager"
	}
	return &Renderer{company: company}
}

func resolveType(bill *domain.Bill, t Type) Type {
	if t != TypeUnknown {
		return t
	}
	if bill.IsPaid() {
		return TypePaid
	}
	return TypeCreated
}

func tenantName(bill *domain.Bill) string {
	if name := strings.TrimSpace(bill.Tenant.FullName); name != "" {
		return name
	}
	return "Tenant"
}

func roomNumber(bill *domain.Bill) string {
	if number := strings.TrimSpace(bill.Room.Number); number != "" {
		return number
	}
	return "-"
}

func buildingName(bill *domain.Bill) string {
	if name := strings.TrimSpace(bill.Building.Name); name != "" {
		return name
	}
	return "N/A"
}

// RenderSubject returns the email subject line for a bill notification.
func (r *Renderer) RenderSubject(bill *domain.Bill, opts RenderOptions) string {
	month := bill.MonthLabel()
	room := roomNumber(bill)

	switch resolveType(bill, opts.Type) {
	case TypePaid:
		return fmt.Sprintf("Payment received — rent bill for %s (Room %s)", month, room)
	case TypeUpdated:
		return fmt.Sprintf("Updated rent bill for %s (Room %s)", month, room)
	default:
		return fmt.Sprintf("Rent bill for %s (Room %s)", month, room)
	}
}

type chargeLine struct {
	Title           string
	AmountFormatted string
}

type billEmailData struct {
	Title            string
	Heading          string
	CompanyName      string
	LogoURL          string
	GSTIN            string
	BankDetails      string
	TenantName       string
	MonthLabel       string
	RoomNumber       string
	BuildingName     string
	TotalFormatted   string
	IsPaid           bool
	StatusLabel      string
	PaymentMethod    string
	PaymentReference string
	PaidAtLabel      string
	Charges          []chargeLine
	PaymentLink      string
	DownloadLink     string
}

// RenderEmailBody renders the HTML email body for a bill notification.
func (r *Renderer) RenderEmailBody(bill *domain.Bill, opts RenderOptions) (string, error) {
	kind := resolveType(bill, opts.Type)

	data := billEmailData{
		CompanyName:    r.company.Name,
		LogoURL:        r.company.LogoURL,
		GSTIN:          r.company.GSTIN,
		BankDetails:    r.company.BankDetails,
		TenantName:     tenantName(bill),
		MonthLabel:     bill.MonthLabel(),
		RoomNumber:     roomNumber(bill),
		BuildingName:   buildingName(bill),
		TotalFormatted: FormatINR(bill.TotalAmount),
		IsPaid:         bill.IsPaid(),
		DownloadLink:   opts.Links.DownloadLink,
	}

	switch kind {
	case TypePaid:
		data.Title = "Payment Received"
		data.Heading = "Payment Received"
	case TypeUpdated:
		data.Title = "Rent Bill Updated"
		data.Heading = "Your rent bill was updated"
	default:
		data.Title = "Rent Bill"
		data.Heading = "Your rent bill is ready"
	}

	if data.IsPaid {
		data.StatusLabel = "PAID"
		data.PaymentMethod = "N/A"
		data.PaymentReference = "N/A"
		data.PaidAtLabel = "N/A"
		if bill.Payment != nil {
			if bill.Payment.Method != "" {
				data.PaymentMethod = bill.Payment.Method
			}
			if bill.Payment.Reference != "" {
				data.PaymentReference = bill.Payment.Reference
			}
			if !bill.Payment.PaidAt.IsZero() {
				data.PaidAtLabel = bill.Payment.PaidAt.Format("2 Jan 2006")
			}
		}
	} else {
		data.StatusLabel = "NOT PAID"
		data.PaymentLink = opts.Links.PaymentLink
	}

	for _, charge := range bill.Charges {
		data.Charges = append(data.Charges, chargeLine{
			Title:           charge.Title,
			AmountFormatted: FormatINR(charge.Amount),
		})
	}

	return renderBillTemplate(data)
}

func renderBillTemplate(data billEmailData) (string, error) {
	tmpl, err := template.New("base.html").ParseFS(templateFS, "templates/base.html", "templates/bill.html")
	if err != nil {
		return "", fmt.Errorf("parse bill email template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute bill email template: %w", err)
	}
	return buf.String(), nil
}

// RenderWhatsAppMessage renders the plain-text WhatsApp message for a bill.
// It carries the same information as the email body reduced to text.
func (r *Renderer) RenderWhatsAppMessage(bill *domain.Bill, opts RenderOptions) string {
	kind := resolveType(bill, opts.Type)

	var b strings.Builder
	switch kind {
	case TypePaid:
		fmt.Fprintf(&b, "✅ Payment received for your rent bill.\n\n")
	case TypeUpdated:
		fmt.Fprintf(&b, "📋 Your rent bill was updated.\n\n")
	default:
		fmt.Fprintf(&b, "📋 Your rent bill is ready.\n\n")
	}

	fmt.Fprintf(&b, "Hello %s,\n", tenantName(bill))
	fmt.Fprintf(&b, "Month: %s\n", bill.MonthLabel())
	fmt.Fprintf(&b, "Room: %s, %s\n", roomNumber(bill), buildingName(bill))
	fmt.Fprintf(&b, "Total: %s\n", FormatINR(bill.TotalAmount))

	if len(bill.Charges) > 0 {
		b.WriteString("\nCharges:\n")
		for _, charge := range bill.Charges {
			fmt.Fprintf(&b, "• %s: %s\n", charge.Title, FormatINR(charge.Amount))
		}
	}

	if bill.IsPaid() {
		b.WriteString("\nStatus: PAID")
		if bill.Payment != nil && bill.Payment.Reference != "" {
			fmt.Fprintf(&b, " (ref %s)", bill.Payment.Reference)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("\nStatus: NOT PAID\n")
		if opts.Links.PaymentLink != "" {
			fmt.Fprintf(&b, "Pay now: %s\n", opts.Links.PaymentLink)
		}
	}

	fmt.Fprintf(&b, "Download: %s\n\n- %s", opts.Links.DownloadLink, r.company.Name)
	return b.String()
}

// RenderTemplateVariables produces the ordered placeholder values for
// providers that require structured template content instead of free text.
func (r *Renderer) RenderTemplateVariables(bill *domain.Bill, opts RenderOptions) map[string]string {
	status := "NOT PAID"
	if bill.IsPaid() {
		status = "PAID"
	}
	return map[string]string{
		"1": tenantName(bill),
		"2": bill.MonthLabel(),
		"3": FormatINR(bill.TotalAmount),
		"4": status,
		"5": opts.Links.DownloadLink,
	}
}
