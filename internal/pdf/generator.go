// Package pdf provides rent bill PDF generation using maroto/v2.
// The generated document carries company branding, tenant and room details,
// the charge breakdown, payment status, and a UPI QR code for unpaid bills.
package pdf

import (
	"fmt"
	"net/url"

	"github.com/raftaar7864/rental-management-backend/internal/bills/domain"
	platformconfig "github.com/raftaar7864/rental-management-backend/platform/config"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	qrcode "github.com/skip2/go-qrcode"
)

// ── Colour palette ──────────────────────────────────────────────────────

var (
	colorPrimary    = &props.Color{Red: 17, Green: 24, Blue: 39}    // near-black
	colorSecondary  = &props.Color{Red: 107, Green: 114, Blue: 128} // gray-500
	colorAccent     = &props.Color{Red: 37, Green: 99, Blue: 235}   // blue-600
	colorTableHead  = &props.Color{Red: 241, Green: 245, Blue: 249} // slate-100
	colorTableAlt   = &props.Color{Red: 249, Green: 250, Blue: 251} // gray-50
	colorGreenLight = &props.Color{Red: 220, Green: 252, Blue: 231} // green-100
	colorGreen      = &props.Color{Red: 22, Green: 163, Blue: 74}   // green-600
	colorAmberLight = &props.Color{Red: 254, Green: 243, Blue: 199} // amber-100
	colorAmber      = &props.Color{Red: 180, Green: 83, Blue: 9}    // amber-700
	colorBorder     = &props.Color{Red: 226, Green: 232, Blue: 240} // slate-200
)

// Generator renders rent bills as PDF documents with the operator's
// company branding baked in.
type Generator struct {
	companyName string
	gstin       string
	bankDetails string
	upiID       string
}

func NewGenerator(cfg platformconfig.CompanyConfig) *Generator {
	return &Generator{
		companyName: cfg.GetCompanyName(),
		gstin:       cfg.GetCompanyGSTIN(),
		bankDetails: cfg.GetCompanyBankDetails(),
		upiID:       cfg.GetCompanyUPIID(),
	}
}

// Render generates the PDF document for one bill.
func (g *Generator) Render(bill domain.Bill) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(12).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	if err := m.RegisterFooter(g.buildFooter()); err != nil {
		return nil, fmt.Errorf("register footer: %w", err)
	}

	m.AddRows(g.buildHeader(bill)...)
	m.AddRows(row.New(1).WithStyle(&props.Cell{
		BorderType:  border.Bottom,
		BorderColor: colorBorder,
	}))
	m.AddRows(row.New(6))

	m.AddRows(g.buildDetailBlock(bill)...)
	m.AddRows(row.New(6))

	m.AddRows(buildStatusBanner(bill))
	m.AddRows(row.New(4))

	m.AddRows(buildChargesTable(bill)...)
	m.AddRows(row.New(4))

	m.AddRows(buildTotalBlock(bill)...)

	if bill.IsPaid() && bill.Payment != nil {
		m.AddRows(row.New(6))
		m.AddRows(buildPaymentBlock(*bill.Payment)...)
	}

	if !bill.IsPaid() {
		m.AddRows(row.New(8))
		payRows, err := g.buildPayBlock(bill)
		if err != nil {
			return nil, err
		}
		m.AddRows(payRows...)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

// ── Header ──────────────────────────────────────────────────────────────

func (g *Generator) buildHeader(bill domain.Bill) []core.Row {
	nameCol := col.New(6).Add(
		text.New(g.companyName, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Color: colorPrimary,
			Top:   4,
		}),
	)

	titleCol := col.New(6).Add(
		text.New("RENT BILL", props.Text{
			Size:  24,
			Style: fontstyle.Bold,
			Align: align.Right,
			Color: colorAccent,
		}),
		text.New(bill.MonthLabel(), props.Text{
			Size:  11,
			Align: align.Right,
			Color: colorSecondary,
			Top:   12,
		}),
	)

	return []core.Row{row.New(20).Add(nameCol, titleCol)}
}

// ── Tenant / room detail block ──────────────────────────────────────────

func (g *Generator) buildDetailBlock(bill domain.Bill) []core.Row {
	var rows []core.Row

	rows = append(rows, row.New(5).Add(
		col.New(6).Add(text.New("BILLED TO", props.Text{Size: 7, Style: fontstyle.Bold, Color: colorAccent})),
		col.New(6).Add(text.New("BILL DETAILS", props.Text{Size: 7, Style: fontstyle.Bold, Color: colorAccent, Align: align.Right})),
	))

	tenantName := "Tenant"
	if bill.Tenant.FullName != "" {
		tenantName = bill.Tenant.FullName
	}
	rows = append(rows, row.New(5).Add(
		col.New(6).Add(text.New(tenantName, props.Text{Size: 9, Style: fontstyle.Bold, Color: colorPrimary})),
		col.New(6).Add(text.New("Bill for: "+bill.MonthLabel(), props.Text{Size: 8, Color: colorSecondary, Align: align.Right})),
	))

	location := ""
	if bill.Room.Number != "" {
		location = "Room " + bill.Room.Number
	}
	if bill.Building.Name != "" {
		if location != "" {
			location += ", "
		}
		location += bill.Building.Name
	}
	rows = append(rows, row.New(5).Add(
		col.New(6).Add(text.New(location, props.Text{Size: 8, Color: colorSecondary})),
		col.New(6).Add(text.New("Issued: "+bill.CreatedAt.Format("02-01-2006"), props.Text{Size: 8, Color: colorSecondary, Align: align.Right})),
	))

	if bill.Building.Address != "" {
		rows = append(rows, row.New(5).Add(
			col.New(12).Add(text.New(bill.Building.Address, props.Text{Size: 8, Color: colorSecondary})),
		))
	}

	if g.gstin != "" {
		rows = append(rows, row.New(5).Add(
			col.New(12).Add(text.New("GSTIN: "+g.gstin, props.Text{Size: 8, Color: colorSecondary})),
		))
	}

	return rows
}

// ── Status banner ───────────────────────────────────────────────────────

func buildStatusBanner(bill domain.Bill) core.Row {
	if bill.IsPaid() {
		label := "Bill paid"
		if bill.Payment != nil && !bill.Payment.PaidAt.IsZero() {
			label += " on " + bill.Payment.PaidAt.Format("02-01-2006")
		}
		return row.New(8).Add(
			col.New(12).Add(text.New(label, props.Text{
				Size:  9,
				Style: fontstyle.Bold,
				Color: colorGreen,
				Top:   2,
			})),
		).WithStyle(&props.Cell{BackgroundColor: colorGreenLight})
	}

	return row.New(8).Add(
		col.New(12).Add(text.New("Payment pending", props.Text{
			Size:  9,
			Style: fontstyle.Bold,
			Color: colorAmber,
			Top:   2,
		})),
	).WithStyle(&props.Cell{BackgroundColor: colorAmberLight})
}

// ── Charges table ───────────────────────────────────────────────────────

func buildChargesTable(bill domain.Bill) []core.Row {
	var rows []core.Row

	rows = append(rows, row.New(7).Add(
		col.New(12).Add(text.New("CHARGES", props.Text{
			Size:  8,
			Style: fontstyle.Bold,
			Color: colorAccent,
		})),
	))

	headerStyle := props.Text{Size: 7.5, Style: fontstyle.Bold, Color: colorPrimary, Top: 1.5}
	headerStyleRight := props.Text{Size: 7.5, Style: fontstyle.Bold, Color: colorPrimary, Align: align.Right, Top: 1.5}

	rows = append(rows, row.New(7).Add(
		col.New(9).Add(text.New("Description", headerStyle)),
		col.New(3).Add(text.New("Amount", headerStyleRight)),
	).WithStyle(&props.Cell{
		BackgroundColor: colorTableHead,
		BorderType:      border.Bottom,
		BorderColor:     colorBorder,
	}))

	charges := bill.Charges
	if len(charges) == 0 {
		charges = []domain.Charge{{Title: "Rent for " + bill.MonthLabel(), Amount: bill.TotalAmount}}
	}

	for i, charge := range charges {
		r := row.New(7).Add(
			col.New(9).Add(text.New(charge.Title, props.Text{Size: 8, Color: colorPrimary, Top: 1})),
			col.New(3).Add(text.New(formatCurrency(charge.Amount), props.Text{Size: 8, Color: colorPrimary, Align: align.Right, Top: 1})),
		)
		if i%2 == 0 {
			r.WithStyle(&props.Cell{BackgroundColor: colorTableAlt})
		}
		rows = append(rows, r)
	}

	return rows
}

// ── Total block ─────────────────────────────────────────────────────────

func buildTotalBlock(bill domain.Bill) []core.Row {
	return []core.Row{
		row.New(1).WithStyle(&props.Cell{
			BorderType:  border.Bottom,
			BorderColor: colorBorder,
		}),
		row.New(3),
		row.New(10).Add(
			col.New(9).Add(text.New("TOTAL", props.Text{
				Size:  12,
				Style: fontstyle.Bold,
				Color: colorPrimary,
				Align: align.Right,
				Top:   2,
			})),
			col.New(3).Add(text.New(formatCurrency(bill.TotalAmount), props.Text{
				Size:  12,
				Style: fontstyle.Bold,
				Color: colorPrimary,
				Align: align.Right,
				Top:   2,
			})),
		).WithStyle(&props.Cell{
			BackgroundColor: colorTableHead,
			BorderType:      border.Full,
			BorderColor:     colorBorder,
		}),
	}
}

// ── Payment details (paid bills) ────────────────────────────────────────

func buildPaymentBlock(payment domain.Payment) []core.Row {
	method := payment.Method
	if method == "" {
		method = "N/A"
	}
	reference := payment.Reference
	if reference == "" {
		reference = "N/A"
	}

	return []core.Row{
		row.New(5).Add(
			col.New(12).Add(text.New("PAYMENT DETAILS", props.Text{
				Size:  8,
				Style: fontstyle.Bold,
				Color: colorAccent,
			})),
		),
		row.New(6).Add(
			col.New(6).Add(text.New("Method: "+method, props.Text{Size: 8, Color: colorSecondary, Top: 1})),
			col.New(6).Add(text.New("Reference: "+reference, props.Text{Size: 8, Color: colorSecondary, Align: align.Right, Top: 1})),
		),
	}
}

// ── Pay block with UPI QR (unpaid bills) ────────────────────────────────

func (g *Generator) buildPayBlock(bill domain.Bill) ([]core.Row, error) {
	rows := []core.Row{
		row.New(1).WithStyle(&props.Cell{
			BorderType:  border.Bottom,
			BorderColor: colorBorder,
		}),
		row.New(3),
		row.New(5).Add(
			col.New(12).Add(text.New("HOW TO PAY", props.Text{
				Size:  8,
				Style: fontstyle.Bold,
				Color: colorAccent,
			})),
		),
	}

	if g.bankDetails != "" {
		rows = append(rows, row.New(6).Add(
			col.New(12).Add(text.New("Bank transfer: "+g.bankDetails, props.Text{Size: 8, Color: colorSecondary, Top: 1})),
		))
	}

	if g.upiID != "" {
		png, err := qrcode.Encode(g.upiLink(bill), qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("encode upi qr: %w", err)
		}

		rows = append(rows, row.New(30).Add(
			col.New(3).Add(
				image.NewFromBytes(png, extension.Png, props.Rect{
					Center:  false,
					Percent: 90,
				}),
			),
			col.New(9).Add(
				text.New("Scan to pay via UPI", props.Text{Size: 8, Color: colorPrimary, Top: 10}),
				text.New("UPI ID: "+g.upiID, props.Text{Size: 8, Color: colorSecondary, Top: 15}),
			),
		))
	}

	return rows, nil
}

func (g *Generator) upiLink(bill domain.Bill) string {
	v := url.Values{}
	v.Set("pa", g.upiID)
	v.Set("pn", g.companyName)
	v.Set("am", fmt.Sprintf("%.2f", bill.TotalAmount))
	v.Set("cu", "INR")
	v.Set("tn", "Rent "+bill.MonthLabel())
	return "upi://pay?" + v.Encode()
}

// ── Registered footer (repeats on every page) ───────────────────────────

func (g *Generator) buildFooter() core.Row {
	footerText := g.companyName
	if g.gstin != "" {
		footerText += "  ·  GSTIN: " + g.gstin
	}
	footerText += "  ·  This is a computer generated bill."

	return row.New(10).Add(
		col.New(12).Add(
			text.New(footerText, props.Text{
				Size:  6.5,
				Color: colorSecondary,
				Align: align.Center,
				Top:   4,
			}),
		),
	).WithStyle(&props.Cell{
		BorderType:  border.Top,
		BorderColor: colorBorder,
	})
}

// The core PDF fonts cannot encode the rupee sign, so amounts use the
// "Rs." prefix here while HTML templates keep the symbol.
func formatCurrency(amount float64) string {
	return fmt.Sprintf("Rs. %.2f", amount)
}
