package renderer

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/utils"
)

// PdfRenderer lays out an A4 invoice and saves it through Storage.
type PdfRenderer struct {
	Storage utils.Storage
}

func (r *PdfRenderer) Render(ctx context.Context, doc Document) (string, error) {
	if err := doc.validate(); err != nil {
		return "", err
	}
	data, err := r.build(doc)
	if err != nil {
		return "", err
	}
	return r.Storage.Save(ctx, doc.Filename+".pdf", contentTypePdf, data)
}

func (r *PdfRenderer) build(doc Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(doc.Name, true)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	if doc.LogoPath != "" {
		if logo, err := prepareLogo(doc.LogoPath); err != nil {
			config.LogError(config.GetLogger(), "renderer/pdf.go", "build", "prepareLogo", doc.LogoPath, err)
		} else {
			opts := fpdf.ImageOptions{ImageType: "PNG"}
			pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(logo))
			pdf.ImageOptions("logo", 15, 15, 40, 0, false, opts, 0, "")
		}
	}

	// header
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(doc.Name), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if doc.Status != "" {
		pdf.CellFormat(0, 6, tr("Status: "+utils.UppercaseFirst(doc.Status)), "", 1, "R", false, 0, "")
	}
	if doc.InvoiceNumber != "" {
		pdf.CellFormat(0, 6, tr("Serial No.: "+doc.InvoiceNumber), "", 1, "R", false, 0, "")
	}
	if !doc.InvoiceDate.IsZero() {
		pdf.CellFormat(0, 6, "Invoice date: "+doc.InvoiceDate.Format(documentDateLayout), "", 1, "R", false, 0, "")
	}
	if !doc.DueDate.IsZero() {
		pdf.CellFormat(0, 6, "Due date: "+doc.DueDate.Format(documentDateLayout), "", 1, "R", false, 0, "")
	}
	pdf.Ln(8)

	// parties
	top := pdf.GetY()
	writeParty(pdf, tr, 15, top, "Seller", doc.Seller)
	sellerBottom := pdf.GetY()
	writeParty(pdf, tr, 110, top, "Buyer", doc.Buyer)
	if sellerBottom > pdf.GetY() {
		pdf.SetY(sellerBottom)
	}
	pdf.Ln(8)

	// items
	widths := []float64{95, 20, 35, 30}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for i, heading := range []string{"Description", "Qty", "Price", "Total"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, heading, "B", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range doc.Items {
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		pdf.CellFormat(widths[0], 7, tr(item.Name), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, fmt.Sprint(qty), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, doc.money(item.PricePerUnit), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, doc.money(item.Total()), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 9, "Total amount", "T", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 9, doc.money(doc.Total()), "T", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeParty(pdf *fpdf.Fpdf, tr func(string) string, x, y float64, heading string, party Party) {
	pdf.SetXY(x, y)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(85, 7, heading, "B", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)

	lines := []string{party.Name}
	if party.Email != "" {
		lines = append(lines, party.Email)
	}
	address := party.Address
	if strings.TrimSpace(address) == "" {
		address = AddressNotAvailable
	}
	lines = append(lines, strings.Split(address, "\n")...)
	for _, line := range lines {
		pdf.SetX(x)
		pdf.CellFormat(85, 5, tr(line), "", 2, "L", false, 0, "")
	}
}
