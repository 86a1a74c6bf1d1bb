package renderer

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/xuri/excelize/v2"
)

const invoiceSheet = "Invoice"

// XlsxRenderer writes the invoice as a single-sheet workbook.
type XlsxRenderer struct {
	Storage utils.Storage
}

func (r *XlsxRenderer) Render(ctx context.Context, doc Document) (string, error) {
	if err := doc.validate(); err != nil {
		return "", err
	}
	data, err := r.build(doc)
	if err != nil {
		return "", err
	}
	return r.Storage.Save(ctx, doc.Filename+".xlsx", contentTypeSpreadsheet, data)
}

func (r *XlsxRenderer) build(doc Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", invoiceSheet); err != nil {
		return nil, err
	}

	row := 1
	if doc.LogoPath != "" {
		if logo, err := prepareLogo(doc.LogoPath); err != nil {
			config.LogError(config.GetLogger(), "renderer/xlsx.go", "build", "prepareLogo", doc.LogoPath, err)
		} else {
			err := f.AddPictureFromBytes(invoiceSheet, "A1", &excelize.Picture{
				Extension: ".png",
				File:      logo,
				Format:    &excelize.GraphicOptions{AutoFit: true},
			})
			if err != nil {
				return nil, err
			}
			row = 6
		}
	}

	set := func(cell string, value interface{}) {
		f.SetCellValue(invoiceSheet, cell, value)
	}
	at := func(col string, r int) string {
		return col + fmt.Sprint(r)
	}

	set(at("A", row), doc.Name)
	row++
	if doc.Status != "" {
		set(at("A", row), "Status")
		set(at("B", row), utils.UppercaseFirst(doc.Status))
		row++
	}
	if doc.InvoiceNumber != "" {
		set(at("A", row), "Serial No.")
		set(at("B", row), doc.InvoiceNumber)
		row++
	}
	if !doc.InvoiceDate.IsZero() {
		set(at("A", row), "Invoice date")
		set(at("B", row), doc.InvoiceDate.Format(documentDateLayout))
		row++
	}
	if !doc.DueDate.IsZero() {
		set(at("A", row), "Due date")
		set(at("B", row), doc.DueDate.Format(documentDateLayout))
		row++
	}
	row++

	set(at("A", row), "Seller")
	set(at("C", row), "Buyer")
	row++
	for _, pair := range [][2]string{
		{doc.Seller.Name, doc.Buyer.Name},
		{doc.Seller.Email, doc.Buyer.Email},
		{partyAddress(doc.Seller), partyAddress(doc.Buyer)},
	} {
		set(at("A", row), pair[0])
		set(at("C", row), pair[1])
		row++
	}
	row++

	headerRow := row
	for i, heading := range []string{"Description", "Qty", "Price", "Total"} {
		set(at(string(rune('A'+i)), row), heading)
	}
	row++
	for _, item := range doc.Items {
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		set(at("A", row), item.Name)
		set(at("B", row), qty)
		set(at("C", row), item.PricePerUnit.InexactFloat64())
		set(at("D", row), item.Total().InexactFloat64())
		row++
	}
	set(at("C", row), "Total ("+doc.currency()+")")
	set(at("D", row), doc.Total().InexactFloat64())

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(invoiceSheet, at("A", headerRow), at("D", headerRow), bold); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(invoiceSheet, at("C", row), at("D", row), bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(invoiceSheet, "A", "A", 50); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func partyAddress(p Party) string {
	if p.Address == "" {
		return AddressNotAvailable
	}
	return p.Address
}
