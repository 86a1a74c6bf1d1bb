package renderer

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
)

const (
	FormatPdf  = "pdf"
	FormatXlsx = "xlsx"

	DefaultCurrencyCode    = "PHP"
	AddressNotAvailable    = "Address not available"
	documentDateLayout     = "Jan 02, 2006"
	contentTypePdf         = "application/pdf"
	contentTypeSpreadsheet = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Party is one side of an invoice.
type Party struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

type Item struct {
	Name         string          `json:"name"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Quantity     int             `json:"quantity"`
}

func (i Item) Total() decimal.Decimal {
	qty := i.Quantity
	if qty == 0 {
		qty = 1
	}
	return i.PricePerUnit.Mul(decimal.NewFromInt(int64(qty)))
}

// Document is everything a renderer needs to lay out an invoice.
type Document struct {
	Name          string
	Status        string
	InvoiceNumber string
	InvoiceDate   time.Time
	DueDate       time.Time
	Buyer         Party
	Seller        Party
	Items         []Item
	CurrencyCode  string
	LogoPath      string
	// Filename is the storage object name without extension.
	Filename string
}

func (d Document) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range d.Items {
		total = total.Add(item.Total())
	}
	return total.Round(2)
}

func (d Document) currency() string {
	if d.CurrencyCode == "" {
		return DefaultCurrencyCode
	}
	return d.CurrencyCode
}

func (d Document) money(amount decimal.Decimal) string {
	return d.currency() + " " + amount.StringFixed(2)
}

func (d Document) validate() error {
	if strings.TrimSpace(d.Filename) == "" {
		return fmt.Errorf("document filename is required")
	}
	if len(d.Items) == 0 {
		return fmt.Errorf("document has no items")
	}
	return nil
}

// DocumentRenderer turns a Document into a stored file and returns its
// path or URL.
type DocumentRenderer interface {
	Render(ctx context.Context, doc Document) (string, error)
}

func CurrencyFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("INVOICE_CURRENCY")); v != "" {
		return strings.ToUpper(v)
	}
	return DefaultCurrencyCode
}

func LogoPathFromEnv() string {
	return strings.TrimSpace(os.Getenv("INVOICE_LOGO_PATH"))
}

func GetFormat() string {
	format := strings.ToLower(strings.TrimSpace(os.Getenv("INVOICE_RENDERER")))
	if format == "" {
		return FormatPdf
	}
	return format
}

// NewRendererFromEnv picks the renderer by INVOICE_RENDERER and the storage
// by STORAGE_PROVIDER.
func NewRendererFromEnv() (DocumentRenderer, error) {
	storage, err := utils.NewStorageFromEnv()
	if err != nil {
		return nil, err
	}
	switch GetFormat() {
	case FormatPdf:
		return &PdfRenderer{Storage: storage}, nil
	case FormatXlsx:
		return &XlsxRenderer{Storage: storage}, nil
	}
	return nil, fmt.Errorf("unsupported INVOICE_RENDERER %q", GetFormat())
}
