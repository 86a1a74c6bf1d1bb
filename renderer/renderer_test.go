package renderer

import (
	"bytes"
	"context"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type memoryStorage struct {
	saved       map[string][]byte
	contentType map[string]string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{saved: map[string][]byte{}, contentType: map[string]string{}}
}

func (s *memoryStorage) Save(ctx context.Context, objectName string, contentType string, data []byte) (string, error) {
	s.saved[objectName] = data
	s.contentType[objectName] = contentType
	return "mem://" + objectName, nil
}

func sampleDocument() Document {
	return Document{
		Name:          "Rental Invoice - Sunset Condo 12B",
		Status:        "pending",
		InvoiceNumber: "INV-0001",
		InvoiceDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Seller:        Party{Name: "Ana Reyes", Email: "ana@example.ph", Address: "1 Rizal Ave\nManila"},
		Buyer:         Party{Name: "Juan Dela Cruz", Email: "juan@example.ph", Address: AddressNotAvailable},
		Items: []Item{
			{Name: "Rent for Sunset Condo 12B", PricePerUnit: decimal.NewFromInt(1000), Quantity: 1},
			{Name: "Parking", PricePerUnit: decimal.NewFromInt(250), Quantity: 2},
		},
		Filename: "invoices/INV-0001",
	}
}

func TestDocument_Total(t *testing.T) {
	doc := sampleDocument()
	assert.Equal(t, "1500", doc.Total().String())
	assert.Equal(t, "PHP 1500.00", doc.money(doc.Total()))

	doc.CurrencyCode = "USD"
	assert.Equal(t, "USD 12.50", doc.money(decimal.RequireFromString("12.5")))
}

func TestPdfRenderer_SavesPdf(t *testing.T) {
	storage := newMemoryStorage()
	r := &PdfRenderer{Storage: storage}

	location, err := r.Render(context.Background(), sampleDocument())
	require.NoError(t, err)
	assert.Equal(t, "mem://invoices/INV-0001.pdf", location)

	data := storage.saved["invoices/INV-0001.pdf"]
	require.NotEmpty(t, data)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.Equal(t, contentTypePdf, storage.contentType["invoices/INV-0001.pdf"])
}

func TestPdfRenderer_RejectsEmptyDocument(t *testing.T) {
	storage := newMemoryStorage()
	doc := sampleDocument()
	doc.Items = nil

	_, err := (&PdfRenderer{Storage: storage}).Render(context.Background(), doc)
	assert.Error(t, err)
	assert.Empty(t, storage.saved)
}

func TestXlsxRenderer_WritesInvoiceSheet(t *testing.T) {
	storage := newMemoryStorage()
	r := &XlsxRenderer{Storage: storage}

	location, err := r.Render(context.Background(), sampleDocument())
	require.NoError(t, err)
	assert.Equal(t, "mem://invoices/INV-0001.xlsx", location)

	f, err := excelize.OpenReader(bytes.NewReader(storage.saved["invoices/INV-0001.xlsx"]))
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue(invoiceSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Rental Invoice - Sunset Condo 12B", name)

	rows, err := f.GetRows(invoiceSheet)
	require.NoError(t, err)
	last := rows[len(rows)-1]
	require.Len(t, last, 4)
	assert.Equal(t, "Total (PHP)", last[2])
	assert.Equal(t, "1500", last[3])
}

func TestPrepareLogo_FitsHeaderBox(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.jpg")
	require.NoError(t, imaging.Save(imaging.New(1200, 300, color.NRGBA{R: 200, A: 255}), path))

	data, err := prepareLogo(path)
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), logoMaxWidth)
	assert.LessOrEqual(t, img.Bounds().Dy(), logoMaxHeight)

	_, err = prepareLogo(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestRenderer_WithLogo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, imaging.Save(imaging.New(200, 80, color.NRGBA{B: 200, A: 255}), path))

	doc := sampleDocument()
	doc.LogoPath = path
	for _, r := range []DocumentRenderer{&PdfRenderer{Storage: newMemoryStorage()}, &XlsxRenderer{Storage: newMemoryStorage()}} {
		_, err := r.Render(context.Background(), doc)
		assert.NoError(t, err)
	}
}

func TestNewRendererFromEnv(t *testing.T) {
	t.Setenv("STORAGE_PROVIDER", "local")
	t.Setenv("STORAGE_DIR", t.TempDir())

	t.Setenv("INVOICE_RENDERER", "")
	r, err := NewRendererFromEnv()
	require.NoError(t, err)
	assert.IsType(t, &PdfRenderer{}, r)

	t.Setenv("INVOICE_RENDERER", "XLSX")
	r, err = NewRendererFromEnv()
	require.NoError(t, err)
	assert.IsType(t, &XlsxRenderer{}, r)

	t.Setenv("INVOICE_RENDERER", "docx")
	_, err = NewRendererFromEnv()
	assert.Error(t, err)
}
