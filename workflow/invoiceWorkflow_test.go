package workflow_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/renderer"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/mmdatafocus/rentals_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateForRental_DefaultItems(t *testing.T) {
	ctx := setupTestDB(t)
	fake := useFakeRenderer(t)
	fx := newRentalFixture(t, ctx)

	invoice, err := workflow.GenerateForRental(ctx, fx.rental.ID, workflow.InvoiceOptions{})
	require.NoError(t, err)

	assert.Equal(t, models.OwnerKindRental, invoice.BillableType)
	assert.Equal(t, fx.rental.ID, invoice.BillableID)
	assert.Equal(t, *fx.customer.UserId, invoice.BillToId)
	assert.Equal(t, *fx.landlord.UserId, invoice.BillFromId)
	assert.Equal(t, "Rental Invoice - Sunset Condo 12B", invoice.Name)
	assert.True(t, invoice.Amount.Equal(decimal.NewFromInt(1000)), "got %s", invoice.Amount)
	require.Len(t, invoice.InvoiceItems, 1)
	assert.Equal(t, "Rent for Sunset Condo 12B (Jan 01, 2024 - Apr 01, 2024)", invoice.InvoiceItems[0].Name)
	assert.True(t, strings.HasPrefix(invoice.InvoiceNumber, "INV-"))

	require.Len(t, fake.docs, 1)
	doc := fake.docs[0]
	assert.Equal(t, "Juan Dela Cruz", doc.Buyer.Name)
	assert.Equal(t, "Ana Reyes", doc.Seller.Name)
	assert.Equal(t, renderer.AddressNotAvailable, doc.Buyer.Address)
	assert.Equal(t, "invoices/"+invoice.InvoiceNumber, doc.Filename)

	stored, err := models.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "mem://invoices/"+invoice.InvoiceNumber+".pdf", stored.FilePath)
	assert.Equal(t, stored.FilePath, invoice.FilePath)
}

func TestGenerateForRental_IncludeDepositAndPartyAddress(t *testing.T) {
	ctx := setupTestDB(t)
	fake := useFakeRenderer(t)
	fx := newRentalFixture(t, ctx)
	_, err := models.AddAddress(ctx, fx.customer, models.NewAddress{StreetAddress1: "12 Mabini St", City: "Makati", IsPrimary: true})
	require.NoError(t, err)

	invoice, err := workflow.GenerateForRental(ctx, fx.rental.ID, workflow.InvoiceOptions{IncludeSecurityDeposit: true})
	require.NoError(t, err)
	assert.True(t, invoice.Amount.Equal(decimal.NewFromInt(1500)), "got %s", invoice.Amount)
	require.Len(t, invoice.InvoiceItems, 2)
	assert.Equal(t, "Security Deposit", invoice.InvoiceItems[1].Name)

	require.Len(t, fake.docs, 1)
	assert.Contains(t, fake.docs[0].Buyer.Address, "12 Mabini St")
}

func TestGenerateForRental_OpenEndedShowsOneMonth(t *testing.T) {
	ctx := setupTestDB(t)
	useFakeRenderer(t)
	fx := newRentalFixture(t, ctx)

	fx.rental.EndDate = nil
	require.NoError(t, models.SaveRental(ctx, fx.rental))

	invoice, err := workflow.GenerateForRental(ctx, fx.rental.ID, workflow.InvoiceOptions{SkipPdf: true})
	require.NoError(t, err)
	assert.Equal(t, "Rent for Sunset Condo 12B (Jan 01, 2024 - Feb 01, 2024)", invoice.InvoiceItems[0].Name)

	stored, err := models.GetRental(ctx, fx.rental.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.EndDate)
}

func TestGenerateForRental_MissingLandlordUser(t *testing.T) {
	ctx := setupTestDB(t)
	useFakeRenderer(t)
	customer, err := workflow.CreateCustomer(ctx, &models.NewCustomer{FirstName: "Juan", LastName: "Dela Cruz", Email: "juan@example.ph"})
	require.NoError(t, err)
	// created without provisioning, so it has no user
	landlord, err := models.CreateLandlord(ctx, &models.NewLandlord{FirstName: "Ana", LastName: "Reyes", Email: "ana@example.ph"})
	require.NoError(t, err)
	property, err := models.CreateProperty(ctx, &models.NewProperty{Title: "Loft", RentAmount: decimal.NewFromInt(1000), LandlordId: landlord.ID})
	require.NoError(t, err)
	rental, err := models.CreateRental(ctx, &models.NewRental{
		PropertyId: property.ID,
		CustomerId: customer.ID,
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	invoice, err := workflow.GenerateForRental(ctx, rental.ID, workflow.InvoiceOptions{})
	assert.Nil(t, invoice)
	var ve *utils.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "landlord", ve.Field)
	assert.True(t, workflow.IsRentalPreconditionError(err))

	has, err := workflow.HasInvoices(ctx, rental)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestGenerateForRental_ZeroRent(t *testing.T) {
	ctx := setupTestDB(t)
	useFakeRenderer(t)
	fx := newRentalFixture(t, ctx)

	fx.rental.RentAmount = decimal.Zero
	require.NoError(t, models.SaveRental(ctx, fx.rental))

	_, err := workflow.GenerateForRental(ctx, fx.rental.ID, workflow.InvoiceOptions{})
	assert.True(t, workflow.IsRentalPreconditionError(err))
}

func TestGenerateInvoice_RenderFailureKeepsInvoice(t *testing.T) {
	ctx := setupTestDB(t)
	fake := useFakeRenderer(t)
	fake.err = errRenderDown
	fx := newRentalFixture(t, ctx)

	invoice, err := workflow.GenerateForRental(ctx, fx.rental.ID, workflow.InvoiceOptions{})
	require.Error(t, err)
	assert.True(t, utils.IsExternalRenderError(err))
	assert.ErrorIs(t, err, errRenderDown)
	require.NotNil(t, invoice)

	stored, err := models.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.FilePath)

	// rendering again once the renderer recovers
	fake.err = nil
	path, err := workflow.GeneratePdf(ctx, invoice.ID)
	require.NoError(t, err)
	stored, err = models.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, path, stored.FilePath)
}

func TestGenerateInvoice_ValidatesItems(t *testing.T) {
	ctx := setupTestDB(t)
	useFakeRenderer(t)
	fx := newRentalFixture(t, ctx)
	billTo, billFrom := *fx.customer.UserId, *fx.landlord.UserId

	cases := []struct {
		field string
		items []models.InvoiceItem
	}{
		{"invoice_items", nil},
		{"invoice_items[0].name", []models.InvoiceItem{{Name: " ", PricePerUnit: decimal.NewFromInt(1)}}},
		{"invoice_items[0].price_per_unit", []models.InvoiceItem{{Name: "Fee", PricePerUnit: decimal.NewFromInt(-1)}}},
		{"invoice_items[1].quantity", []models.InvoiceItem{
			{Name: "Fee", PricePerUnit: decimal.NewFromInt(1)},
			{Name: "Bad", PricePerUnit: decimal.NewFromInt(1), Quantity: -2},
		}},
	}
	for _, tc := range cases {
		_, err := workflow.GenerateInvoice(ctx, fx.rental, billTo, billFrom, tc.items, workflow.InvoiceOptions{})
		var ve *utils.ValidationError
		require.True(t, errors.As(err, &ve), tc.field)
		assert.Equal(t, tc.field, ve.Field)
	}

	_, err := workflow.GenerateInvoice(ctx, fx.rental, billTo, 9999, []models.InvoiceItem{{Name: "Fee", PricePerUnit: decimal.NewFromInt(1)}}, workflow.InvoiceOptions{})
	assert.True(t, utils.IsValidationError(err))

	_, err = workflow.GenerateInvoice(ctx, fx.rental, billTo, billFrom, []models.InvoiceItem{{Name: "Fee", PricePerUnit: decimal.NewFromInt(1)}},
		workflow.InvoiceOptions{PaymentStatus: "someday"})
	assert.True(t, utils.IsValidationError(err))

	has, err := workflow.HasInvoices(ctx, fx.rental)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestGenerateInvoice_PaidReceiptAndStatusCasing(t *testing.T) {
	ctx := setupTestDB(t)
	useFakeRenderer(t)
	fx := newRentalFixture(t, ctx)

	invoice, err := workflow.GenerateForRental(ctx, fx.rental.ID, workflow.InvoiceOptions{PaymentStatus: "PAID", SkipPdf: true})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, invoice.PaymentStatus)

	fx.rental.PaymentStatus = models.PaymentStatusPaid
	require.NoError(t, models.SaveRental(ctx, fx.rental))
	receipt, err := workflow.GenerateForRental(ctx, fx.rental.ID, workflow.InvoiceOptions{SkipPdf: true})
	require.NoError(t, err)
	assert.Equal(t, "Payment Receipt - Sunset Condo 12B", receipt.Name)

	invoices, err := workflow.ListInvoices(ctx, fx.rental)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, receipt.ID, invoices[0].ID)
}

func TestInvoiceDownloadLink(t *testing.T) {
	ctx := setupTestDB(t)
	useFakeRenderer(t)
	t.Setenv("STORAGE_PROVIDER", "local")
	fx := newRentalFixture(t, ctx)

	draft, err := workflow.GenerateForRental(ctx, fx.rental.ID, workflow.InvoiceOptions{SkipPdf: true})
	require.NoError(t, err)
	_, err = workflow.InvoiceDownloadLink(ctx, draft.ID)
	assert.True(t, utils.IsValidationError(err))

	invoice, err := workflow.GenerateForRental(ctx, fx.rental.ID, workflow.InvoiceOptions{})
	require.NoError(t, err)
	link, err := workflow.InvoiceDownloadLink(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice.FilePath, link.URL)
}
