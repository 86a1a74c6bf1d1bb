package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/renderer"
	"github.com/mmdatafocus/rentals_backend/utils"
)

// InvoiceOptions tune GenerateInvoice and GenerateForRental. Zero values
// fall back to the defaults.
type InvoiceOptions struct {
	InvoiceNumber string
	InvoiceName   string
	InvoiceDate   *time.Time
	DueDate       *time.Time
	Status        models.InvoiceStatus
	PaymentStatus models.PaymentStatus
	// InvoiceItems replaces the default rental line items.
	InvoiceItems           []models.InvoiceItem
	IncludeSecurityDeposit bool
	SkipPdf                bool
}

var (
	rendererMu  sync.Mutex
	docRenderer renderer.DocumentRenderer
)

// SetDocumentRenderer overrides the renderer built from the environment.
func SetDocumentRenderer(r renderer.DocumentRenderer) {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	docRenderer = r
}

func getDocumentRenderer() (renderer.DocumentRenderer, error) {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	if docRenderer != nil {
		return docRenderer, nil
	}
	r, err := renderer.NewRendererFromEnv()
	if err != nil {
		return nil, err
	}
	docRenderer = r
	return docRenderer, nil
}

func validateInvoiceItems(items []models.InvoiceItem) error {
	if len(items) == 0 {
		return utils.NewValidationError("invoice_items", "at least one item is required")
	}
	for i, item := range items {
		field := fmt.Sprintf("invoice_items[%d]", i)
		if strings.TrimSpace(item.Name) == "" {
			return utils.NewValidationError(field+".name", "is required")
		}
		if item.PricePerUnit.IsNegative() {
			return utils.NewValidationError(field+".price_per_unit", "must not be negative")
		}
		if item.Quantity < 0 {
			return utils.NewValidationError(field+".quantity", "must be at least 1")
		}
	}
	return nil
}

// GenerateInvoice persists an invoice for billable and renders its document
// unless opts.SkipPdf is set.
//
// Validation failures return a ValidationError and persist nothing. When
// rendering fails the saved invoice is returned together with an
// ExternalRenderError; GeneratePdf can be called again later.
func GenerateInvoice(ctx context.Context, billable models.Billable, billToId int, billFromId int, items []models.InvoiceItem, opts InvoiceOptions) (*models.Invoice, error) {
	owner := billable.BillableOwner()
	if !owner.IsKnown() {
		return nil, utils.NewValidationError("billable", "must be saved before invoicing")
	}
	if err := utils.ValidateResourceId[models.User](ctx, billToId); err != nil {
		return nil, utils.NewValidationError("bill_to_id", "user not found")
	}
	if err := utils.ValidateResourceId[models.User](ctx, billFromId); err != nil {
		return nil, utils.NewValidationError("bill_from_id", "user not found")
	}
	if err := validateInvoiceItems(items); err != nil {
		return nil, err
	}
	if opts.PaymentStatus != "" {
		status, err := models.ParsePaymentStatus(string(opts.PaymentStatus))
		if err != nil {
			return nil, utils.NewValidationError("payment_status", err.Error())
		}
		opts.PaymentStatus = status
	}

	invoice := models.Invoice{
		BillableType:  owner.Kind,
		BillableID:    owner.ID,
		BillToId:      billToId,
		BillFromId:    billFromId,
		InvoiceNumber: opts.InvoiceNumber,
		Name:          opts.InvoiceName,
		Status:        opts.Status,
		PaymentStatus: opts.PaymentStatus,
		InvoiceItems:  items,
	}
	if invoice.InvoiceNumber == "" {
		invoice.InvoiceNumber = utils.GenerateInvoiceNumber()
	}
	if invoice.Name == "" {
		invoice.Name = fmt.Sprintf("Invoice for %s #%d", owner.Kind.Label(), owner.ID)
	}
	invoice.InvoiceDate = time.Now()
	if opts.InvoiceDate != nil {
		invoice.InvoiceDate = *opts.InvoiceDate
	}
	invoice.DueDate = invoice.InvoiceDate.AddDate(0, 0, models.DefaultInvoiceDueDays)
	if opts.DueDate != nil {
		invoice.DueDate = *opts.DueDate
	}

	if err := models.CreateInvoiceTx(config.GetDB(), ctx, &invoice); err != nil {
		config.LogError(config.GetLogger(), "invoiceWorkflow.go", "GenerateInvoice", "CreateInvoice", invoice.InvoiceNumber, err)
		return nil, err
	}
	publishEvent(ctx, EventInvoiceGenerated, owner, map[string]any{
		"invoice_id":     invoice.ID,
		"invoice_number": invoice.InvoiceNumber,
		"amount":         invoice.Amount,
	})

	if !opts.SkipPdf {
		filePath, err := GeneratePdf(ctx, invoice.ID)
		if err != nil {
			return &invoice, err
		}
		invoice.FilePath = filePath
	}
	return &invoice, nil
}

var (
	errRentalCustomerUser = utils.NewValidationError("customer", "customer or customer user not found for this rental")
	errRentalLandlordUser = utils.NewValidationError("landlord", "landlord or landlord user not found for this rental")
	errRentalAmount       = utils.NewValidationError("rent_amount", "rental amount must be greater than zero")
)

// GenerateForRental bills the rental's customer user on behalf of its
// landlord user.
func GenerateForRental(ctx context.Context, rentalId int, opts InvoiceOptions) (*models.Invoice, error) {
	rental, err := models.GetRentalWithParties(ctx, rentalId)
	if err != nil {
		return nil, err
	}
	if rental.Customer == nil || rental.Customer.User == nil {
		return nil, errRentalCustomerUser
	}
	if rental.Landlord == nil || rental.Landlord.User == nil {
		return nil, errRentalLandlordUser
	}
	if !rental.RentAmount.IsPositive() {
		return nil, errRentalAmount
	}

	items := opts.InvoiceItems
	if len(items) == 0 {
		items = defaultRentalItems(rental, opts.IncludeSecurityDeposit)
	}
	if opts.InvoiceName == "" {
		opts.InvoiceName = rentalInvoiceName(rental)
	}
	return GenerateInvoice(ctx, rental, rental.Customer.User.ID, rental.Landlord.User.ID, items, opts)
}

func propertyTitle(rental *models.Rental) string {
	if rental.Property == nil {
		return fmt.Sprintf("Property #%d", rental.PropertyId)
	}
	return rental.Property.Title
}

func rentalInvoiceName(rental *models.Rental) string {
	if rental.PaymentStatus == models.PaymentStatusPaid {
		return "Payment Receipt - " + propertyTitle(rental)
	}
	return "Rental Invoice - " + propertyTitle(rental)
}

// defaultRentalItems bills one period of rent. An open-ended rental shows
// start + 1 month as the period end; the rental itself is not changed.
func defaultRentalItems(rental *models.Rental, includeDeposit bool) []models.InvoiceItem {
	end := utils.AddOneMonth(rental.StartDate)
	if rental.EndDate != nil {
		end = *rental.EndDate
	}
	items := []models.InvoiceItem{{
		Name: fmt.Sprintf("Rent for %s (%s - %s)",
			propertyTitle(rental),
			rental.StartDate.Format("Jan 02, 2006"),
			end.Format("Jan 02, 2006"),
		),
		PricePerUnit: rental.RentAmount,
		Quantity:     1,
	}}
	if includeDeposit && rental.SecurityDeposit.IsPositive() {
		items = append(items, models.InvoiceItem{
			Name:         "Security Deposit",
			PricePerUnit: rental.SecurityDeposit,
			Quantity:     1,
		})
	}
	return items
}

func partyFromUser(ctx context.Context, user *models.User) (renderer.Party, error) {
	if user == nil {
		return renderer.Party{Address: renderer.AddressNotAvailable}, nil
	}
	address, ok, err := user.GetRoleBasedFormattedAddress(ctx, "primary", models.AddressFormatFull)
	if err != nil {
		return renderer.Party{}, err
	}
	if !ok {
		address = renderer.AddressNotAvailable
	}
	return renderer.Party{Name: user.Name, Email: user.Email, Address: address}, nil
}

func documentFor(ctx context.Context, invoice *models.Invoice) (renderer.Document, error) {
	buyer, err := partyFromUser(ctx, invoice.BillTo)
	if err != nil {
		return renderer.Document{}, err
	}
	seller, err := partyFromUser(ctx, invoice.BillFrom)
	if err != nil {
		return renderer.Document{}, err
	}
	items := make([]renderer.Item, 0, len(invoice.InvoiceItems))
	for _, item := range invoice.InvoiceItems {
		items = append(items, renderer.Item{
			Name:         item.Name,
			PricePerUnit: item.PricePerUnit,
			Quantity:     item.EffectiveQuantity(),
		})
	}
	return renderer.Document{
		Name:          invoice.Name,
		Status:        string(invoice.PaymentStatus),
		InvoiceNumber: invoice.InvoiceNumber,
		InvoiceDate:   invoice.InvoiceDate,
		DueDate:       invoice.DueDate,
		Buyer:         buyer,
		Seller:        seller,
		Items:         items,
		CurrencyCode:  renderer.CurrencyFromEnv(),
		LogoPath:      renderer.LogoPathFromEnv(),
		Filename:      "invoices/" + invoice.InvoiceNumber,
	}, nil
}

const downloadLinkLifespan = 15 * time.Minute

// GeneratePdf renders the invoice document and stores its location in
// file_path. Renderer failures come back as ExternalRenderError and are not
// retried.
func GeneratePdf(ctx context.Context, invoiceId int) (string, error) {
	invoice, err := models.GetInvoiceWithParties(ctx, invoiceId)
	if err != nil {
		return "", err
	}
	doc, err := documentFor(ctx, invoice)
	if err != nil {
		return "", err
	}

	r, err := getDocumentRenderer()
	if err != nil {
		return "", &utils.ExternalRenderError{InvoiceNumber: invoice.InvoiceNumber, Err: err}
	}
	filePath, err := r.Render(ctx, doc)
	if err != nil {
		config.LogError(config.GetLogger(), "invoiceWorkflow.go", "GeneratePdf", "Render", invoice.InvoiceNumber, err)
		return "", &utils.ExternalRenderError{InvoiceNumber: invoice.InvoiceNumber, Err: err}
	}

	if err := models.SetInvoiceFilePath(ctx, invoice.ID, filePath); err != nil {
		return "", err
	}
	publishEvent(ctx, EventInvoiceRendered, invoice.Billable(), map[string]any{
		"invoice_id": invoice.ID,
		"file_path":  filePath,
	})
	return filePath, nil
}

// InvoiceDownloadLink returns a short-lived link to the rendered document.
func InvoiceDownloadLink(ctx context.Context, invoiceId int) (*utils.SignedDownload, error) {
	invoice, err := models.GetInvoice(ctx, invoiceId)
	if err != nil {
		return nil, err
	}
	if !invoice.HasDocument() {
		return nil, utils.NewValidationError("file_path", "invoice has not been rendered")
	}
	return utils.SignDownload(ctx, invoice.FilePath, downloadLinkLifespan)
}

func HasInvoices(ctx context.Context, billable models.Billable) (bool, error) {
	count, err := models.CountInvoicesFor(ctx, billable.BillableOwner())
	return count > 0, err
}

// ListInvoices returns the billable's invoices newest first.
func ListInvoices(ctx context.Context, billable models.Billable) ([]*models.Invoice, error) {
	return models.GetInvoicesFor(ctx, billable.BillableOwner())
}

// IsRentalPreconditionError reports whether err is one of the rental
// invoicing precondition failures.
func IsRentalPreconditionError(err error) bool {
	return errors.Is(err, errRentalCustomerUser) || errors.Is(err, errRentalLandlordUser) || errors.Is(err, errRentalAmount)
}
