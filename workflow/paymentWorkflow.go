package workflow

import (
	"context"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
)

type InvoiceBalance struct {
	InvoiceId   int             `json:"invoice_id"`
	Amount      decimal.Decimal `json:"amount"`
	Paid        decimal.Decimal `json:"paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// RecordPayment stores a pending payment against an invoice.
func RecordPayment(ctx context.Context, input *models.NewPayment) (*models.Payment, error) {
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, utils.NewValidationError("amount", "must be greater than zero")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, utils.NewValidationError("payment_method", "is not supported")
	}
	if err := utils.ValidateResourceId[models.Invoice](ctx, input.InvoiceId); err != nil {
		return nil, utils.NewValidationError("invoice_id", "invoice not found")
	}
	if err := utils.ValidateResourceId[models.User](ctx, input.PayerId); err != nil {
		return nil, utils.NewValidationError("payer_id", "user not found")
	}
	if err := utils.ValidateResourceId[models.User](ctx, input.ReceiverId); err != nil {
		return nil, utils.NewValidationError("receiver_id", "user not found")
	}

	payment := models.Payment{
		InvoiceId:       input.InvoiceId,
		PayerId:         input.PayerId,
		ReceiverId:      input.ReceiverId,
		Amount:          input.Amount.Round(2),
		PaymentMethod:   input.PaymentMethod,
		ReferenceNumber: input.ReferenceNumber,
		Status:          models.PaymentRecordStatusPending,
		Meta:            input.Meta,
		Notes:           input.Notes,
	}
	if err := models.CreatePaymentTx(config.GetDB(), ctx, &payment); err != nil {
		config.LogError(config.GetLogger(), "paymentWorkflow.go", "RecordPayment", "CreatePayment", input, err)
		return nil, err
	}
	publishEvent(ctx, EventPaymentRecorded, models.Owner{Kind: models.OwnerKindInvoice, ID: payment.InvoiceId}, map[string]any{
		"payment_id": payment.ID,
		"amount":     payment.Amount,
		"method":     payment.PaymentMethod,
	})
	return &payment, nil
}

// MarkPaid sets the payment to paid and stamps paid_at. The invoice is not
// touched; ReconcileInvoice does that.
func MarkPaid(ctx context.Context, paymentId int) (*models.Payment, error) {
	now := time.Now()
	return setPaymentStatus(ctx, paymentId, models.PaymentRecordStatusPaid, &now)
}

func MarkConfirmed(ctx context.Context, paymentId int) (*models.Payment, error) {
	return setPaymentStatus(ctx, paymentId, models.PaymentRecordStatusConfirmed, nil)
}

func MarkFailed(ctx context.Context, paymentId int) (*models.Payment, error) {
	return setPaymentStatus(ctx, paymentId, models.PaymentRecordStatusFailed, nil)
}

func MarkRefunded(ctx context.Context, paymentId int) (*models.Payment, error) {
	return setPaymentStatus(ctx, paymentId, models.PaymentRecordStatusRefunded, nil)
}

func setPaymentStatus(ctx context.Context, paymentId int, status models.PaymentRecordStatus, paidAt *time.Time) (*models.Payment, error) {
	if _, err := models.GetPayment(ctx, paymentId); err != nil {
		return nil, err
	}
	if err := models.SetPaymentStatus(ctx, paymentId, status, paidAt); err != nil {
		config.LogError(config.GetLogger(), "paymentWorkflow.go", "setPaymentStatus", string(status), paymentId, err)
		return nil, err
	}
	payment, err := models.GetPayment(ctx, paymentId)
	if err != nil {
		return nil, err
	}
	eventType := EventPaymentStatus
	if status == models.PaymentRecordStatusPaid {
		eventType = EventPaymentPaid
	}
	publishEvent(ctx, eventType, models.Owner{Kind: models.OwnerKindInvoice, ID: payment.InvoiceId}, map[string]any{
		"payment_id": payment.ID,
		"status":     payment.Status,
		"amount":     payment.Amount,
	})
	return payment, nil
}

// GetInvoiceBalance sums paid and confirmed payments against the invoice amount.
func GetInvoiceBalance(ctx context.Context, invoiceId int) (*InvoiceBalance, error) {
	invoice, err := models.GetInvoice(ctx, invoiceId)
	if err != nil {
		return nil, err
	}
	return balanceOf(ctx, invoice)
}

func balanceOf(ctx context.Context, invoice *models.Invoice) (*InvoiceBalance, error) {
	payments, err := models.GetInvoicePayments(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}
	paid := models.SettledAmount(payments)
	outstanding := invoice.Amount.Sub(paid)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}
	return &InvoiceBalance{
		InvoiceId:   invoice.ID,
		Amount:      invoice.Amount.Round(2),
		Paid:        paid,
		Outstanding: outstanding.Round(2),
	}, nil
}

// reconciledStatus returns the payment status the balance implies, or ok=false
// when the invoice should stay as it is.
func reconciledStatus(invoice *models.Invoice, balance *InvoiceBalance, now time.Time) (status models.PaymentStatus, ok bool) {
	switch {
	case balance.Paid.IsPositive() && balance.Paid.GreaterThanOrEqual(balance.Amount):
		return models.PaymentStatusPaid, true
	case balance.Paid.IsPositive():
		return models.PaymentStatusPartial, true
	case invoice.IsPastDue(now):
		return models.PaymentStatusOverdue, true
	case invoice.PaymentStatus == models.PaymentStatusPaid || invoice.PaymentStatus == models.PaymentStatusPartial:
		// every settled payment was refunded or failed
		return models.PaymentStatusPending, true
	}
	return "", false
}

// ReconcileInvoice updates the invoice payment status from its payments and
// mirrors it onto a rental billable.
func ReconcileInvoice(ctx context.Context, invoiceId int) (*models.Invoice, error) {
	invoice, err := models.GetInvoice(ctx, invoiceId)
	if err != nil {
		return nil, err
	}
	if invoice.Status == models.InvoiceStatusCancelled {
		return nil, utils.NewValidationError("status", "cancelled invoices cannot be reconciled")
	}
	balance, err := balanceOf(ctx, invoice)
	if err != nil {
		return nil, err
	}
	paymentStatus, ok := reconciledStatus(invoice, balance, time.Now())
	if !ok {
		return invoice, nil
	}
	status := invoice.Status
	switch {
	case paymentStatus == models.PaymentStatusPaid:
		status = models.InvoiceStatusPaid
	case status == models.InvoiceStatusPaid:
		status = models.InvoiceStatusPending
	}
	if paymentStatus == invoice.PaymentStatus && status == invoice.Status {
		return invoice, nil
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := models.SetInvoiceStatusTx(tx, ctx, invoice.ID, status, paymentStatus); err != nil {
		tx.Rollback()
		config.LogError(config.GetLogger(), "paymentWorkflow.go", "ReconcileInvoice", "SetInvoiceStatus", invoice.ID, err)
		return nil, err
	}
	if invoice.BillableType == models.OwnerKindRental {
		if err := models.SetRentalPaymentStatusTx(tx, ctx, invoice.BillableID, paymentStatus); err != nil {
			tx.Rollback()
			config.LogError(config.GetLogger(), "paymentWorkflow.go", "ReconcileInvoice", "SetRentalPaymentStatus", invoice.BillableID, err)
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	invoice.Status = status
	invoice.PaymentStatus = paymentStatus
	publishEvent(ctx, EventInvoiceReconciled, invoice.Billable(), map[string]any{
		"invoice_id":     invoice.ID,
		"payment_status": paymentStatus,
		"paid":           balance.Paid,
		"outstanding":    balance.Outstanding,
	})
	return invoice, nil
}

// SweepOverdueInvoices reconciles up to limit past-due unpaid invoices and
// returns how many were marked overdue.
func SweepOverdueInvoices(ctx context.Context, now time.Time, limit int) (int, error) {
	ids, err := models.PastDueInvoiceIds(ctx, now, limit)
	if err != nil {
		return 0, err
	}
	swept := 0
	for _, id := range ids {
		invoice, err := ReconcileInvoice(ctx, id)
		if err != nil {
			config.LogError(config.GetLogger(), "paymentWorkflow.go", "SweepOverdueInvoices", "ReconcileInvoice", id, err)
			continue
		}
		if invoice.PaymentStatus == models.PaymentStatusOverdue {
			swept++
		}
	}
	return swept, nil
}
