package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Payment struct {
	ID              int                 `gorm:"primary_key" json:"id"`
	InvoiceId       int                 `gorm:"index;not null" json:"invoice_id"`
	PayerId         int                 `gorm:"index;not null" json:"payer_id"`
	ReceiverId      int                 `gorm:"index;not null" json:"receiver_id"`
	Amount          decimal.Decimal     `gorm:"type:decimal(20,4);not null" json:"amount"`
	PaymentMethod   PaymentMethod       `gorm:"size:20;not null" json:"payment_method"`
	ReferenceNumber string              `gorm:"size:100" json:"reference_number"`
	PaidAt          *time.Time          `json:"paid_at"`
	Status          PaymentRecordStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	Meta            datatypes.JSONMap   `json:"meta"`
	Notes           string              `gorm:"type:text" json:"notes"`
	ReceiptPath     string              `gorm:"size:1024" json:"receipt_path"`
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPayment struct {
	InvoiceId       int                    `json:"invoice_id" validate:"required"`
	PayerId         int                    `json:"payer_id" validate:"required"`
	ReceiverId      int                    `json:"receiver_id" validate:"required"`
	Amount          decimal.Decimal        `json:"amount"`
	PaymentMethod   PaymentMethod          `json:"payment_method" validate:"required,oneof=cash bank_transfer credit_card gcash paypal paymaya"`
	ReferenceNumber string                 `json:"reference_number" validate:"max=100"`
	Meta            map[string]interface{} `json:"meta"`
	Notes           string                 `json:"notes"`
}

func CreatePaymentTx(tx *gorm.DB, ctx context.Context, payment *Payment) error {
	return tx.WithContext(ctx).Create(payment).Error
}

func GetPayment(ctx context.Context, id int) (*Payment, error) {
	return utils.FetchModel[Payment](ctx, id)
}

func GetInvoicePayments(ctx context.Context, invoiceId int) ([]*Payment, error) {
	return utils.FetchModelsWhere[Payment](ctx, "id", "invoice_id = ?", invoiceId)
}

// SetPaymentStatus stamps paid_at when paidAt is non-nil.
func SetPaymentStatus(ctx context.Context, id int, status PaymentRecordStatus, paidAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if paidAt != nil {
		updates["paid_at"] = *paidAt
	}
	return config.GetDB().WithContext(ctx).Model(&Payment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func SetPaymentReceiptPath(ctx context.Context, id int, path string) error {
	return config.GetDB().WithContext(ctx).Model(&Payment{}).
		Where("id = ?", id).
		Update("receipt_path", path).Error
}

// SettledAmount sums payments that count towards the invoice balance.
func SettledAmount(payments []*Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p.Status.Settled() {
			total = total.Add(p.Amount)
		}
	}
	return total.Round(2)
}
