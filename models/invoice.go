package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const DefaultInvoiceDueDays = 30

type InvoiceItem struct {
	Name         string          `json:"name"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	// zero means 1
	Quantity int `json:"quantity,omitempty"`
}

func (item InvoiceItem) EffectiveQuantity() int {
	if item.Quantity == 0 {
		return 1
	}
	return item.Quantity
}

func (item InvoiceItem) LineTotal() decimal.Decimal {
	return item.PricePerUnit.Mul(decimal.NewFromInt(int64(item.EffectiveQuantity())))
}

type Invoice struct {
	ID            int                              `gorm:"primary_key" json:"id"`
	BillableType  OwnerKind                        `gorm:"size:50;not null;index:idx_invoices_billable" json:"billable_type"`
	BillableID    int                              `gorm:"not null;index:idx_invoices_billable" json:"billable_id"`
	BillToId      int                              `gorm:"index;not null" json:"bill_to_id"`
	BillTo        *User                            `gorm:"foreignKey:BillToId" json:"bill_to,omitempty"`
	BillFromId    int                              `gorm:"index;not null" json:"bill_from_id"`
	BillFrom      *User                            `gorm:"foreignKey:BillFromId" json:"bill_from,omitempty"`
	InvoiceNumber string                           `gorm:"size:50;not null;uniqueIndex" json:"invoice_number"`
	Name          string                           `gorm:"size:255" json:"name"`
	Amount        decimal.Decimal                  `gorm:"type:decimal(20,4);default:0" json:"amount"`
	InvoiceDate   time.Time                        `gorm:"not null" json:"invoice_date"`
	DueDate       time.Time                        `gorm:"not null" json:"due_date"`
	Status        InvoiceStatus                    `gorm:"size:20;not null;default:pending" json:"status"`
	PaymentStatus PaymentStatus                    `gorm:"size:20;not null;default:pending" json:"payment_status"`
	FilePath      string                           `gorm:"size:1024" json:"file_path"`
	InvoiceItems  datatypes.JSONSlice[InvoiceItem] `json:"invoice_items"`
	Payments      []*Payment                       `gorm:"foreignKey:InvoiceId" json:"payments,omitempty"`
	CreatedAt     time.Time                        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time                        `gorm:"autoUpdateTime" json:"updated_at"`
}

// CalculateInvoiceAmount sums price_per_unit * quantity, rounded to 2 places.
func CalculateInvoiceAmount(items []InvoiceItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total.Round(2)
}

// BeforeSave derives amount from the line items so no save path can store a
// disagreeing amount.
func (inv *Invoice) BeforeSave(tx *gorm.DB) error {
	inv.Amount = CalculateInvoiceAmount(inv.InvoiceItems)
	if inv.InvoiceDate.IsZero() {
		inv.InvoiceDate = time.Now()
	}
	if inv.DueDate.IsZero() {
		inv.DueDate = inv.InvoiceDate.AddDate(0, 0, DefaultInvoiceDueDays)
	}
	if inv.Status == "" {
		inv.Status = InvoiceStatusPending
	}
	if inv.PaymentStatus == "" {
		inv.PaymentStatus = PaymentStatusPending
	}
	return nil
}

func (inv Invoice) Billable() Owner {
	return Owner{Kind: inv.BillableType, ID: inv.BillableID}
}

func (inv Invoice) HasDocument() bool {
	return inv.FilePath != ""
}

func (inv Invoice) IsPastDue(now time.Time) bool {
	return now.After(inv.DueDate)
}

func CreateInvoiceTx(tx *gorm.DB, ctx context.Context, invoice *Invoice) error {
	return tx.WithContext(ctx).Omit("BillTo", "BillFrom", "Payments").Create(invoice).Error
}

func GetInvoice(ctx context.Context, id int) (*Invoice, error) {
	return utils.FetchModel[Invoice](ctx, id)
}

func GetInvoiceWithParties(ctx context.Context, id int) (*Invoice, error) {
	return utils.FetchModel[Invoice](ctx, id, "BillTo", "BillFrom")
}

func GetInvoiceByNumber(ctx context.Context, number string) (*Invoice, error) {
	var invoice Invoice
	err := config.GetDB().WithContext(ctx).Where("invoice_number = ?", number).First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetInvoicesFor lists the owner's invoices newest first.
func GetInvoicesFor(ctx context.Context, owner Owner) ([]*Invoice, error) {
	return utils.FetchModelsWhere[Invoice](ctx, "invoice_date desc, id desc",
		"billable_type = ? AND billable_id = ?", owner.Kind, owner.ID)
}

func CountInvoicesFor(ctx context.Context, owner Owner) (int64, error) {
	return utils.ResourceCountWhere[Invoice](ctx, "billable_type = ? AND billable_id = ?", owner.Kind, owner.ID)
}

func SetInvoiceFilePath(ctx context.Context, id int, filePath string) error {
	return config.GetDB().WithContext(ctx).Model(&Invoice{}).
		Where("id = ?", id).
		Update("file_path", filePath).Error
}

func SetInvoiceStatusTx(tx *gorm.DB, ctx context.Context, id int, status InvoiceStatus, paymentStatus PaymentStatus) error {
	return tx.WithContext(ctx).Model(&Invoice{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         status,
			"payment_status": paymentStatus,
		}).Error
}

// PastDueInvoiceIds lists open, unpaid invoices whose due date is before now.
func PastDueInvoiceIds(ctx context.Context, now time.Time, limit int) ([]int, error) {
	var ids []int
	err := config.GetDB().WithContext(ctx).Model(&Invoice{}).
		Where("status = ? AND payment_status = ? AND due_date < ?", InvoiceStatusPending, PaymentStatusPending, now).
		Order("id").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}
