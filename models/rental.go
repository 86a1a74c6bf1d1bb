package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Rental struct {
	ID                int              `gorm:"primary_key" json:"id"`
	PropertyId        int              `gorm:"index;not null" json:"property_id"`
	Property          *Property        `gorm:"foreignKey:PropertyId" json:"property,omitempty"`
	CustomerId        int              `gorm:"index;not null" json:"customer_id"`
	Customer          *Customer        `gorm:"foreignKey:CustomerId" json:"customer,omitempty"`
	LandlordId        int              `gorm:"index;not null" json:"landlord_id"`
	Landlord          *Landlord        `gorm:"foreignKey:LandlordId" json:"landlord,omitempty"`
	StartDate         time.Time        `gorm:"not null" json:"start_date"`
	EndDate           *time.Time       `json:"end_date"`
	RentAmount        decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"rent_amount"`
	SecurityDeposit   decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"security_deposit"`
	PaymentFrequency  PaymentFrequency `gorm:"size:20;not null;default:monthly" json:"payment_frequency"`
	Status            RentalStatus     `gorm:"size:20;not null;default:pending;index" json:"status"`
	PaymentStatus     PaymentStatus    `gorm:"size:20;not null;default:unpaid" json:"payment_status"`
	TotalAmount       decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	ApprovedAt        *time.Time       `json:"approved_at"`
	ApprovedBy        *int             `json:"approved_by"`
	TerminatedAt      *time.Time       `json:"terminated_at"`
	TerminationReason string           `gorm:"type:text" json:"termination_reason"`
	NextDueDate       *time.Time       `json:"next_due_date"`
	Notes             string           `gorm:"type:text" json:"notes"`
	CreatedAt         time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewRental struct {
	PropertyId       int              `json:"property_id" validate:"required"`
	CustomerId       int              `json:"customer_id" validate:"required"`
	LandlordId       int              `json:"landlord_id"`
	StartDate        time.Time        `json:"start_date" validate:"required"`
	EndDate          *time.Time       `json:"end_date"`
	RentAmount       *decimal.Decimal `json:"rent_amount"`
	SecurityDeposit  *decimal.Decimal `json:"security_deposit"`
	PaymentFrequency PaymentFrequency `json:"payment_frequency" validate:"omitempty,oneof=daily weekly monthly yearly"`
	NextDueDate      *time.Time       `json:"next_due_date"`
	Notes            string           `json:"notes"`
}

// BeforeSave keeps total_amount in step with the pricing inputs on every
// create and full save.
func (r *Rental) BeforeSave(tx *gorm.DB) error {
	if r.PaymentFrequency == "" {
		r.PaymentFrequency = PaymentFrequencyMonthly
	}
	if r.Status == "" {
		r.Status = RentalStatusPending
	}
	if r.PaymentStatus == "" {
		r.PaymentStatus = PaymentStatusUnpaid
	}
	r.TotalAmount = r.CalculateTotal()
	return nil
}

func (r Rental) CalculateTotal() decimal.Decimal {
	start := r.StartDate
	return utils.CalculateRentalTotal(&start, r.EndDate, r.RentAmount, r.SecurityDeposit, string(r.PaymentFrequency))
}

func (r Rental) BillableOwner() Owner {
	return Owner{Kind: OwnerKindRental, ID: r.ID}
}

func (r Rental) IsActive() bool {
	return r.Status == RentalStatusActive
}

func (r Rental) IsPending() bool {
	return r.Status == RentalStatusPending
}

func (r Rental) IsApproved() bool {
	return r.ApprovedAt != nil
}

func (r Rental) IsOverdue() bool {
	return r.PaymentStatus == PaymentStatusOverdue
}

// RemainingBalance is rent_amount - total_amount.
func (r Rental) RemainingBalance() decimal.Decimal {
	return r.RentAmount.Sub(r.TotalAmount)
}

/* scopes */

func ActiveRentals(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", RentalStatusActive)
}

func PendingRentals(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", RentalStatusPending)
}

func OverdueRentals(db *gorm.DB) *gorm.DB {
	return db.Where("payment_status = ?", PaymentStatusOverdue)
}

func ApprovedRentals(db *gorm.DB) *gorm.DB {
	return db.Where("approved_at IS NOT NULL")
}

func ListRentals(ctx context.Context, scopes ...func(*gorm.DB) *gorm.DB) ([]*Rental, error) {
	var rentals []*Rental
	err := config.GetDB().WithContext(ctx).Scopes(scopes...).Order("id").Find(&rentals).Error
	return rentals, err
}

func GetRental(ctx context.Context, id int) (*Rental, error) {
	return utils.FetchModel[Rental](ctx, id)
}

// GetRentalWithParties preloads property, customer and landlord with their users.
func GetRentalWithParties(ctx context.Context, id int) (*Rental, error) {
	return utils.FetchModel[Rental](ctx, id, "Property", "Customer.User", "Landlord.User")
}

func validateRentalRefs(ctx context.Context, input *NewRental) (*Property, error) {
	property, err := GetProperty(ctx, input.PropertyId)
	if err != nil {
		return nil, utils.NewValidationError("property_id", "property not found")
	}
	if err := utils.ValidateResourceId[Customer](ctx, input.CustomerId); err != nil {
		return nil, utils.NewValidationError("customer_id", "customer not found")
	}
	if input.LandlordId == 0 {
		input.LandlordId = property.LandlordId
	}
	if err := utils.ValidateResourceId[Landlord](ctx, input.LandlordId); err != nil {
		return nil, utils.NewValidationError("landlord_id", "landlord not found")
	}
	if input.RentAmount != nil && input.RentAmount.IsNegative() {
		return nil, utils.NewValidationError("rent_amount", "must not be negative")
	}
	if input.SecurityDeposit != nil && input.SecurityDeposit.IsNegative() {
		return nil, utils.NewValidationError("security_deposit", "must not be negative")
	}
	return property, nil
}

// CreateRental falls back to the property's landlord, rent and deposit when
// the input leaves them out.
func CreateRental(ctx context.Context, input *NewRental) (*Rental, error) {
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	property, err := validateRentalRefs(ctx, input)
	if err != nil {
		return nil, err
	}

	rental := Rental{
		PropertyId:       input.PropertyId,
		CustomerId:       input.CustomerId,
		LandlordId:       input.LandlordId,
		StartDate:        input.StartDate,
		EndDate:          input.EndDate,
		RentAmount:       property.RentAmount,
		SecurityDeposit:  property.SecurityDeposit,
		PaymentFrequency: input.PaymentFrequency,
		NextDueDate:      input.NextDueDate,
		Notes:            input.Notes,
	}
	if input.RentAmount != nil {
		rental.RentAmount = *input.RentAmount
	}
	if input.SecurityDeposit != nil {
		rental.SecurityDeposit = *input.SecurityDeposit
	}
	if rental.PaymentFrequency == "" {
		rental.PaymentFrequency = property.RentPeriod
	}
	if err := config.GetDB().WithContext(ctx).Create(&rental).Error; err != nil {
		return nil, err
	}
	return &rental, nil
}

// UpdateRental rewrites the pricing inputs; the full save recomputes total_amount.
func UpdateRental(ctx context.Context, id int, input *NewRental) (*Rental, error) {
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	rental, err := GetRental(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := validateRentalRefs(ctx, input); err != nil {
		return nil, err
	}

	rental.PropertyId = input.PropertyId
	rental.CustomerId = input.CustomerId
	rental.LandlordId = input.LandlordId
	rental.StartDate = input.StartDate
	rental.EndDate = input.EndDate
	if input.RentAmount != nil {
		rental.RentAmount = *input.RentAmount
	}
	if input.SecurityDeposit != nil {
		rental.SecurityDeposit = *input.SecurityDeposit
	}
	if input.PaymentFrequency != "" {
		rental.PaymentFrequency = input.PaymentFrequency
	}
	rental.NextDueDate = input.NextDueDate
	rental.Notes = input.Notes

	if err := config.GetDB().WithContext(ctx).Save(rental).Error; err != nil {
		return nil, err
	}
	return rental, nil
}

// SaveRental persists every column of rental, recomputing total_amount.
func SaveRental(ctx context.Context, rental *Rental) error {
	return SaveRentalTx(config.GetDB(), ctx, rental)
}

func SaveRentalTx(tx *gorm.DB, ctx context.Context, rental *Rental) error {
	return tx.WithContext(ctx).Omit("Property", "Customer", "Landlord").Save(rental).Error
}

func SetRentalPaymentStatusTx(tx *gorm.DB, ctx context.Context, id int, status PaymentStatus) error {
	return tx.WithContext(ctx).Model(&Rental{}).
		Where("id = ?", id).
		Update("payment_status", status).Error
}
