package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
)

// RentalQuote previews the contract total without saving anything.
type RentalQuote struct {
	StartDate        time.Time       `json:"start_date"`
	EndDate          *time.Time      `json:"end_date"`
	PaymentFrequency string          `json:"payment_frequency"`
	Periods          int             `json:"periods"`
	RentAmount       decimal.Decimal `json:"rent_amount"`
	SecurityDeposit  decimal.Decimal `json:"security_deposit"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
}

func QuoteRental(start time.Time, end *time.Time, rent, deposit decimal.Decimal, frequency string) RentalQuote {
	if frequency == "" {
		frequency = utils.FrequencyMonthly
	}
	quote := RentalQuote{
		StartDate:        start,
		EndDate:          end,
		PaymentFrequency: strings.ToLower(frequency),
		RentAmount:       rent,
		SecurityDeposit:  deposit,
		TotalAmount:      utils.CalculateRentalTotal(&start, end, rent, deposit, frequency),
	}
	if end != nil {
		quote.Periods = utils.PeriodCount(start, *end, frequency)
	}
	return quote
}

func CreateRental(ctx context.Context, input *models.NewRental) (*models.Rental, error) {
	rental, err := models.CreateRental(ctx, input)
	if err != nil {
		return nil, err
	}
	publishRentalStatus(ctx, rental)
	return rental, nil
}

// UpdateRental saves the new pricing inputs; total_amount is recomputed on save.
func UpdateRental(ctx context.Context, id int, input *models.NewRental) (*models.Rental, error) {
	return models.UpdateRental(ctx, id, input)
}

// ApproveRental activates a pending rental and marks its property rented.
func ApproveRental(ctx context.Context, id int, approverId int) (*models.Rental, error) {
	rental, err := models.GetRental(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rental.IsPending() {
		return nil, utils.NewValidationError("status", "only pending rentals can be approved")
	}
	if err := utils.ValidateResourceId[models.User](ctx, approverId); err != nil {
		return nil, utils.NewValidationError("approved_by", "user not found")
	}

	now := time.Now()
	rental.Status = models.RentalStatusActive
	rental.ApprovedAt = &now
	rental.ApprovedBy = &approverId
	if rental.NextDueDate == nil {
		due := utils.AddOneMonth(rental.StartDate)
		rental.NextDueDate = &due
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := models.SaveRentalTx(tx, ctx, rental); err != nil {
		tx.Rollback()
		config.LogError(config.GetLogger(), "rentalWorkflow.go", "ApproveRental", "SaveRental", rental.ID, err)
		return nil, err
	}
	if err := tx.WithContext(ctx).Model(&models.Property{}).
		Where("id = ?", rental.PropertyId).
		Update("status", models.PropertyStatusRented).Error; err != nil {
		tx.Rollback()
		config.LogError(config.GetLogger(), "rentalWorkflow.go", "ApproveRental", "SetPropertyStatus", rental.PropertyId, err)
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	publishRentalStatus(ctx, rental)
	return rental, nil
}

func CompleteRental(ctx context.Context, id int) (*models.Rental, error) {
	return closeRental(ctx, id, models.RentalStatusCompleted, "")
}

func CancelRental(ctx context.Context, id int) (*models.Rental, error) {
	return closeRental(ctx, id, models.RentalStatusCancelled, "")
}

// TerminateRental stamps terminated_at and the reason.
func TerminateRental(ctx context.Context, id int, reason string) (*models.Rental, error) {
	return closeRental(ctx, id, models.RentalStatusTerminated, reason)
}

// closeRental moves a rental into a terminal state and frees its property.
func closeRental(ctx context.Context, id int, status models.RentalStatus, reason string) (*models.Rental, error) {
	rental, err := models.GetRental(ctx, id)
	if err != nil {
		return nil, err
	}
	if rental.Status.IsTerminal() {
		return nil, utils.NewValidationError("status", "rental is already "+string(rental.Status))
	}
	rental.Status = status
	if status == models.RentalStatusTerminated {
		now := time.Now()
		rental.TerminatedAt = &now
		rental.TerminationReason = strings.TrimSpace(reason)
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := models.SaveRentalTx(tx, ctx, rental); err != nil {
		tx.Rollback()
		config.LogError(config.GetLogger(), "rentalWorkflow.go", "closeRental", "SaveRental", rental.ID, err)
		return nil, err
	}
	if err := tx.WithContext(ctx).Model(&models.Property{}).
		Where("id = ? AND status = ?", rental.PropertyId, models.PropertyStatusRented).
		Update("status", models.PropertyStatusAvailable).Error; err != nil {
		tx.Rollback()
		config.LogError(config.GetLogger(), "rentalWorkflow.go", "closeRental", "SetPropertyStatus", rental.PropertyId, err)
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	publishRentalStatus(ctx, rental)
	return rental, nil
}

func publishRentalStatus(ctx context.Context, rental *models.Rental) {
	publishEvent(ctx, EventRentalStatus, rental.BillableOwner(), map[string]any{
		"status":         rental.Status,
		"payment_status": rental.PaymentStatus,
		"total_amount":   rental.TotalAmount,
	})
}
