package workflow_test

import (
	"testing"
	"time"

	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/mmdatafocus/rentals_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteRental(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	quote := workflow.QuoteRental(start, &end, decimal.NewFromInt(1000), decimal.NewFromInt(500), "")
	assert.Equal(t, "monthly", quote.PaymentFrequency)
	assert.Equal(t, 3, quote.Periods)
	assert.Equal(t, "2500", quote.TotalAmount.String())

	open := workflow.QuoteRental(start, nil, decimal.NewFromInt(1000), decimal.Zero, "Weekly")
	assert.Equal(t, "weekly", open.PaymentFrequency)
	assert.Zero(t, open.Periods)
	assert.True(t, open.TotalAmount.IsZero())
}

func TestApproveRental(t *testing.T) {
	ctx := setupTestDB(t)
	useFakeRenderer(t)
	fx := newRentalFixture(t, ctx)
	approver, err := models.CreateUser(ctx, &models.NewUser{Name: "Staff", Email: "staff@example.ph", Password: "secret123"})
	require.NoError(t, err)

	rental, err := workflow.ApproveRental(ctx, fx.rental.ID, approver.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentalStatusActive, rental.Status)
	assert.True(t, rental.IsApproved())
	require.NotNil(t, rental.ApprovedBy)
	assert.Equal(t, approver.ID, *rental.ApprovedBy)
	require.NotNil(t, rental.NextDueDate)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), rental.NextDueDate.UTC())
	assert.True(t, rental.TotalAmount.Equal(decimal.NewFromInt(2500)))

	property, err := models.GetProperty(ctx, fx.property.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyStatusRented, property.Status)

	active, err := models.ListRentals(ctx, models.ActiveRentals, models.ApprovedRentals)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	_, err = workflow.ApproveRental(ctx, fx.rental.ID, approver.ID)
	assert.True(t, utils.IsValidationError(err))
}

func TestApproveRental_UnknownApprover(t *testing.T) {
	ctx := setupTestDB(t)
	useFakeRenderer(t)
	fx := newRentalFixture(t, ctx)

	_, err := workflow.ApproveRental(ctx, fx.rental.ID, 9999)
	assert.True(t, utils.IsValidationError(err))

	rental, err := models.GetRental(ctx, fx.rental.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentalStatusPending, rental.Status)
}

func TestTerminateRental_FreesProperty(t *testing.T) {
	ctx := setupTestDB(t)
	useFakeRenderer(t)
	fx := newRentalFixture(t, ctx)
	_, err := workflow.ApproveRental(ctx, fx.rental.ID, *fx.landlord.UserId)
	require.NoError(t, err)

	rental, err := workflow.TerminateRental(ctx, fx.rental.ID, "  tenant relocated  ")
	require.NoError(t, err)
	assert.Equal(t, models.RentalStatusTerminated, rental.Status)
	assert.NotNil(t, rental.TerminatedAt)
	assert.Equal(t, "tenant relocated", rental.TerminationReason)

	property, err := models.GetProperty(ctx, fx.property.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyStatusAvailable, property.Status)

	_, err = workflow.CompleteRental(ctx, fx.rental.ID)
	assert.True(t, utils.IsValidationError(err))
}

func TestCancelRental_Pending(t *testing.T) {
	ctx := setupTestDB(t)
	useFakeRenderer(t)
	fx := newRentalFixture(t, ctx)

	rental, err := workflow.CancelRental(ctx, fx.rental.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentalStatusCancelled, rental.Status)
	assert.Nil(t, rental.TerminatedAt)

	_, err = workflow.CancelRental(ctx, 9999)
	assert.ErrorIs(t, err, utils.ErrorRecordNotFound)
}
