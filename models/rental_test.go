package models_test

import (
	"testing"

	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRental_TotalAndDefaults(t *testing.T) {
	ctx := setupTestDB(t)
	landlord := mustLandlord(t, ctx, "ana@example.ph")
	customer := mustCustomer(t, ctx, "juan@example.ph")
	property := mustProperty(t, ctx, landlord.ID, "1000")

	end := day(2024, 4, 1)
	rental, err := models.CreateRental(ctx, &models.NewRental{
		PropertyId: property.ID,
		CustomerId: customer.ID,
		StartDate:  day(2024, 1, 1),
		EndDate:    &end,
	})
	require.NoError(t, err)

	assert.Equal(t, landlord.ID, rental.LandlordId)
	assert.Equal(t, models.RentalStatusPending, rental.Status)
	assert.Equal(t, models.PaymentStatusUnpaid, rental.PaymentStatus)
	assert.Equal(t, models.PaymentFrequencyMonthly, rental.PaymentFrequency)
	assert.True(t, rental.TotalAmount.Equal(decimal.NewFromInt(2500)), "got %s", rental.TotalAmount)

	saved, err := models.GetRental(ctx, rental.ID)
	require.NoError(t, err)
	assert.True(t, saved.TotalAmount.Equal(decimal.NewFromInt(2500)), "got %s", saved.TotalAmount)
}

func TestUpdateRental_RecomputesTotal(t *testing.T) {
	ctx := setupTestDB(t)
	landlord := mustLandlord(t, ctx, "ana@example.ph")
	customer := mustCustomer(t, ctx, "juan@example.ph")
	property := mustProperty(t, ctx, landlord.ID, "1000")

	end := day(2024, 4, 1)
	rental, err := models.CreateRental(ctx, &models.NewRental{
		PropertyId: property.ID,
		CustomerId: customer.ID,
		StartDate:  day(2024, 1, 1),
		EndDate:    &end,
	})
	require.NoError(t, err)

	rent := decimal.NewFromInt(2000)
	deposit := decimal.Zero
	updated, err := models.UpdateRental(ctx, rental.ID, &models.NewRental{
		PropertyId:      property.ID,
		CustomerId:      customer.ID,
		StartDate:       day(2024, 1, 1),
		EndDate:         &end,
		RentAmount:      &rent,
		SecurityDeposit: &deposit,
	})
	require.NoError(t, err)
	assert.True(t, updated.TotalAmount.Equal(decimal.NewFromInt(6000)), "got %s", updated.TotalAmount)
}

func TestCreateRental_OpenEndedHasZeroTotal(t *testing.T) {
	ctx := setupTestDB(t)
	landlord := mustLandlord(t, ctx, "ana@example.ph")
	customer := mustCustomer(t, ctx, "juan@example.ph")
	property := mustProperty(t, ctx, landlord.ID, "1000")

	rental, err := models.CreateRental(ctx, &models.NewRental{
		PropertyId: property.ID,
		CustomerId: customer.ID,
		StartDate:  day(2024, 1, 1),
	})
	require.NoError(t, err)
	assert.True(t, rental.TotalAmount.IsZero())
	assert.True(t, rental.RemainingBalance().Equal(decimal.NewFromInt(1000)))
}

func TestCreateRental_ValidatesReferences(t *testing.T) {
	ctx := setupTestDB(t)
	landlord := mustLandlord(t, ctx, "ana@example.ph")
	property := mustProperty(t, ctx, landlord.ID, "1000")

	_, err := models.CreateRental(ctx, &models.NewRental{
		PropertyId: property.ID,
		CustomerId: 999,
		StartDate:  day(2024, 1, 1),
	})
	assert.True(t, utils.IsValidationError(err))

	negative := decimal.NewFromInt(-1)
	customer := mustCustomer(t, ctx, "juan@example.ph")
	_, err = models.CreateRental(ctx, &models.NewRental{
		PropertyId: property.ID,
		CustomerId: customer.ID,
		StartDate:  day(2024, 1, 1),
		RentAmount: &negative,
	})
	assert.True(t, utils.IsValidationError(err))
}

func TestListRentals_Scopes(t *testing.T) {
	ctx := setupTestDB(t)
	landlord := mustLandlord(t, ctx, "ana@example.ph")
	customer := mustCustomer(t, ctx, "juan@example.ph")
	property := mustProperty(t, ctx, landlord.ID, "1000")

	for i := 0; i < 2; i++ {
		_, err := models.CreateRental(ctx, &models.NewRental{
			PropertyId: property.ID,
			CustomerId: customer.ID,
			StartDate:  day(2024, 1, 1),
		})
		require.NoError(t, err)
	}

	pending, err := models.ListRentals(ctx, models.PendingRentals)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	active, err := models.ListRentals(ctx, models.ActiveRentals)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestCreateProperty_UniqueSlug(t *testing.T) {
	ctx := setupTestDB(t)
	landlord := mustLandlord(t, ctx, "ana@example.ph")

	first := mustProperty(t, ctx, landlord.ID, "1000")
	second := mustProperty(t, ctx, landlord.ID, "1000")
	assert.Equal(t, "sunset-condo-12b", first.Slug)
	assert.NotEqual(t, first.Slug, second.Slug)
	assert.Contains(t, second.Slug, "sunset-condo-12b-")
	assert.Equal(t, models.PropertyStatusAvailable, first.Status)
}
