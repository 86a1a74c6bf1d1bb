package models_test

import (
	"errors"
	"testing"

	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAddress_PrimaryIsExclusive(t *testing.T) {
	ctx := setupTestDB(t)
	customer := mustCustomer(t, ctx, "juan@example.ph")

	first, err := models.AddAddress(ctx, customer, models.NewAddress{
		StreetAddress1: "12 Mabini St",
		City:           "Makati",
		IsPrimary:      true,
	})
	require.NoError(t, err)
	second, err := models.AddAddress(ctx, customer, models.NewAddress{
		Type:           models.AddressTypeBilling,
		StreetAddress1: "88 Ayala Ave",
		City:           "Makati",
		IsPrimary:      true,
	})
	require.NoError(t, err)

	primary, err := models.GetPrimaryAddress(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, second.ID, primary.ID)

	addresses, err := models.GetAddresses(ctx, customer, true)
	require.NoError(t, err)
	require.Len(t, addresses, 2)
	primaries := 0
	for _, a := range addresses {
		if a.IsPrimary {
			primaries++
		}
	}
	assert.Equal(t, 1, primaries)

	_, err = models.SetPrimaryAddress(ctx, customer, first.ID)
	require.NoError(t, err)
	primary, err = models.GetPrimaryAddress(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, first.ID, primary.ID)
}

func TestAddAddress_Defaults(t *testing.T) {
	ctx := setupTestDB(t)
	landlord := mustLandlord(t, ctx, "ana@example.ph")

	address, err := models.AddAddress(ctx, landlord, models.NewAddress{
		StreetAddress1: "1 Rizal Ave",
		City:           "Manila",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AddressTypeGeneral, address.Type)
	assert.Equal(t, models.DefaultCountry, address.Country)
	assert.True(t, address.Active())
	assert.Equal(t, models.Owner{Kind: models.OwnerKindLandlord, ID: landlord.ID}, address.Owner())
}

func TestAddAddress_RequiresStreetAndCity(t *testing.T) {
	ctx := setupTestDB(t)
	customer := mustCustomer(t, ctx, "juan@example.ph")

	_, err := models.AddAddress(ctx, customer, models.NewAddress{City: "Makati"})
	var ve *utils.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "street_address_1", ve.Field)
}

func TestAddresses_ScopedToOwner(t *testing.T) {
	ctx := setupTestDB(t)
	customer := mustCustomer(t, ctx, "juan@example.ph")
	landlord := mustLandlord(t, ctx, "ana@example.ph")

	own, err := models.AddAddress(ctx, customer, models.NewAddress{StreetAddress1: "12 Mabini St", City: "Makati", IsPrimary: true})
	require.NoError(t, err)
	_, err = models.AddAddress(ctx, landlord, models.NewAddress{StreetAddress1: "1 Rizal Ave", City: "Manila", IsPrimary: true})
	require.NoError(t, err)

	// a landlord primary must not clear the customer's primary
	primary, err := models.GetPrimaryAddress(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, own.ID, primary.ID)

	_, err = models.SetPrimaryAddress(ctx, landlord, own.ID)
	assert.ErrorIs(t, err, utils.ErrorRecordNotFound)
}

func TestDeactivateAddress(t *testing.T) {
	ctx := setupTestDB(t)
	customer := mustCustomer(t, ctx, "juan@example.ph")
	address, err := models.AddAddress(ctx, customer, models.NewAddress{StreetAddress1: "12 Mabini St", City: "Makati", IsPrimary: true})
	require.NoError(t, err)

	deactivated, err := models.DeactivateAddress(ctx, customer, address.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.Active())
	assert.False(t, deactivated.IsPrimary)

	active, err := models.GetAddresses(ctx, customer, true)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := models.GetAddresses(ctx, customer, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetFormattedAddress_ByTypeAndMissing(t *testing.T) {
	ctx := setupTestDB(t)
	customer := mustCustomer(t, ctx, "juan@example.ph")

	_, ok, err := models.GetFormattedAddress(ctx, customer, "primary", models.AddressFormatFull)
	require.NoError(t, err)
	assert.False(t, ok)
	has, err := models.OwnerHasAddresses(ctx, customer)
	require.NoError(t, err)
	assert.False(t, has)

	_, err = models.AddAddress(ctx, customer, models.NewAddress{
		Type:           models.AddressTypeWork,
		StreetAddress1: "88 Ayala Ave",
		City:           "Makati",
		StateProvince:  "Metro Manila",
	})
	require.NoError(t, err)

	formatted, ok, err := models.GetFormattedAddress(ctx, customer, "work", models.AddressFormatShort)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Makati, Metro Manila", formatted)

	has, err = models.OwnerHasAddresses(ctx, customer)
	require.NoError(t, err)
	assert.True(t, has)
	has, err = models.OwnerHasAddressType(ctx, customer, models.AddressTypeBilling)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestFormattedAddress_Styles(t *testing.T) {
	address := models.Address{
		Label:          "Head office",
		StreetAddress1: "88 Ayala Ave",
		StreetAddress2: "Suite 1201",
		City:           "Makati",
		StateProvince:  "Metro Manila",
		PostalCode:     "1226",
		Country:        models.DefaultCountry,
	}

	assert.Equal(t, "Head office\n88 Ayala Ave\nSuite 1201\nMakati, Metro Manila, 1226\nPhilippines",
		address.FormattedAddress(models.AddressFormatFull))
	assert.Equal(t, "Makati, Metro Manila", address.FormattedAddress(models.AddressFormatShort))
	assert.Equal(t, "88 Ayala Ave, Suite 1201, Makati, Metro Manila, 1226",
		address.FormattedAddress(models.AddressFormatSingleLine))

	address.Country = "Japan"
	assert.Equal(t, "Makati, Metro Manila, Japan", address.FormattedAddress(models.AddressFormatShort))
}

func TestAddress_DisplayName(t *testing.T) {
	assert.Equal(t, "Home (home)", models.Address{Label: "Home", Type: models.AddressTypeHome}.DisplayName())
	assert.Equal(t, "Billing Address", models.Address{Type: models.AddressTypeBilling}.DisplayName())
}

func TestAddress_Coordinates(t *testing.T) {
	_, _, ok := models.Address{}.Coordinates()
	assert.False(t, ok)

	lat, lng := decimal.RequireFromString("14.55470000"), decimal.RequireFromString("121.02440000")
	gotLat, gotLng, ok := models.Address{Latitude: &lat, Longitude: &lng}.Coordinates()
	assert.True(t, ok)
	assert.InDelta(t, 14.5547, gotLat, 1e-9)
	assert.InDelta(t, 121.0244, gotLng, 1e-9)
}
