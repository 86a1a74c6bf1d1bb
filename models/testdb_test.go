package models_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

// setupTestDB points the global handle at a fresh sqlite file for the test.
func setupTestDB(t *testing.T) context.Context {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "rentals.db") + "?_busy_timeout=5000"
	conn, err := config.OpenDatabase(sqlite.Open(dsn))
	require.NoError(t, err)
	config.SetDB(conn)
	require.NoError(t, models.MigrateTable())
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return utils.SetUserNameInContext(context.Background(), "Test")
}

func mustCustomer(t *testing.T, ctx context.Context, email string) *models.Customer {
	t.Helper()
	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{
		FirstName: "Juan",
		LastName:  "Dela Cruz",
		Email:     email,
	})
	require.NoError(t, err)
	return customer
}

func mustLandlord(t *testing.T, ctx context.Context, email string) *models.Landlord {
	t.Helper()
	landlord, err := models.CreateLandlord(ctx, &models.NewLandlord{
		FirstName: "Ana",
		LastName:  "Reyes",
		Email:     email,
	})
	require.NoError(t, err)
	return landlord
}

func mustProperty(t *testing.T, ctx context.Context, landlordId int, rent string) *models.Property {
	t.Helper()
	property, err := models.CreateProperty(ctx, &models.NewProperty{
		Title:           "Sunset Condo 12B",
		RentAmount:      decimal.RequireFromString(rent),
		SecurityDeposit: decimal.NewFromInt(500),
		LandlordId:      landlordId,
	})
	require.NoError(t, err)
	return property
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
