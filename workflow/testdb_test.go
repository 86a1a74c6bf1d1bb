package workflow_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/renderer"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/mmdatafocus/rentals_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func setupTestDB(t *testing.T) context.Context {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "rentals.db") + "?_busy_timeout=5000"
	conn, err := config.OpenDatabase(sqlite.Open(dsn))
	require.NoError(t, err)
	config.SetDB(conn)
	require.NoError(t, models.MigrateTable())
	require.NoError(t, models.SeedRoles(context.Background()))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	ctx := utils.SetUserNameInContext(context.Background(), "Test")
	return utils.SetCorrelationIdInContext(ctx, "")
}

// fakeRenderer records rendered documents instead of writing files.
type fakeRenderer struct {
	mu   sync.Mutex
	docs []renderer.Document
	err  error
}

func (f *fakeRenderer) Render(ctx context.Context, doc renderer.Document) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.docs = append(f.docs, doc)
	return "mem://" + doc.Filename + ".pdf", nil
}

func useFakeRenderer(t *testing.T) *fakeRenderer {
	t.Helper()
	fake := &fakeRenderer{}
	workflow.SetDocumentRenderer(fake)
	t.Cleanup(func() { workflow.SetDocumentRenderer(nil) })
	return fake
}

var errRenderDown = errors.New("renderer unavailable")

type rentalFixture struct {
	customer *models.Customer
	landlord *models.Landlord
	property *models.Property
	rental   *models.Rental
}

// newRentalFixture creates provisioned parties, a property renting at 1000
// with a 500 deposit, and a pending Jan-Apr 2024 rental.
func newRentalFixture(t *testing.T, ctx context.Context) rentalFixture {
	t.Helper()
	customer, err := workflow.CreateCustomer(ctx, &models.NewCustomer{FirstName: "Juan", LastName: "Dela Cruz", Email: "juan@example.ph"})
	require.NoError(t, err)
	require.NotNil(t, customer.UserId)
	landlord, err := workflow.CreateLandlord(ctx, &models.NewLandlord{FirstName: "Ana", LastName: "Reyes", Email: "ana@example.ph"})
	require.NoError(t, err)
	require.NotNil(t, landlord.UserId)

	property, err := models.CreateProperty(ctx, &models.NewProperty{
		Title:           "Sunset Condo 12B",
		RentAmount:      decimal.NewFromInt(1000),
		SecurityDeposit: decimal.NewFromInt(500),
		LandlordId:      landlord.ID,
	})
	require.NoError(t, err)

	end := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	rental, err := workflow.CreateRental(ctx, &models.NewRental{
		PropertyId: property.ID,
		CustomerId: customer.ID,
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    &end,
	})
	require.NoError(t, err)
	return rentalFixture{customer: customer, landlord: landlord, property: property, rental: rental}
}
