package workflow_test

import (
	"testing"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/mmdatafocus/rentals_backend/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCustomer_ProvisionsRenterAccount(t *testing.T) {
	ctx := setupTestDB(t)

	customer, err := workflow.CreateCustomer(ctx, &models.NewCustomer{FirstName: "Juan", LastName: "Dela Cruz", Email: "juan@example.ph"})
	require.NoError(t, err)
	require.NotNil(t, customer.UserId)

	user, err := models.GetUser(ctx, *customer.UserId)
	require.NoError(t, err)
	assert.Equal(t, "Juan Dela Cruz", user.Name)
	assert.Equal(t, "juan@example.ph", user.Email)
	assert.NotNil(t, user.EmailVerifiedAt)
	assert.NoError(t, utils.ComparePassword(user.Password, utils.DefaultUserPassword()))

	isRenter, err := user.HasRole(ctx, models.RoleRenter)
	require.NoError(t, err)
	assert.True(t, isRenter)

	stored, err := models.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, *stored.UserId)
}

func TestProvision_LinksExistingUserByEmail(t *testing.T) {
	ctx := setupTestDB(t)
	existing, err := models.CreateUser(ctx, &models.NewUser{Name: "Ana R.", Email: "ana@example.ph", Password: "secret123"})
	require.NoError(t, err)

	landlord, err := workflow.CreateLandlord(ctx, &models.NewLandlord{FirstName: "Ana", LastName: "Reyes", Email: "ana@example.ph"})
	require.NoError(t, err)
	require.NotNil(t, landlord.UserId)
	assert.Equal(t, existing.ID, *landlord.UserId)

	user, err := models.GetUser(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana R.", user.Name)
	assert.NoError(t, utils.ComparePassword(user.Password, "secret123"))
	isLandlord, err := user.HasRole(ctx, models.RoleLandlord)
	require.NoError(t, err)
	assert.True(t, isLandlord)
}

func TestProvision_ExistingUserGetsMissingRole(t *testing.T) {
	ctx := setupTestDB(t)
	require.NoError(t, config.GetDB().Where("name = ?", models.RoleLandlord).Delete(&models.Role{}).Error)
	existing, err := models.CreateUser(ctx, &models.NewUser{Name: "Ben", Email: "ben@example.ph", Password: "secret123"})
	require.NoError(t, err)

	landlord, err := workflow.CreateLandlord(ctx, &models.NewLandlord{FirstName: "Ben", LastName: "Santos", Email: "ben@example.ph"})
	require.NoError(t, err)
	require.NotNil(t, landlord.UserId)
	assert.Equal(t, existing.ID, *landlord.UserId)

	user, err := models.GetUser(ctx, existing.ID)
	require.NoError(t, err)
	isLandlord, err := user.HasRole(ctx, models.RoleLandlord)
	require.NoError(t, err)
	assert.True(t, isLandlord)

	users, err := utils.ResourceCountWhere[models.User](ctx, "email = ?", "ben@example.ph")
	require.NoError(t, err)
	assert.EqualValues(t, 1, users)
	roles, err := utils.ResourceCountWhere[models.Role](ctx, "name = ?", models.RoleLandlord)
	require.NoError(t, err)
	assert.EqualValues(t, 1, roles)
}

func TestProvision_Idempotent(t *testing.T) {
	ctx := setupTestDB(t)
	customer, err := workflow.CreateCustomer(ctx, &models.NewCustomer{FirstName: "Juan", LastName: "Dela Cruz", Email: "juan@example.ph"})
	require.NoError(t, err)

	again, err := workflow.Provision(ctx, customer, models.RoleRenter)
	require.NoError(t, err)
	assert.Equal(t, *customer.UserId, again.ID)

	count, err := utils.ResourceCountWhere[models.User](ctx, "email = ?", "juan@example.ph")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	loaded, err := models.GetUser(ctx, again.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Roles, 1)
}

func TestProvision_SameEmailForCustomerAndLandlord(t *testing.T) {
	ctx := setupTestDB(t)
	customer, err := workflow.CreateCustomer(ctx, &models.NewCustomer{FirstName: "Pat", LastName: "Cruz", Email: "pat@example.ph"})
	require.NoError(t, err)
	landlord, err := workflow.CreateLandlord(ctx, &models.NewLandlord{FirstName: "Pat", LastName: "Cruz", Email: "pat@example.ph"})
	require.NoError(t, err)

	require.NotNil(t, customer.UserId)
	require.NotNil(t, landlord.UserId)
	assert.Equal(t, *customer.UserId, *landlord.UserId)

	user, err := models.GetUser(ctx, *customer.UserId)
	require.NoError(t, err)
	name, ok, err := user.PrimaryRoleName(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.RoleLandlord, name)
}

func TestProvision_RequiresEmail(t *testing.T) {
	ctx := setupTestDB(t)
	_, err := workflow.Provision(ctx, &models.Customer{ID: 7, FirstName: "No", LastName: "Email"}, models.RoleRenter)
	assert.True(t, utils.IsValidationError(err))
}

func TestProvisionPending_LinksUnlinkedRecords(t *testing.T) {
	ctx := setupTestDB(t)
	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{FirstName: "Juan", LastName: "Dela Cruz", Email: "juan@example.ph"})
	require.NoError(t, err)
	_, err = models.CreateLandlord(ctx, &models.NewLandlord{FirstName: "Ana", LastName: "Reyes", Email: "ana@example.ph"})
	require.NoError(t, err)

	linked, err := workflow.ProvisionPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, linked)

	stored, err := models.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.UserId)

	linked, err = workflow.ProvisionPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, linked)
}
