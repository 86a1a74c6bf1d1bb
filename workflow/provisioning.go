package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/utils"
	"gorm.io/gorm"
)

const provisionLockTTL = 30 * time.Second

// Provision links entity to a login account holding role.
//
// An entity that is already linked is left alone. Otherwise an existing
// user with the same email is linked (and given the role if missing), or a
// new verified user with the default password is created. Redis, when
// connected, serialises concurrent provisioning of the same email.
func Provision(ctx context.Context, entity models.Provisionable, role models.RoleName) (*models.User, error) {
	if userId := entity.LinkedUserId(); userId != nil {
		return models.GetUser(ctx, *userId)
	}
	email := strings.TrimSpace(entity.ContactEmail())
	if email == "" {
		return nil, utils.NewValidationError("email", "is required to provision an account")
	}

	release, _, err := utils.ObtainLock(ctx, "provision:"+strings.ToLower(email), provisionLockTTL, "provisioning.go", "Provision")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin()
	user, created, err := provisionTx(tx, ctx, entity, email, role)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	owner := entity.AddressOwner()
	config.LogInfo(config.GetLogger(), "provisioning.go", "Provision", "account linked", map[string]any{
		"owner_type": owner.Kind,
		"owner_id":   owner.ID,
		"user_id":    user.ID,
		"created":    created,
	})
	publishEvent(ctx, EventAccountProvisioned, owner, map[string]any{
		"user_id": user.ID,
		"role":    role,
		"created": created,
	})
	return user, nil
}

func provisionTx(tx *gorm.DB, ctx context.Context, entity models.Provisionable, email string, role models.RoleName) (*models.User, bool, error) {
	created := false
	user, err := models.GetUserByEmailTx(tx, ctx, email)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		user, err = models.CreateUserTx(tx, ctx, &models.NewUser{
			Name:          entity.FullName(),
			Email:         email,
			Password:      utils.DefaultUserPassword(),
			EmailVerified: true,
		})
		created = true
	}
	if err != nil {
		return nil, false, err
	}

	if err := user.EnsureRoleTx(tx, ctx, role); err != nil {
		return nil, false, err
	}
	if err := entity.LinkUserTx(tx, ctx, user.ID); err != nil {
		return nil, false, err
	}
	return user, created, nil
}

// provisionOrLog never fails the caller; the entity stays unlinked and a
// later update retries.
func provisionOrLog(ctx context.Context, entity models.Provisionable, role models.RoleName, funcName string) {
	if _, err := Provision(ctx, entity, role); err != nil {
		config.LogError(config.GetLogger(), "provisioning.go", funcName, "Provision", entity.ContactEmail(), err)
	}
}

func CreateCustomer(ctx context.Context, input *models.NewCustomer) (*models.Customer, error) {
	customer, err := models.CreateCustomer(ctx, input)
	if err != nil {
		return nil, err
	}
	provisionOrLog(ctx, customer, models.RoleRenter, "CreateCustomer")
	return customer, nil
}

// UpdateCustomer retries provisioning while the customer is still unlinked.
func UpdateCustomer(ctx context.Context, id int, input *models.NewCustomer) (*models.Customer, error) {
	customer, err := models.UpdateCustomer(ctx, id, input)
	if err != nil {
		return nil, err
	}
	if customer.UserId == nil {
		provisionOrLog(ctx, customer, models.RoleRenter, "UpdateCustomer")
	}
	return customer, nil
}

func CreateLandlord(ctx context.Context, input *models.NewLandlord) (*models.Landlord, error) {
	landlord, err := models.CreateLandlord(ctx, input)
	if err != nil {
		return nil, err
	}
	provisionOrLog(ctx, landlord, models.RoleLandlord, "CreateLandlord")
	return landlord, nil
}

func UpdateLandlord(ctx context.Context, id int, input *models.NewLandlord) (*models.Landlord, error) {
	landlord, err := models.UpdateLandlord(ctx, id, input)
	if err != nil {
		return nil, err
	}
	if landlord.UserId == nil {
		provisionOrLog(ctx, landlord, models.RoleLandlord, "UpdateLandlord")
	}
	return landlord, nil
}

// ProvisionPending links every customer and landlord still missing an
// account and returns how many were linked.
func ProvisionPending(ctx context.Context) (int, error) {
	linked := 0
	customers, err := models.GetUnlinkedCustomers(ctx)
	if err != nil {
		return 0, err
	}
	for _, c := range customers {
		if _, err := Provision(ctx, c, models.RoleRenter); err != nil {
			config.LogError(config.GetLogger(), "provisioning.go", "ProvisionPending", "Provision customer", c.ID, err)
			continue
		}
		linked++
	}

	landlords, err := models.GetUnlinkedLandlords(ctx)
	if err != nil {
		return linked, err
	}
	for _, l := range landlords {
		if _, err := Provision(ctx, l, models.RoleLandlord); err != nil {
			config.LogError(config.GetLogger(), "provisioning.go", "ProvisionPending", "Provision landlord", l.ID, err)
			continue
		}
		linked++
	}
	return linked, nil
}
