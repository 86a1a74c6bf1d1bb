package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/utils"
	"gorm.io/gorm"
)

type Role struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        RoleName  `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// FindOrCreateRole returns the role called name, creating it with the
// role's default description when missing.
func FindOrCreateRole(ctx context.Context, name RoleName) (*Role, error) {
	return findOrCreateRoleTx(config.GetDB(), ctx, name)
}

func findOrCreateRoleTx(tx *gorm.DB, ctx context.Context, name RoleName) (*Role, error) {
	var role Role
	err := tx.WithContext(ctx).
		Where(Role{Name: name}).
		Attrs(Role{Description: name.DefaultDescription()}).
		FirstOrCreate(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func GetRoleByName(ctx context.Context, name RoleName) (*Role, error) {
	return getRoleByNameTx(config.GetDB(), ctx, name)
}

func getRoleByNameTx(tx *gorm.DB, ctx context.Context, name RoleName) (*Role, error) {
	var role Role
	err := tx.WithContext(ctx).Where("name = ?", name).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// GetRoles reads through the redis cache when one is connected.
func GetRoles(ctx context.Context) ([]*Role, error) {
	cached, err := utils.RetrieveRedisList[Role]()
	if err != nil {
		config.LogError(config.GetLogger(), "role.go", "GetRoles", "RetrieveRedisList", nil, err)
	}
	if cached != nil {
		return cached, nil
	}

	var roles []*Role
	if err := config.GetDB().WithContext(ctx).Order("name").Find(&roles).Error; err != nil {
		return nil, err
	}
	if err := utils.StoreRedisList(roles); err != nil {
		config.LogError(config.GetLogger(), "role.go", "GetRoles", "StoreRedisList", nil, err)
	}
	return roles, nil
}

// SeedRoles makes sure every built-in role exists.
func SeedRoles(ctx context.Context) error {
	for _, name := range []RoleName{RoleAdmin, RoleEmployee, RoleLandlord, RoleRenter} {
		if _, err := FindOrCreateRole(ctx, name); err != nil {
			return err
		}
	}
	return utils.RemoveRedisList[Role]()
}
