package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/utils"
	"gorm.io/gorm"
)

type User struct {
	ID              int        `gorm:"primary_key" json:"id"`
	Name            string     `gorm:"size:100;not null" json:"name"`
	Email           string     `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Password        string     `gorm:"size:255;not null" json:"-"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	Roles           []*Role    `gorm:"many2many:user_roles" json:"roles,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Name          string `json:"name" validate:"required,max=100"`
	Email         string `json:"email" validate:"required,email,max=100"`
	Password      string `json:"password" validate:"required,min=6"`
	EmailVerified bool   `json:"email_verified"`
}

// Provisionable is a person record that can be linked to a login account.
type Provisionable interface {
	HasAddresses
	FullName() string
	ContactEmail() string
	LinkedUserId() *int
	// LinkUserTx sets user_id only while it is still null.
	LinkUserTx(tx *gorm.DB, ctx context.Context, userId int) error
}

// ErrAlreadyLinked is returned by LinkUserTx when user_id is already set.
var ErrAlreadyLinked = errors.New("record is already linked to a user")

// CreateUserTx is CreateUser on an explicit handle, without validation.
func CreateUserTx(tx *gorm.DB, ctx context.Context, input *NewUser) (*User, error) {
	return createUserTx(tx, ctx, input)
}

func GetUserByEmailTx(tx *gorm.DB, ctx context.Context, email string) (*User, error) {
	return getUserByEmailTx(tx, ctx, email)
}

// EnsureRoleTx finds or creates role and attaches it to u when missing.
func (u *User) EnsureRoleTx(tx *gorm.DB, ctx context.Context, role RoleName) error {
	if _, err := findOrCreateRoleTx(tx, ctx, role); err != nil {
		return err
	}
	return u.assignRoleTx(tx, ctx, role)
}

func (u User) AddressOwner() Owner {
	return Owner{Kind: OwnerKindUser, ID: u.ID}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[User](ctx, "email", normalizeEmail(input.Email), 0); err != nil {
		return nil, err
	}
	return createUserTx(config.GetDB(), ctx, input)
}

func createUserTx(tx *gorm.DB, ctx context.Context, input *NewUser) (*User, error) {
	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := User{
		Name:     input.Name,
		Email:    normalizeEmail(input.Email),
		Password: string(hashed),
	}
	if input.EmailVerified {
		user.EmailVerifiedAt = utils.NewTime(time.Now())
	}
	if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
		if utils.IsDuplicateKeyError(err) {
			return nil, utils.NewValidationError("email", "has already been taken")
		}
		return nil, err
	}
	return &user, nil
}

func GetUser(ctx context.Context, id int) (*User, error) {
	return utils.FetchModel[User](ctx, id, "Roles")
}

// GetUserByEmail matches the email exactly. Returns ErrorRecordNotFound when absent.
func GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return getUserByEmailTx(config.GetDB(), ctx, email)
}

func getUserByEmailTx(tx *gorm.DB, ctx context.Context, email string) (*User, error) {
	var user User
	err := tx.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetUserPassword replaces the stored hash.
func SetUserPassword(ctx context.Context, userId int, password string) error {
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	return config.GetDB().WithContext(ctx).Model(&User{}).
		Where("id = ?", userId).
		Update("password", string(hashed)).Error
}

/* roles */

func (u User) HasRole(ctx context.Context, role RoleName) (bool, error) {
	return u.HasAnyRole(ctx, role)
}

func (u User) hasAnyRoleTx(tx *gorm.DB, ctx context.Context, roles ...RoleName) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}
	var count int64
	err := tx.WithContext(ctx).Table("user_roles").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ? AND roles.name IN ?", u.ID, roles).
		Count(&count).Error
	return count > 0, err
}

func (u User) HasAnyRole(ctx context.Context, roles ...RoleName) (bool, error) {
	return u.hasAnyRoleTx(config.GetDB(), ctx, roles...)
}

// AssignRole attaches an existing role. It is a no-op when the role row
// does not exist or is already attached.
func (u *User) AssignRole(ctx context.Context, role RoleName) error {
	return u.assignRoleTx(config.GetDB(), ctx, role)
}

func (u *User) assignRoleTx(tx *gorm.DB, ctx context.Context, role RoleName) error {
	roleModel, err := getRoleByNameTx(tx, ctx, role)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	has, err := u.hasAnyRoleTx(tx, ctx, role)
	if err != nil || has {
		return err
	}
	return tx.WithContext(ctx).Model(u).Association("Roles").Append(roleModel)
}

func (u *User) RemoveRole(ctx context.Context, role RoleName) error {
	roleModel, err := GetRoleByName(ctx, role)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return config.GetDB().WithContext(ctx).Model(u).Association("Roles").Delete(roleModel)
}

// PrimaryRoleName prioritises Landlord > Renter > Employee > Admin.
// ok is false when the user has none of them.
func (u User) PrimaryRoleName(ctx context.Context) (name RoleName, ok bool, err error) {
	for _, role := range []RoleName{RoleLandlord, RoleRenter, RoleEmployee, RoleAdmin} {
		has, err := u.HasRole(ctx, role)
		if err != nil {
			return "", false, err
		}
		if has {
			return role, true, nil
		}
	}
	return "", false, nil
}

/* role based profile */

// GetRoleBasedProfile returns the Customer of a Renter or the Landlord of a
// Landlord. It returns nil when the user has neither profile.
func (u User) GetRoleBasedProfile(ctx context.Context) (HasAddresses, error) {
	isRenter, err := u.HasRole(ctx, RoleRenter)
	if err != nil {
		return nil, err
	}
	if isRenter {
		customer, err := GetCustomerByUserId(ctx, u.ID)
		if err == nil {
			return customer, nil
		}
		if !errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, err
		}
	}

	isLandlord, err := u.HasRole(ctx, RoleLandlord)
	if err != nil {
		return nil, err
	}
	if isLandlord {
		landlord, err := GetLandlordByUserId(ctx, u.ID)
		if err == nil {
			return landlord, nil
		}
		if !errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

// GetRoleBasedFormattedAddress formats the address of the user's role
// profile, falling back to the user's own addresses.
func (u User) GetRoleBasedFormattedAddress(ctx context.Context, which string, style AddressFormat) (string, bool, error) {
	profile, err := u.GetRoleBasedProfile(ctx)
	if err != nil {
		return "", false, err
	}
	if profile != nil {
		return GetFormattedAddress(ctx, profile, which, style)
	}
	return GetFormattedAddress(ctx, u, which, style)
}
