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

type Customer struct {
	ID          int        `gorm:"primary_key" json:"id"`
	FirstName   string     `gorm:"size:100;not null" json:"first_name"`
	LastName    string     `gorm:"size:100;not null" json:"last_name"`
	Email       string     `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Phone       string     `gorm:"size:20" json:"phone"`
	DateOfBirth *time.Time `gorm:"type:date" json:"date_of_birth"`
	Notes       string     `gorm:"type:text" json:"notes"`
	IsActive    *bool      `gorm:"not null;default:true" json:"is_active"`
	UserId      *int       `gorm:"index" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserId" json:"user,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	FirstName   string     `json:"first_name" validate:"required,max=100"`
	LastName    string     `json:"last_name" validate:"required,max=100"`
	Email       string     `json:"email" validate:"required,email,max=100"`
	Phone       string     `json:"phone" validate:"omitempty,phone"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Notes       string     `json:"notes"`
	IsActive    *bool      `json:"is_active"`
}

func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func (c Customer) ContactEmail() string {
	return c.Email
}

func (c Customer) LinkedUserId() *int {
	return c.UserId
}

func (c Customer) AddressOwner() Owner {
	return Owner{Kind: OwnerKindCustomer, ID: c.ID}
}

func (c Customer) BillableOwner() Owner {
	return c.AddressOwner()
}

func (c *Customer) LinkUserTx(tx *gorm.DB, ctx context.Context, userId int) error {
	result := tx.WithContext(ctx).Model(&Customer{}).
		Where("id = ? AND user_id IS NULL", c.ID).
		Update("user_id", userId)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyLinked
	}
	c.UserId = &userId
	return nil
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Customer](ctx, "email", normalizeEmail(input.Email), 0); err != nil {
		return nil, err
	}

	customer := Customer{
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       normalizeEmail(input.Email),
		Phone:       formatPhone(input.Phone),
		DateOfBirth: input.DateOfBirth,
		Notes:       input.Notes,
		IsActive:    input.IsActive,
	}
	if customer.IsActive == nil {
		customer.IsActive = utils.NewTrue()
	}
	if err := config.GetDB().WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// UpdateCustomer never touches user_id.
func UpdateCustomer(ctx context.Context, id int, input *NewCustomer) (*Customer, error) {
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	customer, err := GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Customer](ctx, "email", normalizeEmail(input.Email), id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"first_name":    input.FirstName,
		"last_name":     input.LastName,
		"email":         normalizeEmail(input.Email),
		"phone":         formatPhone(input.Phone),
		"date_of_birth": input.DateOfBirth,
		"notes":         input.Notes,
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if err := config.GetDB().WithContext(ctx).Model(customer).Updates(updates).Error; err != nil {
		return nil, err
	}
	return GetCustomer(ctx, id)
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	return utils.FetchModel[Customer](ctx, id)
}

func GetCustomerByUserId(ctx context.Context, userId int) (*Customer, error) {
	var customer Customer
	err := config.GetDB().WithContext(ctx).Where("user_id = ?", userId).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetUnlinkedCustomers lists customers still waiting for an account.
func GetUnlinkedCustomers(ctx context.Context) ([]*Customer, error) {
	return utils.FetchModelsWhere[Customer](ctx, "id", "user_id IS NULL")
}

func formatPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	return utils.FormatPhoneNumber(phone, utils.CountryCode)
}
