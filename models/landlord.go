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

type Landlord struct {
	ID                int          `gorm:"primary_key" json:"id"`
	FirstName         string       `gorm:"size:100;not null" json:"first_name"`
	LastName          string       `gorm:"size:100;not null" json:"last_name"`
	Email             string       `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Phone             string       `gorm:"size:20" json:"phone"`
	DateOfBirth       *time.Time   `gorm:"type:date" json:"date_of_birth"`
	CompanyName       string       `gorm:"size:255" json:"company_name"`
	BusinessType      BusinessType `gorm:"size:20;not null;default:individual" json:"business_type"`
	TaxId             string       `gorm:"size:50" json:"tax_id"`
	BankName          string       `gorm:"size:100" json:"bank_name"`
	AccountHolderName string       `gorm:"size:255" json:"account_holder_name"`
	IsVerified        bool         `gorm:"not null;default:false" json:"is_verified"`
	VerifiedAt        *time.Time   `json:"verified_at"`
	Notes             string       `gorm:"type:text" json:"notes"`
	IsActive          *bool        `gorm:"not null;default:true" json:"is_active"`
	UserId            *int         `gorm:"index" json:"user_id"`
	User              *User        `gorm:"foreignKey:UserId" json:"user,omitempty"`
	CreatedAt         time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewLandlord struct {
	FirstName         string       `json:"first_name" validate:"required,max=100"`
	LastName          string       `json:"last_name" validate:"required,max=100"`
	Email             string       `json:"email" validate:"required,email,max=100"`
	Phone             string       `json:"phone" validate:"omitempty,phone"`
	DateOfBirth       *time.Time   `json:"date_of_birth"`
	CompanyName       string       `json:"company_name" validate:"max=255"`
	BusinessType      BusinessType `json:"business_type" validate:"omitempty,oneof=individual company"`
	TaxId             string       `json:"tax_id" validate:"max=50"`
	BankName          string       `json:"bank_name" validate:"max=100"`
	AccountHolderName string       `json:"account_holder_name" validate:"max=255"`
	Notes             string       `json:"notes"`
	IsActive          *bool        `json:"is_active"`
}

func (l Landlord) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// DisplayName prefers the company name for company landlords.
func (l Landlord) DisplayName() string {
	if l.BusinessType == BusinessTypeCompany && l.CompanyName != "" {
		return l.CompanyName
	}
	return l.FullName()
}

func (l Landlord) ContactEmail() string {
	return l.Email
}

func (l Landlord) LinkedUserId() *int {
	return l.UserId
}

func (l Landlord) AddressOwner() Owner {
	return Owner{Kind: OwnerKindLandlord, ID: l.ID}
}

func (l *Landlord) LinkUserTx(tx *gorm.DB, ctx context.Context, userId int) error {
	result := tx.WithContext(ctx).Model(&Landlord{}).
		Where("id = ? AND user_id IS NULL", l.ID).
		Update("user_id", userId)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyLinked
	}
	l.UserId = &userId
	return nil
}

func (input *NewLandlord) businessType() BusinessType {
	if input.BusinessType == "" {
		return BusinessTypeIndividual
	}
	return input.BusinessType
}

func CreateLandlord(ctx context.Context, input *NewLandlord) (*Landlord, error) {
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Landlord](ctx, "email", normalizeEmail(input.Email), 0); err != nil {
		return nil, err
	}

	landlord := Landlord{
		FirstName:         input.FirstName,
		LastName:          input.LastName,
		Email:             normalizeEmail(input.Email),
		Phone:             formatPhone(input.Phone),
		DateOfBirth:       input.DateOfBirth,
		CompanyName:       input.CompanyName,
		BusinessType:      input.businessType(),
		TaxId:             input.TaxId,
		BankName:          input.BankName,
		AccountHolderName: input.AccountHolderName,
		Notes:             input.Notes,
		IsActive:          input.IsActive,
	}
	if landlord.IsActive == nil {
		landlord.IsActive = utils.NewTrue()
	}
	if err := config.GetDB().WithContext(ctx).Create(&landlord).Error; err != nil {
		return nil, err
	}
	return &landlord, nil
}

// UpdateLandlord never touches user_id or the verification stamp.
func UpdateLandlord(ctx context.Context, id int, input *NewLandlord) (*Landlord, error) {
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	landlord, err := GetLandlord(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Landlord](ctx, "email", normalizeEmail(input.Email), id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"first_name":          input.FirstName,
		"last_name":           input.LastName,
		"email":               normalizeEmail(input.Email),
		"phone":               formatPhone(input.Phone),
		"date_of_birth":       input.DateOfBirth,
		"company_name":        input.CompanyName,
		"business_type":       input.businessType(),
		"tax_id":              input.TaxId,
		"bank_name":           input.BankName,
		"account_holder_name": input.AccountHolderName,
		"notes":               input.Notes,
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if err := config.GetDB().WithContext(ctx).Model(landlord).Updates(updates).Error; err != nil {
		return nil, err
	}
	return GetLandlord(ctx, id)
}

// VerifyLandlord stamps verified_at the first time it is called.
func VerifyLandlord(ctx context.Context, id int) (*Landlord, error) {
	landlord, err := GetLandlord(ctx, id)
	if err != nil {
		return nil, err
	}
	if landlord.IsVerified {
		return landlord, nil
	}
	now := time.Now()
	err = config.GetDB().WithContext(ctx).Model(landlord).Updates(map[string]interface{}{
		"is_verified": true,
		"verified_at": now,
	}).Error
	if err != nil {
		return nil, err
	}
	landlord.IsVerified = true
	landlord.VerifiedAt = &now
	return landlord, nil
}

func GetLandlord(ctx context.Context, id int) (*Landlord, error) {
	return utils.FetchModel[Landlord](ctx, id)
}

func GetLandlordByUserId(ctx context.Context, userId int) (*Landlord, error) {
	var landlord Landlord
	err := config.GetDB().WithContext(ctx).Where("user_id = ?", userId).First(&landlord).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &landlord, nil
}

func GetUnlinkedLandlords(ctx context.Context) ([]*Landlord, error) {
	return utils.FetchModelsWhere[Landlord](ctx, "id", "user_id IS NULL")
}
