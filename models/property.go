package models

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
)

type Property struct {
	ID              int              `gorm:"primary_key" json:"id"`
	Title           string           `gorm:"size:255;not null" json:"title"`
	Slug            string           `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Description     string           `gorm:"type:text" json:"description"`
	Type            string           `gorm:"size:50" json:"type"`
	Status          PropertyStatus   `gorm:"size:20;not null;default:available" json:"status"`
	RentAmount      decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"rent_amount"`
	RentPeriod      PaymentFrequency `gorm:"size:20;not null;default:monthly" json:"rent_period"`
	SecurityDeposit decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"security_deposit"`
	LandlordId      int              `gorm:"index;not null" json:"landlord_id"`
	Landlord        *Landlord        `gorm:"foreignKey:LandlordId" json:"landlord,omitempty"`
	CreatedAt       time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProperty struct {
	Title           string           `json:"title" validate:"required,max=255"`
	Description     string           `json:"description"`
	Type            string           `json:"type" validate:"max=50"`
	Status          PropertyStatus   `json:"status" validate:"omitempty,oneof=available rented maintenance inactive"`
	RentAmount      decimal.Decimal  `json:"rent_amount"`
	RentPeriod      PaymentFrequency `json:"rent_period" validate:"omitempty,oneof=daily weekly monthly yearly"`
	SecurityDeposit decimal.Decimal  `json:"security_deposit"`
	LandlordId      int              `json:"landlord_id" validate:"required"`
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	return strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

func uniquePropertySlug(ctx context.Context, title string) (string, error) {
	slug := slugify(title)
	if slug == "" {
		slug = "property"
	}
	exists, err := utils.ResourceExistsWhere[Property](ctx, "slug = ?", slug)
	if err != nil || !exists {
		return slug, err
	}
	return slug + "-" + strings.Split(uuid.NewString(), "-")[0], nil
}

func CreateProperty(ctx context.Context, input *NewProperty) (*Property, error) {
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	if input.RentAmount.IsNegative() {
		return nil, utils.NewValidationError("rent_amount", "must not be negative")
	}
	if err := utils.ValidateResourceId[Landlord](ctx, input.LandlordId); err != nil {
		return nil, utils.NewValidationError("landlord_id", "landlord not found")
	}
	slug, err := uniquePropertySlug(ctx, input.Title)
	if err != nil {
		return nil, err
	}

	property := Property{
		Title:           input.Title,
		Slug:            slug,
		Description:     input.Description,
		Type:            input.Type,
		Status:          input.Status,
		RentAmount:      input.RentAmount,
		RentPeriod:      input.RentPeriod,
		SecurityDeposit: input.SecurityDeposit,
		LandlordId:      input.LandlordId,
	}
	if property.Status == "" {
		property.Status = PropertyStatusAvailable
	}
	if property.RentPeriod == "" {
		property.RentPeriod = PaymentFrequencyMonthly
	}
	if err := config.GetDB().WithContext(ctx).Create(&property).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

func GetProperty(ctx context.Context, id int) (*Property, error) {
	return utils.FetchModel[Property](ctx, id)
}
