package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const DefaultCountry = "Philippines"

type Address struct {
	ID             int              `gorm:"primary_key" json:"id"`
	OwnerType      OwnerKind        `gorm:"size:50;not null;index:idx_addresses_owner" json:"owner_type"`
	OwnerID        int              `gorm:"not null;index:idx_addresses_owner" json:"owner_id"`
	Type           AddressType      `gorm:"size:20;not null;default:general" json:"type"`
	Label          string           `gorm:"size:100" json:"label"`
	StreetAddress1 string           `gorm:"size:255" json:"street_address_1"`
	StreetAddress2 string           `gorm:"size:255" json:"street_address_2"`
	City           string           `gorm:"size:100" json:"city"`
	StateProvince  string           `gorm:"size:100" json:"state_province"`
	PostalCode     string           `gorm:"size:20" json:"postal_code"`
	Country        string           `gorm:"size:100;not null;default:Philippines" json:"country"`
	Latitude       *decimal.Decimal `gorm:"type:decimal(10,8)" json:"latitude"`
	Longitude      *decimal.Decimal `gorm:"type:decimal(11,8)" json:"longitude"`
	IsPrimary      bool             `gorm:"not null;default:false" json:"is_primary"`
	IsActive       *bool            `gorm:"not null;default:true" json:"is_active"`
	Notes          string           `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAddress struct {
	Type           AddressType      `json:"type" validate:"omitempty,oneof=general home work billing shipping mailing"`
	Label          string           `json:"label" validate:"max=100"`
	StreetAddress1 string           `json:"street_address_1" validate:"required,max=255"`
	StreetAddress2 string           `json:"street_address_2" validate:"max=255"`
	City           string           `json:"city" validate:"required,max=100"`
	StateProvince  string           `json:"state_province" validate:"max=100"`
	PostalCode     string           `json:"postal_code" validate:"max=20"`
	Country        string           `json:"country" validate:"max=100"`
	Latitude       *decimal.Decimal `json:"latitude"`
	Longitude      *decimal.Decimal `json:"longitude"`
	IsPrimary      bool             `json:"is_primary"`
	IsActive       *bool            `json:"is_active"`
	Notes          string           `json:"notes"`
}

func (a Address) Owner() Owner {
	return Owner{Kind: a.OwnerType, ID: a.OwnerID}
}

func (a Address) Active() bool {
	return a.IsActive == nil || *a.IsActive
}

func mapAddressInput(input NewAddress, owner Owner) Address {
	address := Address{
		OwnerType:      owner.Kind,
		OwnerID:        owner.ID,
		Type:           input.Type,
		Label:          input.Label,
		StreetAddress1: input.StreetAddress1,
		StreetAddress2: input.StreetAddress2,
		City:           input.City,
		StateProvince:  input.StateProvince,
		PostalCode:     input.PostalCode,
		Country:        input.Country,
		Latitude:       input.Latitude,
		Longitude:      input.Longitude,
		IsPrimary:      input.IsPrimary,
		IsActive:       input.IsActive,
		Notes:          input.Notes,
	}
	if address.Type == "" {
		address.Type = AddressTypeGeneral
	}
	if strings.TrimSpace(address.Country) == "" {
		address.Country = DefaultCountry
	}
	if address.IsActive == nil {
		address.IsActive = utils.NewTrue()
	}
	return address
}

// clearSiblingPrimaries unsets is_primary on every other address of the same owner.
func clearSiblingPrimaries(tx *gorm.DB, ctx context.Context, owner Owner, exceptId int) error {
	return tx.WithContext(ctx).Model(&Address{}).
		Where("owner_type = ? AND owner_id = ? AND id <> ?", owner.Kind, owner.ID, exceptId).
		Update("is_primary", false).Error
}

// SaveAddress inserts or updates address. A primary address clears the
// primary flag of its siblings in the same transaction.
func SaveAddress(ctx context.Context, address *Address) error {
	db := config.GetDB()
	tx := db.Begin()
	if err := saveAddressTx(tx, ctx, address); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func saveAddressTx(tx *gorm.DB, ctx context.Context, address *Address) error {
	if address.IsPrimary && address.Owner().IsKnown() {
		if err := clearSiblingPrimaries(tx, ctx, address.Owner(), address.ID); err != nil {
			return err
		}
	}
	if address.ID == 0 {
		return tx.WithContext(ctx).Create(address).Error
	}
	return tx.WithContext(ctx).Save(address).Error
}

func AddAddress(ctx context.Context, owner HasAddresses, input NewAddress) (*Address, error) {
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	ownerRef := owner.AddressOwner()
	if !ownerRef.IsKnown() {
		return nil, utils.NewValidationError("owner", "must be saved before adding addresses")
	}
	address := mapAddressInput(input, ownerRef)
	if err := SaveAddress(ctx, &address); err != nil {
		return nil, err
	}
	return &address, nil
}

func fetchOwnedAddress(ctx context.Context, owner Owner, id int) (*Address, error) {
	var address Address
	err := config.GetDB().WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", owner.Kind, owner.ID).
		First(&address, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func UpdateAddress(ctx context.Context, owner HasAddresses, id int, input NewAddress) (*Address, error) {
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	ownerRef := owner.AddressOwner()
	existing, err := fetchOwnedAddress(ctx, ownerRef, id)
	if err != nil {
		return nil, err
	}
	address := mapAddressInput(input, ownerRef)
	address.ID = existing.ID
	address.CreatedAt = existing.CreatedAt
	if err := SaveAddress(ctx, &address); err != nil {
		return nil, err
	}
	return &address, nil
}

// SetPrimaryAddress makes id the only primary address of owner.
func SetPrimaryAddress(ctx context.Context, owner HasAddresses, id int) (*Address, error) {
	address, err := fetchOwnedAddress(ctx, owner.AddressOwner(), id)
	if err != nil {
		return nil, err
	}
	address.IsPrimary = true
	if err := SaveAddress(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

// DeactivateAddress is the logical delete; rows are never removed.
func DeactivateAddress(ctx context.Context, owner HasAddresses, id int) (*Address, error) {
	address, err := fetchOwnedAddress(ctx, owner.AddressOwner(), id)
	if err != nil {
		return nil, err
	}
	address.IsActive = utils.NewFalse()
	address.IsPrimary = false
	if err := config.GetDB().WithContext(ctx).Save(address).Error; err != nil {
		return nil, err
	}
	return address, nil
}

func GetAddresses(ctx context.Context, owner HasAddresses, activeOnly bool) ([]*Address, error) {
	ownerRef := owner.AddressOwner()
	dbCtx := config.GetDB().WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", ownerRef.Kind, ownerRef.ID)
	if activeOnly {
		dbCtx = dbCtx.Where("is_active = ?", true)
	}
	var addresses []*Address
	if err := dbCtx.Order("is_primary desc, id").Find(&addresses).Error; err != nil {
		return nil, err
	}
	return addresses, nil
}

func firstAddressWhere(ctx context.Context, owner Owner, query string, args ...interface{}) (*Address, error) {
	var address Address
	err := config.GetDB().WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", owner.Kind, owner.ID).
		Where(query, args...).
		Order("id").
		First(&address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// GetPrimaryAddress returns ErrorRecordNotFound when owner has no primary address.
func GetPrimaryAddress(ctx context.Context, owner HasAddresses) (*Address, error) {
	return firstAddressWhere(ctx, owner.AddressOwner(), "is_primary = ?", true)
}

func GetAddressByType(ctx context.Context, owner HasAddresses, addressType AddressType) (*Address, error) {
	return firstAddressWhere(ctx, owner.AddressOwner(), "type = ?", addressType)
}

func OwnerHasAddresses(ctx context.Context, owner HasAddresses) (bool, error) {
	ownerRef := owner.AddressOwner()
	return utils.ResourceExistsWhere[Address](ctx, "owner_type = ? AND owner_id = ?", ownerRef.Kind, ownerRef.ID)
}

func OwnerHasAddressType(ctx context.Context, owner HasAddresses, addressType AddressType) (bool, error) {
	ownerRef := owner.AddressOwner()
	return utils.ResourceExistsWhere[Address](ctx, "owner_type = ? AND owner_id = ? AND type = ?", ownerRef.Kind, ownerRef.ID, addressType)
}

// GetFormattedAddress formats the owner's primary address (which = "primary")
// or its first address of type which. ok is false when there is none.
func GetFormattedAddress(ctx context.Context, owner HasAddresses, which string, style AddressFormat) (formatted string, ok bool, err error) {
	var address *Address
	if which == "" || which == "primary" {
		address, err = GetPrimaryAddress(ctx, owner)
	} else {
		address, err = GetAddressByType(ctx, owner, AddressType(which))
	}
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return address.FormattedAddress(style), true, nil
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (a Address) foreignCountry() string {
	if strings.TrimSpace(a.Country) == DefaultCountry {
		return ""
	}
	return a.Country
}

// FormattedAddress renders the address in style. Unknown styles render full.
func (a Address) FormattedAddress(style AddressFormat) string {
	switch style {
	case AddressFormatShort:
		return strings.Join(nonEmpty(a.City, a.StateProvince, a.foreignCountry()), ", ")
	case AddressFormatSingleLine:
		return strings.Join(nonEmpty(
			a.StreetAddress1, a.StreetAddress2, a.City, a.StateProvince, a.PostalCode, a.foreignCountry(),
		), ", ")
	}
	lines := nonEmpty(a.Label, a.StreetAddress1, a.StreetAddress2)
	if cityLine := strings.Join(nonEmpty(a.City, a.StateProvince, a.PostalCode), ", "); cityLine != "" {
		lines = append(lines, cityLine)
	}
	lines = append(lines, nonEmpty(a.Country)...)
	return strings.Join(lines, "\n")
}

func (a Address) DisplayName() string {
	if a.Label != "" {
		return a.Label + " (" + string(a.Type) + ")"
	}
	return utils.UppercaseFirst(string(a.Type)) + " Address"
}

// Coordinates returns ok=false unless both latitude and longitude are set.
func (a Address) Coordinates() (lat float64, lng float64, ok bool) {
	if a.Latitude == nil || a.Longitude == nil {
		return 0, 0, false
	}
	return a.Latitude.InexactFloat64(), a.Longitude.InexactFloat64(), true
}
