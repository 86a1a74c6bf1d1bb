package models

import (
	"context"
	"errors"
	"strings"

	"github.com/mmdatafocus/rentals_backend/utils"
)

// OwnerKind discriminates polymorphic references. Values are the owner's
// table name and are stored verbatim in *_type columns.
type OwnerKind string

const (
	OwnerKindCustomer OwnerKind = "customers"
	OwnerKindLandlord OwnerKind = "landlords"
	OwnerKindUser     OwnerKind = "users"
	OwnerKindRental   OwnerKind = "rentals"
	// events only; invoices own nothing
	OwnerKindInvoice OwnerKind = "invoices"
)

var ErrUnknownOwnerKind = errors.New("unknown owner kind")

// Owner identifies the row a polymorphic record belongs to.
type Owner struct {
	Kind OwnerKind `json:"kind"`
	ID   int       `json:"id"`
}

func (o Owner) IsKnown() bool {
	return o.Kind != "" && o.ID > 0
}

// HasAddresses is implemented by every entity that can own addresses.
type HasAddresses interface {
	AddressOwner() Owner
}

// Billable is implemented by every entity that can own invoices.
type Billable interface {
	BillableOwner() Owner
}

type ownerLoader func(ctx context.Context, id int) (any, error)

func loaderFor[T any]() ownerLoader {
	return func(ctx context.Context, id int) (any, error) {
		return utils.FetchModel[T](ctx, id)
	}
}

var ownerLoaders = map[OwnerKind]ownerLoader{
	OwnerKindCustomer: loaderFor[Customer](),
	OwnerKindLandlord: loaderFor[Landlord](),
	OwnerKindUser:     loaderFor[User](),
	OwnerKindRental:   loaderFor[Rental](),
}

var ownerLabels = map[OwnerKind]string{
	OwnerKindCustomer: "Customer",
	OwnerKindLandlord: "Landlord",
	OwnerKindUser:     "User",
	OwnerKindRental:   "Rental",
}

// ParseOwnerKind accepts the singular or plural, any casing.
func ParseOwnerKind(s string) (OwnerKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasSuffix(s, "s") {
		s += "s"
	}
	kind := OwnerKind(s)
	if _, ok := ownerLoaders[kind]; !ok {
		return "", ErrUnknownOwnerKind
	}
	return kind, nil
}

func (k OwnerKind) Label() string {
	if label, ok := ownerLabels[k]; ok {
		return label
	}
	return string(k)
}

// LoadOwner fetches the entity behind owner. It returns ErrorRecordNotFound
// when the row is missing.
func LoadOwner(ctx context.Context, owner Owner) (any, error) {
	loader, ok := ownerLoaders[owner.Kind]
	if !ok {
		return nil, ErrUnknownOwnerKind
	}
	return loader(ctx, owner.ID)
}

// OwnerExists reports whether the row behind owner is present.
func OwnerExists(ctx context.Context, owner Owner) (bool, error) {
	if !owner.IsKnown() {
		return false, nil
	}
	_, err := LoadOwner(ctx, owner)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}
