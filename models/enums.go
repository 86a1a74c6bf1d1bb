package models

import (
	"errors"
	"strings"
)

type RoleName string

const (
	RoleRenter   RoleName = "Renter"
	RoleLandlord RoleName = "Landlord"
	RoleAdmin    RoleName = "Admin"
	RoleEmployee RoleName = "Employee"
)

// DefaultDescription is used when the role is created on first need.
func (r RoleName) DefaultDescription() string {
	switch r {
	case RoleRenter:
		return "Customer with rental access to the system"
	case RoleLandlord:
		return "Property owner with landlord access to the system"
	case RoleAdmin:
		return "Administrator with full access to the system"
	case RoleEmployee:
		return "Staff member with back-office access"
	}
	return string(r) + " role"
}

// PaymentStatus values are stored lowercase. Older rows may carry
// "Overdue"; ParsePaymentStatus folds any casing to the canonical value.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusUnpaid    PaymentStatus = "unpaid"
	PaymentStatusPartial   PaymentStatus = "partial"
	PaymentStatusOverdue   PaymentStatus = "overdue"
)

var paymentStatuses = []PaymentStatus{
	PaymentStatusPending, PaymentStatusPaid, PaymentStatusCancelled,
	PaymentStatusUnpaid, PaymentStatusPartial, PaymentStatusOverdue,
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	normalized := PaymentStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, status := range paymentStatuses {
		if status == normalized {
			return status, nil
		}
	}
	return "", errors.New("invalid payment status")
}

func (s PaymentStatus) IsValid() bool {
	_, err := ParsePaymentStatus(string(s))
	return err == nil
}

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodGcash        PaymentMethod = "gcash"
	PaymentMethodPaypal       PaymentMethod = "paypal"
	PaymentMethodPayMaya      PaymentMethod = "paymaya"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCreditCard,
		PaymentMethodGcash, PaymentMethodPaypal, PaymentMethodPayMaya:
		return true
	}
	return false
}

// PaymentRecordStatus is the lifecycle of a single Payment row.
type PaymentRecordStatus string

const (
	PaymentRecordStatusPending   PaymentRecordStatus = "pending"
	PaymentRecordStatusPaid      PaymentRecordStatus = "paid"
	PaymentRecordStatusConfirmed PaymentRecordStatus = "confirmed"
	PaymentRecordStatusFailed    PaymentRecordStatus = "failed"
	PaymentRecordStatusRefunded  PaymentRecordStatus = "refunded"
)

// Settled reports whether the payment counts towards an invoice balance.
func (s PaymentRecordStatus) Settled() bool {
	return s == PaymentRecordStatusPaid || s == PaymentRecordStatusConfirmed
}

type RentalStatus string

const (
	RentalStatusPending    RentalStatus = "pending"
	RentalStatusActive     RentalStatus = "active"
	RentalStatusCompleted  RentalStatus = "completed"
	RentalStatusCancelled  RentalStatus = "cancelled"
	RentalStatusTerminated RentalStatus = "terminated"
)

func (s RentalStatus) IsTerminal() bool {
	return s == RentalStatusCompleted || s == RentalStatusCancelled || s == RentalStatusTerminated
}

type PaymentFrequency string

const (
	PaymentFrequencyDaily   PaymentFrequency = "daily"
	PaymentFrequencyWeekly  PaymentFrequency = "weekly"
	PaymentFrequencyMonthly PaymentFrequency = "monthly"
	PaymentFrequencyYearly  PaymentFrequency = "yearly"
)

type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

type AddressType string

const (
	AddressTypeGeneral  AddressType = "general"
	AddressTypeHome     AddressType = "home"
	AddressTypeWork     AddressType = "work"
	AddressTypeBilling  AddressType = "billing"
	AddressTypeShipping AddressType = "shipping"
	AddressTypeMailing  AddressType = "mailing"
)

type AddressFormat string

const (
	AddressFormatFull       AddressFormat = "full"
	AddressFormatShort      AddressFormat = "short"
	AddressFormatSingleLine AddressFormat = "single_line"
)

type BusinessType string

const (
	BusinessTypeIndividual BusinessType = "individual"
	BusinessTypeCompany    BusinessType = "company"
)

type PropertyStatus string

const (
	PropertyStatusAvailable   PropertyStatus = "available"
	PropertyStatusRented      PropertyStatus = "rented"
	PropertyStatusMaintenance PropertyStatus = "maintenance"
	PropertyStatusInactive    PropertyStatus = "inactive"
)
