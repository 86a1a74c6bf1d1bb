package utils

import (
	"errors"
	"fmt"
	"strings"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var ErrorRecordNotFound = errors.New("record not found")

// ValidationError is a caller error detected before anything is persisted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field string, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ExternalRenderError wraps a failure of the document renderer.
type ExternalRenderError struct {
	InvoiceNumber string
	Err           error
}

func (e *ExternalRenderError) Error() string {
	return fmt.Sprintf("render invoice %s: %v", e.InvoiceNumber, e.Err)
}

func (e *ExternalRenderError) Unwrap() error {
	return e.Err
}

func IsExternalRenderError(err error) bool {
	var re *ExternalRenderError
	return errors.As(err, &re)
}

// IsDuplicateKeyError reports a unique index violation from any of the
// supported drivers.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "SQLSTATE 23505")
}
