package models

import (
	"github.com/mmdatafocus/rentals_backend/config"
)

// MigrateTable creates or alters every table the back-office uses.
func MigrateTable() error {
	db := config.GetDB()

	return db.AutoMigrate(
		&Role{}, &User{},
		&Customer{}, &Landlord{}, &Address{},
		&Property{}, &Rental{},
		&Invoice{}, &Payment{},
	)
}
