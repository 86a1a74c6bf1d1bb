package utils

import (
	"os"

	"golang.org/x/crypto/bcrypt"
)

const fallbackUserPassword = "password"

func HashPassword(s string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
}

func ComparePassword(hashed string, normal string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(normal))
}

// DefaultUserPassword is the initial password of auto-provisioned accounts.
func DefaultUserPassword() string {
	if v := os.Getenv("DEFAULT_USER_PASSWORD"); v != "" {
		return v
	}
	return fallbackUserPassword
}
