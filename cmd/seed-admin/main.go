// seed-admin creates or updates the back-office admin user and makes sure the
// Admin role is attached.
//
// Usage (from backend directory):
//
//	DB_DRIVER=mysql DB_USER=... DB_PASSWORD=... DB_HOST=... DB_NAME=... \
//	  go run ./cmd/seed-admin -email admin@example.com -password secret123
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/utils"
)

func main() {
	email := flag.String("email", "admin@rentals.local", "Admin email")
	password := flag.String("password", "", "Required: admin password (min 6 chars)")
	name := flag.String("name", "Back Office Admin", "Admin display name")
	flag.Parse()

	if strings.TrimSpace(*password) == "" {
		fmt.Fprintln(os.Stderr, "--password is required")
		os.Exit(1)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	if err := models.SeedRoles(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed roles: %v\n", err)
		os.Exit(1)
	}

	ctx = utils.SetUserNameInContext(ctx, "Seed")
	ctx = utils.SetIsAdminInContext(ctx, true)

	user, err := models.GetUserByEmail(ctx, *email)
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		user, err = models.CreateUser(ctx, &models.NewUser{
			Name:          *name,
			Email:         *email,
			Password:      *password,
			EmailVerified: true,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created admin user: email=%q\n", user.Email)
	case err != nil:
		fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
		os.Exit(1)
	default:
		if err := models.SetUserPassword(ctx, user.ID, *password); err != nil {
			fmt.Fprintf(os.Stderr, "failed to update admin password: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated admin user: email=%q\n", user.Email)
	}

	if err := user.AssignRole(ctx, models.RoleAdmin); err != nil {
		fmt.Fprintf(os.Stderr, "failed to assign admin role: %v\n", err)
		os.Exit(1)
	}
}
