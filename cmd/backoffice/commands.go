package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/mmdatafocus/rentals_backend/workflow"
	"github.com/spf13/cobra"
)

func connect() (context.Context, error) {
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		return nil, fmt.Errorf("database not initialized (config.GetDB returned nil). Set DB_* env vars")
	}
	ctx := utils.SetUserNameInContext(context.Background(), "backoffice-cli")
	return utils.SetCorrelationIdInContext(ctx, ""), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and seed the default roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := connect()
			if err != nil {
				return err
			}
			if err := models.MigrateTable(); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if err := models.SeedRoles(ctx); err != nil {
				return fmt.Errorf("seed roles: %w", err)
			}
			fmt.Println("Schema migrated and roles seeded.")
			return nil
		},
	}
}

func provisionPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "provision-pending",
		Short: "Create login accounts for customers and landlords that have none",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := connect()
			if err != nil {
				return err
			}
			n, err := workflow.ProvisionPending(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Provisioned %d account(s).\n", n)
			return nil
		},
	}
}

func quoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a rental without touching the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			startRaw, _ := cmd.Flags().GetString("start")
			endRaw, _ := cmd.Flags().GetString("end")
			rentRaw, _ := cmd.Flags().GetString("rent")
			depositRaw, _ := cmd.Flags().GetString("deposit")
			frequency, _ := cmd.Flags().GetString("frequency")

			start, err := time.Parse(time.DateOnly, startRaw)
			if err != nil {
				return fmt.Errorf("--start must be YYYY-MM-DD")
			}
			var end *time.Time
			if endRaw != "" {
				parsed, err := time.Parse(time.DateOnly, endRaw)
				if err != nil {
					return fmt.Errorf("--end must be YYYY-MM-DD")
				}
				end = &parsed
			}
			rent, err := utils.ParseDecimal(rentRaw)
			if err != nil {
				return fmt.Errorf("invalid --rent: %w", err)
			}
			deposit, err := utils.ParseDecimal(depositRaw)
			if err != nil {
				return fmt.Errorf("invalid --deposit: %w", err)
			}
			return printJSON(workflow.QuoteRental(start, end, rent, deposit, frequency))
		},
	}
	cmd.Flags().String("start", "", "Rental start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "Rental end date (YYYY-MM-DD)")
	cmd.Flags().String("rent", "0", "Rent amount per period")
	cmd.Flags().String("deposit", "0", "Security deposit")
	cmd.Flags().String("frequency", utils.FrequencyMonthly, "daily, weekly, monthly or yearly")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func generateInvoiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate-invoice",
		Short: "Generate an invoice for a rental",
		RunE: func(cmd *cobra.Command, args []string) error {
			rentalId, _ := cmd.Flags().GetInt("rental")
			deposit, _ := cmd.Flags().GetBool("include-deposit")
			skipPdf, _ := cmd.Flags().GetBool("skip-pdf")
			ctx, err := connect()
			if err != nil {
				return err
			}
			invoice, err := workflow.GenerateForRental(ctx, rentalId, workflow.InvoiceOptions{
				IncludeSecurityDeposit: deposit,
				SkipPdf:                skipPdf,
			})
			if err != nil && invoice == nil {
				return err
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "invoice saved but document rendering failed: %v\n", err)
			}
			return printJSON(invoice)
		},
	}
	cmd.Flags().Int("rental", 0, "Rental id")
	cmd.Flags().Bool("include-deposit", false, "Add the security deposit as a line item")
	cmd.Flags().Bool("skip-pdf", false, "Do not render the invoice document")
	_ = cmd.MarkFlagRequired("rental")
	return cmd
}

func regeneratePdfCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regenerate-pdf",
		Short: "Render an invoice document again and store its path",
		RunE: func(cmd *cobra.Command, args []string) error {
			invoiceId, _ := cmd.Flags().GetInt("invoice")
			ctx, err := connect()
			if err != nil {
				return err
			}
			path, err := workflow.GeneratePdf(ctx, invoiceId)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
	cmd.Flags().Int("invoice", 0, "Invoice id")
	_ = cmd.MarkFlagRequired("invoice")
	return cmd
}

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute an invoice payment status from its settled payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			invoiceId, _ := cmd.Flags().GetInt("invoice")
			ctx, err := connect()
			if err != nil {
				return err
			}
			invoice, err := workflow.ReconcileInvoice(ctx, invoiceId)
			if err != nil {
				return err
			}
			balance, err := workflow.GetInvoiceBalance(ctx, invoice.ID)
			if err != nil {
				return err
			}
			return printJSON(balance)
		},
	}
	cmd.Flags().Int("invoice", 0, "Invoice id")
	_ = cmd.MarkFlagRequired("invoice")
	return cmd
}

func sweepOverdueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep-overdue",
		Short: "Mark past-due unpaid invoices as overdue",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			ctx, err := connect()
			if err != nil {
				return err
			}
			swept, err := workflow.SweepOverdueInvoices(ctx, time.Now(), limit)
			if err != nil {
				return err
			}
			fmt.Printf("%d invoice(s) marked overdue\n", swept)
			return nil
		},
	}
	cmd.Flags().Int("limit", 500, "Maximum invoices to check")
	return cmd
}

func issueTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Issue an API bearer token for a back-office user",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			ctx, err := connect()
			if err != nil {
				return err
			}
			user, err := models.GetUserByEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("lookup %s: %w", email, err)
			}
			admin, err := user.HasRole(ctx, models.RoleAdmin)
			if err != nil {
				return err
			}
			token, err := utils.JwtGenerate(user.ID, user.Name, admin)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().String("email", "", "User email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
