package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/rentals_backend/middlewares"
	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/mmdatafocus/rentals_backend/workflow"
)

func registerRoutes(r *gin.Engine) {
	r.GET("/roles", listRolesHandler())

	r.POST("/customers", createCustomerHandler())
	r.PUT("/customers/:id", updateCustomerHandler())
	r.POST("/landlords", createLandlordHandler())
	r.PUT("/landlords/:id", updateLandlordHandler())

	for _, kind := range []models.OwnerKind{models.OwnerKindCustomer, models.OwnerKindLandlord, models.OwnerKindUser} {
		base := "/" + string(kind) + "/:id/addresses"
		r.GET(base, listAddressesHandler(kind))
		r.POST(base, addAddressHandler(kind))
		r.PUT(base+"/:addressId", updateAddressHandler(kind))
		r.POST(base+"/:addressId/primary", setPrimaryAddressHandler(kind))
		r.DELETE(base+"/:addressId", deactivateAddressHandler(kind))
	}

	r.GET("/rentals/quote", quoteRentalHandler())
	r.POST("/rentals", createRentalHandler())
	r.PUT("/rentals/:id", updateRentalHandler())
	r.POST("/rentals/:id/approve", middlewares.RequireUser(), approveRentalHandler())
	r.POST("/rentals/:id/complete", closeRentalHandler(workflow.CompleteRental))
	r.POST("/rentals/:id/cancel", closeRentalHandler(workflow.CancelRental))
	r.POST("/rentals/:id/terminate", terminateRentalHandler())
	r.POST("/rentals/:id/invoices", generateRentalInvoiceHandler())
	r.GET("/rentals/:id/invoices", listRentalInvoicesHandler())

	r.POST("/invoices/:id/pdf", regeneratePdfHandler())
	r.GET("/invoices/:id/pdf", invoiceDownloadHandler())
	r.GET("/invoices/:id/balance", invoiceBalanceHandler())
	r.POST("/invoices/:id/payments", recordPaymentHandler())
	r.POST("/invoices/:id/reconcile", reconcileInvoiceHandler())

	r.POST("/payments/:id/paid", paymentStatusHandler(workflow.MarkPaid))
	r.POST("/payments/:id/confirm", paymentStatusHandler(workflow.MarkConfirmed))
	r.POST("/payments/:id/failed", paymentStatusHandler(workflow.MarkFailed))
	r.POST("/payments/:id/refunded", paymentStatusHandler(workflow.MarkRefunded))
	r.POST("/payments/:id/receipt", uploadReceiptHandler())
}

// respondError maps the error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	var validationErr *utils.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message, "field": validationErr.Field})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case utils.IsExternalRenderError(err):
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func paramId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return false
	}
	return true
}

/* customers & landlords */

func listRolesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, err := models.GetRoles(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, roles)
	}
}

func createCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCustomer
		if !bindJSON(c, &input) {
			return
		}
		customer, err := workflow.CreateCustomer(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, customer)
	}
}

func updateCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		var input models.NewCustomer
		if !bindJSON(c, &input) {
			return
		}
		customer, err := workflow.UpdateCustomer(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func createLandlordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewLandlord
		if !bindJSON(c, &input) {
			return
		}
		landlord, err := workflow.CreateLandlord(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, landlord)
	}
}

func updateLandlordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		var input models.NewLandlord
		if !bindJSON(c, &input) {
			return
		}
		landlord, err := workflow.UpdateLandlord(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, landlord)
	}
}

/* addresses */

func loadAddressOwner(c *gin.Context, kind models.OwnerKind) (models.HasAddresses, bool) {
	id, ok := paramId(c, "id")
	if !ok {
		return nil, false
	}
	entity, err := models.LoadOwner(c.Request.Context(), models.Owner{Kind: kind, ID: id})
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	owner, ok := entity.(models.HasAddresses)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": kind.Label() + " cannot own addresses"})
		return nil, false
	}
	return owner, true
}

func listAddressesHandler(kind models.OwnerKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := loadAddressOwner(c, kind)
		if !ok {
			return
		}
		activeOnly := c.DefaultQuery("active", "true") == "true"
		addresses, err := models.GetAddresses(c.Request.Context(), owner, activeOnly)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, addresses)
	}
}

func addAddressHandler(kind models.OwnerKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := loadAddressOwner(c, kind)
		if !ok {
			return
		}
		var input models.NewAddress
		if !bindJSON(c, &input) {
			return
		}
		address, err := models.AddAddress(c.Request.Context(), owner, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, address)
	}
}

func updateAddressHandler(kind models.OwnerKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := loadAddressOwner(c, kind)
		if !ok {
			return
		}
		addressId, ok := paramId(c, "addressId")
		if !ok {
			return
		}
		var input models.NewAddress
		if !bindJSON(c, &input) {
			return
		}
		address, err := models.UpdateAddress(c.Request.Context(), owner, addressId, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, address)
	}
}

func setPrimaryAddressHandler(kind models.OwnerKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := loadAddressOwner(c, kind)
		if !ok {
			return
		}
		addressId, ok := paramId(c, "addressId")
		if !ok {
			return
		}
		address, err := models.SetPrimaryAddress(c.Request.Context(), owner, addressId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, address)
	}
}

func deactivateAddressHandler(kind models.OwnerKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := loadAddressOwner(c, kind)
		if !ok {
			return
		}
		addressId, ok := paramId(c, "addressId")
		if !ok {
			return
		}
		address, err := models.DeactivateAddress(c.Request.Context(), owner, addressId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, address)
	}
}

/* rentals */

func quoteRentalHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start, err := time.Parse(time.DateOnly, c.Query("start"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
			return
		}
		var end *time.Time
		if raw := c.Query("end"); raw != "" {
			parsed, err := time.Parse(time.DateOnly, raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
				return
			}
			end = &parsed
		}
		rent, err := utils.ParseDecimal(c.DefaultQuery("rent", "0"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rent"})
			return
		}
		deposit, err := utils.ParseDecimal(c.DefaultQuery("deposit", "0"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deposit"})
			return
		}
		c.JSON(http.StatusOK, workflow.QuoteRental(start, end, rent, deposit, c.Query("frequency")))
	}
}

func createRentalHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewRental
		if !bindJSON(c, &input) {
			return
		}
		rental, err := workflow.CreateRental(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, rental)
	}
}

func updateRentalHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		var input models.NewRental
		if !bindJSON(c, &input) {
			return
		}
		rental, err := workflow.UpdateRental(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rental)
	}
}

func approveRentalHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		approverId, _ := utils.GetUserIdFromContext(c.Request.Context())
		rental, err := workflow.ApproveRental(c.Request.Context(), id, approverId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rental)
	}
}

func closeRentalHandler(action func(context.Context, int) (*models.Rental, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		rental, err := action(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rental)
	}
}

type terminateRequest struct {
	Reason string `json:"reason"`
}

func terminateRentalHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		var req terminateRequest
		if !bindJSON(c, &req) {
			return
		}
		rental, err := workflow.TerminateRental(c.Request.Context(), id, req.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rental)
	}
}

/* invoices */

type invoiceRequest struct {
	InvoiceName            string               `json:"invoice_name"`
	PaymentStatus          models.PaymentStatus `json:"payment_status"`
	IncludeSecurityDeposit bool                 `json:"include_security_deposit"`
	InvoiceItems           []models.InvoiceItem `json:"invoice_items"`
	DueDate                *time.Time           `json:"due_date"`
	SkipPdf                bool                 `json:"skip_pdf"`
}

func generateRentalInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		var req invoiceRequest
		if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
			return
		}
		invoice, err := workflow.GenerateForRental(c.Request.Context(), id, workflow.InvoiceOptions{
			InvoiceName:            req.InvoiceName,
			PaymentStatus:          req.PaymentStatus,
			IncludeSecurityDeposit: req.IncludeSecurityDeposit,
			InvoiceItems:           req.InvoiceItems,
			DueDate:                req.DueDate,
			SkipPdf:                req.SkipPdf,
		})
		if err != nil {
			if invoice != nil && utils.IsExternalRenderError(err) {
				_ = c.Error(err)
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "invoice": invoice})
				return
			}
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, invoice)
	}
}

func listRentalInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		rental, err := models.GetRental(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		invoices, err := workflow.ListInvoices(c.Request.Context(), rental)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := middlewares.AttachInvoiceDetails(c.Request.Context(), invoices); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoices)
	}
}

func regeneratePdfHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		filePath, err := workflow.GeneratePdf(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"invoice_id": id, "file_path": filePath})
	}
}

func invoiceDownloadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		link, err := workflow.InvoiceDownloadLink(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, link)
	}
}

func invoiceBalanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		balance, err := workflow.GetInvoiceBalance(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, balance)
	}
}

func reconcileInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		invoice, err := workflow.ReconcileInvoice(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}

/* payments */

func recordPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		var input models.NewPayment
		if !bindJSON(c, &input) {
			return
		}
		input.InvoiceId = id
		payment, err := workflow.RecordPayment(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, payment)
	}
}

func paymentStatusHandler(action func(context.Context, int) (*models.Payment, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		payment, err := action(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, payment)
	}
}
