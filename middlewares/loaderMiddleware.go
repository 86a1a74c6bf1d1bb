package middlewares

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/models"
	"gorm.io/gorm"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders batch the per-row lookups made while listing invoices.
type Loaders struct {
	userLoader           *dataloader.Loader[int, *models.User]
	invoicePaymentLoader *dataloader.Loader[int, []*models.Payment]
}

func NewLoaders(conn *gorm.DB) *Loaders {
	userReader := &userReader{db: conn}
	invoicePaymentReader := &invoicePaymentReader{db: conn}

	return &Loaders{
		userLoader:           dataloader.NewBatchedLoader(userReader.getUsers, dataloader.WithWait[int, *models.User](time.Millisecond)),
		invoicePaymentLoader: dataloader.NewBatchedLoader(invoicePaymentReader.getPayments, dataloader.WithWait[int, []*models.Payment](time.Millisecond)),
	}
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loader := NewLoaders(config.GetDB())
		ctx := context.WithValue(c.Request.Context(), loadersKey, loader)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// For returns the request's loaders, or a fresh set when the middleware did not run.
func For(ctx context.Context) *Loaders {
	if loaders, ok := ctx.Value(loadersKey).(*Loaders); ok {
		return loaders
	}
	return NewLoaders(config.GetDB())
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

type userReader struct {
	db *gorm.DB
}

func (r *userReader) getUsers(ctx context.Context, ids []int) []*dataloader.Result[*models.User] {
	var results []*models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return handleError[*models.User](len(ids), err)
	}
	resultMap := make(map[int]*models.User, len(results))
	for _, result := range results {
		resultMap[result.ID] = result
	}
	loaderResults := make([]*dataloader.Result[*models.User], 0, len(ids))
	for _, id := range ids {
		// missing users load as nil, not as an error
		loaderResults = append(loaderResults, &dataloader.Result[*models.User]{Data: resultMap[id]})
	}
	return loaderResults
}

type invoicePaymentReader struct {
	db *gorm.DB
}

func (r *invoicePaymentReader) getPayments(ctx context.Context, invoiceIds []int) []*dataloader.Result[[]*models.Payment] {
	var results []*models.Payment
	if err := r.db.WithContext(ctx).Where("invoice_id IN ?", invoiceIds).Order("id").Find(&results).Error; err != nil {
		return handleError[[]*models.Payment](len(invoiceIds), err)
	}
	resultMap := make(map[int][]*models.Payment)
	for _, result := range results {
		resultMap[result.InvoiceId] = append(resultMap[result.InvoiceId], result)
	}
	loaderResults := make([]*dataloader.Result[[]*models.Payment], 0, len(invoiceIds))
	for _, id := range invoiceIds {
		loaderResults = append(loaderResults, &dataloader.Result[[]*models.Payment]{Data: resultMap[id]})
	}
	return loaderResults
}

func GetUser(ctx context.Context, id int) (*models.User, error) {
	return For(ctx).userLoader.Load(ctx, id)()
}

func GetUsers(ctx context.Context, ids []int) ([]*models.User, []error) {
	return For(ctx).userLoader.LoadMany(ctx, ids)()
}

func GetInvoicePayments(ctx context.Context, invoiceId int) ([]*models.Payment, error) {
	return For(ctx).invoicePaymentLoader.Load(ctx, invoiceId)()
}

// AttachInvoiceDetails fills bill_to, bill_from and payments on each invoice
// with one query per relation.
func AttachInvoiceDetails(ctx context.Context, invoices []*models.Invoice) error {
	loaders := For(ctx)
	billTo := make([]dataloader.Thunk[*models.User], len(invoices))
	billFrom := make([]dataloader.Thunk[*models.User], len(invoices))
	payments := make([]dataloader.Thunk[[]*models.Payment], len(invoices))
	for i, invoice := range invoices {
		billTo[i] = loaders.userLoader.Load(ctx, invoice.BillToId)
		billFrom[i] = loaders.userLoader.Load(ctx, invoice.BillFromId)
		payments[i] = loaders.invoicePaymentLoader.Load(ctx, invoice.ID)
	}
	for i, invoice := range invoices {
		var err error
		if invoice.BillTo, err = billTo[i](); err != nil {
			return err
		}
		if invoice.BillFrom, err = billFrom[i](); err != nil {
			return err
		}
		if invoice.Payments, err = payments[i](); err != nil {
			return err
		}
	}
	return nil
}
