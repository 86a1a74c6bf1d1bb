package utils

import (
	"context"
	"errors"

	"github.com/mmdatafocus/rentals_backend/config"
	"gorm.io/gorm"
)

/* DB fetching */

// fetch model from db
// (may return RecordNotFound)
func FetchModel[T any](ctx context.Context, id int, associations ...string) (*T, error) {
	return FetchModelTx[T](config.GetDB(), ctx, id, associations...)
}

// FetchModelTx is FetchModel on an explicit handle (inside a transaction).
func FetchModelTx[T any](tx *gorm.DB, ctx context.Context, id int, associations ...string) (*T, error) {
	dbCtx := tx.WithContext(ctx)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// fetch models matching a condition, ordered by order when given
func FetchModelsWhere[T any](ctx context.Context, order string, query interface{}, args ...interface{}) ([]*T, error) {
	dbCtx := config.GetDB().WithContext(ctx).Where(query, args...)
	if order != "" {
		dbCtx = dbCtx.Order(order)
	}
	var results []*T
	if err := dbCtx.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// count rows matching a condition
func ResourceCountWhere[T any](ctx context.Context, query interface{}, args ...interface{}) (int64, error) {
	var count int64
	var model T
	err := config.GetDB().WithContext(ctx).Model(&model).Where(query, args...).Count(&count).Error
	return count, err
}

func ResourceExistsWhere[T any](ctx context.Context, query interface{}, args ...interface{}) (bool, error) {
	count, err := ResourceCountWhere[T](ctx, query, args...)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
