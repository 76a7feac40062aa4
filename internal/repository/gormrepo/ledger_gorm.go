package gormrepo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"trinket-service/internal/domain"
)

type ledger struct {
	db *gorm.DB
}

// Reserve decrements stock only when the row still holds enough units, so
// concurrent reservations cannot drive the counter negative.
func (l *ledger) Reserve(ctx context.Context, productID uint64, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, domain.NewValidationError("quantity", "must be a positive integer")
	}
	res := l.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ? AND is_active = ? AND stock_quantity >= ?", productID, true, quantity).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity - ?", quantity),
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return 0, errors.Wrapf(res.Error, "reserve %d of product %d", quantity, productID)
	}
	if res.RowsAffected == 0 {
		return 0, domain.ErrInsufficientStock
	}
	return l.current(ctx, productID)
}

func (l *ledger) Release(ctx context.Context, productID uint64, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, domain.NewValidationError("quantity", "must be a positive integer")
	}
	res := l.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity + ?", quantity),
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return 0, errors.Wrapf(res.Error, "release %d of product %d", quantity, productID)
	}
	if res.RowsAffected == 0 {
		return 0, domain.ErrProductNotFound
	}
	return l.current(ctx, productID)
}

func (l *ledger) current(ctx context.Context, productID uint64) (int, error) {
	var qty []int
	err := l.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", productID).
		Pluck("stock_quantity", &qty).Error
	if err != nil {
		return 0, errors.Wrapf(err, "read stock of product %d", productID)
	}
	if len(qty) == 0 {
		return 0, domain.ErrProductNotFound
	}
	return qty[0], nil
}
