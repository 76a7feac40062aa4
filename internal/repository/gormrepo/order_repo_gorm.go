package gormrepo

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trinket-service/internal/domain"
)

type orderRepo struct {
	db *gorm.DB
}

func (r *orderRepo) Save(ctx context.Context, o *domain.Order) error {
	db := r.db.WithContext(ctx)

	if err := db.Omit(clause.Associations).Create(o).Error; err != nil {
		return wrap(err, "insert order")
	}
	if o.ID == 0 {
		return errors.New("failed to assign order ID")
	}

	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	if len(o.Items) == 0 {
		return nil
	}
	if err := db.Omit(clause.Associations).Create(&o.Items).Error; err != nil {
		return wrap(err, "insert order items")
	}

	log.WithFields(log.Fields{"order_id": o.ID, "items": len(o.Items)}).Debug("order saved")
	return nil
}

func (r *orderRepo) withItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Product")
}

func (r *orderRepo) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	return r.find(r.db.WithContext(ctx), id)
}

func (r *orderRepo) FindByIDForUpdate(ctx context.Context, id uint64) (*domain.Order, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *orderRepo) find(db *gorm.DB, id uint64) (*domain.Order, error) {
	var o domain.Order
	if err := r.withItems(db).First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "find order %d", id)
	}
	return &o, nil
}

func (r *orderRepo) FindAll(ctx context.Context, page domain.Page) ([]domain.Order, error) {
	var out []domain.Order
	if err := paginate(r.withItems(r.db.WithContext(ctx)), page).Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return out, nil
}

func (r *orderRepo) FindByUser(ctx context.Context, userID uint64, page domain.Page) ([]domain.Order, error) {
	var out []domain.Order
	q := r.withItems(r.db.WithContext(ctx)).Where("user_id = ?", userID)
	if err := paginate(q, page).Find(&out).Error; err != nil {
		return nil, errors.Wrapf(err, "list orders of user %d", userID)
	}
	return out, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, o *domain.Order) error {
	res := r.db.WithContext(ctx).Model(o).
		Select("status", "shipped_date", "delivered_date").
		Updates(o)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "update status of order %d", o.ID)
	}
	if res.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepo) HasDelivered(ctx context.Context, userID, productID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.status = ? AND order_items.product_id = ?",
			userID, domain.StatusDelivered, productID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "count delivered items")
	}
	return count > 0, nil
}
