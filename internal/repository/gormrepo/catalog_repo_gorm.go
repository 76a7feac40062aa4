package gormrepo

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"trinket-service/internal/domain"
)

type categoryRepo struct {
	db *gorm.DB
}

func (r *categoryRepo) Create(ctx context.Context, c *domain.Category) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return wrap(err, "insert category")
	}
	return nil
}

func (r *categoryRepo) FindByID(ctx context.Context, id uint64) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "find category %d", id)
	}
	return &c, nil
}

func (r *categoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if err := r.db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return out, nil
}

type reviewRepo struct {
	db *gorm.DB
}

func (r *reviewRepo) Create(ctx context.Context, rv *domain.Review) error {
	if err := r.db.WithContext(ctx).Create(rv).Error; err != nil {
		return wrap(err, "insert review")
	}
	return nil
}

func (r *reviewRepo) FindByID(ctx context.Context, id uint64) (*domain.Review, error) {
	var rv domain.Review
	if err := r.db.WithContext(ctx).First(&rv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "find review %d", id)
	}
	return &rv, nil
}

func (r *reviewRepo) FindByProduct(ctx context.Context, productID uint64, page domain.Page) ([]domain.Review, error) {
	var out []domain.Review
	q := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if err := paginate(q, page).Find(&out).Error; err != nil {
		return nil, errors.Wrapf(err, "list reviews of product %d", productID)
	}
	return out, nil
}

func (r *reviewRepo) IncrementHelpful(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Review{}).
		Where("id = ?", id).
		UpdateColumn("helpful_count", gorm.Expr("helpful_count + 1"))
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "increment helpful count of review %d", id)
	}
	return res.RowsAffected > 0, nil
}
