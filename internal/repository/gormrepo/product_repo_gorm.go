package gormrepo

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trinket-service/internal/domain"
)

type productRepo struct {
	db *gorm.DB
}

func (r *productRepo) Create(ctx context.Context, p *domain.Product) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error; err != nil {
		return wrap(err, "insert product")
	}
	return nil
}

func (r *productRepo) FindByID(ctx context.Context, id uint64) (*domain.Product, error) {
	return r.find(r.db.WithContext(ctx).Preload("Category"), id)
}

func (r *productRepo) FindByIDForUpdate(ctx context.Context, id uint64) (*domain.Product, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *productRepo) FindManyForUpdate(ctx context.Context, ids []uint64) (map[uint64]*domain.Product, error) {
	out := make(map[uint64]*domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrapf(err, "lock products %v", ids)
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

func (r *productRepo) find(db *gorm.DB, id uint64) (*domain.Product, error) {
	var p domain.Product
	if err := db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "find product %d", id)
	}
	return &p, nil
}

func (r *productRepo) Save(ctx context.Context, p *domain.Product) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error; err != nil {
		return wrap(err, "save product")
	}
	return nil
}

func (r *productRepo) Deactivate(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "deactivate product %d", id)
	}
	return res.RowsAffected > 0, nil
}

func (r *productRepo) active(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&domain.Product{}).Where("is_active = ?", true)
}

func (r *productRepo) List(ctx context.Context, categoryID *uint64, page domain.Page) ([]domain.Product, error) {
	q := r.active(ctx)
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	var out []domain.Product
	if err := paginate(q, page).Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return out, nil
}

func (r *productRepo) Search(ctx context.Context, keyword string, page domain.Page) ([]domain.Product, error) {
	pattern := "%" + escapeLike(strings.ToLower(keyword)) + "%"
	q := r.active(ctx).Where(
		"(LOWER(name) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!' OR LOWER(brand) LIKE ? ESCAPE '!')",
		pattern, pattern, pattern,
	)
	var out []domain.Product
	if err := paginate(q, page).Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "search products")
	}
	return out, nil
}

func (r *productRepo) Filter(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	q := r.active(ctx)
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.Condition != nil {
		// CONDITION is reserved in MySQL; clause.Column gets dialect quoting.
		q = q.Where(clause.Eq{Column: clause.Column{Name: "condition"}, Value: *f.Condition})
	}
	if f.Rarity != nil {
		q = q.Where("rarity = ?", *f.Rarity)
	}
	if f.YearMin != nil {
		q = q.Where("year_manufactured >= ?", *f.YearMin)
	}
	if f.YearMax != nil {
		q = q.Where("year_manufactured <= ?", *f.YearMax)
	}
	if f.PriceMin != nil {
		q = q.Where("price >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		q = q.Where("price <= ?", *f.PriceMax)
	}
	if f.AuthenticityVerified != nil {
		q = q.Where("authenticity_verified = ?", *f.AuthenticityVerified)
	}

	var out []domain.Product
	if err := paginate(q, f.Page).Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "filter products")
	}
	return out, nil
}

// SQLite has no default LIKE escape character, so every pattern names '!'.
var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
