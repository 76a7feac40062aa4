package memory

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"trinket-service/internal/domain"
)

type productRepo struct{ *view }

func (r *productRepo) Create(_ context.Context, p *domain.Product) error {
	st, done := r.enter()
	defer done()

	st.productSeq++
	p.ID = st.productSeq
	now := r.now()
	p.CreatedAt, p.UpdatedAt = now, now
	stored := *p
	stored.Category = nil
	st.products[p.ID] = stored
	return nil
}

func (r *productRepo) FindByID(_ context.Context, id uint64) (*domain.Product, error) {
	st, done := r.enter()
	defer done()
	return st.product(id, true), nil
}

func (r *productRepo) FindByIDForUpdate(_ context.Context, id uint64) (*domain.Product, error) {
	st, done := r.enter()
	defer done()
	return st.product(id, false), nil
}

func (r *productRepo) FindManyForUpdate(_ context.Context, ids []uint64) (map[uint64]*domain.Product, error) {
	st, done := r.enter()
	defer done()

	out := make(map[uint64]*domain.Product, len(ids))
	for _, id := range ids {
		if p := st.product(id, false); p != nil {
			out[id] = p
		}
	}
	return out, nil
}

func (r *productRepo) Save(_ context.Context, p *domain.Product) error {
	st, done := r.enter()
	defer done()

	if _, ok := st.products[p.ID]; !ok {
		return errors.Wrapf(domain.ErrProductNotFound, "save product %d", p.ID)
	}
	p.UpdatedAt = r.now()
	stored := *p
	stored.Category = nil
	st.products[p.ID] = stored
	return nil
}

func (r *productRepo) Deactivate(_ context.Context, id uint64) (bool, error) {
	st, done := r.enter()
	defer done()

	p, ok := st.products[id]
	if !ok {
		return false, nil
	}
	p.IsActive = false
	p.UpdatedAt = r.now()
	st.products[id] = p
	return true, nil
}

func (r *productRepo) List(_ context.Context, categoryID *uint64, page domain.Page) ([]domain.Product, error) {
	return r.collect(page, func(p *domain.Product) bool {
		return p.IsActive && (categoryID == nil || (p.CategoryID != nil && *p.CategoryID == *categoryID))
	}), nil
}

func (r *productRepo) Search(_ context.Context, keyword string, page domain.Page) ([]domain.Product, error) {
	return r.collect(page, func(p *domain.Product) bool {
		return p.IsActive && p.MatchesKeyword(keyword)
	}), nil
}

func (r *productRepo) Filter(_ context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	return r.collect(f.Page, f.Matches), nil
}

func (r *productRepo) collect(page domain.Page, keep func(p *domain.Product) bool) []domain.Product {
	st, done := r.enter()
	defer done()

	out := make([]domain.Product, 0)
	for _, p := range st.products {
		if keep(&p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	start, end := page.Window(len(out))
	return out[start:end]
}

func (st *state) product(id uint64, withCategory bool) *domain.Product {
	p, ok := st.products[id]
	if !ok {
		return nil
	}
	if withCategory && p.CategoryID != nil {
		if c, ok := st.categories[*p.CategoryID]; ok {
			p.Category = &c
		}
	}
	return &p
}

type categoryRepo struct{ *view }

func (r *categoryRepo) Create(_ context.Context, c *domain.Category) error {
	st, done := r.enter()
	defer done()

	for _, existing := range st.categories {
		if existing.Name == c.Name {
			return errors.Wrap(domain.ErrConflict, "insert category")
		}
	}
	st.categorySeq++
	c.ID = st.categorySeq
	c.CreatedAt = r.now()
	st.categories[c.ID] = *c
	return nil
}

func (r *categoryRepo) FindByID(_ context.Context, id uint64) (*domain.Category, error) {
	st, done := r.enter()
	defer done()

	c, ok := st.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *categoryRepo) List(_ context.Context) ([]domain.Category, error) {
	st, done := r.enter()
	defer done()

	out := make([]domain.Category, 0, len(st.categories))
	for _, c := range st.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type ledger struct{ *view }

func (l *ledger) Reserve(_ context.Context, productID uint64, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, domain.NewValidationError("quantity", "must be a positive integer")
	}
	st, done := l.enter()
	defer done()

	p, ok := st.products[productID]
	if !ok || !p.IsActive || p.StockQuantity < quantity {
		return 0, domain.ErrInsufficientStock
	}
	p.StockQuantity -= quantity
	p.UpdatedAt = l.now()
	st.products[productID] = p
	return p.StockQuantity, nil
}

func (l *ledger) Release(_ context.Context, productID uint64, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, domain.NewValidationError("quantity", "must be a positive integer")
	}
	st, done := l.enter()
	defer done()

	p, ok := st.products[productID]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	p.StockQuantity += quantity
	p.UpdatedAt = l.now()
	st.products[productID] = p
	return p.StockQuantity, nil
}
