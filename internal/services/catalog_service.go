package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"trinket-service/internal/domain"
	"trinket-service/internal/infra/cache"
	"trinket-service/internal/repository"
)

type CatalogService struct {
	store repository.Store
	cache cache.ProductCacheInterface
	fill  singleflight.Group
}

func NewCatalogService(store repository.Store, c cache.ProductCacheInterface) *CatalogService {
	return &CatalogService{store: store, cache: c}
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.ID = 0
	p.IsActive = true
	p.Category = nil

	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		if err := s.checkCategory(ctx, r, p.CategoryID); err != nil {
			return err
		}
		return r.Products.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"product_id": p.ID, "name": p.Name}).Info("product created")
	return p, nil
}

// GetProduct is served from the cache when possible; concurrent misses for
// the same id share one database read. The cache version is taken before the
// read so a fill racing an invalidation is discarded.
func (s *CatalogService) GetProduct(ctx context.Context, id uint64) (*domain.Product, error) {
	if p, ok := s.cache.Get(ctx, id); ok {
		return p, nil
	}

	v, err, _ := s.fill.Do(strconv.FormatUint(id, 10), func() (any, error) {
		version := s.cache.Version(ctx, id)
		p, err := s.store.Repositories().Products.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domain.ErrProductNotFound
		}
		s.cache.Set(ctx, p, version)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	p := *v.(*domain.Product)
	return &p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, categoryID *uint64, page domain.Page) ([]domain.Product, error) {
	return s.store.Repositories().Products.List(ctx, categoryID, page)
}

func (s *CatalogService) Search(ctx context.Context, keyword string, page domain.Page) ([]domain.Product, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, domain.NewValidationError("query", "is required")
	}
	return s.store.Repositories().Products.Search(ctx, keyword, page)
}

func (s *CatalogService) Filter(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return s.store.Repositories().Products.Filter(ctx, f)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint64, upd domain.ProductUpdate) (*domain.Product, error) {
	if upd.Empty() {
		return nil, domain.NewValidationError("", "no data provided for update")
	}

	var updated *domain.Product
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		p, err := r.Products.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrProductNotFound
		}
		if err := s.checkCategory(ctx, r, upd.CategoryID); err != nil {
			return err
		}

		upd.Apply(p)
		if err := p.Validate(); err != nil {
			return err
		}
		if err := r.Products.Save(ctx, p); err != nil {
			return err
		}
		updated, err = r.Products.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, id)
	return updated, nil
}

// DeleteProduct hides the product from the catalog; order history keeps
// referencing it.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint64) error {
	ok, err := s.store.Repositories().Products.Deactivate(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrProductNotFound
	}

	s.cache.Invalidate(ctx, id)
	log.WithField("product_id", id).Info("product deactivated")
	return nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "is required")
	}
	c := &domain.Category{Name: name}
	if err := s.store.Repositories().Categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.store.Repositories().Categories.List(ctx)
}

func (s *CatalogService) checkCategory(ctx context.Context, r repository.Repositories, id *uint64) error {
	if id == nil {
		return nil
	}
	c, err := r.Categories.FindByID(ctx, *id)
	if err != nil {
		return err
	}
	if c == nil {
		return domain.NewValidationError("category_id", fmt.Sprintf("unknown category %d", *id))
	}
	return nil
}
