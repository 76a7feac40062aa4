package repository

import (
	"context"

	"trinket-service/internal/domain"
)

// Find* methods return (nil, nil) when the row does not exist.

type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	FindByID(ctx context.Context, id uint64) (*domain.Product, error)
	// FindByIDForUpdate locks the row until the enclosing transaction ends.
	FindByIDForUpdate(ctx context.Context, id uint64) (*domain.Product, error)
	// FindManyForUpdate locks the rows in ascending id order, so transactions
	// over overlapping products cannot deadlock. Missing ids are left out.
	FindManyForUpdate(ctx context.Context, ids []uint64) (map[uint64]*domain.Product, error)
	Save(ctx context.Context, p *domain.Product) error
	Deactivate(ctx context.Context, id uint64) (bool, error)
	List(ctx context.Context, categoryID *uint64, page domain.Page) ([]domain.Product, error)
	Search(ctx context.Context, keyword string, page domain.Page) ([]domain.Product, error)
	Filter(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) error
	FindByID(ctx context.Context, id uint64) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
}

// InventoryLedger owns stock counters. Reserve never lets a counter go
// below zero.
type InventoryLedger interface {
	Reserve(ctx context.Context, productID uint64, quantity int) (int, error)
	Release(ctx context.Context, productID uint64, quantity int) (int, error)
}

type OrderRepository interface {
	// Save inserts the order and its items.
	Save(ctx context.Context, o *domain.Order) error
	FindByID(ctx context.Context, id uint64) (*domain.Order, error)
	FindByIDForUpdate(ctx context.Context, id uint64) (*domain.Order, error)
	FindAll(ctx context.Context, page domain.Page) ([]domain.Order, error)
	FindByUser(ctx context.Context, userID uint64, page domain.Page) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, o *domain.Order) error
	HasDelivered(ctx context.Context, userID, productID uint64) (bool, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, r *domain.Review) error
	FindByID(ctx context.Context, id uint64) (*domain.Review, error)
	FindByProduct(ctx context.Context, productID uint64, page domain.Page) ([]domain.Review, error)
	IncrementHelpful(ctx context.Context, id uint64) (bool, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	FindByID(ctx context.Context, id uint64) (*domain.User, error)
	FindAll(ctx context.Context, page domain.Page) ([]domain.User, error)
	Save(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id uint64) (bool, error)
}

// Repositories is a set of repositories bound to one connection or transaction.
type Repositories struct {
	Products   ProductRepository
	Categories CategoryRepository
	Ledger     InventoryLedger
	Orders     OrderRepository
	Reviews    ReviewRepository
	Users      UserRepository
}

type Store interface {
	Repositories() Repositories
	// WithinTx runs fn in a single transaction. It commits when fn returns nil
	// and rolls back on error or panic.
	WithinTx(ctx context.Context, fn func(r Repositories) error) error
}
