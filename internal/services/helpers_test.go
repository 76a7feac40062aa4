package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"trinket-service/internal/domain"
	"trinket-service/internal/mocks"
	"trinket-service/internal/repository"
	"trinket-service/internal/repository/memory"
)

const (
	TestUserID       = uint64(1)
	TestProductName  = "First Edition Charizard"
	TestProductPrice = "10.00"
	TestProductQty   = 5
)

type fixture struct {
	store     *memory.Store
	cache     *mocks.MockProductCache
	publisher *mocks.MockPublisher
	orders    *OrderService
	catalog   *CatalogService
	reviews   *ReviewService
	users     *UserService
}

// newFixture wires every service over an empty in-memory store. The cache
// always misses and the publisher accepts everything.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	c := new(mocks.MockProductCache)
	c.On("Get", mock.Anything, mock.Anything).Return(nil, false).Maybe()
	c.On("Version", mock.Anything, mock.Anything).Return(int64(0)).Maybe()
	c.On("Set", mock.Anything, mock.Anything, mock.Anything).Return().Maybe()
	c.On("Invalidate", mock.Anything, mock.Anything).Return().Maybe()

	pub := new(mocks.MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	return newFixtureWith(store, c, pub)
}

func newFixtureWith(store *memory.Store, c *mocks.MockProductCache, pub *mocks.MockPublisher) *fixture {
	users := NewUserService(store)
	users.cost = bcrypt.MinCost

	return &fixture{
		store:     store,
		cache:     c,
		publisher: pub,
		orders:    NewOrderService(store, c, pub),
		catalog:   NewCatalogService(store, c),
		reviews:   NewReviewService(store),
		users:     users,
	}
}

func CreateMockProduct(name, price string, qty int) *domain.Product {
	return &domain.Product{
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: qty,
		IsActive:      true,
	}
}

func seedProduct(t *testing.T, store repository.Store, p *domain.Product) *domain.Product {
	t.Helper()
	require.NoError(t, store.Repositories().Products.Create(context.Background(), p))
	return p
}

func stockOf(t *testing.T, store repository.Store, id uint64) int {
	t.Helper()
	p, err := store.Repositories().Products.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.StockQuantity
}

func countOrders(t *testing.T, store repository.Store) int {
	t.Helper()
	orders, err := store.Repositories().Orders.FindAll(context.Background(), domain.NewPage(0, domain.MaxLimit))
	require.NoError(t, err)
	return len(orders)
}

func orderInput(items ...domain.ItemRequest) domain.CreateOrderInput {
	return domain.CreateOrderInput{UserID: TestUserID, Items: items}
}

func item(productID uint64, qty int) domain.ItemRequest {
	return domain.ItemRequest{ProductID: productID, Quantity: qty}
}

func ptr[T any](v T) *T {
	return &v
}
