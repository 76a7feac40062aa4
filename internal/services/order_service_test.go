package services

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trinket-service/internal/domain"
	"trinket-service/internal/mocks"
	"trinket-service/internal/repository"
	"trinket-service/internal/repository/memory"
)

func TestOrderService_CreateOrder(t *testing.T) {
	tests := []struct {
		name          string
		input         func(active, inactive *domain.Product) domain.CreateOrderInput
		expectedError error
		expectedTotal string
	}{
		{
			name: "successful order creation",
			input: func(active, _ *domain.Product) domain.CreateOrderInput {
				return orderInput(item(active.ID, 2))
			},
			expectedTotal: "20.00",
		},
		{
			name: "missing user",
			input: func(active, _ *domain.Product) domain.CreateOrderInput {
				return domain.CreateOrderInput{Items: []domain.ItemRequest{item(active.ID, 1)}}
			},
			expectedError: &domain.ValidationError{},
		},
		{
			name: "empty items",
			input: func(_, _ *domain.Product) domain.CreateOrderInput {
				return orderInput()
			},
			expectedError: &domain.ValidationError{},
		},
		{
			name: "zero quantity",
			input: func(active, _ *domain.Product) domain.CreateOrderInput {
				return orderInput(item(active.ID, 0))
			},
			expectedError: &domain.ValidationError{},
		},
		{
			name: "product not found",
			input: func(_, _ *domain.Product) domain.CreateOrderInput {
				return orderInput(item(999, 1))
			},
			expectedError: domain.ErrProductNotFound,
		},
		{
			name: "inactive product",
			input: func(_, inactive *domain.Product) domain.CreateOrderInput {
				return orderInput(item(inactive.ID, 1))
			},
			expectedError: domain.ErrProductNotFound,
		},
		{
			name: "insufficient stock",
			input: func(active, _ *domain.Product) domain.CreateOrderInput {
				return orderInput(item(active.ID, TestProductQty+1))
			},
			expectedError: domain.ErrInsufficientStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			active := seedProduct(t, f.store, CreateMockProduct(TestProductName, TestProductPrice, TestProductQty))
			inactive := seedProduct(t, f.store, CreateMockProduct("Retired Figurine", "5.00", 3))
			_, err := f.store.Repositories().Products.Deactivate(ctx, inactive.ID)
			require.NoError(t, err)

			result, err := f.orders.CreateOrder(ctx, tt.input(active, inactive))

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Nil(t, result)
				var verr *domain.ValidationError
				if errors.As(tt.expectedError, &verr) {
					assert.ErrorAs(t, err, &verr)
				} else {
					assert.ErrorIs(t, err, tt.expectedError)
				}
				assert.Equal(t, TestProductQty, stockOf(t, f.store, active.ID))
				assert.Zero(t, countOrders(t, f.store))
				return
			}

			require.NoError(t, err)
			require.NotNil(t, result)
			assert.NotZero(t, result.ID)
			assert.Equal(t, TestUserID, result.UserID)
			assert.Equal(t, domain.StatusPending, result.Status)
			assert.Equal(t, tt.expectedTotal, result.TotalAmount.StringFixed(2))
			require.Len(t, result.Items, 1)
			assert.Equal(t, active.ID, result.Items[0].ProductID)
			require.NotNil(t, result.Items[0].Product)
			assert.Equal(t, TestProductName, result.Items[0].Product.Name)
			assert.Equal(t, TestProductQty-2, stockOf(t, f.store, active.ID))
		})
	}
}

func TestOrderService_InsufficientStockNamesProduct(t *testing.T) {
	f := newFixture(t)
	p := seedProduct(t, f.store, CreateMockProduct(TestProductName, TestProductPrice, 1))

	_, err := f.orders.CreateOrder(context.Background(), orderInput(item(p.ID, 4)))

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, p.ID, stockErr.ProductID)
	assert.Equal(t, 4, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)
	assert.Contains(t, err.Error(), TestProductName)
}

// Product A has stock=5 and price 10.00: order 3, fail to order 10, cancel.
func TestOrderService_Scenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := seedProduct(t, f.store, CreateMockProduct("Product A", "10.00", 5))

	first, err := f.orders.CreateOrder(ctx, orderInput(item(a.ID, 3)))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("30.00").Equal(first.TotalAmount))
	assert.Equal(t, 2, stockOf(t, f.store, a.ID))

	_, err = f.orders.CreateOrder(ctx, orderInput(item(a.ID, 10)))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 2, stockOf(t, f.store, a.ID))

	ok, err := f.orders.CancelOrder(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5, stockOf(t, f.store, a.ID))

	cancelled, err := f.orders.GetOrderById(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
}

func TestOrderService_CreateOrder_RejectsWholeOrderOnLaterItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := seedProduct(t, f.store, CreateMockProduct("Product A", "10.00", 5))
	b := seedProduct(t, f.store, CreateMockProduct("Product B", "25.00", 1))

	_, err := f.orders.CreateOrder(ctx, orderInput(item(a.ID, 2), item(b.ID, 3)))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = f.orders.CreateOrder(ctx, orderInput(item(a.ID, 2), item(404, 1)))
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	assert.Equal(t, 5, stockOf(t, f.store, a.ID))
	assert.Equal(t, 1, stockOf(t, f.store, b.ID))
	assert.Zero(t, countOrders(t, f.store))
}

func TestOrderService_CreateOrder_RepeatedLinesShareStock(t *testing.T) {
	f := newFixture(t)
	a := seedProduct(t, f.store, CreateMockProduct("Product A", "10.00", 5))

	_, err := f.orders.CreateOrder(context.Background(), orderInput(item(a.ID, 3), item(a.ID, 3)))

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 6, stockErr.Requested)
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 5, stockOf(t, f.store, a.ID))
	assert.Zero(t, countOrders(t, f.store))
}

type flakyLedger struct {
	repository.InventoryLedger
	failOn uint64
}

func (l flakyLedger) Reserve(ctx context.Context, productID uint64, quantity int) (int, error) {
	if productID == l.failOn {
		return 0, errors.New("connection reset by peer")
	}
	return l.InventoryLedger.Reserve(ctx, productID, quantity)
}

type flakyStore struct {
	*memory.Store
	failOn uint64
}

func (s flakyStore) WithinTx(ctx context.Context, fn func(r repository.Repositories) error) error {
	return s.Store.WithinTx(ctx, func(r repository.Repositories) error {
		r.Ledger = flakyLedger{InventoryLedger: r.Ledger, failOn: s.failOn}
		return fn(r)
	})
}

func TestOrderService_CreateOrder_StorageFailureRollsBack(t *testing.T) {
	store := memory.NewStore()
	a := seedProduct(t, store, CreateMockProduct("Product A", "10.00", 5))
	b := seedProduct(t, store, CreateMockProduct("Product B", "25.00", 5))

	pub := new(mocks.MockPublisher)
	c := new(mocks.MockProductCache)
	svc := NewOrderService(flakyStore{Store: store, failOn: b.ID}, c, pub)

	result, err := svc.CreateOrder(context.Background(), orderInput(item(a.ID, 2), item(b.ID, 1)))

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 5, stockOf(t, store, a.ID))
	assert.Equal(t, 5, stockOf(t, store, b.ID))
	assert.Zero(t, countOrders(t, store))
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	c.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestOrderService_PriceFreeze(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := seedProduct(t, f.store, CreateMockProduct("Product A", "10.00", 5))

	order, err := f.orders.CreateOrder(ctx, orderInput(item(a.ID, 2)))
	require.NoError(t, err)

	_, err = f.catalog.UpdateProduct(ctx, a.ID, domain.ProductUpdate{Price: ptr(decimal.RequireFromString("99.99"))})
	require.NoError(t, err)

	stored, err := f.orders.GetOrderById(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.00", stored.Items[0].Price.StringFixed(2))
	assert.Equal(t, "20.00", stored.TotalAmount.StringFixed(2))
	assert.Equal(t, "99.99", stored.Items[0].Product.Price.StringFixed(2))
}

func TestOrderService_CancelOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := seedProduct(t, f.store, CreateMockProduct("Product A", "10.00", 5))
	b := seedProduct(t, f.store, CreateMockProduct("Product B", "4.50", 8))

	order, err := f.orders.CreateOrder(ctx, orderInput(item(a.ID, 4), item(b.ID, 8)))
	require.NoError(t, err)
	assert.Equal(t, 1, stockOf(t, f.store, a.ID))
	assert.Equal(t, 0, stockOf(t, f.store, b.ID))

	ok, err := f.orders.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5, stockOf(t, f.store, a.ID))
	assert.Equal(t, 8, stockOf(t, f.store, b.ID))

	t.Run("second cancel is a no-op", func(t *testing.T) {
		ok, err := f.orders.CancelOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 5, stockOf(t, f.store, a.ID))
	})

	t.Run("missing order", func(t *testing.T) {
		ok, err := f.orders.CancelOrder(ctx, 999)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestOrderService_CancelOrder_TerminalStates(t *testing.T) {
	paths := map[string][]string{
		"shipped":   {"processing", "shipped"},
		"delivered": {"processing", "shipped", "delivered"},
		"cancelled": {"cancelled"},
	}

	for name, steps := range paths {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			a := seedProduct(t, f.store, CreateMockProduct("Product A", "10.00", 5))

			order, err := f.orders.CreateOrder(ctx, orderInput(item(a.ID, 2)))
			require.NoError(t, err)
			for _, step := range steps {
				_, err := f.orders.UpdateOrderStatus(ctx, order.ID, step)
				require.NoError(t, err)
			}
			before := stockOf(t, f.store, a.ID)

			ok, err := f.orders.CancelOrder(ctx, order.ID)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, before, stockOf(t, f.store, a.ID))

			stored, err := f.orders.GetOrderById(ctx, order.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.OrderStatus(name), stored.Status)
		})
	}
}

func TestOrderService_CancelOrder_FromProcessing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := seedProduct(t, f.store, CreateMockProduct("Product A", "10.00", 5))

	order, err := f.orders.CreateOrder(ctx, orderInput(item(a.ID, 5)))
	require.NoError(t, err)
	_, err = f.orders.UpdateOrderStatus(ctx, order.ID, "processing")
	require.NoError(t, err)

	ok, err := f.orders.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5, stockOf(t, f.store, a.ID))
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := seedProduct(t, f.store, CreateMockProduct("Product A", "10.00", 5))
	order, err := f.orders.CreateOrder(ctx, orderInput(item(a.ID, 1)))
	require.NoError(t, err)

	t.Run("unknown status value", func(t *testing.T) {
		_, err := f.orders.UpdateOrderStatus(ctx, order.ID, "lost")
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("order not found", func(t *testing.T) {
		_, err := f.orders.UpdateOrderStatus(ctx, 999, "processing")
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})

	t.Run("skipping ahead is rejected", func(t *testing.T) {
		_, err := f.orders.UpdateOrderStatus(ctx, order.ID, "delivered")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("happy path stamps dates", func(t *testing.T) {
		updated, err := f.orders.UpdateOrderStatus(ctx, order.ID, "processing")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusProcessing, updated.Status)
		assert.Nil(t, updated.ShippedDate)

		updated, err = f.orders.UpdateOrderStatus(ctx, order.ID, "shipped")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusShipped, updated.Status)
		assert.NotNil(t, updated.ShippedDate)
		assert.Nil(t, updated.DeliveredDate)

		updated, err = f.orders.UpdateOrderStatus(ctx, order.ID, "delivered")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusDelivered, updated.Status)
		assert.NotNil(t, updated.DeliveredDate)
	})

	t.Run("delivered is terminal", func(t *testing.T) {
		_, err := f.orders.UpdateOrderStatus(ctx, order.ID, "pending")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	assert.Equal(t, 4, stockOf(t, f.store, a.ID))
}

func TestOrderService_UpdateOrderStatus_CancelRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := seedProduct(t, f.store, CreateMockProduct("Product A", "10.00", 5))
	order, err := f.orders.CreateOrder(ctx, orderInput(item(a.ID, 3)))
	require.NoError(t, err)

	updated, err := f.orders.UpdateOrderStatus(ctx, order.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, updated.Status)
	assert.Equal(t, 5, stockOf(t, f.store, a.ID))

	_, err = f.orders.UpdateOrderStatus(ctx, order.ID, "processing")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestOrderService_PublishesEvents(t *testing.T) {
	store := memory.NewStore()
	a := seedProduct(t, store, CreateMockProduct("Product A", "10.00", 5))

	c := new(mocks.MockProductCache)
	c.On("Invalidate", mock.Anything, []uint64{a.ID}).Return().Twice()

	pub := new(mocks.MockPublisher)
	pub.On("Publish", mock.Anything, domain.EventOrderCreated, mock.MatchedBy(func(evt domain.OrderCreatedEvent) bool {
		return evt.UserID == TestUserID && evt.TotalAmount.Equal(decimal.RequireFromString("20")) && len(evt.Items) == 1
	})).Return(nil).Once()
	pub.On("Publish", mock.Anything, domain.EventOrderCancelled, mock.AnythingOfType("domain.OrderCancelledEvent")).
		Return(nil).Once()

	svc := NewOrderService(store, c, pub)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, orderInput(item(a.ID, 2)))
	require.NoError(t, err)
	ok, err := svc.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, ok)

	pub.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestOrderService_PublishFailureDoesNotFailOrder(t *testing.T) {
	store := memory.NewStore()
	a := seedProduct(t, store, CreateMockProduct("Product A", "10.00", 5))

	c := new(mocks.MockProductCache)
	c.On("Invalidate", mock.Anything, mock.Anything).Return()
	pub := new(mocks.MockPublisher)
	pub.On("Publish", mock.Anything, domain.EventOrderCreated, mock.Anything).Return(errors.New("broker down"))

	order, err := NewOrderService(store, c, pub).CreateOrder(context.Background(), orderInput(item(a.ID, 1)))

	require.NoError(t, err)
	assert.NotNil(t, order)
	assert.Equal(t, 4, stockOf(t, store, a.ID))
	pub.AssertExpectations(t)
}

func TestOrderService_GetOrderById(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orders.GetOrderById(ctx, 1)
	assert.Equal(t, domain.ErrOrderNotFound, err)

	a := seedProduct(t, f.store, CreateMockProduct("Product A", "10.00", 5))
	created, err := f.orders.CreateOrder(ctx, domain.CreateOrderInput{
		UserID:          TestUserID,
		Items:           []domain.ItemRequest{item(a.ID, 1)},
		ShippingAddress: ptr("123 Main St"),
	})
	require.NoError(t, err)

	got, err := f.orders.GetOrderById(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "123 Main St", *got.ShippingAddress)
	assert.Equal(t, created.TotalAmount.String(), got.TotalAmount.String())
}

func TestOrderService_ListUserOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := seedProduct(t, f.store, CreateMockProduct("Product A", "1.00", 100))

	for i := 0; i < 3; i++ {
		_, err := f.orders.CreateOrder(ctx, orderInput(item(a.ID, 1)))
		require.NoError(t, err)
	}
	_, err := f.orders.CreateOrder(ctx, domain.CreateOrderInput{UserID: 2, Items: []domain.ItemRequest{item(a.ID, 1)}})
	require.NoError(t, err)

	mine, err := f.orders.ListUserOrders(ctx, TestUserID, domain.NewPage(0, 10))
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	page, err := f.orders.ListUserOrders(ctx, TestUserID, domain.NewPage(1, 1))
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, mine[1].ID, page[0].ID)

	all, err := f.orders.ListOrders(ctx, domain.NewPage(0, 10))
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

// Random create/cancel traffic never drives stock negative, and stock always
// equals the initial count minus what live orders hold.
func TestOrderService_StockInvariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	initial := map[uint64]int{}
	var ids []uint64
	for i := 0; i < 4; i++ {
		p := seedProduct(t, f.store, CreateMockProduct("Trinket", "3.00", 6))
		initial[p.ID] = p.StockQuantity
		ids = append(ids, p.ID)
	}

	var live []uint64
	for step := 0; step < 300; step++ {
		if len(live) > 0 && rng.Intn(3) == 0 {
			idx := rng.Intn(len(live))
			ok, err := f.orders.CancelOrder(ctx, live[idx])
			require.NoError(t, err)
			require.True(t, ok)
			live = append(live[:idx], live[idx+1:]...)
			continue
		}

		var items []domain.ItemRequest
		for n := rng.Intn(3) + 1; n > 0; n-- {
			items = append(items, item(ids[rng.Intn(len(ids))], rng.Intn(4)+1))
		}
		order, err := f.orders.CreateOrder(ctx, orderInput(items...))
		if err != nil {
			require.ErrorIs(t, err, domain.ErrInsufficientStock)
			continue
		}
		live = append(live, order.ID)
	}

	held := map[uint64]int{}
	for _, id := range live {
		o, err := f.orders.GetOrderById(ctx, id)
		require.NoError(t, err)
		for _, it := range o.Items {
			held[it.ProductID] += it.Quantity
		}
	}
	for _, id := range ids {
		stock := stockOf(t, f.store, id)
		assert.GreaterOrEqual(t, stock, 0)
		assert.Equal(t, initial[id]-held[id], stock)
	}
}

func TestOrderService_ConcurrentOrdersNeverOversell(t *testing.T) {
	f := newFixture(t)
	a := seedProduct(t, f.store, CreateMockProduct("Product A", "10.00", 10))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.orders.CreateOrder(context.Background(), orderInput(item(a.ID, 1)))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 0, stockOf(t, f.store, a.ID))
}

func BenchmarkOrderService_CreateOrder(b *testing.B) {
	store := memory.NewStore()
	p := CreateMockProduct("Product A", "10.00", b.N+1)
	if err := store.Repositories().Products.Create(context.Background(), p); err != nil {
		b.Fatal(err)
	}

	c := new(mocks.MockProductCache)
	c.On("Invalidate", mock.Anything, mock.Anything).Return()
	pub := new(mocks.MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	svc := NewOrderService(store, c, pub)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = svc.CreateOrder(context.Background(), orderInput(item(p.ID, 1)))
	}
}
