package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"trinket-service/internal/domain"
	"trinket-service/internal/infra/cache"
	rabbit "trinket-service/internal/infra/rabbitmq"
	"trinket-service/internal/repository"
)

type OrderService struct {
	store     repository.Store
	cache     cache.ProductCacheInterface
	publisher rabbit.PublisherInterface
	now       func() time.Time
}

func NewOrderService(store repository.Store, c cache.ProductCacheInterface, pub rabbit.PublisherInterface) *OrderService {
	return &OrderService{
		store:     store,
		cache:     c,
		publisher: pub,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder validates every requested line against current stock, prices
// the order at today's product prices and reserves the stock. Either the
// order, its items and all reservations are committed, or nothing is.
func (u *OrderService) CreateOrder(ctx context.Context, in domain.CreateOrderInput) (*domain.Order, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Order
	err := u.store.WithinTx(ctx, func(r repository.Repositories) error {
		order := &domain.Order{
			UserID:          in.UserID,
			TotalAmount:     decimal.Zero,
			Status:          domain.StatusPending,
			ShippingAddress: in.ShippingAddress,
			OrderDate:       u.now(),
		}

		products, err := r.Products.FindManyForUpdate(ctx, in.SortedProductIDs())
		if err != nil {
			return err
		}
		for _, item := range in.Items {
			p := products[item.ProductID]
			if p == nil || !p.IsActive {
				return errors.Wrapf(domain.ErrProductNotFound, "product %d", item.ProductID)
			}
			if item.Quantity > p.StockQuantity {
				return &domain.InsufficientStockError{
					ProductID:   p.ID,
					ProductName: p.Name,
					Requested:   item.Quantity,
					Available:   p.StockQuantity,
				}
			}

			line := domain.OrderItem{
				ProductID: p.ID,
				Quantity:  item.Quantity,
				Price:     p.Price,
			}
			order.TotalAmount = order.TotalAmount.Add(line.LineTotal())
			order.Items = append(order.Items, line)
		}

		if err := r.Orders.Save(ctx, order); err != nil {
			return err
		}

		reserved := make(map[uint64]int, len(order.Items))
		for _, item := range order.Items {
			if _, err := r.Ledger.Reserve(ctx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, domain.ErrInsufficientStock) {
					p := products[item.ProductID]
					return &domain.InsufficientStockError{
						ProductID:   p.ID,
						ProductName: p.Name,
						Requested:   reserved[p.ID] + item.Quantity,
						Available:   p.StockQuantity,
					}
				}
				return err
			}
			reserved[item.ProductID] += item.Quantity
		}

		saved, err := r.Orders.FindByID(ctx, order.ID)
		if err != nil {
			return err
		}
		if saved == nil {
			return errors.Errorf("order %d vanished after insert", order.ID)
		}
		created = saved
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.cache.Invalidate(ctx, created.ProductIDs()...)
	u.publish(ctx, domain.EventOrderCreated, domain.NewOrderCreatedEvent(created))

	log.WithFields(log.Fields{
		"order_id": created.ID,
		"user_id":  created.UserID,
		"total":    created.TotalAmount.StringFixed(2),
		"items":    len(created.Items),
	}).Info("order created")
	return created, nil
}

func (u *OrderService) GetOrderById(ctx context.Context, id uint64) (*domain.Order, error) {
	o, err := u.store.Repositories().Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (u *OrderService) ListOrders(ctx context.Context, page domain.Page) ([]domain.Order, error) {
	return u.store.Repositories().Orders.FindAll(ctx, page)
}

func (u *OrderService) ListUserOrders(ctx context.Context, userID uint64, page domain.Page) ([]domain.Order, error) {
	return u.store.Repositories().Orders.FindByUser(ctx, userID, page)
}

// CancelOrder returns every reserved unit to stock and marks the order
// cancelled. It reports false, without error, when the order does not exist
// or has moved past processing.
func (u *OrderService) CancelOrder(ctx context.Context, id uint64) (bool, error) {
	var cancelled *domain.Order
	err := u.store.WithinTx(ctx, func(r repository.Repositories) error {
		o, err := r.Orders.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if o == nil || !o.Status.Cancellable() {
			return nil
		}
		if err := u.cancelLocked(ctx, r, o); err != nil {
			return err
		}
		cancelled = o
		return nil
	})
	if err != nil {
		return false, err
	}
	if cancelled == nil {
		log.WithField("order_id", id).Info("order not cancellable")
		return false, nil
	}

	u.afterCancel(ctx, cancelled)
	return true, nil
}

// cancelLocked must run inside the transaction that locked o.
func (u *OrderService) cancelLocked(ctx context.Context, r repository.Repositories, o *domain.Order) error {
	for _, item := range o.Items {
		if _, err := r.Ledger.Release(ctx, item.ProductID, item.Quantity); err != nil {
			return errors.Wrapf(err, "release stock for order %d", o.ID)
		}
	}
	o.Status = domain.StatusCancelled
	return r.Orders.UpdateStatus(ctx, o)
}

func (u *OrderService) afterCancel(ctx context.Context, o *domain.Order) {
	now := u.now()
	u.cache.Invalidate(ctx, o.ProductIDs()...)
	u.publish(ctx, domain.EventOrderCancelled, domain.NewOrderCancelledEvent(o, now))
	log.WithField("order_id", o.ID).Info("order cancelled")
}

// UpdateOrderStatus moves an order along the status graph. Moving to
// cancelled goes through the same stock release as CancelOrder.
func (u *OrderService) UpdateOrderStatus(ctx context.Context, id uint64, status string) (*domain.Order, error) {
	next, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	var (
		updated *domain.Order
		from    domain.OrderStatus
	)
	err = u.store.WithinTx(ctx, func(r repository.Repositories) error {
		o, err := r.Orders.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.ErrOrderNotFound
		}
		if !o.Status.CanTransitionTo(next) {
			return errors.Wrapf(domain.ErrInvalidTransition, "%s -> %s", o.Status, next)
		}
		from = o.Status

		if next == domain.StatusCancelled {
			if err := u.cancelLocked(ctx, r, o); err != nil {
				return err
			}
		} else {
			now := u.now()
			switch next {
			case domain.StatusShipped:
				o.ShippedDate = &now
			case domain.StatusDelivered:
				o.DeliveredDate = &now
			}
			o.Status = next
			if err := r.Orders.UpdateStatus(ctx, o); err != nil {
				return err
			}
		}

		fresh, err := r.Orders.FindByID(ctx, o.ID)
		if err != nil {
			return err
		}
		updated = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	if next == domain.StatusCancelled {
		u.afterCancel(ctx, updated)
	}
	u.publish(ctx, domain.EventOrderStatusChanged, domain.OrderStatusChangedEvent{
		OrderID:   updated.ID,
		From:      from,
		To:        next,
		ChangedAt: u.now(),
	})
	log.WithFields(log.Fields{"order_id": updated.ID, "from": from, "to": next}).Info("order status changed")
	return updated, nil
}

func (u *OrderService) publish(ctx context.Context, pattern string, evt any) {
	if err := u.publisher.Publish(ctx, pattern, evt); err != nil {
		log.WithError(err).WithField("pattern", pattern).Error("failed to publish event")
	}
}
