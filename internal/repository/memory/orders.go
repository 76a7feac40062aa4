package memory

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"trinket-service/internal/domain"
)

type orderRepo struct{ *view }

func (r *orderRepo) Save(_ context.Context, o *domain.Order) error {
	st, done := r.enter()
	defer done()

	st.orderSeq++
	o.ID = st.orderSeq
	now := r.now()
	if o.OrderDate.IsZero() {
		o.OrderDate = now
	}
	for i := range o.Items {
		st.itemSeq++
		o.Items[i].ID = st.itemSeq
		o.Items[i].OrderID = o.ID
		if o.Items[i].CreatedAt.IsZero() {
			o.Items[i].CreatedAt = now
		}
	}
	st.orders[o.ID] = detach(o)
	return nil
}

func (r *orderRepo) FindByID(_ context.Context, id uint64) (*domain.Order, error) {
	st, done := r.enter()
	defer done()
	return st.order(id), nil
}

func (r *orderRepo) FindByIDForUpdate(ctx context.Context, id uint64) (*domain.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *orderRepo) FindAll(_ context.Context, page domain.Page) ([]domain.Order, error) {
	return r.collect(page, func(*domain.Order) bool { return true }), nil
}

func (r *orderRepo) FindByUser(_ context.Context, userID uint64, page domain.Page) ([]domain.Order, error) {
	return r.collect(page, func(o *domain.Order) bool { return o.UserID == userID }), nil
}

func (r *orderRepo) UpdateStatus(_ context.Context, o *domain.Order) error {
	st, done := r.enter()
	defer done()

	stored, ok := st.orders[o.ID]
	if !ok {
		return errors.Wrapf(domain.ErrOrderNotFound, "update status of order %d", o.ID)
	}
	stored.Status = o.Status
	stored.ShippedDate = o.ShippedDate
	stored.DeliveredDate = o.DeliveredDate
	st.orders[o.ID] = stored
	return nil
}

func (r *orderRepo) HasDelivered(_ context.Context, userID, productID uint64) (bool, error) {
	st, done := r.enter()
	defer done()

	for _, o := range st.orders {
		if o.UserID != userID || o.Status != domain.StatusDelivered {
			continue
		}
		for _, item := range o.Items {
			if item.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *orderRepo) collect(page domain.Page, keep func(*domain.Order) bool) []domain.Order {
	st, done := r.enter()
	defer done()

	ids := make([]uint64, 0, len(st.orders))
	for id, o := range st.orders {
		if keep(&o) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	start, end := page.Window(len(ids))

	out := make([]domain.Order, 0, end-start)
	for _, id := range ids[start:end] {
		out = append(out, *st.order(id))
	}
	return out
}

// order returns a copy of the stored order with each item's product attached,
// mirroring the relational preload.
func (st *state) order(id uint64) *domain.Order {
	o, ok := st.orders[id]
	if !ok {
		return nil
	}
	items := make([]domain.OrderItem, len(o.Items))
	for i, item := range o.Items {
		item.Product = st.product(item.ProductID, false)
		items[i] = item
	}
	o.Items = items
	return &o
}

func detach(o *domain.Order) domain.Order {
	stored := *o
	stored.Items = make([]domain.OrderItem, len(o.Items))
	for i, item := range o.Items {
		item.Product = nil
		stored.Items[i] = item
	}
	return stored
}
