// Package memory is a process-local repository.Store. Transactions are
// serialized behind one mutex and applied to a copy of the data set, which
// replaces the live set only on commit.
package memory

import (
	"context"
	"sync"
	"time"

	"trinket-service/internal/domain"
	"trinket-service/internal/repository"
)

type state struct {
	products   map[uint64]domain.Product
	categories map[uint64]domain.Category
	orders     map[uint64]domain.Order
	reviews    map[uint64]domain.Review
	users      map[uint64]domain.User

	productSeq  uint64
	categorySeq uint64
	orderSeq    uint64
	itemSeq     uint64
	reviewSeq   uint64
	userSeq     uint64
}

func newState() *state {
	return &state{
		products:   make(map[uint64]domain.Product),
		categories: make(map[uint64]domain.Category),
		orders:     make(map[uint64]domain.Order),
		reviews:    make(map[uint64]domain.Review),
		users:      make(map[uint64]domain.User),
	}
}

func (s *state) clone() *state {
	c := *s
	c.products = copyMap(s.products)
	c.categories = copyMap(s.categories)
	c.reviews = copyMap(s.reviews)
	c.users = copyMap(s.users)
	c.orders = make(map[uint64]domain.Order, len(s.orders))
	for id, o := range s.orders {
		o.Items = append([]domain.OrderItem(nil), o.Items...)
		c.orders[id] = o
	}
	return &c
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

func NewStore() *Store {
	return &Store{st: newState(), now: time.Now}
}

var _ repository.Store = (*Store)(nil)

// Repositories must not be used from inside a WithinTx callback.
func (s *Store) Repositories() repository.Repositories {
	return s.bind(nil)
}

func (s *Store) WithinTx(ctx context.Context, fn func(r repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(s.bind(work)); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) bind(tx *state) repository.Repositories {
	v := &view{store: s, tx: tx}
	return repository.Repositories{
		Products:   &productRepo{v},
		Categories: &categoryRepo{v},
		Ledger:     &ledger{v},
		Orders:     &orderRepo{v},
		Reviews:    &reviewRepo{v},
		Users:      &userRepo{v},
	}
}

// view resolves the data set a repository call works on: the transaction's
// private copy, or the live set under the store lock.
type view struct {
	store *Store
	tx    *state
}

func (v *view) enter() (*state, func()) {
	if v.tx != nil {
		return v.tx, func() {}
	}
	v.store.mu.Lock()
	return v.store.st, v.store.mu.Unlock
}

func (v *view) now() time.Time {
	return v.store.now()
}
