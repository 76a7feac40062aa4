package memory

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"trinket-service/internal/domain"
)

type reviewRepo struct{ *view }

func (r *reviewRepo) Create(_ context.Context, rv *domain.Review) error {
	st, done := r.enter()
	defer done()

	for _, existing := range st.reviews {
		if existing.UserID == rv.UserID && existing.ProductID == rv.ProductID {
			return errors.Wrap(domain.ErrConflict, "insert review")
		}
	}
	st.reviewSeq++
	rv.ID = st.reviewSeq
	now := r.now()
	rv.CreatedAt, rv.UpdatedAt = now, now
	st.reviews[rv.ID] = *rv
	return nil
}

func (r *reviewRepo) FindByID(_ context.Context, id uint64) (*domain.Review, error) {
	st, done := r.enter()
	defer done()

	rv, ok := st.reviews[id]
	if !ok {
		return nil, nil
	}
	return &rv, nil
}

func (r *reviewRepo) FindByProduct(_ context.Context, productID uint64, page domain.Page) ([]domain.Review, error) {
	st, done := r.enter()
	defer done()

	out := make([]domain.Review, 0)
	for _, rv := range st.reviews {
		if rv.ProductID == productID {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	start, end := page.Window(len(out))
	return out[start:end], nil
}

func (r *reviewRepo) IncrementHelpful(_ context.Context, id uint64) (bool, error) {
	st, done := r.enter()
	defer done()

	rv, ok := st.reviews[id]
	if !ok {
		return false, nil
	}
	rv.HelpfulCount++
	st.reviews[id] = rv
	return true, nil
}

type userRepo struct{ *view }

func (r *userRepo) Create(_ context.Context, u *domain.User) error {
	st, done := r.enter()
	defer done()

	if st.userTaken(u) {
		return errors.Wrap(domain.ErrConflict, "insert user")
	}
	st.userSeq++
	u.ID = st.userSeq
	now := r.now()
	u.CreatedAt, u.UpdatedAt = now, now
	st.users[u.ID] = *u
	return nil
}

func (r *userRepo) FindByID(_ context.Context, id uint64) (*domain.User, error) {
	st, done := r.enter()
	defer done()

	u, ok := st.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepo) FindAll(_ context.Context, page domain.Page) ([]domain.User, error) {
	st, done := r.enter()
	defer done()

	out := make([]domain.User, 0, len(st.users))
	for _, u := range st.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	start, end := page.Window(len(out))
	return out[start:end], nil
}

func (r *userRepo) Save(_ context.Context, u *domain.User) error {
	st, done := r.enter()
	defer done()

	if _, ok := st.users[u.ID]; !ok {
		return errors.Wrapf(domain.ErrUserNotFound, "save user %d", u.ID)
	}
	if st.userTaken(u) {
		return errors.Wrap(domain.ErrConflict, "save user")
	}
	u.UpdatedAt = r.now()
	st.users[u.ID] = *u
	return nil
}

func (r *userRepo) Delete(_ context.Context, id uint64) (bool, error) {
	st, done := r.enter()
	defer done()

	if _, ok := st.users[id]; !ok {
		return false, nil
	}
	delete(st.users, id)
	return true, nil
}

func (st *state) userTaken(u *domain.User) bool {
	for id, existing := range st.users {
		if id == u.ID {
			continue
		}
		if existing.Username == u.Username || existing.Email == u.Email {
			return true
		}
	}
	return false
}
