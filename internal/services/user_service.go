package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"trinket-service/internal/domain"
	"trinket-service/internal/repository"
)

type UserService struct {
	store repository.Store
	cost  int
}

func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store, cost: bcrypt.DefaultCost}
}

func (s *UserService) CreateUser(ctx context.Context, in domain.CreateUserInput) (*domain.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &domain.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}
	if err := s.store.Repositories().Users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint64) (*domain.User, error) {
	u, err := s.store.Repositories().Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *UserService) ListUsers(ctx context.Context, page domain.Page) ([]domain.User, error) {
	return s.store.Repositories().Users.FindAll(ctx, page)
}

func (s *UserService) UpdateUser(ctx context.Context, id uint64, upd domain.UserUpdate) (*domain.User, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}
	if upd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*upd.Email))
		upd.Email = &email
	}

	var updated *domain.User
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		u, err := r.Users.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.ErrUserNotFound
		}
		upd.Apply(u)
		if err := r.Users.Save(ctx, u); err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id uint64) error {
	ok, err := s.store.Repositories().Users.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrUserNotFound
	}
	return nil
}
