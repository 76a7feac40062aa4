package gormrepo

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"trinket-service/internal/domain"
	"trinket-service/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) Repositories() repository.Repositories {
	return newRepositories(s.db)
}

func (s *Store) WithinTx(ctx context.Context, fn func(r repository.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepositories(tx))
	})
}

func newRepositories(db *gorm.DB) repository.Repositories {
	return repository.Repositories{
		Products:   &productRepo{db: db},
		Categories: &categoryRepo{db: db},
		Ledger:     &ledger{db: db},
		Orders:     &orderRepo{db: db},
		Reviews:    &reviewRepo{db: db},
		Users:      &userRepo{db: db},
	}
}

// wrap annotates a driver error; unique-key violations become domain.ErrConflict.
func wrap(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Wrap(domain.ErrConflict, msg)
	}
	return errors.Wrap(err, msg)
}

func paginate(db *gorm.DB, page domain.Page) *gorm.DB {
	return db.Order("id").Offset(page.Skip).Limit(page.Limit)
}
