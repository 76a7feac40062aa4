package gormrepo

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"trinket-service/internal/domain"
)

type userRepo struct {
	db *gorm.DB
}

func (r *userRepo) Create(ctx context.Context, u *domain.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return wrap(err, "insert user")
	}
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, id uint64) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "find user %d", id)
	}
	return &u, nil
}

func (r *userRepo) FindAll(ctx context.Context, page domain.Page) ([]domain.User, error) {
	var out []domain.User
	if err := paginate(r.db.WithContext(ctx), page).Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	return out, nil
}

func (r *userRepo) Save(ctx context.Context, u *domain.User) error {
	if err := r.db.WithContext(ctx).Save(u).Error; err != nil {
		return wrap(err, "save user")
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&domain.User{}, id)
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "delete user %d", id)
	}
	return res.RowsAffected > 0, nil
}
