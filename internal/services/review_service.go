package services

import (
	"context"

	log "github.com/sirupsen/logrus"

	"trinket-service/internal/domain"
	"trinket-service/internal/repository"
)

type ReviewService struct {
	store repository.Store
}

func NewReviewService(store repository.Store) *ReviewService {
	return &ReviewService{store: store}
}

// CreateReview accepts one review per user and product. The review is marked
// as a verified purchase when the user has a delivered order for the product.
func (s *ReviewService) CreateReview(ctx context.Context, productID uint64, rv *domain.Review) (*domain.Review, error) {
	rv.ID = 0
	rv.ProductID = productID
	rv.HelpfulCount = 0
	if err := rv.Validate(); err != nil {
		return nil, err
	}

	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		p, err := r.Products.FindByID(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil || !p.IsActive {
			return domain.ErrProductNotFound
		}

		verified, err := r.Orders.HasDelivered(ctx, rv.UserID, productID)
		if err != nil {
			return err
		}
		rv.VerifiedPurchase = verified
		return r.Reviews.Create(ctx, rv)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"review_id":  rv.ID,
		"product_id": productID,
		"verified":   rv.VerifiedPurchase,
	}).Info("review created")
	return rv, nil
}

func (s *ReviewService) ListProductReviews(ctx context.Context, productID uint64, page domain.Page) ([]domain.Review, error) {
	repos := s.store.Repositories()
	p, err := repos.Products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrProductNotFound
	}
	return repos.Reviews.FindByProduct(ctx, productID, page)
}

func (s *ReviewService) MarkHelpful(ctx context.Context, reviewID uint64) (*domain.Review, error) {
	repos := s.store.Repositories()
	ok, err := repos.Reviews.IncrementHelpful(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrReviewNotFound
	}
	rv, err := repos.Reviews.FindByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if rv == nil {
		return nil, domain.ErrReviewNotFound
	}
	return rv, nil
}
