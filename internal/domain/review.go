package domain

import (
	"strings"
	"time"
)

type Review struct {
	ID               uint64    `json:"review_id" gorm:"primaryKey;autoIncrement"`
	UserID           uint64    `json:"user_id" gorm:"not null;uniqueIndex:idx_reviews_user_product"`
	ProductID        uint64    `json:"product_id" gorm:"not null;uniqueIndex:idx_reviews_user_product;index"`
	Rating           int       `json:"rating" gorm:"not null"`
	Title            string    `json:"review_title" gorm:"size:255"`
	Text             string    `json:"review_text" gorm:"type:text"`
	HelpfulCount     int       `json:"helpful_count" gorm:"not null;default:0"`
	VerifiedPurchase bool      `json:"verified_purchase" gorm:"not null;default:false"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (r *Review) Validate() error {
	if r.UserID == 0 {
		return NewValidationError("user_id", "is required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return NewValidationError("rating", "must be between 1 and 5")
	}
	if len(strings.TrimSpace(r.Title)) > 255 {
		return NewValidationError("review_title", "must be at most 255 characters")
	}
	return nil
}
