package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trinket-service/internal/domain"
)

func (h *Handler) ListProductReviews(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, err := queryPage(c)
	if err != nil {
		respondError(c, err)
		return
	}
	reviews, err := h.reviews.ListProductReviews(c.Request.Context(), id, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(reviews))
}

func (h *Handler) CreateReview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	rv, err := h.reviews.CreateReview(c.Request.Context(), id, &domain.Review{
		UserID: req.UserID,
		Rating: req.Rating,
		Title:  req.Title,
		Text:   req.Text,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rv)
}

func (h *Handler) MarkReviewHelpful(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rv, err := h.reviews.MarkHelpful(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rv)
}
