package http

import (
	"github.com/shopspring/decimal"

	"trinket-service/internal/domain"
)

type OrderItemRequest struct {
	ProductID uint64 `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type CreateOrderRequest struct {
	UserID          uint64             `json:"user_id" binding:"required"`
	Items           []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	ShippingAddress *string            `json:"shipping_address"`
}

func (r CreateOrderRequest) toInput() domain.CreateOrderInput {
	in := domain.CreateOrderInput{
		UserID:          r.UserID,
		Items:           make([]domain.ItemRequest, 0, len(r.Items)),
		ShippingAddress: r.ShippingAddress,
	}
	for _, item := range r.Items {
		in.Items = append(in.Items, domain.ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return in
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type CancelOrderResponse struct {
	OrderID   uint64 `json:"order_id"`
	Cancelled bool   `json:"cancelled"`
}

type CreateProductRequest struct {
	Name                 string              `json:"name" binding:"required"`
	CategoryID           *uint64             `json:"category_id"`
	Subcategory          string              `json:"subcategory"`
	Brand                string              `json:"brand"`
	Description          string              `json:"description"`
	ImageURL             string              `json:"image_url"`
	Price                *decimal.Decimal    `json:"price" binding:"required"`
	StockQuantity        int                 `json:"stock_quantity"`
	Condition            string              `json:"condition"`
	Rarity               string              `json:"rarity"`
	YearManufactured     *int                `json:"year_manufactured"`
	Material             string              `json:"material"`
	Dimensions           string              `json:"dimensions"`
	AuthenticityVerified bool                `json:"authenticity_verified"`
	SuggestedPrice       decimal.NullDecimal `json:"suggested_price"`
	MarketAverage        decimal.NullDecimal `json:"market_average"`
}

func (r CreateProductRequest) toProduct() *domain.Product {
	var price decimal.Decimal
	if r.Price != nil {
		price = *r.Price
	}
	return &domain.Product{
		Name:                 r.Name,
		CategoryID:           r.CategoryID,
		Subcategory:          r.Subcategory,
		Brand:                r.Brand,
		Description:          r.Description,
		ImageURL:             r.ImageURL,
		Price:                price,
		StockQuantity:        r.StockQuantity,
		Condition:            r.Condition,
		Rarity:               r.Rarity,
		YearManufactured:     r.YearManufactured,
		Material:             r.Material,
		Dimensions:           r.Dimensions,
		AuthenticityVerified: r.AuthenticityVerified,
		SuggestedPrice:       r.SuggestedPrice,
		MarketAverage:        r.MarketAverage,
	}
}

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

type CreateReviewRequest struct {
	UserID uint64 `json:"user_id" binding:"required"`
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Title  string `json:"review_title"`
	Text   string `json:"review_text"`
}

type CreateUserRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
