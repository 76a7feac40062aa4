package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !status.Valid() {
		return "", NewValidationError("status", "must be one of pending, processing, shipped, delivered, cancelled")
	}
	return status, nil
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Cancellable reports whether stock can still be returned for the order.
func (s OrderStatus) Cancellable() bool {
	return s == StatusPending || s == StatusProcessing
}

func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type Order struct {
	ID              uint64          `json:"order_id" gorm:"primaryKey;autoIncrement"`
	UserID          uint64          `json:"user_id" gorm:"not null;index"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	ShippingAddress *string         `json:"shipping_address" gorm:"type:text"`
	OrderDate       time.Time       `json:"order_date" gorm:"autoCreateTime"`
	ShippedDate     *time.Time      `json:"shipped_date"`
	DeliveredDate   *time.Time      `json:"delivered_date"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem is a line of an order. Price is the unit price at the moment
// the order was placed and never follows later product price edits.
type OrderItem struct {
	ID        uint64          `json:"order_item_id" gorm:"primaryKey;autoIncrement"`
	OrderID   uint64          `json:"order_id" gorm:"not null;index"`
	ProductID uint64          `json:"product_id" gorm:"not null;index"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time       `json:"created_at" gorm:"autoCreateTime"`
	Product   *Product        `json:"product" gorm:"foreignKey:ProductID"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemRequest is one requested line of a new order.
type ItemRequest struct {
	ProductID uint64
	Quantity  int
}

type CreateOrderInput struct {
	UserID          uint64
	Items           []ItemRequest
	ShippingAddress *string
}

// SortedProductIDs returns the distinct requested products in ascending
// order, the order in which their rows are locked.
func (in CreateOrderInput) SortedProductIDs() []uint64 {
	ids := make([]uint64, 0, len(in.Items))
	for _, item := range in.Items {
		ids = append(ids, item.ProductID)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

func (in CreateOrderInput) Validate() error {
	if in.UserID == 0 {
		return NewValidationError("user_id", "is required")
	}
	if len(in.Items) == 0 {
		return NewValidationError("items", "must be a non-empty list")
	}
	for _, item := range in.Items {
		if item.ProductID == 0 {
			return NewValidationError("items.product_id", "is required")
		}
		if item.Quantity <= 0 {
			return NewValidationError("items.quantity", "must be a positive integer")
		}
	}
	return nil
}

// ProductIDs returns the distinct products referenced by the order.
func (o *Order) ProductIDs() []uint64 {
	seen := make(map[uint64]struct{}, len(o.Items))
	ids := make([]uint64, 0, len(o.Items))
	for _, item := range o.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}
