package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderCancelled     = "order.cancelled"
	EventOrderStatusChanged = "order.status_changed"
)

type OrderEventItem struct {
	ProductID uint64          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderCreatedEvent struct {
	OrderID     uint64           `json:"orderId"`
	UserID      uint64           `json:"userId"`
	TotalAmount decimal.Decimal  `json:"totalAmount"`
	Items       []OrderEventItem `json:"items"`
	CreatedAt   time.Time        `json:"createdAt"`
}

type OrderCancelledEvent struct {
	OrderID     uint64           `json:"orderId"`
	UserID      uint64           `json:"userId"`
	Released    []OrderEventItem `json:"released"`
	CancelledAt time.Time        `json:"cancelledAt"`
}

type OrderStatusChangedEvent struct {
	OrderID   uint64      `json:"orderId"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	ChangedAt time.Time   `json:"changedAt"`
}

func eventItems(items []OrderItem) []OrderEventItem {
	out := make([]OrderEventItem, 0, len(items))
	for _, item := range items {
		out = append(out, OrderEventItem{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price})
	}
	return out
}

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID:     o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		Items:       eventItems(o.Items),
		CreatedAt:   o.OrderDate,
	}
}

func NewOrderCancelledEvent(o *Order, at time.Time) OrderCancelledEvent {
	return OrderCancelledEvent{
		OrderID:     o.ID,
		UserID:      o.UserID,
		Released:    eventItems(o.Items),
		CancelledAt: at,
	}
}
