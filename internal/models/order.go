package models

import "time"

// Order status values. An order starts pending and moves to paid when
// the gateway confirms its payment, or cancelled.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
)

// OrderItem represents a single item within an order. Price is the
// unit price captured at order time, so later product price changes
// do not alter historical orders.
type OrderItem struct {
	ID        string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string  `json:"order_id" gorm:"type:varchar(36);index"`
	ProductID string  `json:"product_id" gorm:"type:varchar(36)"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"` // Price at the time of order
}

// Order is a snapshot of a cart at checkout time.
type Order struct {
	ID         string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string      `json:"user_id" gorm:"type:varchar(36);index"`
	Items      []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	TotalPrice float64     `json:"total_price"`
	Status     string      `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}
