package models

import "time"

// Payment status values. pending is the only non-terminal state;
// completed and failed accept no further transitions.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Payment tracks one gateway transaction for an order. TxRef is the
// locally generated UUID that correlates webhook and verify callbacks
// with this row.
type Payment struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID       string    `json:"order_id" gorm:"type:varchar(36);index"`
	TxRef         string    `json:"tx_ref" gorm:"uniqueIndex;type:varchar(64)"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency" gorm:"type:varchar(8)"`
	TransactionID string    `json:"transaction_id" gorm:"type:varchar(100)"` // Gateway-side id, set on completion
	Status        string    `json:"status" gorm:"type:varchar(16);index"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Terminal reports whether the payment has reached a final state.
func (p *Payment) Terminal() bool {
	return p.Status == PaymentStatusCompleted || p.Status == PaymentStatusFailed
}
