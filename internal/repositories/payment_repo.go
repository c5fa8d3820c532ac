package repositories

import (
	"aashop/internal/models"
)

// PaymentRepository defines the interface for payment data access.
type PaymentRepository interface {
	Create(payment *models.Payment) error
	GetByTxRef(txRef string) (*models.Payment, error)
	GetByOrderID(orderID string) (*models.Payment, error)
	// MarkTerminal transitions a payment from pending to the given
	// terminal status, recording the gateway transaction id. It
	// returns true when this call performed the transition and false
	// when the payment was already terminal, so repeated webhook
	// deliveries reconcile to exactly one transition.
	MarkTerminal(txRef, status, transactionID string) (bool, error)
}
