package repositories

import (
	"fmt"
	"sync"
	"time"

	"aashop/internal/models"

	"github.com/google/uuid"
)

// MockPaymentRepository is an in-memory implementation of PaymentRepository.
type MockPaymentRepository struct {
	payments map[string]models.Payment // keyed by tx_ref
	mu       sync.RWMutex
}

// NewMockPaymentRepository creates a new instance of MockPaymentRepository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]models.Payment),
	}
}

// Create adds a new payment row.
func (r *MockPaymentRepository) Create(payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if _, exists := r.payments[payment.TxRef]; exists {
		return fmt.Errorf("payment with tx_ref %s already exists: %w", payment.TxRef, ErrConflict)
	}
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = time.Now()
	r.payments[payment.TxRef] = *payment
	return nil
}

// GetByTxRef retrieves a payment by its transaction reference.
func (r *MockPaymentRepository) GetByTxRef(txRef string) (*models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	payment, ok := r.payments[txRef]
	if !ok {
		return nil, fmt.Errorf("payment with tx_ref %s: %w", txRef, ErrNotFound)
	}
	return &payment, nil
}

// GetByOrderID retrieves the payment linked to an order.
func (r *MockPaymentRepository) GetByOrderID(orderID string) (*models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, payment := range r.payments {
		if payment.OrderID == orderID {
			p := payment
			return &p, nil
		}
	}
	return nil, fmt.Errorf("payment for order %s: %w", orderID, ErrNotFound)
}

// MarkTerminal transitions a pending payment to a terminal status.
// Returns false without error when the payment is already terminal.
func (r *MockPaymentRepository) MarkTerminal(txRef, status, transactionID string) (bool, error) {
	if status != models.PaymentStatusCompleted && status != models.PaymentStatusFailed {
		return false, fmt.Errorf("invalid terminal payment status: %s", status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	payment, ok := r.payments[txRef]
	if !ok || payment.Status != models.PaymentStatusPending {
		return false, nil
	}
	payment.Status = status
	payment.TransactionID = transactionID
	payment.UpdatedAt = time.Now()
	r.payments[txRef] = payment
	return true, nil
}
