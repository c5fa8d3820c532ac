package repositories

import (
	"errors"
	"fmt"

	"aashop/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMPaymentRepository is a GORM implementation of PaymentRepository.
type GORMPaymentRepository struct {
	db *gorm.DB
}

// NewGORMPaymentRepository creates a new instance of GORMPaymentRepository.
func NewGORMPaymentRepository(db *gorm.DB) *GORMPaymentRepository {
	return &GORMPaymentRepository{
		db: db,
	}
}

// Create adds a new payment row.
func (r *GORMPaymentRepository) Create(payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if err := r.db.Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetByTxRef retrieves a payment by its transaction reference.
func (r *GORMPaymentRepository) GetByTxRef(txRef string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.First(&payment, "tx_ref = ?", txRef).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment with tx_ref %s: %w", txRef, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment by tx_ref %s: %w", txRef, err)
	}
	return &payment, nil
}

// GetByOrderID retrieves the payment linked to an order.
func (r *GORMPaymentRepository) GetByOrderID(orderID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.First(&payment, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment for order %s: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment for order %s: %w", orderID, err)
	}
	return &payment, nil
}

// MarkTerminal performs the pending -> terminal transition as a single
// conditional UPDATE, so concurrent webhook deliveries for the same
// tx_ref result in exactly one transition.
func (r *GORMPaymentRepository) MarkTerminal(txRef, status, transactionID string) (bool, error) {
	if status != models.PaymentStatusCompleted && status != models.PaymentStatusFailed {
		return false, fmt.Errorf("invalid terminal payment status: %s", status)
	}

	res := r.db.Model(&models.Payment{}).
		Where("tx_ref = ? AND status = ?", txRef, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":         status,
			"transaction_id": transactionID,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to update payment %s: %w", txRef, res.Error)
	}
	if res.RowsAffected == 0 {
		// Either unknown tx_ref or already terminal; the caller
		// distinguishes via GetByTxRef.
		return false, nil
	}
	return true, nil
}
