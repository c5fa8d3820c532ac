package repositories

import (
	"errors"
	"fmt"

	"aashop/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// GetAllByUser retrieves all orders belonging to a user, newest first.
func (r *GORMOrderRepository) GetAllByUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// GetByID retrieves a single order scoped to its owning user.
func (r *GORMOrderRepository) GetByID(userID, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").
		First(&order, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetByIDAny retrieves an order regardless of owner. Used by the
// webhook reconciliation path, which has no authenticated user.
func (r *GORMOrderRepository) GetByIDAny(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// Create adds a new order with its items.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// UpdateStatus updates the status of an order.
func (r *GORMOrderRepository) UpdateStatus(id string, status string) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update order status for order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s for status update: %w", id, ErrNotFound)
	}
	return nil
}

// CreateCheckout persists the order, its items, and the pending
// payment and empties the cart in one database transaction. The cart
// row is locked for the duration so two concurrent checkouts for the
// same user serialize; the loser sees an already-empty cart and gets
// ErrConflict with nothing written.
func (r *GORMOrderRepository) CreateCheckout(order *models.Order, payment *models.Payment, cartID string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		// SQLite rejects FOR UPDATE; its writer lock serializes the
		// transaction anyway.
		lookup := tx
		if tx.Dialector.Name() == "postgres" {
			lookup = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var cart models.Cart
		err := lookup.First(&cart, "id = ?", cartID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("cart with ID %s: %w", cartID, ErrNotFound)
			}
			return fmt.Errorf("failed to lock cart %s: %w", cartID, err)
		}

		res := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{})
		if res.Error != nil {
			return fmt.Errorf("failed to clear cart %s: %w", cartID, res.Error)
		}
		if res.RowsAffected == 0 {
			// Another checkout already snapshotted this cart.
			return fmt.Errorf("cart %s already checked out: %w", cartID, ErrConflict)
		}

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return nil
}
