package repositories

import (
	"aashop/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAllByUser(userID string) ([]models.Order, error)
	// GetByID returns the order only when it belongs to the given
	// user; orders of other users are reported as ErrNotFound.
	GetByID(userID, id string) (*models.Order, error)
	GetByIDAny(id string) (*models.Order, error)
	Create(order *models.Order) error
	UpdateStatus(id string, status string) error
	// CreateCheckout persists order, items, and payment and empties
	// the cart in a single atomic unit. When another checkout emptied
	// the cart first, it returns ErrConflict and writes nothing.
	CreateCheckout(order *models.Order, payment *models.Payment, cartID string) error
}
