package repositories

import (
	"fmt"
	"sync"
	"time"

	"aashop/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
// It shares item state with a MockCartRepository so CreateCheckout can
// empty the cart atomically under one lock.
type MockOrderRepository struct {
	orders   map[string]models.Order
	payments *MockPaymentRepository
	carts    *MockCartRepository
	mu       sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
// carts and payments may be nil when CreateCheckout is not exercised.
func NewMockOrderRepository(carts *MockCartRepository, payments *MockPaymentRepository) *MockOrderRepository {
	return &MockOrderRepository{
		orders:   make(map[string]models.Order),
		payments: payments,
		carts:    carts,
	}
}

// GetAllByUser returns all orders belonging to a user.
func (r *MockOrderRepository) GetAllByUser(userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0)
	for _, order := range r.orders {
		if order.UserID == userID {
			orderList = append(orderList, order)
		}
	}
	return orderList, nil
}

// GetByID returns an order by its ID, scoped to the owning user.
func (r *MockOrderRepository) GetByID(userID, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok || order.UserID != userID {
		return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	return &order, nil
}

// GetByIDAny returns an order by its ID regardless of owner.
func (r *MockOrderRepository) GetByIDAny(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	return &order, nil
}

// Create adds a new order.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// UpdateStatus updates the status of an order.
func (r *MockOrderRepository) UpdateStatus(id string, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s for status update: %w", id, ErrNotFound)
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// CreateCheckout stores the order and payment and empties the cart.
// The cart repository's lock covers the empty-check so two concurrent
// checkouts cannot both snapshot the same cart.
func (r *MockOrderRepository) CreateCheckout(order *models.Order, payment *models.Payment, cartID string) error {
	if r.carts == nil || r.payments == nil {
		return fmt.Errorf("mock order repository not wired for checkout")
	}

	cleared, err := r.carts.clearByID(cartID)
	if err != nil {
		return err
	}
	if cleared == 0 {
		return fmt.Errorf("cart %s already checked out: %w", cartID, ErrConflict)
	}

	if err := r.Create(order); err != nil {
		return err
	}
	return r.payments.Create(payment)
}
