package repositories

import (
	"fmt"
	"sync"

	"aashop/internal/models"

	"github.com/google/uuid"
)

// MockCartRepository is an in-memory implementation of CartRepository.
type MockCartRepository struct {
	carts map[string]models.Cart // keyed by user ID
	mu    sync.Mutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		carts: make(map[string]models.Cart),
	}
}

// GetOrCreate returns the user's cart, creating it on first access.
func (r *MockCartRepository) GetOrCreate(userID string) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart := r.getOrCreateLocked(userID)
	copied := *cart
	copied.Items = append([]models.CartItem(nil), cart.Items...)
	return &copied, nil
}

// AddItem inserts a (product, quantity) pair, accumulating quantity
// when the product is already in the cart.
func (r *MockCartRepository) AddItem(userID, productID string, quantity int) (*models.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.getOrCreateLocked(userID)
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity += quantity
			item := cart.Items[i]
			r.carts[userID] = *cart
			return &item, nil
		}
	}

	item := models.CartItem{
		ID:        uuid.New().String(),
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
	}
	cart.Items = append(cart.Items, item)
	r.carts[userID] = *cart
	return &item, nil
}

// UpdateItemQuantity sets the quantity of one of the user's cart items.
func (r *MockCartRepository) UpdateItemQuantity(userID, itemID string, quantity int) (*models.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.getOrCreateLocked(userID)
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			cart.Items[i].Quantity = quantity
			item := cart.Items[i]
			r.carts[userID] = *cart
			return &item, nil
		}
	}
	return nil, fmt.Errorf("cart item with ID %s: %w", itemID, ErrNotFound)
}

// RemoveItem deletes one of the user's cart items.
func (r *MockCartRepository) RemoveItem(userID, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.getOrCreateLocked(userID)
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			r.carts[userID] = *cart
			return nil
		}
	}
	return fmt.Errorf("cart item with ID %s: %w", itemID, ErrNotFound)
}

// Clear deletes all items from the user's cart, keeping the cart.
func (r *MockCartRepository) Clear(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.getOrCreateLocked(userID)
	cart.Items = nil
	r.carts[userID] = *cart
	return nil
}

// clearByID empties a cart addressed by cart ID, returning how many
// items were removed. Used by MockOrderRepository.CreateCheckout.
func (r *MockCartRepository) clearByID(cartID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userID, cart := range r.carts {
		if cart.ID == cartID {
			removed := len(cart.Items)
			cart.Items = nil
			r.carts[userID] = cart
			return removed, nil
		}
	}
	return 0, fmt.Errorf("cart with ID %s: %w", cartID, ErrNotFound)
}

func (r *MockCartRepository) getOrCreateLocked(userID string) *models.Cart {
	cart, ok := r.carts[userID]
	if !ok {
		cart = models.Cart{
			ID:     uuid.New().String(),
			UserID: userID,
		}
		r.carts[userID] = cart
	}
	return &cart
}
