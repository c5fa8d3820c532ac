package repositories

import (
	"aashop/internal/models"
)

// CartRepository defines the interface for cart data access. Every
// operation is scoped to the owning user; item lookups that cross a
// user boundary report ErrNotFound.
type CartRepository interface {
	// GetOrCreate returns the user's cart with items preloaded,
	// creating an empty cart on first access.
	GetOrCreate(userID string) (*models.Cart, error)
	// AddItem inserts a (product, quantity) pair into the user's cart,
	// accumulating the quantity when the product is already present.
	// The increment is atomic with respect to concurrent adds.
	AddItem(userID, productID string, quantity int) (*models.CartItem, error)
	// UpdateItemQuantity sets the quantity of one of the user's cart items.
	UpdateItemQuantity(userID, itemID string, quantity int) (*models.CartItem, error)
	// RemoveItem deletes one of the user's cart items.
	RemoveItem(userID, itemID string) error
	// Clear deletes all items from the user's cart, keeping the cart row.
	Clear(userID string) error
}
