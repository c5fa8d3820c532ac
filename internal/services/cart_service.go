package services

import (
	"fmt"

	"aashop/internal/models"
	"aashop/internal/repositories"
)

// CartService handles business logic for the per-user shopping cart.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart returns the user's cart, creating it on first access.
// Calling it twice yields the same cart.
func (s *CartService) GetCart(userID string) (*models.Cart, error) {
	return s.cartRepo.GetOrCreate(userID)
}

// AddItem puts a product into the user's cart. Adding the same
// product again accumulates the quantity on the existing item.
func (s *CartService) AddItem(userID, productID string, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	// The product must exist before it can be carted.
	if _, err := s.productRepo.GetByID(productID); err != nil {
		return nil, err
	}

	item, err := s.cartRepo.AddItem(userID, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to add product %s to cart: %w", productID, err)
	}
	return item, nil
}

// UpdateItem sets the quantity of one of the user's cart items.
// Items in other users' carts are reported as not found.
func (s *CartService) UpdateItem(userID, itemID string, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	return s.cartRepo.UpdateItemQuantity(userID, itemID, quantity)
}

// RemoveItem deletes one of the user's cart items.
func (s *CartService) RemoveItem(userID, itemID string) error {
	return s.cartRepo.RemoveItem(userID, itemID)
}

// ClearCart empties the user's cart, keeping the cart itself.
func (s *CartService) ClearCart(userID string) error {
	return s.cartRepo.Clear(userID)
}
