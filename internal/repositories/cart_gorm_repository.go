package repositories

import (
	"errors"
	"fmt"

	"aashop/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// GetOrCreate returns the user's cart with items preloaded, creating
// an empty cart on first access. The unique index on user_id keeps
// two racing first accesses from producing two carts.
func (r *GORMCartRepository) GetOrCreate(userID string) (*models.Cart, error) {
	cart := models.Cart{UserID: userID}
	err := r.db.Where("user_id = ?", userID).
		Attrs(models.Cart{ID: uuid.New().String()}).
		FirstOrCreate(&cart).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get or create cart for user %s: %w", userID, err)
	}
	if err := r.db.Preload("Items.Product").First(&cart, "id = ?", cart.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart items for user %s: %w", userID, err)
	}
	return &cart, nil
}

// AddItem upserts a (product, quantity) pair into the user's cart.
// The ON CONFLICT increment makes concurrent adds for the same
// product accumulate instead of racing on read-modify-write.
func (r *GORMCartRepository) AddItem(userID, productID string, quantity int) (*models.CartItem, error) {
	cart, err := r.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}

	item := models.CartItem{
		ID:        uuid.New().String(),
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
	}
	err = r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("quantity + ?", quantity),
		}),
	}).Create(&item).Error
	if err != nil {
		return nil, fmt.Errorf("failed to add product %s to cart %s: %w", productID, cart.ID, err)
	}

	// Re-read: on the conflict path the returned struct does not carry
	// the accumulated quantity or the existing row's ID.
	var stored models.CartItem
	err = r.db.Preload("Product").
		First(&stored, "cart_id = ? AND product_id = ?", cart.ID, productID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cart item for product %s: %w", productID, err)
	}
	return &stored, nil
}

// UpdateItemQuantity sets the quantity of one of the user's cart items.
func (r *GORMCartRepository) UpdateItemQuantity(userID, itemID string, quantity int) (*models.CartItem, error) {
	item, err := r.getOwnedItem(userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := r.db.Model(item).Update("quantity", quantity).Error; err != nil {
		return nil, fmt.Errorf("failed to update cart item %s: %w", itemID, err)
	}
	item.Quantity = quantity
	return item, nil
}

// RemoveItem deletes one of the user's cart items.
func (r *GORMCartRepository) RemoveItem(userID, itemID string) error {
	item, err := r.getOwnedItem(userID, itemID)
	if err != nil {
		return err
	}
	if err := r.db.Delete(item).Error; err != nil {
		return fmt.Errorf("failed to remove cart item %s: %w", itemID, err)
	}
	return nil
}

// Clear deletes all items from the user's cart, keeping the cart row.
func (r *GORMCartRepository) Clear(userID string) error {
	cart, err := r.GetOrCreate(userID)
	if err != nil {
		return err
	}
	if err := r.db.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart %s: %w", cart.ID, err)
	}
	return nil
}

// getOwnedItem loads a cart item joined against the requesting user's
// cart. An item that exists but belongs to another user's cart is
// reported as not found, never as forbidden.
func (r *GORMCartRepository) getOwnedItem(userID, itemID string) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart item with ID %s: %w", itemID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart item %s: %w", itemID, err)
	}
	return &item, nil
}
