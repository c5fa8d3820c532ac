package models

import "time"

// Cart is the per-user mutable collection of items. There is at most
// one cart per user; it is created lazily on first access and emptied
// (not deleted) at checkout.
type Cart struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string     `json:"user_id" gorm:"uniqueIndex;type:varchar(36)"`
	Items     []CartItem `json:"items" gorm:"foreignKey:CartID"`
	CreatedAt time.Time  `json:"created_at"`
}

// CartItem is one (product, quantity) pair in a cart. A cart holds at
// most one row per product; repeated adds accumulate the quantity.
type CartItem struct {
	ID        string   `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CartID    string   `json:"cart_id" gorm:"type:varchar(36);uniqueIndex:idx_cart_product"`
	ProductID string   `json:"product_id" gorm:"type:varchar(36);uniqueIndex:idx_cart_product" validate:"required,uuid"`
	Quantity  int      `json:"quantity" validate:"required,gt=0"`
	Product   *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
