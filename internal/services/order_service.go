package services

import (
	"aashop/internal/models"
	"aashop/internal/repositories"
)

// OrderService exposes read access to a user's orders. Orders are
// only created through CheckoutService.
type OrderService struct {
	orderRepo repositories.OrderRepository
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
	}
}

// GetUserOrders retrieves all orders belonging to the user.
func (s *OrderService) GetUserOrders(userID string) ([]models.Order, error) {
	return s.orderRepo.GetAllByUser(userID)
}

// GetOrderByID retrieves one of the user's orders. Another user's
// order is reported as not found.
func (s *OrderService) GetOrderByID(userID, id string) (*models.Order, error) {
	return s.orderRepo.GetByID(userID, id)
}
