package handlers

import (
	"errors"
	"log"

	"aashop/internal/middleware"
	"aashop/internal/repositories"
	"aashop/internal/services"
	"aashop/pkg/chapa"

	"github.com/gofiber/fiber/v2"
)

// CheckoutHandler handles the cart-to-order checkout endpoint.
type CheckoutHandler struct {
	service *services.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(service *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
	}
}

// RegisterRoutes registers the checkout route with the Fiber app.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/checkout", h.HandleCheckout)
}

// HandleCheckout converts the authenticated user's cart into an order
// and returns the order, the pending payment, and the gateway's
// checkout URL.
func (h *CheckoutHandler) HandleCheckout(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	result, err := h.service.Checkout(c.UserContext(), userID)
	if err != nil {
		log.Printf("Checkout failed for user %s: %v", userID, err)
		switch {
		case errors.Is(err, services.ErrCartEmpty):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Cannot check out an empty cart",
			})
		case errors.Is(err, repositories.ErrConflict):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Another checkout for this cart is already in progress",
			})
		case errors.Is(err, repositories.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Checkout failed",
				"error":   err.Error(),
			})
		case errors.Is(err, chapa.ErrUnreachable):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"message": "Payment gateway is unreachable, payment marked failed",
				"error":   err.Error(),
			})
		}
		var apiErr *chapa.APIError
		if errors.As(err, &apiErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Payment gateway rejected the transaction",
				"error":   apiErr.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not complete checkout",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order":          result.Order,
		"payment":        result.Payment,
		"chapa_response": result.Gateway.Raw,
		"checkout_url":   result.Gateway.CheckoutURL,
	})
}
