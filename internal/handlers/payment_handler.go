package handlers

import (
	"errors"
	"fmt"
	"log"

	"aashop/internal/middleware"
	"aashop/internal/repositories"
	"aashop/internal/services"
	"aashop/pkg/chapa"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles payment initiation, verification, and the
// gateway webhook.
type PaymentHandler struct {
	service  *services.PaymentService
	validate *validator.Validate
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the authenticated payment routes.
// The webhook is registered separately because it must stay outside
// the auth middleware.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	paymentRoutes := router.Group("/payments")
	paymentRoutes.Post("/initiate", h.HandleInitiate)
	paymentRoutes.Get("/verify/:tx_ref", h.HandleVerify)
}

// RegisterWebhookRoute registers the unauthenticated gateway callback.
func (h *PaymentHandler) RegisterWebhookRoute(router fiber.Router) {
	router.Post("/payments/webhook", h.HandleWebhook)
}

// HandleInitiate starts a payment for one of the user's orders.
func (h *PaymentHandler) HandleInitiate(c *fiber.Ctx) error {
	var input services.InitiateInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing initiate request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationMessages(err),
		})
	}

	userID := middleware.UserID(c)
	outcome, err := h.service.Initiate(c.UserContext(), userID, input)
	if err != nil {
		log.Printf("Payment initiation failed for order %s: %v", input.OrderID, err)
		return h.paymentError(c, err, fmt.Sprintf("Order with ID %s not found", input.OrderID))
	}

	return c.JSON(fiber.Map{
		"chapa_response": outcome.Raw,
		"payment":        outcome.Payment,
	})
}

// HandleVerify polls the gateway for a transaction and reconciles the
// local payment.
func (h *PaymentHandler) HandleVerify(c *fiber.Ctx) error {
	txRef := c.Params("tx_ref")
	outcome, err := h.service.Verify(c.UserContext(), txRef)
	if err != nil {
		log.Printf("Payment verification failed for tx_ref %s: %v", txRef, err)
		return h.paymentError(c, err, fmt.Sprintf("Payment with tx_ref %s not found", txRef))
	}

	return c.JSON(fiber.Map{
		"chapa_response": outcome.Raw,
		"payment":        outcome.Payment,
	})
}

// HandleWebhook receives the gateway's asynchronous callback. Unknown
// tx_refs are acknowledged with 200 so the provider stops retrying.
func (h *PaymentHandler) HandleWebhook(c *fiber.Ctx) error {
	if !h.service.ValidWebhookSignature(c.Body(), c.Get("Chapa-Signature")) {
		log.Printf("Rejected webhook with bad signature from %s", c.IP())
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid webhook signature",
		})
	}

	var payload services.WebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid webhook payload",
			"error":   err.Error(),
		})
	}
	if payload.TxRef == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "tx_ref is required",
		})
	}

	if err := h.service.HandleWebhook(payload); err != nil {
		log.Printf("Webhook processing failed for tx_ref %s: %v", payload.TxRef, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not process webhook",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Webhook processed",
	})
}

// paymentError maps payment-flow errors onto HTTP statuses, keeping
// "provider unreachable" distinct from "provider declined".
func (h *PaymentHandler) paymentError(c *fiber.Ctx, err error, notFoundMsg string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": notFoundMsg,
		})
	}
	if errors.Is(err, chapa.ErrUnreachable) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "Payment gateway is unreachable",
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
		"message": "Payment operation failed",
		"error":   err.Error(),
	})
}
