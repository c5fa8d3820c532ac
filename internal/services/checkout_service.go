package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"aashop/internal/models"
	"aashop/internal/repositories"
	"aashop/pkg/chapa"

	"github.com/google/uuid"
)

// CheckoutConfig carries the request-independent parameters of a
// checkout: the currency orders are charged in and the URLs handed to
// the gateway for callbacks and customer redirects.
type CheckoutConfig struct {
	Currency    string
	CallbackURL string
	ReturnURL   string
}

// CheckoutResult is the composite response of a successful checkout.
type CheckoutResult struct {
	Order   *models.Order
	Payment *models.Payment
	Gateway *chapa.InitializeResult
}

// CheckoutService converts a cart into an order with a pending
// payment and initializes the gateway transaction.
type CheckoutService struct {
	cartRepo    repositories.CartRepository
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	paymentRepo repositories.PaymentRepository
	userRepo    repositories.UserRepository
	gateway     PaymentGateway
	cfg         CheckoutConfig
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(
	cartRepo repositories.CartRepository,
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	paymentRepo repositories.PaymentRepository,
	userRepo repositories.UserRepository,
	gateway PaymentGateway,
	cfg CheckoutConfig,
) *CheckoutService {
	if cfg.Currency == "" {
		cfg.Currency = "ETB"
	}
	return &CheckoutService{
		cartRepo:    cartRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		cfg:         cfg,
	}
}

// Checkout snapshots the user's cart into an order, creates a pending
// payment with a fresh tx_ref, and asks the gateway for a checkout
// URL. The order, its items, the payment, and the cart clearing are
// committed in one atomic unit before the network call, so no
// database lock is held while waiting on the provider. A gateway
// failure after commit marks the payment failed rather than leaving
// it dangling in pending.
func (s *CheckoutService) Checkout(ctx context.Context, userID string) (*CheckoutResult, error) {
	cart, err := s.cartRepo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrCartEmpty
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	// Snapshot cart contents, capturing the unit price at order time
	// so later catalog price changes leave this order untouched.
	orderID := uuid.New().String()
	var totalPrice float64
	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, cartItem := range cart.Items {
		product := cartItem.Product
		if product == nil {
			product, err = s.productRepo.GetByID(cartItem.ProductID)
			if err != nil {
				return nil, fmt.Errorf("product %s in cart: %w", cartItem.ProductID, err)
			}
		}
		items = append(items, models.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			ProductID: cartItem.ProductID,
			Quantity:  cartItem.Quantity,
			Price:     product.Price,
		})
		totalPrice += product.Price * float64(cartItem.Quantity)
	}

	order := &models.Order{
		ID:         orderID,
		UserID:     userID,
		Items:      items,
		TotalPrice: totalPrice,
		Status:     models.OrderStatusPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	payment := &models.Payment{
		ID:       uuid.New().String(),
		OrderID:  orderID,
		TxRef:    uuid.New().String(),
		Amount:   totalPrice,
		Currency: s.cfg.Currency,
		Status:   models.PaymentStatusPending,
	}

	if err := s.orderRepo.CreateCheckout(order, payment, cart.ID); err != nil {
		return nil, err
	}

	gatewayResult, err := s.gateway.Initialize(ctx, chapa.InitializeRequest{
		Amount:      fmt.Sprintf("%.2f", totalPrice),
		Currency:    payment.Currency,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		TxRef:       payment.TxRef,
		CallbackURL: s.cfg.CallbackURL,
		ReturnURL:   s.cfg.ReturnURL,
	})
	if err != nil {
		// The order and payment are already committed; record the
		// failed initialization instead of leaving the payment pending.
		if _, markErr := s.paymentRepo.MarkTerminal(payment.TxRef, models.PaymentStatusFailed, ""); markErr != nil {
			log.Printf("Failed to mark payment %s failed after gateway error: %v", payment.TxRef, markErr)
		} else {
			payment.Status = models.PaymentStatusFailed
		}
		return nil, fmt.Errorf("gateway initialization for order %s: %w", orderID, err)
	}

	return &CheckoutResult{
		Order:   order,
		Payment: payment,
		Gateway: gatewayResult,
	}, nil
}
