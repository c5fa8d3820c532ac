package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"

	"aashop/internal/models"
	"aashop/internal/repositories"
	"aashop/pkg/chapa"
	"aashop/pkg/rabbitmq"

	"github.com/google/uuid"
)

// PaymentService handles standalone payment initiation and the
// verify/webhook reconciliation of payment status.
type PaymentService struct {
	paymentRepo   repositories.PaymentRepository
	orderRepo     repositories.OrderRepository
	userRepo      repositories.UserRepository
	gateway       PaymentGateway
	publisher     EventPublisher
	webhookSecret string
	callbackURL   string
	returnURL     string
}

// NewPaymentService creates a new PaymentService. webhookSecret may be
// empty, in which case webhook signatures are not checked.
func NewPaymentService(
	paymentRepo repositories.PaymentRepository,
	orderRepo repositories.OrderRepository,
	userRepo repositories.UserRepository,
	gateway PaymentGateway,
	publisher EventPublisher,
	webhookSecret, callbackURL, returnURL string,
) *PaymentService {
	return &PaymentService{
		paymentRepo:   paymentRepo,
		orderRepo:     orderRepo,
		userRepo:      userRepo,
		gateway:       gateway,
		publisher:     publisher,
		webhookSecret: webhookSecret,
		callbackURL:   callbackURL,
		returnURL:     returnURL,
	}
}

// InitiateInput is the request to start a payment for an existing order.
type InitiateInput struct {
	OrderID   string  `json:"order_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Currency  string  `json:"currency" validate:"omitempty,len=3"`
	Email     string  `json:"email" validate:"required,email"`
	FirstName string  `json:"first_name" validate:"omitempty,max=100"`
	LastName  string  `json:"last_name" validate:"omitempty,max=100"`
}

// PaymentOutcome pairs a payment row with the raw gateway response.
type PaymentOutcome struct {
	Payment *models.Payment
	Raw     chapa.Response
}

// Initiate creates a pending payment with a fresh tx_ref for one of
// the user's orders and initializes the gateway transaction. A
// gateway failure marks the payment failed before returning.
func (s *PaymentService) Initiate(ctx context.Context, userID string, input InitiateInput) (*PaymentOutcome, error) {
	// Scoped lookup: another user's order is not found, not forbidden.
	if _, err := s.orderRepo.GetByID(userID, input.OrderID); err != nil {
		return nil, err
	}

	currency := input.Currency
	if currency == "" {
		currency = "ETB"
	}

	payment := &models.Payment{
		ID:       uuid.New().String(),
		OrderID:  input.OrderID,
		TxRef:    uuid.New().String(),
		Amount:   input.Amount,
		Currency: currency,
		Status:   models.PaymentStatusPending,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}

	result, err := s.gateway.Initialize(ctx, chapa.InitializeRequest{
		Amount:      fmt.Sprintf("%.2f", input.Amount),
		Currency:    currency,
		Email:       input.Email,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		TxRef:       payment.TxRef,
		CallbackURL: s.callbackURL,
		ReturnURL:   s.returnURL,
	})
	if err != nil {
		if _, markErr := s.paymentRepo.MarkTerminal(payment.TxRef, models.PaymentStatusFailed, ""); markErr != nil {
			log.Printf("Failed to mark payment %s failed after gateway error: %v", payment.TxRef, markErr)
		} else {
			payment.Status = models.PaymentStatusFailed
		}
		return nil, fmt.Errorf("gateway initialization for payment %s: %w", payment.TxRef, err)
	}

	return &PaymentOutcome{Payment: payment, Raw: result.Raw}, nil
}

// Verify polls the gateway for the transaction's final state and
// reconciles the local payment row. Unknown tx_refs are an error on
// this authenticated path.
func (s *PaymentService) Verify(ctx context.Context, txRef string) (*PaymentOutcome, error) {
	payment, err := s.paymentRepo.GetByTxRef(txRef)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.Verify(ctx, txRef)
	if err != nil {
		return nil, fmt.Errorf("gateway verification for %s: %w", txRef, err)
	}

	if err := s.reconcile(txRef, result.Status == "success", result.TransactionID); err != nil {
		return nil, err
	}

	// Re-read so the response reflects the post-reconciliation state.
	payment, err = s.paymentRepo.GetByTxRef(txRef)
	if err != nil {
		return nil, err
	}
	return &PaymentOutcome{Payment: payment, Raw: result.Raw}, nil
}

// WebhookPayload is the gateway's asynchronous callback body.
type WebhookPayload struct {
	TxRef     string `json:"tx_ref"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
}

// HandleWebhook reconciles a payment from an asynchronous gateway
// callback. A webhook for an unknown tx_ref is swallowed so the
// provider stops redelivering it.
func (s *PaymentService) HandleWebhook(payload WebhookPayload) error {
	if _, err := s.paymentRepo.GetByTxRef(payload.TxRef); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Printf("Ignoring webhook for unknown tx_ref %s", payload.TxRef)
			return nil
		}
		return err
	}
	return s.reconcile(payload.TxRef, payload.Status == "success", payload.Reference)
}

// ValidWebhookSignature checks the HMAC-SHA256 hex signature of the
// raw webhook body. When no secret is configured every signature is
// accepted, matching providers that only sign on request.
func (s *PaymentService) ValidWebhookSignature(body []byte, signature string) bool {
	if s.webhookSecret == "" {
		return true
	}
	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// reconcile drives the payment state machine: pending moves to
// completed on gateway success and to failed otherwise; completed and
// failed are terminal, so a repeated delivery is a no-op and fires no
// second notification.
func (s *PaymentService) reconcile(txRef string, success bool, transactionID string) error {
	status := models.PaymentStatusFailed
	if success {
		status = models.PaymentStatusCompleted
	}

	transitioned, err := s.paymentRepo.MarkTerminal(txRef, status, transactionID)
	if err != nil {
		return err
	}
	if !transitioned {
		log.Printf("Payment %s already terminal, skipping reconciliation", txRef)
		return nil
	}

	if status != models.PaymentStatusCompleted {
		return nil
	}

	payment, err := s.paymentRepo.GetByTxRef(txRef)
	if err != nil {
		return err
	}
	if err := s.orderRepo.UpdateStatus(payment.OrderID, models.OrderStatusPaid); err != nil {
		log.Printf("Failed to mark order %s paid: %v", payment.OrderID, err)
	}

	s.notify(payment)
	return nil
}

// notify publishes the payment-completed event for the email
// consumer. Publishing is best effort: a broker outage must not fail
// the webhook, the provider would retry and re-run reconciliation.
func (s *PaymentService) notify(payment *models.Payment) {
	if s.publisher == nil {
		log.Println("Event publisher is not initialized. Skipping payment notification.")
		return
	}

	email := ""
	if order, err := s.orderRepo.GetByIDAny(payment.OrderID); err == nil {
		if user, err := s.userRepo.GetByID(order.UserID); err == nil {
			email = user.Email
		}
	}
	if email == "" {
		log.Printf("No recipient email resolved for payment %s, skipping notification", payment.TxRef)
		return
	}

	event := rabbitmq.PaymentEvent{
		TxRef:     payment.TxRef,
		OrderID:   payment.OrderID,
		UserEmail: email,
		Amount:    payment.Amount,
		Currency:  payment.Currency,
		Status:    payment.Status,
	}
	if err := s.publisher.PublishPaymentEvent(event); err != nil {
		log.Printf("Warning: Failed to publish payment event for %s: %v", payment.TxRef, err)
	}
}
