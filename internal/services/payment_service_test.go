package services_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"testing"

	"aashop/internal/models"
	"aashop/internal/repositories"
	"aashop/internal/services"
	"aashop/pkg/chapa"
	"aashop/pkg/rabbitmq"

	"github.com/stretchr/testify/assert"
)

// recordingPublisher captures published payment events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []rabbitmq.PaymentEvent
}

func (p *recordingPublisher) PublishPaymentEvent(event rabbitmq.PaymentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) published() []rabbitmq.PaymentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]rabbitmq.PaymentEvent(nil), p.events...)
}

// signatureFor computes the hex HMAC-SHA256 the gateway would attach.
func signatureFor(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

type paymentFixture struct {
	service     *services.PaymentService
	paymentRepo *repositories.MockPaymentRepository
	orderRepo   *repositories.MockOrderRepository
	publisher   *recordingPublisher
	gateway     *fakeGateway
}

func newPaymentFixture(t *testing.T, webhookSecret string) *paymentFixture {
	t.Helper()
	cartRepo := repositories.NewMockCartRepository()
	paymentRepo := repositories.NewMockPaymentRepository()
	orderRepo := repositories.NewMockOrderRepository(cartRepo, paymentRepo)
	userRepo := new(MockUserRepository)
	userRepo.On("GetByID", "user-1").Return(&models.User{
		ID:    "user-1",
		Email: "buyer@example.com",
	}, nil)
	publisher := &recordingPublisher{}
	gateway := &fakeGateway{}

	service := services.NewPaymentService(
		paymentRepo, orderRepo, userRepo, gateway, publisher,
		webhookSecret,
		"http://localhost/api/v1/payments/webhook",
		"http://localhost/payment/success",
	)
	return &paymentFixture{
		service:     service,
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		publisher:   publisher,
		gateway:     gateway,
	}
}

// seedPendingPayment creates an order with a linked pending payment.
func (f *paymentFixture) seedPendingPayment(t *testing.T, txRef string) {
	t.Helper()
	order := &models.Order{
		ID:         "order-1",
		UserID:     "user-1",
		TotalPrice: 1500,
		Status:     models.OrderStatusPending,
	}
	assert.NoError(t, f.orderRepo.Create(order))
	assert.NoError(t, f.paymentRepo.Create(&models.Payment{
		OrderID:  order.ID,
		TxRef:    txRef,
		Amount:   1500,
		Currency: "ETB",
		Status:   models.PaymentStatusPending,
	}))
}

func TestPaymentService_WebhookSuccessIsIdempotent(t *testing.T) {
	f := newPaymentFixture(t, "")
	f.seedPendingPayment(t, "tx-1")

	payload := services.WebhookPayload{TxRef: "tx-1", Status: "success", Reference: "ch-77"}

	// First delivery transitions pending -> completed.
	assert.NoError(t, f.service.HandleWebhook(payload))
	payment, err := f.paymentRepo.GetByTxRef("tx-1")
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, "ch-77", payment.TransactionID)

	order, err := f.orderRepo.GetByIDAny("order-1")
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)

	// Second delivery is a no-op: still completed, no second event.
	assert.NoError(t, f.service.HandleWebhook(payload))
	payment, err = f.paymentRepo.GetByTxRef("tx-1")
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)

	events := f.publisher.published()
	assert.Len(t, events, 1)
	assert.Equal(t, "tx-1", events[0].TxRef)
	assert.Equal(t, "buyer@example.com", events[0].UserEmail)
	assert.Equal(t, models.PaymentStatusCompleted, events[0].Status)
}

func TestPaymentService_WebhookFailureMarksFailedWithoutNotification(t *testing.T) {
	f := newPaymentFixture(t, "")
	f.seedPendingPayment(t, "tx-1")

	assert.NoError(t, f.service.HandleWebhook(services.WebhookPayload{TxRef: "tx-1", Status: "failed"}))

	payment, err := f.paymentRepo.GetByTxRef("tx-1")
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, payment.Status)
	assert.Empty(t, f.publisher.published())

	// A late success for an already-failed payment must not resurrect it.
	assert.NoError(t, f.service.HandleWebhook(services.WebhookPayload{TxRef: "tx-1", Status: "success"}))
	payment, err = f.paymentRepo.GetByTxRef("tx-1")
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, payment.Status)
	assert.Empty(t, f.publisher.published())
}

func TestPaymentService_WebhookUnknownTxRefIsSwallowed(t *testing.T) {
	f := newPaymentFixture(t, "")

	err := f.service.HandleWebhook(services.WebhookPayload{TxRef: "no-such-ref", Status: "success"})
	assert.NoError(t, err)
	assert.Empty(t, f.publisher.published())
}

func TestPaymentService_WebhookSignature(t *testing.T) {
	f := newPaymentFixture(t, "whsec")

	body := []byte(`{"tx_ref":"tx-1","status":"success"}`)
	assert.True(t, f.service.ValidWebhookSignature(body, signatureFor(body, "whsec")))
	assert.False(t, f.service.ValidWebhookSignature(body, "deadbeef"))

	// With no secret configured every signature passes.
	open := newPaymentFixture(t, "")
	assert.True(t, open.service.ValidWebhookSignature(body, ""))
}

func TestPaymentService_VerifyReconciles(t *testing.T) {
	f := newPaymentFixture(t, "")
	f.seedPendingPayment(t, "tx-1")

	f.gateway.verifyFn = func(ctx context.Context, txRef string) (*chapa.VerifyResult, error) {
		return &chapa.VerifyResult{
			Status:        "success",
			TransactionID: "ch-42",
			Raw:           chapa.Response{Status: "success", Message: "Payment verified"},
		}, nil
	}

	outcome, err := f.service.Verify(context.Background(), "tx-1")
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, outcome.Payment.Status)
	assert.Equal(t, "ch-42", outcome.Payment.TransactionID)
	assert.Equal(t, "success", outcome.Raw.Status)
	assert.Len(t, f.publisher.published(), 1)
}

func TestPaymentService_VerifyUnknownTxRef(t *testing.T) {
	f := newPaymentFixture(t, "")

	_, err := f.service.Verify(context.Background(), "no-such-ref")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestPaymentService_InitiateForForeignOrderIsNotFound(t *testing.T) {
	f := newPaymentFixture(t, "")
	assert.NoError(t, f.orderRepo.Create(&models.Order{
		ID:     "order-owned-by-other",
		UserID: "user-2",
		Status: models.OrderStatusPending,
	}))

	_, err := f.service.Initiate(context.Background(), "user-1", services.InitiateInput{
		OrderID: "order-owned-by-other",
		Amount:  100,
		Email:   "buyer@example.com",
	})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
