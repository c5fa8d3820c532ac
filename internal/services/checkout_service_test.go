package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"aashop/internal/models"
	"aashop/internal/repositories"
	"aashop/internal/services"
	"aashop/pkg/chapa"

	"github.com/stretchr/testify/assert"
)

// fakeGateway is a scriptable services.PaymentGateway for unit tests.
type fakeGateway struct {
	initializeFn func(ctx context.Context, req chapa.InitializeRequest) (*chapa.InitializeResult, error)
	verifyFn     func(ctx context.Context, txRef string) (*chapa.VerifyResult, error)
	initCalls    []chapa.InitializeRequest
}

func (g *fakeGateway) Initialize(ctx context.Context, req chapa.InitializeRequest) (*chapa.InitializeResult, error) {
	g.initCalls = append(g.initCalls, req)
	if g.initializeFn != nil {
		return g.initializeFn(ctx, req)
	}
	return &chapa.InitializeResult{
		CheckoutURL: "https://checkout.example.com/" + req.TxRef,
		Raw:         chapa.Response{Status: "success", Message: "Hosted Link"},
	}, nil
}

func (g *fakeGateway) Verify(ctx context.Context, txRef string) (*chapa.VerifyResult, error) {
	if g.verifyFn != nil {
		return g.verifyFn(ctx, txRef)
	}
	return &chapa.VerifyResult{Status: "success", TransactionID: "ch-1"}, nil
}

type checkoutFixture struct {
	service     *services.CheckoutService
	cartRepo    *repositories.MockCartRepository
	orderRepo   *repositories.MockOrderRepository
	paymentRepo *repositories.MockPaymentRepository
	productRepo *repositories.MockProductRepository
	userRepo    *MockUserRepository
	gateway     *fakeGateway
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	cartRepo := repositories.NewMockCartRepository()
	paymentRepo := repositories.NewMockPaymentRepository()
	orderRepo := repositories.NewMockOrderRepository(cartRepo, paymentRepo)
	productRepo := repositories.NewMockProductRepository()
	userRepo := new(MockUserRepository)
	userRepo.On("GetByID", "user-1").Return(&models.User{
		ID:        "user-1",
		Username:  "buyer",
		Email:     "buyer@example.com",
		FirstName: "John",
		LastName:  "Doe",
	}, nil)
	gateway := &fakeGateway{}

	service := services.NewCheckoutService(
		cartRepo, orderRepo, productRepo, paymentRepo, userRepo, gateway,
		services.CheckoutConfig{
			Currency:    "ETB",
			CallbackURL: "http://localhost/api/v1/payments/webhook",
			ReturnURL:   "http://localhost/payment/success",
		},
	)
	return &checkoutFixture{
		service:     service,
		cartRepo:    cartRepo,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		gateway:     gateway,
	}
}

func (f *checkoutFixture) seedCart(t *testing.T, userID string, entries map[string]int) {
	t.Helper()
	for productID, qty := range entries {
		_, err := f.cartRepo.AddItem(userID, productID, qty)
		assert.NoError(t, err)
	}
}

func TestCheckoutService_EmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.service.Checkout(context.Background(), "user-1")
	assert.ErrorIs(t, err, services.ErrCartEmpty)

	// No partial writes may survive a rejected checkout.
	orders, err := f.orderRepo.GetAllByUser("user-1")
	assert.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, f.gateway.initCalls)
}

func TestCheckoutService_SnapshotsCartAndClearsIt(t *testing.T) {
	f := newCheckoutFixture(t)
	assert.NoError(t, f.productRepo.Create(&models.Product{ID: "p1", Name: "AA Big Book", Price: 1000, Stock: 10}))
	assert.NoError(t, f.productRepo.Create(&models.Product{ID: "p2", Name: "AA Mug", Price: 500, Stock: 10}))
	f.seedCart(t, "user-1", map[string]int{"p1": 1, "p2": 2})

	result, err := f.service.Checkout(context.Background(), "user-1")
	assert.NoError(t, err)

	assert.Equal(t, 2000.0, result.Order.TotalPrice)
	assert.Equal(t, models.OrderStatusPending, result.Order.Status)
	assert.Len(t, result.Order.Items, 2)
	for _, item := range result.Order.Items {
		switch item.ProductID {
		case "p1":
			assert.Equal(t, 1000.0, item.Price)
			assert.Equal(t, 1, item.Quantity)
		case "p2":
			assert.Equal(t, 500.0, item.Price)
			assert.Equal(t, 2, item.Quantity)
		default:
			t.Fatalf("unexpected order item for product %s", item.ProductID)
		}
	}

	assert.Equal(t, models.PaymentStatusPending, result.Payment.Status)
	assert.Equal(t, result.Order.ID, result.Payment.OrderID)
	assert.Equal(t, 2000.0, result.Payment.Amount)
	assert.NotEmpty(t, result.Payment.TxRef)
	assert.Contains(t, result.Gateway.CheckoutURL, result.Payment.TxRef)

	// The cart is emptied but not deleted.
	cart, err := f.cartRepo.GetOrCreate("user-1")
	assert.NoError(t, err)
	assert.Empty(t, cart.Items)

	// The gateway saw the payer identity and the tx_ref.
	assert.Len(t, f.gateway.initCalls, 1)
	assert.Equal(t, "buyer@example.com", f.gateway.initCalls[0].Email)
	assert.Equal(t, result.Payment.TxRef, f.gateway.initCalls[0].TxRef)
	assert.Equal(t, "2000.00", f.gateway.initCalls[0].Amount)
}

func TestCheckoutService_PriceCapturedAtOrderTime(t *testing.T) {
	f := newCheckoutFixture(t)
	product := &models.Product{ID: "p1", Name: "AA Big Book", Price: 1000, Stock: 10}
	assert.NoError(t, f.productRepo.Create(product))
	f.seedCart(t, "user-1", map[string]int{"p1": 1})

	result, err := f.service.Checkout(context.Background(), "user-1")
	assert.NoError(t, err)

	// A later price change must not touch the recorded order.
	product.Price = 9999
	assert.NoError(t, f.productRepo.Update(product))

	order, err := f.orderRepo.GetByID("user-1", result.Order.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1000.0, order.TotalPrice)
}

func TestCheckoutService_TxRefsAreUnique(t *testing.T) {
	f := newCheckoutFixture(t)
	assert.NoError(t, f.productRepo.Create(&models.Product{ID: "p1", Name: "AA Big Book", Price: 1000, Stock: 10}))

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		f.seedCart(t, "user-1", map[string]int{"p1": 1})
		result, err := f.service.Checkout(context.Background(), "user-1")
		assert.NoError(t, err)
		assert.False(t, seen[result.Payment.TxRef], "tx_ref %s reused", result.Payment.TxRef)
		seen[result.Payment.TxRef] = true
	}
}

func TestCheckoutService_GatewayUnreachableMarksPaymentFailed(t *testing.T) {
	f := newCheckoutFixture(t)
	assert.NoError(t, f.productRepo.Create(&models.Product{ID: "p1", Name: "AA Big Book", Price: 1000, Stock: 10}))
	f.seedCart(t, "user-1", map[string]int{"p1": 1})

	f.gateway.initializeFn = func(ctx context.Context, req chapa.InitializeRequest) (*chapa.InitializeResult, error) {
		return nil, fmt.Errorf("%w: connection refused", chapa.ErrUnreachable)
	}

	_, err := f.service.Checkout(context.Background(), "user-1")
	assert.Error(t, err)
	assert.ErrorIs(t, err, chapa.ErrUnreachable)

	// The committed payment must not dangle in pending.
	orders, err := f.orderRepo.GetAllByUser("user-1")
	assert.NoError(t, err)
	assert.Len(t, orders, 1)
	payment, err := f.paymentRepo.GetByOrderID(orders[0].ID)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, payment.Status)
}

func TestCheckoutService_GatewayDeclineIsDistinctError(t *testing.T) {
	f := newCheckoutFixture(t)
	assert.NoError(t, f.productRepo.Create(&models.Product{ID: "p1", Name: "AA Big Book", Price: 1000, Stock: 10}))
	f.seedCart(t, "user-1", map[string]int{"p1": 1})

	f.gateway.initializeFn = func(ctx context.Context, req chapa.InitializeRequest) (*chapa.InitializeResult, error) {
		return nil, &chapa.APIError{HTTPStatus: 400, Status: "failed", Message: "invalid currency"}
	}

	_, err := f.service.Checkout(context.Background(), "user-1")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, chapa.ErrUnreachable))
	var apiErr *chapa.APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "failed", apiErr.Status)
}
