package services

import (
	"context"

	"aashop/pkg/chapa"
	"aashop/pkg/rabbitmq"
)

// PaymentGateway is the outbound payment provider surface used by the
// checkout and payment services. *chapa.Client satisfies it; tests
// substitute fakes.
type PaymentGateway interface {
	Initialize(ctx context.Context, req chapa.InitializeRequest) (*chapa.InitializeResult, error)
	Verify(ctx context.Context, txRef string) (*chapa.VerifyResult, error)
}

// EventPublisher pushes payment lifecycle events onto the background
// queue. *rabbitmq.Client satisfies it. A nil publisher disables
// notifications (used in tests and queue-less deployments).
type EventPublisher interface {
	PublishPaymentEvent(event rabbitmq.PaymentEvent) error
}
