package usecase

import (
	"context"
	"time"
)

// PaymentRequest asks the provider for a new Multibanco reference or MB WAY push.
type PaymentRequest struct {
	OrderID     string
	AmountCents int64
	Email       string
	// Phone is required for MB WAY, in "351#9XXXXXXXX" form.
	Phone       string
	Description string
	ExpiresAt   time.Time
}

// ProviderPayment is what the provider returns for a created payment.
type ProviderPayment struct {
	ProviderRef string
	Entity      string
	Reference   string
	ExpiresAt   *time.Time
}

// ProviderStatus is the provider's view of a payment, with Status already
// mapped onto shop payment statuses.
type ProviderStatus struct {
	ProviderRef string
	Status      string
	AmountCents int64
	PaidAt      *time.Time
}

type PaymentGateway interface {
	CreateMultibanco(ctx context.Context, req PaymentRequest) (ProviderPayment, error)
	CreateMBWay(ctx context.Context, req PaymentRequest) (ProviderPayment, error)
	GetStatus(ctx context.Context, providerRef string) (ProviderStatus, error)
}
