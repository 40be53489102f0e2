package shop

import (
	"context"
	"time"
)

type ProductRepository interface {
	List(ctx context.Context, activeOnly bool) ([]Product, error)
	GetByID(ctx context.Context, productID string) (Product, bool, error)
	GetBySlug(ctx context.Context, slug string) (Product, bool, error)
	ListByIDs(ctx context.Context, productIDs []string) ([]Product, error)
	Create(ctx context.Context, p Product) error
	Update(ctx context.Context, p Product) (bool, error)
	Delete(ctx context.Context, productID string) (bool, error)
}

type OrderRepository interface {
	// Create decrements stock for every line and inserts the order in one
	// transaction; it fails with ErrInsufficientStock without side effects.
	Create(ctx context.Context, o Order) error
	GetByID(ctx context.Context, orderID string) (Order, bool, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	List(ctx context.Context, status string) ([]Order, error)
	// Cancel moves a pending order to cancelled, restores its stock and
	// expires its pending payments in one transaction.
	Cancel(ctx context.Context, orderID string, at time.Time) (bool, error)
	// MarkPaid moves a pending order to paid and expires its pending payments.
	MarkPaid(ctx context.Context, orderID string, at time.Time) (bool, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p Payment) error
	GetByID(ctx context.Context, paymentID string) (Payment, bool, error)
	GetByProviderRef(ctx context.Context, providerRef string) (Payment, bool, error)
	ListByOrder(ctx context.Context, orderID string) ([]Payment, error)
	ListPending(ctx context.Context, limit int) ([]Payment, error)
	// Transition applies t only if the payment is still pending; a paid
	// transition also marks the pending order paid and expires the order's
	// other pending payments in the same transaction. It fails with
	// ErrOrderNotPending, changing nothing, when the order already left pending.
	// applied is false when another writer got there first.
	Transition(ctx context.Context, t Transition) (applied bool, err error)
}
