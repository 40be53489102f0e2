package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/plus-predictor/internal/domain/shop"
	idgen "github.com/riskibarqy/plus-predictor/internal/platform/id"
	shopmock "github.com/riskibarqy/plus-predictor/internal/mocks/domain/shop"
)

type gatewayMock struct {
	mock.Mock
}

func (g *gatewayMock) CreateMultibanco(ctx context.Context, req PaymentRequest) (ProviderPayment, error) {
	ret := g.Called(ctx, req)
	return ret.Get(0).(ProviderPayment), ret.Error(1)
}

func (g *gatewayMock) CreateMBWay(ctx context.Context, req PaymentRequest) (ProviderPayment, error) {
	ret := g.Called(ctx, req)
	return ret.Get(0).(ProviderPayment), ret.Error(1)
}

func (g *gatewayMock) GetStatus(ctx context.Context, providerRef string) (ProviderStatus, error) {
	ret := g.Called(ctx, providerRef)
	return ret.Get(0).(ProviderStatus), ret.Error(1)
}

func newGatewayMock(t *testing.T) *gatewayMock {
	g := &gatewayMock{}
	g.Test(t)
	t.Cleanup(func() { g.AssertExpectations(t) })
	return g
}

func newPaymentServiceForTest(t *testing.T) (*PaymentService, *shopmock.OrderRepository, *shopmock.PaymentRepository, *gatewayMock) {
	t.Helper()

	orders := shopmock.NewOrderRepository(t)
	payments := shopmock.NewPaymentRepository(t)
	gateway := newGatewayMock(t)
	svc := NewPaymentService(orders, payments, gateway, PaymentTTLs{}, &idgen.SequenceGenerator{Prefix: "pay"}, nopLogger())
	svc.now = fixedNow
	return svc, orders, payments, gateway
}

func pendingOrder() shop.Order {
	return shop.Order{
		ID:         "ord-1",
		UserID:     "u-1",
		Status:     shop.OrderPending,
		TotalCents: 4500,
		Customer:   shop.Customer{Name: "Ana", Email: "ana@example.pt", Phone: "+351 912 345 678"},
	}
}

func timePtr(v time.Time) *time.Time { return &v }

func TestPaymentService_CreatePayment_MultibancoUsingMockery(t *testing.T) {
	t.Parallel()

	svc, orders, payments, gateway := newPaymentServiceForTest(t)
	orders.On("GetByID", anyCtx(), "ord-1").Return(pendingOrder(), true, nil).Once()
	payments.On("ListByOrder", anyCtx(), "ord-1").Return(nil, nil).Once()
	gateway.
		On("CreateMultibanco", anyCtx(), mock.MatchedBy(func(r PaymentRequest) bool {
			return r.AmountCents == 4500 && r.ExpiresAt.Equal(testNow.Add(72*time.Hour))
		})).
		Return(ProviderPayment{ProviderRef: "ifp-1", Entity: "11604", Reference: "123456789"}, nil).
		Once()
	payments.On("Create", anyCtx(), mock.MatchedBy(func(p shop.Payment) bool {
		return p.Status == shop.PaymentPending && p.Entity == "11604" && p.ExpiresAt != nil
	})).Return(nil).Once()

	got, err := svc.CreatePayment(context.Background(), CreatePaymentInput{UserID: "u-1", OrderID: "ord-1", Method: "Multibanco"})
	require.NoError(t, err)
	assert.Equal(t, "pay-1", got.ID)
	assert.Equal(t, "123456789", got.Reference)
}

type recordingScheduler struct {
	paymentID string
	at        time.Time
	err       error
}

func (r *recordingScheduler) ScheduleReconcile(_ context.Context, paymentID string, at time.Time) error {
	r.paymentID = paymentID
	r.at = at
	return r.err
}

func TestPaymentService_CreatePayment_SchedulesReconcileAfterExpiry(t *testing.T) {
	t.Parallel()

	for _, schedErr := range []error{nil, errors.New("qstash down")} {
		svc, orders, payments, gateway := newPaymentServiceForTest(t)
		scheduler := &recordingScheduler{err: schedErr}
		svc.WithReconcileScheduler(scheduler)

		orders.On("GetByID", anyCtx(), "ord-1").Return(pendingOrder(), true, nil).Once()
		payments.On("ListByOrder", anyCtx(), "ord-1").Return(nil, nil).Once()
		gateway.On("CreateMBWay", anyCtx(), mock.Anything).Return(ProviderPayment{ProviderRef: "ifp-9"}, nil).Once()
		payments.On("Create", anyCtx(), mock.Anything).Return(nil).Once()

		got, err := svc.CreatePayment(context.Background(), CreatePaymentInput{UserID: "u-1", OrderID: "ord-1", Method: "mbway"})
		require.NoError(t, err, "scheduling failures must not fail the payment")
		assert.Equal(t, got.ID, scheduler.paymentID)
		assert.True(t, scheduler.at.Equal(testNow.Add(5*time.Minute+reconcileGrace)), "at=%s", scheduler.at)
	}
}

func TestPaymentService_CreatePayment_ReusesPendingMBWay(t *testing.T) {
	t.Parallel()

	svc, orders, payments, _ := newPaymentServiceForTest(t)
	existing := shop.Payment{
		ID:          "pay-0",
		Method:      shop.MethodMBWay,
		Status:      shop.PaymentPending,
		AmountCents: 4500,
		Phone:       "351#912345678",
		ExpiresAt:   timePtr(testNow.Add(2 * time.Minute)),
	}
	orders.On("GetByID", anyCtx(), "ord-1").Return(pendingOrder(), true, nil).Once()
	payments.On("ListByOrder", anyCtx(), "ord-1").Return([]shop.Payment{existing}, nil).Once()

	got, err := svc.CreatePayment(context.Background(), CreatePaymentInput{UserID: "u-1", OrderID: "ord-1", Method: "mbway"})
	require.NoError(t, err)
	assert.Equal(t, "pay-0", got.ID)
}

func TestPaymentService_CreatePayment_ProviderDownIsUnavailable(t *testing.T) {
	t.Parallel()

	svc, orders, payments, gateway := newPaymentServiceForTest(t)
	orders.On("GetByID", anyCtx(), "ord-1").Return(pendingOrder(), true, nil).Once()
	payments.On("ListByOrder", anyCtx(), "ord-1").Return(nil, nil).Once()
	gateway.On("CreateMBWay", anyCtx(), mock.Anything).Return(ProviderPayment{}, errors.New("timeout")).Once()

	_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{UserID: "u-1", OrderID: "ord-1", Method: "mbway", Phone: "939999999"})
	assert.ErrorIs(t, err, ErrDependencyUnavailable)
}

func TestPaymentService_CreatePayment_OrderNotPending(t *testing.T) {
	t.Parallel()

	svc, orders, _, _ := newPaymentServiceForTest(t)
	order := pendingOrder()
	order.Status = shop.OrderPaid
	orders.On("GetByID", anyCtx(), "ord-1").Return(order, true, nil).Once()

	_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{UserID: "u-1", OrderID: "ord-1", Method: "multibanco"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestPaymentService_GetPayment_ExpiresOverdue(t *testing.T) {
	t.Parallel()

	svc, orders, payments, _ := newPaymentServiceForTest(t)
	overdue := shop.Payment{ID: "pay-1", OrderID: "ord-1", Status: shop.PaymentPending, ProviderRef: "ref", ExpiresAt: timePtr(testNow.Add(-time.Second))}
	payments.On("GetByID", anyCtx(), "pay-1").Return(overdue, true, nil).Once()
	orders.On("GetByID", anyCtx(), "ord-1").Return(pendingOrder(), true, nil).Once()
	payments.On("Transition", anyCtx(), shop.Transition{PaymentID: "pay-1", To: shop.PaymentExpired, At: testNow}).Return(true, nil).Once()

	got, err := svc.GetPayment(context.Background(), "u-1", "pay-1")
	require.NoError(t, err)
	assert.Equal(t, shop.PaymentExpired, got.Status)
}

func TestPaymentService_GetPayment_ProviderOutageReturnsStored(t *testing.T) {
	t.Parallel()

	svc, orders, payments, gateway := newPaymentServiceForTest(t)
	stored := shop.Payment{ID: "pay-1", OrderID: "ord-1", Status: shop.PaymentPending, ProviderRef: "ref", ExpiresAt: timePtr(testNow.Add(time.Hour))}
	payments.On("GetByID", anyCtx(), "pay-1").Return(stored, true, nil).Once()
	orders.On("GetByID", anyCtx(), "ord-1").Return(pendingOrder(), true, nil).Once()
	gateway.On("GetStatus", anyCtx(), "ref").Return(ProviderStatus{}, errors.New("503")).Once()

	got, err := svc.GetPayment(context.Background(), "u-1", "pay-1")
	require.NoError(t, err)
	assert.Equal(t, shop.PaymentPending, got.Status)
}

func TestPaymentService_HandleWebhook(t *testing.T) {
	t.Parallel()

	pending := shop.Payment{ID: "pay-1", OrderID: "ord-1", Status: shop.PaymentPending, AmountCents: 4500, ProviderRef: "ifp-1"}

	t.Run("applies paid", func(t *testing.T) {
		svc, _, payments, _ := newPaymentServiceForTest(t)
		payments.On("GetByProviderRef", anyCtx(), "ifp-1").Return(pending, true, nil).Once()
		payments.On("Transition", anyCtx(), shop.Transition{PaymentID: "pay-1", To: shop.PaymentPaid, At: testNow}).Return(true, nil).Once()

		got, err := svc.HandleWebhook(context.Background(), WebhookInput{ProviderRef: "ifp-1", OrderID: "ord-1", AmountCents: 4500, Status: "paid"})
		require.NoError(t, err)
		assert.True(t, got.Applied)
		assert.Equal(t, shop.PaymentPaid, got.Payment.Status)
		require.NotNil(t, got.Payment.PaidAt)
	})

	t.Run("order already closed is a conflict", func(t *testing.T) {
		svc, _, payments, _ := newPaymentServiceForTest(t)
		payments.On("GetByProviderRef", anyCtx(), "ifp-1").Return(pending, true, nil).Once()
		payments.On("Transition", anyCtx(), shop.Transition{PaymentID: "pay-1", To: shop.PaymentPaid, At: testNow}).
			Return(false, fmt.Errorf("settle payment id=pay-1: %w", shop.ErrOrderNotPending)).
			Once()

		_, err := svc.HandleWebhook(context.Background(), WebhookInput{ProviderRef: "ifp-1", AmountCents: 4500, Status: "paid"})
		assert.ErrorIs(t, err, ErrConflict)
		assert.ErrorContains(t, err, shop.ErrOrderNotPending.Error())
	})

	t.Run("duplicate delivery is a no-op", func(t *testing.T) {
		svc, _, payments, _ := newPaymentServiceForTest(t)
		paid := pending
		paid.Status = shop.PaymentPaid
		payments.On("GetByProviderRef", anyCtx(), "ifp-1").Return(paid, true, nil).Once()

		got, err := svc.HandleWebhook(context.Background(), WebhookInput{ProviderRef: "ifp-1", AmountCents: 4500, Status: "success"})
		require.NoError(t, err)
		assert.False(t, got.Applied)
	})

	t.Run("terminal payments never change", func(t *testing.T) {
		svc, _, payments, _ := newPaymentServiceForTest(t)
		expired := pending
		expired.Status = shop.PaymentExpired
		payments.On("GetByProviderRef", anyCtx(), "ifp-1").Return(expired, true, nil).Once()

		_, err := svc.HandleWebhook(context.Background(), WebhookInput{ProviderRef: "ifp-1", AmountCents: 4500, Status: "paid"})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("amount mismatch", func(t *testing.T) {
		svc, _, payments, _ := newPaymentServiceForTest(t)
		payments.On("GetByProviderRef", anyCtx(), "ifp-1").Return(pending, true, nil).Once()

		_, err := svc.HandleWebhook(context.Background(), WebhookInput{ProviderRef: "ifp-1", AmountCents: 100, Status: "paid"})
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.ErrorIs(t, err, shop.ErrAmountMismatch)
	})

	t.Run("lost race against poll", func(t *testing.T) {
		svc, _, payments, _ := newPaymentServiceForTest(t)
		expired := pending
		expired.Status = shop.PaymentExpired
		payments.On("GetByProviderRef", anyCtx(), "ifp-1").Return(pending, true, nil).Once()
		payments.On("Transition", anyCtx(), mock.Anything).Return(false, nil).Once()
		payments.On("GetByID", anyCtx(), "pay-1").Return(expired, true, nil).Once()

		_, err := svc.HandleWebhook(context.Background(), WebhookInput{ProviderRef: "ifp-1", AmountCents: 4500, Status: "paid"})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("unknown status", func(t *testing.T) {
		svc, _, _, _ := newPaymentServiceForTest(t)
		_, err := svc.HandleWebhook(context.Background(), WebhookInput{ProviderRef: "ifp-1", Status: "refunded"})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
