package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/riskibarqy/plus-predictor/internal/domain/shop"
)

func TestPaymentReconciler_Run_CountsOutcomes(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	svc, _, payments, gateway := newPaymentServiceForTest(t)
	future := timePtr(testNow.Add(time.Hour))
	pending := []shop.Payment{
		{ID: "pay-paid", Status: shop.PaymentPending, AmountCents: 1000, ProviderRef: "r-paid", ExpiresAt: future},
		{ID: "pay-failed", Status: shop.PaymentPending, AmountCents: 1000, ProviderRef: "r-failed", ExpiresAt: future},
		{ID: "pay-overdue", Status: shop.PaymentPending, AmountCents: 1000, ProviderRef: "r-overdue", ExpiresAt: timePtr(testNow.Add(-time.Minute))},
		{ID: "pay-waiting", Status: shop.PaymentPending, AmountCents: 1000, ProviderRef: "r-waiting", ExpiresAt: future},
		{ID: "pay-error", Status: shop.PaymentPending, AmountCents: 1000, ProviderRef: "r-error", ExpiresAt: future},
	}

	payments.On("ListPending", anyCtx(), reconcileBatchLimit).Return(pending, nil).Once()
	gateway.On("GetStatus", anyCtx(), "r-paid").Return(ProviderStatus{Status: shop.PaymentPaid, AmountCents: 1000}, nil).Once()
	gateway.On("GetStatus", anyCtx(), "r-failed").Return(ProviderStatus{Status: shop.PaymentFailed}, nil).Once()
	gateway.On("GetStatus", anyCtx(), "r-waiting").Return(ProviderStatus{Status: shop.PaymentPending}, nil).Once()
	gateway.On("GetStatus", anyCtx(), "r-error").Return(ProviderStatus{}, errors.New("provider down")).Once()
	payments.On("Transition", anyCtx(), mock.AnythingOfType("shop.Transition")).Return(true, nil).Times(3)

	reconciler := NewPaymentReconciler(payments, svc, 2, nopLogger())
	got, err := reconciler.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, got.Checked)
	assert.Equal(t, 1, got.Paid)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, 1, got.Expired)
	assert.Equal(t, 1, got.Unchanged)
	assert.Equal(t, 1, got.Errors)
}

func TestPaymentReconciler_Run_NothingPending(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	svc, _, payments, _ := newPaymentServiceForTest(t)
	payments.On("ListPending", anyCtx(), reconcileBatchLimit).Return(nil, nil).Once()

	got, err := NewPaymentReconciler(payments, svc, 0, nopLogger()).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, got.Checked)
}
