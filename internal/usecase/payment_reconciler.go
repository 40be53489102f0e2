package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/riskibarqy/plus-predictor/internal/domain/shop"
	"github.com/riskibarqy/plus-predictor/internal/platform/logging"
)

const (
	defaultReconcileWorkers = 4
	reconcileBatchLimit     = 500
)

// ReconcileResult counts what one sweep did to pending payments.
type ReconcileResult struct {
	Checked    int
	Paid       int
	Failed     int
	Expired    int
	Unchanged  int
	Errors     int
	DurationMs int64
}

// PaymentReconciler refreshes pending payments on a bounded worker pool.
type PaymentReconciler struct {
	paymentRepo shop.PaymentRepository
	payments    *PaymentService
	workers     int
	logger      *logging.Logger
}

func NewPaymentReconciler(paymentRepo shop.PaymentRepository, payments *PaymentService, workers int, logger *logging.Logger) *PaymentReconciler {
	if workers <= 0 {
		workers = defaultReconcileWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PaymentReconciler{
		paymentRepo: paymentRepo,
		payments:    payments,
		workers:     workers,
		logger:      logger,
	}
}

func (r *PaymentReconciler) Run(ctx context.Context) (ReconcileResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PaymentReconciler.Run")
	defer span.End()

	start := time.Now()
	pending, err := r.paymentRepo.ListPending(ctx, reconcileBatchLimit)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("list pending payments: %w", err)
	}
	if len(pending) == 0 {
		return ReconcileResult{DurationMs: time.Since(start).Milliseconds()}, nil
	}

	pool, err := ants.NewPool(r.workers)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer func() {
		if err := pool.ReleaseTimeout(5 * time.Second); err != nil {
			r.logger.WarnContext(ctx, "release reconcile pool", "error", err)
		}
	}()

	var paid, failed, expired, unchanged, errCount atomic.Int32

	var workers sync.WaitGroup
	for _, payment := range pending {
		payment := payment
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			if ctx.Err() != nil {
				errCount.Add(1)
				return
			}

			updated, applied, err := r.payments.Refresh(ctx, payment)
			if err != nil {
				errCount.Add(1)
				r.logger.WarnContext(ctx, "reconcile payment failed",
					"payment_id", payment.ID,
					"error", err,
				)
				return
			}
			if !applied {
				unchanged.Add(1)
				return
			}

			switch updated.Status {
			case shop.PaymentPaid:
				paid.Add(1)
			case shop.PaymentFailed:
				failed.Add(1)
			case shop.PaymentExpired:
				expired.Add(1)
			}
		}); err != nil {
			workers.Done()
			workers.Wait()
			return ReconcileResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}
	workers.Wait()

	result := ReconcileResult{
		Checked:    len(pending),
		Paid:       int(paid.Load()),
		Failed:     int(failed.Load()),
		Expired:    int(expired.Load()),
		Unchanged:  int(unchanged.Load()),
		Errors:     int(errCount.Load()),
		DurationMs: time.Since(start).Milliseconds(),
	}
	r.logger.InfoContext(ctx, "payment reconcile finished",
		"checked", result.Checked,
		"paid", result.Paid,
		"failed", result.Failed,
		"expired", result.Expired,
		"errors", result.Errors,
		"duration_ms", result.DurationMs,
	)
	return result, nil
}
