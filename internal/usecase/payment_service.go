package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/plus-predictor/internal/domain/shop"
	idgen "github.com/riskibarqy/plus-predictor/internal/platform/id"
	"github.com/riskibarqy/plus-predictor/internal/platform/logging"
)

const (
	defaultMultibancoTTL = 72 * time.Hour
	defaultMBWayTTL      = 5 * time.Minute
	// reconcileGrace lets the provider settle before a deferred sweep looks at an expired payment.
	reconcileGrace = time.Minute
)

// ReconcileScheduler defers a reconciliation sweep until a payment's expiry.
type ReconcileScheduler interface {
	ScheduleReconcile(ctx context.Context, paymentID string, at time.Time) error
}

type PaymentTTLs struct {
	Multibanco time.Duration
	MBWay      time.Duration
}

type CreatePaymentInput struct {
	UserID  string
	OrderID string
	Method  string
	Phone   string
}

// WebhookInput is a provider callback after the shared secret was checked.
type WebhookInput struct {
	ProviderRef string
	OrderID     string
	AmountCents int64
	Status      string
}

// WebhookResult reports whether the callback changed anything.
type WebhookResult struct {
	Payment shop.Payment
	Applied bool
}

type PaymentService struct {
	orderRepo   shop.OrderRepository
	paymentRepo shop.PaymentRepository
	gateway     PaymentGateway
	ttls        PaymentTTLs
	idGen       idgen.Generator
	scheduler   ReconcileScheduler
	logger      *logging.Logger
	now         func() time.Time
}

func NewPaymentService(
	orderRepo shop.OrderRepository,
	paymentRepo shop.PaymentRepository,
	gateway PaymentGateway,
	ttls PaymentTTLs,
	idGen idgen.Generator,
	logger *logging.Logger,
) *PaymentService {
	if ttls.Multibanco <= 0 {
		ttls.Multibanco = defaultMultibancoTTL
	}
	if ttls.MBWay <= 0 {
		ttls.MBWay = defaultMBWayTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PaymentService{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		gateway:     gateway,
		ttls:        ttls,
		idGen:       idGen,
		logger:      logger,
		now:         time.Now,
	}
}

// WithReconcileScheduler makes every new payment book a sweep shortly after it expires.
func (s *PaymentService) WithReconcileScheduler(scheduler ReconcileScheduler) *PaymentService {
	s.scheduler = scheduler
	return s
}

// CreatePayment hands out a still-valid pending payment for the same method,
// or requests a new one from the provider.
func (s *PaymentService) CreatePayment(ctx context.Context, input CreatePaymentInput) (shop.Payment, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PaymentService.CreatePayment")
	defer span.End()

	input.UserID = strings.TrimSpace(input.UserID)
	input.OrderID = strings.TrimSpace(input.OrderID)
	input.Method = strings.ToLower(strings.TrimSpace(input.Method))
	if input.UserID == "" {
		return shop.Payment{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	if !shop.IsValidMethod(input.Method) {
		return shop.Payment{}, fmt.Errorf("%w: method must be %s or %s", ErrInvalidInput, shop.MethodMultibanco, shop.MethodMBWay)
	}

	order, exists, err := s.orderRepo.GetByID(ctx, input.OrderID)
	if err != nil {
		return shop.Payment{}, fmt.Errorf("get order: %w", err)
	}
	if !exists || order.UserID != input.UserID {
		return shop.Payment{}, fmt.Errorf("%w: order=%s", ErrNotFound, input.OrderID)
	}
	if order.Status != shop.OrderPending {
		return shop.Payment{}, fmt.Errorf("%w: %v", ErrConflict, shop.ErrOrderNotPending)
	}

	phone := ""
	if input.Method == shop.MethodMBWay {
		raw := input.Phone
		if strings.TrimSpace(raw) == "" {
			raw = order.Customer.Phone
		}
		phone, err = shop.NormalizeMBWayPhone(raw)
		if err != nil {
			return shop.Payment{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	now := s.now().UTC()
	existing, err := s.paymentRepo.ListByOrder(ctx, order.ID)
	if err != nil {
		return shop.Payment{}, fmt.Errorf("list order payments: %w", err)
	}
	for _, p := range existing {
		if p.IsReusable(input.Method, now) && p.Phone == phone && p.AmountCents == order.TotalCents {
			return p, nil
		}
	}

	req := PaymentRequest{
		OrderID:     order.ID,
		AmountCents: order.TotalCents,
		Email:       order.Customer.Email,
		Phone:       phone,
		Description: fmt.Sprintf("Order %s", order.ID),
	}

	var created ProviderPayment
	switch input.Method {
	case shop.MethodMultibanco:
		req.ExpiresAt = now.Add(s.ttls.Multibanco)
		created, err = s.gateway.CreateMultibanco(ctx, req)
	default:
		req.ExpiresAt = now.Add(s.ttls.MBWay)
		created, err = s.gateway.CreateMBWay(ctx, req)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "payment provider create failed",
			"order_id", order.ID,
			"method", input.Method,
			"error", err,
		)
		return shop.Payment{}, fmt.Errorf("%w: create %s payment: %w", ErrDependencyUnavailable, input.Method, err)
	}

	paymentID, err := s.idGen.NewID()
	if err != nil {
		return shop.Payment{}, fmt.Errorf("generate payment id: %w", err)
	}

	expiresAt := req.ExpiresAt
	if created.ExpiresAt != nil {
		expiresAt = created.ExpiresAt.UTC()
	}
	payment := shop.Payment{
		ID:          paymentID,
		OrderID:     order.ID,
		Method:      input.Method,
		Status:      shop.PaymentPending,
		AmountCents: order.TotalCents,
		ProviderRef: created.ProviderRef,
		Entity:      created.Entity,
		Reference:   created.Reference,
		Phone:       phone,
		ExpiresAt:   &expiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return shop.Payment{}, fmt.Errorf("create payment: %w", err)
	}

	s.logger.InfoContext(ctx, "payment created",
		"payment_id", payment.ID,
		"order_id", order.ID,
		"method", payment.Method,
		"provider_ref", payment.ProviderRef,
	)
	s.scheduleReconcile(ctx, payment)
	return payment, nil
}

// scheduleReconcile is best effort: a payment left pending is still swept by
// polling or a manual reconcile.
func (s *PaymentService) scheduleReconcile(ctx context.Context, payment shop.Payment) {
	if s.scheduler == nil || payment.ExpiresAt == nil {
		return
	}
	at := payment.ExpiresAt.Add(reconcileGrace)
	if err := s.scheduler.ScheduleReconcile(ctx, payment.ID, at); err != nil {
		s.logger.WarnContext(ctx, "schedule payment reconcile failed",
			"payment_id", payment.ID,
			"run_at", at,
			"error", err,
		)
	}
}

// GetPayment is the client status poll; a pending payment is refreshed first.
func (s *PaymentService) GetPayment(ctx context.Context, userID, paymentID string) (shop.Payment, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PaymentService.GetPayment")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return shop.Payment{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}

	payment, exists, err := s.paymentRepo.GetByID(ctx, strings.TrimSpace(paymentID))
	if err != nil {
		return shop.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	if !exists {
		return shop.Payment{}, fmt.Errorf("%w: payment=%s", ErrNotFound, paymentID)
	}

	order, exists, err := s.orderRepo.GetByID(ctx, payment.OrderID)
	if err != nil {
		return shop.Payment{}, fmt.Errorf("get order: %w", err)
	}
	if !exists || order.UserID != userID {
		return shop.Payment{}, fmt.Errorf("%w: payment=%s", ErrNotFound, paymentID)
	}

	refreshed, _, err := s.Refresh(ctx, payment)
	if err != nil {
		// A provider outage must not hide the stored state from the client.
		s.logger.WarnContext(ctx, "refresh payment failed",
			"payment_id", payment.ID,
			"error", err,
		)
		return payment, nil
	}
	return refreshed, nil
}

// Refresh settles a pending payment: overdue ones expire, others take the
// provider's terminal status. It reports whether this call changed the payment.
func (s *PaymentService) Refresh(ctx context.Context, payment shop.Payment) (shop.Payment, bool, error) {
	if payment.Status != shop.PaymentPending {
		return payment, false, nil
	}

	now := s.now().UTC()
	if payment.IsOverdue(now) {
		return s.transition(ctx, payment, shop.PaymentExpired, now)
	}
	if strings.TrimSpace(payment.ProviderRef) == "" {
		return payment, false, nil
	}

	status, err := s.gateway.GetStatus(ctx, payment.ProviderRef)
	if err != nil {
		return payment, false, fmt.Errorf("%w: payment status: %w", ErrDependencyUnavailable, err)
	}
	if status.Status == shop.PaymentPending || status.Status == "" {
		return payment, false, nil
	}
	if status.Status == shop.PaymentPaid && status.AmountCents > 0 && status.AmountCents != payment.AmountCents {
		s.logger.WarnContext(ctx, "provider reported paid amount mismatch",
			"payment_id", payment.ID,
			"expected_cents", payment.AmountCents,
			"provider_cents", status.AmountCents,
		)
		return payment, false, fmt.Errorf("%w: %v", ErrConflict, shop.ErrAmountMismatch)
	}

	at := now
	if status.PaidAt != nil {
		at = status.PaidAt.UTC()
	}
	return s.transition(ctx, payment, status.Status, at)
}

// HandleWebhook applies a provider callback. Re-delivery of an outcome that
// is already stored is a no-op; a different outcome on a terminal payment
// is a conflict.
func (s *PaymentService) HandleWebhook(ctx context.Context, input WebhookInput) (WebhookResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PaymentService.HandleWebhook")
	defer span.End()

	input.ProviderRef = strings.TrimSpace(input.ProviderRef)
	if input.ProviderRef == "" {
		return WebhookResult{}, fmt.Errorf("%w: provider_ref is required", ErrInvalidInput)
	}
	status, ok := shop.NormalizePaymentStatus(input.Status)
	if !ok {
		return WebhookResult{}, fmt.Errorf("%w: unknown payment status %q", ErrInvalidInput, input.Status)
	}

	payment, exists, err := s.paymentRepo.GetByProviderRef(ctx, input.ProviderRef)
	if err != nil {
		return WebhookResult{}, fmt.Errorf("get payment by provider ref: %w", err)
	}
	if !exists {
		return WebhookResult{}, fmt.Errorf("%w: provider_ref=%s", ErrNotFound, input.ProviderRef)
	}
	if orderID := strings.TrimSpace(input.OrderID); orderID != "" && orderID != payment.OrderID {
		return WebhookResult{}, fmt.Errorf("%w: order does not match payment", ErrInvalidInput)
	}
	if input.AmountCents != payment.AmountCents {
		s.logger.WarnContext(ctx, "webhook amount mismatch",
			"payment_id", payment.ID,
			"expected_cents", payment.AmountCents,
			"received_cents", input.AmountCents,
		)
		return WebhookResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, shop.ErrAmountMismatch)
	}

	if status == shop.PaymentPending || payment.Status == status {
		return WebhookResult{Payment: payment}, nil
	}
	if shop.IsTerminalPayment(payment.Status) {
		return WebhookResult{}, fmt.Errorf("%w: payment already %s", ErrConflict, payment.Status)
	}

	updated, applied, err := s.transition(ctx, payment, status, s.now().UTC())
	if err != nil {
		return WebhookResult{}, err
	}
	if !applied && updated.Status != status {
		return WebhookResult{}, fmt.Errorf("%w: payment already %s", ErrConflict, updated.Status)
	}

	s.logger.InfoContext(ctx, "payment webhook processed",
		"payment_id", updated.ID,
		"order_id", updated.OrderID,
		"status", updated.Status,
		"applied", applied,
	)
	return WebhookResult{Payment: updated, Applied: applied}, nil
}

// transition applies a conditional status change. When another writer won
// the race the stored payment is returned with applied=false.
func (s *PaymentService) transition(ctx context.Context, payment shop.Payment, to string, at time.Time) (shop.Payment, bool, error) {
	if err := shop.CanTransitionPayment(payment.Status, to); err != nil {
		return payment, false, fmt.Errorf("%w: %v", ErrConflict, err)
	}

	applied, err := s.paymentRepo.Transition(ctx, shop.Transition{PaymentID: payment.ID, To: to, At: at})
	if errors.Is(err, shop.ErrOrderNotPending) {
		s.logger.WarnContext(ctx, "payment settled after its order closed",
			"payment_id", payment.ID,
			"order_id", payment.OrderID,
			"status", to,
		)
		return payment, false, fmt.Errorf("%w: %v", ErrConflict, err)
	}
	if err != nil {
		return payment, false, fmt.Errorf("transition payment: %w", err)
	}
	if !applied {
		current, exists, err := s.paymentRepo.GetByID(ctx, payment.ID)
		if err != nil {
			return payment, false, fmt.Errorf("reload payment: %w", err)
		}
		if !exists {
			return payment, false, fmt.Errorf("%w: payment=%s", ErrNotFound, payment.ID)
		}
		return current, false, nil
	}

	payment.Status = to
	payment.UpdatedAt = at
	if to == shop.PaymentPaid {
		paidAt := at
		payment.PaidAt = &paidAt
	}
	return payment, true, nil
}
