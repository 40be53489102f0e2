package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/plus-predictor/internal/domain/shop"
	"github.com/riskibarqy/plus-predictor/internal/usecase"
)

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreatePayment")
	defer span.End()

	caller, err := currentUser(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	orderID := r.PathValue("orderID")
	var req createPaymentRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	payment, err := h.paymentService.CreatePayment(ctx, usecase.CreatePaymentInput{
		UserID:  caller.ID,
		OrderID: orderID,
		Method:  req.Method,
		Phone:   req.Phone,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create payment failed", "user_id", caller.ID, "order_id", orderID, "method", req.Method, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusCreated, paymentToDTO(payment))
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPayment")
	defer span.End()

	caller, err := currentUser(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	paymentID := r.PathValue("paymentID")
	payment, err := h.paymentService.GetPayment(ctx, caller.ID, paymentID)
	if err != nil {
		h.logger.WarnContext(ctx, "get payment failed", "user_id", caller.ID, "payment_id", paymentID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, paymentToDTO(payment))
}

// PaymentWebhook applies a provider callback; the shared secret was checked by middleware.
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PaymentWebhook")
	defer span.End()

	// Providers add fields over time, so unknown keys are tolerated here.
	var req paymentWebhookRequest
	if err := sonic.ConfigDefault.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	amount, err := shop.ParseAmount(string(req.Amount))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	result, err := h.paymentService.HandleWebhook(ctx, usecase.WebhookInput{
		ProviderRef: req.ProviderRef,
		OrderID:     req.OrderID,
		AmountCents: amount,
		Status:      req.Status,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "payment webhook rejected",
			"provider_ref", req.ProviderRef,
			"status", req.Status,
			"client_ip", resolveClientIP(r),
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	h.logger.DebugContext(ctx, "payment webhook acknowledged",
		"payment_id", result.Payment.ID,
		"status", result.Payment.Status,
		"applied", result.Applied,
	)
	writeSuccess(ctx, w, http.StatusOK, webhookResultDTO{
		PaymentID: result.Payment.ID,
		Status:    result.Payment.Status,
		Applied:   result.Applied,
	})
}

func (h *Handler) AdminReconcilePayments(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminReconcilePayments")
	defer span.End()

	result, err := h.reconciler.Run(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "reconcile payments failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, reconcileDTO{
		Checked:    result.Checked,
		Paid:       result.Paid,
		Failed:     result.Failed,
		Expired:    result.Expired,
		Unchanged:  result.Unchanged,
		Errors:     result.Errors,
		DurationMs: result.DurationMs,
	})
}
