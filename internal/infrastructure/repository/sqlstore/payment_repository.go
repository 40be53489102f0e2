package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/plus-predictor/internal/domain/shop"
	qb "github.com/riskibarqy/plus-predictor/internal/platform/querybuilder"
)

type PaymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p shop.Payment) error {
	query, args, err := qb.InsertModel("shop_payments", newPaymentTableModel(p), "")
	if err != nil {
		return fmt.Errorf("build insert payment query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("insert payment id=%s: %w", p.ID, err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, paymentID string) (shop.Payment, bool, error) {
	return r.getOne(ctx, qb.Eq("id", paymentID))
}

func (r *PaymentRepository) GetByProviderRef(ctx context.Context, providerRef string) (shop.Payment, bool, error) {
	if providerRef == "" {
		return shop.Payment{}, false, nil
	}
	return r.getOne(ctx, qb.Eq("provider_ref", providerRef))
}

func (r *PaymentRepository) ListByOrder(ctx context.Context, orderID string) ([]shop.Payment, error) {
	query, args, err := qb.Select("*").From("shop_payments").
		Where(qb.Eq("order_id", orderID)).
		OrderBy("created_at DESC", "id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select payments by order query: %w", err)
	}
	return r.selectPayments(ctx, query, args)
}

func (r *PaymentRepository) ListPending(ctx context.Context, limit int) ([]shop.Payment, error) {
	builder := qb.Select("*").From("shop_payments").
		Where(qb.Eq("status", shop.PaymentPending)).
		OrderBy("created_at ASC", "id ASC")
	if limit > 0 {
		builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select pending payments query: %w", err)
	}
	return r.selectPayments(ctx, query, args)
}

func (r *PaymentRepository) Transition(ctx context.Context, t shop.Transition) (bool, error) {
	var applied bool
	err := withTx(ctx, r.db, "payment transition", func(tx *sqlx.Tx) error {
		update := qb.Update("shop_payments").
			Set("status", t.To).
			Set("updated_at", t.At.UTC())
		if t.To == shop.PaymentPaid {
			update.Set("paid_at", t.At.UTC())
		}
		query, args, err := update.
			Where(qb.Eq("id", t.PaymentID), qb.Eq("status", shop.PaymentPending)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build payment transition query: %w", err)
		}
		applied, err = execAffected(ctx, tx, query, args)
		if err != nil {
			return fmt.Errorf("transition payment id=%s to %s: %w", t.PaymentID, t.To, err)
		}
		if !applied || t.To != shop.PaymentPaid {
			return nil
		}

		query, args, err = qb.Update("shop_orders").
			Set("status", shop.OrderPaid).
			Set("updated_at", t.At.UTC()).
			Where(
				qb.Expr("id = (SELECT order_id FROM shop_payments WHERE id = ?)", t.PaymentID),
				qb.Eq("status", shop.OrderPending),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build mark order paid query: %w", err)
		}
		orderPaid, err := execAffected(ctx, tx, query, args)
		if err != nil {
			return fmt.Errorf("mark order paid for payment id=%s: %w", t.PaymentID, err)
		}
		if !orderPaid {
			applied = false
			return fmt.Errorf("settle payment id=%s: %w", t.PaymentID, shop.ErrOrderNotPending)
		}

		orderOfPayment := qb.Expr("order_id = (SELECT order_id FROM shop_payments WHERE id = ?)", t.PaymentID)
		return expirePendingPayments(ctx, tx, orderOfPayment, t.PaymentID, t.At)
	})
	return applied, err
}

func (r *PaymentRepository) getOne(ctx context.Context, where ...qb.Condition) (shop.Payment, bool, error) {
	query, args, err := qb.Select("*").From("shop_payments").
		Where(where...).
		OrderBy("created_at DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return shop.Payment{}, false, fmt.Errorf("build select payment query: %w", err)
	}

	var row paymentTableModel
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), args...); err != nil {
		if isNotFound(err) {
			return shop.Payment{}, false, nil
		}
		return shop.Payment{}, false, fmt.Errorf("get payment: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *PaymentRepository) selectPayments(ctx context.Context, query string, args []any) ([]shop.Payment, error) {
	var rows []paymentTableModel
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}

	out := make([]shop.Payment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
