package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/plus-predictor/internal/domain/shop"
	qb "github.com/riskibarqy/plus-predictor/internal/platform/querybuilder"
)

type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, o shop.Order) error {
	if len(o.Items) == 0 {
		return fmt.Errorf("order id=%s has no items", o.ID)
	}

	return withTx(ctx, r.db, "create order", func(tx *sqlx.Tx) error {
		for _, item := range o.Items {
			if err := reserveStock(ctx, tx, item, o.CreatedAt); err != nil {
				return err
			}
		}

		query, args, err := qb.InsertModel("shop_orders", newOrderTableModel(o), "")
		if err != nil {
			return fmt.Errorf("build insert order query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("insert order id=%s: %w", o.ID, err)
		}

		items := qb.InsertInto("shop_order_items").
			Columns("order_id", "product_id", "position", "name", "unit_price_cents", "quantity")
		for i, item := range o.Items {
			items.Values(o.ID, item.ProductID, i, item.Name, item.UnitPriceCents, item.Quantity)
		}
		query, args, err = items.ToSQL()
		if err != nil {
			return fmt.Errorf("build insert order items query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("insert order items order=%s: %w", o.ID, err)
		}
		return nil
	})
}

// reserveStock decrements stock only while the product is active and has enough left.
func reserveStock(ctx context.Context, tx *sqlx.Tx, item shop.OrderItem, at time.Time) error {
	query, args, err := qb.Update("shop_products").
		SetExpr("stock", "stock - ?", item.Quantity).
		Set("updated_at", at.UTC()).
		Where(
			qb.Eq("id", item.ProductID),
			qb.Eq("active", true),
			qb.Gte("stock", item.Quantity),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build reserve stock query: %w", err)
	}
	ok, err := execAffected(ctx, tx, query, args)
	if err != nil {
		return fmt.Errorf("reserve stock product=%s: %w", item.ProductID, err)
	}
	if ok {
		return nil
	}

	var active bool
	if err := tx.GetContext(ctx, &active,
		tx.Rebind(`SELECT active FROM shop_products WHERE id = ?`), item.ProductID,
	); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", shop.ErrProductInactive, item.ProductID)
		}
		return fmt.Errorf("read product id=%s: %w", item.ProductID, err)
	}
	if !active {
		return fmt.Errorf("%w: %s", shop.ErrProductInactive, item.ProductID)
	}
	return fmt.Errorf("%w: %s", shop.ErrInsufficientStock, item.ProductID)
}

func (r *OrderRepository) GetByID(ctx context.Context, orderID string) (shop.Order, bool, error) {
	orders, err := r.selectOrders(ctx, qb.Select("*").From("shop_orders").Where(qb.Eq("id", orderID)).Limit(1))
	if err != nil {
		return shop.Order{}, false, err
	}
	if len(orders) == 0 {
		return shop.Order{}, false, nil
	}
	return orders[0], true, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]shop.Order, error) {
	return r.selectOrders(ctx, qb.Select("*").From("shop_orders").
		Where(qb.Eq("user_id", userID)).
		OrderBy("created_at DESC", "id ASC"))
}

func (r *OrderRepository) List(ctx context.Context, status string) ([]shop.Order, error) {
	builder := qb.Select("*").From("shop_orders")
	if status != "" {
		builder.Where(qb.Eq("status", status))
	}
	return r.selectOrders(ctx, builder.OrderBy("created_at DESC", "id ASC"))
}

func (r *OrderRepository) Cancel(ctx context.Context, orderID string, at time.Time) (bool, error) {
	var cancelled bool
	err := withTx(ctx, r.db, "cancel order", func(tx *sqlx.Tx) error {
		var err error
		cancelled, err = setPendingOrderStatus(ctx, tx, orderID, shop.OrderCancelled, at)
		if err != nil || !cancelled {
			return err
		}
		if err := expirePendingPayments(ctx, tx, qb.Eq("order_id", orderID), "", at); err != nil {
			return err
		}

		var items []orderItemTableModel
		if err := tx.SelectContext(ctx, &items,
			tx.Rebind(`SELECT * FROM shop_order_items WHERE order_id = ?`), orderID,
		); err != nil {
			return fmt.Errorf("select items for order id=%s: %w", orderID, err)
		}
		for _, item := range items {
			query, args, err := qb.Update("shop_products").
				SetExpr("stock", "stock + ?", item.Quantity).
				Set("updated_at", at.UTC()).
				Where(qb.Eq("id", item.ProductID)).
				ToSQL()
			if err != nil {
				return fmt.Errorf("build restore stock query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
				return fmt.Errorf("restore stock product=%s: %w", item.ProductID, err)
			}
		}
		return nil
	})
	return cancelled, err
}

func (r *OrderRepository) MarkPaid(ctx context.Context, orderID string, at time.Time) (bool, error) {
	var paid bool
	err := withTx(ctx, r.db, "mark order paid", func(tx *sqlx.Tx) error {
		var err error
		paid, err = setPendingOrderStatus(ctx, tx, orderID, shop.OrderPaid, at)
		if err != nil || !paid {
			return err
		}
		return expirePendingPayments(ctx, tx, qb.Eq("order_id", orderID), "", at)
	})
	return paid, err
}

// expirePendingPayments closes the still-payable payments of an order that
// left pending. keepID, when set, spares the payment being settled.
func expirePendingPayments(ctx context.Context, tx *sqlx.Tx, order qb.Condition, keepID string, at time.Time) error {
	where := []qb.Condition{order, qb.Eq("status", shop.PaymentPending)}
	if keepID != "" {
		where = append(where, qb.NotEq("id", keepID))
	}
	query, args, err := qb.Update("shop_payments").
		Set("status", shop.PaymentExpired).
		Set("updated_at", at.UTC()).
		Where(where...).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build expire payments query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("expire pending payments: %w", err)
	}
	return nil
}

func setPendingOrderStatus(ctx context.Context, tx *sqlx.Tx, orderID, status string, at time.Time) (bool, error) {
	query, args, err := qb.Update("shop_orders").
		Set("status", status).
		Set("updated_at", at.UTC()).
		Where(qb.Eq("id", orderID), qb.Eq("status", shop.OrderPending)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build order status query: %w", err)
	}
	ok, err := execAffected(ctx, tx, query, args)
	if err != nil {
		return false, fmt.Errorf("set order id=%s status=%s: %w", orderID, status, err)
	}
	return ok, nil
}

func (r *OrderRepository) selectOrders(ctx context.Context, builder *qb.SelectBuilder) ([]shop.Order, error) {
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select orders query: %w", err)
	}

	var rows []orderTableModel
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	query, args, err = qb.Select("*").From("shop_order_items").
		Where(qb.InStrings("order_id", ids)).
		OrderBy("order_id", "position").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select order items query: %w", err)
	}
	var itemRows []orderItemTableModel
	if err := r.db.SelectContext(ctx, &itemRows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}

	itemsByOrder := make(map[string][]shop.OrderItem, len(rows))
	for _, item := range itemRows {
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], shop.OrderItem{
			ProductID:      item.ProductID,
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
		})
	}

	out := make([]shop.Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain(itemsByOrder[row.ID]))
	}
	return out, nil
}
