package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/plus-predictor/internal/domain/shop"
	qb "github.com/riskibarqy/plus-predictor/internal/platform/querybuilder"
)

type ProductRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) List(ctx context.Context, activeOnly bool) ([]shop.Product, error) {
	builder := qb.Select("*").From("shop_products")
	if activeOnly {
		builder.Where(qb.Eq("active", true))
	}
	query, args, err := builder.OrderBy("name ASC", "id ASC").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select products query: %w", err)
	}
	return r.selectProducts(ctx, query, args)
}

func (r *ProductRepository) GetByID(ctx context.Context, productID string) (shop.Product, bool, error) {
	return r.getOne(ctx, qb.Eq("id", productID))
}

func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (shop.Product, bool, error) {
	return r.getOne(ctx, qb.Eq("slug", slug))
}

func (r *ProductRepository) ListByIDs(ctx context.Context, productIDs []string) ([]shop.Product, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	query, args, err := qb.Select("*").From("shop_products").
		Where(qb.InStrings("id", productIDs)).
		OrderBy("id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select products by ids query: %w", err)
	}
	return r.selectProducts(ctx, query, args)
}

func (r *ProductRepository) Create(ctx context.Context, p shop.Product) error {
	query, args, err := qb.InsertModel("shop_products", newProductTableModel(p), "")
	if err != nil {
		return fmt.Errorf("build insert product query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", shop.ErrDuplicateSlug, p.Slug)
		}
		return fmt.Errorf("insert product id=%s: %w", p.ID, err)
	}
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, p shop.Product) (bool, error) {
	query, args, err := qb.UpdateModel("shop_products", newProductTableModel(p), []string{"id", "created_at"}, qb.Eq("id", p.ID))
	if err != nil {
		return false, fmt.Errorf("build update product query: %w", err)
	}
	ok, err := execAffected(ctx, r.db, query, args)
	if err != nil {
		if isUniqueViolation(err) {
			return false, fmt.Errorf("%w: %s", shop.ErrDuplicateSlug, p.Slug)
		}
		return false, fmt.Errorf("update product id=%s: %w", p.ID, err)
	}
	return ok, nil
}

func (r *ProductRepository) Delete(ctx context.Context, productID string) (bool, error) {
	var deleted bool
	err := withTx(ctx, r.db, "delete product", func(tx *sqlx.Tx) error {
		var refs int
		if err := tx.GetContext(ctx, &refs,
			tx.Rebind(`SELECT COUNT(1) FROM shop_order_items WHERE product_id = ?`), productID,
		); err != nil {
			return fmt.Errorf("count order items for product id=%s: %w", productID, err)
		}
		if refs > 0 {
			return fmt.Errorf("%w: %d order lines", shop.ErrProductInUse, refs)
		}

		query, args, err := qb.DeleteFrom("shop_products").Where(qb.Eq("id", productID)).ToSQL()
		if err != nil {
			return fmt.Errorf("build delete product query: %w", err)
		}
		deleted, err = execAffected(ctx, tx, query, args)
		if err != nil {
			return fmt.Errorf("delete product id=%s: %w", productID, err)
		}
		return nil
	})
	return deleted, err
}

func (r *ProductRepository) getOne(ctx context.Context, where ...qb.Condition) (shop.Product, bool, error) {
	query, args, err := qb.Select("*").From("shop_products").Where(where...).Limit(1).ToSQL()
	if err != nil {
		return shop.Product{}, false, fmt.Errorf("build select product query: %w", err)
	}

	var row productTableModel
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), args...); err != nil {
		if isNotFound(err) {
			return shop.Product{}, false, nil
		}
		return shop.Product{}, false, fmt.Errorf("get product: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *ProductRepository) selectProducts(ctx context.Context, query string, args []any) ([]shop.Product, error) {
	var rows []productTableModel
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}

	out := make([]shop.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
