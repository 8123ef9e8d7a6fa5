package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/fluxo-estoque/internal/domain"
	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
	"github.com/jhoicas/fluxo-estoque/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `system_unit_id, codigo, COALESCE(nome, ''), COALESCE(preco_custo, 0), COALESCE(categoria, ''),
		insumo = 1, COALESCE(saldo, 0), ultimo_doc, updated_at`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	var lastDoc *string
	if err := row.Scan(&p.StoreID, &p.Code, &p.Name, &p.Cost, &p.Category,
		&p.IsIngredient, &p.Balance, &lastDoc, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.LastDoc = derefString(lastDoc)
	return &p, nil
}

// ListStockTracked productos con control de stock (insumo = 1) de la tienda.
func (r *ProductRepo) ListStockTracked(ctx context.Context, storeID int64) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE system_unit_id = $1 AND insumo = 1
		ORDER BY codigo`
	rows, err := r.q.Query(ctx, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

// GetByCode obtiene un producto; nil si no existe.
func (r *ProductRepo) GetByCode(ctx context.Context, storeID int64, code string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE system_unit_id = $1 AND codigo = $2`
	p, err := scanProduct(r.q.QueryRow(ctx, query, storeID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// UpdateBalance fija saldo y, si lastDoc no es vacío, ultimo_doc.
func (r *ProductRepo) UpdateBalance(ctx context.Context, storeID int64, code string, balance decimal.Decimal, lastDoc string) error {
	query := `
		UPDATE products
		SET saldo = $3, ultimo_doc = COALESCE($4, ultimo_doc), updated_at = NOW()
		WHERE system_unit_id = $1 AND codigo = $2`
	tag, err := r.q.Exec(ctx, query, storeID, code, balance, nullIfEmpty(lastDoc))
	if err != nil {
		return fmt.Errorf("update product balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
