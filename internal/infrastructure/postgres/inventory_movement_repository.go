package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
	"github.com/jhoicas/fluxo-estoque/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo lectura de movimentacao sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// ListByProductInRange movimientos activos de la ventana en orden (data, id).
func (r *MovementRepo) ListByProductInRange(ctx context.Context, storeID int64, productCode string, from, to time.Time) ([]entity.InventoryMovement, error) {
	query := `
		SELECT id, system_unit_id, produto, data, tipo_mov, COALESCE(doc, ''), quantidade, status
		FROM movimentacao
		WHERE system_unit_id = $1 AND produto = $2 AND status = $3 AND data BETWEEN $4 AND $5
		ORDER BY data, id`
	rows, err := r.q.Query(ctx, query, storeID, productCode, entity.MovementStatusActive, from, to)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	out := make([]entity.InventoryMovement, 0)
	for rows.Next() {
		var m entity.InventoryMovement
		if err := rows.Scan(&m.ID, &m.StoreID, &m.ProductCode, &m.Date, &m.Type, &m.Doc, &m.Quantity, &m.Status); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return out, nil
}

// LastCountBefore último balanço activo estrictamente anterior a before.
func (r *MovementRepo) LastCountBefore(ctx context.Context, storeID int64, productCode string, before time.Time) (*entity.CountEvent, error) {
	query := `
		SELECT COALESCE(doc, ''), quantidade
		FROM movimentacao
		WHERE system_unit_id = $1 AND produto = $2 AND tipo_mov = $3 AND status = $4 AND data < $5
		ORDER BY data DESC, id DESC
		LIMIT 1`
	var c entity.CountEvent
	err := r.q.QueryRow(ctx, query, storeID, productCode, entity.MovementTypeBalanco, entity.MovementStatusActive, before).
		Scan(&c.Doc, &c.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("last count: %w", err)
	}
	return &c, nil
}

// ListProductCodesWithMovementsOn productos distintos con movimientos activos en el día.
func (r *MovementRepo) ListProductCodesWithMovementsOn(ctx context.Context, storeID int64, date time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT produto
		FROM movimentacao
		WHERE system_unit_id = $1 AND data = $2 AND status = $3
		ORDER BY produto`
	rows, err := r.q.Query(ctx, query, storeID, date, entity.MovementStatusActive)
	if err != nil {
		return nil, fmt.Errorf("list day products: %w", err)
	}
	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list day products: %w", err)
	}
	return codes, nil
}
