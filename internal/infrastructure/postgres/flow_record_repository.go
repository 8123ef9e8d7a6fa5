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

var _ repository.FlowRecordRepository = (*FlowRecordRepo)(nil)

// FlowRecordRepo persiste registros diarios en fluxo_estoque o diferencas_estoque (mismo esquema).
type FlowRecordRepo struct {
	q     Querier
	table repository.FlowTable
	ident string
}

// NewFlowRecordRepository construye el adaptador para la tabla indicada. Pasar pool o tx (Querier).
func NewFlowRecordRepository(q Querier, table repository.FlowTable) *FlowRecordRepo {
	return &FlowRecordRepo{q: q, table: table, ident: pgx.Identifier{string(table)}.Sanitize()}
}

func (r *FlowRecordRepo) Table() repository.FlowTable { return r.table }

// Upsert inserta o sobrescribe el registro (data, system_unit_id, produto).
func (r *FlowRecordRepo) Upsert(ctx context.Context, rec *entity.FlowRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			data, system_unit_id, produto, nome_produto, categoria, preco_custo, doc,
			saldo_anterior, entradas, saidas, contagem_ideal, contagem_realizada, diferenca, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		ON CONFLICT (data, system_unit_id, produto) DO UPDATE SET
			nome_produto       = EXCLUDED.nome_produto,
			categoria          = EXCLUDED.categoria,
			preco_custo        = EXCLUDED.preco_custo,
			doc                = EXCLUDED.doc,
			saldo_anterior     = EXCLUDED.saldo_anterior,
			entradas           = EXCLUDED.entradas,
			saidas             = EXCLUDED.saidas,
			contagem_ideal     = EXCLUDED.contagem_ideal,
			contagem_realizada = EXCLUDED.contagem_realizada,
			diferenca          = EXCLUDED.diferenca,
			updated_at         = NOW()`, r.ident)
	_, err := r.q.Exec(ctx, query,
		rec.Date, rec.StoreID, rec.ProductCode, rec.ProductName, rec.Category, rec.Cost, nullIfEmpty(rec.Doc),
		rec.OpeningBalance, rec.Entries, rec.Exits, rec.ExpectedCount, rec.ActualCount, rec.Difference,
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", r.table, err)
	}
	return nil
}

// CountByStoreAndDate filas existentes para (tienda, día).
func (r *FlowRecordRepo) CountByStoreAndDate(ctx context.Context, storeID int64, date time.Time) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE data = $1 AND system_unit_id = $2`, r.ident)
	var n int
	if err := r.q.QueryRow(ctx, query, date, storeID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", r.table, err)
	}
	return n, nil
}

// GetByKey lee el registro de (tienda, producto, día) bloqueándolo dentro de la transacción.
func (r *FlowRecordRepo) GetByKey(ctx context.Context, storeID int64, productCode string, date time.Time) (*entity.FlowRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE data = $1 AND system_unit_id = $2 AND produto = $3
		FOR UPDATE`, recordColumns, r.ident)
	rec, err := scanRecord(r.q.QueryRow(ctx, query, date, storeID, productCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", r.table, err)
	}
	return rec, nil
}

// DeleteByKey borra el registro de (tienda, producto, día); usado por la reconsolidación forzada.
func (r *FlowRecordRepo) DeleteByKey(ctx context.Context, storeID int64, productCode string, date time.Time) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE data = $1 AND system_unit_id = $2 AND produto = $3`, r.ident)
	if _, err := r.q.Exec(ctx, query, date, storeID, productCode); err != nil {
		return fmt.Errorf("delete %s: %w", r.table, err)
	}
	return nil
}

// ListByStoreAndRange registros de la tienda en [from, to] por producto y fecha.
func (r *FlowRecordRepo) ListByStoreAndRange(ctx context.Context, storeID int64, from, to time.Time) ([]*entity.FlowRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE system_unit_id = $1 AND data BETWEEN $2 AND $3
		ORDER BY produto, data`, recordColumns, r.ident)
	rows, err := r.q.Query(ctx, query, storeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.table, err)
	}
	defer rows.Close()

	out := make([]*entity.FlowRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.table, err)
	}
	return out, nil
}

const recordColumns = `data, system_unit_id, produto, COALESCE(nome_produto, ''), COALESCE(categoria, ''), COALESCE(preco_custo, 0), doc,
			saldo_anterior, entradas, saidas, contagem_ideal, contagem_realizada, diferenca, updated_at`

func scanRecord(row pgx.Row) (*entity.FlowRecord, error) {
	var rec entity.FlowRecord
	var doc *string
	if err := row.Scan(
		&rec.Date, &rec.StoreID, &rec.ProductCode, &rec.ProductName, &rec.Category, &rec.Cost, &doc,
		&rec.OpeningBalance, &rec.Entries, &rec.Exits, &rec.ExpectedCount, &rec.ActualCount, &rec.Difference, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rec.Doc = derefString(doc)
	return &rec, nil
}
