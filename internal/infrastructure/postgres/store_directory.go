package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
	"github.com/jhoicas/fluxo-estoque/internal/domain/repository"
)

var _ repository.StoreDirectory = (*StoreDirectory)(nil)

// StoreDirectory resuelve grupos y tiendas desde las tablas locales
// (grupo_estabelecimento, grupo_estabelecimento_rel, system_unit). Alternativa al backend RPC.
type StoreDirectory struct {
	q Querier
}

func NewStoreDirectory(q Querier) *StoreDirectory {
	return &StoreDirectory{q: q}
}

// ListStoresByGroup tiendas del grupo con custom_code informado.
func (d *StoreDirectory) ListStoresByGroup(ctx context.Context, groupID int64) ([]entity.StoreUnit, error) {
	query := `
		SELECT su.id, su.custom_code, COALESCE(su.name, '')
		FROM grupo_estabelecimento_rel AS rel
		JOIN system_unit AS su ON rel.system_unit_id = su.id
		WHERE rel.grupo_id = $1 AND su.custom_code IS NOT NULL
		ORDER BY su.id`
	rows, err := d.q.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("list stores by group: %w", err)
	}
	defer rows.Close()

	out := make([]entity.StoreUnit, 0)
	for rows.Next() {
		var u entity.StoreUnit
		if err := rows.Scan(&u.ID, &u.CustomCode, &u.Name); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stores by group: %w", err)
	}
	return out, nil
}

// ListGroupsToConsolidate grupos marcados para consolidación diaria.
func (d *StoreDirectory) ListGroupsToConsolidate(ctx context.Context) ([]entity.StoreGroup, error) {
	query := `SELECT id, COALESCE(nome, '') FROM grupo_estabelecimento WHERE consolida = 1 ORDER BY id`
	rows, err := d.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	out := make([]entity.StoreGroup, 0)
	for rows.Next() {
		var g entity.StoreGroup
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return out, nil
}
