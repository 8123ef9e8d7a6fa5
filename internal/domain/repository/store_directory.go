package repository

import (
	"context"

	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
)

// StoreDirectory resuelve grupos y tiendas. Implementado por el backend RPC o por PostgreSQL.
type StoreDirectory interface {
	ListStoresByGroup(ctx context.Context, groupID int64) ([]entity.StoreUnit, error)
	ListGroupsToConsolidate(ctx context.Context) ([]entity.StoreGroup, error)
}
