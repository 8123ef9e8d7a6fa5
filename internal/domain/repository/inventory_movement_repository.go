package repository

import (
	"context"
	"time"

	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
)

// MovementRepository puerto de lectura de movimentacao. Solo lectura: el motor nunca escribe movimientos.
type MovementRepository interface {
	// ListByProductInRange movimientos activos de [from, to] ordenados por (data, id).
	ListByProductInRange(ctx context.Context, storeID int64, productCode string, from, to time.Time) ([]entity.InventoryMovement, error)
	// LastCountBefore último balanço activo con data < before; nil si no existe.
	LastCountBefore(ctx context.Context, storeID int64, productCode string, before time.Time) (*entity.CountEvent, error)
	// ListProductCodesWithMovementsOn productos distintos con movimientos activos en el día.
	ListProductCodesWithMovementsOn(ctx context.Context, storeID int64, date time.Time) ([]string, error)
}
