package inventory

import (
	"context"

	"github.com/jhoicas/fluxo-estoque/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Un producto escribe toda su ventana (y su saldo maestro) dentro de una única transacción.
type TxRunner interface {
	Run(ctx context.Context, table repository.FlowTable, fn func(
		flowRepo repository.FlowRecordRepository,
		productRepo repository.ProductRepository,
	) error) error
}
