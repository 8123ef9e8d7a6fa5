package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para el maestro de productos (DIP).
type ProductRepository interface {
	ListStockTracked(ctx context.Context, storeID int64) ([]*entity.Product, error)
	GetByCode(ctx context.Context, storeID int64, code string) (*entity.Product, error)
	// UpdateBalance fija saldo; ultimo_doc solo cambia si lastDoc no es vacío.
	UpdateBalance(ctx context.Context, storeID int64, code string, balance decimal.Decimal, lastDoc string) error
}
