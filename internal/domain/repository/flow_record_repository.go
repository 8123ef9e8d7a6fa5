package repository

import (
	"context"
	"time"

	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
)

// FlowTable tabla destino de los registros diarios.
type FlowTable string

const (
	FlowTableFluxo      FlowTable = "fluxo_estoque"      // flujo de varios días
	FlowTableDiferencas FlowTable = "diferencas_estoque" // consolidación diaria
)

// Valid indica si la tabla es una de las conocidas.
func (t FlowTable) Valid() bool {
	return t == FlowTableFluxo || t == FlowTableDiferencas
}

// FlowRecordRepository persiste DailyFlowRecord con clave (data, system_unit_id, produto) sobre una tabla.
type FlowRecordRepository interface {
	Table() FlowTable
	// Upsert inserta o sobrescribe todos los campos calculados del registro.
	Upsert(ctx context.Context, rec *entity.FlowRecord) error
	CountByStoreAndDate(ctx context.Context, storeID int64, date time.Time) (int, error)
	// GetByKey registro de (tienda, producto, día); nil si no existe.
	GetByKey(ctx context.Context, storeID int64, productCode string, date time.Time) (*entity.FlowRecord, error)
	DeleteByKey(ctx context.Context, storeID int64, productCode string, date time.Time) error
	ListByStoreAndRange(ctx context.Context, storeID int64, from, to time.Time) ([]*entity.FlowRecord, error)
}
