package memory

import (
	"context"
	"time"

	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
	domaininv "github.com/jhoicas/fluxo-estoque/internal/domain/inventory"
	"github.com/jhoicas/fluxo-estoque/internal/domain/repository"
)

var _ repository.FlowRecordRepository = (*FlowRecordRepo)(nil)

// FlowRecordRepo registros de una tabla de flujo sobre el Store.
type FlowRecordRepo struct {
	s     *Store
	table repository.FlowTable
}

// FlowRecords devuelve el repositorio de la tabla indicada.
func (s *Store) FlowRecords(table repository.FlowTable) *FlowRecordRepo {
	return &FlowRecordRepo{s: s, table: table}
}

// Table tabla sobre la que opera el repositorio.
func (r *FlowRecordRepo) Table() repository.FlowTable { return r.table }

// Upsert inserta o sobrescribe el registro (data, system_unit_id, produto).
func (r *FlowRecordRepo) Upsert(_ context.Context, rec *entity.FlowRecord) error {
	if err := r.s.fail(OpUpsertRecord, rec.StoreID, rec.ProductCode); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.upsertLocked(r.table, rec)
	return nil
}

func (s *Store) upsertLocked(table repository.FlowTable, rec *entity.FlowRecord) {
	cp := *rec
	cp.Date = domaininv.DateOnly(cp.Date)
	cp.UpdatedAt = time.Now()
	s.records[table][newRecordKey(cp.StoreID, cp.ProductCode, cp.Date)] = &cp
}

// CountByStoreAndDate filas existentes para (tienda, día).
func (r *FlowRecordRepo) CountByStoreAndDate(_ context.Context, storeID int64, date time.Time) (int, error) {
	if err := r.s.fail(OpCountRecords, storeID, ""); err != nil {
		return 0, err
	}
	key := domaininv.DateKey(date)
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for k := range r.s.records[r.table] {
		if k.StoreID == storeID && k.Date == key {
			n++
		}
	}
	return n, nil
}

// GetByKey copia del registro de (tienda, producto, día); nil si no existe.
func (r *FlowRecordRepo) GetByKey(_ context.Context, storeID int64, productCode string, date time.Time) (*entity.FlowRecord, error) {
	if err := r.s.fail(OpGetRecord, storeID, productCode); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.records[r.table][newRecordKey(storeID, productCode, date)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// DeleteByKey borra el registro de (tienda, producto, día) si existe.
func (r *FlowRecordRepo) DeleteByKey(_ context.Context, storeID int64, productCode string, date time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.records[r.table], newRecordKey(storeID, productCode, date))
	return nil
}

// ListByStoreAndRange registros de la tienda en [from, to] por producto y fecha.
func (r *FlowRecordRepo) ListByStoreAndRange(_ context.Context, storeID int64, from, to time.Time) ([]*entity.FlowRecord, error) {
	from, to = domaininv.DateOnly(from), domaininv.DateOnly(to)
	r.s.mu.RLock()
	out := make([]*entity.FlowRecord, 0)
	for _, rec := range r.s.records[r.table] {
		if rec.StoreID != storeID || rec.Date.Before(from) || rec.Date.After(to) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	r.s.mu.RUnlock()
	sortRecords(out)
	return out, nil
}

func newRecordKey(storeID int64, code string, date time.Time) recordKey {
	return recordKey{Date: domaininv.DateKey(date), StoreID: storeID, Code: code}
}
