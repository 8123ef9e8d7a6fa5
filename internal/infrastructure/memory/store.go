// Package memory implementa los puertos del dominio en memoria (tests y modo dev sin base de datos).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/fluxo-estoque/internal/domain"
	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
	domaininv "github.com/jhoicas/fluxo-estoque/internal/domain/inventory"
	"github.com/jhoicas/fluxo-estoque/internal/domain/repository"
)

// Operaciones que FailFunc puede interceptar.
const (
	OpListMovements  = "list_movements"
	OpLastCount      = "last_count"
	OpListDayCodes   = "list_day_codes"
	OpListProducts   = "list_products"
	OpGetProduct     = "get_product"
	OpUpdateBalance  = "update_balance"
	OpUpsertRecord   = "upsert_record"
	OpCountRecords   = "count_records"
	OpGetRecord      = "get_record"
	OpListStores     = "list_stores"
	OpListGroups     = "list_groups"
	OpAppendJobRun   = "append_job_run"
	OpListSchedules  = "list_schedules"
	OpMarkScheduleAt = "mark_schedule"
)

// FailFunc inyecta errores por operación; key es el código de producto cuando aplica.
type FailFunc func(op string, storeID int64, key string) error

var (
	_ repository.MovementRepository    = (*Store)(nil)
	_ repository.ProductRepository     = (*Store)(nil)
	_ repository.StoreDirectory        = (*Store)(nil)
	_ repository.JobScheduleRepository = (*Store)(nil)
)

type productKey struct {
	StoreID int64
	Code    string
}

type recordKey struct {
	Date    string
	StoreID int64
	Code    string
}

// Store guarda movimientos, productos, registros de flujo, grupos y disparos en memoria.
type Store struct {
	mu        sync.RWMutex
	movements []entity.InventoryMovement
	nextMovID int64
	products  map[productKey]*entity.Product
	records   map[repository.FlowTable]map[recordKey]*entity.FlowRecord
	groups    []entity.StoreGroup
	units     map[int64][]entity.StoreUnit
	schedules []entity.JobSchedule
	runs      []entity.JobRun

	// Fail se fija antes de usar el store; nil no inyecta errores.
	Fail FailFunc
}

// NewStore crea un store vacío con las dos tablas de flujo.
func NewStore() *Store {
	return &Store{
		products: make(map[productKey]*entity.Product),
		records: map[repository.FlowTable]map[recordKey]*entity.FlowRecord{
			repository.FlowTableFluxo:      {},
			repository.FlowTableDiferencas: {},
		},
		units: make(map[int64][]entity.StoreUnit),
	}
}

func (s *Store) fail(op string, storeID int64, key string) error {
	if s.Fail == nil {
		return nil
	}
	return s.Fail(op, storeID, key)
}

// =============================================================================
// Carga de datos
// =============================================================================

// AddMovement agrega un movimiento; asigna ID incremental si viene en cero.
func (s *Store) AddMovement(m entity.InventoryMovement) entity.InventoryMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == 0 {
		s.nextMovID++
		m.ID = s.nextMovID
	} else if m.ID > s.nextMovID {
		s.nextMovID = m.ID
	}
	m.Date = domaininv.DateOnly(m.Date)
	s.movements = append(s.movements, m)
	return m
}

// VoidMovement marca el movimiento como anulado; false si no existe.
func (s *Store) VoidMovement(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.movements {
		if s.movements[i].ID == id {
			s.movements[i].Status = entity.MovementStatusVoided
			return true
		}
	}
	return false
}

// PutProduct inserta o reemplaza un producto del maestro.
func (s *Store) PutProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.products[productKey{StoreID: p.StoreID, Code: p.Code}] = &cp
}

// PutGroup registra un grupo con sus tiendas.
func (s *Store) PutGroup(g entity.StoreGroup, units ...entity.StoreUnit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = append(s.groups, g)
	s.units[g.ID] = append([]entity.StoreUnit(nil), units...)
}

// PutSchedule agrega un disparo.
func (s *Store) PutSchedule(js entity.JobSchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules = append(s.schedules, js)
}

// Product copia del producto; nil si no existe.
func (s *Store) Product(storeID int64, code string) *entity.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[productKey{StoreID: storeID, Code: code}]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// Records registros de una tabla ordenados por (tienda, producto, fecha).
func (s *Store) Records(table repository.FlowTable) []*entity.FlowRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.FlowRecord, 0, len(s.records[table]))
	for _, r := range s.records[table] {
		cp := *r
		out = append(out, &cp)
	}
	sortRecords(out)
	return out
}

// Runs historial de ejecuciones de disparos.
func (s *Store) Runs() []entity.JobRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.JobRun(nil), s.runs...)
}

// Schedules copia de los disparos.
func (s *Store) Schedules() []entity.JobSchedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.JobSchedule(nil), s.schedules...)
}

func sortRecords(out []*entity.FlowRecord) {
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.StoreID != b.StoreID {
			return a.StoreID < b.StoreID
		}
		if a.ProductCode != b.ProductCode {
			return a.ProductCode < b.ProductCode
		}
		return a.Date.Before(b.Date)
	})
}

// =============================================================================
// MovementRepository
// =============================================================================

// ListByProductInRange movimientos activos del producto en [from, to] ordenados por (data, id).
func (s *Store) ListByProductInRange(_ context.Context, storeID int64, productCode string, from, to time.Time) ([]entity.InventoryMovement, error) {
	if err := s.fail(OpListMovements, storeID, productCode); err != nil {
		return nil, err
	}
	from, to = domaininv.DateOnly(from), domaininv.DateOnly(to)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.InventoryMovement, 0)
	for _, m := range s.movements {
		if m.StoreID != storeID || m.ProductCode != productCode || !m.IsActive() {
			continue
		}
		if m.Date.Before(from) || m.Date.After(to) {
			continue
		}
		out = append(out, m)
	}
	sortMovements(out)
	return out, nil
}

// LastCountBefore último balanço activo estrictamente anterior a before; nil si no hay.
func (s *Store) LastCountBefore(_ context.Context, storeID int64, productCode string, before time.Time) (*entity.CountEvent, error) {
	if err := s.fail(OpLastCount, storeID, productCode); err != nil {
		return nil, err
	}
	before = domaininv.DateOnly(before)

	s.mu.RLock()
	defer s.mu.RUnlock()
	var last *entity.InventoryMovement
	for i := range s.movements {
		m := &s.movements[i]
		if m.StoreID != storeID || m.ProductCode != productCode || !m.IsActive() {
			continue
		}
		if m.Type != entity.MovementTypeBalanco || !m.Date.Before(before) {
			continue
		}
		if last == nil || m.Date.After(last.Date) || (m.Date.Equal(last.Date) && m.ID > last.ID) {
			last = m
		}
	}
	if last == nil {
		return nil, nil
	}
	return &entity.CountEvent{Doc: last.Doc, Quantity: last.Quantity}, nil
}

// ListProductCodesWithMovementsOn códigos con movimientos activos en el día, ordenados.
func (s *Store) ListProductCodesWithMovementsOn(_ context.Context, storeID int64, date time.Time) ([]string, error) {
	if err := s.fail(OpListDayCodes, storeID, ""); err != nil {
		return nil, err
	}
	date = domaininv.DateOnly(date)

	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, m := range s.movements {
		if m.StoreID != storeID || !m.IsActive() || !m.Date.Equal(date) || seen[m.ProductCode] {
			continue
		}
		seen[m.ProductCode] = true
		out = append(out, m.ProductCode)
	}
	sort.Strings(out)
	return out, nil
}

func sortMovements(out []entity.InventoryMovement) {
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
}

// =============================================================================
// ProductRepository
// =============================================================================

// ListStockTracked insumos de la tienda ordenados por código.
func (s *Store) ListStockTracked(_ context.Context, storeID int64) ([]*entity.Product, error) {
	if err := s.fail(OpListProducts, storeID, ""); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Product, 0)
	for k, p := range s.products {
		if k.StoreID != storeID || !p.IsIngredient {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// GetByCode producto del maestro; nil si no existe.
func (s *Store) GetByCode(_ context.Context, storeID int64, code string) (*entity.Product, error) {
	if err := s.fail(OpGetProduct, storeID, code); err != nil {
		return nil, err
	}
	return s.Product(storeID, code), nil
}

// UpdateBalance fija saldo y, si lastDoc no es vacío, ultimo_doc. ErrNotFound si el producto no existe.
func (s *Store) UpdateBalance(_ context.Context, storeID int64, code string, balance decimal.Decimal, lastDoc string) error {
	if err := s.fail(OpUpdateBalance, storeID, code); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.updateBalanceLocked(storeID, code, balance, lastDoc) {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) updateBalanceLocked(storeID int64, code string, balance decimal.Decimal, lastDoc string) bool {
	p, ok := s.products[productKey{StoreID: storeID, Code: code}]
	if !ok {
		return false
	}
	p.Balance = balance
	if lastDoc != "" {
		p.LastDoc = lastDoc
	}
	p.UpdatedAt = time.Now()
	return true
}

// =============================================================================
// StoreDirectory
// =============================================================================

// ListStoresByGroup tiendas registradas para el grupo.
func (s *Store) ListStoresByGroup(_ context.Context, groupID int64) ([]entity.StoreUnit, error) {
	if err := s.fail(OpListStores, groupID, ""); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.StoreUnit{}, s.units[groupID]...), nil
}

// ListGroupsToConsolidate grupos en orden de registro.
func (s *Store) ListGroupsToConsolidate(_ context.Context) ([]entity.StoreGroup, error) {
	if err := s.fail(OpListGroups, 0, ""); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.StoreGroup{}, s.groups...), nil
}

// =============================================================================
// JobScheduleRepository
// =============================================================================

// ListActive disparos activos.
func (s *Store) ListActive(_ context.Context) ([]entity.JobSchedule, error) {
	if err := s.fail(OpListSchedules, 0, ""); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.JobSchedule, 0, len(s.schedules))
	for _, js := range s.schedules {
		if js.Active {
			out = append(out, js)
		}
	}
	return out, nil
}

// MarkExecuted fija ultima_execucao del disparo.
func (s *Store) MarkExecuted(_ context.Context, scheduleID int64, at time.Time) error {
	if err := s.fail(OpMarkScheduleAt, scheduleID, ""); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.schedules {
		if s.schedules[i].ID == scheduleID {
			t := at
			s.schedules[i].LastRunAt = &t
		}
	}
	return nil
}

// AppendRun agrega una entrada a disparos_logs.
func (s *Store) AppendRun(_ context.Context, run *entity.JobRun) error {
	if err := s.fail(OpAppendJobRun, run.ScheduleID, ""); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *run
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.runs = append(s.runs, cp)
	return nil
}
