package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/fluxo-estoque/internal/application/inventory"
	"github.com/jhoicas/fluxo-estoque/internal/domain"
	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
	"github.com/jhoicas/fluxo-estoque/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner acumula las escrituras de fn y las aplica juntas solo si fn no devuelve error.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el Store.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run ejecuta fn y confirma sus escrituras (borrados, upserts y saldos) solo si no falla.
func (r *TxRunner) Run(ctx context.Context, table repository.FlowTable, fn func(
	flowRepo repository.FlowRecordRepository,
	productRepo repository.ProductRepository,
) error) error {
	if !table.Valid() {
		return fmt.Errorf("begin transaction: tabla desconocida %q", table)
	}
	tx := &memTx{s: r.s, table: table}
	if err := fn(&txFlowRepo{tx: tx, base: r.s.FlowRecords(table)}, &txProductRepo{tx: tx}); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, k := range tx.deletes {
		delete(r.s.records[table], k)
	}
	for _, rec := range tx.records {
		r.s.upsertLocked(table, rec)
	}
	for _, u := range tx.balances {
		r.s.updateBalanceLocked(u.storeID, u.code, u.balance, u.lastDoc)
	}
	return nil
}

type balanceUpdate struct {
	storeID int64
	code    string
	balance decimal.Decimal
	lastDoc string
}

type memTx struct {
	s        *Store
	table    repository.FlowTable
	deletes  []recordKey
	records  []*entity.FlowRecord
	balances []balanceUpdate
}

// txFlowRepo escribe en el buffer de la tx; las lecturas ven el estado confirmado.
type txFlowRepo struct {
	tx   *memTx
	base *FlowRecordRepo
}

func (r *txFlowRepo) Table() repository.FlowTable { return r.tx.table }

func (r *txFlowRepo) Upsert(_ context.Context, rec *entity.FlowRecord) error {
	if err := r.tx.s.fail(OpUpsertRecord, rec.StoreID, rec.ProductCode); err != nil {
		return err
	}
	cp := *rec
	r.tx.records = append(r.tx.records, &cp)
	return nil
}

func (r *txFlowRepo) CountByStoreAndDate(ctx context.Context, storeID int64, date time.Time) (int, error) {
	return r.base.CountByStoreAndDate(ctx, storeID, date)
}

func (r *txFlowRepo) GetByKey(ctx context.Context, storeID int64, productCode string, date time.Time) (*entity.FlowRecord, error) {
	return r.base.GetByKey(ctx, storeID, productCode, date)
}

func (r *txFlowRepo) DeleteByKey(_ context.Context, storeID int64, productCode string, date time.Time) error {
	r.tx.deletes = append(r.tx.deletes, newRecordKey(storeID, productCode, date))
	return nil
}

func (r *txFlowRepo) ListByStoreAndRange(ctx context.Context, storeID int64, from, to time.Time) ([]*entity.FlowRecord, error) {
	return r.base.ListByStoreAndRange(ctx, storeID, from, to)
}

type txProductRepo struct {
	tx *memTx
}

func (r *txProductRepo) ListStockTracked(ctx context.Context, storeID int64) ([]*entity.Product, error) {
	return r.tx.s.ListStockTracked(ctx, storeID)
}

func (r *txProductRepo) GetByCode(ctx context.Context, storeID int64, code string) (*entity.Product, error) {
	return r.tx.s.GetByCode(ctx, storeID, code)
}

func (r *txProductRepo) UpdateBalance(_ context.Context, storeID int64, code string, balance decimal.Decimal, lastDoc string) error {
	if err := r.tx.s.fail(OpUpdateBalance, storeID, code); err != nil {
		return err
	}
	if r.tx.s.Product(storeID, code) == nil {
		return domain.ErrNotFound
	}
	r.tx.balances = append(r.tx.balances, balanceUpdate{storeID: storeID, code: code, balance: balance, lastDoc: lastDoc})
	return nil
}
