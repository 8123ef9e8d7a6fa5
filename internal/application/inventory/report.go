package inventory

import (
	"time"

	"github.com/google/uuid"

	domaininv "github.com/jhoicas/fluxo-estoque/internal/domain/inventory"
)

// Modos de ejecución.
const (
	ModeFlow          = "fluxo"
	ModeConsolidation = "consolidacao"
)

// ProductStatus resultado de un producto dentro del lote.
type ProductStatus string

const (
	ProductStatusOK      ProductStatus = "ok"
	ProductStatusFailed  ProductStatus = "failed"
	ProductStatusSkipped ProductStatus = "skipped"
)

// StoreStatus resultado de una tienda dentro del lote.
type StoreStatus string

const (
	StoreStatusProcessed           StoreStatus = "processed"
	StoreStatusAlreadyConsolidated StoreStatus = "already_consolidated"
	StoreStatusFailed              StoreStatus = "failed"
)

// ProductResult resultado tipado por producto.
type ProductResult struct {
	StoreID     int64
	ProductCode string
	Status      ProductStatus
	Days        int    // registros escritos
	Reason      string // motivo de skip o error
	Err         error
}

// StoreReport contadores y fallos de una tienda.
type StoreReport struct {
	StoreID   int64
	StoreName string
	Status    StoreStatus
	Products  int
	OK        int
	Failed    int
	Skipped   int
	Records   int
	Error     string
	Failures  []ProductResult // fallidos y saltados, en orden de producto
}

func (s *StoreReport) add(r ProductResult) {
	switch r.Status {
	case ProductStatusOK:
		s.OK++
		s.Records += r.Days
		return
	case ProductStatusFailed:
		s.Failed++
	case ProductStatusSkipped:
		s.Skipped++
	}
	s.Failures = append(s.Failures, r)
}

// BatchReport resumen de una ejecución completa (un grupo o una lista de tiendas).
type BatchReport struct {
	RunID      string
	Mode       string
	GroupID    int64
	Window     domaininv.Window
	Force      bool
	StartedAt  time.Time
	FinishedAt time.Time
	Stores     []*StoreReport
}

// Totals agregado del lote.
type Totals struct {
	Stores         int `json:"lojas"`
	StoresFailed   int `json:"lojas_falhas"`
	StoresSkipped  int `json:"lojas_ja_consolidadas"`
	Products       int `json:"produtos"`
	OK             int `json:"ok"`
	Failed         int `json:"falhas"`
	Skipped        int `json:"ignorados"`
	RecordsWritten int `json:"registros"`
}

func newBatchReport(mode string, groupID int64, w domaininv.Window, now time.Time) *BatchReport {
	return &BatchReport{
		RunID:     uuid.New().String(),
		Mode:      mode,
		GroupID:   groupID,
		Window:    w,
		StartedAt: now,
		Stores:    make([]*StoreReport, 0),
	}
}

// Totals suma los contadores de todas las tiendas.
func (r *BatchReport) Totals() Totals {
	t := Totals{Stores: len(r.Stores)}
	for _, s := range r.Stores {
		switch s.Status {
		case StoreStatusFailed:
			t.StoresFailed++
		case StoreStatusAlreadyConsolidated:
			t.StoresSkipped++
		}
		t.Products += s.Products
		t.OK += s.OK
		t.Failed += s.Failed
		t.Skipped += s.Skipped
		t.RecordsWritten += s.Records
	}
	return t
}

// HasFailures indica si alguna tienda o producto falló.
func (r *BatchReport) HasFailures() bool {
	t := r.Totals()
	return t.StoresFailed > 0 || t.Failed > 0
}
