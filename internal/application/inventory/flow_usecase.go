package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/fluxo-estoque/internal/domain"
	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
	domaininv "github.com/jhoicas/fluxo-estoque/internal/domain/inventory"
	"github.com/jhoicas/fluxo-estoque/internal/domain/repository"
	"github.com/jhoicas/fluxo-estoque/pkg/logger"
)

// FlowRequest selección de tiendas y ventana para el flujo de varios días.
// StoreIDs tiene prioridad sobre GroupID; GroupID 0 usa el grupo por defecto.
// From/To vacíos usan la ventana por defecto (lookback días hasta ayer).
type FlowRequest struct {
	GroupID  int64
	StoreIDs []int64
	From     time.Time
	To       time.Time
}

// FlowUseCase reconstruye fluxo_estoque día a día para cada producto controlado de cada tienda.
type FlowUseCase struct {
	movRepo     repository.MovementRepository
	productRepo repository.ProductRepository
	stores      repository.StoreDirectory
	txRunner    TxRunner
	log         *logger.Logger
	opts        Options
}

// NewFlowUseCase construye el caso de uso.
func NewFlowUseCase(
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
	stores repository.StoreDirectory,
	txRunner TxRunner,
	log *logger.Logger,
	opts Options,
) *FlowUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &FlowUseCase{
		movRepo:     movRepo,
		productRepo: productRepo,
		stores:      stores,
		txRunner:    txRunner,
		log:         log.Worker("workerFluxoEstoque"),
		opts:        opts.withDefaults(),
	}
}

// RunFlowReconciliation procesa todas las tiendas seleccionadas. Solo devuelve error si la
// selección de tiendas o la ventana son inválidas; los fallos por tienda y producto van al reporte.
func (uc *FlowUseCase) RunFlowReconciliation(ctx context.Context, req FlowRequest) (*BatchReport, error) {
	window := domaininv.Window{From: req.From, To: req.To}
	if req.From.IsZero() && req.To.IsZero() {
		window = domaininv.DefaultFlowWindow(uc.opts.Now(), uc.opts.Location, uc.opts.LookbackDays)
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}
	window = domaininv.Window{From: domaininv.DateOnly(window.From), To: domaininv.DateOnly(window.To)}

	groupID := req.GroupID
	if groupID == 0 && len(req.StoreIDs) == 0 {
		groupID = uc.opts.DefaultGroupID
	}
	stores, err := resolveStores(ctx, uc.stores, groupID, req.StoreIDs)
	if err != nil {
		return nil, err
	}

	report := newBatchReport(ModeFlow, groupID, window, uc.opts.Now())
	log := uc.log.With().Str("run_id", report.RunID).Str("window", window.String()).Logger()
	log.Info().Int("stores", len(stores)).Msg("iniciando fluxo de estoque")

	for _, store := range stores {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		sr := uc.runStore(ctx, store, window)
		report.Stores = append(report.Stores, sr)
	}

	report.FinishedAt = uc.opts.Now()
	t := report.Totals()
	log.Info().
		Int("products", t.Products).
		Int("ok", t.OK).
		Int("failed", t.Failed).
		Int("skipped", t.Skipped).
		Int("records", t.RecordsWritten).
		Msg("fluxo de estoque finalizado")
	return report, nil
}

func (uc *FlowUseCase) runStore(ctx context.Context, store entity.StoreUnit, window domaininv.Window) *StoreReport {
	sr := &StoreReport{StoreID: store.ID, StoreName: storeName(store), Status: StoreStatusProcessed}
	log := uc.log.With().Int64("store_id", store.ID).Str("store", sr.StoreName).Logger()

	products, err := uc.productRepo.ListStockTracked(ctx, store.ID)
	if err != nil {
		sr.Status = StoreStatusFailed
		sr.Error = err.Error()
		log.Error().Err(err).Msg("error listando productos de la tienda")
		return sr
	}
	sr.Products = len(products)
	log.Info().Int("products", len(products)).Msg("procesando tienda")

	results := runBounded(ctx, uc.opts.Parallelism, products, func(ctx context.Context, p *entity.Product) ProductResult {
		return uc.runProduct(ctx, store.ID, p, window)
	})
	for _, r := range results {
		if r.Status == ProductStatusFailed {
			log.Error().Err(r.Err).Str("product", r.ProductCode).Msg("error procesando producto")
		}
		sr.add(r)
	}
	return sr
}

func (uc *FlowUseCase) runProduct(ctx context.Context, storeID int64, p *entity.Product, window domaininv.Window) ProductResult {
	res := ProductResult{StoreID: storeID, ProductCode: p.Code, Status: ProductStatusOK}
	fail := func(err error) ProductResult {
		res.Status = ProductStatusFailed
		res.Err = err
		res.Reason = err.Error()
		return res
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	movs, err := uc.movRepo.ListByProductInRange(ctx, storeID, p.Code, window.From, window.To)
	if err != nil {
		return fail(fmt.Errorf("list movements: %w", err))
	}
	buckets := domaininv.AggregateDaily(movs)
	if len(buckets) == 0 {
		res.Status = ProductStatusSkipped
		res.Reason = "sem movimentos na janela"
		return res
	}

	last, err := uc.movRepo.LastCountBefore(ctx, storeID, p.Code, window.From)
	if err != nil {
		return fail(fmt.Errorf("resolve seed: %w", err))
	}
	flow := domaininv.Reconcile(domaininv.SeedFrom(last), buckets)
	warnDuplicateCounts(uc.log, storeID, p.Code, flow)

	err = uc.txRunner.Run(ctx, repository.FlowTableFluxo, func(flowRepo repository.FlowRecordRepository, productRepo repository.ProductRepository) error {
		for _, d := range flow.Days {
			if err := flowRepo.Upsert(ctx, newFlowRecord(storeID, p, d)); err != nil {
				return err
			}
		}
		if !uc.opts.AdvanceMaster {
			return nil
		}
		lastDoc := ""
		if flow.CountInWindow {
			lastDoc = flow.LastDoc
		}
		return productRepo.UpdateBalance(ctx, storeID, p.Code, flow.ClosingBalance, lastDoc)
	})
	if err != nil {
		return fail(fmt.Errorf("write snapshot: %w", err))
	}
	res.Days = len(flow.Days)
	return res
}

// resolveStores tiendas explícitas o las del grupo vía StoreDirectory.
func resolveStores(ctx context.Context, dir repository.StoreDirectory, groupID int64, ids []int64) ([]entity.StoreUnit, error) {
	if len(ids) > 0 {
		return storesFromIDs(ids), nil
	}
	if groupID <= 0 {
		return nil, fmt.Errorf("%w: informe group_id o store_ids", domain.ErrInvalidInput)
	}
	if dir == nil {
		return nil, fmt.Errorf("%w: sin directorio de tiendas", domain.ErrStoreDirectory)
	}
	stores, err := dir.ListStoresByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("%w: grupo %d: %v", domain.ErrStoreDirectory, groupID, err)
	}
	return stores, nil
}

func newFlowRecord(storeID int64, p *entity.Product, d domaininv.DayFlow) *entity.FlowRecord {
	return &entity.FlowRecord{
		Date:           d.Date,
		StoreID:        storeID,
		ProductCode:    p.Code,
		ProductName:    p.Name,
		Category:       p.Category,
		Cost:           p.Cost,
		Doc:            d.CountDoc,
		OpeningBalance: d.OpeningBalance,
		Entries:        d.Entries,
		Exits:          d.Exits,
		ExpectedCount:  d.ExpectedCount,
		ActualCount:    d.ActualCount,
		Difference:     d.Difference,
	}
}

func warnDuplicateCounts(log *logger.Logger, storeID int64, code string, flow domaininv.Result) {
	for _, d := range flow.Days {
		if d.DuplicateCount {
			log.Warn().
				Int64("store_id", storeID).
				Str("product", code).
				Str("date", domaininv.DateKey(d.Date)).
				Str("doc", d.CountDoc).
				Msg("varios balanços no mesmo dia; vale o último")
		}
	}
}
