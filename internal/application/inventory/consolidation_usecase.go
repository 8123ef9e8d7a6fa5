package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/fluxo-estoque/internal/domain"
	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
	domaininv "github.com/jhoicas/fluxo-estoque/internal/domain/inventory"
	"github.com/jhoicas/fluxo-estoque/internal/domain/repository"
	"github.com/jhoicas/fluxo-estoque/pkg/logger"
)

// ConsolidationRequest consolidación de un día para un grupo (o tiendas explícitas).
// Date vacía usa "ayer" en la zona configurada. Force recalcula el día desde el saldo_anterior ya registrado.
type ConsolidationRequest struct {
	GroupID  int64
	StoreIDs []int64
	Date     time.Time
	Force    bool
}

// ConsolidationUseCase consolida diferencas_estoque de un día y avanza el saldo maestro.
// Una tienda ya consolidada para el día no se vuelve a procesar salvo Force.
type ConsolidationUseCase struct {
	movRepo     repository.MovementRepository
	productRepo repository.ProductRepository
	diffRepo    repository.FlowRecordRepository
	stores      repository.StoreDirectory
	txRunner    TxRunner
	locker      repository.JobLocker
	lockTTL     time.Duration
	log         *logger.Logger
	opts        Options
}

// NewConsolidationUseCase construye el caso de uso. diffRepo debe apuntar a diferencas_estoque.
func NewConsolidationUseCase(
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
	diffRepo repository.FlowRecordRepository,
	stores repository.StoreDirectory,
	txRunner TxRunner,
	log *logger.Logger,
	opts Options,
) *ConsolidationUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ConsolidationUseCase{
		movRepo:     movRepo,
		productRepo: productRepo,
		diffRepo:    diffRepo,
		stores:      stores,
		txRunner:    txRunner,
		log:         log.Worker("WorkerConsolidationStock"),
		opts:        opts.withDefaults(),
	}
}

// WithStoreLock serializa por (tienda, día) la verificación y escritura de cada tienda.
func (uc *ConsolidationUseCase) WithStoreLock(locker repository.JobLocker, ttl time.Duration) *ConsolidationUseCase {
	if ttl <= 0 {
		ttl = time.Hour
	}
	uc.locker = locker
	uc.lockTTL = ttl
	return uc
}

// ResolveRequest completa la fecha (ayer en la zona configurada) y el grupo por defecto.
func (uc *ConsolidationUseCase) ResolveRequest(req ConsolidationRequest) ConsolidationRequest {
	if req.Date.IsZero() {
		req.Date = domaininv.Yesterday(uc.opts.Now(), uc.opts.Location)
	}
	req.Date = domaininv.DateOnly(req.Date)
	if req.GroupID == 0 && len(req.StoreIDs) == 0 {
		req.GroupID = uc.opts.DefaultGroupID
	}
	return req
}

// GroupsToConsolidate grupos que el backend marca para consolidación.
func (uc *ConsolidationUseCase) GroupsToConsolidate(ctx context.Context) ([]entity.StoreGroup, error) {
	if uc.stores == nil {
		return nil, errors.New("list groups: sin directorio de tiendas")
	}
	groups, err := uc.stores.ListGroupsToConsolidate(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// AlreadyConsolidated indica si existen filas de diferencas_estoque para (tienda, día).
func (uc *ConsolidationUseCase) AlreadyConsolidated(ctx context.Context, storeID int64, date time.Time) (bool, error) {
	n, err := uc.diffRepo.CountByStoreAndDate(ctx, storeID, domaininv.DateOnly(date))
	if err != nil {
		return false, fmt.Errorf("check consolidation: %w", err)
	}
	return n > 0, nil
}

// RunDailyConsolidation consolida el día para cada tienda del grupo.
func (uc *ConsolidationUseCase) RunDailyConsolidation(ctx context.Context, req ConsolidationRequest) (*BatchReport, error) {
	req = uc.ResolveRequest(req)
	date, groupID := req.Date, req.GroupID
	window := domaininv.Window{From: date, To: date}

	stores, err := resolveStores(ctx, uc.stores, groupID, req.StoreIDs)
	if err != nil {
		return nil, err
	}

	report := newBatchReport(ModeConsolidation, groupID, window, uc.opts.Now())
	report.Force = req.Force
	log := uc.log.With().Str("run_id", report.RunID).Str("date", domaininv.DateKey(date)).Logger()
	log.Info().Int64("group_id", groupID).Int("stores", len(stores)).Bool("force", req.Force).Msg("iniciando consolidação")

	for _, store := range stores {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Stores = append(report.Stores, uc.runStore(ctx, store, date, req.Force))
	}

	report.FinishedAt = uc.opts.Now()
	t := report.Totals()
	log.Info().
		Int("stores_skipped", t.StoresSkipped).
		Int("ok", t.OK).
		Int("failed", t.Failed).
		Int("skipped", t.Skipped).
		Msg("consolidação finalizada")
	return report, nil
}

func (uc *ConsolidationUseCase) runStore(ctx context.Context, store entity.StoreUnit, date time.Time, force bool) *StoreReport {
	sr := &StoreReport{StoreID: store.ID, StoreName: storeName(store), Status: StoreStatusProcessed}
	log := uc.log.With().Int64("store_id", store.ID).Str("store", sr.StoreName).Str("date", domaininv.DateKey(date)).Logger()

	failStore := func(err error) *StoreReport {
		sr.Status = StoreStatusFailed
		sr.Error = err.Error()
		log.Error().Err(err).Msg("error consolidando tienda")
		return sr
	}

	if uc.locker != nil {
		key := fmt.Sprintf("consolidacao:store:%d:%s", store.ID, domaininv.DateKey(date))
		release, ok, err := uc.locker.Acquire(ctx, key, uc.lockTTL)
		if err != nil {
			return failStore(fmt.Errorf("acquire lock: %w", err))
		}
		if !ok {
			return failStore(fmt.Errorf("%w: %s", domain.ErrJobRunning, key))
		}
		defer release()
	}

	done, err := uc.AlreadyConsolidated(ctx, store.ID, date)
	if err != nil {
		return failStore(err)
	}
	if done && !force {
		sr.Status = StoreStatusAlreadyConsolidated
		log.Info().Msg("tienda ya consolidada para el día; se omite")
		return sr
	}

	codes, err := uc.movRepo.ListProductCodesWithMovementsOn(ctx, store.ID, date)
	if err != nil {
		return failStore(fmt.Errorf("list products: %w", err))
	}
	if done {
		// Registros previos cuyos movimientos se anularon también se recalculan.
		prev, err := uc.diffRepo.ListByStoreAndRange(ctx, store.ID, date, date)
		if err != nil {
			return failStore(fmt.Errorf("list previous: %w", err))
		}
		codes = mergeCodes(codes, prev)
		log.Warn().Int("previous", len(prev)).Msg("force: recalculando consolidación previa")
	}
	sr.Products = len(codes)

	results := runBounded(ctx, uc.opts.Parallelism, codes, func(ctx context.Context, code string) ProductResult {
		return uc.runProduct(ctx, store.ID, code, date, done)
	})
	for _, r := range results {
		switch r.Status {
		case ProductStatusFailed:
			log.Error().Err(r.Err).Str("product", r.ProductCode).Msg("error consolidando producto")
		case ProductStatusSkipped:
			log.Warn().Str("product", r.ProductCode).Str("reason", r.Reason).Msg("producto omitido")
		}
		sr.add(r)
	}
	return sr
}

// runProduct consolida un producto. Con recompute el día se recalcula desde el saldo_anterior
// del registro existente, así el maestro no avanza dos veces sobre los mismos movimientos.
func (uc *ConsolidationUseCase) runProduct(ctx context.Context, storeID int64, code string, date time.Time, recompute bool) ProductResult {
	res := ProductResult{StoreID: storeID, ProductCode: code, Status: ProductStatusOK}
	fail := func(err error) ProductResult {
		res.Status = ProductStatusFailed
		res.Err = err
		res.Reason = err.Error()
		return res
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	p, err := uc.productRepo.GetByCode(ctx, storeID, code)
	if err != nil {
		return fail(fmt.Errorf("get product: %w", err))
	}
	if p == nil {
		res.Status = ProductStatusSkipped
		res.Reason = "produto não cadastrado"
		return res
	}

	movs, err := uc.movRepo.ListByProductInRange(ctx, storeID, code, date, date)
	if err != nil {
		return fail(fmt.Errorf("list movements: %w", err))
	}
	buckets := domaininv.AggregateDaily(movs)

	var written, undone bool
	err = uc.txRunner.Run(ctx, repository.FlowTableDiferencas, func(flowRepo repository.FlowRecordRepository, productRepo repository.ProductRepository) error {
		seed := domaininv.Seed{Balance: p.Balance, Doc: p.LastDoc}
		var prev *entity.FlowRecord
		if recompute {
			var err error
			prev, err = flowRepo.GetByKey(ctx, storeID, code, date)
			if err != nil {
				return err
			}
			if prev != nil {
				seed.Balance = prev.OpeningBalance
			}
		}

		flow := domaininv.Reconcile(seed, buckets)
		if len(flow.Days) == 0 {
			if prev == nil {
				return nil
			}
			// El día quedó sin movimientos activos: se deshace el registro previo.
			if err := flowRepo.DeleteByKey(ctx, storeID, code, date); err != nil {
				return err
			}
			undone = true
			return productRepo.UpdateBalance(ctx, storeID, code, prev.OpeningBalance, "")
		}
		warnDuplicateCounts(uc.log, storeID, code, flow)
		day := flow.Days[0]
		if err := flowRepo.Upsert(ctx, newFlowRecord(storeID, p, day)); err != nil {
			return err
		}
		written = true
		return productRepo.UpdateBalance(ctx, storeID, code, flow.ClosingBalance, day.CountDoc)
	})
	if err != nil {
		return fail(fmt.Errorf("write snapshot: %w", err))
	}
	if !written {
		res.Status = ProductStatusSkipped
		res.Reason = "sem movimentos ativos no dia"
		if undone {
			res.Reason = "sem movimentos ativos no dia; registro anterior desfeito"
		}
		return res
	}
	res.Days = 1
	return res
}

func mergeCodes(codes []string, prev []*entity.FlowRecord) []string {
	seen := make(map[string]bool, len(codes))
	for _, c := range codes {
		seen[c] = true
	}
	for _, r := range prev {
		if !seen[r.ProductCode] {
			seen[r.ProductCode] = true
			codes = append(codes, r.ProductCode)
		}
	}
	sort.Strings(codes)
	return codes
}
