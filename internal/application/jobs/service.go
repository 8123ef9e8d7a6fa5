package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	appinv "github.com/jhoicas/fluxo-estoque/internal/application/inventory"
	"github.com/jhoicas/fluxo-estoque/internal/domain"
	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
	domaininv "github.com/jhoicas/fluxo-estoque/internal/domain/inventory"
	"github.com/jhoicas/fluxo-estoque/internal/domain/repository"
	"github.com/jhoicas/fluxo-estoque/pkg/logger"
)

// Métodos registrables en disparos.metodo.
const (
	MethodFluxoEstoque        = "ExecuteJobFluxoEstoque"
	MethodConsolidacaoEstoque = "WorkerConsolidationStock"
	defaultLockTTL            = 3 * time.Hour
)

// FlowReconciler puerto del flujo de varios días.
type FlowReconciler interface {
	RunFlowReconciliation(ctx context.Context, req appinv.FlowRequest) (*appinv.BatchReport, error)
}

// DailyConsolidator puerto de la consolidación diaria.
type DailyConsolidator interface {
	RunDailyConsolidation(ctx context.Context, req appinv.ConsolidationRequest) (*appinv.BatchReport, error)
	// ResolveRequest fija fecha y grupo concretos; las claves de lock se arman sobre el resultado.
	ResolveRequest(req appinv.ConsolidationRequest) appinv.ConsolidationRequest
	GroupsToConsolidate(ctx context.Context) ([]entity.StoreGroup, error)
}

// Method job ejecutable por nombre; devuelve el mensaje que va a disparos_logs.
type Method func(ctx context.Context) (string, error)

// Service punto de entrada de las ejecuciones (HTTP, CLI y cron). Serializa por clave con JobLocker.
type Service struct {
	flow      FlowReconciler
	cons      DailyConsolidator
	locker    repository.JobLocker
	schedules repository.JobScheduleRepository
	lockTTL   time.Duration
	log       *logger.Logger
	methods   map[string]Method
}

// NewService construye el servicio y registra los métodos de inventario.
// schedules puede ser nil cuando no hay cron (CLI).
func NewService(
	flow FlowReconciler,
	cons DailyConsolidator,
	locker repository.JobLocker,
	schedules repository.JobScheduleRepository,
	lockTTL time.Duration,
	log *logger.Logger,
) *Service {
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		flow:      flow,
		cons:      cons,
		locker:    locker,
		schedules: schedules,
		lockTTL:   lockTTL,
		log:       log.Worker("CronJob"),
		methods:   make(map[string]Method),
	}
	s.Register(MethodFluxoEstoque, func(ctx context.Context) (string, error) {
		rep, err := s.RunFlow(ctx, appinv.FlowRequest{})
		if err != nil {
			return "", err
		}
		return Summary(rep), nil
	})
	s.Register(MethodConsolidacaoEstoque, func(ctx context.Context) (string, error) {
		reps, err := s.RunAllGroups(ctx, time.Time{}, false)
		msgs := make([]string, 0, len(reps))
		for _, r := range reps {
			msgs = append(msgs, Summary(r))
		}
		return strings.Join(msgs, "; "), err
	})
	return s
}

// Register agrega o reemplaza un método.
func (s *Service) Register(name string, m Method) {
	s.methods[name] = m
}

// Methods nombres registrados, ordenados.
func (s *Service) Methods() []string {
	out := make([]string, 0, len(s.methods))
	for name := range s.methods {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Has indica si el método existe.
func (s *Service) Has(name string) bool {
	_, ok := s.methods[name]
	return ok
}

// RunFlow ejecuta el flujo de varios días bajo lock por selección.
func (s *Service) RunFlow(ctx context.Context, req appinv.FlowRequest) (*appinv.BatchReport, error) {
	var rep *appinv.BatchReport
	err := s.withLock(ctx, flowLockKey(req), func(ctx context.Context) error {
		var err error
		rep, err = s.flow.RunFlowReconciliation(ctx, req)
		return err
	})
	return rep, err
}

// RunConsolidation consolida un día para un grupo bajo lock (grupo, fecha).
func (s *Service) RunConsolidation(ctx context.Context, req appinv.ConsolidationRequest) (*appinv.BatchReport, error) {
	req = s.cons.ResolveRequest(req)
	var rep *appinv.BatchReport
	err := s.withLock(ctx, consolidationLockKey(req), func(ctx context.Context) error {
		var err error
		rep, err = s.cons.RunDailyConsolidation(ctx, req)
		return err
	})
	return rep, err
}

// RunAllGroups consolida cada grupo marcado bajo su propio lock (grupo, fecha).
// Un grupo que falla o ya está en ejecución no detiene a los demás; los errores se devuelven unidos.
func (s *Service) RunAllGroups(ctx context.Context, date time.Time, force bool) ([]*appinv.BatchReport, error) {
	groups, err := s.cons.GroupsToConsolidate(ctx)
	if err != nil {
		return nil, err
	}

	// Misma fecha para todos los grupos aunque la corrida cruce la medianoche.
	date = s.cons.ResolveRequest(appinv.ConsolidationRequest{Date: date}).Date
	reps := make([]*appinv.BatchReport, 0, len(groups))
	var errs []error
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		rep, err := s.RunConsolidation(ctx, appinv.ConsolidationRequest{GroupID: g.ID, Date: date, Force: force})
		if err != nil {
			s.log.Error().Err(err).Int64("group_id", g.ID).Str("group", g.Name).Msg("error consolidando grupo")
			errs = append(errs, fmt.Errorf("grupo %d: %w", g.ID, err))
			continue
		}
		reps = append(reps, rep)
	}
	return reps, errors.Join(errs...)
}

// Execute ejecuta un método registrado por nombre.
func (s *Service) Execute(ctx context.Context, method string) (string, error) {
	m, ok := s.methods[method]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownJobMethod, method)
	}
	return m(ctx)
}

func (s *Service) withLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}
	release, ok, err := s.locker.Acquire(ctx, key, s.lockTTL)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		s.log.Warn().Str("lock", key).Msg("job ya en ejecución; se ignora")
		return fmt.Errorf("%w: %s", domain.ErrJobRunning, key)
	}
	defer release()
	return fn(ctx)
}

func flowLockKey(req appinv.FlowRequest) string {
	if len(req.StoreIDs) > 0 {
		return "fluxo:stores:" + joinIDs(req.StoreIDs)
	}
	return fmt.Sprintf("fluxo:group:%d", req.GroupID)
}

// consolidationLockKey espera un request ya resuelto (fecha y grupo concretos).
func consolidationLockKey(req appinv.ConsolidationRequest) string {
	date := domaininv.DateKey(req.Date)
	if len(req.StoreIDs) > 0 {
		return fmt.Sprintf("consolidacao:stores:%s:%s", joinIDs(req.StoreIDs), date)
	}
	return fmt.Sprintf("consolidacao:group:%d:%s", req.GroupID, date)
}

func joinIDs(ids []int64) string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, strconv.FormatInt(id, 10))
	}
	return strings.Join(out, ",")
}

// Summary línea de resumen de un lote para logs y disparos_logs.
func Summary(rep *appinv.BatchReport) string {
	if rep == nil {
		return ""
	}
	t := rep.Totals()
	return fmt.Sprintf("%s run=%s grupo=%d janela=%s lojas=%d produtos=%d ok=%d falhas=%d ignorados=%d registros=%d",
		rep.Mode, rep.RunID, rep.GroupID, rep.Window.String(),
		t.Stores, t.Products, t.OK, t.Failed, t.Skipped, t.RecordsWritten)
}
