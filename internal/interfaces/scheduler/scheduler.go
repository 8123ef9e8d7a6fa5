// Package scheduler dispara los jobs de la tabla disparos según su expresión cron.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
	"github.com/jhoicas/fluxo-estoque/internal/domain/repository"
	"github.com/jhoicas/fluxo-estoque/pkg/logger"
)

// Runner ejecuta un disparo (implementado por jobs.Service).
type Runner interface {
	RunScheduled(ctx context.Context, js entity.JobSchedule) error
	Has(method string) bool
}

// Parser acepta 5 campos estándar o 6 con segundos, más descriptores (@daily, @every 1h).
var Parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Scheduler mantiene un cron.Cron sincronizado con los disparos activos.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	repo    repository.JobScheduleRepository
	runner  Runner
	log     *logger.Logger
	runCtx  context.Context
	entries []cron.EntryID
}

// New construye el agendador en la zona horaria indicada (nil = UTC).
func New(repo repository.JobScheduleRepository, runner Runner, loc *time.Location, log *logger.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithParser(Parser),
			cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		repo:   repo,
		runner: runner,
		log:    log.Worker("agendador"),
		runCtx: context.Background(),
	}
}

// Start carga los disparos y arranca el cron. ctx es el contexto de las ejecuciones.
func (s *Scheduler) Start(ctx context.Context) (int, error) {
	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()

	n, err := s.Reload(ctx)
	if err != nil {
		return 0, err
	}
	s.cron.Start()
	s.log.Info().Int("agendados", n).Msg("agendador iniciado")
	return n, nil
}

// Stop detiene el cron y espera a que terminen las ejecuciones en curso.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("agendador detenido")
}

// Reload reemplaza las entradas por los disparos activos actuales.
// Los métodos desconocidos y las expresiones inválidas se omiten con un warning.
func (s *Scheduler) Reload(ctx context.Context) (int, error) {
	list, err := s.repo.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("listar disparos: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.entries {
		s.cron.Remove(id)
	}
	s.entries = s.entries[:0]

	for _, js := range list {
		if !s.runner.Has(js.Method) {
			s.log.Warn().Int64("disparo_id", js.ID).Str("metodo", js.Method).Msg("método no registrado, disparo ignorado")
			continue
		}
		id, err := s.cron.AddFunc(js.CronExpr, func() {
			_ = s.runner.RunScheduled(s.context(), js)
		})
		if err != nil {
			s.log.Warn().Err(err).Int64("disparo_id", js.ID).Str("cron_expr", js.CronExpr).Msg("expresión cron inválida, disparo ignorado")
			continue
		}
		s.entries = append(s.entries, id)
		s.log.Debug().Int64("disparo_id", js.ID).Str("metodo", js.Method).Str("cron_expr", js.CronExpr).Msg("disparo agendado")
	}
	return len(s.entries), nil
}

// Next próxima ejecución por disparo agendado.
func (s *Scheduler) Next() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Time, 0, len(s.entries))
	for _, id := range s.entries {
		out = append(out, s.cron.Entry(id).Next)
	}
	return out
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runCtx
}
