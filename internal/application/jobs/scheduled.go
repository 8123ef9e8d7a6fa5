package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
)

// RunScheduled ejecuta un disparo: corre el método, marca ultima_execucao si terminó bien
// y registra el resultado (ok / erro) en disparos_logs.
func (s *Service) RunScheduled(ctx context.Context, js entity.JobSchedule) error {
	runID := uuid.New().String()
	log := s.log.With().Int64("disparo_id", js.ID).Str("job", js.Name).Str("metodo", js.Method).Str("run_id", runID).Logger()
	log.Info().Msg("executando disparo")

	start := time.Now()
	msg, err := s.Execute(ctx, js.Method)

	run := &entity.JobRun{ScheduleID: js.ID, RunID: runID, Status: entity.JobRunStatusOK, Message: msg, CreatedAt: time.Now()}
	if err != nil {
		run.Status = entity.JobRunStatusError
		run.Message = err.Error()
		log.Error().Err(err).Dur("took", time.Since(start)).Msg("disparo falhou")
	} else {
		if run.Message == "" {
			run.Message = "Executado com sucesso"
		}
		log.Info().Dur("took", time.Since(start)).Msg("disparo concluído")
	}

	if s.schedules == nil {
		return err
	}
	if err == nil {
		if mErr := s.schedules.MarkExecuted(ctx, js.ID, time.Now()); mErr != nil {
			log.Error().Err(mErr).Msg("no se pudo actualizar ultima_execucao")
		}
	}
	if aErr := s.schedules.AppendRun(ctx, run); aErr != nil {
		log.Error().Err(aErr).Msg("no se pudo registrar disparos_logs")
	}
	return err
}
