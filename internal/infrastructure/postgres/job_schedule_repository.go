package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
	"github.com/jhoicas/fluxo-estoque/internal/domain/repository"
)

var _ repository.JobScheduleRepository = (*JobScheduleRepo)(nil)

// JobScheduleRepo disparos y disparos_logs sobre PostgreSQL.
type JobScheduleRepo struct {
	q Querier
}

func NewJobScheduleRepository(q Querier) *JobScheduleRepo {
	return &JobScheduleRepo{q: q}
}

// ListActive disparos con ativo = 1.
func (r *JobScheduleRepo) ListActive(ctx context.Context) ([]entity.JobSchedule, error) {
	query := `
		SELECT id, nome, metodo, cron_expr, ativo = 1, ultima_execucao
		FROM disparos
		WHERE ativo = 1
		ORDER BY id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	out := make([]entity.JobSchedule, 0)
	for rows.Next() {
		var js entity.JobSchedule
		if err := rows.Scan(&js.ID, &js.Name, &js.Method, &js.CronExpr, &js.Active, &js.LastRunAt); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		out = append(out, js)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return out, nil
}

// MarkExecuted actualiza ultima_execucao.
func (r *JobScheduleRepo) MarkExecuted(ctx context.Context, scheduleID int64, at time.Time) error {
	if _, err := r.q.Exec(ctx, `UPDATE disparos SET ultima_execucao = $2 WHERE id = $1`, scheduleID, at); err != nil {
		return fmt.Errorf("mark schedule: %w", err)
	}
	return nil
}

// AppendRun registra una ejecución en disparos_logs.
func (r *JobScheduleRepo) AppendRun(ctx context.Context, run *entity.JobRun) error {
	query := `
		INSERT INTO disparos_logs (disparo_id, run_id, status, mensagem, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))`
	var createdAt *time.Time
	if !run.CreatedAt.IsZero() {
		createdAt = &run.CreatedAt
	}
	if _, err := r.q.Exec(ctx, query, run.ScheduleID, run.RunID, run.Status, run.Message, createdAt); err != nil {
		return fmt.Errorf("append job run: %w", err)
	}
	return nil
}
