package repository

import (
	"context"
	"time"

	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
)

// JobScheduleRepository persistencia de disparos y su historial.
type JobScheduleRepository interface {
	ListActive(ctx context.Context) ([]entity.JobSchedule, error)
	MarkExecuted(ctx context.Context, scheduleID int64, at time.Time) error
	AppendRun(ctx context.Context, run *entity.JobRun) error
}

// JobLocker exclusión mutua por clave de job. Acquire devuelve ok=false si otro proceso la tiene.
type JobLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}
