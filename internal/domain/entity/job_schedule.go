package entity

import "time"

// Estados de una ejecución registrada en disparos_logs.
const (
	JobRunStatusOK    = "ok"
	JobRunStatusError = "erro"
)

// JobSchedule es una fila de disparos: un job programado por expresión cron.
type JobSchedule struct {
	ID        int64
	Name      string
	Method    string // clave del job registrado (ExecuteJobFluxoEstoque, ...)
	CronExpr  string
	Active    bool
	LastRunAt *time.Time
}

// JobRun entrada del historial de ejecuciones de un disparo.
type JobRun struct {
	ScheduleID int64
	RunID      string
	Status     string
	Message    string
	CreatedAt  time.Time
}
