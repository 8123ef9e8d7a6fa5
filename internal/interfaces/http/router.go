package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fluxo-estoque/internal/application/auth"
	"github.com/jhoicas/fluxo-estoque/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	Jobs      JobRunner
	Scheduler ScheduleReloader // nil si el cron está deshabilitado
	Flow      *FlowHandler
	Logs      *LogsHandler
	Log       *logger.Logger
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", deps.Logs.Health)

	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), RequireRole(auth.RoleOperator))

	protected.Get("/stdout", deps.Logs.Stdout)

	jobsHandler := NewJobsHandler(deps.Jobs, deps.Scheduler, deps.Log)
	run := protected.Group("/run")
	run.Post("/fluxo", jobsHandler.RunFlow)
	run.Post("/consolidacao", jobsHandler.RunConsolidation)
	run.Post("/metodo/:method", jobsHandler.RunMethod)
	protected.Post("/jobs/reload", jobsHandler.Reload)

	fluxo := protected.Group("/fluxo")
	fluxo.Get("/:store_id", deps.Flow.List)
	fluxo.Get("/:store_id/relatorio.pdf", deps.Flow.Report)
}
