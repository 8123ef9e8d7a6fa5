package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/fluxo-estoque/internal/application/auth"
	"github.com/jhoicas/fluxo-estoque/internal/bootstrap"
	"github.com/jhoicas/fluxo-estoque/internal/domain/repository"
	infrapdf "github.com/jhoicas/fluxo-estoque/internal/infrastructure/pdf"
	httpRouter "github.com/jhoicas/fluxo-estoque/internal/interfaces/http"
	"github.com/jhoicas/fluxo-estoque/internal/interfaces/scheduler"
	"github.com/jhoicas/fluxo-estoque/pkg/config"
	"github.com/jhoicas/fluxo-estoque/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:        cfg.App.Env,
		Level:      cfg.Log.Level,
		BufferSize: cfg.Log.BufferSize,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Int("parallelism", cfg.Jobs.Parallelism).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar dependencias")
	}
	defer deps.Close()

	// Agendador: lee disparos activos y ejecuta los métodos registrados en jobs.Service.
	var cronScheduler *scheduler.Scheduler
	var reloader httpRouter.ScheduleReloader
	if cfg.Jobs.CronEnabled {
		cronScheduler = scheduler.New(deps.Schedules, deps.Jobs, cfg.App.Location(), log)
		if _, err := cronScheduler.Start(ctx); err != nil {
			log.Error().Err(err).Msg("agendador no iniciado")
		} else {
			reloader = cronScheduler
		}
	}

	authUC := auth.NewAuthUseCase(
		auth.Credentials{User: cfg.Dashboard.User, PassHash: cfg.Dashboard.PassHash},
		auth.JWTConfig{Secret: cfg.JWT.Secret, ExpMinutes: cfg.JWT.Expiration, Issuer: cfg.JWT.Issuer},
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: 0, // los runs manuales pueden tardar minutos
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Fluxo de Estoque API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		Jobs:      deps.Jobs,
		Scheduler: reloader,
		Flow: httpRouter.NewFlowHandler(
			[]repository.FlowRecordRepository{deps.FlowRepo, deps.DiffRepo},
			infrapdf.NewMarotoReportGenerator(),
			cfg.App.Location(),
		),
		Logs:      httpRouter.NewLogsHandler(cfg.App.Name, log.Recent),
		Log:       log,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if cronScheduler != nil {
		cronScheduler.Stop()
	}

	log.Info().Msg("aplicación detenida")
}
