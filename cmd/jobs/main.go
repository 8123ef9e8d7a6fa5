package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/fluxo-estoque/internal/bootstrap"
	"github.com/jhoicas/fluxo-estoque/internal/cli"
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
		Out:        os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(func(ctx context.Context) (cli.Runner, func(), error) {
		deps, err := bootstrap.Build(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return deps.Jobs, deps.Close, nil
	})
	if err := root.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("ejecución finalizada con error")
		stop()
		os.Exit(1)
	}
}
