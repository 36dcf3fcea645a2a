package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/idgate/internal/app"
	"github.com/dropDatabas3/idgate/internal/config"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
	"github.com/dropDatabas3/idgate/internal/store/pg"
	"github.com/dropDatabas3/idgate/migrations/postgres"
)

func main() {
	var (
		flagConfig  = flag.String("config", "", "ruta a config.yaml (default $CONFIG_PATH, configs/config.yaml)")
		flagEnvFile = flag.String("env-file", ".env", "ruta a .env (se ignora si no existe)")
		flagMigrate = flag.Bool("migrate", false, "aplica migraciones pendientes antes de arrancar (solo postgres)")
	)
	flag.Parse()

	if *flagEnvFile != "" && fileExists(*flagEnvFile) {
		if err := godotenv.Load(*flagEnvFile); err != nil {
			log.Fatalf("dotenv: %v", err)
		}
		log.Printf("dotenv: cargado %s", *flagEnvFile)
	}

	cfg, err := config.Load(configPath(*flagConfig))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
	})
	defer func() { _ = logger.Sync() }()
	lg := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.ToContext(ctx, lg)

	if *flagMigrate {
		if err := migrate(ctx, cfg); err != nil {
			lg.Fatal("migrate failed", logger.Err(err))
		}
	}

	rt, err := app.Build(ctx, cfg)
	if err != nil {
		lg.Fatal("build failed", logger.Err(err))
	}

	api := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      rt.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	servers := []*http.Server{api}
	if rt.MetricsHandler != nil {
		servers = append(servers, &http.Server{
			Addr:        cfg.Server.MetricsAddr,
			Handler:     rt.MetricsHandler,
			ReadTimeout: cfg.Server.ReadTimeout,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			lg.Info("listening", logger.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		lg.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(sctx); err != nil {
				errs = append(errs, err)
			}
		}
		if err := rt.Close(sctx); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		lg.Error("server stopped with error", logger.Err(err))
		os.Exit(1)
	}
	lg.Info("bye")
}

func migrate(ctx context.Context, cfg *config.Config) error {
	if cfg.Storage.Driver != "postgres" {
		logger.From(ctx).Info("migrate: storage is not postgres, nothing to do")
		return nil
	}
	s, err := pg.Open(ctx, pg.Config{DSN: cfg.Storage.DSN, MaxConns: 1})
	if err != nil {
		return err
	}
	defer s.Close()
	applied, err := s.Migrate(ctx, postgres.FS)
	if err != nil {
		return err
	}
	logger.From(ctx).Info("migrations applied", logger.Count(len(applied)), logger.Any("versions", applied))
	return nil
}

func configPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	for _, p := range []string{"configs/config.yaml", "configs/config.example.yaml"} {
		if fileExists(p) {
			return p
		}
	}
	return ""
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
