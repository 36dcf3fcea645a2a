package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/idgate/internal/config"
	"github.com/dropDatabas3/idgate/internal/store/pg"
	"github.com/dropDatabas3/idgate/migrations/postgres"
)

// Uso: migrate [-config path] up | down [steps]
func main() {
	cfgPath := flag.String("config", "", "ruta a config.yaml (default $CONFIG_PATH o configs/config.yaml)")
	envFile := flag.String("env-file", ".env", "ruta a .env (se ignora si no existe)")
	flag.Parse()

	if _, err := os.Stat(*envFile); err == nil {
		_ = godotenv.Load(*envFile)
	}

	path := *cfgPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		if _, err := os.Stat("configs/config.yaml"); err == nil {
			path = "configs/config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Storage.Driver != "postgres" {
		log.Fatalf("migrate: storage.driver=%s, solo postgres usa migraciones", cfg.Storage.Driver)
	}

	action := "up"
	if flag.NArg() > 0 {
		action = flag.Arg(0)
	}
	steps := 1
	if flag.NArg() > 1 {
		if steps, err = strconv.Atoi(flag.Arg(1)); err != nil {
			log.Fatalf("steps inválido %q: %v", flag.Arg(1), err)
		}
	}

	ctx := context.Background()
	s, err := pg.Open(ctx, pg.Config{DSN: cfg.Storage.DSN, MaxConns: 1})
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer s.Close()

	var done []string
	switch action {
	case "up":
		done, err = s.Migrate(ctx, postgres.FS)
	case "down":
		done, err = s.Rollback(ctx, postgres.FS, steps)
	default:
		log.Fatalf("acción desconocida %q (up|down)", action)
	}
	for _, v := range done {
		fmt.Printf("%s %s\n", action, v)
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", action, err)
	}
	if len(done) == 0 {
		fmt.Println("nada para hacer")
	}
}
