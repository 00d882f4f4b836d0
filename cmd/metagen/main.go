package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"stockmeta/internal/bootstrap"
	"stockmeta/internal/infra"
)

var rootCmd = &cobra.Command{
	Use:           "metagen",
	Short:         "Generate stock photo metadata with AI vision models",
	SilenceUsage:  true,
	SilenceErrors: true,
}

type env struct {
	cfg    *infra.Config
	logger infra.Logger
	deps   *bootstrap.Deps
}

// open loads configuration and wires the services for one command.
func open(ctx context.Context) (*env, error) {
	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, logger: infra.NewLogger(cfg.AppEnv, "metagen")}
	e.deps, err = bootstrap.Open(ctx, cfg, &e.logger)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (e *env) close() {
	_ = e.deps.Close(context.Background())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
