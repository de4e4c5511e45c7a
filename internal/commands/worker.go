package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/filestore"
	"github.com/tally-dev/tally/internal/pipeline"
	"github.com/tally-dev/tally/internal/store"
	"github.com/tally-dev/tally/internal/worker"
)

func newWorkerCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the reconciliation worker pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return runWorker(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "tally.yaml", "path to config file")

	return cmd
}

func runWorker(cfg *config.Config) error {
	st, err := store.Open(cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(); err != nil {
		return err
	}

	files := filestore.New(cfg.Storage.Root)
	runner := pipeline.NewRunner(st, files)
	pool := worker.NewPool(st, runner, cfg.Worker.Count, cfg.Worker.Interval(), ".")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infof("worker pool starting (%d workers, every %s)", cfg.Worker.Count, cfg.Worker.Interval())
	pool.Run(ctx)
	return nil
}
