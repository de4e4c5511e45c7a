package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/filestore"
	"github.com/tally-dev/tally/internal/pipeline"
	"github.com/tally-dev/tally/internal/store"
)

func newProcessCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "process <reconciliation-id>",
		Short: "Run one reconciliation synchronously",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid reconciliation id %q", args[0])
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return runProcess(cfg, uint(recID))
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "tally.yaml", "path to config file")

	return cmd
}

func runProcess(cfg *config.Config, recID uint) error {
	st, err := store.Open(cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer st.Close()

	files := filestore.New(cfg.Storage.Root)
	runner := pipeline.NewRunner(st, files)

	outcome, err := runner.Process(context.Background(), recID)
	if err != nil {
		return err
	}
	if outcome == nil {
		fmt.Println("nothing to do: reconciliation is not pending or files are missing")
		return nil
	}

	out, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding outcome: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
