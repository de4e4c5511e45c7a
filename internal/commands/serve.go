package commands

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/api"
	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/filestore"
	"github.com/tally-dev/tally/internal/store"
)

func newServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "tally.yaml", "path to config file")

	return cmd
}

func runServe(cfg *config.Config) error {
	st, err := store.Open(cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(); err != nil {
		return err
	}

	files := filestore.New(cfg.Storage.Root)
	handler := api.NewHandler(st, files)

	router := mux.NewRouter().StrictSlash(true)
	handler.Register(router)

	log.Infof("serving on %s", cfg.Server.Addr)
	return http.ListenAndServe(cfg.Server.Addr, router)
}
