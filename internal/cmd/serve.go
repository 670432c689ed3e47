package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/luispater/sl2browser/internal/api"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the keyword library over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := root.cfg
			if port != "" {
				cfg.APIPort = port
			}
			library := newLibrary(cfg)
			defer func() {
				if err := library.Close(); err != nil {
					log.Debugf("Error closing keyword library: %v", err)
				}
			}()

			apiServer := api.NewServer(&api.ServerConfig{
				Port:           cfg.APIPort,
				Debug:          cfg.Debug,
				RequestTimeout: cfg.RequestTimeout,
				SuitesDir:      cfg.SuitesDir,
			}, library)

			errs := make(chan error, 1)
			go func() {
				log.Infof("Starting API server on port %s", cfg.APIPort)
				errs <- apiServer.Start()
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			select {
			case err := <-errs:
				return err
			case <-sigChan:
				log.Debugf("Received shutdown signal. Cleaning up...")
			case <-cmd.Context().Done():
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := apiServer.Stop(ctx); err != nil {
				log.Debugf("Error stopping API server: %v", err)
			}
			log.Debugf("Cleanup completed. Exiting...")
			return nil
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port, overrides api-port")
	return cmd
}
