package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"

	"github.com/oaiiae/huma-contacts/cli/api"
	"github.com/oaiiae/huma-contacts/cli/datastore"
	"github.com/oaiiae/huma-contacts/cli/logger"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	title    = "contacts"
	version  = "dev"
	revision = ""
	created  = ""
)

// Options for the CLI. Every flag can be set with a SERVICE_ prefixed env var,
// e.g. `--log-level` with `SERVICE_LOG_LEVEL`.
type Options struct {
	api.ServerOptions
	api.RouterOptions
	logger.Options
	datastore.StoreOptions
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		logger, closeLog := logger.New(&options.Options)

		if err := options.RouterOptions.Validate(); err != nil {
			logger.Error("invalid router options", "err", err)
			os.Exit(2)
		}

		backend, err := datastore.Open(context.Background(), &options.StoreOptions, logger)
		if err != nil {
			logger.Error("could not open store", "err", err)
			os.Exit(1)
		}

		handler, _ := api.NewRouter(&options.RouterOptions, title, version, revision, created, logger, backend)
		srv := api.NewServer(&options.ServerOptions, handler, logger)

		hooks.OnStart(func() {
			logger.Info("server listening", "addr", srv.Addr, "version", version)
			err := srv.ListenAndServe()
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error("failed to listen and serve", "err", err)
			} else {
				logger.Info("server closed")
			}
		})
		hooks.OnStop(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			err := srv.Shutdown(ctx)
			if err != nil {
				logger.Warn("could not shutdown the server", "err", err)
			}
			err = backend.Close()
			if err != nil {
				logger.Warn("could not close the store", "err", err)
			}
			err = closeLog()
			if err != nil {
				fmt.Fprintln(os.Stderr, "could not close the log file:", err)
			}
		})
	})

	cli.Root().Use = title
	cli.Root().Version = version
	cli.Root().AddCommand(&cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI document as YAML",
		Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, options *Options) {
			if err := options.RouterOptions.Validate(); err != nil {
				cmd.PrintErrln(err)
				os.Exit(2)
			}
			backend, err := datastore.Open(cmd.Context(), &datastore.StoreOptions{Store: "memory"}, slog.New(slog.DiscardHandler))
			if err != nil {
				cmd.PrintErrln(err)
				os.Exit(1)
			}
			_, api := api.NewRouter(&options.RouterOptions, title, version, revision, created, slog.New(slog.DiscardHandler), backend)
			b, err := api.OpenAPI().YAML()
			if err != nil {
				cmd.PrintErrln(err)
				os.Exit(1)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(b))
		}),
	})

	cli.Run()
}
