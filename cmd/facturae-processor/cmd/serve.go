package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rezonia/facturae-processor/internal/metrics"
	"github.com/rezonia/facturae-processor/internal/server"
)

var (
	serverAddr  string
	serverDebug bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server for processing invoices.

The API provides endpoints for:
  - POST /api/v1/render       - Render the PDF summary (multipart: file + registry fields)
  - POST /api/xml2pdf         - Same as /api/v1/render
  - POST /api/v1/extract      - Extract the invoice record (?reconcile=true)
  - POST /api/v1/certificate  - Report the signer certificate
  - GET  /api/v1/codes        - List code tables
  - GET  /metrics             - Prometheus metrics
  - GET  /health              - Health check

Settings come from --config, a .env file and FACTURAE_* variables.

Examples:
  facturae-processor serve
  facturae-processor serve --address :9000 --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", "", "Server listen address (default: server.host:server.port)")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
}

func runServe(cmd *cobra.Command, args []string) error {
	loc, err := cfg.Server.Location()
	if err != nil {
		return fmt.Errorf("invalid time zone %q: %w", cfg.Server.TimeZone, err)
	}

	addr := serverAddr
	if addr == "" {
		addr = cfg.Server.Address()
	}

	srv := server.NewServer(&server.Config{
		Address:       addr,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		Location:      loc,
		Render:        renderOptions(),
		Resolver:      cfg.Resolver(),
		Logger:        logger,
		Metrics:       metrics.New(),
		Debug:         serverDebug,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting server", zap.String("address", addr), zap.String("time_zone", loc.String()))
	defer func() { _ = logger.Sync() }()

	if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
