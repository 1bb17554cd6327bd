package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rezonia/facturae-processor/internal/config"
	"github.com/rezonia/facturae-processor/internal/logging"
	"github.com/rezonia/facturae-processor/internal/processor"
	"github.com/rezonia/facturae-processor/internal/render"
)

var (
	version = "1.0.0"

	// Global flags
	verbose      bool
	outputFormat string
	configFile   string
	envFile      string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "facturae-processor",
	Short: "Extract and render Spanish Facturae e-invoices",
	Long: `Facturae Processor reads Facturae 3.2.x e-invoices, plain (.xml) or
XAdES-signed (.xsig), and produces a structured record or a printable PDF
summary with the accounting registry data.

Examples:
  # Extract an invoice as JSON
  facturae-processor extract factura.xsig

  # Render the PDF summary
  facturae-processor render factura.xsig --num-registro 2024/001 --tipo-registro Entrada --num-rcf RCF-1

  # Show the signer certificate
  facturae-processor certificate factura.xsig

  # Check declared totals against the lines
  facturae-processor validate facturas/`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json, csv, table)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (YAML); env: FACTURAE_*")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment")
}

func initConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configFile, envFile)
	if err != nil {
		return err
	}

	// CLI output goes to stdout, so diagnostics go to stderr
	logCfg := logging.Config{Level: "warn", Format: "console", OutputPath: "stderr"}
	if verbose {
		logCfg.Level = "debug"
	}
	if cmd.Name() == serveCmd.Name() {
		logCfg = logging.Config(cfg.Logger)
	}
	logger, err = logging.NewLogger(logCfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	return nil
}

func renderOptions() render.Options {
	opts := render.DefaultOptions()
	if cfg.Render.PageSize != "" {
		opts.PageSize = cfg.Render.PageSize
	}
	if cfg.Render.Creator != "" {
		opts.Creator = cfg.Render.Creator
	}
	opts.Compress = cfg.Render.Compress
	return opts
}

func newPipeline(opts ...processor.Option) *processor.Pipeline {
	base := []processor.Option{
		processor.WithLogger(logger),
		processor.WithResolver(cfg.Resolver()),
		processor.WithRenderer(render.NewRenderer(renderOptions())),
	}
	return processor.NewPipeline(append(base, opts...)...)
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
