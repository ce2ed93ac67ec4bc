// keystats builds a labeled machine-learning dataset from archived
// key-statistics pages and daily price tables.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/seenimoa/keystats/internal/config"
	"github.com/seenimoa/keystats/internal/dataset"
	"github.com/seenimoa/keystats/internal/datasource"
	"github.com/seenimoa/keystats/internal/infra"
	"github.com/seenimoa/keystats/internal/keystats"
	"github.com/seenimoa/keystats/internal/label"
	"github.com/seenimoa/keystats/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set by the root command.
var (
	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "keystats",
	Short: "Build a labeled dataset from archived key-statistics pages",
	Long: `keystats walks a tree of archived key-statistics snapshots,
extracts a fixed set of fundamental metrics from every page and labels each
snapshot with the stock's and the index's forward percent change.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real environment variables win.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger = infra.NewLogger(cfg.Logging, os.Stderr)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/keystats.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(configCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("keystats %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Build Command ---

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Assemble the labeled dataset",
	Long: `Assemble the labeled dataset from the configured snapshot tree and price
tables, write it as CSV and, when output.postgres.dsn is set, upsert it into
Postgres.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("workers") {
			cfg.Dataset.Workers, _ = cmd.Flags().GetInt("workers")
		}
		if cmd.Flags().Changed("output") {
			cfg.Output.Path, _ = cmd.Flags().GetString("output")
		}
		if cmd.Flags().Changed("ticker") {
			tickers, _ := cmd.Flags().GetStringSlice("ticker")
			slices.Sort(tickers)
			cfg.Dataset.Tickers = slices.Compact(tickers)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runBuild(ctx)
	},
}

func init() {
	buildCmd.Flags().Int("workers", 0, "tickers processed concurrently (overrides dataset.workers)")
	buildCmd.Flags().String("output", "", "CSV output path (overrides output.path)")
	buildCmd.Flags().StringSlice("ticker", nil, "restrict the run to these tickers")
}

func runBuild(ctx context.Context) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	schema, err := cfg.Schema()
	if err != nil {
		return err
	}
	for _, s := range config.CheckSecrets(cfg) {
		logger.Debug("secret", "name", s.Name, "set", s.IsSet, "source", s.Source, "value", s.Masked)
	}

	store, err := datasource.NewDir(cfg.Input.SnapshotsDir)
	if err != nil {
		return fmt.Errorf("snapshot store: %w", err)
	}
	prices, err := datasource.LoadPriceTableFile(cfg.Input.StockPrices)
	if err != nil {
		return fmt.Errorf("stock prices: %w", err)
	}
	index, err := datasource.LoadIndexSeriesFile(cfg.Input.IndexPrices, cfg.Input.IndexColumn)
	if err != nil {
		return fmt.Errorf("index prices: %w", err)
	}
	logger.Info("inputs loaded",
		"snapshots_dir", store.Root(),
		"price_tickers", len(prices.Tickers()),
		"price_rows", prices.Rows(),
		"index_points", len(index),
	)

	asm := dataset.NewAssembler(
		keystats.NewExtractor(schema),
		label.NewBuilder(cfg.Horizon(), loc),
		dataset.WithWorkers(cfg.Dataset.Workers),
		dataset.WithLocation(loc),
		dataset.WithExtension(cfg.Input.Extension),
		dataset.WithLogger(logger),
	)

	var tickers []string
	if len(cfg.Dataset.Tickers) > 0 {
		tickers = cfg.Dataset.Tickers
	}
	ds, summary, err := asm.Assemble(ctx, dataset.Input{
		Store:   store,
		Tickers: tickers,
		Prices:  prices,
		Index:   index,
	})
	if err != nil {
		return fmt.Errorf("assemble dataset: %w", err)
	}
	summary.Log(logger)

	if err := dataset.WriteCSVFile(cfg.Output.Path, ds, cfg.Output.MissingMarker); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	logger.Info("dataset written", "path", cfg.Output.Path, "rows", len(ds.Rows), "columns", len(ds.Columns()))

	if cfg.Output.Postgres.DSN == "" {
		return nil
	}
	logger.Info("postgres sink enabled", "dsn", config.MaskDSN(cfg.Output.Postgres.DSN))
	sink, err := dataset.NewPostgresSink(ctx, cfg.Output.Postgres.DSN, logger)
	if err != nil {
		return err
	}
	defer sink.Close()
	if err := sink.Write(ctx, ds, summary); err != nil {
		return fmt.Errorf("postgres sink: %w", err)
	}
	return nil
}

// --- Inspect Command ---

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Show the table cells and extracted metrics of one snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		schema, err := cfg.Schema()
		if err != nil {
			return err
		}
		showCells, _ := cmd.Flags().GetBool("cells")

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer w.Flush()

		if showCells {
			cells, err := keystats.Inspect(bytes.NewReader(b), schema)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "LABEL\tVALUE\tMETRIC")
			for _, c := range cells {
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.Label, c.Value, c.Metric)
			}
			fmt.Fprintln(w)
		}

		matches := keystats.NewExtractor(schema).Explain(string(b))
		found := 0
		fmt.Fprintln(w, "METRIC\tRAW\tVALUE\tCOMPACT\tMATCHED LABEL")
		for _, m := range matches {
			value := utils.FormatValue(m.Value, cfg.Output.MissingMarker)
			compact := ""
			if m.Value.Valid {
				found++
				compact = utils.FormatCompact(m.Value.Float64)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.Metric, m.Raw, value, compact, m.Label)
		}
		fmt.Fprintf(w, "\n%d of %d metrics present\n", found, len(matches))
		return nil
	},
}

func init() {
	inspectCmd.Flags().Bool("cells", false, "also list every label/value table row")
}

// --- Metrics Command ---

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "List the extracted metrics and their aliases",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := cfg.Schema()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer w.Flush()

		fmt.Fprintln(w, "#\tMETRIC\tALIASES")
		for i, m := range schema.Metrics() {
			fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, m, strings.Join(schema.Aliases(m), ", "))
		}
		return nil
	},
}

// --- Config Command ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration and the status of its secrets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		source := cfg.Source
		if source == "" {
			source = "none (defaults and environment)"
		}
		out, err := yaml.Marshal(cfg.Redacted())
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		fmt.Printf("# config file: %s\n", source)
		os.Stdout.Write(out)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer w.Flush()
		fmt.Fprintln(w, "\nSECRET\tSET\tSOURCE\tVALUE")
		for _, s := range config.CheckSecrets(cfg) {
			fmt.Fprintf(w, "%s\t%t\t%s\t%s\n", s.Name, s.IsSet, s.Source, s.Masked)
		}
		return nil
	},
}
