// Package main provides the entry point for the athenaq CLI.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/smithy-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/czabriskie/simple-glue-athena/cmd/athenaq/config"
	"github.com/czabriskie/simple-glue-athena/pkg/athena"
	"github.com/czabriskie/simple-glue-athena/pkg/export"
	"github.com/czabriskie/simple-glue-athena/pkg/infrastructure/metrics"
	"github.com/czabriskie/simple-glue-athena/pkg/models"
	"github.com/czabriskie/simple-glue-athena/pkg/services"
	"github.com/czabriskie/simple-glue-athena/pkg/storage"
)

var (
	// Version information (set by build flags)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

const statisticsFile = "flight_statistics.csv"

var rootCmd = &cobra.Command{
	Use:   "athenaq",
	Short: "Run SQL queries against AWS Athena",
	Long: `athenaq submits a SQL query to AWS Athena, polls until the query
reaches a terminal state, and prints the result as a plain-text table.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a single query",
	Long: `Execute a single query and print the result table.

Example:
  athenaq run --query "SELECT COUNT(*) FROM flights" --database flights \
    --output-location s3://my-bucket/query_results/ --region us-west-2`,
	RunE: runQuery,
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the example queries against the flights table",
	Long: `Run a fixed set of example queries against the flights table:
schema, sample rows, total count, and per-date delay statistics. The last
result is written to ` + statisticsFile + `.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(demoCmd)

	defaults := config.DefaultConfig()
	pf := rootCmd.PersistentFlags()
	pf.String("database", defaults.Database, "Athena database name")
	pf.String("output-location", defaults.OutputLocation, "S3 URI for query result artifacts")
	pf.String("region", defaults.Region, "AWS region")
	pf.Duration("poll-interval", defaults.PollInterval, "delay between status polls")
	pf.Duration("max-wait", defaults.MaxWait, "maximum time to wait for query completion (0 = unbounded)")
	pf.String("log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	pf.String("metrics-address", defaults.MetricsAddress, "Prometheus metrics listen address (empty = disabled)")

	runCmd.Flags().StringP("query", "q", "", "SQL query text (required)")
	runCmd.Flags().String("csv", "", "write the result table to this CSV file")
	runCmd.Flags().Bool("download", false, "fetch the full result artifact from S3 instead of the API page")
	if err := runCmd.MarkFlagRequired("query"); err != nil {
		panic(fmt.Errorf("failed to mark flag required: %w", err))
	}

	// Bind flags to viper
	if err := viper.BindPFlags(pf); err != nil {
		panic(fmt.Errorf("failed to bind flags: %w", err))
	}
	if err := viper.BindPFlags(runCmd.Flags()); err != nil {
		panic(fmt.Errorf("failed to bind flags: %w", err))
	}
	viper.SetEnvPrefix("ATHENAQ")
	viper.AutomaticEnv()

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("athenaq\n")
			fmt.Printf("Version:    %s\n", version)
			fmt.Printf("Commit:     %s\n", commit)
			fmt.Printf("Build Date: %s\n", buildDate)
		},
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := buildRunner(ctx, cfg, logger)
	if err != nil {
		return err
	}

	req := &models.QueryRequest{
		Database:       cfg.Database,
		QueryText:      viper.GetString("query"),
		OutputLocation: cfg.OutputLocation,
		Region:         cfg.Region,
	}

	var table *models.ResultTable
	if viper.GetBool("download") {
		table, err = runAndDownload(ctx, cfg, runner, req, logger)
	} else {
		table, err = runner.Run(ctx, req)
	}
	if err != nil {
		return err
	}

	fmt.Print(table.String())

	if path := viper.GetString("csv"); path != "" {
		if err := export.WriteCSVFile(path, table); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		logger.Info().Str("path", path).Msg("result written")
	}
	return nil
}

// runAndDownload waits for the query and then pulls the complete result
// artifact from S3 rather than the first API page.
func runAndDownload(ctx context.Context, cfg *config.Config, runner services.QueryRunner, req *models.QueryRequest, logger zerolog.Logger) (*models.ResultTable, error) {
	handle, err := runner.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := runner.Wait(ctx, handle); err != nil {
		return nil, err
	}

	dl, err := storage.NewS3Downloader(ctx, cfg.Region)
	if err != nil {
		return nil, err
	}
	downloader := storage.NewResultDownloader(dl, &runnerLogger{logger: logger})
	return downloader.Download(ctx, cfg.OutputLocation, handle)
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := buildRunner(ctx, cfg, logger)
	if err != nil {
		return err
	}

	fmt.Println("=== Simple Athena Query Example ===")

	queries := []struct {
		title string
		sql   string
	}{
		{"Getting flights table schema", "DESCRIBE flights"},
		{"Getting sample flight data", "SELECT * FROM flights LIMIT 5"},
		{"Counting total flights", "SELECT COUNT(*) AS total_flights FROM flights"},
		{"Flight statistics by date", `SELECT fl_date,
       COUNT(*) AS flight_count,
       AVG(dep_delay) AS avg_dep_delay,
       AVG(arr_delay) AS avg_arr_delay
FROM flights
GROUP BY fl_date
ORDER BY fl_date
LIMIT 10`},
	}

	var last *models.ResultTable
	for i, q := range queries {
		fmt.Printf("\n%d. %s...\n", i+1, q.title)
		table, err := runner.Run(ctx, &models.QueryRequest{
			Database:       cfg.Database,
			QueryText:      q.sql,
			OutputLocation: cfg.OutputLocation,
			Region:         cfg.Region,
		})
		if err != nil {
			printDiagnostic(err)
			// The demo exits normally on failure; the diagnostic is the output.
			return nil
		}
		fmt.Print(table.String())
		last = table
	}

	if err := export.WriteCSVFile(statisticsFile, last); err != nil {
		printDiagnostic(err)
		return nil
	}
	fmt.Printf("\nResults saved to %s\n", statisticsFile)
	return nil
}

// printDiagnostic prints a human-readable failure plus the setup checklist.
func printDiagnostic(err error) {
	fmt.Printf("\nError: %v\n", err)

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		fmt.Printf("AWS error code: %s\n", apiErr.ErrorCode())
	}

	fmt.Println("\nSetup checklist:")
	fmt.Println("1. Configure AWS credentials (aws configure)")
	fmt.Println("2. Override --database and --output-location for your account")
	fmt.Println("3. Ensure the 'flights' table exists in Athena")
	fmt.Println("4. Check IAM permissions for Athena and S3")
}

// buildRunner wires the Athena client, logger, and metrics into a runner.
func buildRunner(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (services.QueryRunner, error) {
	var collector metrics.Collector
	if cfg.MetricsAddress != "" {
		registry := prometheus.NewRegistry()
		collector = metrics.NewPrometheusCollector(registry)
		metricsServer := metrics.NewMetricsServer(cfg.MetricsAddress, registry)
		go func() {
			logger.Info().Str("address", cfg.MetricsAddress).Msg("starting metrics server")
			if err := metricsServer.Start(); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	} else {
		collector = metrics.NewNoOpCollector()
	}

	client, err := athena.NewClient(ctx, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("failed to create Athena client: %w", err)
	}

	runner := services.NewQueryRunner(client, &runnerLogger{logger: logger}, collector, services.RunnerOptions{
		PollInterval: cfg.PollInterval,
		MaxWait:      cfg.MaxWait,
	})
	return runner, nil
}

func loadConfig() (*config.Config, error) {
	cfg := &config.Config{
		Database:       viper.GetString("database"),
		OutputLocation: viper.GetString("output-location"),
		Region:         viper.GetString("region"),
		PollInterval:   viper.GetDuration("poll-interval"),
		MaxWait:        viper.GetDuration("max-wait"),
		LogLevel:       viper.GetString("log-level"),
		MetricsAddress: viper.GetString("metrics-address"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setupLogging(level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond

	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	return zerolog.New(os.Stderr).
		Level(logLevel).
		With().
		Timestamp().
		Str("service", "athena-query-runner").
		Logger()
}

// runnerLogger adapts zerolog.Logger to services.Logger.
type runnerLogger struct {
	logger zerolog.Logger
}

func (l *runnerLogger) Debug(msg string, keysAndValues ...interface{}) {
	logEvent(l.logger.Debug(), msg, keysAndValues...)
}

func (l *runnerLogger) Info(msg string, keysAndValues ...interface{}) {
	logEvent(l.logger.Info(), msg, keysAndValues...)
}

func (l *runnerLogger) Warn(msg string, keysAndValues ...interface{}) {
	logEvent(l.logger.Warn(), msg, keysAndValues...)
}

func (l *runnerLogger) Error(msg string, keysAndValues ...interface{}) {
	logEvent(l.logger.Error(), msg, keysAndValues...)
}

func logEvent(event *zerolog.Event, msg string, keysAndValues ...interface{}) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key := fmt.Sprintf("%v", keysAndValues[i])
		event = event.Interface(key, keysAndValues[i+1])
	}
	event.Msg(msg)
}
