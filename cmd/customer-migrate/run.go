package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chararch/chunkbatch"
	"github.com/chararch/chunkbatch/file"
	"github.com/chararch/chunkbatch/internal/config"
	"github.com/chararch/chunkbatch/internal/customer"
	"github.com/chararch/chunkbatch/internal/logs"
	"github.com/chararch/chunkbatch/metrics"
	"github.com/chararch/chunkbatch/status"
	"github.com/chararch/chunkbatch/util"
	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd() *cobra.Command {
	var params []string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the customer migration job",
		Example: `  customer-migrate run --input customers.csv --dsn 'user:pass@tcp(localhost:3306)/shop?parseTime=true'
  customer-migrate run --config migrate.yaml --input 'customers_{date,yyyyMMdd}.csv' --param date=20220110`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return &exitError{code: exitUsage, err: err}
			}
			jobParams, err := util.ParseKeyValues(params)
			if err != nil {
				return &exitError{code: exitUsage, err: err}
			}
			return run(cmd, cfg, jobParams)
		},
	}
	flags := cmd.Flags()
	flags.String("config", "", "YAML config file")
	flags.String("input", "", "input CSV file, may contain {param,format} patterns")
	flags.String("dsn", "", "MySQL DSN of the target database")
	flags.Bool("skip-schema", false, "do not create the customers table")
	flags.String("repository", config.RepositoryMemory, "job repository: memory or mysql")
	flags.Int("chunk-size", chunkbatch.DefaultChunkSize, "accepted records written per transaction")
	flags.Int64("skip-limit", chunkbatch.DefaultSkipLimit, "tolerated per-record failures")
	flags.StringSlice("skippable-errors", []string{chunkbatch.SkippableAll}, "skippable error classes: all, read, process, write, an error code or error type")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.String("log-format", "json", "json or console")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9102")
	flags.StringArrayVar(&params, "param", nil, "job parameter key=value, repeatable")
	return cmd
}

func run(cmd *cobra.Command, cfg *config.Config, jobParams map[string]interface{}) error {
	zl, err := logs.NewZapProduction(cfg.LogLevel(), cfg.Log.Format)
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}
	defer zl.Sync()
	chunkbatch.SetLogger(logs.NewZapLogger(zl))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return &exitError{code: exitFailed, err: err}
	}
	defer db.Close()
	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	defer pingCancel()
	if err = db.PingContext(pingCtx); err != nil {
		return &exitError{code: exitFailed, err: fmt.Errorf("connect database: %w", err)}
	}
	if cfg.Repository == config.RepositoryMySQL {
		if err = createRepositoryTables(ctx, db); err != nil {
			return &exitError{code: exitFailed, err: err}
		}
		chunkbatch.SetJobRepository(chunkbatch.NewSQLRepository(db))
	}

	listeners := []interface{}{chunkbatch.NewLoggingListener()}
	if cfg.Metrics.Addr != "" {
		ml, err := metrics.NewListener(prometheus.DefaultRegisterer)
		if err != nil {
			return &exitError{code: exitFailed, err: err}
		}
		listeners = append(listeners, ml)
		srv := serveMetrics(cfg.Metrics.Addr, zl)
		defer srv.Close()
	}

	job := customer.NewMigrationJob(customer.JobOptions{
		DB:         db,
		Input:      cfg.Input,
		Storage:    storageOf(cfg.FTP),
		Config:     cfg.Step,
		Listeners:  listeners,
		SkipSchema: cfg.SkipSchema,
	})
	if err = chunkbatch.Register(job); err != nil {
		return &exitError{code: exitFailed, err: err}
	}
	params, err := util.JsonString(jobParams)
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}
	execution, err := chunkbatch.Start(ctx, job.Name(), params)
	if execution != nil {
		printReport(cmd.OutOrStdout(), execution)
	}
	if err != nil {
		return &exitError{code: exitFailed, err: err}
	}
	if execution.JobStatus != status.COMPLETED {
		return &exitError{code: exitFailed, err: errors.New(failureLine(execution))}
	}
	return nil
}

func storageOf(c config.FTPConfig) file.FileStorage {
	if c.Host == "" {
		return &file.LocalFileSystem{}
	}
	return &file.FTPFileSystem{
		Host:        c.Host,
		Port:        c.Port,
		User:        c.User,
		Password:    c.Password,
		ConnTimeout: c.Timeout,
	}
}

func createRepositoryTables(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(chunkbatch.SQLRepositorySchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create job repository tables: %w", err)
		}
	}
	return nil
}

func serveMetrics(addr string, zl *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	return srv
}
