package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/spf13/cobra"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"shopfloor-kpi/internal/cache"
	"shopfloor-kpi/internal/config"
	"shopfloor-kpi/internal/service/generate-excel"
	"shopfloor-kpi/internal/service/indicator"
	"shopfloor-kpi/internal/service/reconcile"
	"shopfloor-kpi/internal/service/refresh"
	"shopfloor-kpi/internal/storage/mysql"
	"shopfloor-kpi/internal/storage/sqlite"
	"syscall"
	"time"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "kpi",
		Short: "Shop-floor stop reconciliation and KPI server",
		// serve is the default
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config (falls back to CONFIG_PATH)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the refresh scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	})

	var lookback bool
	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run one refresh cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return refreshOnce(cmd.Context(), lookback)
		},
	}
	refreshCmd.Flags().BoolVar(&lookback, "lookback", false, "run the lookback cycle and save the monthly snapshot")
	root.AddCommand(refreshCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg      *config.Config
	log      *slog.Logger
	events   *mysql.Storage
	history  *sqlite.Storage
	cache    *cache.Cache
	refresh  *refresh.Service
	generate *generate_excel.GenerateExcelService
	closeLog func() error
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, closeLog := setupLogger(cfg.Env)

	holidays, err := cfg.HolidayDates()
	if err != nil {
		return nil, err
	}

	tables, err := indicator.LoadTables(cfg.DiscountTablesPath)
	if err != nil {
		return nil, err
	}

	events, err := mysql.New(ctx, cfg.Database)
	if err != nil {
		log.Error("failed to open db", slog.String("error", err.Error()))
		return nil, err
	}

	history, err := sqlite.New(ctx, cfg.HistoryPath)
	if err != nil {
		_ = events.Close()
		log.Error("failed to open history", slog.String("error", err.Error()))
		return nil, err
	}

	c := cache.New()

	svc := refresh.New(log, events, history, c,
		reconcile.New(reconcile.Options{Holidays: holidays, FuzzyThreshold: cfg.FuzzyThreshold}),
		indicator.NewAggregator(tables, cfg.IdealCycle, nil),
		refresh.Options{Loc: cfg.Loc(), LookbackMonths: cfg.LookbackMonths},
	)

	return &app{
		cfg:      cfg,
		log:      log,
		events:   events,
		history:  history,
		cache:    c,
		refresh:  svc,
		generate: generate_excel.NewGenerateService(c),
		closeLog: closeLog,
	}, nil
}

func (a *app) Close() {
	if err := a.events.Close(); err != nil {
		a.log.Error("failed to close db", slog.String("error", err.Error()))
	}
	if err := a.history.Close(); err != nil {
		a.log.Error("failed to close history", slog.String("error", err.Error()))
	}
	_ = a.closeLog()
}

func serve(ctx context.Context) error {
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	scheduler, err := refresh.NewScheduler(a.log, a.refresh, a.cfg.Interval, a.cfg.DailyAt, a.cfg.Loc())
	if err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		scheduler.Run(ctx)
	}()

	srv := &http.Server{
		Addr:         a.cfg.Address,
		Handler:      routes(*a.cfg, a.log, a.cache, a.history, a.refresh, a.generate),
		ReadTimeout:  a.cfg.HTTPServer.Timeout,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  a.cfg.HTTPServer.IdleTimeout,
	}

	a.log.Info("server started", slog.String("address", a.cfg.Address))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		a.log.Error("failed start server", slog.String("error", err.Error()))
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err = srv.Shutdown(shutdownCtx)
	}

	<-done
	a.log.Info("server stopped")

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func refreshOnce(ctx context.Context, lookback bool) error {
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	run := a.refresh.Refresh
	if lookback {
		run = a.refresh.RefreshLookback
	}

	res, err := run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("cycle %s: %d intervals, %d top stops in %s\n", res.CycleID, res.Intervals, res.TopStops, res.Duration)
	for _, k := range indicator.Kinds {
		fmt.Printf("  %-12s %d rows\n", k, res.Rows[k])
	}
	return nil
}
