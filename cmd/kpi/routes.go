package main

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"log/slog"
	"net/http"
	adminrefresh "shopfloor-kpi/http-server/admin/refresh"
	generate_excel "shopfloor-kpi/http-server/generate-report/generate-excel"
	gethistory "shopfloor-kpi/http-server/history/get"
	getkpi "shopfloor-kpi/http-server/kpi/get"
	"shopfloor-kpi/internal/cache"
	"shopfloor-kpi/internal/config"
	"shopfloor-kpi/internal/middleware/auth"
	generate_excel2 "shopfloor-kpi/internal/service/generate-excel"
	"shopfloor-kpi/internal/service/refresh"
	"shopfloor-kpi/internal/storage/sqlite"
)

func routes(
	cfg config.Config,
	log *slog.Logger,
	tables *cache.Cache,
	history *sqlite.Storage,
	refresher *refresh.Service,
	genService *generate_excel2.GenerateExcelService,
) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// cached tables: df_info, df_eff, df_perf, df_repair, df_top_stops and the *_lookback variants
	router.Get("/api/kpi", getkpi.ListTables(log, tables))
	router.Get("/api/kpi/{key}", getkpi.GetTable(log, tables))

	router.Get("/api/history", gethistory.GetHistory(log, history))
	router.Get("/api/top-stops", gethistory.GetTopStops(log, history))

	router.Get("/api/report/excel", generate_excel.GenerateReportExcel(log, genService))

	adminRouter := chi.NewRouter()
	adminRouter.Use(auth.BasicAuth(cfg.AdminLogin, cfg.AdminPass))

	adminRouter.Post("/refresh", adminrefresh.Refresh(log, refresher))

	router.Mount("/api/admin", adminRouter)

	return router
}
