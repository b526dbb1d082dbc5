package generate_excel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"shopfloor-kpi/internal/cache"
	"shopfloor-kpi/internal/service/generate-excel"
	"shopfloor-kpi/internal/service/indicator"
	"strconv"
	"time"
)

type GenerateExcelHandler interface {
	GenerateExcel(ctx context.Context, filter generate_excel.Filter) ([]byte, error)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, s)
}

func GenerateReportExcel(log *slog.Logger, gen GenerateExcelHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.report.GenerateReportExcel"

		q := r.URL.Query()

		kind, err := indicator.ParseKind(q.Get("kind"))
		if err != nil {
			http.Error(w, "invalid kind, use eff, perf or repair", http.StatusBadRequest)
			return
		}

		from, err := parseDate(q.Get("from"))
		if err != nil {
			http.Error(w, "invalid from date", http.StatusBadRequest)
			return
		}
		to, err := parseDate(q.Get("to"))
		if err != nil {
			http.Error(w, "invalid to date", http.StatusBadRequest)
			return
		}

		var line int
		if s := q.Get("line"); s != "" {
			line, err = strconv.Atoi(s)
			if err != nil {
				http.Error(w, "invalid line", http.StatusBadRequest)
				return
			}
		}

		filter := generate_excel.Filter{
			Kind:     kind,
			Lookback: q.Get("lookback") == "true",
			From:     from,
			To:       to,
			Line:     line,
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		excelBytes, err := gen.GenerateExcel(ctx, filter)
		if err != nil {
			if errors.Is(err, cache.ErrNotFound) {
				log.Warn("report requested before the first refresh", "op", op, "kind", kind)
				http.Error(w, "no data yet", http.StatusNotFound)
				return
			}
			log.Error("failed to generate excel", "op", op, "err", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		fileName := fmt.Sprintf("KPI_%s_%s.xlsx", kind, time.Now().Format("2006-01-02_150405"))

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
		_, _ = w.Write(excelBytes)
	}
}
