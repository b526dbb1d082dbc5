package refresh

import (
	"context"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"shopfloor-kpi/internal/service/refresh"
	"time"
)

type Refresher interface {
	Refresh(ctx context.Context) (refresh.Result, error)
	RefreshLookback(ctx context.Context) (refresh.Result, error)
}

// Refresh runs one cycle on demand. ?lookback=true runs the lookback cycle instead.
func Refresh(log *slog.Logger, svc Refresher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.Refresh"

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
		defer cancel()

		run := svc.Refresh
		if r.URL.Query().Get("lookback") == "true" {
			run = svc.RefreshLookback
		}

		res, err := run(ctx)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Manual refresh failed")
			http.Error(w, "Refresh failed, previous results are still served", http.StatusBadGateway)
			return
		}

		log.With(slog.String("op", op), slog.String("cycle_id", res.CycleID)).Info("Manual refresh done")

		render.Status(r, http.StatusOK)
		render.JSON(w, r, res)
	}
}
