package get

import (
	"context"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"shopfloor-kpi/internal/storage"
	"time"
)

type HistoryReader interface {
	GetHistory(ctx context.Context) ([]storage.MonthlyHistory, error)
	GetTopStops(ctx context.Context) ([]storage.TopStop, error)
}

func GetHistory(log *slog.Logger, history HistoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.history.GetHistory"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		months, err := history.GetHistory(ctx)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Failed to read monthly history")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, months)
	}
}

// GetTopStops returns the ranking stored by the last refresh.
func GetTopStops(log *slog.Logger, history HistoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.history.GetTopStops"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		stops, err := history.GetTopStops(ctx)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Failed to read top stops")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, stops)
	}
}
