package get

import (
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"shopfloor-kpi/internal/cache"
	"time"
)

type TableReader interface {
	Get(key string) ([]byte, error)
	UpdatedAt(key string) (time.Time, error)
}

// GetTable serves a cached table as the column-oriented JSON it was published as.
func GetTable(log *slog.Logger, tables TableReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.kpi.GetTable"

		key := chi.URLParam(r, "key")
		if key == "" {
			log.With(slog.String("op", op)).Error("Missing 'key' in path")
			http.Error(w, "Missing table key", http.StatusBadRequest)
			return
		}

		data, err := tables.Get(key)
		if err != nil {
			if errors.Is(err, cache.ErrNotFound) {
				log.With(slog.String("op", op), slog.String("key", key)).Warn("Table not found")
				http.Error(w, "Table not found", http.StatusNotFound)
				return
			}

			log.With(
				slog.String("op", op),
				slog.String("key", key),
				slog.String("error", err.Error()),
			).Error("Failed to read table")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if updated, err := tables.UpdatedAt(key); err == nil {
			w.Header().Set("Last-Modified", updated.UTC().Format(http.TimeFormat))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

type KeyLister interface {
	Keys() []string
}

type KeysResponse struct {
	Keys []string `json:"keys"`
}

// ListTables returns the keys currently published.
func ListTables(log *slog.Logger, tables KeyLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys := tables.Keys()
		log.Debug("listing tables", slog.Int("count", len(keys)))

		render.Status(r, http.StatusOK)
		render.JSON(w, r, KeysResponse{Keys: keys})
	}
}
