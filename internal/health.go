package internal

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/vitrine/internal/catalog"
	"github.com/starford/vitrine/internal/index"
)

func liveHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// readyHandler reports ready once a catalog is loaded and mirrored. The
// body carries the number of indexed records.
func readyHandler(cat *catalog.Store, db index.CatalogIndex) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !cat.Loaded() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"catalog not loaded"}`))
			return
		}
		n, err := db.Count()
		if err != nil {
			slog.Warn("health: index count failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"index unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","indexed":` + strconv.Itoa(n) + `}`))
	}
}
