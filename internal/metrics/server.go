package metrics

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Handler returns the /metrics router. Paths other than /metrics return
// 404. The handler only reads metric state and never touches reconciliation
// state.
func Handler(m *SyncMetrics) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		fmt.Fprintln(w, m.Render())
	}).Methods(http.MethodGet)
	return r
}

// Serve starts the metrics HTTP server on its own goroutine. Serve errors
// are logged, not fatal: losing the metrics endpoint must not stop the
// sync loop.
func Serve(m *SyncMetrics, port int) {
	addr := fmt.Sprintf(":%d", port)
	go func() {
		log.WithField("addr", addr).Info("📊 Metrics server listening")
		if err := http.ListenAndServe(addr, Handler(m)); err != nil {
			log.WithError(err).Error("❌ Metrics server stopped")
		}
	}()
}
