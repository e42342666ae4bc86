package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// startHTTPServer serves the supplemental status surface (SPEC_FULL.md
// §4.5, grounded on the teacher's /health, /api/rules, /api/history
// trio): /healthz, /api/sources, /api/files. Purely observational — it
// never gates packet processing.
func (d *Daemon) startHTTPServer(ctx context.Context) {
	addr := d.cfg.StatusListenAddress
	if addr == "" {
		addr = defaultStatusAddr
	}
	port := d.cfg.StatusListenPort
	if port == 0 {
		port = defaultStatusPort
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", d.handleHealthz)
	mux.HandleFunc("/api/sources", d.handleAPISources)
	mux.HandleFunc("/api/files", d.handleAPIFiles)

	d.httpServer = &http.Server{Addr: fmt.Sprintf("%s:%d", addr, port), Handler: mux}
	d.logger.Info("starting status server", "address", d.httpServer.Addr)

	go func() {
		if err := d.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			d.logger.Error("status server error", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = d.httpServer.Shutdown(shutdownCtx)
}

func (d *Daemon) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	d.mu.RLock()
	pipelines := len(d.pipelines)
	d.mu.RUnlock()

	uptime := time.Duration(d.clock.MonoNS()-d.startTimeMonoNS) * time.Nanosecond
	resp := map[string]any{
		"status":    "ok",
		"uptime":    uptime.Truncate(time.Second).String(),
		"pipelines": pipelines,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (d *Daemon) handleAPISources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if d.stateDB == nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]any{})
		return
	}

	sources, err := d.stateDB.ListSources(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("listing sources: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sources)
}

func (d *Daemon) handleAPIFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if d.stateDB == nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]any{})
		return
	}

	source := r.URL.Query().Get("source")
	files, err := d.stateDB.ListFiles(r.Context(), source)
	if err != nil {
		http.Error(w, fmt.Sprintf("listing files: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(files)
}
