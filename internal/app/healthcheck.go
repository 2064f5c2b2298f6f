package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"
)

// progress is the training state published on /status. It is written by the
// training loop and read by the server goroutine.
type progress struct {
	mu     sync.Mutex
	status Status
}

// Status is the /status response body.
type Status struct {
	Running bool    `json:"running"`
	Epoch   int     `json:"epoch"`
	Epochs  int     `json:"epochs"`
	Loss    float64 `json:"loss"`
	Nodes   int     `json:"nodes"`
	Samples int     `json:"samples"`
	// Diverged is set once the loss stops being finite; Loss then holds the
	// last finite value.
	Diverged bool `json:"diverged,omitempty"`
}

func (p *progress) start(epochs, nodes, samples int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = Status{Running: true, Epochs: epochs, Nodes: nodes, Samples: samples}
}

func (p *progress) record(epoch int, loss float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Epoch = epoch
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		p.status.Diverged = true
		return
	}
	p.status.Loss = loss
}

func (p *progress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Running = false
}

func (p *progress) snapshot() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// healthHandler reports liveness.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// statusHandler reports training progress as JSON.
func (a *App) statusHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Status endpoint hit.", "remote_addr", r.RemoteAddr)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(a.progress.snapshot()); err != nil {
		a.logger.Error("Failed to encode status.", "error", err)
	}
}

func (a *App) statusMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.HandleFunc("/status", a.statusHandler)
	return mux
}

// startStatusServer runs the status server in the background.
func (a *App) startStatusServer(port int) {
	a.logger.Debug("Configuring status server.")
	addr := fmt.Sprintf(":%d", port)
	a.httpServer = &http.Server{
		Addr:              addr,
		Handler:           a.statusMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv := a.httpServer
	go func() {
		a.logger.Info("🩺 Status server starting", "address", fmt.Sprintf("http://localhost%s/status", addr))
		// ListenAndServe returns ErrServerClosed on graceful shutdown.
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Status server failed unexpectedly", "error", err)
		}
	}()
}

func (a *App) closeStatusServer() error {
	if a.httpServer == nil {
		a.logger.Debug("Status server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()

	a.logger.Info("🩺 Shutting down status server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Status server shutdown failed", "error", err)
		return err
	}
	a.httpServer = nil
	a.logger.Debug("Status server shut down gracefully.")
	return nil
}
