package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vk/tracegrid/internal/ctxlog"
	"github.com/vk/tracegrid/internal/httpserver"
	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/modules/core"
)

// providerStatus is one entry of the /status response.
type providerStatus struct {
	Module       string   `json:"module"`
	Provider     string   `json:"provider"`
	State        string   `json:"state"`
	Error        string   `json:"error,omitempty"`
	Capabilities []string `json:"capabilities"`
}

// coreStatus is core's own view of the boot, present once core prepared.
type coreStatus struct {
	Booted    bool       `json:"booted"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	BootedAt  *time.Time `json:"bootedAt,omitempty"`
}

type statusResponse struct {
	Booted    bool             `json:"booted"`
	Order     []string         `json:"order"`
	Providers []providerStatus `json:"providers"`
	Core      *coreStatus      `json:"core,omitempty"`
}

// healthHandler reports 200 once the boot completed and 503 before.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	if seq := a.Sequencer(); seq == nil || !seq.Completed() {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, "BOOTING")
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (a *App) statusHandler(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Order: []string{}, Providers: []providerStatus{}}
	if seq := a.Sequencer(); seq != nil {
		resp.Booted = seq.Completed()
		resp.Order = seq.Order().Modules()
		for _, st := range seq.Status() {
			ps := providerStatus{Module: st.Module, Provider: st.Provider, State: st.State.String(), Capabilities: []string{}}
			if st.Err != nil {
				ps.Error = st.Err.Error()
			}
			for _, id := range seq.Registry().Capabilities(st.Module) {
				ps.Capabilities = append(ps.Capabilities, id.String())
			}
			resp.Providers = append(resp.Providers, ps)
		}
		if status, err := module.Find[core.ServerStatus](seq.Registry(), core.Name); err == nil {
			resp.Core = &coreStatus{Booted: status.Booted(), StartedAt: timeOrNil(status.StartedAt()), BootedAt: timeOrNil(status.BootedAt())}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		a.logger.Debug("Failed to write status response.", "error", err)
	}
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// startHealthcheckServer binds the health check port and serves it until
// ctx ends.
func (a *App) startHealthcheckServer(ctx context.Context, port int) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Configuring health check server.")

	r := chi.NewRouter()
	r.Get("/health", a.healthHandler)
	r.Get("/status", a.statusHandler)

	srv, err := httpserver.Listen(ctx, "healthcheck", "", port)
	if err != nil {
		return err
	}
	logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost:%d/health", port))
	return srv.Serve(ctx, r)
}
