package receiver

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vk/tracegrid/internal/ctxlog"
	"github.com/vk/tracegrid/modules/core"
	"github.com/vk/tracegrid/modules/telemetry"
)

type handler struct {
	forwarder    *SpanForwarder
	maxBodyBytes int64
	spans        telemetry.Counter
	latency      telemetry.Histogram
}

// routes mounts the collector endpoint below contextPath.
func (h *handler) routes(contextPath string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route(strings.TrimSuffix(contextPath, "/")+"/api/v2", func(r chi.Router) {
		r.Post("/spans", h.postSpans)
	})
	return r
}

func (h *handler) postSpans(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { h.latency.Observe(time.Since(start).Seconds(), "/api/v2/spans") }()
	logger := ctxlog.FromContext(r.Context())

	spans, err := h.decode(w, r)
	if err != nil {
		h.spans.Inc(OutcomeInvalid)
		logger.Debug("Rejected span batch.", "error", err)
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		http.Error(w, err.Error(), status)
		return
	}

	accepted, err := h.forwarder.Forward(r.Context(), spans)
	if err != nil {
		logger.Error("Failed to forward spans.", "error", err)
		http.Error(w, "failed to store spans", http.StatusInternalServerError)
		return
	}
	logger.Debug("Accepted span batch.", "received", len(spans), "stored", accepted)
	w.WriteHeader(http.StatusAccepted)
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request) ([]core.Span, error) {
	var body io.Reader = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if strings.EqualFold(r.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("invalid gzip body: %w", err)
		}
		defer gz.Close()
		body = gz
	}
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return nil, fmt.Errorf("unsupported content type %q", ct)
	}

	var spans []core.Span
	if err := json.NewDecoder(body).Decode(&spans); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("body exceeds %d bytes: %w", tooLarge.Limit, err)
		}
		return nil, fmt.Errorf("malformed span list: %w", err)
	}
	for i := range spans {
		spans[i].Normalize()
		if err := spans[i].Validate(); err != nil {
			return nil, fmt.Errorf("span %d: %w", i, err)
		}
	}
	return spans, nil
}
