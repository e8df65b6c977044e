package http

import (
	"net/http"

	apierrors "github.com/MMucahit/borsa/internal/errors"
)

// MetricsHandler serves the Prometheus scrape endpoint
type MetricsHandler struct {
	exporter     http.Handler
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler wraps the Prometheus HTTP handler; a nil handler means
// metric export is disabled and /metrics answers 404
func NewMetricsHandler(exporter http.Handler, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(nil, false)
	}
	return &MetricsHandler{exporter: exporter, errorHandler: errorHandler}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		h.errorHandler.NotFound(w, r)
		return
	}
	h.exporter.ServeHTTP(w, r)
}
