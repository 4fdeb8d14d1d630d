package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"reelforge/internal/diagnostics"
	"reelforge/internal/pipeline"
	"reelforge/internal/version"
)

// Capabilities reports which stages have a live adapter.
type Capabilities interface {
	Capabilities() []pipeline.AdapterStatus
	Stats(ctx context.Context) (pipeline.Stats, error)
}

// HealthHandler serves GET /health.
type HealthHandler struct {
	caps     Capabilities
	diagnose func() diagnostics.Report
}

func NewHealthHandler(caps Capabilities, diagnose func() diagnostics.Report) *HealthHandler {
	return &HealthHandler{caps: caps, diagnose: diagnose}
}

type healthResponse struct {
	Status      string                   `json:"status"` // ok | degraded | error
	Version     string                   `json:"version"`
	Adapters    []pipeline.AdapterStatus `json:"adapters"`
	Jobs        pipeline.Stats           `json:"jobs"`
	Diagnostics *diagnostics.Report      `json:"diagnostics,omitempty"`
}

// Health is "ok" when every stage runs live, "degraded" when any falls back,
// and "error" (503) when a required directory is unusable.
func (h *HealthHandler) Health(c echo.Context) error {
	resp := healthResponse{
		Status:   "ok",
		Version:  version.Version,
		Adapters: h.caps.Capabilities(),
	}
	for _, a := range resp.Adapters {
		if a.Mode != "live" {
			resp.Status = "degraded"
		}
	}

	stats, err := h.caps.Stats(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	resp.Jobs = stats

	code := http.StatusOK
	if h.diagnose != nil {
		report := h.diagnose()
		resp.Diagnostics = &report
		if report.HasFailures {
			resp.Status = "error"
			code = http.StatusServiceUnavailable
		}
	}
	return c.JSON(code, resp)
}
