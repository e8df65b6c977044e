package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/MMucahit/borsa/internal/validation"
	"github.com/MMucahit/borsa/pkg/contracts"
	api "github.com/MMucahit/borsa/pkg/contracts/api/v1"
)

// HealthService provides health check functionality
type HealthService struct {
	runs         *RunService
	workspaceDir string
	files        *validation.FileValidator
	startTime    time.Time
	logger       *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]any           `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service reporting on the run cache and workspace
func NewHealthService(runs *RunService, workspaceDir string, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		runs:         runs,
		workspaceDir: workspaceDir,
		files:        validation.NewFileValidator(logger),
		startTime:    time.Now(),
		logger:       logger,
	}
}

// HealthCheck returns the overall status with per-dependency details
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime: map[string]any{
			"uptime_seconds": time.Since(hs.startTime).Seconds(),
			"goroutines":     runtime.NumGoroutine(),
		},
		Services: map[string]ServiceHealth{
			"workspace": hs.checkWorkspace(),
			"cache":     hs.checkCache(),
		},
	}

	for _, sh := range status.Services {
		if sh.Status != "ok" {
			status.Status = "degraded"
			break
		}
	}

	hs.logger.DebugContext(ctx, "Health check completed", slog.String("status", status.Status))
	return status
}

// Version returns build information
func (hs *HealthService) Version() api.VersionResponse {
	info := contracts.GetVersionInfo()
	return api.VersionResponse{
		Version:   info.Version,
		BuildTime: info.BuildTime,
		GitCommit: info.GitCommit,
		GoVersion: info.GoVersion,
		API:       info.APIVersion,
	}
}

// checkWorkspace verifies that per-run directories can be created
func (hs *HealthService) checkWorkspace() ServiceHealth {
	if err := hs.files.ValidateOutputDirectory(hs.workspaceDir); err != nil {
		return ServiceHealth{Status: "error", Message: err.Error()}
	}
	return ServiceHealth{Status: "ok"}
}

func (hs *HealthService) checkCache() ServiceHealth {
	if hs.runs == nil {
		return ServiceHealth{Status: "error", Message: "run service not configured"}
	}
	return ServiceHealth{Status: "ok", Message: fmt.Sprintf("%d cached runs", hs.runs.CachedRuns())}
}
