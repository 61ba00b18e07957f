package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"kpianalyzer/internal/catalog"
	"kpianalyzer/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	version     string
	exportsDir  string
	store       *catalog.Store
	clientCount func() int
	sheetsAPI   bool
	startTime   time.Time
	logger      *slog.Logger
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

// HealthOptions wires the components a health check reports on.
type HealthOptions struct {
	Version    string
	ExportsDir string
	Store      *catalog.Store
	// ClientCount reports connected websocket clients; nil means no hub.
	ClientCount func() int
	SheetsAPI   bool
}

// NewHealthService creates a new health service
func NewHealthService(opts HealthOptions, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("HealthService initialized", slog.String("version", opts.Version))

	return &HealthService{
		version:     opts.Version,
		exportsDir:  opts.ExportsDir,
		store:       opts.Store,
		clientCount: opts.ClientCount,
		sheetsAPI:   opts.SheetsAPI,
		startTime:   time.Now(),
		logger:      logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"catalog":    hs.checkCatalog(),
			"exports":    hs.checkExports(),
			"websocket":  hs.checkWebSocket(),
			"sheets_api": hs.checkSheetsAPI(),
		},
	}

	for _, service := range status.Services {
		if service.Status == "not_ready" {
			status.Status = "degraded"
			break
		}
	}

	hs.logger.DebugContext(ctx, "health check completed", slog.String("status", status.Status))
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]any{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns build information and when the service started
func (hs *HealthService) Version() contracts.VersionInfo {
	info := contracts.GetVersionInfo(hs.version)
	info.StartTime = hs.startTime
	return info
}

func (hs *HealthService) checkCatalog() ServiceHealth {
	if hs.store == nil {
		return ServiceHealth{Status: "not_ready", Message: "catalog store not initialized"}
	}
	c := hs.store.Snapshot()
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d agencies, %d KPIs, %d periods", len(c.Agencies), len(c.AllKPIs), len(c.AllPeriods)),
	}
}

func (hs *HealthService) checkExports() ServiceHealth {
	if hs.exportsDir == "" {
		return ServiceHealth{Status: "disabled", Message: "exports are streamed only"}
	}
	info, err := os.Stat(hs.exportsDir)
	if err != nil || !info.IsDir() {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("export directory not found: %s", hs.exportsDir)}
	}
	return ServiceHealth{Status: "ready"}
}

func (hs *HealthService) checkWebSocket() ServiceHealth {
	if hs.clientCount == nil {
		return ServiceHealth{Status: "disabled"}
	}
	return ServiceHealth{Status: "ready", Message: fmt.Sprintf("%d clients", hs.clientCount())}
}

func (hs *HealthService) checkSheetsAPI() ServiceHealth {
	if !hs.sheetsAPI {
		return ServiceHealth{Status: "disabled", Message: "no API key configured"}
	}
	return ServiceHealth{Status: "ready"}
}
