package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"kpianalyzer/internal/catalog"
	"kpianalyzer/internal/shared/testutil"
)

func TestHealthCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	store := catalog.NewStore(logger, 9, 0)

	tests := []struct {
		name       string
		opts       HealthOptions
		wantStatus string
		service    string
		wantState  string
	}{
		{
			name:       "all wired",
			opts:       HealthOptions{Version: "1.0.0", Store: store, ExportsDir: t.TempDir(), ClientCount: func() int { return 2 }, SheetsAPI: true},
			wantStatus: "ok",
			service:    "websocket",
			wantState:  "ready",
		},
		{
			name:       "missing export dir",
			opts:       HealthOptions{Store: store, ExportsDir: filepath.Join(t.TempDir(), "missing")},
			wantStatus: "degraded",
			service:    "exports",
			wantState:  "not_ready",
		},
		{
			name:       "no store",
			opts:       HealthOptions{},
			wantStatus: "degraded",
			service:    "catalog",
			wantState:  "not_ready",
		},
		{
			name:       "no api key",
			opts:       HealthOptions{Store: store},
			wantStatus: "ok",
			service:    "sheets_api",
			wantState:  "disabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := NewHealthService(tt.opts, logger).HealthCheck(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, tt.wantState, status.Services[tt.service].Status)
		})
	}
}

func TestLivenessCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthService(HealthOptions{Version: "1.2.3"}, logger)

	status := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.Contains(t, status.Runtime, "goroutines")

	info := hs.Version()
	assert.Equal(t, "1.2.3", info.Version)
	assert.False(t, info.StartTime.IsZero())
}
