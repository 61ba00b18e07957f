package config

import "time"

// Application constants
const (
	// Application Info
	AppName    = "KPI Analyzer"
	AppVersion = "1.0.0"

	// Selection limits
	MaxSelectedAgencies    = 9
	DefaultSelectedPeriods = 6
	GroupedChartKPIs       = 6

	// Ingestion
	DefaultIngestWorkers  = 4
	DefaultMaxUploadBytes = 32 << 20

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50
	DefaultRemoteRPS = 5

	// Network Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// File Paths (relative to the base directory)
	DefaultDataDir    = "data"
	DefaultExportsDir = "data/exports"
	DefaultLogsDir    = "logs"
	DefaultLogFile    = "logs/app.log"
)

// DefaultExpectedSheets are the agency sheet names fetched from a shared
// spreadsheet when the caller does not list any.
var DefaultExpectedSheets = []string{
	"GWM Iztapalapa",
	"GWM Morelos",
	"Honda Cuajimalpa",
	"Honda Interlomas",
	"KIA Interlomas",
	"KIA Iztapalapa",
	"MG Cuajimalpa",
	"MG Interlomas",
	"MG Iztapalapa",
}
