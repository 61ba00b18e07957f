// Package contracts holds the types shared between the server, its clients
// and the command line tools.
package contracts

import (
	"fmt"
	"runtime"
	"time"
)

const (
	// DataFormatVersion is the version of the dataset and export layout
	DataFormatVersion = "v1"

	// APIVersion is the version of the HTTP and WebSocket API
	APIVersion = "v1"
)

var (
	// BuildTime is set during build using ldflags
	BuildTime = "unknown"

	// GitCommit is set during build using ldflags
	GitCommit = "unknown"

	// GitBranch is set during build using ldflags
	GitBranch = "unknown"
)

// VersionInfo contains detailed version information
type VersionInfo struct {
	Version      string    `json:"version"`
	BuildTime    string    `json:"build_time"`
	GitCommit    string    `json:"git_commit"`
	GitBranch    string    `json:"git_branch"`
	GoVersion    string    `json:"go_version"`
	OS           string    `json:"os"`
	Architecture string    `json:"architecture"`
	DataFormat   string    `json:"data_format"`
	APIVersion   string    `json:"api_version"`
	StartTime    time.Time `json:"start_time"`
}

// GetVersionInfo returns build information for the given release version.
func GetVersionInfo(version string) VersionInfo {
	return VersionInfo{
		Version:      version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GitBranch:    GitBranch,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		DataFormat:   DataFormatVersion,
		APIVersion:   APIVersion,
	}
}

// String formats the version for command line output.
func (v VersionInfo) String() string {
	return fmt.Sprintf("v%s (built: %s, commit: %s, go: %s, os: %s/%s)",
		v.Version, v.BuildTime, v.GitCommit, v.GoVersion, v.OS, v.Architecture)
}
