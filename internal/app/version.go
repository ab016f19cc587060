package app

import "fmt"

// Build metadata, injected at link time:
//
//	go build -ldflags "-X github.com/tejashwikalptaru/goscope/internal/app.GitTag=v0.3.0" ./cmd
var (
	Version   = "dev"
	GitCommit = "unknown"
	GitTag    = ""
	BuildTime = "unknown"
)

// VersionInfo describes the running build.
type VersionInfo struct {
	Version   string
	GitCommit string
	GitTag    string
	BuildTime string
}

// GetVersionInfo returns the build metadata.
func GetVersionInfo() VersionInfo {
	return VersionInfo{Version: Version, GitCommit: GitCommit, GitTag: GitTag, BuildTime: BuildTime}
}

// Release is the tag when the build has one, the version otherwise.
func (v VersionInfo) Release() string {
	if v.GitTag != "" {
		return v.GitTag
	}
	return v.Version
}

// FullString returns the release with commit and build time, for logs and the About box.
func (v VersionInfo) FullString() string {
	return fmt.Sprintf("GoScope %s (commit: %s, built: %s)", v.Release(), v.GitCommit, v.BuildTime)
}
