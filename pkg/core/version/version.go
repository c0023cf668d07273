// ============================================================================
// laplace - Minimax Exponential Sums
// ============================================================================
//
// Package:     version
// Description: Central version management for the library, CLI and daemon
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package version

import (
	"fmt"
	"runtime"
)

// Version constants
const (
	// Library version of pkg/quad, pkg/linalg and pkg/minimax
	Library = "1.0.0"

	// Component versions
	CLI    = "1.0.0"
	Server = "1.0.0"
	Store  = "1.0.0"

	// API is the gRPC service package version
	API = "v1"
)

// Build metadata, set with -ldflags "-X github.com/msto63/laplace/pkg/core/version.GitCommit=..."
var (
	GitCommit = "development"
	BuildDate = "unknown"
)

// ComponentVersion returns the version for a given component name
func ComponentVersion(name string) string {
	switch name {
	case "cli", "laplace":
		return CLI
	case "server", "laplaced":
		return Server
	case "store":
		return Store
	default:
		return Library
	}
}

// Info is the build description printed by "laplace version"
type Info struct {
	Version   string `json:"version" yaml:"version"`
	API       string `json:"api" yaml:"api"`
	GitCommit string `json:"git_commit" yaml:"git_commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// Get returns the build description of a component
func Get(component string) Info {
	return Info{
		Version:   ComponentVersion(component),
		API:       API,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
