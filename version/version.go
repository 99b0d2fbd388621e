// Package version holds build metadata injected at link time.
package version

import "runtime"

// Variables populated via -ldflags at build time.
var (
	// GitRelease is the release tag or "dev" for local builds.
	GitRelease = "dev"
	// GitCommit is the commit hash the binary was built from.
	GitCommit = "unknown"
	// GitCommitDate is the commit date the binary was built from.
	GitCommitDate = "unknown"
)

// GoInfo is the Go toolchain version used for the build.
var GoInfo = runtime.Version()
