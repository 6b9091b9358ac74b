// Package buildinfo exposes the version metadata the release build
// stamps in with -ldflags. Unstamped builds report "dev".
package buildinfo

import (
	"fmt"
	"runtime"
	"time"
)

// Set at build time, e.g.
// -ldflags "-X .../buildinfo.Version=v0.3.0 -X .../buildinfo.GitCommit=$(git rev-parse --short HEAD)".
var (
	Version   = "dev"
	GitCommit = "unknown"
	GitBranch = "unknown"
	BuildTime = "unknown"
)

var startTime = time.Now()

// Info collects build and runtime metadata for the version subcommand
// and startup logging.
func Info() map[string]string {
	return map[string]string{
		"version":    Version,
		"git_commit": GitCommit,
		"git_branch": GitBranch,
		"build_time": BuildTime,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"uptime":     Uptime().String(),
	}
}

// Uptime reports how long the process has been running, rounded to
// whole seconds.
func Uptime() time.Duration {
	return time.Since(startTime).Truncate(time.Second)
}

// String renders a one-line banner for logs and the version subcommand.
func String() string {
	return fmt.Sprintf("mailvox %s (%s@%s) built %s", Version, GitCommit, GitBranch, BuildTime)
}
