// Package version contains build version information for the incident
// console binaries.
//
// Values are set at build time, for example:
//
//	go build -ldflags "-X github.com/bissquit/incident-console/internal/version.GitCommit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"io"
	"runtime"
)

// Version is the current application version.
// This value is updated automatically by Release Please.
var Version = "0.1.0"

// GitCommit is the git commit hash.
// This value is set at build time via ldflags.
var GitCommit = "unknown"

// BuildDate is the build date.
// This value is set at build time via ldflags.
var BuildDate = "unknown"

// Info returns the one-line version string, e.g. "0.1.0 (abc1234, 2026-01-02)".
func Info() string {
	return fmt.Sprintf("%s (%s, %s)", Version, GitCommit, BuildDate)
}

// Fprint writes the --version output of binary to w.
func Fprint(w io.Writer, binary string) {
	fmt.Fprintf(w, "%s %s\n  Go: %s\n  Platform: %s/%s\n",
		binary, Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
