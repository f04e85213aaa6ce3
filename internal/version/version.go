// Package version reports build metadata for the hostlink client.
package version

import (
	"fmt"
	"runtime"
)

// Set by ldflags during build, e.g.
// -X github.com/ZerkerEOD/hostlink/internal/version.Version=v1.2.0
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)

// GetVersion returns the current client version
func GetVersion() string {
	return Version
}

// String returns a one-line description of the build.
func String() string {
	s := fmt.Sprintf("hostlink %s", Version)
	if Commit != "" {
		s += fmt.Sprintf(" (commit %s)", Commit)
	}
	if BuildDate != "" {
		s += fmt.Sprintf(" built %s", BuildDate)
	}
	return fmt.Sprintf("%s %s/%s %s", s, runtime.GOOS, runtime.GOARCH, runtime.Version())
}
