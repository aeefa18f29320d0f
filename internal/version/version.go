package version

import (
	"fmt"
	"runtime"
)

// Populated through ldflags, e.g.
//
//	go build -ldflags "-X github.com/soyeahso/drivedesk/internal/version.Version=0.3.0
//	  -X github.com/soyeahso/drivedesk/internal/version.Commit=$(git rev-parse HEAD)"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns a human-readable build description.
func Info() string {
	return fmt.Sprintf("drivedesk %s (commit: %s, built: %s, %s/%s, %s)",
		Version, short(Commit), Date, runtime.GOOS, runtime.GOARCH, runtime.Version())
}

// UserAgent is sent on outbound HTTP calls.
func UserAgent() string {
	return "drivedesk/" + Version
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
