// Package version reports the lamp's build version. It goes into the
// connection query and the request User-Agent, so the backend can tell
// lamps apart.
package version

import "runtime/debug"

// Version is set at build time:
//
//	go build -ldflags "-X github.com/Deadolus/tschenggins-laempli/internal/version.Version=v1.2.3"
var Version string

// String returns the ldflags version, the module version from build info
// when installed via `go install`, or "dev".
func String() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return "dev"
}
