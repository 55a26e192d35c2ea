// Package version holds build metadata set via ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/remotevalues/internal/version.Version=v1.0.0"
package version

import "runtime/debug"

// Version is the release version.
var Version = "dev"

// Build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns the version, falling back to the module version recorded by the Go toolchain.
func String() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}
