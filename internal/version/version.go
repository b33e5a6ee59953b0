// Package version holds build metadata, set at build time.
// Build with: go build -ldflags "-X securefiles/internal/version.Version=v1.0.0 -X securefiles/internal/version.Commit=$(git rev-parse --short HEAD)"
package version

// Version is the application version. Defaults to "dev" when not set via ldflags.
var Version = "dev"

// Commit is the source revision the binary was built from. Optional.
var Commit = ""

// String returns the version with the commit appended when known.
func String() string {
	if Commit == "" {
		return Version
	}
	return Version + " (" + Commit + ")"
}
