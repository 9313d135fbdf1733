// Package version holds build metadata stamped in via -ldflags.
package version

var (
	// Version is the release version of the c360 binary.
	Version = "dev"
	// Commit is the git revision the binary was built from.
	Commit = "unknown"
	// BuildDate is the UTC build timestamp.
	BuildDate = "unknown"
)
