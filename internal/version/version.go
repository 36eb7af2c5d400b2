// Package version carries the build identity stamped in via -ldflags.
package version

// Zero values mean a plain `go build` without release flags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)
