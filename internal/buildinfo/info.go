// Package buildinfo exposes version metadata stamped in via -ldflags.
package buildinfo

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
