// Package version holds the build version, overridden with -ldflags.
package version

// Version is set at build time: -ldflags "-X reelforge/internal/version.Version=1.2.3".
var Version = "0.1.0-dev"
