// Package version exposes the build version string.
package version

// Version is overridden at build time via -ldflags "-X tracksmith/pkg/version.Version=...".
var Version = "dev"
