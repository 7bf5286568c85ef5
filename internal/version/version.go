// Package version holds the application version string.
package version

// Version is the semantic version of the SoulSight companion build.
// Overridden at release time via -ldflags "-X soulsight/internal/version.Version=...".
var Version = "0.3.0"

// String returns the version in the form consumed by logs, telemetry
// and crash reports.
func String() string { return Version }
