// Package version provides build information for the Confluence CLI.
package version

import "runtime"

// Version is overridden at build time with -ldflags "-X ...version.Version=v1.2.3".
var Version = "development"

// Commit is the git commit hash, also set through ldflags.
var Commit = "unknown"

// String returns the full version string including the commit hash if available.
func String() string {
	if Commit != "unknown" && Commit != "" {
		return Version + "+" + Commit
	}
	return Version
}

// UserAgent is sent with every REST request.
func UserAgent() string {
	return "confluence-cli/" + String() + " (" + runtime.GOOS + "/" + runtime.GOARCH + ")"
}
