// Package version carries build metadata injected with -ldflags.
package version

import (
	"strings"

	"golang.org/x/mod/semver"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Normalize ensures version string has "v" prefix for semver compatibility.
// Examples: "1.2.3" -> "v1.2.3", "v1.2.3" -> "v1.2.3"
func Normalize(version string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		return ""
	}
	if !strings.HasPrefix(version, "v") {
		return "v" + version
	}
	return version
}

// String returns the canonical release version, or the raw value for
// non-semver builds such as "dev".
func String() string {
	v := Normalize(Version)
	if !semver.IsValid(v) {
		return Version
	}
	return semver.Canonical(v)
}
