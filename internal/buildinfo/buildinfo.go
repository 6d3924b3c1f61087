// Package buildinfo holds the engine's own version, used to stamp Quest
// Packages so a later engine build can tell whether it understands one.
package buildinfo

import "golang.org/x/mod/semver"

// Version is the engine's semver, bumped whenever the Quest Package wire
// format changes in a way that matters to compatibility checking.
const Version = "v1.3.0"

// CompatibleRange is the caret range package consumers are checked against:
// same major, minor/patch greater than or equal to Version's.
func CompatibleRange() string {
	return "^" + Version
}

// IsCompatible reports whether a package stamped with pkgVersion falls
// within this build's caret range: same major version as Version and not
// older than Version. Engines warn rather than reject on mismatch, so this
// gates logging, not loading.
func IsCompatible(pkgVersion string) bool {
	if !semver.IsValid(pkgVersion) {
		return false
	}
	return semver.Major(pkgVersion) == semver.Major(Version) && semver.Compare(pkgVersion, Version) >= 0
}
