package config

import (
	"strconv"
	"strings"
)

// majorMinor parses the leading "major.minor" of a dotted version string,
// ignoring any patch component or suffix.
func majorMinor(v string) (int, int, bool) {
	parts := strings.Split(v, ".")
	if len(parts) < 2 {
		return 0, 0, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return major, minor, true
}

// atLeast reports whether a's major.minor is >= b's major.minor: called as
// atLeast(config.Version, EngineVersion).
func atLeast(a, b string) bool {
	aMaj, aMin, ok1 := majorMinor(a)
	bMaj, bMin, ok2 := majorMinor(b)
	if !ok1 || !ok2 {
		return false
	}
	if aMaj != bMaj {
		return aMaj > bMaj
	}
	return aMin >= bMin
}
