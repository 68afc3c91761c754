package update

import (
	"fmt"
	"regexp"
	"strconv"
)

var versionRegex = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(?:(a|b|rc)(\d+))?$`)

// Version represents a python.org release version.
// Pre-releases use CPython notation: "3.12.0a4", "3.12.0b1", "3.12.0rc2".
type Version struct {
	Major  int
	Minor  int
	Micro  int
	Pre    string // "a", "b", "rc", or "" for a final release
	Serial int    // pre-release serial, 0 for a final release
}

// ParseVersion parses a version string such as "3.11.4" or "3.12.0rc1".
func ParseVersion(s string) (*Version, error) {
	matches := versionRegex.FindStringSubmatch(s)
	if matches == nil {
		return nil, fmt.Errorf("invalid version format: %s", s)
	}

	major, _ := strconv.Atoi(matches[1])
	minor, _ := strconv.Atoi(matches[2])
	micro, _ := strconv.Atoi(matches[3])
	serial := 0
	if matches[5] != "" {
		serial, _ = strconv.Atoi(matches[5])
	}

	return &Version{
		Major:  major,
		Minor:  minor,
		Micro:  micro,
		Pre:    matches[4],
		Serial: serial,
	}, nil
}

// String returns the string representation.
func (v *Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Micro)
	if v.Pre != "" {
		s += fmt.Sprintf("%s%d", v.Pre, v.Serial)
	}
	return s
}

// Release returns the (major, minor, micro) triple without any
// pre-release component.
func (v *Version) Release() (int, int, int) {
	return v.Major, v.Minor, v.Micro
}

// IsPrerelease reports whether v is an alpha, beta, or release candidate.
func (v *Version) IsPrerelease() bool {
	return v.Pre != ""
}

// prePhase ranks pre-release phases so that a < b < rc < final.
func (v *Version) prePhase() int {
	switch v.Pre {
	case "a":
		return 0
	case "b":
		return 1
	case "rc":
		return 2
	default:
		return 3
	}
}

// Compare compares two versions.
// Returns:
//   - 1 if v > other
//   - 0 if v == other
//   - -1 if v < other
//
// A pre-release orders below the final release with the same triple.
func (v *Version) Compare(other *Version) int {
	if v.Major != other.Major {
		if v.Major > other.Major {
			return 1
		}
		return -1
	}

	if v.Minor != other.Minor {
		if v.Minor > other.Minor {
			return 1
		}
		return -1
	}

	if v.Micro != other.Micro {
		if v.Micro > other.Micro {
			return 1
		}
		return -1
	}

	if p, op := v.prePhase(), other.prePhase(); p != op {
		if p > op {
			return 1
		}
		return -1
	}

	if v.Serial != other.Serial {
		if v.Serial > other.Serial {
			return 1
		}
		return -1
	}

	return 0
}

// IsGreaterThan returns true if v > other.
func (v *Version) IsGreaterThan(other *Version) bool {
	return v.Compare(other) > 0
}
