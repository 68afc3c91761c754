package update

import (
	"errors"
	"net/url"
	"sort"
)

// Selection failures are sentinel errors so callers can distinguish "the
// listing offers nothing for this installation" from "this machine is too
// old for what it offers".
var (
	ErrNoMatchingRelease = errors.New("no matching release found")
	ErrPlatformTooOld    = errors.New("host platform too old for any available build")
)

// Candidate is the single selected best update.
type Candidate struct {
	Version  *Version
	URL      *url.URL
	Platform PlatformTag
}

// SelectOptions control candidate filtering.
type SelectOptions struct {
	// MinorUpgrade permits candidates from minor lines above the
	// installed one. Without it only the installed minor line is
	// eligible.
	MinorUpgrade bool
}

// Select chooses the best available update from the index: the newest
// micro release within the best reachable minor line, built for the
// highest platform tag the host can run.
//
// Selection is a pure function of its inputs. The filters are hard
// constraints applied in order: same major; same minor unless
// opts.MinorUpgrade (then any minor >= installed); pre-releases excluded
// unless the installed version is itself a pre-release.
func Select(index Index, installed *Version, hostOS PlatformTag, opts SelectOptions) (*Candidate, error) {
	survivors := make(Index)
	for bucket, entries := range index {
		if bucket.Major != installed.Major {
			continue
		}
		if opts.MinorUpgrade {
			if bucket.Minor < installed.Minor {
				continue
			}
		} else if bucket.Minor != installed.Minor {
			continue
		}

		var kept []Entry
		for _, e := range entries {
			// A final release never "upgrades" into a pre-release.
			if e.Version.IsPrerelease() && !installed.IsPrerelease() {
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) > 0 {
			survivors[bucket] = kept
		}
	}

	if len(survivors) == 0 {
		return nil, ErrNoMatchingRelease
	}

	// Best reachable minor line, then the newest micro within it.
	bestMinor := -1
	for bucket := range survivors {
		if bucket.Minor > bestMinor {
			bestMinor = bucket.Minor
		}
	}
	bestMicro := -1
	for bucket := range survivors {
		if bucket.Minor == bestMinor && bucket.Micro > bestMicro {
			bestMicro = bucket.Micro
		}
	}

	// Highest platform tag the host OS can run, among the tags offered
	// for that exact release.
	var bestTag PlatformTag
	found := false
	for bucket := range survivors {
		if bucket.Minor != bestMinor || bucket.Micro != bestMicro {
			continue
		}
		if !bucket.Platform.RunsOn(hostOS) {
			continue
		}
		if !found || bucket.Platform.Compare(bestTag) > 0 {
			bestTag = bucket.Platform
			found = true
		}
	}
	if !found {
		return nil, ErrPlatformTooOld
	}

	// Sort a copy; the index is borrowed read-only.
	entries := append([]Entry(nil), survivors[Bucket{
		Major:    installed.Major,
		Minor:    bestMinor,
		Micro:    bestMicro,
		Platform: bestTag,
	}]...)

	// Duplicate listings can put slightly different pre-release serials
	// in the same bucket; take the greatest version. The order among
	// byte-identical entries is arbitrary.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Version.Compare(entries[j].Version) > 0
	})
	best := entries[0]

	return &Candidate{
		Version:  best.Version,
		URL:      best.URL,
		Platform: bestTag,
	}, nil
}
