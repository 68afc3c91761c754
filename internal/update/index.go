package update

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	"github.com/wimglenn/mopup/internal/listing"
)

var (
	// releaseDirRegex matches release folder names like "3.11.5/".
	releaseDirRegex = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)/$`)

	// packageRegex matches macOS installer package filenames like
	// "python-3.11.5-macos11.pkg" or "python-3.9.1-macosx10.9.pkg",
	// capturing the full version string and the platform tag.
	packageRegex = regexp.MustCompile(`^python-(\d+\.\d+\.\d+(?:(?:a|b|rc)\d+)?)-macosx?(\d+(?:\.\d+)?)\.pkg$`)
)

// Bucket identifies one exact (version triple, platform) slot in the index.
type Bucket struct {
	Major    int
	Minor    int
	Micro    int
	Platform PlatformTag
}

// Entry is one downloadable package: its fully parsed version and location.
type Entry struct {
	Version *Version
	URL     *url.URL
}

// Index maps each bucket to the packages listed for it. Duplicate or
// mirrored listing entries mean a bucket can hold more than one entry;
// all are retained. Invariant: every entry's version triple equals its
// bucket's triple.
type Index map[Bucket][]Entry

// Lister provides the anchors of a remote listing page.
type Lister interface {
	Links(u *url.URL) ([]listing.Link, error)
}

// IndexBuilder crawls a python.org-style release listing two levels deep
// (release folders, then package files within each) and builds an Index.
type IndexBuilder struct {
	Lister Lister

	// Filter scopes the crawl: release folders it rejects are not
	// fetched at all. A nil Filter crawls every folder. The selector
	// applies its own hard constraints regardless, so Filter is purely
	// an optimization to avoid fetching irrelevant folders.
	Filter func(major, minor, micro int) bool

	// Warnf receives diagnostics about skipped listing entries.
	// May be nil.
	Warnf func(format string, args ...any)
}

// Build crawls the listing under baseURL. Any fetch failure aborts the
// whole build; a partial index could silently select a wrong version.
func (b *IndexBuilder) Build(baseURL *url.URL) (Index, error) {
	folders, err := b.Lister.Links(baseURL)
	if err != nil {
		return nil, err
	}

	index := make(Index)
	for _, folder := range folders {
		m := releaseDirRegex.FindStringSubmatch(folder.Text)
		if m == nil {
			continue
		}
		major, _ := strconv.Atoi(m[1])
		minor, _ := strconv.Atoi(m[2])
		micro, _ := strconv.Atoi(m[3])

		if b.Filter != nil && !b.Filter(major, minor, micro) {
			continue
		}

		if err := b.addPackages(index, folder, major, minor, micro); err != nil {
			return nil, err
		}
	}

	return index, nil
}

// addPackages fetches one release folder and indexes its packages.
func (b *IndexBuilder) addPackages(index Index, folder listing.Link, major, minor, micro int) error {
	packages, err := b.Lister.Links(folder.URL)
	if err != nil {
		return err
	}

	for _, pkg := range packages {
		m := packageRegex.FindStringSubmatch(pkg.Text)
		if m == nil {
			continue
		}

		version, err := ParseVersion(m[1])
		if err != nil {
			// Unreachable while packageRegex embeds the version
			// grammar, but do not let a regex edit corrupt the index.
			continue
		}

		// Mislabeled or ambiguous listings happen; a package whose
		// own version disagrees with its folder is skipped rather
		// than failing the whole crawl.
		if vMajor, vMinor, vMicro := version.Release(); vMajor != major || vMinor != minor || vMicro != micro {
			b.warnf("skipping %s: version %s does not match folder %d.%d.%d", pkg.Text, version, major, minor, micro)
			continue
		}

		bucket := Bucket{Major: major, Minor: minor, Micro: micro, Platform: PlatformTag(m[2])}
		index[bucket] = append(index[bucket], Entry{Version: version, URL: pkg.URL})
	}

	return nil
}

func (b *IndexBuilder) warnf(format string, args ...any) {
	if b.Warnf != nil {
		b.Warnf(format, args...)
	}
}

// String summarizes a bucket for diagnostics.
func (b Bucket) String() string {
	return fmt.Sprintf("%d.%d.%d/macos%s", b.Major, b.Minor, b.Micro, b.Platform)
}
