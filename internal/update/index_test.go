package update

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/wimglenn/mopup/internal/listing"
)

// listingPage renders a minimal directory listing with the given anchors.
func listingPage(names ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><body><pre>\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "<a href=%q>%s</a>\n", name, name)
	}
	sb.WriteString("</pre></body></html>")
	return sb.String()
}

// newListingServer serves a fake python.org release tree. pages maps
// request paths to the anchor names on that page.
func newListingServer(t *testing.T, pages map[string][]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		names, ok := pages[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(listingPage(names...)))
	}))
}

func baseOf(t *testing.T, server *httptest.Server) *url.URL {
	t.Helper()
	u, err := url.Parse(server.URL + "/ftp/python/")
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	return u
}

func TestIndexBuilderBuild(t *testing.T) {
	server := newListingServer(t, map[string][]string{
		"/ftp/python/": {"3.11.5/", "3.11.6/", "doc/", "README.txt"},
		"/ftp/python/3.11.5/": {
			"python-3.11.5-macos11.pkg",
			"python-3.11.5-macosx10.9.pkg",
			"Python-3.11.5.tgz",
		},
		"/ftp/python/3.11.6/": {
			"python-3.11.6rc1-macos11.pkg",
		},
	})
	defer server.Close()

	builder := &IndexBuilder{Lister: listing.NewClient()}
	index, err := builder.Build(baseOf(t, server))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	wantBuckets := []Bucket{
		{Major: 3, Minor: 11, Micro: 5, Platform: "11"},
		{Major: 3, Minor: 11, Micro: 5, Platform: "10.9"},
		{Major: 3, Minor: 11, Micro: 6, Platform: "11"},
	}
	if len(index) != len(wantBuckets) {
		t.Fatalf("Build() produced %d buckets, want %d: %v", len(index), len(wantBuckets), index)
	}
	for _, bucket := range wantBuckets {
		if len(index[bucket]) != 1 {
			t.Errorf("bucket %s has %d entries, want 1", bucket, len(index[bucket]))
		}
	}

	entry := index[Bucket{Major: 3, Minor: 11, Micro: 6, Platform: "11"}][0]
	if entry.Version.String() != "3.11.6rc1" {
		t.Errorf("entry version = %s, want 3.11.6rc1", entry.Version)
	}
	if !strings.HasSuffix(entry.URL.Path, "/3.11.6/python-3.11.6rc1-macos11.pkg") {
		t.Errorf("entry URL = %s, not resolved against the folder", entry.URL)
	}
}

func TestIndexBuilderBucketInvariant(t *testing.T) {
	// A package whose version disagrees with its folder is skipped with
	// a warning and never appears in the index.
	server := newListingServer(t, map[string][]string{
		"/ftp/python/":        {"3.11.5/"},
		"/ftp/python/3.11.5/": {"python-3.11.4-macos11.pkg", "python-3.11.5-macos11.pkg"},
	})
	defer server.Close()

	var warnings []string
	builder := &IndexBuilder{
		Lister: listing.NewClient(),
		Warnf: func(format string, args ...any) {
			warnings = append(warnings, fmt.Sprintf(format, args...))
		},
	}
	index, err := builder.Build(baseOf(t, server))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for bucket, entries := range index {
		for _, e := range entries {
			major, minor, micro := e.Version.Release()
			if major != bucket.Major || minor != bucket.Minor || micro != bucket.Micro {
				t.Errorf("entry %s indexed under mismatched bucket %s", e.Version, bucket)
			}
		}
	}
	if got := len(index[Bucket{Major: 3, Minor: 11, Micro: 5, Platform: "11"}]); got != 1 {
		t.Errorf("bucket has %d entries, want 1 (mismatch skipped)", got)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "python-3.11.4-macos11.pkg") {
		t.Errorf("warnings = %v, want one mentioning the skipped package", warnings)
	}
}

func TestIndexBuilderFilterSkipsFetch(t *testing.T) {
	// Filtered folders are never fetched: the 2.x folder would 500.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ftp/python/":
			_, _ = w.Write([]byte(listingPage("2.7.18/", "3.11.5/")))
		case "/ftp/python/3.11.5/":
			_, _ = w.Write([]byte(listingPage("python-3.11.5-macos11.pkg")))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	builder := &IndexBuilder{
		Lister: listing.NewClient(),
		Filter: func(major, minor, micro int) bool { return major == 3 },
	}
	index, err := builder.Build(baseOf(t, server))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(index) != 1 {
		t.Errorf("Build() produced %d buckets, want 1", len(index))
	}
}

func TestIndexBuilderFolderFetchErrorAborts(t *testing.T) {
	// A failing folder fetch aborts the whole build; a partial index
	// could silently select a wrong version.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ftp/python/" {
			_, _ = w.Write([]byte(listingPage("3.11.5/", "3.11.6/")))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	builder := &IndexBuilder{Lister: listing.NewClient()}
	if _, err := builder.Build(baseOf(t, server)); err == nil {
		t.Fatal("Build() expected error when a folder fetch fails")
	}
}

func TestIndexBuilderBaseFetchErrorAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	builder := &IndexBuilder{Lister: listing.NewClient()}
	if _, err := builder.Build(baseOf(t, server)); err == nil {
		t.Fatal("Build() expected error when the base listing fails")
	}
}
