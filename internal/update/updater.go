// Package update implements release discovery, candidate selection, and
// the crash-safe download of python.org installer packages.
package update

import (
	"fmt"
	"io"
	"net/url"
)

// Options control a single update run.
type Options struct {
	Interactive  bool // hand off to the graphical installer
	Force        bool // download and install even when no update is needed
	MinorUpgrade bool // allow upgrading to a newer minor line
	DryRun       bool // detect only; never download or install
}

// PackageInstaller hands a downloaded package to the system installer.
type PackageInstaller interface {
	InstallInteractive(pkgPath string) error
	InstallUnattended(pkgPath string) error
}

// Result summarizes a completed run.
type Result struct {
	Installed    *Version
	Candidate    *Candidate
	UpdateNeeded bool
	DownloadPath string // empty when nothing was downloaded
	InstallRun   bool
}

// Updater sequences one update run: build the index, select a candidate,
// download it, and hand it to the installer.
type Updater struct {
	Builder    *IndexBuilder
	Downloader *Downloader
	Installer  PackageInstaller

	// Confirm gates the unattended install, which runs sudo. A nil
	// Confirm proceeds without asking.
	Confirm func(format string, args ...interface{}) bool

	Out io.Writer
}

// Run performs one update pass. The installed version and host OS version
// are passed in explicitly so the run is reproducible and testable.
func (u *Updater) Run(baseURL *url.URL, installed *Version, hostOS PlatformTag, opts Options) (*Result, error) {
	// Scope the crawl to folders the selector could ever accept; one
	// fetch per folder adds up over a couple hundred release lines.
	u.Builder.Filter = func(major, minor, _ int) bool {
		if major != installed.Major {
			return false
		}
		if !opts.MinorUpgrade && minor != installed.Minor {
			return false
		}
		return true
	}

	index, err := u.Builder.Build(baseURL)
	if err != nil {
		return nil, fmt.Errorf("discover releases: %w", err)
	}

	candidate, err := Select(index, installed, hostOS, SelectOptions{MinorUpgrade: opts.MinorUpgrade})
	if err != nil {
		return nil, err
	}

	result := &Result{
		Installed:    installed,
		Candidate:    candidate,
		UpdateNeeded: candidate.Version.IsGreaterThan(installed),
	}

	fmt.Fprintf(u.Out, "this version: %s; new version: %s\n", installed, candidate.Version)
	if result.UpdateNeeded {
		fmt.Fprintf(u.Out, "update needed from %s\n", candidate.URL)
	} else {
		fmt.Fprintf(u.Out, "update not needed from %s\n", candidate.URL)
	}

	if opts.DryRun || !(result.UpdateNeeded || opts.Force) {
		return result, nil
	}

	pkgPath, err := u.Downloader.Download(candidate.URL)
	if err != nil {
		return nil, err
	}
	result.DownloadPath = pkgPath

	if opts.Interactive {
		if err := u.Installer.InstallInteractive(pkgPath); err != nil {
			return nil, err
		}
	} else {
		if u.Confirm != nil && !u.Confirm("Install %s now?", candidate.Version) {
			fmt.Fprintln(u.Out, "Skipping installation.")
			return result, nil
		}
		if err := u.Installer.InstallUnattended(pkgPath); err != nil {
			return nil, err
		}
	}
	result.InstallRun = true

	fmt.Fprintln(u.Out, "Complete.")
	return result, nil
}
