package update

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
)

const (
	// stagingSuffix names the staging directory next to the final file.
	stagingSuffix = ".mopup-partial"

	// chunkSize is the fixed read size for streaming transfers.
	chunkSize = 8192
)

// Downloader streams a selected package into the downloads directory,
// publishing it under its final name only on full success. The final path
// is only ever observed absent or fully written: content is staged under a
// random name in a sibling staging directory and renamed into place (a
// same-filesystem rename) after the stream completes. Any failure removes
// the content file and the staging directory before returning.
type Downloader struct {
	// Dir is the downloads directory. The final file, and transiently
	// the staging directory, are created inside it.
	Dir string

	// Client is the HTTP client for transfers. The default carries
	// connect and header timeouts but no overall deadline, so a large
	// transfer is never cut off mid-stream.
	Client *http.Client

	// Quiet suppresses the progress bar.
	Quiet bool
}

// NewDownloader creates a downloader writing into dir.
func NewDownloader(dir string) *Downloader {
	return &Downloader{
		Dir: dir,
		Client: &http.Client{
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: 30 * time.Second}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
	}
}

// Download retrieves u into the downloads directory and returns the
// final path. The terminal filename is the last segment of u's path.
func (d *Downloader) Download(u *url.URL) (string, error) {
	basename := path.Base(u.Path)
	if basename == "." || basename == "/" {
		return "", fmt.Errorf("download %s: no filename in URL path", u)
	}
	finalPath := filepath.Join(d.Dir, basename)
	stagingDir := finalPath + stagingSuffix

	resp, err := d.Client.Get(u.String())
	if err != nil {
		return "", fmt.Errorf("download %s: %w", u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: unexpected status %d", u, resp.StatusCode)
	}

	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}
	contentPath := filepath.Join(stagingDir, uuid.NewString()+".content")

	if err := d.stream(resp, basename, contentPath); err != nil {
		d.rollback(contentPath, stagingDir)
		return "", err
	}

	if err := os.Rename(contentPath, finalPath); err != nil {
		d.rollback(contentPath, stagingDir)
		return "", fmt.Errorf("publish %s: %w", basename, err)
	}
	if err := os.Remove(stagingDir); err != nil {
		return "", fmt.Errorf("remove staging directory: %w", err)
	}

	return finalPath, nil
}

// stream copies the response body into the content file in fixed-size
// chunks, reporting progress as it goes.
func (d *Downloader) stream(resp *http.Response, basename, contentPath string) error {
	f, err := os.Create(contentPath)
	if err != nil {
		return fmt.Errorf("create content file: %w", err)
	}

	// A missing content-length only degrades progress reporting; the
	// bar falls back to counting bytes without a total.
	bar := d.newBar(resp.ContentLength, basename)

	buf := make([]byte, chunkSize)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				_ = f.Close()
				return fmt.Errorf("write content file: %w", werr)
			}
			_ = bar.Add(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			_ = f.Close()
			return fmt.Errorf("read download stream: %w", err)
		}
	}
	_ = bar.Finish()

	if err := f.Close(); err != nil {
		return fmt.Errorf("close content file: %w", err)
	}
	return nil
}

// rollback removes the partial content file and the staging directory.
// Best effort: a failure here must not mask the original error.
func (d *Downloader) rollback(contentPath, stagingDir string) {
	_ = os.Remove(contentPath)
	_ = os.Remove(stagingDir)
}

func (d *Downloader) newBar(total int64, basename string) *progressbar.ProgressBar {
	if d.Quiet {
		return progressbar.DefaultBytesSilent(total)
	}
	return progressbar.DefaultBytes(total, "Downloading "+basename)
}
