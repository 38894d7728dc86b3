// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package downloader fetches a dataset archive into a local directory, if it is not there yet,
// and extracts it.
//
// Fetching is idempotent: if the target file already exists nothing is done, and it is assumed
// the archive was already extracted. There is no retry: a download is tried once.
package downloader

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gomlx/cifar/pkg/support/fsutil"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Doer executes an HTTP request. *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ProgressCallback is called as the download progresses, with the number of bytes downloaded so far
// and the total expected. totalBytes is <= 0 if the server didn't report the size.
//
// It is purely observational.
type ProgressCallback func(downloadedBytes, totalBytes int64)

// Fetcher downloads and extracts archives. Create it with New.
type Fetcher struct {
	client    Doer
	progress  ProgressCallback
	checkHash string
}

// New creates a Fetcher using a default http.Client, no progress reporting and no checksum.
func New() *Fetcher {
	return &Fetcher{client: newHTTPClient()}
}

func newHTTPClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(r *http.Request, via []*http.Request) error {
			r.URL.Opaque = r.URL.Path
			return nil
		},
	}
}

// WithClient sets the client used to issue the requests. Use it to set timeouts or a transport.
func (f *Fetcher) WithClient(client Doer) *Fetcher {
	f.client = client
	return f
}

// WithTimeout sets a timeout for the whole download, using a default http.Client.
// It replaces any client set with WithClient. A zero timeout means no timeout.
func (f *Fetcher) WithTimeout(timeout time.Duration) *Fetcher {
	client := newHTTPClient()
	client.Timeout = timeout
	f.client = client
	return f
}

// WithProgress sets the callback used to report download progress.
// See ProgressBar and PrintProgress for ready-made callbacks.
func (f *Fetcher) WithProgress(callback ProgressCallback) *Fetcher {
	f.progress = callback
	return f
}

// WithChecksum sets the sha256 (hex encoded) that a freshly downloaded file must match.
// Files already present are never verified.
func (f *Fetcher) WithChecksum(sha256Hex string) *Fetcher {
	f.checkHash = sha256Hex
	return f
}

// FileNameFromURL returns the last element of the URL path, used as the local file name.
func FileNameFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse url %q", rawURL)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", errors.Errorf("url %q has no file name", rawURL)
	}
	return name, nil
}

// FetchIfMissing downloads the file at url into dir, using the url's file name, and extracts it if
// it is a zip or gzip-tarball archive.
//
// If the file is already in dir, nothing is done and fetched is false: it assumes the archive was
// previously extracted.
func (f *Fetcher) FetchIfMissing(ctx context.Context, rawURL, dir string) (fetched bool, err error) {
	dir, err = fsutil.ReplaceTildeInDir(dir)
	if err != nil {
		return false, err
	}
	fileName, err := FileNameFromURL(rawURL)
	if err != nil {
		return false, err
	}
	filePath := filepath.Join(dir, fileName)
	exists, err := fsutil.FileExists(filePath)
	if err != nil {
		return false, err
	}
	if exists {
		klog.Infof("Data has apparently already been downloaded and unpacked in %q.", dir)
		return false, nil
	}

	if err = os.MkdirAll(dir, 0777); err != nil {
		return false, errors.Wrapf(err, "failed to create the directory %q", dir)
	}
	klog.Infof("Downloading %s ...", rawURL)
	size, err := f.Download(ctx, rawURL, filePath)
	if err != nil {
		return false, err
	}
	klog.Infof("Download finished (%s). Extracting files.", fsutil.ByteCountIEC(size))
	if f.checkHash != "" {
		if err = fsutil.ValidateChecksum(filePath, f.checkHash); err != nil {
			return false, err
		}
	}
	if IsArchive(fileName) {
		if err = Extract(filePath, dir); err != nil {
			// Otherwise the next call would take the broken archive as already downloaded.
			if rmErr := os.Remove(filePath); rmErr != nil {
				klog.Warningf("Failed to remove archive %q after failed extraction: %v", filePath, rmErr)
			}
			return false, err
		}
	}
	klog.Infof("Done.")
	return true, nil
}

// Download file from url and save it at the given path.
//
// The contents are first written to "<filePath>.part" and only renamed to filePath once complete,
// so an interrupted download is never mistaken for a finished one.
func (f *Fetcher) Download(ctx context.Context, rawURL, filePath string) (size int64, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, errors.Wrapf(err, "failed creating request for %q", rawURL)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, errors.Wrapf(err, "failed downloading %q", rawURL)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return 0, errors.Errorf("failed downloading %q: bad status code %d (%s)", rawURL, resp.StatusCode, resp.Status)
	}

	partPath := filePath + ".part"
	file, err := os.Create(partPath)
	if err != nil {
		return 0, errors.Wrapf(err, "failed creating file %q", partPath)
	}
	defer func() {
		if err != nil {
			_ = file.Close()
			if e2 := os.Remove(partPath); e2 != nil && !os.IsNotExist(e2) {
				klog.Warningf("Failed to remove partial download %q: %v", partPath, e2)
			}
		}
	}()

	var w io.Writer = file
	if f.progress != nil {
		w = &progressWriter{w: file, total: resp.ContentLength, callback: f.progress}
		f.progress(0, resp.ContentLength)
	}
	size, err = io.Copy(w, resp.Body)
	if err != nil {
		err = errors.Wrapf(err, "downloading %q to %q", rawURL, partPath)
		return 0, err
	}
	if err = file.Close(); err != nil {
		err = errors.Wrapf(err, "failed closing %q", partPath)
		return 0, err
	}
	if err = os.Rename(partPath, filePath); err != nil {
		err = errors.Wrapf(err, "failed to move %q to %q", partPath, filePath)
		return 0, err
	}
	return size, nil
}

// progressWriter forwards writes while reporting the running total.
type progressWriter struct {
	w              io.Writer
	total, written int64
	callback       ProgressCallback
}

// Write implements io.Writer.
func (p *progressWriter) Write(b []byte) (n int, err error) {
	n, err = p.w.Write(b)
	p.written += int64(n)
	p.callback(p.written, p.total)
	return
}

// IsArchive returns whether the file name has one of the supported archive suffixes:
// ".zip", ".tar.gz" or ".tgz".
func IsArchive(fileName string) bool {
	return isZip(fileName) || isTarGz(fileName)
}

func isZip(fileName string) bool {
	return strings.HasSuffix(strings.ToLower(fileName), ".zip")
}

func isTarGz(fileName string) bool {
	lower := strings.ToLower(fileName)
	return strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz")
}
