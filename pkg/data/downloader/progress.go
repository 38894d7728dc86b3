// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package downloader

import (
	"fmt"
	"io"

	"github.com/gomlx/cifar/pkg/support/fsutil"
	"github.com/schollz/progressbar/v3"
)

// ProgressBar returns a ProgressCallback that renders a progress bar to w.
// The bar is created on the first call, once the total size is known, and finished when the
// download completes.
func ProgressBar(w io.Writer) ProgressCallback {
	var bar *progressbar.ProgressBar
	return func(downloadedBytes, totalBytes int64) {
		if bar == nil {
			maxBytes := totalBytes
			if maxBytes <= 0 {
				maxBytes = -1 // Unknown length: spinner.
			}
			bar = progressbar.NewOptions64(maxBytes,
				progressbar.OptionSetWriter(w),
				progressbar.OptionSetDescription(fsutil.ByteCountIEC(totalBytes)),
				progressbar.OptionShowBytes(true),
				progressbar.OptionUseANSICodes(true),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetTheme(progressbar.ThemeUnicode),
				progressbar.OptionOnCompletion(func() { _, _ = fmt.Fprintln(w) }),
			)
		}
		_ = bar.Set64(downloadedBytes)
		if totalBytes > 0 && downloadedBytes >= totalBytes {
			_ = bar.Finish()
		}
	}
}

// PrintProgress returns a ProgressCallback that writes the completed fraction to w, overwriting
// the line each time, e.g. "- Download progress: 42.0%".
func PrintProgress(w io.Writer) ProgressCallback {
	return func(downloadedBytes, totalBytes int64) {
		if totalBytes <= 0 {
			_, _ = fmt.Fprintf(w, "\r- Downloaded: %s", fsutil.ByteCountIEC(downloadedBytes))
			return
		}
		_, _ = fmt.Fprintf(w, "\r- Download progress: %.1f%%", 100*Fraction(downloadedBytes, totalBytes))
	}
}

// Fraction of the download completed, in [0, 1]. It returns 0 if the total is unknown.
func Fraction(downloadedBytes, totalBytes int64) float64 {
	if totalBytes <= 0 {
		return 0
	}
	f := float64(downloadedBytes) / float64(totalBytes)
	if f > 1 {
		f = 1
	}
	return f
}
