// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package downloader

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Extract unpacks the zip or gzip-tarball archive into dir, chosen by the archive's file suffix.
//
// Entries that would be written outside of dir are rejected.
func Extract(archivePath, dir string) error {
	switch {
	case isZip(archivePath):
		return Unzip(archivePath, dir)
	case isTarGz(archivePath):
		return Untar(archivePath, dir)
	default:
		return errors.Errorf("unknown archive type for %q: only .zip, .tar.gz and .tgz are supported", archivePath)
	}
}

// Untar extracts a gzip compressed tarball into dir.
func Untar(tarFile, dir string) error {
	f, err := os.Open(tarFile)
	if err != nil {
		return errors.Wrapf(err, "failed to open %q", tarFile)
	}
	defer func() { _ = f.Close() }()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "failed to un-gzip %q", tarFile)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "while reading tar %q", tarFile)
		}
		target, err := safeJoin(dir, header.Name)
		if err != nil {
			return errors.WithMessagef(err, "untar %q", tarFile)
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err = os.MkdirAll(target, 0777); err != nil {
				return errors.Wrapf(err, "failed to create directory %q", target)
			}
		case tar.TypeReg:
			if err = writeFile(target, tr, header.FileInfo().Mode()); err != nil {
				return errors.WithMessagef(err, "untar %q", tarFile)
			}
		default:
			klog.V(2).Infof("untar %q: skipping entry %q of type %c", tarFile, header.Name, header.Typeflag)
		}
	}
	return nil
}

// Unzip extracts the zip file into dir.
func Unzip(zipFile, dir string) error {
	zr, err := zip.OpenReader(zipFile)
	if err != nil {
		return errors.Wrapf(err, "failed to open zip %q", zipFile)
	}
	defer func() { _ = zr.Close() }()

	for _, entry := range zr.File {
		target, err := safeJoin(dir, entry.Name)
		if err != nil {
			return errors.WithMessagef(err, "unzip %q", zipFile)
		}
		if entry.FileInfo().IsDir() {
			if err = os.MkdirAll(target, 0777); err != nil {
				return errors.Wrapf(err, "failed to create directory %q", target)
			}
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return errors.Wrapf(err, "unzip %q: failed to open entry %q", zipFile, entry.Name)
		}
		err = writeFile(target, rc, entry.Mode())
		_ = rc.Close()
		if err != nil {
			return errors.WithMessagef(err, "unzip %q", zipFile)
		}
	}
	return nil
}

// safeJoin joins name to dir, failing if the result escapes dir.
func safeJoin(dir, name string) (string, error) {
	target := filepath.Join(dir, name)
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("archive entry %q escapes the target directory %q", name, dir)
	}
	return target, nil
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0777); err != nil {
		return errors.Wrapf(err, "failed to create directory for %q", target)
	}
	perm := mode.Perm()
	if perm == 0 {
		perm = 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return errors.Wrapf(err, "failed creating %q", target)
	}
	if _, err = io.Copy(out, r); err != nil {
		_ = out.Close()
		return errors.Wrapf(err, "failed writing %q", target)
	}
	return errors.Wrapf(out.Close(), "failed closing %q", target)
}
