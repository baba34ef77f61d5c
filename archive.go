// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package otb

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// extractArchive unpacks the recording archive at path into dir. Archives
// are tar bundles, optionally gzip-compressed; compression is sniffed from
// the stream rather than the file name, matching the acquisition software's
// own tolerance.
func extractArchive(path, dir string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", ErrExtraction, filepath.Base(path), err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var stream io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return fmt.Errorf("%w: opening compressed stream in %s: %w", ErrExtraction, filepath.Base(path), err)
		}
		defer gz.Close()
		stream = gz
	}

	tr := tar.NewReader(stream)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: reading %s: %w", ErrExtraction, filepath.Base(path), err)
		}

		name := filepath.Clean(hdr.Name)
		if filepath.IsAbs(name) || name == ".." || strings.HasPrefix(name, ".."+string(os.PathSeparator)) {
			return fmt.Errorf("%w: entry %q escapes the extraction directory", ErrExtraction, hdr.Name)
		}
		dest := filepath.Join(dir, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return fmt.Errorf("%w: creating %s: %w", ErrExtraction, name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return fmt.Errorf("%w: creating %s: %w", ErrExtraction, name, err)
			}
			if err := writeEntry(dest, tr); err != nil {
				return fmt.Errorf("%w: extracting %s: %w", ErrExtraction, name, err)
			}
		default:
			slog.Debug("skipping archive entry", "name", hdr.Name, "type", hdr.Typeflag)
		}
	}
}

func writeEntry(dest string, r io.Reader) error {
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// findPair locates the sample file (.sig) and its companion metadata
// document (.xml) inside the extraction workspace. The archive must hold
// exactly one sample file, and the document must share its base name.
func findPair(dir string) (sigPath, xmlPath string, err error) {
	var sigs []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".sig") {
			sigs = append(sigs, path)
		}
		return nil
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: scanning extracted files: %w", ErrExtraction, err)
	}

	if len(sigs) != 1 {
		return "", "", fmt.Errorf("%w: archive holds %d sample files, want exactly 1", ErrExtraction, len(sigs))
	}

	sigPath = sigs[0]
	xmlPath = strings.TrimSuffix(sigPath, filepath.Ext(sigPath)) + ".xml"
	if _, err := os.Stat(xmlPath); err != nil {
		return "", "", fmt.Errorf("%w: no metadata document for %s: %w", ErrExtraction, filepath.Base(sigPath), err)
	}
	return sigPath, xmlPath, nil
}
