// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package otb_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/OpenPSG/otb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeArchive builds a recording archive holding the given entries.
func writeArchive(t *testing.T, path string, entries map[string][]byte, compress bool) {
	t.Helper()

	var buf bytes.Buffer
	var sink io.Writer = &buf

	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(&buf)
		sink = gz
	}

	tw := tar.NewWriter(sink)
	for name, body := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(body)),
		}))
		_, err := tw.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	if gz != nil {
		require.NoError(t, gz.Close())
	}

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestConvertPlainAndCompressedArchives(t *testing.T) {
	doc := deviceXML(`SampleFrequency="512" DeviceTotalChannels="4" ad_bits="16"`)
	sig := interleave(1, 2, 3, 4)

	for name, compress := range map[string]bool{"plain": false, "gzip": true} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeArchive(t, filepath.Join(dir, "session.otb+"), map[string][]byte{
				"session.sig": sig,
				"session.xml": []byte(doc),
			}, compress)

			rec, err := otb.Convert(otb.Options{InputDir: dir, InputFile: "session.otb+"})
			require.NoError(t, err)

			rows, cols := rec.Data.Dims()
			assert.Equal(t, 1, rows)
			assert.Equal(t, 4, cols)
		})
	}
}

func TestConvertRejectsCorruptArchive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.otb+"), []byte("not a tar file at all"), 0o644))

	_, err := otb.Convert(otb.Options{InputDir: dir, InputFile: "broken.otb+"})
	require.ErrorIs(t, err, otb.ErrExtraction)
}

func TestConvertRejectsEscapingEntry(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, filepath.Join(dir, "evil.otb+"), map[string][]byte{
		"../evil.sig": interleave(1),
	}, false)

	_, err := otb.Convert(otb.Options{InputDir: dir, InputFile: "evil.otb+"})
	require.ErrorIs(t, err, otb.ErrExtraction)
}

func TestConvertRejectsMissingMetadata(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, filepath.Join(dir, "session.otb+"), map[string][]byte{
		"session.sig": interleave(1, 2),
	}, false)

	_, err := otb.Convert(otb.Options{InputDir: dir, InputFile: "session.otb+"})
	require.ErrorIs(t, err, otb.ErrExtraction)
}

func TestConvertRejectsAmbiguousSampleFiles(t *testing.T) {
	doc := deviceXML(`SampleFrequency="512" DeviceTotalChannels="4" ad_bits="16"`)

	dir := t.TempDir()
	writeArchive(t, filepath.Join(dir, "session.otb+"), map[string][]byte{
		"a.sig":       interleave(1, 2, 3, 4),
		"b.sig":       interleave(1, 2, 3, 4),
		"session.xml": []byte(doc),
	}, false)

	_, err := otb.Convert(otb.Options{InputDir: dir, InputFile: "session.otb+"})
	require.ErrorIs(t, err, otb.ErrExtraction)
}
