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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options controls a single conversion.
type Options struct {
	InputDir   string // Directory holding the recording archive
	InputFile  string // Archive file name (e.g. "session01.otb+")
	OutputDir  string // Defaults to InputDir
	OutputFile string // Base name for converted files; defaults to InputFile without its extension
	Save       bool   // When false the recording is returned without persisting anything
}

func (o *Options) setDefaults() {
	if o.OutputDir == "" {
		o.OutputDir = o.InputDir
	}
	if o.OutputFile == "" {
		o.OutputFile = strings.TrimSuffix(o.InputFile, filepath.Ext(o.InputFile))
	}
}

// Convert runs the full decode-and-calibrate pipeline on one recording
// archive: extract, resolve metadata, decode the sample stream, scale into
// microvolts and assemble the result. When opts.Save is set the recording is
// also persisted next to the archive (see Recording.SaveTo).
//
// The stages run strictly in sequence; each depends on the previous one's
// output. The extraction workspace is a temporary directory owned by this
// invocation and is removed on every exit path.
func Convert(opts Options) (*Recording, error) {
	opts.setDefaults()

	if opts.Save {
		if err := checkOutputs(opts.OutputDir, opts.OutputFile); err != nil {
			return nil, err
		}
	}

	workDir, err := os.MkdirTemp("", "otb-")
	if err != nil {
		return nil, fmt.Errorf("%w: creating extraction workspace: %w", ErrExtraction, err)
	}
	defer os.RemoveAll(workDir)

	archivePath := filepath.Join(opts.InputDir, opts.InputFile)
	slog.Debug("extracting recording archive", "archive", archivePath, "workspace", workDir)
	if err := extractArchive(archivePath, workDir); err != nil {
		return nil, err
	}

	sigPath, xmlPath, err := findPair(workDir)
	if err != nil {
		return nil, err
	}

	doc, err := os.Open(xmlPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening device document: %w", ErrMetadata, err)
	}
	info, channels, err := ParseMetadata(doc)
	doc.Close()
	if err != nil {
		return nil, err
	}
	slog.Debug("resolved acquisition metadata",
		"channels", info.ChannelCount, "sample_frequency", info.SampleFrequency, "ad_bits", info.ADBits)

	stream, err := os.Open(sigPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrSampleIO, filepath.Base(sigPath), err)
	}
	raw, err := DecodeSamples(stream, info.ChannelCount)
	stream.Close()
	if err != nil {
		return nil, err
	}

	data, err := Calibrate(raw, info, channels)
	if err != nil {
		return nil, err
	}

	corrected := CorrectedRate(info.SampleFrequency)
	rows, _ := data.Dims()

	labels := make([]string, len(channels))
	for i, ch := range channels {
		labels[i] = ch.Label()
	}

	rec := &Recording{
		Data:                data,
		Labels:              labels,
		Channels:            channels,
		SourceFile:          opts.InputFile,
		SampleFrequency:     info.SampleFrequency,
		SampleFrequencyReal: corrected,
		Time:                TimeAxis(rows, info.SampleFrequency, corrected),
	}
	slog.Info("recording decoded", "source", opts.InputFile, "rows", rows, "channels", len(channels))

	if opts.Save {
		if err := rec.SaveTo(opts.OutputDir, opts.OutputFile); err != nil {
			return nil, err
		}
	}
	return rec, nil
}
