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
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// recordingHeader is the YAML document written alongside the data matrix.
type recordingHeader struct {
	SourceFile            string          `yaml:"source_file"`
	SamplingFrequency     float64         `yaml:"sampling_frequency"`
	SamplingFrequencyReal Correction      `yaml:"sampling_frequency_real"`
	Description           []string        `yaml:"description"`
	Details               []channelDetail `yaml:"details"`
}

type channelDetail struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	Muscle      string `yaml:"muscle"`
	Side        string `yaml:"side"`
}

// checkOutputs fails when converted files already exist for the given base
// name, so a recording is never silently reprocessed over its own output.
func checkOutputs(dir, name string) error {
	for _, path := range outputPaths(dir, name) {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrOutputExists, path)
		}
	}
	return nil
}

func outputPaths(dir, name string) []string {
	return []string{
		filepath.Join(dir, name+".yaml"),
		filepath.Join(dir, name+".csv"),
	}
}

// SaveTo persists the recording: channel headers to <name>.yaml and the
// calibrated data matrix, with the time axis appended as the last column, to
// <name>.csv. Existing output files are never overwritten.
func (r *Recording) SaveTo(dir, name string) error {
	if err := checkOutputs(dir, name); err != nil {
		return err
	}
	paths := outputPaths(dir, name)

	details := make([]channelDetail, len(r.Channels))
	for i, ch := range r.Channels {
		desc := ch.Prefix
		if ch.Description != "" {
			desc += " " + ch.Description
		}
		details[i] = channelDetail{
			ID:          ch.ID,
			Description: desc,
			Muscle:      ch.Muscle,
			Side:        ch.Side,
		}
	}

	hdr := recordingHeader{
		SourceFile:            r.SourceFile,
		SamplingFrequency:     r.SampleFrequency,
		SamplingFrequencyReal: r.SampleFrequencyReal,
		Description:           r.Labels,
		Details:               details,
	}
	buf, err := yaml.Marshal(&hdr)
	if err != nil {
		return fmt.Errorf("encoding recording header: %w", err)
	}
	if err := os.WriteFile(paths[0], buf, 0o644); err != nil {
		return fmt.Errorf("writing recording header: %w", err)
	}

	if err := r.writeCSV(paths[1]); err != nil {
		return fmt.Errorf("writing data matrix: %w", err)
	}
	return nil
}

func (r *Recording) writeCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	rows, cols := r.Data.Dims()
	record := make([]string, cols+1)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			record[j] = strconv.FormatFloat(r.Data.At(i, j), 'g', -1, 64)
		}
		record[cols] = strconv.FormatFloat(r.Time[i], 'g', -1, 64)
		if err := w.Write(record); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
