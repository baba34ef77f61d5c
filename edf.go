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
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/OpenPSG/edf"
	"gonum.org/v1/gonum/mat"
)

// maxRecordBytes is the data record size cap recommended by the EDF
// standard.
const maxRecordBytes = 61440

// SaveEDF persists the recording as <name>.edf in dir. An existing file is
// never overwritten.
func (r *Recording) SaveEDF(dir, name string) error {
	path := filepath.Join(dir, name+".edf")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrOutputExists, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	if err := r.WriteEDF(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteEDF re-digitizes the calibrated matrix into an EDF container. Each
// channel becomes one EDF signal calibrated over its own physical range;
// record length targets one second of data but shrinks to honor the EDF
// record size cap for high channel counts. A trailing partial record is
// dropped.
func (r *Recording) WriteEDF(w io.WriteSeeker) error {
	rows, cols := r.Data.Dims()
	if rows == 0 || cols == 0 {
		return fmt.Errorf("recording holds no samples")
	}

	fs := r.SampleFrequency
	if r.SampleFrequencyReal.Known {
		fs = r.SampleFrequencyReal.Rate
	}

	recSamples := int(fs)
	if max := maxRecordBytes / 2 / cols; recSamples > max {
		recSamples = max
	}
	if recSamples < 1 {
		recSamples = 1
	}

	columns := make([][]float64, cols)
	for c := range columns {
		columns[c] = mat.Col(nil, c, r.Data)
	}

	signals := make([]edf.Signal, cols)
	for i, ch := range r.Channels {
		col := columns[i]
		pmin, pmax := col[0], col[0]
		for _, v := range col {
			pmin = math.Min(pmin, v)
			pmax = math.Max(pmax, v)
		}
		if pmin == pmax {
			// EDF calibration needs a nonzero physical span.
			pmax = pmin + 1
		}

		signals[i] = edf.Signal{
			Label:             fmt.Sprintf("%s %s", ch.Prefix, ch.ID),
			TransducerType:    fmt.Sprintf("%s %s", ch.Muscle, ch.Side),
			PhysicalDimension: "uV",
			PhysicalMin:       pmin,
			PhysicalMax:       pmax,
			DigitalMin:        -32768,
			DigitalMax:        32767,
			Prefiltering:      fmt.Sprintf("HP:%gHz LP:%gHz", ch.HighPassFilter, ch.LowPassFilter),
			SamplesPerRecord:  recSamples,
		}
	}

	hdr := edf.Header{
		Version:            edf.Version0,
		PatientID:          "X",
		RecordingID:        r.SourceFile,
		StartTime:          time.Now().UTC(),
		DataRecordDuration: time.Duration(float64(recSamples) / fs * float64(time.Second)),
		SignalCount:        cols,
		Signals:            signals,
	}

	ew, err := edf.Create(w, hdr)
	if err != nil {
		return fmt.Errorf("creating EDF container: %w", err)
	}

	records := rows / recSamples
	if dropped := rows - records*recSamples; dropped > 0 {
		slog.Debug("dropping trailing partial EDF record", "rows", dropped)
	}

	chunk := make([][]float64, cols)
	for rec := 0; rec < records; rec++ {
		start := rec * recSamples
		for c := 0; c < cols; c++ {
			chunk[c] = columns[c][start : start+recSamples]
		}
		if err := ew.WriteRecord(chunk); err != nil {
			return fmt.Errorf("writing EDF record %d: %w", rec, err)
		}
	}

	return ew.Close()
}
