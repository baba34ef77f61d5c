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
	"math"

	"gonum.org/v1/gonum/mat"
)

// correctedRates maps nominal sampling frequencies whose declared value is
// known to be imprecise to the device's measured rate. Rates not listed here
// have no known correction.
var correctedRates = map[float64]float64{
	2048:  2042.483,
	10240: 10212.4,
}

// CorrectedRate returns the measured sampling rate for the given nominal
// rate, or an unknown Correction when the device has no entry for it.
func CorrectedRate(nominal float64) Correction {
	if rate, ok := correctedRates[nominal]; ok {
		return Correction{Rate: rate, Known: true}
	}
	return Correction{}
}

// Calibrate converts the raw integer sample matrix into microvolts. For
// channel c the scale is InputRange / 2^adBits / gain[c], broadcast down the
// channel's column; the raw matrix is left untouched and a new matrix is
// returned.
//
// A zero bit depth or a non-positive gain is rejected before any scale is
// computed, so a recording with broken calibration metadata can never
// produce silently mis-scaled values.
func Calibrate(raw *mat.Dense, info AcquisitionInfo, channels []Channel) (*mat.Dense, error) {
	if info.ADBits <= 0 {
		return nil, fmt.Errorf("%w: A/D bit depth is %d", ErrCalibration, info.ADBits)
	}

	rows, cols := raw.Dims()
	if cols != len(channels) {
		return nil, fmt.Errorf("%w: matrix has %d columns but %d channel descriptors",
			ErrCalibration, cols, len(channels))
	}

	factors := make([]float64, cols)
	for i, ch := range channels {
		if ch.Gain <= 0 {
			return nil, fmt.Errorf("%w: channel %q has gain %v", ErrCalibration, ch.ID, ch.Gain)
		}
		// Volts per digital step, divided back through the hardware gain,
		// then volts to microvolts.
		factors[i] = InputRange / math.Pow(2, float64(info.ADBits)) / ch.Gain * 1e6
	}

	out := mat.NewDense(rows, cols, nil)
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			out.Set(r, c, raw.At(r, c)*factors[c])
		}
	}
	return out, nil
}

// TimeAxis derives per-row timestamps in seconds. The corrected rate is used
// when one is known for the device configuration, the nominal rate
// otherwise.
func TimeAxis(rows int, nominal float64, corrected Correction) []float64 {
	fs := nominal
	if corrected.Known {
		fs = corrected.Rate
	}

	t := make([]float64, rows)
	for i := range t {
		t[i] = float64(i) / fs
	}
	return t
}
