// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package otb decodes OT Bioelettronica .otb+ recording archives into
// calibrated, unit-corrected datasets.
package otb

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// InputRange is the instrument input range in volts. This is a hard
// characteristic of the acquisition hardware, not a configurable parameter.
const InputRange = 5.0

// ArchiveExt is the file extension of a recording archive.
const ArchiveExt = ".otb+"

// AcquisitionInfo holds the global acquisition parameters of a recording.
type AcquisitionInfo struct {
	SampleFrequency float64 // Nominal sampling frequency in Hz
	ChannelCount    int     // Total number of physical channels
	ADBits          int     // A/D converter bit depth (usually 12 or 16)
}

// Channel describes a single physical channel. Gain and filter settings are
// inherited from the adapter the channel is attached to.
type Channel struct {
	Index          int    // Position within the device's channel ordering, 0-based
	ID             string // Channel identifier (e.g. electrode grid position)
	Prefix         string // Adapter-assigned label prefix
	Description    string // Free-form electrode description
	Muscle         string // Muscle the electrode is placed on
	Side           string // Body side of the electrode placement
	Gain           float64
	HighPassFilter float64 // High-pass corner frequency in Hz
	LowPassFilter  float64 // Low-pass corner frequency in Hz
}

// Label returns the channel's display label. Downstream tooling keys off
// this exact composition, so it must not change.
func (c Channel) Label() string {
	return fmt.Sprintf("%s - %s %s (%d)[µV]", c.Muscle, c.Prefix, c.ID, c.Index+1)
}

// Correction is the measured sampling rate for device configurations whose
// declared nominal rate is known to be imprecise. Known is false when no
// correction exists for the nominal rate; callers must not treat that as
// "equal to nominal".
type Correction struct {
	Rate  float64
	Known bool
}

// MarshalYAML writes the literal string "undefined" when no correction is
// known, so consumers cannot mistake an unknown rate for the nominal one.
func (c Correction) MarshalYAML() (interface{}, error) {
	if !c.Known {
		return "undefined", nil
	}
	return c.Rate, nil
}

// Recording is the final calibrated dataset produced by a conversion. It is
// assembled once and not mutated afterwards.
type Recording struct {
	Data                *mat.Dense // Rows are samples over time, columns are channels, values in µV
	Labels              []string   // Display label per channel, in column order
	Channels            []Channel  // Per-channel detail, in column order
	SourceFile          string     // Name of the source archive
	SampleFrequency     float64    // Nominal rate declared in the metadata document
	SampleFrequencyReal Correction // Corrected rate, or explicitly undefined
	Time                []float64  // Seconds since recording start, one entry per row
}
