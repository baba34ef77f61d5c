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
	"os"
	"path/filepath"
	"testing"

	"github.com/OpenPSG/edf"
	"github.com/OpenPSG/otb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSaveEDFRoundTrip(t *testing.T) {
	rec := &otb.Recording{
		Data: mat.NewDense(4, 2, []float64{
			0, -10,
			1, -20,
			2, -30,
			3, -40,
		}),
		Labels: []string{"a", "b"},
		Channels: []otb.Channel{
			{Index: 0, ID: "R1C1", Prefix: "HD10MM", Muscle: "Biceps", Side: "Left", Gain: 150, HighPassFilter: 10, LowPassFilter: 500},
			{Index: 1, ID: "AUX1", Prefix: "AD2x8", Muscle: "Tibialis", Side: "Right", Gain: 500, HighPassFilter: 3, LowPassFilter: 900},
		},
		SourceFile:      "session01.otb+",
		SampleFrequency: 2,
		Time:            []float64{0, 0.5, 1, 1.5},
	}

	dir := t.TempDir()
	require.NoError(t, rec.SaveEDF(dir, "session01"))

	f, err := os.Open(filepath.Join(dir, "session01.edf"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, f.Close()) })

	er, err := edf.Open(f)
	require.NoError(t, err)

	sr, err := er.Signal(0)
	require.NoError(t, err)

	samples := make([]float64, 4)
	n, err := sr.Read(samples)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	// Re-digitizing over the channel's own physical range loses at most one
	// quantization step.
	for i, want := range []float64{0, 1, 2, 3} {
		assert.InDelta(t, want, samples[i], 1e-3)
	}

	sr, err = er.Signal(1)
	require.NoError(t, err)

	n, err = sr.Read(samples)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	for i, want := range []float64{-10, -20, -30, -40} {
		assert.InDelta(t, want, samples[i], 1e-2)
	}
}

func TestSaveEDFRefusesOverwrite(t *testing.T) {
	rec := &otb.Recording{
		Data:            mat.NewDense(1, 1, []float64{1}),
		Channels:        []otb.Channel{{ID: "R1C1", Gain: 1}},
		SampleFrequency: 512,
		Time:            []float64{0},
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session01.edf"), []byte("existing"), 0o644))

	err := rec.SaveEDF(dir, "session01")
	require.ErrorIs(t, err, otb.ErrOutputExists)
}
