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
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"testing/iotest"

	"github.com/OpenPSG/otb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// interleave packs samples as little-endian int16 in the order given, which
// for frame-major input produces the device's channel-interleaved layout.
func interleave(samples ...int16) []byte {
	buf := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(s))
	}
	return buf
}

func TestDecodeSamplesRoundTrip(t *testing.T) {
	// Three frames of three channels: frame-major input must come back out
	// as rows=time, columns=channel.
	stream := interleave(
		1, 2, 3,
		4, 5, 6,
		-7, 8, -9,
	)

	m, err := otb.DecodeSamples(bytes.NewReader(stream), 3)
	require.NoError(t, err)

	rows, cols := m.Dims()
	require.Equal(t, 3, rows)
	require.Equal(t, 3, cols)

	assert.Equal(t, 1.0, m.At(0, 0))
	assert.Equal(t, 2.0, m.At(0, 1))
	assert.Equal(t, 3.0, m.At(0, 2))
	assert.Equal(t, 4.0, m.At(1, 0))
	assert.Equal(t, -7.0, m.At(2, 0))
	assert.Equal(t, -9.0, m.At(2, 2))

	// Per-channel sequences reproduce the original interleave exactly.
	assert.Equal(t, []float64{2, 5, 8}, []float64{m.At(0, 1), m.At(1, 1), m.At(2, 1)})
}

func TestDecodeSamplesTruncatesPartialFrame(t *testing.T) {
	// Five samples over two channels: the fifth sample is a partial frame
	// and must be dropped, not surfaced as an error.
	stream := interleave(10, 20, 30, 40, 50)

	m, err := otb.DecodeSamples(bytes.NewReader(stream), 2)
	require.NoError(t, err)

	rows, cols := m.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, 40.0, m.At(1, 1))
}

func TestDecodeSamplesTruncatesOddByte(t *testing.T) {
	stream := append(interleave(1, 2, 3, 4), 0xff)

	m, err := otb.DecodeSamples(bytes.NewReader(stream), 2)
	require.NoError(t, err)

	rows, _ := m.Dims()
	assert.Equal(t, 2, rows)
}

func TestDecodeSamplesEmptyStream(t *testing.T) {
	_, err := otb.DecodeSamples(bytes.NewReader(nil), 4)
	require.ErrorIs(t, err, otb.ErrSampleIO)
}

func TestDecodeSamplesReadFailure(t *testing.T) {
	_, err := otb.DecodeSamples(iotest.ErrReader(errors.New("disk gone")), 4)
	require.ErrorIs(t, err, otb.ErrSampleIO)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestDecodeSamplesBadChannelCount(t *testing.T) {
	_, err := otb.DecodeSamples(bytes.NewReader(interleave(1, 2)), 0)
	require.ErrorIs(t, err, otb.ErrSampleIO)
}
