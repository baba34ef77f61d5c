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
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"

	"gonum.org/v1/gonum/mat"
)

// sampleSize is the width of one digital sample on the wire: a little-endian
// signed 16-bit integer, regardless of the A/D bit depth.
const sampleSize = 2

// DecodeSamples reads a headerless, channel-interleaved stream of 16-bit
// signed samples and reshapes it into a matrix with rows as time and columns
// as channels.
//
// Interleaved order means each frame holds one sample per channel before the
// next time step begins, so a row-major reshape with the channel count as
// the minor dimension yields the time-by-channel layout directly. Trailing
// bytes that do not fill a whole frame are dropped; this mirrors the
// fixed-width reshape the format was designed around and is deliberate, not
// an error.
func DecodeSamples(r io.Reader, channels int) (*mat.Dense, error) {
	if channels < 1 {
		return nil, fmt.Errorf("%w: channel count %d, want at least 1", ErrSampleIO, channels)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading sample stream: %w", ErrSampleIO, err)
	}

	samples := len(raw) / sampleSize
	rows := samples / channels
	if rows == 0 {
		return nil, fmt.Errorf("%w: stream of %d bytes holds no complete %d-channel frame",
			ErrSampleIO, len(raw), channels)
	}

	if dropped := len(raw) - rows*channels*sampleSize; dropped > 0 {
		slog.Warn("sample stream is not frame-aligned, dropping trailing bytes",
			"bytes", len(raw), "channels", channels, "dropped", dropped)
	}

	data := make([]float64, rows*channels)
	for i := range data {
		data[i] = float64(int16(binary.LittleEndian.Uint16(raw[i*sampleSize:])))
	}

	return mat.NewDense(rows, channels, data), nil
}
