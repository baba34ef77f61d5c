// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package otb

import "errors"

// Error kinds returned by the conversion pipeline. Every error surfaced by
// this package wraps exactly one of these sentinels, so callers can match the
// failing stage with errors.Is while the message carries the underlying
// cause. All failures are fatal to the conversion; there is no retry and no
// partial result.
var (
	// ErrExtraction reports an unreadable or malformed recording archive,
	// including archives missing the expected sample/metadata file pair.
	ErrExtraction = errors.New("archive extraction failed")

	// ErrMetadata reports missing, malformed or inconsistent fields in the
	// instrument configuration document, including a channel list that
	// contradicts the declared channel count.
	ErrMetadata = errors.New("invalid acquisition metadata")

	// ErrSampleIO reports a sample stream that cannot be opened or read.
	ErrSampleIO = errors.New("sample stream unreadable")

	// ErrCalibration reports gain or resolution metadata that would make the
	// digital-to-physical conversion divide by zero or silently mis-scale.
	ErrCalibration = errors.New("calibration parameters invalid")

	// ErrOutputExists reports that converted output files are already
	// present; the recording is left untouched to avoid overwriting them.
	ErrOutputExists = errors.New("converted output already exists")
)
