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
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

// deviceDocument mirrors the instrument configuration document bundled with
// every recording. Global acquisition parameters are attributes on the root
// element; channels hang off a two-level Adapter/Channel hierarchy where the
// adapter carries the gain and filter settings shared by its channels.
//
// Attributes are kept as strings so that "absent" and "malformed" can be
// told apart when resolving.
type deviceDocument struct {
	XMLName         xml.Name      `xml:"Device"`
	SampleFrequency string        `xml:"SampleFrequency,attr"`
	TotalChannels   string        `xml:"DeviceTotalChannels,attr"`
	ADBits          string        `xml:"ad_bits,attr"`
	Adapters        []adapterNode `xml:"Channels>Adapter"`
}

type adapterNode struct {
	Gain           string        `xml:"Gain,attr"`
	HighPassFilter string        `xml:"HighPassFilter,attr"`
	LowPassFilter  string        `xml:"LowPassFilter,attr"`
	Channels       []channelNode `xml:"Channel"`
}

type channelNode struct {
	ID          string `xml:"ID,attr"`
	Prefix      string `xml:"Prefix,attr"`
	Description string `xml:"Description,attr"`
	Muscle      string `xml:"Muscle,attr"`
	Side        string `xml:"Side,attr"`
	Index       string `xml:"Index,attr"`
}

// ParseMetadata reads the instrument configuration document and resolves it
// into the global acquisition parameters and the flat, ordered channel list.
//
// Adapters are walked in document order and channels within each adapter in
// document order; the resulting sequence order is the column order of the
// sample matrix. Each channel inherits gain and filter settings from its
// parent adapter. The sequence length must match DeviceTotalChannels.
func ParseMetadata(r io.Reader) (AcquisitionInfo, []Channel, error) {
	var doc deviceDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return AcquisitionInfo{}, nil, fmt.Errorf("%w: decoding device document: %w", ErrMetadata, err)
	}

	info, err := resolveInfo(&doc)
	if err != nil {
		return AcquisitionInfo{}, nil, err
	}

	channels, err := resolveChannels(&doc)
	if err != nil {
		return AcquisitionInfo{}, nil, err
	}
	if len(channels) != info.ChannelCount {
		return AcquisitionInfo{}, nil, fmt.Errorf("%w: document declares %d channels but lists %d",
			ErrMetadata, info.ChannelCount, len(channels))
	}

	return info, channels, nil
}

func resolveInfo(doc *deviceDocument) (AcquisitionInfo, error) {
	fs, err := requiredNumber("SampleFrequency", doc.SampleFrequency)
	if err != nil {
		return AcquisitionInfo{}, err
	}

	count, err := requiredInt("DeviceTotalChannels", doc.TotalChannels)
	if err != nil {
		return AcquisitionInfo{}, err
	}
	if count < 1 {
		return AcquisitionInfo{}, fmt.Errorf("%w: DeviceTotalChannels is %d, want at least 1", ErrMetadata, count)
	}

	// ad_bits may legitimately be absent; the calibration stage rejects a
	// zero bit depth before any scaling happens.
	adBits, err := optionalInt("ad_bits", doc.ADBits)
	if err != nil {
		return AcquisitionInfo{}, err
	}

	return AcquisitionInfo{
		SampleFrequency: fs,
		ChannelCount:    count,
		ADBits:          adBits,
	}, nil
}

func resolveChannels(doc *deviceDocument) ([]Channel, error) {
	var channels []Channel
	for _, adapter := range doc.Adapters {
		gain, err := optionalNumber("Adapter Gain", adapter.Gain)
		if err != nil {
			return nil, err
		}
		highPass, err := optionalNumber("Adapter HighPassFilter", adapter.HighPassFilter)
		if err != nil {
			return nil, err
		}
		lowPass, err := optionalNumber("Adapter LowPassFilter", adapter.LowPassFilter)
		if err != nil {
			return nil, err
		}

		for _, ch := range adapter.Channels {
			index, err := requiredInt("Channel Index", ch.Index)
			if err != nil {
				return nil, err
			}

			channels = append(channels, Channel{
				Index:          index,
				ID:             ch.ID,
				Prefix:         ch.Prefix,
				Description:    ch.Description,
				Muscle:         ch.Muscle,
				Side:           ch.Side,
				Gain:           gain,
				HighPassFilter: highPass,
				LowPassFilter:  lowPass,
			})
		}
	}
	return channels, nil
}

func requiredNumber(name, raw string) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: required attribute %s is missing", ErrMetadata, name)
	}
	return optionalNumber(name, raw)
}

func optionalNumber(name, raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: attribute %s is not numeric: %q", ErrMetadata, name, raw)
	}
	return v, nil
}

func requiredInt(name, raw string) (int, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: required attribute %s is missing", ErrMetadata, name)
	}
	return optionalInt(name, raw)
}

func optionalInt(name, raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: attribute %s is not an integer: %q", ErrMetadata, name, raw)
	}
	return v, nil
}
