// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_audio

import "encoding/binary"

// FloatToPCM16 converts normalized float samples to 16-bit signed
// little-endian PCM. Samples are clamped to [-1, 1] before scaling so that
// out-of-range input never wraps.
func FloatToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*AudioBytesPerSample)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		var v int16
		if s < 0 {
			v = int16(s * 0x8000)
		} else {
			v = int16(s * 0x7FFF)
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}
