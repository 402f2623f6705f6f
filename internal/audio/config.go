// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_audio

// Config describes a PCM audio stream.
type Config struct {
	SampleRate uint32
	Channels   uint16
}

const (
	AudioBytesPerSample = 2  // LINEAR16 → 2 bytes per sample
	AudioBitsPerSample  = 16 // LINEAR16 → 16 bits per sample
	AudioPCMFormat      = 1  // WAV PCM format tag
)

// SCRIBE_INTERNAL_AUDIO_CONFIG is the canonical rate every speech backend
// consumes: 16kHz mono LINEAR16.
var SCRIBE_INTERNAL_AUDIO_CONFIG = Config{
	SampleRate: 16000,
	Channels:   1,
}

// CAPTURE_AUDIO_CONFIG is the rate microphone frames arrive at.
var CAPTURE_AUDIO_CONFIG = Config{
	SampleRate: 48000,
	Channels:   1,
}

// BytesPerSecond returns the LINEAR16 byte rate of c.
func (c Config) BytesPerSecond() int {
	return int(c.SampleRate) * int(c.Channels) * AudioBytesPerSample
}
