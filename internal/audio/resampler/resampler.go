// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_audio_resampler

import (
	internal_resampler "github.com/rapidaai/scribe/internal/audio/resampler/internal"
	internal_type "github.com/rapidaai/scribe/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
)

// GetResampler returns the resampler used for microphone-to-backend rate
// conversion.
func GetResampler(logger commons.Logger) (internal_type.AudioResampler, error) {
	return internal_resampler.NewCatmullRomResampler(logger)
}
