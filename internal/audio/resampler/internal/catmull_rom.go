// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_resampler

import (
	"math"

	internal_type "github.com/rapidaai/scribe/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
)

// catmullRomResampler converts frames between sample rates using Catmull-Rom
// cubic interpolation. Pure: no state is carried between calls.
type catmullRomResampler struct {
	logger commons.Logger
}

func NewCatmullRomResampler(logger commons.Logger) (internal_type.AudioResampler, error) {
	return &catmullRomResampler{logger: logger}, nil
}

// Resample converts input at sourceRate to a frame at targetRate. When the
// rates match the input slice is returned as-is, no copy.
func (r *catmullRomResampler) Resample(input []float32, sourceRate, targetRate uint32) []float32 {
	if sourceRate == targetRate {
		return input
	}
	if len(input) == 0 {
		return []float32{}
	}

	ratio := float64(sourceRate) / float64(targetRate)
	outLen := int(math.Round(float64(len(input)) / ratio))
	out := make([]float32, outLen)

	for i := 0; i < outLen; i++ {
		srcIndex := float64(i) * ratio
		idx := int(srcIndex)
		t := srcIndex - float64(idx)

		y0 := sampleAt(input, idx-1)
		y1 := sampleAt(input, idx)
		y2 := sampleAt(input, idx+1)
		y3 := sampleAt(input, idx+2)

		out[i] = catmullRom(y0, y1, y2, y3, t)
	}
	return out
}

// sampleAt reads input[i] with indices clamped to the array bounds.
func sampleAt(input []float32, i int) float64 {
	if i < 0 {
		i = 0
	} else if i >= len(input) {
		i = len(input) - 1
	}
	return float64(input[i])
}

// catmullRom evaluates the Catmull-Rom spline through y0..y3 at fractional
// position t in [0, 1) between y1 and y2.
func catmullRom(y0, y1, y2, y3, t float64) float32 {
	t2 := t * t
	t3 := t2 * t
	v := 0.5 * (2*y1 +
		(-y0+y2)*t +
		(2*y0-5*y1+4*y2-y3)*t2 +
		(-y0+3*y1-3*y2+y3)*t3)
	return float32(v)
}
