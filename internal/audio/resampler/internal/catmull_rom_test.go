// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_resampler

import (
	"math"
	"testing"

	"github.com/rapidaai/scribe/pkg/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResampler(t *testing.T) *catmullRomResampler {
	r, err := NewCatmullRomResampler(commons.NewNopLogger())
	require.NoError(t, err)
	return r.(*catmullRomResampler)
}

func TestResample_IdentityReturnsSameSlice(t *testing.T) {
	r := newResampler(t)
	input := []float32{0.1, -0.2, 0.3, 0.9}

	for _, rate := range []uint32{8000, 16000, 44100, 48000} {
		out := r.Resample(input, rate, rate)
		assert.Equal(t, &input[0], &out[0], "identity resample must not copy")
		assert.Equal(t, input, out)
	}
}

func TestResample_OutputLength48kTo16k(t *testing.T) {
	r := newResampler(t)

	for _, n := range []int{3, 48, 480, 4800, 4801} {
		input := make([]float32, n)
		out := r.Resample(input, 48000, 16000)
		want := int(math.Round(float64(n) / 3.0))
		assert.Len(t, out, want, "input length %d", n)
	}
}

func TestResample_Upsample(t *testing.T) {
	r := newResampler(t)
	input := make([]float32, 160)
	out := r.Resample(input, 16000, 48000)
	assert.Len(t, out, 480)
}

func TestResample_ConstantSignalIsPreserved(t *testing.T) {
	r := newResampler(t)
	input := make([]float32, 300)
	for i := range input {
		input[i] = 0.5
	}

	out := r.Resample(input, 48000, 16000)
	for i, v := range out {
		assert.InDelta(t, 0.5, v, 1e-6, "sample %d", i)
	}
}

func TestResample_InterpolatesBetweenNeighbors(t *testing.T) {
	// A ramp passes through Catmull-Rom interpolation unchanged: the spline
	// reproduces linear segments exactly.
	r := newResampler(t)
	input := make([]float32, 90)
	for i := range input {
		input[i] = float32(i) / float32(len(input))
	}

	out := r.Resample(input, 48000, 16000)
	for i := 1; i < len(out)-1; i++ {
		srcIndex := float64(i) * 3.0
		want := float32(srcIndex) / float32(len(input))
		assert.InDelta(t, want, out[i], 1e-4, "sample %d", i)
	}
}

func TestResample_Deterministic(t *testing.T) {
	r := newResampler(t)
	input := []float32{0.0, 0.25, -0.5, 1.0, -1.0, 0.75, 0.1, -0.3}

	first := r.Resample(input, 48000, 16000)
	second := r.Resample(input, 48000, 16000)
	assert.Equal(t, first, second)
}

func TestResample_EmptyInput(t *testing.T) {
	r := newResampler(t)
	out := r.Resample(nil, 48000, 16000)
	assert.Empty(t, out)
}

func TestCatmullRom_MidpointFormula(t *testing.T) {
	// Hand-computed: y = [0, 1, 1, 0], t = 0.5 →
	// 0.5*(2*1 + (1-0)*0.5 + (0-5+4-0)*0.25 + (0+3-3+0)*0.125) = 1.125
	got := catmullRom(0, 1, 1, 0, 0.5)
	assert.InDelta(t, 1.125, got, 1e-6)
}
