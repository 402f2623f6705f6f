// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package utils

// AverageFloat32 returns the arithmetic mean of the slice, 0 for empty input.
func AverageFloat32(values []float32) float32 {
	if len(values) == 0 {
		return 0
	}
	var sum float32
	for _, v := range values {
		sum += v
	}
	return sum / float32(len(values))
}

// AbsFloat32 returns the absolute value of v.
func AbsFloat32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
