// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package utils

import "fmt"

// Option is a loosely typed options bag passed through component factories.
// Keys are dotted paths, e.g. "listen.language".
type Option map[string]interface{}

// GetString returns the string value for key, or an error when missing or of
// another type.
func (o Option) GetString(key string) (string, error) {
	v, ok := o[key]
	if !ok {
		return "", fmt.Errorf("option %q not set", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("option %q is not a string", key)
	}
	return s, nil
}

// GetBool returns the bool value for key, or fallback when missing or of
// another type.
func (o Option) GetBool(key string, fallback bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

// GetInt returns the int value for key, or fallback when missing. Float
// values coming from decoded JSON are truncated.
func (o Option) GetInt(key string, fallback int) int {
	switch v := o[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}
