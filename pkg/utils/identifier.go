// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// NewSessionID returns a fresh identifier for a recording session.
func NewSessionID() string {
	return uuid.New().String()
}

// NewFallbackSessionID returns a locally generated identifier used to anchor
// dependent writes when the persistence layer failed to supply one. The
// prefix makes locally minted ids recognisable in stored data.
func NewFallbackSessionID() string {
	return fmt.Sprintf("local-%s", uuid.New().String())
}
