// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_type

import "fmt"

// ConfigurationError means a required credential or setting is missing for
// the selected mode. Surfaced immediately; blocks start.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// TransportError wraps a network/backend failure during streaming or stop
// acknowledgment.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PersistenceError means the primary save call failed or returned no
// identifier. Triggers fallback identity generation; does not by itself
// abort the remaining recovery steps.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// RecoveryStepError wraps a failure in notes hand-off, immediate save, or
// transcript construction. Captured and logged; recovery continues; the
// first such error is surfaced after all steps run.
type RecoveryStepError struct {
	Step string
	Err  error
}

func (e *RecoveryStepError) Error() string {
	return fmt.Sprintf("recovery step %q failed: %v", e.Step, e.Err)
}

func (e *RecoveryStepError) Unwrap() error { return e.Err }

// BackgroundTaskError wraps failures of fire-and-forget work (cloud sync,
// summary generation). Logged only, never surfaced to the caller.
type BackgroundTaskError struct {
	Task string
	Err  error
}

func (e *BackgroundTaskError) Error() string {
	return fmt.Sprintf("background task %q failed: %v", e.Task, e.Err)
}

func (e *BackgroundTaskError) Unwrap() error { return e.Err }
