// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_speech_simulated

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	internal_type "github.com/rapidaai/scribe/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventSink struct {
	mu     sync.Mutex
	events []internal_type.TranscriptEvent
}

func (s *eventSink) push(ev internal_type.TranscriptEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *eventSink) finals() []internal_type.TranscriptEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []internal_type.TranscriptEvent
	for _, ev := range s.events {
		if ev.IsFinal {
			out = append(out, ev)
		}
	}
	return out
}

func waitFor(t *testing.T, cond func() bool, within time.Duration) {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestStart_ReturnsPrefixedSessionID(t *testing.T) {
	svc := NewSpeechService(commons.NewNopLogger(), WithEventInterval(time.Hour))
	id, err := svc.Start(context.Background())
	require.NoError(t, err)
	defer func() { _ = svc.Stop(id) }()

	assert.True(t, strings.HasPrefix(id, "sim-"))
}

func TestStart_SecondSessionRejected(t *testing.T) {
	svc := NewSpeechService(commons.NewNopLogger(), WithEventInterval(time.Hour))
	id, err := svc.Start(context.Background())
	require.NoError(t, err)
	defer func() { _ = svc.Stop(id) }()

	_, err = svc.Start(context.Background())
	assert.Error(t, err)
}

func TestRun_EmitsPartialThenFinal(t *testing.T) {
	sink := &eventSink{}
	svc := NewSpeechService(commons.NewNopLogger(),
		WithEventInterval(10*time.Millisecond),
		WithScript([]string{"hello there world"}))
	svc.OnResult(sink.push)

	id, err := svc.Start(context.Background())
	require.NoError(t, err)
	defer func() { _ = svc.Stop(id) }()

	waitFor(t, func() bool { return len(sink.finals()) >= 2 }, 2*time.Second)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.GreaterOrEqual(t, len(sink.events), 2)
	assert.False(t, sink.events[0].IsFinal, "partial precedes final")
	assert.True(t, sink.events[1].IsFinal)
	assert.Equal(t, "hello there world", sink.events[1].Text)
	assert.True(t, sink.events[1].HasTiming)
}

func TestRun_FinalTimestampsAdvance(t *testing.T) {
	sink := &eventSink{}
	svc := NewSpeechService(commons.NewNopLogger(),
		WithEventInterval(10*time.Millisecond),
		WithScript([]string{"one"}))
	svc.OnResult(sink.push)

	id, err := svc.Start(context.Background())
	require.NoError(t, err)
	defer func() { _ = svc.Stop(id) }()

	waitFor(t, func() bool { return len(sink.finals()) >= 3 }, 2*time.Second)

	finals := sink.finals()
	for i := 1; i < 3; i++ {
		assert.GreaterOrEqual(t, finals[i].StartTime, finals[i-1].EndTime,
			"scripted spans must not overlap")
	}
}

func TestPause_SuppressesEvents(t *testing.T) {
	sink := &eventSink{}
	svc := NewSpeechService(commons.NewNopLogger(),
		WithEventInterval(10*time.Millisecond))
	svc.OnResult(sink.push)

	id, err := svc.Start(context.Background())
	require.NoError(t, err)
	defer func() { _ = svc.Stop(id) }()

	svc.Pause()
	time.Sleep(50 * time.Millisecond)
	sink.mu.Lock()
	paused := len(sink.events)
	sink.mu.Unlock()

	time.Sleep(50 * time.Millisecond)
	sink.mu.Lock()
	after := len(sink.events)
	sink.mu.Unlock()
	assert.Equal(t, paused, after, "no events while paused")

	svc.Resume()
	waitFor(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.events) > after
	}, 2*time.Second)
}

func TestStop_UnknownSessionRejected(t *testing.T) {
	svc := NewSpeechService(commons.NewNopLogger(), WithEventInterval(time.Hour))
	id, err := svc.Start(context.Background())
	require.NoError(t, err)

	assert.Error(t, svc.Stop("sim-other"))
	assert.NoError(t, svc.Stop(id))
	assert.NoError(t, svc.Stop(id), "stop after stop is a no-op")
}
