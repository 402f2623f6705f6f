// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package main

import (
	"context"
	"flag"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rapidaai/scribe/config"
	internal_audio "github.com/rapidaai/scribe/internal/audio"
	internal_audio_resampler "github.com/rapidaai/scribe/internal/audio/resampler"
	internal_cloudsync "github.com/rapidaai/scribe/internal/cloudsync"
	internal_notes "github.com/rapidaai/scribe/internal/notes"
	internal_orchestrator "github.com/rapidaai/scribe/internal/orchestrator"
	internal_recorder "github.com/rapidaai/scribe/internal/recorder"
	internal_session "github.com/rapidaai/scribe/internal/session"
	internal_speech_deepgram "github.com/rapidaai/scribe/internal/speech/deepgram"
	internal_speech_simulated "github.com/rapidaai/scribe/internal/speech/simulated"
	internal_summary "github.com/rapidaai/scribe/internal/summary"
	internal_transcribe "github.com/rapidaai/scribe/internal/transcribe"
	internal_transcribe_controller "github.com/rapidaai/scribe/internal/transcribe/controller"
	internal_type "github.com/rapidaai/scribe/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
)

// logStatusSink forwards user-visible status updates to the logger. A real
// frontend injects its own sink.
type logStatusSink struct {
	logger commons.Logger
}

func (s *logStatusSink) Notify(kind internal_type.StatusKind, message string) {
	switch kind {
	case internal_type.StatusWarning, internal_type.StatusError:
		s.logger.Warnf("[status] %s", message)
	default:
		s.logger.Infof("[status] %s", message)
	}
}

func main() {
	mode := flag.String("mode", "simulated", "transcription mode (live/simulated)")
	duration := flag.Duration("duration", 10*time.Second, "how long to record")
	title := flag.String("title", "Demo recording", "recording title")
	flag.Parse()

	vConfig, err := config.InitConfig()
	if err != nil {
		log.Fatalf("config init: %v", err)
	}
	cfg, err := config.GetApplicationConfig(vConfig)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	logger, err := commons.NewApplicationLogger()
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer logger.Sync()

	store, err := internal_session.NewStore(logger, cfg.DataDir)
	if err != nil {
		log.Fatalf("session store: %v", err)
	}
	notes, err := internal_notes.NewManager(logger, store.DB(), nil)
	if err != nil {
		log.Fatalf("notes manager: %v", err)
	}

	resampler, err := internal_audio_resampler.GetResampler(logger)
	if err != nil {
		log.Fatalf("resampler: %v", err)
	}

	source := internal_recorder.NewCaptureSource(logger)
	clock := internal_transcribe.NewRecordingClock()
	assembler := internal_transcribe.NewAssembler(logger, clock)
	controller := internal_transcribe_controller.NewModeController(
		logger,
		source,
		resampler,
		internal_speech_deepgram.NewSpeechService(logger),
		internal_speech_simulated.NewSpeechService(logger),
		assembler,
	)

	deps := internal_orchestrator.Dependencies{
		Source:      source,
		Controller:  controller,
		Assembler:   assembler,
		Persistence: store,
		Notes:       notes,
		Status:      &logStatusSink{logger: logger},
	}
	if cfg.CloudSyncHost != "" {
		deps.Cloud = internal_cloudsync.NewClient(logger, cfg.CloudSyncHost, cfg.CloudSyncApiKey, store)
	}
	if cfg.OpenAIApiKey != "" {
		deps.Summary = internal_summary.NewService(logger, store, cfg.OpenAIApiKey, cfg.SummaryModel)
	}

	orchestrator := internal_orchestrator.NewOrchestrator(logger, deps,
		internal_orchestrator.WithAssistantRetries(cfg.AssistantRetry))
	defer orchestrator.Cleanup()

	orchestrator.OnElapsed(func(active time.Duration) {
		logger.Infof("Active time %s, transcript so far: %q", active.Round(time.Second), assembler.Text())
	})

	ctx := context.Background()
	err = orchestrator.Start(ctx, internal_orchestrator.StartOptions{
		Mode:       internal_type.TranscriptionMode(*mode),
		Credential: cfg.SpeechApiKey,
		Title:      *title,
	})
	if err != nil {
		logger.Errorf("start recording: %v", err)
		os.Exit(1)
	}

	// Without a real capture device, feed a synthetic tone.
	feedStop := make(chan struct{})
	go feedTone(source, feedStop)
	defer close(feedStop)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-time.After(*duration):
	case <-sigCh:
		logger.Info("Interrupted, stopping")
	}

	outcome, err := orchestrator.Stop(ctx)
	if err != nil {
		logger.Errorf("stop: %v", err)
	}
	if outcome != nil {
		logger.Infof("Session %s saved=%v", outcome.SessionID, outcome.Persisted)
	}
	orchestrator.Wait()
}

// feedTone pushes 100ms frames of a 440Hz sine at the capture rate.
func feedTone(source internal_recorder.CaptureSource, stop chan struct{}) {
	rate := internal_audio.CAPTURE_AUDIO_CONFIG.SampleRate
	frameLen := int(rate / 10)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	phase := 0
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			frame := make([]float32, frameLen)
			for i := range frame {
				frame[i] = 0.2 * float32(math.Sin(2*math.Pi*440*float64(phase+i)/float64(rate)))
			}
			phase += frameLen
			source.Feed(frame, rate)
		}
	}
}
