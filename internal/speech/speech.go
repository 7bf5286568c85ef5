/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package speech is the narration boundary. An Engine turns text into a
// running Session: one awaitable, cancelable handle per utterance that
// resolves to exactly one outcome. Two engines ship: a local TTS command
// and a remote fetch-and-play engine for the hosted voice.
package speech

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"soulsight/internal/quota"
)

// Options carries engine-neutral synthesis parameters. Zero values mean
// engine defaults.
type Options struct {
	Lang   string
	Rate   float64 // speaking rate multiplier, 1.0 = engine default
	Pitch  float64 // pitch multiplier where supported
	Volume float64 // 0..1
}

// Outcome is the terminal state of a session.
type Outcome string

const (
	Completed Outcome = "completed"
	Canceled  Outcome = "canceled"
	Failed    Outcome = "failed"
)

// Engine starts narration sessions. A Speak error means no session was
// started; failures after a successful start surface through the session.
type Engine interface {
	Name() string
	Speak(ctx context.Context, text string, opts Options) (*Session, error)
}

// Session is the handle for one running utterance. Exactly one of the
// three outcomes is ever recorded; Done is closed when it is.
type Session struct {
	id   string
	done chan struct{}
	stop func()

	finishOnce sync.Once
	cancelOnce sync.Once

	mu      sync.Mutex
	outcome Outcome
	err     error
}

// NewSession wraps an engine's stop hook into a session handle. Engine
// implementations must call Finish exactly once when playback ends on its
// own; Cancel takes care of the canceled outcome.
func NewSession(stop func()) *Session {
	return &Session{id: uuid.NewString(), done: make(chan struct{}), stop: stop}
}

// ID identifies the session in logs and telemetry.
func (s *Session) ID() string { return s.id }

// Done is closed once the session reached its outcome.
func (s *Session) Done() <-chan struct{} { return s.done }

// Outcome returns the terminal state, or "" while still running.
func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Err returns the failure cause; non-nil only for a Failed outcome.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancel stops playback. It is idempotent: the engine's stop hook runs at
// most once, and a session that already finished keeps its outcome.
func (s *Session) Cancel() {
	s.cancelOnce.Do(func() {
		s.record(Canceled, nil)
		if s.stop != nil {
			s.stop()
		}
	})
}

// Finish records the natural end of playback. Later calls, including the
// engine reporting the kill that Cancel caused, are no-ops.
func (s *Session) Finish(out Outcome, err error) { s.record(out, err) }

func (s *Session) record(out Outcome, err error) {
	s.finishOnce.Do(func() {
		s.mu.Lock()
		s.outcome = out
		s.err = err
		s.mu.Unlock()
		close(s.done)
	})
}

// Metered gates an engine behind a pacing keeper. Denials surface as a
// *quota.DeniedError from Speak; successful starts consume quota.
type Metered struct {
	inner  Engine
	keeper *quota.Keeper
}

// NewMetered wraps inner so every Speak consults keeper first.
func NewMetered(inner Engine, keeper *quota.Keeper) *Metered {
	return &Metered{inner: inner, keeper: keeper}
}

// Name reports the wrapped engine's name.
func (m *Metered) Name() string { return m.inner.Name() }

// Speak implements Engine.
func (m *Metered) Speak(ctx context.Context, text string, opts Options) (*Session, error) {
	if d := m.keeper.Allow(); !d.OK {
		return nil, &quota.DeniedError{Wait: d.Wait, Reason: d.Reason}
	}
	s, err := m.inner.Speak(ctx, text, opts)
	if err != nil {
		return nil, err
	}
	m.keeper.Record()
	return s, nil
}
