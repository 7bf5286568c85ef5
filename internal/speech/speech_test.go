/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package speech

import (
	"context"
	"errors"
	"testing"
	"time"

	"soulsight/internal/prefs"
	"soulsight/internal/quota"
)

func TestSessionCancelIsIdempotent(t *testing.T) {
	stops := 0
	s := NewSession(func() { stops++ })

	s.Cancel()
	s.Cancel()
	s.Cancel()

	if stops != 1 {
		t.Fatalf("stop hook ran %d times, want 1", stops)
	}
	select {
	case <-s.Done():
	default:
		t.Fatalf("Done not closed after Cancel")
	}
	if s.Outcome() != Canceled {
		t.Fatalf("Outcome = %q, want %q", s.Outcome(), Canceled)
	}
}

func TestSessionFinishAfterCancelIsNoOp(t *testing.T) {
	s := NewSession(func() {})
	s.Cancel()
	// The engine reporting the kill must not overwrite the outcome.
	s.Finish(Failed, errors.New("killed"))
	if s.Outcome() != Canceled || s.Err() != nil {
		t.Fatalf("outcome overwritten: %q err=%v", s.Outcome(), s.Err())
	}
}

func TestSessionNaturalCompletion(t *testing.T) {
	s := NewSession(func() { t.Fatalf("stop hook must not run on natural completion") })
	s.Finish(Completed, nil)
	if s.Outcome() != Completed || s.Err() != nil {
		t.Fatalf("Outcome = %q err=%v, want completed", s.Outcome(), s.Err())
	}
	if s.ID() == "" {
		t.Fatalf("session has no id")
	}
}

func TestSessionFailureCarriesError(t *testing.T) {
	s := NewSession(nil)
	cause := errors.New("decoder blew up")
	s.Finish(Failed, cause)
	if s.Outcome() != Failed {
		t.Fatalf("Outcome = %q, want %q", s.Outcome(), Failed)
	}
	if !errors.Is(s.Err(), cause) {
		t.Fatalf("Err = %v, want %v", s.Err(), cause)
	}
}

// fakeEngine starts sessions that the test finishes by hand.
type fakeEngine struct {
	calls    int
	lastText string
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Speak(_ context.Context, text string, _ Options) (*Session, error) {
	f.calls++
	f.lastText = text
	return NewSession(func() {}), nil
}

func TestMeteredDeniesInsideCooldown(t *testing.T) {
	store := prefs.NewMem()
	store.Set("speech.lastCall", time.Now().Format(time.RFC3339))
	k := quota.New(quota.Config{Cooldown: time.Hour}, store)
	inner := &fakeEngine{}
	m := NewMetered(inner, k)

	_, err := m.Speak(context.Background(), "hello", Options{})
	var denied *quota.DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("Speak error = %v, want *quota.DeniedError", err)
	}
	if denied.Wait <= 0 {
		t.Fatalf("denied.Wait = %v, want positive cooldown remainder", denied.Wait)
	}
	if inner.calls != 0 {
		t.Fatalf("inner engine called despite denial")
	}
}

func TestMeteredConsumesQuotaOnSuccess(t *testing.T) {
	store := prefs.NewMem()
	k := quota.New(quota.Config{DailyLimit: 2}, store)
	inner := &fakeEngine{}
	m := NewMetered(inner, k)

	for i := 0; i < 2; i++ {
		if _, err := m.Speak(context.Background(), "hello", Options{}); err != nil {
			t.Fatalf("Speak %d error: %v", i, err)
		}
	}
	if _, err := m.Speak(context.Background(), "hello", Options{}); err == nil {
		t.Fatalf("third Speak should hit the daily limit")
	}
	if inner.calls != 2 {
		t.Fatalf("inner engine calls = %d, want 2", inner.calls)
	}
}
