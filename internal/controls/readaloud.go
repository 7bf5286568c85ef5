/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package controls

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"soulsight/internal/log"
	"soulsight/internal/notify"
	"soulsight/internal/page"
	"soulsight/internal/quota"
	"soulsight/internal/speech"
)

const (
	labelIdle    = "🔊 Read Aloud"
	labelReading = "⏹ Stop Reading"

	classReading = "reading"
)

// ReadAloud narrates the page content through a speech engine. The button
// toggles between exactly two states: idle starts a narration, reading
// stops the current one. The spoken text is snapshotted when narration
// starts; later page edits do not affect a running session. Button label
// and the "reading" class are both driven from the controller state, never
// read back from the page.
type ReadAloud struct {
	engine speech.Engine
	opts   speech.Options
	notif  notify.Notifier
	btn    *page.Element
	main   *page.Element
	l      *slog.Logger

	mu      sync.Mutex
	session *speech.Session
}

// NewReadAloud binds the read-aloud button if the page has one and an
// engine is configured; otherwise the controller is inert. Closing the
// page cancels a running narration so no audio outlives the window.
func NewReadAloud(pg *page.Page, engine speech.Engine, opts speech.Options, notif notify.Notifier) *ReadAloud {
	c := &ReadAloud{
		engine: engine,
		opts:   opts,
		notif:  notif,
		l:      log.WithComponent("readaloud"),
	}
	c.btn = pg.ByID(IDReadAloud)
	if c.btn == nil || engine == nil {
		return c
	}
	c.main = pg.ByID(IDContent)
	if c.main == nil {
		c.main = pg.Root()
	}
	c.btn.SetText(labelIdle)
	c.btn.On(page.Click, func(page.Event) { c.Toggle() })
	pg.On(page.Unload, func(page.Event) { c.shutdown() })
	return c
}

// Toggle starts narration when idle and stops it when reading. Repeated
// clicks never queue: a click during playback always means stop.
func (c *ReadAloud) Toggle() {
	if c.btn == nil || c.engine == nil {
		return
	}
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s != nil {
		s.Cancel()
		return
	}
	c.start()
}

// Reading reports whether a narration session is active.
func (c *ReadAloud) Reading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

func (c *ReadAloud) start() {
	text := c.main.VisibleText()
	if strings.TrimSpace(text) == "" {
		c.notif.Show("There is nothing to read on this page.", notify.Info)
		return
	}
	s, err := c.engine.Speak(context.Background(), text, c.opts)
	if err != nil {
		c.l.Warn("narration not started", slog.String("error", err.Error()))
		var denied *quota.DeniedError
		if errors.As(err, &denied) {
			c.notif.Show(denied.Reason, notify.Error)
		} else {
			c.notif.Show("Speech playback is unavailable right now.", notify.Error)
		}
		return
	}

	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	c.btn.SetText(labelReading)
	c.btn.AddClass(classReading)
	c.l.Info("narration started",
		slog.String("session", s.ID()),
		slog.Int("chars", len(text)))
	go c.watch(s)
}

// watch waits for the session to end for any reason and reverts the
// button. Only a failed session alerts the user; completion and manual
// stop are silent.
func (c *ReadAloud) watch(s *speech.Session) {
	<-s.Done()

	c.mu.Lock()
	if c.session == s {
		c.session = nil
	}
	c.mu.Unlock()

	c.btn.SetText(labelIdle)
	c.btn.RemoveClass(classReading)

	switch s.Outcome() {
	case speech.Failed:
		c.l.Error("narration failed",
			slog.String("session", s.ID()),
			slog.String("error", errString(s.Err())))
		c.notif.Show("Speech playback failed. Please try again.", notify.Error)
	case speech.Canceled:
		c.l.Info("narration stopped", slog.String("session", s.ID()))
	default:
		c.l.Info("narration finished", slog.String("session", s.ID()))
	}
}

// shutdown cancels a running session once. The session is detached first
// so a second unload finds nothing to cancel.
func (c *ReadAloud) shutdown() {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.mu.Unlock()
	if s != nil {
		s.Cancel()
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
