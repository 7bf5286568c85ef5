/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package notify delivers user-facing messages. The Flash notifier renders
// them into the page's flash region the way the web app surfaced its
// server-side flashes; Logger is the headless fallback.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	applog "soulsight/internal/log"
	"soulsight/internal/page"
)

// Severity classifies a message for styling and log level.
type Severity string

const (
	Info    Severity = "info"
	Success Severity = "success"
	Error   Severity = "error"
)

// Notifier is the message sink handed to the interaction controllers.
type Notifier interface {
	Show(message string, sev Severity)
}

// Flash renders messages as dismissible elements inside a flash region.
// When the page has no flash region the notifier degrades to logging.
type Flash struct {
	pg           *page.Page
	region       *page.Element
	dismissAfter time.Duration
	l            *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewFlash wires a flash notifier to the region registered under regionID.
// dismissAfter 0 disables auto-dismissal; messages then stay until the user
// dismisses them.
func NewFlash(pg *page.Page, regionID string, dismissAfter time.Duration) *Flash {
	f := &Flash{
		pg:           pg,
		region:       pg.ByID(regionID),
		dismissAfter: dismissAfter,
		l:            applog.WithComponent("notify"),
		timers:       make(map[string]*time.Timer),
	}
	if f.region == nil {
		f.l.Debug("no flash region on page, falling back to log output",
			slog.String("region", regionID))
	}
	return f
}

// Show implements Notifier. The message element carries the severity as a
// state class and a dismiss control that removes it on click.
func (f *Flash) Show(message string, sev Severity) {
	f.log(message, sev)
	if f.region == nil {
		return
	}

	id := "flash-" + uuid.NewString()
	el := f.pg.NewElement("flash", id)
	el.AddClass(string(sev))

	msg := f.pg.NewElement("span", "")
	msg.SetText(message)
	el.Append(msg)

	btn := f.pg.NewElement("button", "")
	btn.AddClass("flash-dismiss")
	btn.On(page.Click, func(page.Event) { f.dismiss(id, el) })
	el.Append(btn)

	f.region.Append(el)

	if f.dismissAfter > 0 {
		f.mu.Lock()
		f.timers[id] = time.AfterFunc(f.dismissAfter, func() { f.dismiss(id, el) })
		f.mu.Unlock()
	}
}

func (f *Flash) dismiss(id string, el *page.Element) {
	f.mu.Lock()
	if t, ok := f.timers[id]; ok {
		t.Stop()
		delete(f.timers, id)
	}
	f.mu.Unlock()
	el.Remove()
}

// Messages returns the texts currently shown, oldest first.
func (f *Flash) Messages() []string {
	if f.region == nil {
		return nil
	}
	var out []string
	for _, el := range f.region.Children() {
		for _, c := range el.Children() {
			if t := c.Text(); t != "" {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func (f *Flash) log(message string, sev Severity) {
	switch sev {
	case Error:
		f.l.Error(message)
	default:
		f.l.Info(message, slog.String("severity", string(sev)))
	}
}

// Logger is a Notifier that only writes to the application log.
type Logger struct {
	l *slog.Logger
}

// NewLogger returns the headless notifier.
func NewLogger() *Logger { return &Logger{l: applog.WithComponent("notify")} }

// Show implements Notifier.
func (n *Logger) Show(message string, sev Severity) {
	switch sev {
	case Error:
		n.l.Error(message)
	default:
		n.l.Info(message, slog.String("severity", string(sev)))
	}
}
