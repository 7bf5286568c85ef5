/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package controls

import (
	"testing"

	"soulsight/internal/notify"
	"soulsight/internal/prefs"
)

func TestThemeDefaultsToLight(t *testing.T) {
	pg := buildPage()
	NewTheme(pg, prefs.NewMem(), notify.NewLogger(), "")

	if got := pg.Root().Attr("data-theme"); got != "light" {
		t.Fatalf("data-theme = %q, want %q", got, "light")
	}
	if got := pg.ByID(IDThemeToggle).Text(); got != "🌙" {
		t.Fatalf("toggle glyph = %q, want %q", got, "🌙")
	}
}

func TestThemeStartupDefaultAppliesOnlyWithoutPreference(t *testing.T) {
	pg := buildPage()
	NewTheme(pg, prefs.NewMem(), notify.NewLogger(), "dark")
	if got := pg.Root().Attr("data-theme"); got != "dark" {
		t.Fatalf("data-theme = %q, want %q", got, "dark")
	}

	store := prefs.NewMem()
	store.Set("theme", "light")
	fresh := buildPage()
	NewTheme(fresh, store, notify.NewLogger(), "dark")
	if got := fresh.Root().Attr("data-theme"); got != "light" {
		t.Fatalf("stored preference must win over default, got %q", got)
	}
}

func TestThemeToggleSwitchesPersistsAndNotifies(t *testing.T) {
	pg := buildPage()
	store := prefs.NewMem()
	rec := &recorder{}
	th := NewTheme(pg, store, rec, "")

	pg.Click(pg.ByID(IDThemeToggle))

	if got := pg.Root().Attr("data-theme"); got != "dark" {
		t.Fatalf("data-theme = %q, want %q", got, "dark")
	}
	if got := store.Get("theme", "light"); got != "dark" {
		t.Fatalf("persisted theme = %q, want %q", got, "dark")
	}
	if got := pg.ByID(IDThemeToggle).Text(); got != "☀️" {
		t.Fatalf("toggle glyph = %q, want %q", got, "☀️")
	}
	if th.Mode() != "dark" {
		t.Fatalf("Mode() = %q, want %q", th.Mode(), "dark")
	}
	msg, ok := rec.last()
	if !ok {
		t.Fatalf("no notification shown")
	}
	if msg.msg != "Switched to dark mode" {
		t.Fatalf("notice = %q, want %q", msg.msg, "Switched to dark mode")
	}
	if msg.sev != notify.Success {
		t.Fatalf("notice severity = %q, want %q", msg.sev, notify.Success)
	}
}

func TestThemeDoubleToggleRestoresOriginal(t *testing.T) {
	pg := buildPage()
	store := prefs.NewMem()
	rec := &recorder{}
	th := NewTheme(pg, store, rec, "")

	pg.Click(pg.ByID(IDThemeToggle))
	pg.Click(pg.ByID(IDThemeToggle))

	if got := pg.Root().Attr("data-theme"); got != "light" {
		t.Fatalf("data-theme = %q, want %q", got, "light")
	}
	if got := store.Get("theme", ""); got != "light" {
		t.Fatalf("persisted theme = %q, want %q", got, "light")
	}
	if th.Mode() != "light" {
		t.Fatalf("Mode() = %q, want %q", th.Mode(), "light")
	}
	if len(rec.all()) != 2 {
		t.Fatalf("notifications = %d, want 2", len(rec.all()))
	}
	if rec.all()[1].msg != "Switched to light mode" {
		t.Fatalf("second notice = %q, want %q", rec.all()[1].msg, "Switched to light mode")
	}
}

func TestThemeRestoredAcrossControllers(t *testing.T) {
	store := prefs.NewMem()

	pg := buildPage()
	NewTheme(pg, store, notify.NewLogger(), "")
	pg.Click(pg.ByID(IDThemeToggle))

	fresh := buildPage()
	th := NewTheme(fresh, store, notify.NewLogger(), "")
	if got := fresh.Root().Attr("data-theme"); got != "dark" {
		t.Fatalf("data-theme after reload = %q, want %q", got, "dark")
	}
	if got := fresh.ByID(IDThemeToggle).Text(); got != "☀️" {
		t.Fatalf("glyph after reload = %q, want %q", got, "☀️")
	}
	if th.Mode() != "dark" {
		t.Fatalf("Mode() after reload = %q, want %q", th.Mode(), "dark")
	}
}
