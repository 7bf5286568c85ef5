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
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	applog "soulsight/internal/log"
)

// commandCandidates in preference order; say ships with macOS, the rest
// are common Linux packages.
var commandCandidates = []string{"say", "espeak-ng", "espeak", "flite"}

// lookPath is swapped out in tests.
var lookPath = exec.LookPath

// DetectCommand returns the first available TTS binary.
func DetectCommand() (string, error) {
	for _, c := range commandCandidates {
		if p, err := lookPath(c); err == nil {
			return p, nil
		}
	}
	return "", errors.New("no text-to-speech command found (tried say, espeak-ng, espeak, flite)")
}

// CommandEngine speaks through a local TTS binary. Cancellation kills the
// process.
type CommandEngine struct {
	command string
	l       *slog.Logger
}

// NewCommandEngine builds the engine around command, autodetecting one
// when command is empty.
func NewCommandEngine(command string) (*CommandEngine, error) {
	if strings.TrimSpace(command) == "" {
		detected, err := DetectCommand()
		if err != nil {
			return nil, err
		}
		command = detected
	}
	return &CommandEngine{command: command, l: applog.WithComponent("speech")}, nil
}

// Name implements Engine.
func (e *CommandEngine) Name() string { return "command:" + filepath.Base(e.command) }

// Speak implements Engine.
func (e *CommandEngine) Speak(ctx context.Context, text string, opts Options) (*Session, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("nothing to read")
	}
	cctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(cctx, e.command, argsFor(filepath.Base(e.command), text, opts)...)
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start %s: %w", e.command, err)
	}
	s := NewSession(cancel)
	e.l.Info("narration started",
		slog.String("engine", e.Name()),
		slog.String("session", s.ID()),
		slog.Int("chars", len(text)))
	go func() {
		defer cancel()
		if err := cmd.Wait(); err != nil {
			s.Finish(Failed, fmt.Errorf("%s: %w", filepath.Base(e.command), err))
			return
		}
		s.Finish(Completed, nil)
	}()
	return s, nil
}

// argsFor maps the engine-neutral options onto each binary's flags. The
// text is always the last argument.
func argsFor(bin, text string, opts Options) []string {
	rate := opts.Rate
	if rate <= 0 {
		rate = 1.0
	}
	volume := opts.Volume
	if volume <= 0 {
		volume = 1.0
	}
	switch bin {
	case "say":
		return []string{"-r", strconv.Itoa(int(175 * rate)), text}
	case "espeak-ng", "espeak":
		args := []string{
			"-s", strconv.Itoa(int(175 * rate)),
			"-a", strconv.Itoa(clampInt(int(100*volume), 0, 200)),
		}
		if opts.Pitch > 0 {
			args = append(args, "-p", strconv.Itoa(clampInt(int(50*opts.Pitch), 0, 99)))
		}
		if opts.Lang != "" {
			args = append(args, "-v", opts.Lang)
		}
		return append(args, text)
	case "flite":
		return []string{"-t", text}
	default:
		return []string{text}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
