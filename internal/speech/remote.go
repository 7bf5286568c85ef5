/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package speech

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "soulsight/internal/log"
)

// playerCandidates in preference order; afplay ships with macOS, the rest
// are common Linux packages.
var playerCandidates = []string{"afplay", "mpg123", "mpv", "ffplay"}

// DetectPlayer returns the first available audio player binary.
func DetectPlayer() (string, error) {
	for _, c := range playerCandidates {
		if p, err := lookPath(c); err == nil {
			return p, nil
		}
	}
	return "", errors.New("no audio player found (tried afplay, mpg123, mpv, ffplay)")
}

// RemoteEngine fetches synthesized narration from the SoulSight service
// and plays it through a local audio player. The audio lands in a temp
// file that is removed when the session ends.
type RemoteEngine struct {
	baseURL string
	path    string
	token   string
	player  string
	client  *http.Client
	l       *slog.Logger
}

// NewRemoteEngine builds the hosted-voice engine. player is autodetected
// when empty; path defaults to the service's synthesis endpoint.
func NewRemoteEngine(baseURL, path, token, player string, timeout time.Duration, tlsInsecure bool) (*RemoteEngine, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("remote speech engine requires a backend URL")
	}
	if strings.TrimSpace(player) == "" {
		detected, err := DetectPlayer()
		if err != nil {
			return nil, err
		}
		player = detected
	}
	if strings.TrimSpace(path) == "" {
		path = "/text-to-speech"
	}
	hc := &http.Client{Timeout: timeout}
	if tlsInsecure {
		hc.Transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	}
	return &RemoteEngine{
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    path,
		token:   token,
		player:  player,
		client:  hc,
		l:       applog.WithComponent("speech"),
	}, nil
}

// Name implements Engine.
func (e *RemoteEngine) Name() string { return "remote" }

// Speak implements Engine. The synthesis request happens before a session
// exists, so service errors surface as a Speak error, not a failed session.
func (e *RemoteEngine) Speak(ctx context.Context, text string, opts Options) (*Session, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("nothing to read")
	}
	audio, err := e.fetch(ctx, text, opts)
	if err != nil {
		return nil, fmt.Errorf("fetch narration: %w", err)
	}

	cctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(cctx, e.player, playerArgs(filepath.Base(e.player), audio)...)
	if err := cmd.Start(); err != nil {
		cancel()
		_ = os.Remove(audio)
		return nil, fmt.Errorf("start %s: %w", e.player, err)
	}
	s := NewSession(cancel)
	e.l.Info("narration started",
		slog.String("engine", e.Name()),
		slog.String("session", s.ID()),
		slog.Int("chars", len(text)))
	go func() {
		defer cancel()
		defer func() { _ = os.Remove(audio) }()
		if err := cmd.Wait(); err != nil {
			s.Finish(Failed, fmt.Errorf("%s: %w", filepath.Base(e.player), err))
			return
		}
		s.Finish(Completed, nil)
	}()
	return s, nil
}

// fetch downloads the synthesized audio into a temp file and returns its
// path. The caller owns the file.
func (e *RemoteEngine) fetch(ctx context.Context, text string, opts Options) (string, error) {
	payload, err := json.Marshal(map[string]string{"text": text, "lang": opts.Lang})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+e.path, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("server POST %s: %s", e.path, resp.Status)
	}

	out := filepath.Join(os.TempDir(), "soulsight-"+uuid.NewString()+".mp3")
	f, err := os.Create(out)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(out)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(out)
		return "", err
	}
	return out, nil
}

// playerArgs maps the temp file onto each player's flags.
func playerArgs(bin, file string) []string {
	switch bin {
	case "mpg123":
		return []string{"-q", file}
	case "mpv":
		return []string{"--no-video", "--really-quiet", file}
	case "ffplay":
		return []string{"-nodisp", "-autoexit", "-loglevel", "quiet", file}
	default: // afplay and friends take the file directly
		return []string{file}
	}
}
