/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"soulsight/internal/backend"
	"soulsight/internal/config"
	"soulsight/internal/crash"
	"soulsight/internal/export"
	applog "soulsight/internal/log"
	"soulsight/internal/prefs"
	"soulsight/internal/quota"
	"soulsight/internal/speech"
	"soulsight/internal/telemetry"
	"soulsight/internal/ui"
	"soulsight/internal/version"
)

func usage() {
	fmt.Println("SoulSight AI desktop companion")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  soulsight version|-v|--version          Show version")
	fmt.Println("  soulsight ui [<file>]                   Launch desktop UI (build with -tags fyne for full UI)")
	fmt.Println("  soulsight read <file>                   Read a document aloud")
	fmt.Println("  soulsight fetch <id>                    Fetch an analysis result from the backend")
	fmt.Println("  soulsight export <id> <txt|pdf> [dir]   Download a result and save it as TXT or PDF")
	fmt.Println("  soulsight history                       Print the analysis history")
	fmt.Println("  soulsight quota                         Show today's narration quota")
	fmt.Println("  soulsight quota-reset                   Reset the local narration counter")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	defer crash.Recover(nil)

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("SoulSight AI desktop companion")
			fmt.Println(version.String())
			return
		case "ui":
			var file string
			if len(args) >= 3 {
				file = args[2]
			}
			if err := ui.Run(file); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "read":
			if len(args) < 3 {
				fmt.Println("read requires <file>")
				usage()
				os.Exit(2)
			}
			runRead(l, args[2])
			return
		case "fetch":
			if len(args) < 3 {
				fmt.Println("fetch requires <id>")
				usage()
				os.Exit(2)
			}
			id, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				fmt.Println("fetch requires a numeric result id")
				usage()
				os.Exit(2)
			}
			runFetch(l, id)
			return
		case "export":
			if len(args) < 4 {
				fmt.Println("export requires <id> and <txt|pdf>")
				usage()
				os.Exit(2)
			}
			id, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				fmt.Println("export requires a numeric result id")
				usage()
				os.Exit(2)
			}
			format := strings.ToLower(args[3])
			if format != export.FormatTXT && format != export.FormatPDF {
				fmt.Printf("unsupported format %q, use txt or pdf\n", args[3])
				usage()
				os.Exit(2)
			}
			dir := "."
			if len(args) >= 5 {
				dir = args[4]
			}
			runExport(l, id, format, dir)
			return
		case "history":
			runHistory(l)
			return
		case "quota":
			runQuota(l)
			return
		case "quota-reset":
			runQuotaReset(l)
			return
		}
	}

	usage()
}

// loadConfig loads the layered configuration; failures fall back to the
// defaults so every verb still works offline.
func loadConfig(l *slog.Logger) (config.AppConfig, string) {
	cfg, token, err := config.Load()
	if err != nil {
		l.Warn("config load failed, continuing with defaults", slog.Any("err", err))
	}
	return cfg, token
}

func initTelemetry(cfg config.AppConfig) {
	tcfg := telemetry.FromEnv()
	if cfg.General.TelemetryOptIn {
		tcfg.OptIn = true
	}
	telemetry.NewDefault(tcfg)
}

// openStore opens the persistent preference store, degrading to memory so
// a broken config dir never blocks a verb.
func openStore(l *slog.Logger) (prefs.Store, func()) {
	path, err := config.PrefsPath()
	if err != nil {
		l.Warn("no config dir, preferences are in-memory", slog.Any("err", err))
		return prefs.NewMem(), func() {}
	}
	db, err := prefs.Open(path)
	if err != nil {
		l.Warn("preference store unavailable, preferences are in-memory", slog.String("path", path), slog.Any("err", err))
		return prefs.NewMem(), func() {}
	}
	return db, func() { _ = db.Close() }
}

// buildEngine assembles the narration engine the same way the desktop
// shell does: local command first, hosted backend behind the quota keeper
// as the fallback.
func buildEngine(cfg config.AppConfig, token string, store prefs.Store) (speech.Engine, error) {
	newCommand := func() (speech.Engine, error) {
		bin := cfg.Speech.Command
		if bin == "" {
			b, err := speech.DetectCommand()
			if err != nil {
				return nil, err
			}
			bin = b
		}
		eng, err := speech.NewCommandEngine(bin)
		if err != nil {
			return nil, err
		}
		return eng, nil
	}
	newRemote := func() (speech.Engine, error) {
		player := cfg.Speech.Player
		if player == "" {
			p, err := speech.DetectPlayer()
			if err != nil {
				return nil, err
			}
			player = p
		}
		eng, err := speech.NewRemoteEngine(cfg.Backend.BaseURL, cfg.Speech.RemotePath, token, player, cfg.Backend.Timeout(), cfg.Backend.TLSInsecure)
		if err != nil {
			return nil, err
		}
		keeper := quota.New(quota.Config{DailyLimit: cfg.Quota.DailyLimit, Cooldown: cfg.Quota.Cooldown()}, store)
		return speech.NewMetered(eng, keeper), nil
	}

	switch cfg.Speech.Engine {
	case "command":
		return newCommand()
	case "remote":
		return newRemote()
	default:
		if eng, err := newCommand(); err == nil {
			return eng, nil
		}
		return newRemote()
	}
}

func runRead(l *slog.Logger, path string) {
	cfg, token := loadConfig(l)
	initTelemetry(cfg)
	store, closeStore := openStore(l)
	defer closeStore()

	data, err := os.ReadFile(path)
	if err != nil {
		l.Error("read document failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	secs := ui.ParseSections(string(data))
	if len(secs) == 0 {
		fmt.Println("Error: document has no readable text")
		os.Exit(1)
	}

	engine, err := buildEngine(cfg, token, store)
	if err != nil {
		l.Error("no speech engine", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}

	var parts []string
	for _, s := range secs {
		if s.Title != "" {
			parts = append(parts, s.Title+".")
		}
		if s.Body != "" {
			parts = append(parts, s.Body)
		}
	}
	text := strings.Join(parts, "\n")
	opts := speech.Options{
		Lang:   cfg.Speech.EffectiveLang(cfg.General),
		Rate:   cfg.Speech.Rate,
		Volume: cfg.Speech.Volume,
	}

	sess, err := engine.Speak(context.Background(), text, opts)
	if err != nil {
		telemetry.Event(telemetry.EventSpeechError, map[string]any{"reason": "start"})
		telemetry.Flush(nil)
		var denied *quota.DeniedError
		if errors.As(err, &denied) {
			l.Info("narration denied", slog.String("reason", denied.Reason))
			fmt.Println("Narration limit:", denied.Reason)
			os.Exit(1)
		}
		l.Error("narration failed to start", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	telemetry.Event(telemetry.EventSpeechStart, map[string]any{"engine": engine.Name(), "sections": len(secs)})

	fmt.Printf("Reading %s with %s. Press Ctrl-C to stop.\n", filepath.Base(path), engine.Name())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)
	go func() {
		select {
		case <-sig:
			sess.Cancel()
		case <-sess.Done():
		}
	}()

	<-sess.Done()
	telemetry.Flush(nil)
	switch sess.Outcome() {
	case speech.Completed:
		fmt.Println("Done.")
	case speech.Canceled:
		fmt.Println("Stopped.")
	case speech.Failed:
		telemetry.Event(telemetry.EventSpeechError, map[string]any{"reason": "playback"})
		telemetry.Flush(nil)
		l.Error("narration failed", slog.Any("err", sess.Err()))
		fmt.Println("Error:", sess.Err())
		os.Exit(1)
	}
}

func runFetch(l *slog.Logger, id int64) {
	cfg, token := loadConfig(l)
	cli := backend.NewClient(cfg.Backend.BaseURL, token, cfg.Backend.Timeout())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	l.Info("fetch result", slog.Int64("id", id))
	r, err := cli.FetchResult(ctx, id)
	if err != nil {
		l.Error("fetch failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	if err := export.WriteText(os.Stdout, r); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	fmt.Println()
}

func runExport(l *slog.Logger, id int64, format, dir string) {
	cfg, token := loadConfig(l)
	initTelemetry(cfg)
	cli := backend.NewClient(cfg.Backend.BaseURL, token, cfg.Backend.Timeout())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	l.Info("export result", slog.Int64("id", id), slog.String("format", format))
	r, err := cli.FetchResult(ctx, id)
	if err != nil {
		l.Error("fetch before export failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	path, err := export.ExportResult(dir, id, r, format)
	if err != nil {
		l.Error("export failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	ev := telemetry.EventExportTXT
	if format == export.FormatPDF {
		ev = telemetry.EventExportPDF
	}
	telemetry.Event(ev, map[string]any{"id": id})
	telemetry.Flush(nil)
	fmt.Println("Exported", path)
}

func runHistory(l *slog.Logger) {
	cfg, token := loadConfig(l)
	cli := backend.NewClient(cfg.Backend.BaseURL, token, cfg.Backend.Timeout())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	h, err := cli.FetchHistory(ctx)
	if err != nil {
		l.Error("history fetch failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	fmt.Printf("History for %s: %d images, %d analyses\n", h.UserEmail, h.TotalImages, h.TotalAnalyses)
	for _, img := range h.Images {
		fmt.Printf("  %s (%s, %.2f MB, uploaded %s)\n", img.Filename, img.Category, img.FileSizeMB, img.UploadDate)
		for _, a := range img.Analyses {
			fmt.Printf("    #%d %s, confidence %.2f, %s\n", a.ID, a.Mode, a.Confidence, a.CreatedAt)
		}
	}
}

func runQuota(l *slog.Logger) {
	cfg, _ := loadConfig(l)
	store, closeStore := openStore(l)
	defer closeStore()

	k := quota.New(quota.Config{DailyLimit: cfg.Quota.DailyLimit, Cooldown: cfg.Quota.Cooldown()}, store)
	st := k.Status()
	fmt.Printf("Narrations used today: %d of %d (%d remaining)\n", st.Used, st.Limit, st.Remaining)
	if st.CooldownLeft > 0 {
		fmt.Printf("Next narration possible in %s\n", st.CooldownLeft.Round(time.Second))
	}
}

func runQuotaReset(l *slog.Logger) {
	cfg, _ := loadConfig(l)
	store, closeStore := openStore(l)
	defer closeStore()

	k := quota.New(quota.Config{DailyLimit: cfg.Quota.DailyLimit, Cooldown: cfg.Quota.Cooldown()}, store)
	k.Reset()
	l.Info("quota counter reset")
	fmt.Println("Narration counter reset.")
}
