/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	keyring "github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal, so older builds tolerate newer files.

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Theme          string `yaml:"theme"`    // "system" | "light" | "dark" startup hint; the live value sits in the preference store
	Language       string `yaml:"language"` // "en" | "hi" | "ur"
}

type BackendConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type SpeechConfig struct {
	Engine     string  `yaml:"engine"`      // "auto" | "command" | "remote"
	Command    string  `yaml:"command"`     // TTS binary for the command engine; empty = autodetect
	Player     string  `yaml:"player"`      // audio player for the remote engine; empty = autodetect
	Lang       string  `yaml:"lang"`        // empty = follow general.language
	Rate       float64 `yaml:"rate"`        // speaking rate multiplier, 1.0 = engine default
	Volume     float64 `yaml:"volume"`      // 0..1
	RemotePath string  `yaml:"remote_path"` // TTS endpoint on the backend
}

type QuotaConfig struct {
	DailyLimit      int `yaml:"daily_limit"`      // hosted speech requests per day
	CooldownSeconds int `yaml:"cooldown_seconds"` // minimum gap between hosted speech requests
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Backend       BackendConfig `yaml:"backend"`
	Speech        SpeechConfig  `yaml:"speech"`
	Quota         QuotaConfig   `yaml:"quota"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults. Quota numbers mirror the hosted
// service limits so the client never runs ahead of the server.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Theme: "system", Language: "en"},
		Backend:       BackendConfig{BaseURL: "https://soulsight.up.railway.app", TimeoutMs: 15000, TLSInsecure: false},
		Speech:        SpeechConfig{Engine: "auto", Rate: 1.0, Volume: 1.0, RemotePath: "/text-to-speech"},
		Quota:         QuotaConfig{DailyLimit: 15, CooldownSeconds: 60},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvBackendURL       = "SSA_BACKEND_URL"
	EnvBackendTimeoutMs = "SSA_BACKEND_TIMEOUT_MS"
	EnvBackendTLSInsec  = "SSA_TLS_INSECURE"
	EnvTelemetryOptIn   = "SSA_TELEMETRY_OPT_IN"
	EnvLanguage         = "SSA_LANGUAGE"
	EnvSpeechEngine     = "SSA_SPEECH_ENGINE"
	EnvSpeechCommand    = "SSA_SPEECH_COMMAND"
	EnvSpeechPlayer     = "SSA_SPEECH_PLAYER"
	EnvQuotaDailyLimit  = "SSA_QUOTA_DAILY_LIMIT"
	EnvQuotaCooldownS   = "SSA_QUOTA_COOLDOWN_S"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "SSA_LOG_LEVEL"
	EnvLogFormat = "SSA_LOG_FORMAT"
	EnvLogSource = "SSA_LOG_SOURCE"
	EnvLogFile   = "SSA_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "SoulSight"
	keyringToken   = "backend_token"
)

// tokenStore abstracts keyring, so we can stub in tests.
var tokenStore TokenStore = &osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore on the OS keyring via github.com/zalando/go-keyring.
// A missing entry reads as the empty token, not an error.
type osKeyring struct{}

func (k *osKeyring) Get(service, key string) (string, error) {
	v, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return v, nil
}

func (k *osKeyring) Set(service, key, value string) error {
	return keyring.Set(service, key, value)
}

func (k *osKeyring) Delete(service, key string) error {
	err := keyring.Delete(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// PrefsPath returns the per-user preference database path, next to the config file.
func PrefsPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prefs.sqlite"), nil
}

// Dir resolves the per-user application directory.
func Dir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "SoulSight")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "SoulSight")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "soulsight")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// It also loads the backend token from keyring (not kept inside the struct; returned separately).
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	// token from keyring
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return err
		}
	}
	return nil
}

// ClearToken removes the stored backend token from the OS keyring.
func ClearToken() error {
	return tokenStore.Delete(keyringService, keyringToken)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	if src.General.Language != "" {
		dst.General.Language = src.General.Language
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	if src.Backend.BaseURL != "" {
		dst.Backend.BaseURL = src.Backend.BaseURL
	}
	if src.Backend.TimeoutMs != 0 {
		dst.Backend.TimeoutMs = src.Backend.TimeoutMs
	}
	dst.Backend.TLSInsecure = src.Backend.TLSInsecure
	// speech
	if src.Speech.Engine != "" {
		dst.Speech.Engine = strings.ToLower(strings.TrimSpace(src.Speech.Engine))
	}
	if src.Speech.Command != "" {
		dst.Speech.Command = src.Speech.Command
	}
	if src.Speech.Player != "" {
		dst.Speech.Player = src.Speech.Player
	}
	if src.Speech.Lang != "" {
		dst.Speech.Lang = src.Speech.Lang
	}
	if src.Speech.Rate != 0 {
		dst.Speech.Rate = src.Speech.Rate
	}
	if src.Speech.Volume != 0 {
		dst.Speech.Volume = src.Speech.Volume
	}
	if src.Speech.RemotePath != "" {
		dst.Speech.RemotePath = src.Speech.RemotePath
	}
	// quota
	if src.Quota.DailyLimit != 0 {
		dst.Quota.DailyLimit = src.Quota.DailyLimit
	}
	if src.Quota.CooldownSeconds != 0 {
		dst.Quota.CooldownSeconds = src.Quota.CooldownSeconds
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func isTruthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTLSInsec)); v != "" {
		cfg.Backend.TLSInsecure = isTruthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = isTruthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLanguage)); v != "" {
		cfg.General.Language = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvSpeechEngine)); v != "" {
		cfg.Speech.Engine = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvSpeechCommand)); v != "" {
		cfg.Speech.Command = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSpeechPlayer)); v != "" {
		cfg.Speech.Player = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvQuotaDailyLimit)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Quota.DailyLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvQuotaCooldownS)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Quota.CooldownSeconds = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = isTruthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	var name string
	switch key {
	case "backend.base_url":
		name = EnvBackendURL
	case "backend.timeout_ms":
		name = EnvBackendTimeoutMs
	case "backend.tls_insecure":
		name = EnvBackendTLSInsec
	case "general.telemetry_opt_in":
		name = EnvTelemetryOptIn
	case "general.language":
		name = EnvLanguage
	case "speech.engine":
		name = EnvSpeechEngine
	case "speech.command":
		name = EnvSpeechCommand
	case "speech.player":
		name = EnvSpeechPlayer
	case "quota.daily_limit":
		name = EnvQuotaDailyLimit
	case "quota.cooldown_seconds":
		name = EnvQuotaCooldownS
	case "logging.level":
		name = EnvLogLevel
	case "logging.format":
		name = EnvLogFormat
	case "logging.source":
		name = EnvLogSource
	case "logging.file":
		name = EnvLogFile
	default:
		return "", false
	}
	if os.Getenv(name) != "" {
		return name, true
	}
	return "", false
}

// Timeout returns the backend timeout as a duration for http.Client.
func (b BackendConfig) Timeout() time.Duration {
	ms := b.TimeoutMs
	if ms <= 0 {
		ms = Defaults().Backend.TimeoutMs
	}
	return time.Duration(ms) * time.Millisecond
}

// EffectiveLang resolves the speech language, falling back to the app language.
func (s SpeechConfig) EffectiveLang(general GeneralConfig) string {
	if s.Lang != "" {
		return s.Lang
	}
	if general.Language != "" {
		return general.Language
	}
	return "en"
}

// Cooldown returns the quota cooldown as a duration.
func (q QuotaConfig) Cooldown() time.Duration {
	return time.Duration(q.CooldownSeconds) * time.Second
}
