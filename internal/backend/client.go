/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend is a minimal read-only HTTP client for the hosted
// SoulSight service. The client fetches analysis results, the history
// export and uploaded images; analysis itself always happens server-side.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the SoulSight server API with an optional bearer token.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a backend client. baseURL may include a trailing
// slash; it will be normalized. timeout 0 selects a 10s default.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// Result is one analysis as served by /result/{id}.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Mode       string  `json:"mode"`
	Language   string  `json:"language"`
	CreatedAt  string  `json:"created_at"`
	ImageURL   string  `json:"image_url"`
}

// FetchResult fetches a single analysis result by id.
func (c *Client) FetchResult(ctx context.Context, id int64) (*Result, error) {
	var r Result
	path := fmt.Sprintf("/result/%d", id)
	if err := c.doJSON(ctx, http.MethodGet, path, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Analysis is one history entry below an image.
type Analysis struct {
	ID             int64   `json:"id"`
	Mode           string  `json:"mode"`
	Prompt         string  `json:"prompt"`
	Text           string  `json:"result"`
	Confidence     float64 `json:"confidence"`
	Language       string  `json:"language"`
	ProcessingTime float64 `json:"processing_time"`
	CreatedAt      string  `json:"created_at"`
}

// HistoryImage groups the analyses of one uploaded image.
type HistoryImage struct {
	ImageID    int64      `json:"image_id"`
	Filename   string     `json:"filename"`
	Category   string     `json:"category"`
	UploadDate string     `json:"upload_date"`
	FileSizeMB float64    `json:"file_size_mb"`
	Analyses   []Analysis `json:"analyses"`
}

// History matches the server's history export envelope.
type History struct {
	UserEmail     string         `json:"user_email"`
	ExportDate    string         `json:"export_date"`
	TotalImages   int            `json:"total_images"`
	TotalAnalyses int            `json:"total_analyses"`
	Images        []HistoryImage `json:"history"`
}

// FetchHistory fetches the full history export for the authenticated user.
func (c *Client) FetchHistory(ctx context.Context) (*History, error) {
	var h History
	if err := c.doJSON(ctx, http.MethodGet, "/history/export-json", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// FetchImage downloads an uploaded image. ref may be absolute or a path
// relative to the server root, as served in Result.ImageURL.
func (c *Client) FetchImage(ctx context.Context, ref string) ([]byte, error) {
	u := ref
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		u = c.BaseURL + "/" + strings.TrimLeft(ref, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("server GET %s: %s", req.URL.Path, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
