/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package quota paces hosted speech requests: a cooldown between calls and
// a daily cap, mirroring the limits the SoulSight service enforces so the
// client declines locally instead of collecting server rejections. State is
// persisted through the preference store and therefore survives restarts.
package quota

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"soulsight/internal/prefs"
)

// Preference keys holding the pacing state.
const (
	keyLastCall   = "speech.lastCall"
	keyDailyCount = "speech.dailyCount"
	keyDailyDate  = "speech.dailyDate"
)

const dateLayout = "2006-01-02"

// Config carries the limits. Zero values disable the respective check.
type Config struct {
	DailyLimit int
	Cooldown   time.Duration
}

// Decision is the outcome of an Allow call.
type Decision struct {
	OK     bool
	Wait   time.Duration // remaining cooldown when denied by pacing
	Reason string        // user-facing denial message
}

// Status is a point-in-time snapshot for display.
type Status struct {
	Used         int
	Limit        int
	Remaining    int
	CooldownLeft time.Duration
	Date         string
}

// DeniedError is returned by callers that turn a negative Decision into an
// error, such as the metered speech engine.
type DeniedError struct {
	Wait   time.Duration
	Reason string
}

func (e *DeniedError) Error() string { return e.Reason }

// Keeper tracks request pacing against the configured limits.
type Keeper struct {
	cfg   Config
	store prefs.Store

	mu  sync.Mutex
	now func() time.Time
}

// New returns a keeper reading and writing pacing state through store.
func New(cfg Config, store prefs.Store) *Keeper {
	return &Keeper{cfg: cfg, store: store, now: time.Now}
}

// Allow reports whether a hosted speech request may start now. It does not
// consume quota; pair it with Record once the request is actually issued.
func (k *Keeper) Allow() Decision {
	k.mu.Lock()
	defer k.mu.Unlock()
	now := k.now()

	if k.cfg.Cooldown > 0 {
		if last, ok := k.lastCall(); ok {
			if left := k.cfg.Cooldown - now.Sub(last); left > 0 {
				return Decision{
					Wait:   left,
					Reason: fmt.Sprintf("Please wait %d seconds before the next narration.", int(left.Seconds())+1),
				}
			}
		}
	}

	if k.cfg.DailyLimit > 0 {
		if k.usedToday(now) >= k.cfg.DailyLimit {
			return Decision{
				Reason: fmt.Sprintf("Daily narration limit of %d reached. Try again tomorrow.", k.cfg.DailyLimit),
			}
		}
	}
	return Decision{OK: true}
}

// Record consumes one unit of quota and stamps the cooldown clock.
func (k *Keeper) Record() {
	k.mu.Lock()
	defer k.mu.Unlock()
	now := k.now()
	k.store.Set(keyLastCall, now.Format(time.RFC3339))
	today := now.Format(dateLayout)
	used := 0
	if k.store.Get(keyDailyDate, "") == today {
		used = k.count()
	}
	k.store.Set(keyDailyDate, today)
	k.store.Set(keyDailyCount, strconv.Itoa(used+1))
}

// Status returns the current usage snapshot.
func (k *Keeper) Status() Status {
	k.mu.Lock()
	defer k.mu.Unlock()
	now := k.now()
	used := k.usedToday(now)
	st := Status{
		Used:  used,
		Limit: k.cfg.DailyLimit,
		Date:  now.Format(dateLayout),
	}
	if k.cfg.DailyLimit > 0 {
		st.Remaining = k.cfg.DailyLimit - used
		if st.Remaining < 0 {
			st.Remaining = 0
		}
	}
	if k.cfg.Cooldown > 0 {
		if last, ok := k.lastCall(); ok {
			if left := k.cfg.Cooldown - now.Sub(last); left > 0 {
				st.CooldownLeft = left
			}
		}
	}
	return st
}

// Reset clears all pacing state, the maintenance-tool path.
func (k *Keeper) Reset() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.store.Set(keyLastCall, "")
	k.store.Set(keyDailyCount, "0")
	k.store.Set(keyDailyDate, "")
}

// lastCall requires k.mu held.
func (k *Keeper) lastCall() (time.Time, bool) {
	v := k.store.Get(keyLastCall, "")
	if v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// usedToday requires k.mu held. A stored date other than today reads as
// zero usage; the stale row is overwritten on the next Record.
func (k *Keeper) usedToday(now time.Time) int {
	if k.store.Get(keyDailyDate, "") != now.Format(dateLayout) {
		return 0
	}
	return k.count()
}

// count requires k.mu held.
func (k *Keeper) count() int {
	n, err := strconv.Atoi(k.store.Get(keyDailyCount, "0"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
