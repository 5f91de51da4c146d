// tracker.go
//
// Travel journal service: trips, steps, photos, comments and location check-ins
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of myway-api.
// myway-api is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// myway-api is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with myway-api.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package tracker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/localnerve/myway-api/internal/models"
)

// DefaultInterval is the sampling period once tracking is running
const DefaultInterval = 5 * time.Second

// State of a Tracker
type State int32

const (
	Idle State = iota
	Armed
	Sampling
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Sampling:
		return "sampling"
	}
	return "unknown"
}

var (
	ErrAlreadyStarted   = errors.New("tracker already started")
	ErrConsentDeclined  = errors.New("tracking consent declined")
	ErrPermissionDenied = errors.New("location permission denied")
	ErrOutsideWindow    = errors.New("now is outside the trip window")
)

// Position is a device fix
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Locator is the device location source
type Locator interface {
	RequestPermission(ctx context.Context) (bool, error)
	CurrentPosition(ctx context.Context) (Position, error)
}

// Consent asks the user whether to track the trip
type Consent interface {
	Confirm(ctx context.Context) (bool, error)
}

// Sender forwards a sample to the check-in endpoint
type Sender interface {
	SendLocation(ctx context.Context, pos Position, at time.Time) error
}

// Window is the trip's [Start, End] range. A nil End never expires.
type Window struct {
	Start time.Time
	End   *time.Time
}

// TripWindow is the tracking window of a trip
func TripWindow(trip *models.Trip) Window {
	return Window{Start: trip.StartDate, End: trip.EndDate}
}

// Contains reports whether t falls inside the window, bounds included
func (w Window) Contains(t time.Time) bool {
	trip := models.Trip{StartDate: w.Start, EndDate: w.End}
	return trip.Contains(t)
}

// Config for a Tracker. Zero values fall back to defaults.
type Config struct {
	Interval time.Duration
	Now      func() time.Time
	// OnComplete runs after each forwarded sample, after any failure, and when arming stops short
	OnComplete func()
}

// Tracker samples the device position on an interval while a trip is active and
// forwards each new point. The window is checked once, when tracking starts.
type Tracker struct {
	locator Locator
	consent Consent
	sender  Sender
	cfg     Config

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
	last   *Position
}

func New(locator Locator, consent Consent, sender Sender, cfg Config) *Tracker {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.OnComplete == nil {
		cfg.OnComplete = func() {}
	}
	return &Tracker{locator: locator, consent: consent, sender: sender, cfg: cfg}
}

// State returns the current state
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Start asks for consent and permission, checks the window, then samples immediately
// and on every interval until Stop or ctx is cancelled. Any refusal leaves the tracker Idle.
func (t *Tracker) Start(ctx context.Context, w Window) error {
	t.mu.Lock()
	if t.state != Idle {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	t.state = Armed
	t.mu.Unlock()

	if err := t.arm(ctx, w); err != nil {
		t.setState(Idle)
		t.cfg.OnComplete()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	t.mu.Lock()
	t.state = Sampling
	t.cancel = cancel
	t.done = done
	t.last = nil
	t.mu.Unlock()

	go t.run(runCtx, done)
	return nil
}

func (t *Tracker) arm(ctx context.Context, w Window) error {
	ok, err := t.consent.Confirm(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConsentDeclined
	}

	ok, err = t.locator.RequestPermission(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}

	if !w.Contains(t.cfg.Now()) {
		return ErrOutsideWindow
	}
	return nil
}

// Stop cancels sampling and waits for the sampler to exit. Safe to call when idle.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (t *Tracker) run(ctx context.Context, done chan struct{}) {
	defer func() {
		t.setState(Idle)
		close(done)
	}()

	t.sample(ctx)

	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.sample(ctx)
		}
	}
}

// sample reads one fix. An unchanged point is dropped without calling OnComplete.
func (t *Tracker) sample(ctx context.Context) {
	pos, err := t.locator.CurrentPosition(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Printf("[TRACKER] position unavailable: %v", err)
		t.cfg.OnComplete()
		return
	}

	if t.last != nil && *t.last == pos {
		return
	}
	t.last = &pos

	if err := t.sender.SendLocation(ctx, pos, t.cfg.Now()); err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Printf("[TRACKER] send failed for (%v, %v): %v", pos.Latitude, pos.Longitude, err)
	}
	t.cfg.OnComplete()
}

func (t *Tracker) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}
