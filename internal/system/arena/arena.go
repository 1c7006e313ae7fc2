/*
 * Copyright (c) 2026, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package arena keeps per-project mutable state, each entry behind its own mutex.
package arena

import (
	"sync"
	"time"
)

type slot[V any] struct {
	mu       sync.Mutex
	value    *V
	lastUsed time.Time
	evicted  bool
}

// Arena maps project ids to state. The map lock only guards lookup and insert; work on
// one entry never blocks another.
type Arena[V any] struct {
	mu      sync.RWMutex
	entries map[int64]*slot[V]
	newFn   func(key int64) *V
	now     func() time.Time

	stopCh    chan struct{}
	stoppedCh chan struct{}
	stopOnce  sync.Once
}

// New creates an arena that builds missing entries with newFn.
func New[V any](newFn func(key int64) *V) *Arena[V] {
	return &Arena[V]{
		entries: make(map[int64]*slot[V]),
		newFn:   newFn,
		now:     time.Now,
	}
}

// WithClock replaces the clock used to track idleness.
func (a *Arena[V]) WithClock(now func() time.Time) *Arena[V] {
	a.now = now
	return a
}

func (a *Arena[V]) slot(key int64) *slot[V] {

	a.mu.RLock()
	s, exists := a.entries[key]
	a.mu.RUnlock()
	if exists {
		return s
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	// Double-check after acquiring write lock
	s, exists = a.entries[key]
	if !exists {
		s = &slot[V]{}
		a.entries[key] = s
	}
	return s
}

// Do runs fn with exclusive access to the entry of key, creating the entry if needed.
func (a *Arena[V]) Do(key int64, fn func(v *V) error) error {

	for {
		s := a.slot(key)
		s.mu.Lock()
		if s.evicted {
			// Lost a race with Forget or Sweep; the next lookup sees a fresh slot.
			s.mu.Unlock()
			continue
		}
		if s.value == nil {
			s.value = a.newFn(key)
		}
		s.lastUsed = a.now()
		err := fn(s.value)
		s.mu.Unlock()
		return err
	}
}

// Forget drops the entry of key.
func (a *Arena[V]) Forget(key int64) {

	a.mu.Lock()
	s, exists := a.entries[key]
	delete(a.entries, key)
	a.mu.Unlock()
	if exists {
		s.mu.Lock()
		s.evicted = true
		s.mu.Unlock()
	}
}

// Len returns the number of live entries.
func (a *Arena[V]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries)
}

// Sweep removes entries idle for at least ttl. Entries in use are skipped.
func (a *Arena[V]) Sweep(ttl time.Duration) int {

	cutoff := a.now().Add(-ttl)
	removed := 0

	a.mu.Lock()
	defer a.mu.Unlock()
	for key, s := range a.entries {
		if !s.mu.TryLock() {
			continue
		}
		if !s.lastUsed.After(cutoff) {
			s.evicted = true
			delete(a.entries, key)
			removed++
		}
		s.mu.Unlock()
	}
	return removed
}

// StartSweeper runs Sweep every interval until Stop is called.
func (a *Arena[V]) StartSweeper(interval, ttl time.Duration) {

	a.stopCh = make(chan struct{})
	a.stoppedCh = make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer close(a.stoppedCh)
		for {
			select {
			case <-ticker.C:
				a.Sweep(ttl)
			case <-a.stopCh:
				return
			}
		}
	}()
}

// Stop stops the sweeper goroutine, if one is running.
func (a *Arena[V]) Stop() {
	if a.stopCh == nil {
		return
	}
	a.stopOnce.Do(func() {
		close(a.stopCh)
		<-a.stoppedCh
	})
}
