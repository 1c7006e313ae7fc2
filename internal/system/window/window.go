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

// Package window implements a trailing-window sliding log of event times.
package window

import "time"

// Log records event times and answers how many fall inside the trailing span ending now.
// An event at t is inside the window at now while now-t < span. A Log is not safe for
// concurrent use; callers serialize access per key.
type Log struct {
	span  time.Duration
	times []time.Time
	head  int
}

// New returns an empty log over the given span.
func New(span time.Duration) *Log {
	return &Log{span: span}
}

// Span returns the window length.
func (l *Log) Span() time.Duration {
	return l.span
}

// Prune drops every event that has left the window at now.
func (l *Log) Prune(now time.Time) {
	for l.head < len(l.times) && now.Sub(l.times[l.head]) >= l.span {
		l.head++
	}
	// Compact once the dead prefix dominates the backing array.
	if l.head > 0 && l.head*2 >= len(l.times) {
		n := copy(l.times, l.times[l.head:])
		clear(l.times[n:])
		l.times = l.times[:n]
		l.head = 0
	}
}

// Count prunes and returns the number of events inside the window at now.
func (l *Log) Count(now time.Time) int {
	l.Prune(now)
	return len(l.times) - l.head
}

// Add records n events at now. Event times must be non-decreasing.
func (l *Log) Add(now time.Time, n int) {
	for i := 0; i < n; i++ {
		l.times = append(l.times, now)
	}
}

// Check reports whether n more events fit under limit at now without recording them.
// When they do not, retryAfter is the wait until enough events age out. A request larger
// than limit can never fit and waits a full span.
func (l *Log) Check(now time.Time, n, limit int) (ok bool, retryAfter time.Duration) {
	count := l.Count(now)
	if count+n <= limit {
		return true, 0
	}
	if n > limit {
		return false, l.span
	}
	// The oldest (count+n-limit) events must expire before n more fit.
	idx := l.head + count + n - limit - 1
	retryAfter = l.times[idx].Add(l.span).Sub(now)
	if retryAfter <= 0 {
		retryAfter = time.Millisecond
	}
	return false, retryAfter
}

// Oldest returns the oldest event inside the window, if any. Call Prune first.
func (l *Log) Oldest() (time.Time, bool) {
	if l.head >= len(l.times) {
		return time.Time{}, false
	}
	return l.times[l.head], true
}

// Reset forgets every event.
func (l *Log) Reset() {
	l.times = l.times[:0]
	l.head = 0
}
