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

package service

import (
	"context"
	"net/http"
	"strconv"
	"time"

	projectModel "github.com/wso2/email-gateway-service/internal/projects/model"
	"github.com/wso2/email-gateway-service/internal/rate_limit/model"
	"github.com/wso2/email-gateway-service/internal/system/arena"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	errors2 "github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/log"
	"github.com/wso2/email-gateway-service/internal/system/window"
)

// LimitSource reads the current admission settings of a project. It returns nil when the
// project does not exist.
type LimitSource interface {
	GetLimits(ctx context.Context, projectID int64) (*projectModel.Limits, error)
}

// RateLimiterInterface admits or rejects sends per project.
type RateLimiterInterface interface {
	Allow(ctx context.Context, projectID int64, n int) (model.Decision, error)
	Forget(projectID int64)
}

type counters struct {
	minute *window.Log
	hour   *window.Log
}

// RateLimiter enforces the per-minute and per-hour quotas of each project with a sliding log.
type RateLimiter struct {
	limits LimitSource
	arena  *arena.Arena[counters]
	now    func() time.Time
}

func NewRateLimiter(limits LimitSource) *RateLimiter {
	return &RateLimiter{
		limits: limits,
		arena: arena.New(func(int64) *counters {
			return &counters{
				minute: window.New(constants.MinuteWindow),
				hour:   window.New(constants.HourWindow),
			}
		}),
		now: time.Now,
	}
}

// WithClock replaces the clock. Used by tests.
func (l *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	l.now = now
	l.arena.WithClock(now)
	return l
}

// Allow admits n sends for a project if both windows have room, consuming quota only when
// admitted. Limits are read on every call so edits and deactivation apply immediately.
func (l *RateLimiter) Allow(ctx context.Context, projectID int64, n int) (model.Decision, error) {

	if n <= 0 {
		return model.Decision{}, errors2.NewClientError(errors2.Describe(errors2.RATE_LIMIT_VALIDATION,
			"The number of requested sends must be positive."), http.StatusBadRequest)
	}
	limits, err := l.limits.GetLimits(ctx, projectID)
	if err != nil {
		return model.Decision{}, err
	}
	if limits == nil {
		return model.Decision{}, errors2.NewClientError(errors2.Describe(errors2.PROJECT_NOT_FOUND,
			"No project exists with id "+strconv.FormatInt(projectID, 10)+"."), http.StatusNotFound)
	}
	if !limits.IsActive {
		return model.Decision{}, errors2.NewClientError(errors2.PROJECT_INACTIVE, http.StatusForbidden)
	}

	var decision model.Decision
	_ = l.arena.Do(projectID, func(c *counters) error {
		now := l.now()
		minuteOK, minuteWait := c.minute.Check(now, n, limits.PerMinute)
		hourOK, hourWait := c.hour.Check(now, n, limits.PerHour)
		if minuteOK && hourOK {
			c.minute.Add(now, n)
			c.hour.Add(now, n)
			decision = model.Decision{Allowed: true}
			return nil
		}
		// Report the window whose wait is longest; both must clear.
		if !hourOK && (minuteOK || hourWait >= minuteWait) {
			decision = model.Decision{RetryAfter: hourWait, Window: model.WindowHour, Limit: limits.PerHour}
		} else {
			decision = model.Decision{RetryAfter: minuteWait, Window: model.WindowMinute, Limit: limits.PerMinute}
		}
		return nil
	})

	if !decision.Allowed {
		log.GetLogger().WithContext(ctx).Debug("Send rejected by rate limiter",
			log.Int64("project_id", projectID), log.String("window", decision.Window),
			log.Duration("retry_after", decision.RetryAfter))
	}
	return decision, nil
}

// Forget drops the counters of a project.
func (l *RateLimiter) Forget(projectID int64) {
	l.arena.Forget(projectID)
}

// StartSweeper evicts counters idle for longer than ttl. ttl is raised to the hour window so
// a sweep never drops events that still count.
func (l *RateLimiter) StartSweeper(interval, ttl time.Duration) {
	if ttl < constants.HourWindow {
		ttl = constants.HourWindow
	}
	l.arena.StartSweeper(interval, ttl)
}

func (l *RateLimiter) Stop() {
	l.arena.Stop()
}

// RateLimitedError converts a denial into the client error returned to senders.
func RateLimitedError(d model.Decision) error {
	return errors2.NewRateLimitedError(errors2.Describe(errors2.RATE_LIMITED,
		"The "+d.Window+" limit of "+strconv.Itoa(d.Limit)+" emails has been reached."), d.RetryAfter)
}
