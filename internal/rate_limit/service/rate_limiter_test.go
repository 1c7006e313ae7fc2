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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	projectModel "github.com/wso2/email-gateway-service/internal/projects/model"
	"github.com/wso2/email-gateway-service/internal/rate_limit/model"
	"github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/log"
)

type fakeLimits struct {
	mu     sync.Mutex
	limits map[int64]*projectModel.Limits
}

func (f *fakeLimits) GetLimits(_ context.Context, id int64) (*projectModel.Limits, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limits[id]
	if !ok {
		return nil, nil
	}
	copied := *l
	return &copied, nil
}

func (f *fakeLimits) set(id int64, l projectModel.Limits) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits[id] = &l
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newLimiter(t *testing.T, perMinute, perHour int) (*RateLimiter, *fakeLimits, *clock) {
	t.Helper()
	_ = log.Init("DEBUG")
	source := &fakeLimits{limits: map[int64]*projectModel.Limits{}}
	source.set(1, projectModel.Limits{IsActive: true, PerMinute: perMinute, PerHour: perHour})
	c := &clock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	return NewRateLimiter(source).WithClock(c.Now), source, c
}

func TestFiveSendsAdmittedSixthDenied(t *testing.T) {
	limiter, _, c := newLimiter(t, 5, 1000)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d, err := limiter.Allow(ctx, 1, 1)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "send %d", i+1)
		c.Advance(2 * time.Second)
	}

	d, err := limiter.Allow(ctx, 1, 1)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, model.WindowMinute, d.Window)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	// The first send happened 10s ago and leaves the window 50s from now.
	assert.Equal(t, 50*time.Second, d.RetryAfter)
}

func TestSlidingWindowHasNoEdgeBurst(t *testing.T) {
	limiter, _, c := newLimiter(t, 3, 1000)
	ctx := context.Background()

	c.Advance(59 * time.Second)
	for i := 0; i < 3; i++ {
		d, err := limiter.Allow(ctx, 1, 1)
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}
	// A fixed bucket would reset here.
	c.Advance(2 * time.Second)
	d, err := limiter.Allow(ctx, 1, 1)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	c.Advance(58 * time.Second)
	d, err = limiter.Allow(ctx, 1, 1)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestDeniedRequestsConsumeNothing(t *testing.T) {
	limiter, _, c := newLimiter(t, 2, 1000)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, _ := limiter.Allow(ctx, 1, 1)
		require.True(t, d.Allowed)
	}
	for i := 0; i < 10; i++ {
		d, _ := limiter.Allow(ctx, 1, 1)
		require.False(t, d.Allowed)
		c.Advance(time.Second)
	}
	// 60s after the admitted pair, both slots are free again.
	c.Advance(50 * time.Second)
	for i := 0; i < 2; i++ {
		d, _ := limiter.Allow(ctx, 1, 1)
		assert.True(t, d.Allowed)
	}
}

func TestHourWindowDenies(t *testing.T) {
	limiter, _, c := newLimiter(t, 100, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, _ := limiter.Allow(ctx, 1, 1)
		require.True(t, d.Allowed)
		c.Advance(5 * time.Minute)
	}
	d, err := limiter.Allow(ctx, 1, 1)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, model.WindowHour, d.Window)
	assert.Equal(t, 45*time.Minute, d.RetryAfter)
}

func TestBatchLargerThanLimit(t *testing.T) {
	limiter, _, _ := newLimiter(t, 5, 1000)

	d, err := limiter.Allow(context.Background(), 1, 6)

	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.RetryAfter)
}

func TestAllowErrors(t *testing.T) {
	limiter, source, _ := newLimiter(t, 5, 1000)
	ctx := context.Background()

	_, err := limiter.Allow(ctx, 1, 0)
	assert.True(t, errors.IsClientError(err, http.StatusBadRequest))

	_, err = limiter.Allow(ctx, 77, 1)
	assert.True(t, errors.HasCode(err, errors.PROJECT_NOT_FOUND))

	source.set(1, projectModel.Limits{IsActive: false, PerMinute: 5, PerHour: 1000})
	_, err = limiter.Allow(ctx, 1, 1)
	assert.True(t, errors.HasCode(err, errors.PROJECT_INACTIVE))
}

func TestLimitChangesApplyImmediately(t *testing.T) {
	limiter, source, _ := newLimiter(t, 5, 1000)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, _ := limiter.Allow(ctx, 1, 1)
		require.True(t, d.Allowed)
	}
	source.set(1, projectModel.Limits{IsActive: true, PerMinute: 2, PerHour: 1000})

	d, err := limiter.Allow(ctx, 1, 1)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestConcurrentCallersNeverExceedLimit(t *testing.T) {
	const limit = 25
	limiter, _, _ := newLimiter(t, limit, 1000)
	ctx := context.Background()

	var admitted int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := limiter.Allow(ctx, 1, 1)
			if err == nil && d.Allowed {
				atomic.AddInt64(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(limit), admitted)
}

func TestForgetResetsCounters(t *testing.T) {
	limiter, _, _ := newLimiter(t, 1, 1000)
	ctx := context.Background()

	d, _ := limiter.Allow(ctx, 1, 1)
	require.True(t, d.Allowed)
	d, _ = limiter.Allow(ctx, 1, 1)
	require.False(t, d.Allowed)

	limiter.Forget(1)

	d, _ = limiter.Allow(ctx, 1, 1)
	assert.True(t, d.Allowed)
}

func TestRateLimitedErrorCarriesRetryAfter(t *testing.T) {
	err := RateLimitedError(model.Decision{RetryAfter: 1500 * time.Millisecond, Window: model.WindowMinute, Limit: 5})

	assert.True(t, errors.IsClientError(err, http.StatusTooManyRequests))
	var clientErr *errors.ClientError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, 1500*time.Millisecond, clientErr.RetryAfter)
}
