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
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wso2/email-gateway-service/internal/dashboard/model"
	logModel "github.com/wso2/email-gateway-service/internal/email_logs/model"
	"github.com/wso2/email-gateway-service/internal/system/cache"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	"github.com/wso2/email-gateway-service/internal/system/log"
)

const statsCacheKey = "stats"

type LogAggregates interface {
	CountByStatusSince(ctx context.Context, status string, since time.Time) (int64, error)
	TopProjects(ctx context.Context, since time.Time, limit int) ([]logModel.ProjectVolume, error)
	RecentFailures(ctx context.Context, limit int) ([]logModel.FailureSummary, error)
}

type ProjectCounter interface {
	CountProjects(ctx context.Context) (total int64, active int64, err error)
}

type PendingCounter interface {
	PendingCount(ctx context.Context) (int64, error)
}

type DashboardServiceInterface interface {
	GetStats(ctx context.Context) (*model.Stats, error)
}

type DashboardService struct {
	logs     LogAggregates
	projects ProjectCounter
	pending  PendingCounter
	cache    *cache.Cache[model.Stats]
	now      func() time.Time
}

// NewDashboardService builds the dashboard. A positive ttl caches computed stats for that long.
func NewDashboardService(logs LogAggregates, projects ProjectCounter, pending PendingCounter,
	ttl time.Duration) *DashboardService {
	s := &DashboardService{logs: logs, projects: projects, pending: pending, now: time.Now}
	if ttl > 0 {
		s.cache = cache.NewCache[model.Stats](ttl)
	}
	return s
}

func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	if s.cache != nil {
		s.cache.WithClock(now)
	}
	return s
}

// GetStats computes every aggregate concurrently. The first failing query cancels the rest.
func (s *DashboardService) GetStats(ctx context.Context) (*model.Stats, error) {

	if s.cache != nil {
		if cached, ok := s.cache.Get(statsCacheKey); ok {
			return &cached, nil
		}
	}

	now := s.now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	week := day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var stats model.Stats
	var failedThisMonth int64
	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int64, status string, since time.Time) {
		g.Go(func() error {
			n, err := s.logs.CountByStatusSince(gctx, status, since)
			*dst = n
			return err
		})
	}
	count(&stats.SentToday, constants.StatusSent, day)
	count(&stats.SentThisWeek, constants.StatusSent, week)
	count(&stats.SentThisMonth, constants.StatusSent, month)
	count(&stats.FailedToday, constants.StatusFailed, day)
	count(&stats.FailedThisWeek, constants.StatusFailed, week)
	count(&failedThisMonth, constants.StatusFailed, month)
	g.Go(func() error {
		var err error
		stats.TotalProjects, stats.ActiveProjects, err = s.projects.CountProjects(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.PendingEscalations, err = s.pending.PendingCount(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TopProjects, err = s.logs.TopProjects(gctx, month, constants.TopProjectsLimit)
		return err
	})
	g.Go(func() error {
		var err error
		stats.RecentFailures, err = s.logs.RecentFailures(gctx, constants.RecentFailuresLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		log.GetLogger().WithContext(ctx).Error("Failed to compute dashboard statistics", log.Error(err))
		return nil, err
	}

	stats.FailureRatePercent = failureRate(stats.SentThisMonth, failedThisMonth)
	if stats.TopProjects == nil {
		stats.TopProjects = []logModel.ProjectVolume{}
	}
	if stats.RecentFailures == nil {
		stats.RecentFailures = []logModel.FailureSummary{}
	}
	if s.cache != nil {
		s.cache.Set(statsCacheKey, stats)
	}
	return &stats, nil
}

// failureRate is failed / (sent + failed) as a percentage with one decimal, 0 without traffic.
func failureRate(sent, failed int64) float64 {
	if sent+failed == 0 {
		return 0
	}
	return math.Round(float64(failed)*1000/float64(sent+failed)) / 10
}
