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

package store

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/email-gateway-service/internal/email_logs/model"
	projectModel "github.com/wso2/email-gateway-service/internal/projects/model"
	projectStore "github.com/wso2/email-gateway-service/internal/projects/store"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	"github.com/wso2/email-gateway-service/internal/system/database/client"
	"github.com/wso2/email-gateway-service/internal/system/database/testdb"
)

var base = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*SQLEmailLogStore, int64, int64) {
	t.Helper()
	return setupOn(t, testdb.NewSQLite(t))
}

func setupOn(t *testing.T, db client.DBClientInterface) (*SQLEmailLogStore, int64, int64) {
	t.Helper()
	projects := projectStore.NewProjectStore(db)
	add := func(name string) int64 {
		id, err := projects.AddProject(context.Background(), &projectModel.Project{
			Name: name, IsActive: true, RateLimitPerMinute: 10, RateLimitPerHour: 100, CreatedAt: base, UpdatedAt: base,
		})
		require.NoError(t, err)
		return id
	}
	return NewSQLEmailLogStore(db), add("alpha"), add("beta")
}

func entry(projectID int64, subject string, at time.Time) *model.EmailLog {
	return &model.EmailLog{
		RequestID:       uuid.NewString(),
		ProjectID:       projectID,
		ToEmails:        []string{"a@example.com"},
		Subject:         subject,
		BodyHTML:        "<p>hi</p>",
		AttachmentNames: []string{},
		CreatedAt:       at,
	}
}

func TestAppendIsIdempotentOnRequestID(t *testing.T) {
	s, alpha, _ := setup(t)
	ctx := context.Background()

	e := entry(alpha, "Welcome", base)
	first, created, err := s.Append(ctx, e)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, constants.StatusQueued, first.Status)

	again := *e
	again.Subject = "changed"
	second, created, err := s.Append(ctx, &again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Welcome", second.Subject)
	assert.Equal(t, "alpha", second.ProjectName)
	assert.Equal(t, []string{"a@example.com"}, second.ToEmails)
}

func TestMarkOutcomeHappensOnce(t *testing.T) {
	s, alpha, _ := setup(t)
	ctx := context.Background()

	stored, _, err := s.Append(ctx, entry(alpha, "Receipt", base))
	require.NoError(t, err)

	sentAt := base.Add(time.Second)
	require.NoError(t, s.MarkOutcome(ctx, stored.ID, model.Outcome{
		Status: constants.StatusSent, ProviderMessageID: "<id@x>", SentAt: &sentAt,
	}))

	err = s.MarkOutcome(ctx, stored.ID, model.Outcome{Status: constants.StatusFailed, ErrorMessage: "late"})
	assert.ErrorIs(t, err, ErrStatusFinal)

	err = s.MarkOutcome(ctx, stored.ID+1000, model.Outcome{Status: constants.StatusSent})
	assert.ErrorIs(t, err, ErrLogNotFound)

	got, err := s.Get(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusSent, got.Status)
	require.NotNil(t, got.ProviderMessageID)
	assert.Equal(t, "<id@x>", *got.ProviderMessageID)
	require.NotNil(t, got.SentAt)
	assert.Equal(t, sentAt, *got.SentAt)
	assert.Nil(t, got.ErrorMessage)
}

func TestQueryFiltersAndOrdering(t *testing.T) {
	s, alpha, beta := setup(t)
	ctx := context.Background()

	for i, subject := range []string{"Invoice 1", "Password reset", "Invoice 2", "100% off_sale"} {
		stored, _, err := s.Append(ctx, entry(alpha, subject, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
		if i == 1 {
			require.NoError(t, s.MarkOutcome(ctx, stored.ID, model.Outcome{
				Status: constants.StatusFailed, ErrorMessage: "Mailbox FULL",
			}))
		}
	}
	_, _, err := s.Append(ctx, entry(beta, "Invoice beta", base.Add(time.Hour)))
	require.NoError(t, err)

	all, err := s.Query(ctx, model.LogFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(5), all.Total)
	assert.Equal(t, "Invoice beta", all.Items[0].Subject)
	assert.Equal(t, "Invoice 1", all.Items[4].Subject)

	byProject, err := s.Query(ctx, model.LogFilter{ProjectID: &alpha, Search: "invoice"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), byProject.Total)

	byError, err := s.Query(ctx, model.LogFilter{Search: "mailbox full"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, byError.Items, 1)
	assert.Equal(t, "Password reset", byError.Items[0].Subject)

	failed, err := s.Query(ctx, model.LogFilter{Status: constants.StatusFailed}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), failed.Total)

	literal, err := s.Query(ctx, model.LogFilter{Search: "0% off_"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), literal.Total)

	wildcard, err := s.Query(ctx, model.LogFilter{Search: "%"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), wildcard.Total)
}

func TestQueryPaginationInvariants(t *testing.T) {
	s, alpha, _ := setup(t)
	ctx := context.Background()

	const n = 23
	for i := 0; i < n; i++ {
		_, _, err := s.Append(ctx, entry(alpha, fmt.Sprintf("mail %d", i), base.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}

	for _, pageSize := range []int{1, 5, 7, 23, 50} {
		seen := map[int64]bool{}
		for page := 1; ; page++ {
			result, err := s.Query(ctx, model.LogFilter{}, page, pageSize)
			require.NoError(t, err)
			assert.Equal(t, int64(n), result.Total)
			if len(result.Items) == 0 {
				break
			}
			for _, item := range result.Items {
				assert.False(t, seen[item.ID], "duplicate id %d", item.ID)
				seen[item.ID] = true
			}
		}
		assert.Len(t, seen, n, "page size %d", pageSize)
	}

	for _, bad := range [][2]int{{0, 10}, {-1, 10}, {1, 0}, {1, -5}, {99, 10}, {92233720368547761, 100}, {math.MaxInt, constants.MaxPageSize}} {
		result, err := s.Query(ctx, model.LogFilter{}, bad[0], bad[1])
		require.NoError(t, err)
		assert.Empty(t, result.Items)
		assert.NotNil(t, result.Items)
		assert.Equal(t, int64(n), result.Total)
	}
}

func TestAggregates(t *testing.T) {
	s, alpha, beta := setup(t)
	ctx := context.Background()

	mark := func(projectID int64, status string, at time.Time) int64 {
		stored, _, err := s.Append(ctx, entry(projectID, "x", at))
		require.NoError(t, err)
		if status != constants.StatusQueued {
			require.NoError(t, s.MarkOutcome(ctx, stored.ID, model.Outcome{Status: status, ErrorMessage: "boom"}))
		}
		return stored.ID
	}
	mark(alpha, constants.StatusSent, base)
	mark(alpha, constants.StatusSent, base.Add(time.Minute))
	first := mark(alpha, constants.StatusFailed, base.Add(2*time.Minute))
	mark(beta, constants.StatusFailed, base.Add(3*time.Minute))
	latest := mark(alpha, constants.StatusFailed, base.Add(4*time.Minute))

	sent, err := s.CountByStatusSince(ctx, constants.StatusSent, base.Add(30*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), sent)

	top, err := s.TopProjects(ctx, base, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, model.ProjectVolume{ProjectName: "alpha", Total: 4, Sent: 2, Failed: 2}, top[0])

	recent, err := s.RecentFailures(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, latest, recent[0].ID)
	assert.Equal(t, "boom", recent[0].ErrorMessage)

	marks, err := s.FailuresSince(ctx, alpha, base)
	require.NoError(t, err)
	assert.Equal(t, []model.FailureMark{
		{ID: first, CreatedAt: base.Add(2 * time.Minute)},
		{ID: latest, CreatedAt: base.Add(4 * time.Minute)},
	}, marks)

	marks, err = s.FailuresSince(ctx, alpha, base.Add(3*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []model.FailureMark{{ID: latest, CreatedAt: base.Add(4 * time.Minute)}}, marks)
}
