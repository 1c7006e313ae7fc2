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
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logModel "github.com/wso2/email-gateway-service/internal/email_logs/model"
	logStore "github.com/wso2/email-gateway-service/internal/email_logs/store"
	"github.com/wso2/email-gateway-service/internal/escalation/model"
	"github.com/wso2/email-gateway-service/internal/escalation/policy"
	"github.com/wso2/email-gateway-service/internal/escalation/store"
	projectModel "github.com/wso2/email-gateway-service/internal/projects/model"
	projectStore "github.com/wso2/email-gateway-service/internal/projects/store"
	"github.com/wso2/email-gateway-service/internal/system/config"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	"github.com/wso2/email-gateway-service/internal/system/database/client"
	"github.com/wso2/email-gateway-service/internal/system/database/testdb"
	"github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/log"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type staticHistory struct {
	marks []logModel.FailureMark
}

func (h *staticHistory) FailuresSince(_ context.Context, _ int64, since time.Time) ([]logModel.FailureMark, error) {
	var out []logModel.FailureMark
	for _, m := range h.marks {
		if !m.CreatedAt.Before(since) {
			out = append(out, m)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []model.Event
}

func (n *recordingNotifier) Notify(events []model.Event) {
	n.mu.Lock()
	n.events = append(n.events, events...)
	n.mu.Unlock()
}

type engineFixture struct {
	db       client.DBClientInterface
	opts     EngineOptions
	engine   *Engine
	contacts *ContactService
	events   *store.EventStore
	history  *staticHistory
	notifier *recordingNotifier
	clock    *testClock
	project  int64
}

func newEngineFixture(t *testing.T, resetOnSuccess bool) *engineFixture {
	t.Helper()
	_ = log.Init("DEBUG")
	db := testdb.NewSQLite(t)

	projects := projectStore.NewProjectStore(db)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	projectID, err := projects.AddProject(context.Background(), &projectModel.Project{
		Name: "billing", IsActive: true, RateLimitPerMinute: 60, RateLimitPerHour: 1000,
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	p, err := policy.New(config.DefaultTierRules(), time.Hour)
	require.NoError(t, err)

	f := &engineFixture{
		db:       db,
		opts:     EngineOptions{Policy: p, ResetOnSuccess: resetOnSuccess},
		events:   store.NewEventStore(db),
		history:  &staticHistory{},
		notifier: &recordingNotifier{},
		clock:    &testClock{now: now},
		project:  projectID,
	}
	contactStore := store.NewContactStore(db)
	f.contacts = NewContactService(contactStore, projects)
	f.useHistory(f.history)
	return f
}

// useHistory rebuilds the engine on top of another failure history.
func (f *engineFixture) useHistory(history FailureHistory) {
	f.engine = NewEngine(store.NewContactStore(f.db), f.events, history, f.notifier, f.opts).WithClock(f.clock.Now)
}

// logFailures appends n entries to a real log store and marks them failed, one second apart.
func (f *engineFixture) logFailures(t *testing.T, n int) (*logStore.SQLEmailLogStore, []int64) {
	t.Helper()
	ctx := context.Background()
	logs := logStore.NewSQLEmailLogStore(f.db)
	ids := make([]int64, 0, n)
	start := f.clock.Now().Add(-time.Duration(n) * time.Second)
	for i := 0; i < n; i++ {
		stored, _, err := logs.Append(ctx, &logModel.EmailLog{
			RequestID: uuid.NewString(), ProjectID: f.project, ToEmails: []string{"a@example.com"},
			Subject: "Invoice", BodyHTML: "<p>x</p>", AttachmentNames: []string{},
			CreatedAt: start.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
		require.NoError(t, logs.MarkOutcome(ctx, stored.ID, logModel.Outcome{
			Status: constants.StatusFailed, ErrorMessage: "550 mailbox unavailable"}))
		ids = append(ids, stored.ID)
	}
	return logs, ids
}

// storedLevels lists the levels of every recorded event in insertion order.
func (f *engineFixture) storedLevels(t *testing.T) []int {
	t.Helper()
	page, err := f.engine.ListEvents(context.Background(), &f.project, 1, constants.MaxPageSize)
	require.NoError(t, err)
	sort.Slice(page.Items, func(i, j int) bool { return page.Items[i].ID < page.Items[j].ID })
	return levels(page.Items)
}

func (f *engineFixture) addContact(t *testing.T, name string, level int) {
	t.Helper()
	_, err := f.contacts.AddContact(context.Background(), f.project, model.ContactCreateRequest{
		Name: name, Email: name + "@example.com", Level: level,
	})
	require.NoError(t, err)
}

func (f *engineFixture) fail(t *testing.T, logID int64) []model.Event {
	t.Helper()
	events, err := f.engine.RecordFailure(context.Background(), model.Failure{
		EmailLogID: logID, ProjectID: f.project, ProjectName: "billing",
		Subject: "Invoice", ErrorMessage: "550 mailbox unavailable",
	})
	require.NoError(t, err)
	return events
}

func levels(events []model.Event) []int {
	out := make([]int, 0, len(events))
	for _, e := range events {
		out = append(out, e.Level)
	}
	return out
}

func TestEngineNotifiesEachTierOncePerStreak(t *testing.T) {
	f := newEngineFixture(t, false)
	f.addContact(t, "oncall", 1)
	f.addContact(t, "lead", 2)
	f.addContact(t, "director", 3)

	first := f.fail(t, 1)
	require.Len(t, first, 1)
	assert.Equal(t, "oncall", first[0].ContactName)
	assert.Equal(t, 1, first[0].Level)
	assert.NotZero(t, first[0].ID)

	f.clock.Advance(time.Minute)
	assert.Empty(t, f.fail(t, 2))

	f.clock.Advance(time.Minute)
	assert.Equal(t, []int{2}, levels(f.fail(t, 3)))

	for i := int64(4); i < 10; i++ {
		f.clock.Advance(time.Minute)
		assert.Empty(t, f.fail(t, i), "failure %d", i)
	}
	f.clock.Advance(time.Minute)
	assert.Equal(t, []int{3}, levels(f.fail(t, 10)))

	f.clock.Advance(time.Minute)
	assert.Empty(t, f.fail(t, 11))

	assert.Equal(t, []int{1, 2, 3}, levels(f.notifier.events))
	pending, err := f.engine.PendingCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), pending)
}

func TestEngineStreakAgesOutOfWindow(t *testing.T) {
	f := newEngineFixture(t, false)
	f.addContact(t, "oncall", 1)

	assert.Len(t, f.fail(t, 1), 1)
	f.clock.Advance(10 * time.Minute)
	assert.Empty(t, f.fail(t, 2))

	f.clock.Advance(2 * time.Hour)
	assert.Len(t, f.fail(t, 3), 1)
}

func TestEngineSuccessResetsOnlyWhenEnabled(t *testing.T) {
	for _, reset := range []bool{false, true} {
		f := newEngineFixture(t, reset)
		f.addContact(t, "oncall", 1)

		assert.Len(t, f.fail(t, 1), 1)
		f.engine.RecordSuccess(context.Background(), f.project)
		f.clock.Advance(time.Minute)

		if reset {
			assert.Len(t, f.fail(t, 2), 1)
		} else {
			assert.Empty(t, f.fail(t, 2))
		}
	}
}

func TestEngineAdvancesWithoutContacts(t *testing.T) {
	f := newEngineFixture(t, false)

	assert.Empty(t, f.fail(t, 1))

	// A contact added mid streak is not paged for the tier that already passed.
	f.addContact(t, "oncall", 1)
	f.clock.Advance(time.Minute)
	assert.Empty(t, f.fail(t, 2))
}

func TestEngineRehydratesFromHistory(t *testing.T) {
	f := newEngineFixture(t, false)
	f.addContact(t, "oncall", 1)
	f.addContact(t, "lead", 2)

	now := f.clock.Now()
	f.history.marks = []logModel.FailureMark{
		{ID: 1, CreatedAt: now.Add(-90 * time.Minute)},
		{ID: 2, CreatedAt: now.Add(-20 * time.Minute)},
		{ID: 3, CreatedAt: now.Add(-5 * time.Minute)},
	}

	// Two prior failures inside the window plus this one reach tier 2 directly.
	assert.Equal(t, []int{2}, levels(f.fail(t, 7)))
}

func TestEngineForgetRehydratesNotifiedLevel(t *testing.T) {
	f := newEngineFixture(t, false)
	f.addContact(t, "oncall", 1)

	now := f.clock.Now()
	assert.Len(t, f.fail(t, 1), 1)
	f.history.marks = []logModel.FailureMark{{ID: 1, CreatedAt: now}}

	f.engine.Forget(f.project)
	f.clock.Advance(time.Minute)
	assert.Empty(t, f.fail(t, 2))
}

func TestEngineRehydrationCountsEachLoggedFailureOnce(t *testing.T) {
	for _, reversed := range []bool{false, true} {
		f := newEngineFixture(t, false)
		f.addContact(t, "oncall", 1)
		f.addContact(t, "lead", 2)

		logs, ids := f.logFailures(t, 2)
		f.useHistory(logs)
		if reversed {
			ids[0], ids[1] = ids[1], ids[0]
		}

		// Both entries are already failed in the log when the first call rehydrates.
		assert.Equal(t, []int{1}, levels(f.fail(t, ids[0])), "reversed=%v", reversed)
		assert.Empty(t, f.fail(t, ids[1]), "reversed=%v", reversed)

		// A failure logged after rehydration is counted normally.
		f.clock.Advance(time.Minute)
		_, third := f.logFailures(t, 1)
		assert.Equal(t, []int{2}, levels(f.fail(t, third[0])), "reversed=%v", reversed)
	}
}

func TestEngineConcurrentFailuresFireEachTierOnce(t *testing.T) {
	f := newEngineFixture(t, false)
	f.addContact(t, "oncall", 1)
	f.addContact(t, "lead", 2)
	f.addContact(t, "director", 3)

	const n = 25
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.RecordFailure(context.Background(), model.Failure{
				EmailLogID: int64(i + 1), ProjectID: f.project, ProjectName: "billing",
			})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, []int{1, 2, 3}, f.storedLevels(t))
	assert.Len(t, f.notifier.events, 3)
}

func TestEngineConcurrentRehydrationCountsLoggedFailuresOnce(t *testing.T) {
	f := newEngineFixture(t, false)
	f.addContact(t, "oncall", 1)
	f.addContact(t, "lead", 2)
	f.addContact(t, "director", 3)

	logs, ids := f.logFailures(t, 5)
	f.useHistory(logs)

	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			_, errs[i] = f.engine.RecordFailure(context.Background(), model.Failure{
				EmailLogID: id, ProjectID: f.project, ProjectName: "billing",
			})
		}(i, id)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	// Five failures select tier 2 in one step. Tier 3 needs ten.
	assert.Equal(t, []int{2}, f.storedLevels(t))
}

func TestAcknowledgeIsIdempotent(t *testing.T) {
	f := newEngineFixture(t, false)
	f.addContact(t, "oncall", 1)
	events := f.fail(t, 1)
	require.Len(t, events, 1)
	id := events[0].ID

	var wg sync.WaitGroup
	results := make([]*model.Event, 16)
	errs := make([]error, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.engine.Acknowledge(context.Background(), id)
		}(i)
		f.clock.Advance(time.Second)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i].AcknowledgedAt)
		assert.True(t, results[i].AcknowledgedAt.Equal(*results[0].AcknowledgedAt))
	}
	pending, err := f.engine.PendingCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestAcknowledgeUnknownEvent(t *testing.T) {
	f := newEngineFixture(t, false)

	_, err := f.engine.Acknowledge(context.Background(), 404)
	assert.True(t, errors.IsClientError(err, http.StatusNotFound))
	assert.True(t, errors.HasCode(err, errors.ESCALATION_EVENT_NOT_FOUND))
}

func TestListEventsFiltersByProject(t *testing.T) {
	f := newEngineFixture(t, false)
	f.addContact(t, "oncall", 1)
	f.addContact(t, "backup", 1)
	require.Len(t, f.fail(t, 1), 2)

	page, err := f.engine.ListEvents(context.Background(), &f.project, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, "billing", page.Items[0].ProjectName)

	other := f.project + 1
	page, err = f.engine.ListEvents(context.Background(), &other, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Items)
}
