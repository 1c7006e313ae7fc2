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

	logModel "github.com/wso2/email-gateway-service/internal/email_logs/model"
	"github.com/wso2/email-gateway-service/internal/escalation/model"
	"github.com/wso2/email-gateway-service/internal/escalation/policy"
	"github.com/wso2/email-gateway-service/internal/escalation/store"
	"github.com/wso2/email-gateway-service/internal/system/arena"
	sysContext "github.com/wso2/email-gateway-service/internal/system/context"
	errors2 "github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/log"
	"github.com/wso2/email-gateway-service/internal/system/pagination"
	"github.com/wso2/email-gateway-service/internal/system/window"
)

// FailureHistory supplies past failures when a project's streak is first touched.
type FailureHistory interface {
	FailuresSince(ctx context.Context, projectID int64, since time.Time) ([]logModel.FailureMark, error)
}

// EngineInterface is the escalation engine.
type EngineInterface interface {
	RecordFailure(ctx context.Context, failure model.Failure) ([]model.Event, error)
	RecordSuccess(ctx context.Context, projectID int64)
	Acknowledge(ctx context.Context, eventID int64) (*model.Event, error)
	ListEvents(ctx context.Context, projectID *int64, page, pageSize int) (pagination.Page[model.Event], error)
	PendingCount(ctx context.Context) (int64, error)
	Forget(projectID int64)
}

// streak is the escalation state of one project: the failures inside the trailing window and
// the highest tier already notified for the current run of failures. loadedIDs holds the log
// entries counted by rehydration; their own RecordFailure calls must not count them again.
type streak struct {
	failures  *window.Log
	notified  int
	loaded    bool
	loadedIDs map[int64]time.Time
}

// EngineOptions configures an Engine.
type EngineOptions struct {
	Policy         *policy.Policy
	ResetOnSuccess bool
}

// Engine tracks failure streaks per project and raises tiered escalation events.
type Engine struct {
	contacts       store.ContactStoreInterface
	events         store.EventStoreInterface
	history        FailureHistory
	notifier       Notifier
	policy         *policy.Policy
	resetOnSuccess bool
	streaks        *arena.Arena[streak]
	now            func() time.Time
}

func NewEngine(contacts store.ContactStoreInterface, events store.EventStoreInterface, history FailureHistory,
	notifier Notifier, opts EngineOptions) *Engine {
	span := opts.Policy.Window()
	return &Engine{
		contacts:       contacts,
		events:         events,
		history:        history,
		notifier:       notifier,
		policy:         opts.Policy,
		resetOnSuccess: opts.ResetOnSuccess,
		streaks: arena.New(func(int64) *streak {
			return &streak{failures: window.New(span)}
		}),
		now: time.Now,
	}
}

// WithClock replaces the clock. Used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	e.streaks.WithClock(now)
	return e
}

// RecordFailure counts a failed delivery and, when it lifts the project to a tier not yet
// notified in the current streak, records one event per active contact of that tier.
// Counting and tier selection happen under the project's lock. At most one tier fires.
func (e *Engine) RecordFailure(ctx context.Context, failure model.Failure) ([]model.Event, error) {

	var emitted []model.Event
	err := e.streaks.Do(failure.ProjectID, func(s *streak) error {
		now := e.now().UTC()
		since := now.Add(-e.policy.Window())

		if !s.loaded {
			if err := e.rehydrate(ctx, s, failure, since); err != nil {
				return err
			}
		}

		s.failures.Prune(now)
		s.pruneLoaded(since)
		_, counted := s.loadedIDs[failure.EmailLogID]
		delete(s.loadedIDs, failure.EmailLogID)
		if s.failures.Count(now) == 0 {
			// The previous streak aged out of the window.
			s.notified = 0
		}
		if !counted {
			s.failures.Add(now, 1)
		}
		count := s.failures.Count(now)

		level, err := e.policy.Evaluate(count)
		if err != nil {
			return errors2.NewServerError(errors2.ESCALATION_POLICY, err)
		}
		if level <= s.notified {
			return nil
		}

		contacts, err := e.contacts.ListActiveContactsByLevel(ctx, failure.ProjectID, level)
		if err != nil {
			return err
		}
		events := make([]model.Event, 0, len(contacts))
		for _, c := range contacts {
			contactID := c.ID
			events = append(events, model.Event{
				ProjectID:    failure.ProjectID,
				ProjectName:  failure.ProjectName,
				EmailLogID:   failure.EmailLogID,
				ContactID:    &contactID,
				ContactName:  c.Name,
				ContactEmail: c.Email,
				Level:        level,
				EmailSubject: failure.Subject,
				ErrorMessage: failure.ErrorMessage,
				NotifiedAt:   now,
			})
		}
		if err := e.events.InsertEvents(ctx, events); err != nil {
			return err
		}
		// The tier counts as notified even without contacts, so adding a contact later does
		// not page anyone for an old streak.
		s.notified = level
		emitted = events

		log.GetLogger().WithContext(ctx).Info("Escalation tier reached",
			log.Int64("project_id", failure.ProjectID), log.Int("level", level),
			log.Int("failures", count), log.Int("contacts", len(events)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range emitted {
		log.GetLogger().Audit(log.AuditEvent{
			InitiatorID:   log.InitiatorTypeSystem,
			InitiatorType: log.InitiatorTypeSystem,
			TargetID:      strconv.FormatInt(ev.ID, 10),
			TargetType:    log.TargetTypeEscalationEvent,
			ActionID:      log.ActionEscalate,
			TraceID:       sysContext.GetTraceID(ctx),
			Data:          map[string]interface{}{"project_id": ev.ProjectID, "level": ev.Level, "email_log_id": ev.EmailLogID},
		})
	}
	if len(emitted) > 0 && e.notifier != nil {
		e.notifier.Notify(emitted)
	}
	return emitted, nil
}

// rehydrate loads the streak of a project from persisted failures and events.
func (e *Engine) rehydrate(ctx context.Context, s *streak, failure model.Failure, since time.Time) error {

	marks, err := e.history.FailuresSince(ctx, failure.ProjectID, since)
	if err != nil {
		return err
	}
	level, err := e.events.MaxLevelSince(ctx, failure.ProjectID, since)
	if err != nil {
		return err
	}
	s.failures.Reset()
	s.loadedIDs = make(map[int64]time.Time, len(marks))
	for _, m := range marks {
		s.failures.Add(m.CreatedAt, 1)
		s.loadedIDs[m.ID] = m.CreatedAt
	}
	s.notified = level
	s.loaded = true
	return nil
}

// pruneLoaded drops rehydrated entries that fell out of the window.
func (s *streak) pruneLoaded(since time.Time) {
	for loadedID, at := range s.loadedIDs {
		if !at.After(since) {
			delete(s.loadedIDs, loadedID)
		}
	}
}

// RecordSuccess ends the streak when reset on success is enabled. Otherwise failures only age out.
func (e *Engine) RecordSuccess(_ context.Context, projectID int64) {

	if !e.resetOnSuccess {
		return
	}
	_ = e.streaks.Do(projectID, func(s *streak) error {
		s.failures.Reset()
		s.notified = 0
		s.loaded = true
		s.loadedIDs = nil
		return nil
	})
}

// Acknowledge marks an event as handled. Acknowledging twice keeps the first timestamp.
func (e *Engine) Acknowledge(ctx context.Context, eventID int64) (*model.Event, error) {

	set, err := e.events.Acknowledge(ctx, eventID, e.now().UTC())
	if err != nil {
		return nil, err
	}
	event, err := e.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, errors2.NewClientError(errors2.Describe(errors2.ESCALATION_EVENT_NOT_FOUND,
			"No escalation event exists with id "+strconv.FormatInt(eventID, 10)+"."), http.StatusNotFound)
	}
	if set {
		log.GetLogger().Audit(log.AuditEvent{
			InitiatorID:   sysContext.GetSubject(ctx),
			InitiatorType: log.InitiatorTypeAdmin,
			TargetID:      strconv.FormatInt(eventID, 10),
			TargetType:    log.TargetTypeEscalationEvent,
			ActionID:      log.ActionAcknowledgeEscalation,
			TraceID:       sysContext.GetTraceID(ctx),
		})
	}
	return event, nil
}

func (e *Engine) ListEvents(ctx context.Context, projectID *int64, page, pageSize int) (pagination.Page[model.Event], error) {
	return e.events.ListEvents(ctx, projectID, page, pageSize)
}

func (e *Engine) PendingCount(ctx context.Context) (int64, error) {
	return e.events.CountPending(ctx)
}

// Forget drops the in-memory streak of a project.
func (e *Engine) Forget(projectID int64) {
	e.streaks.Forget(projectID)
}

// StartSweeper evicts idle streaks. Evicted projects are rehydrated from storage on next use.
func (e *Engine) StartSweeper(interval, ttl time.Duration) {
	if ttl < e.policy.Window() {
		ttl = e.policy.Window()
	}
	e.streaks.StartSweeper(interval, ttl)
}

func (e *Engine) Stop() {
	e.streaks.Stop()
}
