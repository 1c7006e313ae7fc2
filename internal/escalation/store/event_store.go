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
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/wso2/email-gateway-service/internal/escalation/model"
	"github.com/wso2/email-gateway-service/internal/system/database/client"
	"github.com/wso2/email-gateway-service/internal/system/database/scripts"
	errors2 "github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/pagination"
)

// EventStoreInterface persists escalation events.
type EventStoreInterface interface {
	// InsertEvents stores every event or none of them. Ids are filled in on success.
	InsertEvents(ctx context.Context, events []model.Event) error
	GetEvent(ctx context.Context, id int64) (*model.Event, error)
	ListEvents(ctx context.Context, projectID *int64, page, pageSize int) (pagination.Page[model.Event], error)
	// Acknowledge sets acknowledged_at unless it is already set. It reports whether this call set it.
	Acknowledge(ctx context.Context, id int64, at time.Time) (bool, error)
	CountPending(ctx context.Context) (int64, error)
	MaxLevelSince(ctx context.Context, projectID int64, since time.Time) (int, error)
}

type EventStore struct {
	db client.DBClientInterface
}

func NewEventStore(db client.DBClientInterface) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) InsertEvents(ctx context.Context, events []model.Event) error {

	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return serverError(errors2.ADD_ESCALATION_EVENT, "Failed to begin transaction.", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := scripts.InsertEscalationEvent[s.db.DBType()]
	ids := make([]int64, len(events))
	for i, e := range events {
		var contactID interface{}
		if e.ContactID != nil {
			contactID = *e.ContactID
		}
		err := tx.QueryRowContext(ctx, query, e.ProjectID, e.EmailLogID, contactID, e.ContactName, e.ContactEmail,
			e.Level, e.EmailSubject, e.ErrorMessage, client.ToMillis(e.NotifiedAt)).Scan(&ids[i])
		if err != nil {
			return serverError(errors2.ADD_ESCALATION_EVENT, "Failed to insert escalation event.", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return serverError(errors2.ADD_ESCALATION_EVENT, "Failed to commit escalation events.", err)
	}
	for i := range events {
		events[i].ID = ids[i]
	}
	return nil
}

func (s *EventStore) GetEvent(ctx context.Context, id int64) (*model.Event, error) {

	event, err := scanEvent(s.db.QueryRowContext(ctx, scripts.GetEscalationEvent[s.db.DBType()], id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, serverError(errors2.GET_ESCALATION_EVENT, "Failed to fetch escalation event.", err)
	}
	return event, nil
}

// ListEvents returns one page of events, newest first, optionally for one project.
func (s *EventStore) ListEvents(ctx context.Context, projectID *int64, page,
	pageSize int) (pagination.Page[model.Event], error) {

	var params client.Placeholders
	where := ""
	if projectID != nil {
		where = " WHERE e.project_id = " + params.Add(*projectID)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM escalation_events e"+where, params.Args()...).
		Scan(&total); err != nil {
		return pagination.Page[model.Event]{}, serverError(errors2.GET_ESCALATION_EVENT, "Failed to count escalation events.", err)
	}
	limit, offset, ok := pagination.Bounds(page, pageSize)
	if !ok || int64(offset) >= total {
		return pagination.NewPage[model.Event](nil, total, page, pageSize), nil
	}

	query := scripts.SelectEscalationEvent + scripts.EscalationEventFrom + where +
		" ORDER BY e.notified_at DESC, e.id DESC LIMIT " + params.Add(limit) + " OFFSET " + params.Add(offset)
	rows, err := s.db.QueryContext(ctx, query, params.Args()...)
	if err != nil {
		return pagination.Page[model.Event]{}, serverError(errors2.GET_ESCALATION_EVENT, "Failed to list escalation events.", err)
	}
	defer rows.Close()

	items := make([]model.Event, 0, limit)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return pagination.Page[model.Event]{}, serverError(errors2.GET_ESCALATION_EVENT, "Failed to read escalation event.", err)
		}
		items = append(items, *event)
	}
	if err := rows.Err(); err != nil {
		return pagination.Page[model.Event]{}, serverError(errors2.GET_ESCALATION_EVENT, "Failed to list escalation events.", err)
	}
	return pagination.NewPage(items, total, page, pageSize), nil
}

func (s *EventStore) Acknowledge(ctx context.Context, id int64, at time.Time) (bool, error) {

	result, err := s.db.ExecContext(ctx, scripts.AcknowledgeEscalationEvent[s.db.DBType()], client.ToMillis(at), id)
	if err != nil {
		return false, serverError(errors2.ACKNOWLEDGE_ESCALATION_EVENT, "Failed to acknowledge escalation event.", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

func (s *EventStore) CountPending(ctx context.Context) (int64, error) {

	var count int64
	if err := s.db.QueryRowContext(ctx, scripts.CountPendingEscalationEvents[s.db.DBType()]).Scan(&count); err != nil {
		return 0, serverError(errors2.GET_STATS, "Failed to count pending escalations.", err)
	}
	return count, nil
}

// MaxLevelSince returns the highest tier notified for a project at or after since, or 0.
func (s *EventStore) MaxLevelSince(ctx context.Context, projectID int64, since time.Time) (int, error) {

	var level int
	err := s.db.QueryRowContext(ctx, scripts.MaxEscalationLevelSince[s.db.DBType()], projectID,
		client.ToMillis(since)).Scan(&level)
	if err != nil {
		return 0, serverError(errors2.GET_ESCALATION_EVENT, "Failed to read escalation state.", err)
	}
	return level, nil
}

func scanEvent(row rowScanner) (*model.Event, error) {

	var e model.Event
	var contactID, acknowledgedAt sql.NullInt64
	var notifiedAt int64
	err := row.Scan(&e.ID, &e.ProjectID, &e.ProjectName, &e.EmailLogID, &contactID, &e.ContactName, &e.ContactEmail,
		&e.Level, &e.EmailSubject, &e.ErrorMessage, &notifiedAt, &acknowledgedAt)
	if err != nil {
		return nil, err
	}
	if contactID.Valid {
		id := contactID.Int64
		e.ContactID = &id
	}
	e.NotifiedAt = client.FromMillis(notifiedAt)
	e.AcknowledgedAt = client.TimePtr(acknowledgedAt)
	return &e, nil
}
