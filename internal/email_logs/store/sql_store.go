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
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/wso2/email-gateway-service/internal/email_logs/model"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	"github.com/wso2/email-gateway-service/internal/system/database/client"
	"github.com/wso2/email-gateway-service/internal/system/database/scripts"
	errors2 "github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/log"
	"github.com/wso2/email-gateway-service/internal/system/pagination"
)

// SQLEmailLogStore keeps the delivery log in the project database. Address and attachment
// lists are stored as JSON arrays.
type SQLEmailLogStore struct {
	db client.DBClientInterface
}

func NewSQLEmailLogStore(db client.DBClientInterface) *SQLEmailLogStore {
	return &SQLEmailLogStore{db: db}
}

func (s *SQLEmailLogStore) Append(ctx context.Context, entry *model.EmailLog) (*model.EmailLog, bool, error) {

	to, cc, bcc, names, err := encodeLists(entry)
	if err != nil {
		return nil, false, serverError(errors2.ADD_EMAIL_LOG, "Failed to encode recipients.", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx, scripts.InsertEmailLog[s.db.DBType()], entry.RequestID, entry.ProjectID,
		to, cc, bcc, entry.Subject, entry.BodyHTML, entry.AttachmentsCount, names, constants.StatusQueued,
		client.ToMillis(entry.CreatedAt)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		// The request id is already recorded.
		existing, err := s.GetByRequestID(ctx, entry.RequestID)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, serverError(errors2.ADD_EMAIL_LOG, "Conflicting entry vanished.",
				errors.New("request id conflict without row"))
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, serverError(errors2.ADD_EMAIL_LOG, "Failed to insert email log.", err)
	}

	stored := *entry
	stored.ID = id
	stored.Status = constants.StatusQueued
	stored.ErrorMessage = nil
	stored.ProviderMessageID = nil
	stored.SentAt = nil
	stored.CreatedAt = client.FromMillis(client.ToMillis(entry.CreatedAt))
	return &stored, true, nil
}

func (s *SQLEmailLogStore) MarkOutcome(ctx context.Context, id int64, outcome model.Outcome) error {

	result, err := s.db.ExecContext(ctx, scripts.MarkEmailLogOutcome[s.db.DBType()], outcome.Status,
		client.NullableString(outcome.ErrorMessage), client.NullableString(outcome.ProviderMessageID),
		client.NullableMillis(outcome.SentAt), id)
	if err != nil {
		return serverError(errors2.UPDATE_EMAIL_LOG, "Failed to record delivery outcome.", err)
	}
	if affected, _ := result.RowsAffected(); affected > 0 {
		return nil
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrLogNotFound
	}
	return ErrStatusFinal
}

func (s *SQLEmailLogStore) Get(ctx context.Context, id int64) (*model.EmailLog, error) {
	return s.getOne(ctx, scripts.GetEmailLogByID[s.db.DBType()], id)
}

func (s *SQLEmailLogStore) GetByRequestID(ctx context.Context, requestID string) (*model.EmailLog, error) {
	return s.getOne(ctx, scripts.GetEmailLogByRequestID[s.db.DBType()], requestID)
}

func (s *SQLEmailLogStore) getOne(ctx context.Context, query string, arg interface{}) (*model.EmailLog, error) {

	entry, err := scanLog(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, serverError(errors2.GET_EMAIL_LOG, "Failed to fetch email log.", err)
	}
	return entry, nil
}

// Query returns one page of matching entries, newest first, with the full match count.
func (s *SQLEmailLogStore) Query(ctx context.Context, filter model.LogFilter, page,
	pageSize int) (pagination.Page[model.EmailLog], error) {

	var params client.Placeholders
	var conditions []string
	if filter.ProjectID != nil {
		conditions = append(conditions, "l.project_id = "+params.Add(*filter.ProjectID))
	}
	if filter.Status != "" {
		conditions = append(conditions, "l.status = "+params.Add(filter.Status))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		p := params.Add("%" + client.EscapeLike(strings.ToLower(search)) + "%")
		conditions = append(conditions, "(LOWER(l.subject) LIKE "+p+` ESCAPE '\' OR LOWER(COALESCE(l.error_message, '')) LIKE `+
			p+` ESCAPE '\')`)
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM email_logs l"+where, params.Args()...).
		Scan(&total); err != nil {
		return pagination.Page[model.EmailLog]{}, serverError(errors2.GET_EMAIL_LOG, "Failed to count email logs.", err)
	}

	limit, offset, ok := pagination.Bounds(page, pageSize)
	if !ok || int64(offset) >= total {
		return pagination.NewPage[model.EmailLog](nil, total, page, pageSize), nil
	}

	query := scripts.SelectEmailLog + scripts.EmailLogFrom + where +
		" ORDER BY l.created_at DESC, l.id DESC LIMIT " + params.Add(limit) + " OFFSET " + params.Add(offset)
	rows, err := s.db.QueryContext(ctx, query, params.Args()...)
	if err != nil {
		return pagination.Page[model.EmailLog]{}, serverError(errors2.GET_EMAIL_LOG, "Failed to query email logs.", err)
	}
	defer rows.Close()

	items := make([]model.EmailLog, 0, limit)
	for rows.Next() {
		entry, err := scanLog(rows)
		if err != nil {
			return pagination.Page[model.EmailLog]{}, serverError(errors2.GET_EMAIL_LOG, "Failed to read email log row.", err)
		}
		items = append(items, *entry)
	}
	if err := rows.Err(); err != nil {
		return pagination.Page[model.EmailLog]{}, serverError(errors2.GET_EMAIL_LOG, "Failed to query email logs.", err)
	}
	return pagination.NewPage(items, total, page, pageSize), nil
}

func (s *SQLEmailLogStore) CountByStatusSince(ctx context.Context, status string, since time.Time) (int64, error) {

	var count int64
	err := s.db.QueryRowContext(ctx, scripts.CountEmailLogsByStatusSince[s.db.DBType()], status,
		client.ToMillis(since)).Scan(&count)
	if err != nil {
		return 0, serverError(errors2.GET_STATS, "Failed to count email logs.", err)
	}
	return count, nil
}

func (s *SQLEmailLogStore) TopProjects(ctx context.Context, since time.Time, limit int) ([]model.ProjectVolume, error) {

	rows, err := s.db.QueryContext(ctx, scripts.TopProjectsSince[s.db.DBType()], client.ToMillis(since), limit)
	if err != nil {
		return nil, serverError(errors2.GET_STATS, "Failed to rank projects.", err)
	}
	defer rows.Close()

	volumes := []model.ProjectVolume{}
	for rows.Next() {
		var v model.ProjectVolume
		if err := rows.Scan(&v.ProjectName, &v.Total, &v.Sent, &v.Failed); err != nil {
			return nil, serverError(errors2.GET_STATS, "Failed to read project volume.", err)
		}
		volumes = append(volumes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, serverError(errors2.GET_STATS, "Failed to rank projects.", err)
	}
	return volumes, nil
}

func (s *SQLEmailLogStore) RecentFailures(ctx context.Context, limit int) ([]model.FailureSummary, error) {

	rows, err := s.db.QueryContext(ctx, scripts.RecentFailures[s.db.DBType()], limit)
	if err != nil {
		return nil, serverError(errors2.GET_STATS, "Failed to list recent failures.", err)
	}
	defer rows.Close()

	failures := []model.FailureSummary{}
	for rows.Next() {
		var f model.FailureSummary
		var to string
		var createdAt int64
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.Subject, &to, &f.ErrorMessage, &createdAt); err != nil {
			return nil, serverError(errors2.GET_STATS, "Failed to read failure row.", err)
		}
		if f.ToEmails, err = decodeList(to); err != nil {
			return nil, serverError(errors2.GET_STATS, "Failed to decode recipients.", err)
		}
		f.CreatedAt = client.FromMillis(createdAt)
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, serverError(errors2.GET_STATS, "Failed to list recent failures.", err)
	}
	return failures, nil
}

func (s *SQLEmailLogStore) FailuresSince(ctx context.Context, projectID int64, since time.Time) ([]model.FailureMark, error) {

	rows, err := s.db.QueryContext(ctx, scripts.FailuresSince[s.db.DBType()], projectID, client.ToMillis(since))
	if err != nil {
		return nil, serverError(errors2.GET_EMAIL_LOG, "Failed to load failure history.", err)
	}
	defer rows.Close()

	var marks []model.FailureMark
	for rows.Next() {
		var (
			mark model.FailureMark
			ms   int64
		)
		if err := rows.Scan(&mark.ID, &ms); err != nil {
			return nil, serverError(errors2.GET_EMAIL_LOG, "Failed to read failure time.", err)
		}
		mark.CreatedAt = client.FromMillis(ms)
		marks = append(marks, mark)
	}
	if err := rows.Err(); err != nil {
		return nil, serverError(errors2.GET_EMAIL_LOG, "Failed to load failure history.", err)
	}
	return marks, nil
}

// DeleteByProject is a no-op safety net; the foreign key already cascades.
func (s *SQLEmailLogStore) DeleteByProject(ctx context.Context, projectID int64) error {

	if _, err := s.db.ExecContext(ctx, scripts.DeleteEmailLogsByProject[s.db.DBType()], projectID); err != nil {
		return serverError(errors2.UPDATE_EMAIL_LOG, "Failed to delete project email logs.", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLog(row rowScanner) (*model.EmailLog, error) {

	var e model.EmailLog
	var to, cc, bcc, names string
	var errorMessage, providerMessageID sql.NullString
	var sentAt sql.NullInt64
	var createdAt int64
	err := row.Scan(&e.ID, &e.RequestID, &e.ProjectID, &e.ProjectName, &to, &cc, &bcc, &e.Subject, &e.BodyHTML,
		&e.AttachmentsCount, &names, &e.Status, &errorMessage, &providerMessageID, &sentAt, &createdAt)
	if err != nil {
		return nil, err
	}
	if e.ToEmails, err = decodeList(to); err != nil {
		return nil, err
	}
	if e.Cc, err = decodeList(cc); err != nil {
		return nil, err
	}
	if e.Bcc, err = decodeList(bcc); err != nil {
		return nil, err
	}
	if e.AttachmentNames, err = decodeList(names); err != nil {
		return nil, err
	}
	if errorMessage.Valid {
		e.ErrorMessage = &errorMessage.String
	}
	if providerMessageID.Valid {
		e.ProviderMessageID = &providerMessageID.String
	}
	e.SentAt = client.TimePtr(sentAt)
	e.CreatedAt = client.FromMillis(createdAt)
	return &e, nil
}

func encodeLists(e *model.EmailLog) (to, cc, bcc, names string, err error) {
	if to, err = encodeList(e.ToEmails); err != nil {
		return
	}
	if cc, err = encodeList(e.Cc); err != nil {
		return
	}
	if bcc, err = encodeList(e.Bcc); err != nil {
		return
	}
	names, err = encodeList(e.AttachmentNames)
	return
}

func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	return string(raw), err
}

func decodeList(raw string) ([]string, error) {
	values := []string{}
	if raw == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, errors.Wrap(err, "decode list column")
	}
	return values, nil
}

func serverError(msg errors2.ErrorMessage, description string, err error) error {
	log.GetLogger().Debug(description, log.Error(err))
	return errors2.NewServerError(errors2.Describe(msg, description), errors.WithStack(err))
}
