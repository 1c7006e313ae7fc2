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
	stderrors "errors"
	"time"

	"github.com/wso2/email-gateway-service/internal/email_logs/model"
	"github.com/wso2/email-gateway-service/internal/system/pagination"
)

var (
	// ErrLogNotFound is returned when an outcome is recorded for an unknown log id.
	ErrLogNotFound = stderrors.New("email log not found")
	// ErrStatusFinal is returned when an outcome is recorded twice.
	ErrStatusFinal = stderrors.New("email log status is already final")
)

// EmailLogStoreInterface is the delivery log. Lookups return nil without error when the entry
// does not exist.
type EmailLogStoreInterface interface {
	// Append stores a queued entry. When an entry with the same request id exists it is returned
	// unchanged and created is false.
	Append(ctx context.Context, entry *model.EmailLog) (stored *model.EmailLog, created bool, err error)
	MarkOutcome(ctx context.Context, id int64, outcome model.Outcome) error
	Get(ctx context.Context, id int64) (*model.EmailLog, error)
	GetByRequestID(ctx context.Context, requestID string) (*model.EmailLog, error)
	Query(ctx context.Context, filter model.LogFilter, page, pageSize int) (pagination.Page[model.EmailLog], error)
	CountByStatusSince(ctx context.Context, status string, since time.Time) (int64, error)
	TopProjects(ctx context.Context, since time.Time, limit int) ([]model.ProjectVolume, error)
	RecentFailures(ctx context.Context, limit int) ([]model.FailureSummary, error)
	// FailuresSince lists the failed entries of a project created at or after since, oldest first.
	FailuresSince(ctx context.Context, projectID int64, since time.Time) ([]model.FailureMark, error)
	DeleteByProject(ctx context.Context, projectID int64) error
}
