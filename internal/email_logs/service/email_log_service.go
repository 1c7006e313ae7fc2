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

	"github.com/pkg/errors"

	"github.com/wso2/email-gateway-service/internal/email_logs/model"
	"github.com/wso2/email-gateway-service/internal/email_logs/store"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	errors2 "github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/pagination"
)

// EmailLogServiceInterface exposes the delivery log to handlers and the send pipeline.
type EmailLogServiceInterface interface {
	Append(ctx context.Context, entry *model.EmailLog) (*model.EmailLog, bool, error)
	MarkOutcome(ctx context.Context, id int64, outcome model.Outcome) error
	GetLog(ctx context.Context, id int64) (*model.EmailLog, error)
	GetLogByRequestID(ctx context.Context, requestID string) (*model.EmailLog, error)
	QueryLogs(ctx context.Context, filter model.LogFilter, page, pageSize int) (pagination.Page[model.EmailLog], error)
}

type EmailLogService struct {
	store store.EmailLogStoreInterface
}

func NewEmailLogService(logStore store.EmailLogStoreInterface) *EmailLogService {
	return &EmailLogService{store: logStore}
}

func (s *EmailLogService) Append(ctx context.Context, entry *model.EmailLog) (*model.EmailLog, bool, error) {
	return s.store.Append(ctx, entry)
}

// MarkOutcome finalizes a queued entry. Only sent and failed are final states.
func (s *EmailLogService) MarkOutcome(ctx context.Context, id int64, outcome model.Outcome) error {

	if outcome.Status != constants.StatusSent && outcome.Status != constants.StatusFailed {
		return errors2.NewClientError(errors2.Describe(errors2.EMAIL_VALIDATION,
			"Outcome status must be 'sent' or 'failed'."), http.StatusBadRequest)
	}
	err := s.store.MarkOutcome(ctx, id, outcome)
	switch {
	case errors.Is(err, store.ErrLogNotFound):
		return logNotFound(id)
	case errors.Is(err, store.ErrStatusFinal):
		return errors2.NewClientError(errors2.Describe(errors2.EMAIL_LOG_CONFLICT,
			"Email log "+strconv.FormatInt(id, 10)+" already has a final status."), http.StatusConflict)
	}
	return err
}

func (s *EmailLogService) GetLog(ctx context.Context, id int64) (*model.EmailLog, error) {

	entry, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, logNotFound(id)
	}
	return entry, nil
}

// GetLogByRequestID returns nil when no entry carries the request id.
func (s *EmailLogService) GetLogByRequestID(ctx context.Context, requestID string) (*model.EmailLog, error) {
	return s.store.GetByRequestID(ctx, requestID)
}

// QueryLogs lists entries newest first. Out of range pages are empty, never an error.
func (s *EmailLogService) QueryLogs(ctx context.Context, filter model.LogFilter, page,
	pageSize int) (pagination.Page[model.EmailLog], error) {

	if filter.Status != "" && !constants.AllowedEmailStatuses[filter.Status] {
		return pagination.Page[model.EmailLog]{}, errors2.NewClientError(errors2.Describe(errors2.INVALID_QUERY_PARAM,
			"status must be one of queued, sent or failed."), http.StatusBadRequest)
	}
	return s.store.Query(ctx, filter, page, pageSize)
}

func logNotFound(id int64) error {
	return errors2.NewClientError(errors2.Describe(errors2.EMAIL_LOG_NOT_FOUND,
		"No email log exists with id "+strconv.FormatInt(id, 10)+"."), http.StatusNotFound)
}
