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
	"encoding/base64"
	"mime"
	"net/http"
	netmail "net/mail"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/wso2/email-gateway-service/internal/delivery/model"
	logModel "github.com/wso2/email-gateway-service/internal/email_logs/model"
	escalationModel "github.com/wso2/email-gateway-service/internal/escalation/model"
	projectModel "github.com/wso2/email-gateway-service/internal/projects/model"
	rateLimitModel "github.com/wso2/email-gateway-service/internal/rate_limit/model"
	rateLimitService "github.com/wso2/email-gateway-service/internal/rate_limit/service"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	errors2 "github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/locks"
	"github.com/wso2/email-gateway-service/internal/system/log"
	"github.com/wso2/email-gateway-service/internal/system/mail"
)

const (
	maxRecipients      = 100
	maxSubjectLength   = 998
	maxAttachmentBytes = 10 << 20
	maxErrorLength     = 1000
	defaultSendTimeout = 30 * time.Second
)

type Authenticator interface {
	Authenticate(ctx context.Context, rawKey string) (int64, error)
}

type Limiter interface {
	Allow(ctx context.Context, projectID int64, n int) (rateLimitModel.Decision, error)
}

type LogRecorder interface {
	Append(ctx context.Context, entry *logModel.EmailLog) (*logModel.EmailLog, bool, error)
	MarkOutcome(ctx context.Context, id int64, outcome logModel.Outcome) error
	GetLogByRequestID(ctx context.Context, requestID string) (*logModel.EmailLog, error)
}

type ProjectLookup interface {
	GetProject(ctx context.Context, id int64) (*projectModel.Project, error)
}

// Escalator is told about the outcome of every delivery.
type Escalator interface {
	RecordFailure(ctx context.Context, failure escalationModel.Failure) ([]escalationModel.Event, error)
	RecordSuccess(ctx context.Context, projectID int64)
}

type DeliveryServiceInterface interface {
	Send(ctx context.Context, rawKey string, req model.SendRequest) (*model.SendResult, error)
}

// DeliveryService runs a send through authentication, admission, logging, delivery and escalation.
type DeliveryService struct {
	keys      Authenticator
	limiter   Limiter
	logs      LogRecorder
	projects  ProjectLookup
	sender    mail.Sender
	escalator Escalator
	requests  *locks.KeyedRWMutex[string]
	timeout   time.Duration
	now       func() time.Time
}

func NewDeliveryService(keys Authenticator, limiter Limiter, logs LogRecorder, projects ProjectLookup,
	sender mail.Sender, escalator Escalator) *DeliveryService {
	return &DeliveryService{
		keys:      keys,
		limiter:   limiter,
		logs:      logs,
		projects:  projects,
		sender:    sender,
		escalator: escalator,
		requests:  locks.NewKeyedRWMutex[string](),
		timeout:   defaultSendTimeout,
		now:       time.Now,
	}
}

// WithTimeout bounds each provider call.
func (s *DeliveryService) WithTimeout(timeout time.Duration) *DeliveryService {
	if timeout > 0 {
		s.timeout = timeout
	}
	return s
}

func (s *DeliveryService) WithClock(now func() time.Time) *DeliveryService {
	s.now = now
	return s
}

// Send delivers one email for the project owning rawKey. A provider failure is not an error:
// the result carries status failed and the failure is handed to the escalator. Deliveries are
// attempted once.
func (s *DeliveryService) Send(ctx context.Context, rawKey string, req model.SendRequest) (*model.SendResult, error) {

	projectID, err := s.keys.Authenticate(ctx, rawKey)
	if err != nil {
		return nil, err
	}
	msg, err := buildMessage(req)
	if err != nil {
		return nil, err
	}

	stored, replayed, err := s.admit(ctx, projectID, strings.TrimSpace(req.RequestID), msg)
	if err != nil || replayed != nil {
		return replayed, err
	}
	requestID := stored.RequestID

	msg.Date = s.now()
	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	providerID, sendErr := s.sender.Send(sendCtx, msg)
	cancel()

	// The provider has been called; the outcome is recorded even if the caller went away.
	recordCtx := context.WithoutCancel(ctx)
	outcome := logModel.Outcome{Status: constants.StatusSent, ProviderMessageID: providerID}
	if sendErr != nil {
		outcome = logModel.Outcome{Status: constants.StatusFailed, ErrorMessage: truncate(sendErr.Error(), maxErrorLength)}
	} else {
		sentAt := s.now().UTC()
		outcome.SentAt = &sentAt
	}
	if err := s.logs.MarkOutcome(recordCtx, stored.ID, outcome); err != nil {
		return nil, err
	}

	result := &model.SendResult{ID: stored.ID, RequestID: requestID, Status: outcome.Status}
	logger := log.GetLogger().WithContext(ctx).With(log.Int64("project_id", projectID), log.Int64("email_log_id", stored.ID))
	if sendErr != nil {
		result.ErrorMessage = &outcome.ErrorMessage
		logger.Warn("Email delivery failed", log.Error(sendErr))
		s.recordFailure(recordCtx, stored, outcome.ErrorMessage)
		return result, nil
	}
	result.ProviderMessageID = &providerID
	logger.Info("Email delivered", log.String("provider_message_id", providerID))
	if s.escalator != nil {
		s.escalator.RecordSuccess(recordCtx, projectID)
	}
	return result, nil
}

// admit resolves a replay or charges the rate limit and appends the queued entry. Sends that
// share a client supplied request id are serialized here, so only one of them spends quota.
func (s *DeliveryService) admit(ctx context.Context, projectID int64, requestID string,
	msg mail.Message) (*logModel.EmailLog, *model.SendResult, error) {

	if requestID != "" {
		unlock := s.requests.Lock(requestID)
		defer unlock()

		existing, err := s.logs.GetLogByRequestID(ctx, requestID)
		if err != nil {
			return nil, nil, err
		}
		if existing != nil {
			result, err := replay(existing, projectID)
			return nil, result, err
		}
	} else {
		requestID = uuid.NewString()
	}

	decision, err := s.limiter.Allow(ctx, projectID, 1)
	if err != nil {
		return nil, nil, err
	}
	if !decision.Allowed {
		log.GetLogger().WithContext(ctx).Info("Send rejected by rate limit",
			log.Int64("project_id", projectID), log.String("window", decision.Window),
			log.Duration("retry_after", decision.RetryAfter))
		return nil, nil, rateLimitService.RateLimitedError(decision)
	}

	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	if project == nil {
		return nil, nil, errors2.NewClientError(errors2.Describe(errors2.PROJECT_NOT_FOUND,
			"No project exists with id "+strconv.FormatInt(projectID, 10)+"."), http.StatusNotFound)
	}

	entry := &logModel.EmailLog{
		RequestID:        requestID,
		ProjectID:        projectID,
		ProjectName:      project.Name,
		ToEmails:         msg.To,
		Cc:               msg.Cc,
		Bcc:              msg.Bcc,
		Subject:          msg.Subject,
		BodyHTML:         msg.HTMLBody,
		AttachmentsCount: len(msg.Attachments),
		AttachmentNames:  attachmentNames(msg.Attachments),
		Status:           constants.StatusQueued,
		CreatedAt:        s.now().UTC(),
	}
	stored, created, err := s.logs.Append(ctx, entry)
	if err != nil {
		return nil, nil, err
	}
	if !created {
		result, err := replay(stored, projectID)
		return nil, result, err
	}
	return stored, nil, nil
}

func (s *DeliveryService) recordFailure(ctx context.Context, entry *logModel.EmailLog, errorMessage string) {

	if s.escalator == nil {
		return
	}
	_, err := s.escalator.RecordFailure(ctx, escalationModel.Failure{
		EmailLogID:   entry.ID,
		ProjectID:    entry.ProjectID,
		ProjectName:  entry.ProjectName,
		Subject:      entry.Subject,
		ErrorMessage: errorMessage,
	})
	if err != nil {
		log.GetLogger().WithContext(ctx).Error("Failed to evaluate escalation",
			log.Int64("project_id", entry.ProjectID), log.Int64("email_log_id", entry.ID), log.Error(err))
	}
}

// replay answers a repeated request id with the outcome of the first attempt.
func replay(entry *logModel.EmailLog, projectID int64) (*model.SendResult, error) {

	if entry.ProjectID != projectID {
		return nil, errors2.NewClientError(errors2.Describe(errors2.EMAIL_LOG_CONFLICT,
			"request_id '"+entry.RequestID+"' is already in use."), http.StatusConflict)
	}
	return &model.SendResult{
		ID:                entry.ID,
		RequestID:         entry.RequestID,
		Status:            entry.Status,
		ProviderMessageID: entry.ProviderMessageID,
		ErrorMessage:      entry.ErrorMessage,
		Replayed:          true,
	}, nil
}

// buildMessage validates a send request and converts it into a message with bare addresses.
func buildMessage(req model.SendRequest) (mail.Message, error) {

	var msg mail.Message
	var err error
	if len(req.To) == 0 {
		return msg, validationError("At least one 'to' recipient is required.")
	}
	if len(req.To)+len(req.Cc)+len(req.Bcc) > maxRecipients {
		return msg, validationError("A message may have at most " + strconv.Itoa(maxRecipients) + " recipients.")
	}
	if msg.To, err = parseAddresses("to", req.To); err != nil {
		return msg, err
	}
	if msg.Cc, err = parseAddresses("cc", req.Cc); err != nil {
		return msg, err
	}
	if msg.Bcc, err = parseAddresses("bcc", req.Bcc); err != nil {
		return msg, err
	}

	msg.Subject = strings.TrimSpace(req.Subject)
	if msg.Subject == "" {
		return msg, validationError("Subject is required.")
	}
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return msg, validationError("Subject must be a single line.")
	}
	if len(msg.Subject) > maxSubjectLength {
		return msg, validationError("Subject must not exceed " + strconv.Itoa(maxSubjectLength) + " characters.")
	}
	msg.HTMLBody = req.BodyHTML

	total := 0
	for i, a := range req.Attachments {
		name := strings.TrimSpace(a.Filename)
		position := "Attachment " + strconv.Itoa(i+1)
		if name == "" {
			return msg, validationError(position + " has no filename.")
		}
		if strings.ContainsAny(name, "/\\\r\n") {
			return msg, validationError(position + " has an invalid filename.")
		}
		content, err := base64.StdEncoding.DecodeString(a.Content)
		if err != nil {
			return msg, validationError(position + " content is not valid base64.")
		}
		total += len(content)
		if total > maxAttachmentBytes {
			return msg, validationError("Attachments must not exceed " + strconv.Itoa(maxAttachmentBytes>>20) + " MiB in total.")
		}
		contentType := strings.TrimSpace(a.ContentType)
		if contentType == "" {
			contentType = mime.TypeByExtension(filepath.Ext(name))
		}
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		msg.Attachments = append(msg.Attachments, mail.Attachment{Filename: name, ContentType: contentType, Content: content})
	}
	return msg, nil
}

func parseAddresses(field string, raw []string) ([]string, error) {

	out := make([]string, 0, len(raw))
	for _, r := range raw {
		addr, err := netmail.ParseAddress(strings.TrimSpace(r))
		if err != nil {
			return nil, validationError("'" + r + "' in " + field + " is not a valid email address.")
		}
		out = append(out, addr.Address)
	}
	return out, nil
}

func attachmentNames(attachments []mail.Attachment) []string {
	names := make([]string, 0, len(attachments))
	for _, a := range attachments {
		names = append(names, a.Filename)
	}
	return names
}

// truncate shortens s to at most n bytes on a rune boundary. Invalid UTF-8 from the provider
// is replaced since Postgres rejects it in text columns.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func validationError(description string) error {
	return errors2.NewClientError(errors2.Describe(errors2.EMAIL_VALIDATION, description), http.StatusBadRequest)
}
