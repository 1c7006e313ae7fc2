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
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apiKeyService "github.com/wso2/email-gateway-service/internal/api_keys/service"
	apiKeyStore "github.com/wso2/email-gateway-service/internal/api_keys/store"
	"github.com/wso2/email-gateway-service/internal/delivery/model"
	logModel "github.com/wso2/email-gateway-service/internal/email_logs/model"
	logService "github.com/wso2/email-gateway-service/internal/email_logs/service"
	logStore "github.com/wso2/email-gateway-service/internal/email_logs/store"
	escalationModel "github.com/wso2/email-gateway-service/internal/escalation/model"
	projectModel "github.com/wso2/email-gateway-service/internal/projects/model"
	projectService "github.com/wso2/email-gateway-service/internal/projects/service"
	projectStore "github.com/wso2/email-gateway-service/internal/projects/store"
	rateLimitService "github.com/wso2/email-gateway-service/internal/rate_limit/service"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	"github.com/wso2/email-gateway-service/internal/system/database/testdb"
	errors2 "github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/log"
	"github.com/wso2/email-gateway-service/internal/system/mail"
)

type fakeSender struct {
	mu   sync.Mutex
	err  error
	sent []mail.Message
}

func (s *fakeSender) Send(_ context.Context, msg mail.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	if s.err != nil {
		return "", s.err
	}
	return "<msg-" + time.Now().Format("150405.000000000") + "@test>", nil
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type fakeEscalator struct {
	mu        sync.Mutex
	failures  []escalationModel.Failure
	successes []int64
}

func (e *fakeEscalator) RecordFailure(_ context.Context, f escalationModel.Failure) ([]escalationModel.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures = append(e.failures, f)
	return nil, nil
}

func (e *fakeEscalator) RecordSuccess(_ context.Context, projectID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.successes = append(e.successes, projectID)
}

type deliveryFixture struct {
	svc       *DeliveryService
	projects  *projectService.ProjectService
	logs      *logService.EmailLogService
	sender    *fakeSender
	escalator *fakeEscalator
}

func newDeliveryFixture(t *testing.T) *deliveryFixture {
	t.Helper()
	_ = log.Init("DEBUG")
	db := testdb.NewSQLite(t)

	pStore := projectStore.NewProjectStore(db)
	keys := apiKeyService.NewAPIKeyService(apiKeyStore.NewAPIKeyStore(db), bcrypt.MinCost)
	limiter := rateLimitService.NewRateLimiter(pStore)
	f := &deliveryFixture{
		projects:  projectService.NewProjectService(pStore, keys, nil, limiter),
		logs:      logService.NewEmailLogService(logStore.NewSQLEmailLogStore(db)),
		sender:    &fakeSender{},
		escalator: &fakeEscalator{},
	}
	f.svc = NewDeliveryService(keys, limiter, f.logs, pStore, f.sender, f.escalator)
	return f
}

func (f *deliveryFixture) createProject(t *testing.T, name string, perMinute int) *projectModel.ProjectCreated {
	t.Helper()
	created, err := f.projects.CreateProject(context.Background(), projectModel.ProjectCreateRequest{
		Name: name, RateLimitPerMinute: &perMinute,
	})
	require.NoError(t, err)
	return created
}

func logFilter(projectID int64) logModel.LogFilter {
	return logModel.LogFilter{ProjectID: &projectID}
}

func validRequest() model.SendRequest {
	return model.SendRequest{
		To:       []string{"Alice <alice@example.com>"},
		Cc:       []string{"bob@example.com"},
		Subject:  "Your invoice",
		BodyHTML: "<p>Attached.</p>",
	}
}

func TestSendDelivers(t *testing.T) {
	f := newDeliveryFixture(t)
	p := f.createProject(t, "billing", 10)
	ctx := context.Background()

	result, err := f.svc.Send(ctx, p.APIKeyRaw, validRequest())
	require.NoError(t, err)
	assert.Equal(t, constants.StatusSent, result.Status)
	require.NotNil(t, result.ProviderMessageID)
	assert.Nil(t, result.ErrorMessage)
	assert.NotEmpty(t, result.RequestID)
	assert.False(t, result.Replayed)

	require.Equal(t, 1, f.sender.count())
	assert.Equal(t, []string{"alice@example.com"}, f.sender.sent[0].To)

	entry, err := f.logs.GetLog(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusSent, entry.Status)
	assert.Equal(t, "billing", entry.ProjectName)
	assert.Equal(t, *result.ProviderMessageID, *entry.ProviderMessageID)
	assert.NotNil(t, entry.SentAt)
	assert.Equal(t, []int64{p.ID}, f.escalator.successes)
	assert.Empty(t, f.escalator.failures)
}

func TestSendProviderFailureIsRecorded(t *testing.T) {
	f := newDeliveryFixture(t)
	p := f.createProject(t, "billing", 10)
	f.sender.err = errors.New("550 mailbox unavailable")
	ctx := context.Background()

	result, err := f.svc.Send(ctx, p.APIKeyRaw, validRequest())
	require.NoError(t, err)
	assert.Equal(t, constants.StatusFailed, result.Status)
	require.NotNil(t, result.ErrorMessage)
	assert.Contains(t, *result.ErrorMessage, "550")

	entry, err := f.logs.GetLog(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusFailed, entry.Status)
	assert.Nil(t, entry.SentAt)

	require.Len(t, f.escalator.failures, 1)
	assert.Equal(t, result.ID, f.escalator.failures[0].EmailLogID)
	assert.Equal(t, "billing", f.escalator.failures[0].ProjectName)
	assert.Equal(t, "Your invoice", f.escalator.failures[0].Subject)
}

func TestSendLongMultibyteFailureIsRecorded(t *testing.T) {
	f := newDeliveryFixture(t)
	p := f.createProject(t, "billing", 10)
	f.sender.err = errors.New(strings.Repeat("a", maxErrorLength-1) + "é and more")
	ctx := context.Background()

	result, err := f.svc.Send(ctx, p.APIKeyRaw, validRequest())
	require.NoError(t, err)
	assert.Equal(t, constants.StatusFailed, result.Status)

	entry, err := f.logs.GetLog(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusFailed, entry.Status)
	require.NotNil(t, entry.ErrorMessage)
	assert.True(t, utf8.ValidString(*entry.ErrorMessage))
	assert.Equal(t, strings.Repeat("a", maxErrorLength-1), *entry.ErrorMessage)
	assert.Len(t, f.escalator.failures, 1)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "ab", truncate("abc", 2))

	cut := truncate(strings.Repeat("a", 999)+"é", 1000)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, 999, len(cut))

	assert.Equal(t, "日本", truncate("日本語", 8))
	assert.Equal(t, "a\uFFFDb", truncate("a\xffb", 10))
}

func TestSendRejectsBadKey(t *testing.T) {
	f := newDeliveryFixture(t)
	f.createProject(t, "billing", 10)

	_, err := f.svc.Send(context.Background(), "esk_not-a-real-key", validRequest())
	assert.True(t, errors2.IsClientError(err, http.StatusUnauthorized))
	assert.Zero(t, f.sender.count())
}

func TestSendRateLimited(t *testing.T) {
	f := newDeliveryFixture(t)
	p := f.createProject(t, "billing", 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Send(ctx, p.APIKeyRaw, validRequest())
		require.NoError(t, err)
	}
	_, err := f.svc.Send(ctx, p.APIKeyRaw, validRequest())
	require.True(t, errors2.IsClientError(err, http.StatusTooManyRequests), "got %v", err)

	var clientErr *errors2.ClientError
	require.ErrorAs(t, err, &clientErr)
	assert.Greater(t, clientErr.RetryAfter, time.Duration(0))
	assert.Equal(t, 2, f.sender.count())

	page, err := f.logs.QueryLogs(ctx, logFilter(p.ID), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
}

func TestSendReplaysRequestID(t *testing.T) {
	f := newDeliveryFixture(t)
	p := f.createProject(t, "billing", 1)
	ctx := context.Background()

	req := validRequest()
	req.RequestID = "order-42"
	first, err := f.svc.Send(ctx, p.APIKeyRaw, req)
	require.NoError(t, err)

	// The replay neither sends again nor spends the exhausted quota.
	second, err := f.svc.Send(ctx, p.APIKeyRaw, req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, 1, f.sender.count())

	other := f.createProject(t, "marketing", 10)
	_, err = f.svc.Send(ctx, other.APIKeyRaw, req)
	assert.True(t, errors2.HasCode(err, errors2.EMAIL_LOG_CONFLICT))
}

func TestSendConcurrentSameRequestIDSpendsQuotaOnce(t *testing.T) {
	f := newDeliveryFixture(t)
	p := f.createProject(t, "billing", 2)
	ctx := context.Background()

	req := validRequest()
	req.RequestID = "order-7"
	const n = 8
	results := make([]*model.SendResult, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.Send(ctx, p.APIKeyRaw, req)
		}(i)
	}
	wg.Wait()

	fresh := 0
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].ID, results[i].ID)
		if !results[i].Replayed {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)
	assert.Equal(t, 1, f.sender.count())

	// One unit of the per-minute quota of two is left.
	next := validRequest()
	next.RequestID = "order-8"
	_, err := f.svc.Send(ctx, p.APIKeyRaw, next)
	require.NoError(t, err)
	next.RequestID = "order-9"
	_, err = f.svc.Send(ctx, p.APIKeyRaw, next)
	assert.True(t, errors2.IsClientError(err, http.StatusTooManyRequests))
}

func TestSendAttachments(t *testing.T) {
	f := newDeliveryFixture(t)
	p := f.createProject(t, "billing", 10)
	ctx := context.Background()

	req := validRequest()
	req.Attachments = []model.AttachmentRequest{
		{Filename: "invoice.pdf", Content: base64.StdEncoding.EncodeToString([]byte("%PDF-1.4"))},
		{Filename: "data.bin", ContentType: "application/x-custom", Content: base64.StdEncoding.EncodeToString([]byte{1, 2})},
	}
	result, err := f.svc.Send(ctx, p.APIKeyRaw, req)
	require.NoError(t, err)

	sent := f.sender.sent[0]
	require.Len(t, sent.Attachments, 2)
	assert.Equal(t, "application/pdf", sent.Attachments[0].ContentType)
	assert.Equal(t, []byte("%PDF-1.4"), sent.Attachments[0].Content)
	assert.Equal(t, "application/x-custom", sent.Attachments[1].ContentType)

	entry, err := f.logs.GetLog(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.AttachmentsCount)
	assert.Equal(t, []string{"invoice.pdf", "data.bin"}, entry.AttachmentNames)
}

func TestSendValidation(t *testing.T) {
	f := newDeliveryFixture(t)
	p := f.createProject(t, "billing", 10)

	tests := []struct {
		name   string
		mutate func(r *model.SendRequest)
	}{
		{"no recipients", func(r *model.SendRequest) { r.To = nil }},
		{"bad to", func(r *model.SendRequest) { r.To = []string{"alice"} }},
		{"bad bcc", func(r *model.SendRequest) { r.Bcc = []string{"@example.com"} }},
		{"empty subject", func(r *model.SendRequest) { r.Subject = "  " }},
		{"multiline subject", func(r *model.SendRequest) { r.Subject = "hi\r\nBcc: x@example.com" }},
		{"attachment without name", func(r *model.SendRequest) {
			r.Attachments = []model.AttachmentRequest{{Content: "aGk="}}
		}},
		{"attachment path", func(r *model.SendRequest) {
			r.Attachments = []model.AttachmentRequest{{Filename: "../etc/passwd", Content: "aGk="}}
		}},
		{"attachment not base64", func(r *model.SendRequest) {
			r.Attachments = []model.AttachmentRequest{{Filename: "a.txt", Content: "%%%"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := f.svc.Send(context.Background(), p.APIKeyRaw, req)
			assert.True(t, errors2.HasCode(err, errors2.EMAIL_VALIDATION), "got %v", err)
		})
	}
	assert.Zero(t, f.sender.count())
}

func TestSendInactiveProject(t *testing.T) {
	f := newDeliveryFixture(t)
	p := f.createProject(t, "billing", 10)
	inactive := false
	_, err := f.projects.UpdateProject(context.Background(), p.ID, projectModel.ProjectUpdateRequest{IsActive: &inactive})
	require.NoError(t, err)

	_, err = f.svc.Send(context.Background(), p.APIKeyRaw, validRequest())
	assert.True(t, errors2.IsClientError(err, http.StatusForbidden), "got %v", err)
	assert.Zero(t, f.sender.count())
}
