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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wso2/email-gateway-service/internal/projects/model"
	"github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/log"
)

type MockProjectStore struct {
	mock.Mock
}

func (m *MockProjectStore) AddProject(ctx context.Context, p *model.Project) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProjectStore) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockProjectStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Project), args.Error(1)
}

func (m *MockProjectStore) UpdateProject(ctx context.Context, p *model.Project) (bool, error) {
	args := m.Called(ctx, p)
	return args.Bool(0), args.Error(1)
}

func (m *MockProjectStore) DeleteProject(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockProjectStore) CountProjects(ctx context.Context) (int64, int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockProjectStore) GetLimits(ctx context.Context, id int64) (*model.Limits, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Limits), args.Error(1)
}

type fakeIssuer struct {
	err    error
	issued []int64
}

func (f *fakeIssuer) IssueKey(_ context.Context, projectID int64) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	f.issued = append(f.issued, projectID)
	return "esk_prefix12", "esk_prefix12-raw", nil
}

type forgetRecorder struct {
	forgotten []int64
}

func (f *forgetRecorder) Forget(projectID int64) {
	f.forgotten = append(f.forgotten, projectID)
}

type failingPurger struct {
	err error
}

func (p *failingPurger) DeleteByProject(_ context.Context, _ int64) error {
	return p.err
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

func ctx() context.Context { return context.Background() }

func fixedNow() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

func newLogger(t *testing.T) {
	t.Helper()
	_ = log.Init("DEBUG")
}

func TestCreateProjectAppliesDefaults(t *testing.T) {
	newLogger(t)

	mockStore := new(MockProjectStore)
	issuer := &fakeIssuer{}
	svc := NewProjectService(mockStore, issuer, nil).WithClock(fixedNow)

	mockStore.On("AddProject", mock.Anything, mock.MatchedBy(func(p *model.Project) bool {
		return p.Name == "Billing" && p.RateLimitPerMinute == 60 && p.RateLimitPerHour == 1000 && p.IsActive
	})).Return(int64(7), nil)

	created, err := svc.CreateProject(ctx(), model.ProjectCreateRequest{Name: "  Billing  "})

	require.NoError(t, err)
	assert.Equal(t, int64(7), created.ID)
	assert.Equal(t, "esk_prefix12", created.APIKeyPrefix)
	assert.Equal(t, "esk_prefix12-raw", created.APIKeyRaw)
	assert.Equal(t, []int64{7}, issuer.issued)
	mockStore.AssertExpectations(t)
}

func TestCreateProjectValidation(t *testing.T) {
	newLogger(t)

	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}
	cases := map[string]model.ProjectCreateRequest{
		"blank name":      {Name: "   "},
		"long name":       {Name: string(long)},
		"zero per minute": {Name: "x", RateLimitPerMinute: intPtr(0)},
		"negative hour":   {Name: "x", RateLimitPerHour: intPtr(-1)},
		"bad expiry":      {Name: "x", APIKeyExpiresAt: strPtr("tomorrow")},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			mockStore := new(MockProjectStore)
			svc := NewProjectService(mockStore, &fakeIssuer{}, nil)

			_, err := svc.CreateProject(ctx(), req)

			assert.True(t, errors.IsClientError(err, http.StatusBadRequest))
			mockStore.AssertNotCalled(t, "AddProject", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateProjectRollsBackWhenKeyIssueFails(t *testing.T) {
	newLogger(t)

	mockStore := new(MockProjectStore)
	issueErr := errors.NewServerError(errors.ISSUE_API_KEY, assert.AnError)
	svc := NewProjectService(mockStore, &fakeIssuer{err: issueErr}, nil)

	mockStore.On("AddProject", mock.Anything, mock.Anything).Return(int64(3), nil)
	mockStore.On("DeleteProject", mock.Anything, int64(3)).Return(true, nil)

	_, err := svc.CreateProject(ctx(), model.ProjectCreateRequest{Name: "Ops"})

	assert.ErrorIs(t, err, issueErr)
	mockStore.AssertExpectations(t)
}

func TestCreateProjectParsesExpiry(t *testing.T) {
	newLogger(t)

	mockStore := new(MockProjectStore)
	svc := NewProjectService(mockStore, &fakeIssuer{}, nil)
	want := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	mockStore.On("AddProject", mock.Anything, mock.MatchedBy(func(p *model.Project) bool {
		return p.APIKeyExpiresAt != nil && p.APIKeyExpiresAt.Equal(want)
	})).Return(int64(1), nil)

	_, err := svc.CreateProject(ctx(), model.ProjectCreateRequest{
		Name:            "Ops",
		APIKeyExpiresAt: strPtr("2027-01-01T05:30:00+05:30"),
	})

	require.NoError(t, err)
	mockStore.AssertExpectations(t)
}

func TestGetProjectNotFound(t *testing.T) {
	newLogger(t)

	mockStore := new(MockProjectStore)
	svc := NewProjectService(mockStore, &fakeIssuer{}, nil)
	mockStore.On("GetProject", mock.Anything, int64(9)).Return(nil, nil)

	_, err := svc.GetProject(ctx(), 9)

	assert.True(t, errors.HasCode(err, errors.PROJECT_NOT_FOUND))
	assert.True(t, errors.IsClientError(err, http.StatusNotFound))
}

func TestListProjectsNeverReturnsNil(t *testing.T) {
	newLogger(t)

	mockStore := new(MockProjectStore)
	svc := NewProjectService(mockStore, &fakeIssuer{}, nil)
	mockStore.On("ListProjects", mock.Anything).Return(nil, nil)

	projects, err := svc.ListProjects(ctx())

	require.NoError(t, err)
	assert.NotNil(t, projects)
	assert.Empty(t, projects)
}

func TestUpdateProjectIsPartial(t *testing.T) {
	newLogger(t)

	expiry := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	existing := &model.Project{
		ID: 4, Name: "Ops", Description: "pager", IsActive: true,
		RateLimitPerMinute: 60, RateLimitPerHour: 1000, APIKeyExpiresAt: &expiry,
	}
	mockStore := new(MockProjectStore)
	svc := NewProjectService(mockStore, &fakeIssuer{}, nil).WithClock(fixedNow)
	mockStore.On("GetProject", mock.Anything, int64(4)).Return(existing, nil)
	mockStore.On("UpdateProject", mock.Anything, mock.MatchedBy(func(p *model.Project) bool {
		return p.ID == 4 && p.Name == "Ops" && p.Description == "pager" && !p.IsActive &&
			p.RateLimitPerMinute == 5 && p.RateLimitPerHour == 1000 && p.APIKeyExpiresAt == nil
	})).Return(true, nil)

	updated, err := svc.UpdateProject(ctx(), 4, model.ProjectUpdateRequest{
		IsActive:           boolPtr(false),
		RateLimitPerMinute: intPtr(5),
		APIKeyExpiresAt:    strPtr(""),
	})

	require.NoError(t, err)
	assert.Equal(t, fixedNow(), updated.UpdatedAt)
	mockStore.AssertExpectations(t)
}

func TestUpdateProjectRejectsInvalidLimit(t *testing.T) {
	newLogger(t)

	mockStore := new(MockProjectStore)
	svc := NewProjectService(mockStore, &fakeIssuer{}, nil)
	mockStore.On("GetProject", mock.Anything, int64(4)).
		Return(&model.Project{ID: 4, Name: "Ops", RateLimitPerMinute: 1, RateLimitPerHour: 1}, nil)

	_, err := svc.UpdateProject(ctx(), 4, model.ProjectUpdateRequest{RateLimitPerHour: intPtr(0)})

	assert.True(t, errors.HasCode(err, errors.PROJECT_VALIDATION))
	mockStore.AssertNotCalled(t, "UpdateProject", mock.Anything, mock.Anything)
}

func TestDeleteProjectForgetsState(t *testing.T) {
	newLogger(t)

	mockStore := new(MockProjectStore)
	limiter, engine := &forgetRecorder{}, &forgetRecorder{}
	svc := NewProjectService(mockStore, &fakeIssuer{}, nil, limiter, engine)
	mockStore.On("DeleteProject", mock.Anything, int64(2)).Return(true, nil)

	require.NoError(t, svc.DeleteProject(ctx(), 2))

	assert.Equal(t, []int64{2}, limiter.forgotten)
	assert.Equal(t, []int64{2}, engine.forgotten)
}

func TestDeleteProjectForgetsStateWhenPurgeFails(t *testing.T) {
	newLogger(t)

	mockStore := new(MockProjectStore)
	limiter, engine := &forgetRecorder{}, &forgetRecorder{}
	purgeErr := errors.NewServerError(errors.GET_EMAIL_LOG, context.DeadlineExceeded)
	svc := NewProjectService(mockStore, &fakeIssuer{}, &failingPurger{err: purgeErr}, limiter, engine)
	mockStore.On("DeleteProject", mock.Anything, int64(2)).Return(true, nil)

	err := svc.DeleteProject(ctx(), 2)

	assert.ErrorIs(t, err, purgeErr)
	assert.Equal(t, []int64{2}, limiter.forgotten)
	assert.Equal(t, []int64{2}, engine.forgotten)
}

func TestDeleteMissingProject(t *testing.T) {
	newLogger(t)

	mockStore := new(MockProjectStore)
	limiter := &forgetRecorder{}
	svc := NewProjectService(mockStore, &fakeIssuer{}, nil, limiter)
	mockStore.On("DeleteProject", mock.Anything, int64(2)).Return(false, nil)

	err := svc.DeleteProject(ctx(), 2)

	assert.True(t, errors.IsClientError(err, http.StatusNotFound))
	assert.Empty(t, limiter.forgotten)
}
