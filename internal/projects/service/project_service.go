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
	"strings"
	"time"

	"github.com/wso2/email-gateway-service/internal/projects/model"
	"github.com/wso2/email-gateway-service/internal/projects/store"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	sysContext "github.com/wso2/email-gateway-service/internal/system/context"
	errors2 "github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/log"
)

// ProjectServiceInterface defines the project registry operations.
type ProjectServiceInterface interface {
	CreateProject(ctx context.Context, req model.ProjectCreateRequest) (*model.ProjectCreated, error)
	GetProject(ctx context.Context, id int64) (*model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	UpdateProject(ctx context.Context, id int64, req model.ProjectUpdateRequest) (*model.Project, error)
	DeleteProject(ctx context.Context, id int64) error
}

// KeyIssuer hands out the first API key of a new project.
type KeyIssuer interface {
	IssueKey(ctx context.Context, projectID int64) (prefix string, rawKey string, err error)
}

// StateForgetter drops in-memory state kept for a project.
type StateForgetter interface {
	Forget(projectID int64)
}

// LogPurger deletes delivery logs kept outside the project database.
type LogPurger interface {
	DeleteByProject(ctx context.Context, projectID int64) error
}

// ProjectService is the default implementation of ProjectServiceInterface.
type ProjectService struct {
	store      store.ProjectStoreInterface
	keys       KeyIssuer
	forgetters []StateForgetter
	purger     LogPurger
	now        func() time.Time
}

// NewProjectService creates the registry. purger may be nil when logs live in the project database.
func NewProjectService(projectStore store.ProjectStoreInterface, keys KeyIssuer, purger LogPurger,
	forgetters ...StateForgetter) *ProjectService {
	return &ProjectService{
		store:      projectStore,
		keys:       keys,
		forgetters: forgetters,
		purger:     purger,
		now:        time.Now,
	}
}

// WithClock replaces the clock used for audit timestamps.
func (s *ProjectService) WithClock(now func() time.Time) *ProjectService {
	s.now = now
	return s
}

func (s *ProjectService) CreateProject(ctx context.Context, req model.ProjectCreateRequest) (*model.ProjectCreated, error) {

	now := s.now().UTC()
	project := model.Project{
		Name:               strings.TrimSpace(req.Name),
		Description:        strings.TrimSpace(req.Description),
		IsActive:           true,
		RateLimitPerMinute: constants.DefaultRateLimitPerMinute,
		RateLimitPerHour:   constants.DefaultRateLimitPerHour,
		CreatedBy:          sysContext.GetSubject(ctx),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if req.IsActive != nil {
		project.IsActive = *req.IsActive
	}
	if req.RateLimitPerMinute != nil {
		project.RateLimitPerMinute = *req.RateLimitPerMinute
	}
	if req.RateLimitPerHour != nil {
		project.RateLimitPerHour = *req.RateLimitPerHour
	}
	if req.APIKeyExpiresAt != nil {
		expiresAt, err := parseExpiry(*req.APIKeyExpiresAt)
		if err != nil {
			return nil, err
		}
		project.APIKeyExpiresAt = expiresAt
	}
	if err := validateProject(project); err != nil {
		return nil, err
	}

	id, err := s.store.AddProject(ctx, &project)
	if err != nil {
		return nil, err
	}
	project.ID = id

	prefix, rawKey, err := s.keys.IssueKey(ctx, id)
	if err != nil {
		// Do not leave a project behind that has no key.
		if _, delErr := s.store.DeleteProject(ctx, id); delErr != nil {
			log.GetLogger().WithContext(ctx).Error("Failed to roll back project without key",
				log.Int64("project_id", id), log.Error(delErr))
		}
		return nil, err
	}
	project.APIKeyPrefix = prefix

	s.audit(ctx, log.ActionAddProject, id, map[string]interface{}{
		"name":           project.Name,
		"api_key_prefix": prefix,
	})
	return &model.ProjectCreated{Project: project, APIKeyRaw: rawKey}, nil
}

func (s *ProjectService) GetProject(ctx context.Context, id int64) (*model.Project, error) {

	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, notFound(id)
	}
	return project, nil
}

func (s *ProjectService) ListProjects(ctx context.Context) ([]model.Project, error) {

	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	if projects == nil {
		return []model.Project{}, nil
	}
	return projects, nil
}

// UpdateProject applies a partial update. The id is never changed.
func (s *ProjectService) UpdateProject(ctx context.Context, id int64, req model.ProjectUpdateRequest) (*model.Project, error) {

	project, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := map[string]interface{}{}
	if req.Name != nil {
		project.Name = strings.TrimSpace(*req.Name)
		changed["name"] = project.Name
	}
	if req.Description != nil {
		project.Description = strings.TrimSpace(*req.Description)
		changed["description"] = project.Description
	}
	if req.IsActive != nil {
		project.IsActive = *req.IsActive
		changed["is_active"] = project.IsActive
	}
	if req.RateLimitPerMinute != nil {
		project.RateLimitPerMinute = *req.RateLimitPerMinute
		changed["rate_limit_per_minute"] = project.RateLimitPerMinute
	}
	if req.RateLimitPerHour != nil {
		project.RateLimitPerHour = *req.RateLimitPerHour
		changed["rate_limit_per_hour"] = project.RateLimitPerHour
	}
	if req.APIKeyExpiresAt != nil {
		expiresAt, err := parseExpiry(*req.APIKeyExpiresAt)
		if err != nil {
			return nil, err
		}
		project.APIKeyExpiresAt = expiresAt
		changed["api_key_expires_at"] = *req.APIKeyExpiresAt
	}
	if err := validateProject(*project); err != nil {
		return nil, err
	}
	project.UpdatedAt = s.now().UTC()

	updated, err := s.store.UpdateProject(ctx, project)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, notFound(id)
	}
	s.audit(ctx, log.ActionUpdateProject, id, changed)
	return project, nil
}

// DeleteProject removes the project and everything it owns, including in-memory counters.
func (s *ProjectService) DeleteProject(ctx context.Context, id int64) error {

	deleted, err := s.store.DeleteProject(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return notFound(id)
	}
	// The registry row is gone, so in-memory state goes too even when the purge below fails.
	for _, f := range s.forgetters {
		f.Forget(id)
	}
	s.audit(ctx, log.ActionDeleteProject, id, nil)
	if s.purger != nil {
		if err := s.purger.DeleteByProject(ctx, id); err != nil {
			log.GetLogger().WithContext(ctx).Error("Failed to purge delivery logs of deleted project",
				log.Int64("project_id", id), log.Error(err))
			return err
		}
	}
	return nil
}

func (s *ProjectService) audit(ctx context.Context, action string, id int64, data interface{}) {
	log.GetLogger().Audit(log.AuditEvent{
		InitiatorID:   sysContext.GetSubject(ctx),
		InitiatorType: log.InitiatorTypeAdmin,
		TargetID:      strconv.FormatInt(id, 10),
		TargetType:    log.TargetTypeProject,
		ActionID:      action,
		TraceID:       sysContext.GetTraceID(ctx),
		Data:          data,
	})
}

func validateProject(p model.Project) error {

	if p.Name == "" {
		return validationError("Project name is required.")
	}
	if len(p.Name) > constants.MaxProjectNameLength {
		return validationError("Project name must not exceed 255 characters.")
	}
	if p.RateLimitPerMinute <= 0 {
		return validationError("rate_limit_per_minute must be a positive integer.")
	}
	if p.RateLimitPerHour <= 0 {
		return validationError("rate_limit_per_hour must be a positive integer.")
	}
	return nil
}

// parseExpiry accepts RFC 3339 timestamps. The empty string means no expiry.
func parseExpiry(raw string) (*time.Time, error) {

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, validationError("api_key_expires_at must be an RFC 3339 timestamp.")
	}
	t = t.UTC()
	return &t, nil
}

func validationError(description string) error {
	return errors2.NewClientError(errors2.Describe(errors2.PROJECT_VALIDATION, description), http.StatusBadRequest)
}

func notFound(id int64) error {
	return errors2.NewClientError(errors2.Describe(errors2.PROJECT_NOT_FOUND,
		"No project exists with id "+strconv.FormatInt(id, 10)+"."), http.StatusNotFound)
}
