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

	"github.com/pkg/errors"

	"github.com/wso2/email-gateway-service/internal/projects/model"
	"github.com/wso2/email-gateway-service/internal/system/database/client"
	"github.com/wso2/email-gateway-service/internal/system/database/scripts"
	errors2 "github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/log"
)

// ProjectStoreInterface persists projects. Lookups return nil without error when the project
// does not exist.
type ProjectStoreInterface interface {
	AddProject(ctx context.Context, project *model.Project) (int64, error)
	GetProject(ctx context.Context, id int64) (*model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	UpdateProject(ctx context.Context, project *model.Project) (bool, error)
	DeleteProject(ctx context.Context, id int64) (bool, error)
	CountProjects(ctx context.Context) (total int64, active int64, err error)
	GetLimits(ctx context.Context, id int64) (*model.Limits, error)
}

// ProjectStore is the SQL implementation of ProjectStoreInterface.
type ProjectStore struct {
	db client.DBClientInterface
}

func NewProjectStore(db client.DBClientInterface) *ProjectStore {
	return &ProjectStore{db: db}
}

// AddProject inserts a project and returns its id.
func (s *ProjectStore) AddProject(ctx context.Context, p *model.Project) (int64, error) {

	var id int64
	err := s.db.QueryRowContext(ctx, scripts.InsertProject[s.db.DBType()],
		p.Name, p.Description, client.NullableMillis(p.APIKeyExpiresAt), p.IsActive,
		p.RateLimitPerMinute, p.RateLimitPerHour, p.CreatedBy,
		client.ToMillis(p.CreatedAt), client.ToMillis(p.UpdatedAt)).Scan(&id)
	if err != nil {
		return 0, serverError(errors2.ADD_PROJECT, "Failed to insert project.", err)
	}
	return id, nil
}

func (s *ProjectStore) GetProject(ctx context.Context, id int64) (*model.Project, error) {

	row := s.db.QueryRowContext(ctx, scripts.GetProjectByID[s.db.DBType()], id)
	project, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, serverError(errors2.GET_PROJECT, "Failed to fetch project.", err)
	}
	return project, nil
}

func (s *ProjectStore) ListProjects(ctx context.Context) ([]model.Project, error) {

	rows, err := s.db.QueryContext(ctx, scripts.ListProjects[s.db.DBType()])
	if err != nil {
		return nil, serverError(errors2.GET_PROJECT, "Failed to list projects.", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, serverError(errors2.GET_PROJECT, "Failed to read project row.", err)
		}
		projects = append(projects, *project)
	}
	if err := rows.Err(); err != nil {
		return nil, serverError(errors2.GET_PROJECT, "Failed to list projects.", err)
	}
	return projects, nil
}

// UpdateProject writes every mutable field. The expiry of the active key follows the project
// in the same transaction.
func (s *ProjectStore) UpdateProject(ctx context.Context, p *model.Project) (bool, error) {

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return false, serverError(errors2.UPDATE_PROJECT, "Failed to begin transaction.", err)
	}
	defer func() { _ = tx.Rollback() }()

	dbType := s.db.DBType()
	expiresAt := client.NullableMillis(p.APIKeyExpiresAt)
	result, err := tx.ExecContext(ctx, scripts.UpdateProject[dbType], p.Name, p.Description, expiresAt,
		p.IsActive, p.RateLimitPerMinute, p.RateLimitPerHour, client.ToMillis(p.UpdatedAt), p.ID)
	if err != nil {
		return false, serverError(errors2.UPDATE_PROJECT, "Failed to update project.", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, scripts.UpdateActiveAPIKeyExpiry[dbType], expiresAt, p.ID); err != nil {
		return false, serverError(errors2.UPDATE_PROJECT, "Failed to propagate key expiry.", err)
	}
	if err := tx.Commit(); err != nil {
		return false, serverError(errors2.UPDATE_PROJECT, "Failed to commit project update.", err)
	}
	return true, nil
}

// DeleteProject removes a project. Keys, contacts, events and SQL delivery logs cascade.
func (s *ProjectStore) DeleteProject(ctx context.Context, id int64) (bool, error) {

	result, err := s.db.ExecContext(ctx, scripts.DeleteProject[s.db.DBType()], id)
	if err != nil {
		return false, serverError(errors2.DELETE_PROJECT, "Failed to delete project.", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

func (s *ProjectStore) CountProjects(ctx context.Context) (int64, int64, error) {

	var total, active int64
	if err := s.db.QueryRowContext(ctx, scripts.CountProjects[s.db.DBType()]).Scan(&total, &active); err != nil {
		return 0, 0, serverError(errors2.GET_PROJECT, "Failed to count projects.", err)
	}
	return total, active, nil
}

// GetLimits reads the admission settings of a project straight from the database.
func (s *ProjectStore) GetLimits(ctx context.Context, id int64) (*model.Limits, error) {

	var limits model.Limits
	err := s.db.QueryRowContext(ctx, scripts.GetProjectLimits[s.db.DBType()], id).
		Scan(&limits.IsActive, &limits.PerMinute, &limits.PerHour)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, serverError(errors2.GET_PROJECT, "Failed to read project limits.", err)
	}
	return &limits, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*model.Project, error) {

	var p model.Project
	var expiresAt sql.NullInt64
	var createdAt, updatedAt int64
	err := row.Scan(&p.ID, &p.Name, &p.Description, &expiresAt, &p.IsActive, &p.RateLimitPerMinute,
		&p.RateLimitPerHour, &p.CreatedBy, &createdAt, &updatedAt, &p.APIKeyPrefix)
	if err != nil {
		return nil, err
	}
	p.APIKeyExpiresAt = client.TimePtr(expiresAt)
	p.CreatedAt = client.FromMillis(createdAt)
	p.UpdatedAt = client.FromMillis(updatedAt)
	return &p, nil
}

func serverError(msg errors2.ErrorMessage, description string, err error) error {
	log.GetLogger().Debug(description, log.Error(err))
	return errors2.NewServerError(errors2.Describe(msg, description), errors.WithStack(err))
}
