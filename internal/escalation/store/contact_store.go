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

	"github.com/wso2/email-gateway-service/internal/escalation/model"
	"github.com/wso2/email-gateway-service/internal/system/database/client"
	"github.com/wso2/email-gateway-service/internal/system/database/scripts"
	errors2 "github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/log"
)

// ContactStoreInterface persists escalation contacts. Lookups return nil when absent.
type ContactStoreInterface interface {
	AddContact(ctx context.Context, contact *model.Contact) (int64, error)
	GetContact(ctx context.Context, id int64) (*model.Contact, error)
	ListContacts(ctx context.Context, projectID int64) ([]model.Contact, error)
	ListActiveContactsByLevel(ctx context.Context, projectID int64, level int) ([]model.Contact, error)
	UpdateContact(ctx context.Context, contact *model.Contact) (bool, error)
	DeleteContact(ctx context.Context, id int64) (bool, error)
}

type ContactStore struct {
	db client.DBClientInterface
}

func NewContactStore(db client.DBClientInterface) *ContactStore {
	return &ContactStore{db: db}
}

func (s *ContactStore) AddContact(ctx context.Context, c *model.Contact) (int64, error) {

	var id int64
	err := s.db.QueryRowContext(ctx, scripts.InsertEscalationContact[s.db.DBType()], c.ProjectID, c.Name, c.Email,
		c.Level, c.IsActive, client.ToMillis(c.CreatedAt)).Scan(&id)
	if err != nil {
		return 0, serverError(errors2.ADD_ESCALATION_CONTACT, "Failed to insert escalation contact.", err)
	}
	return id, nil
}

func (s *ContactStore) GetContact(ctx context.Context, id int64) (*model.Contact, error) {

	contact, err := scanContact(s.db.QueryRowContext(ctx, scripts.GetEscalationContact[s.db.DBType()], id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, serverError(errors2.GET_ESCALATION_CONTACT, "Failed to fetch escalation contact.", err)
	}
	return contact, nil
}

func (s *ContactStore) ListContacts(ctx context.Context, projectID int64) ([]model.Contact, error) {
	return s.list(ctx, scripts.ListEscalationContacts[s.db.DBType()], projectID)
}

func (s *ContactStore) ListActiveContactsByLevel(ctx context.Context, projectID int64, level int) ([]model.Contact, error) {
	return s.list(ctx, scripts.ListActiveEscalationContactsByLevel[s.db.DBType()], projectID, level)
}

func (s *ContactStore) list(ctx context.Context, query string, args ...interface{}) ([]model.Contact, error) {

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, serverError(errors2.GET_ESCALATION_CONTACT, "Failed to list escalation contacts.", err)
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, serverError(errors2.GET_ESCALATION_CONTACT, "Failed to read escalation contact.", err)
		}
		contacts = append(contacts, *contact)
	}
	if err := rows.Err(); err != nil {
		return nil, serverError(errors2.GET_ESCALATION_CONTACT, "Failed to list escalation contacts.", err)
	}
	return contacts, nil
}

func (s *ContactStore) UpdateContact(ctx context.Context, c *model.Contact) (bool, error) {

	result, err := s.db.ExecContext(ctx, scripts.UpdateEscalationContact[s.db.DBType()], c.Name, c.Email, c.Level,
		c.IsActive, c.ID)
	if err != nil {
		return false, serverError(errors2.UPDATE_ESCALATION_CONTACT, "Failed to update escalation contact.", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

func (s *ContactStore) DeleteContact(ctx context.Context, id int64) (bool, error) {

	result, err := s.db.ExecContext(ctx, scripts.DeleteEscalationContact[s.db.DBType()], id)
	if err != nil {
		return false, serverError(errors2.DELETE_ESCALATION_CONTACT, "Failed to delete escalation contact.", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContact(row rowScanner) (*model.Contact, error) {

	var c model.Contact
	var createdAt int64
	if err := row.Scan(&c.ID, &c.ProjectID, &c.Name, &c.Email, &c.Level, &c.IsActive, &createdAt); err != nil {
		return nil, err
	}
	c.CreatedAt = client.FromMillis(createdAt)
	return &c, nil
}

func serverError(msg errors2.ErrorMessage, description string, err error) error {
	log.GetLogger().Debug(description, log.Error(err))
	return errors2.NewServerError(errors2.Describe(msg, description), errors.WithStack(err))
}
