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
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/wso2/email-gateway-service/internal/escalation/model"
	"github.com/wso2/email-gateway-service/internal/escalation/store"
	projectModel "github.com/wso2/email-gateway-service/internal/projects/model"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	sysContext "github.com/wso2/email-gateway-service/internal/system/context"
	errors2 "github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/log"
)

// ProjectLookup finds a project, returning nil when it does not exist.
type ProjectLookup interface {
	GetProject(ctx context.Context, id int64) (*projectModel.Project, error)
}

// ContactServiceInterface manages the escalation contacts of projects.
type ContactServiceInterface interface {
	AddContact(ctx context.Context, projectID int64, req model.ContactCreateRequest) (*model.Contact, error)
	ListContacts(ctx context.Context, projectID int64) ([]model.Contact, error)
	UpdateContact(ctx context.Context, id int64, req model.ContactUpdateRequest) (*model.Contact, error)
	DeleteContact(ctx context.Context, id int64) error
}

type ContactService struct {
	store    store.ContactStoreInterface
	projects ProjectLookup
	now      func() time.Time
}

func NewContactService(contactStore store.ContactStoreInterface, projects ProjectLookup) *ContactService {
	return &ContactService{store: contactStore, projects: projects, now: time.Now}
}

func (s *ContactService) AddContact(ctx context.Context, projectID int64, req model.ContactCreateRequest) (*model.Contact, error) {

	if err := s.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	contact := &model.Contact{
		ProjectID: projectID,
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Level:     req.Level,
		IsActive:  true,
		CreatedAt: s.now().UTC(),
	}
	if req.IsActive != nil {
		contact.IsActive = *req.IsActive
	}
	if err := validateContact(contact); err != nil {
		return nil, err
	}
	id, err := s.store.AddContact(ctx, contact)
	if err != nil {
		return nil, err
	}
	contact.ID = id
	s.audit(ctx, log.ActionAddEscalationContact, contact)
	return contact, nil
}

func (s *ContactService) ListContacts(ctx context.Context, projectID int64) ([]model.Contact, error) {

	if err := s.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ListContacts(ctx, projectID)
}

func (s *ContactService) UpdateContact(ctx context.Context, id int64, req model.ContactUpdateRequest) (*model.Contact, error) {

	contact, err := s.store.GetContact(ctx, id)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, contactNotFound(id)
	}
	if req.Name != nil {
		contact.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		contact.Email = strings.TrimSpace(*req.Email)
	}
	if req.Level != nil {
		contact.Level = *req.Level
	}
	if req.IsActive != nil {
		contact.IsActive = *req.IsActive
	}
	if err := validateContact(contact); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateContact(ctx, contact)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, contactNotFound(id)
	}
	s.audit(ctx, log.ActionUpdateEscalationContact, contact)
	return contact, nil
}

func (s *ContactService) DeleteContact(ctx context.Context, id int64) error {

	deleted, err := s.store.DeleteContact(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return contactNotFound(id)
	}
	s.audit(ctx, log.ActionDeleteEscalationContact, &model.Contact{ID: id})
	return nil
}

func (s *ContactService) requireProject(ctx context.Context, projectID int64) error {

	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if project == nil {
		return errors2.NewClientError(errors2.Describe(errors2.PROJECT_NOT_FOUND,
			"No project exists with id "+strconv.FormatInt(projectID, 10)+"."), http.StatusNotFound)
	}
	return nil
}

func (s *ContactService) audit(ctx context.Context, action string, c *model.Contact) {
	var data interface{}
	if c.ProjectID != 0 {
		data = map[string]interface{}{"project_id": c.ProjectID, "level": c.Level, "is_active": c.IsActive}
	}
	log.GetLogger().Audit(log.AuditEvent{
		InitiatorID:   sysContext.GetSubject(ctx),
		InitiatorType: log.InitiatorTypeAdmin,
		TargetID:      strconv.FormatInt(c.ID, 10),
		TargetType:    log.TargetTypeEscalationContact,
		ActionID:      action,
		TraceID:       sysContext.GetTraceID(ctx),
		Data:          data,
	})
}

func validateContact(c *model.Contact) error {

	if c.Name == "" {
		return contactValidation("Contact name is required.")
	}
	if len(c.Name) > 255 {
		return contactValidation("Contact name must not exceed 255 characters.")
	}
	if c.Email == "" {
		return contactValidation("Contact email is required.")
	}
	addr, err := mail.ParseAddress(c.Email)
	if err != nil || addr.Address != c.Email {
		return contactValidation("Contact email '" + c.Email + "' is not a valid address.")
	}
	if !constants.AllowedEscalationLevels[c.Level] {
		return contactValidation("Contact level must be 1, 2 or 3.")
	}
	return nil
}

func contactValidation(description string) error {
	return errors2.NewClientError(errors2.Describe(errors2.ESCALATION_CONTACT_VALIDATION, description),
		http.StatusBadRequest)
}

func contactNotFound(id int64) error {
	return errors2.NewClientError(errors2.Describe(errors2.ESCALATION_CONTACT_NOT_FOUND,
		"No escalation contact exists with id "+strconv.FormatInt(id, 10)+"."), http.StatusNotFound)
}
