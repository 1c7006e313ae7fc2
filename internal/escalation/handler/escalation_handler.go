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

package handler

import (
	"net/http"

	"github.com/wso2/email-gateway-service/internal/escalation/model"
	"github.com/wso2/email-gateway-service/internal/escalation/service"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	"github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/security"
	"github.com/wso2/email-gateway-service/internal/system/utils"
)

type EscalationHandler struct {
	contacts service.ContactServiceInterface
	engine   service.EngineInterface
}

func NewEscalationHandler(contacts service.ContactServiceInterface, engine service.EngineInterface) *EscalationHandler {
	return &EscalationHandler{contacts: contacts, engine: engine}
}

// GetContacts handles GET /projects/{id}/escalation-contacts
func (h *EscalationHandler) GetContacts(w http.ResponseWriter, r *http.Request) {

	r, err := security.AuthnAndAuthz(r, constants.OperationView)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	projectID, err := utils.PathID(r, "id")
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	contacts, err := h.contacts.ListContacts(r.Context(), projectID)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, contacts)
}

// AddContact handles POST /projects/{id}/escalation-contacts
func (h *EscalationHandler) AddContact(w http.ResponseWriter, r *http.Request) {

	r, err := security.AuthnAndAuthz(r, constants.OperationManage)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	projectID, err := utils.PathID(r, "id")
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	var req model.ContactCreateRequest
	if err := utils.DecodeJSON(r, &req, "escalation contact", errors.ESCALATION_CONTACT_VALIDATION); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	contact, err := h.contacts.AddContact(r.Context(), projectID, req)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, contact)
}

// UpdateContact handles PUT /escalation-contacts/{id}
func (h *EscalationHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {

	r, err := security.AuthnAndAuthz(r, constants.OperationManage)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	id, err := utils.PathID(r, "id")
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	var req model.ContactUpdateRequest
	if err := utils.DecodeJSON(r, &req, "escalation contact", errors.ESCALATION_CONTACT_VALIDATION); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	contact, err := h.contacts.UpdateContact(r.Context(), id, req)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, contact)
}

// DeleteContact handles DELETE /escalation-contacts/{id}
func (h *EscalationHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {

	r, err := security.AuthnAndAuthz(r, constants.OperationManage)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	id, err := utils.PathID(r, "id")
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if err := h.contacts.DeleteContact(r.Context(), id); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetEvents handles GET /escalation-events?project_id&page&page_size
func (h *EscalationHandler) GetEvents(w http.ResponseWriter, r *http.Request) {

	r, err := security.AuthnAndAuthz(r, constants.OperationView)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	projectID, err := utils.OptionalQueryID(r, "project_id")
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	page, pageSize, err := utils.PageParams(r)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	events, err := h.engine.ListEvents(r.Context(), projectID, page, pageSize)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, events)
}

// AcknowledgeEvent handles POST /escalation-events/{id}/acknowledge
func (h *EscalationHandler) AcknowledgeEvent(w http.ResponseWriter, r *http.Request) {

	r, err := security.AuthnAndAuthz(r, constants.OperationManage)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	id, err := utils.PathID(r, "id")
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	event, err := h.engine.Acknowledge(r.Context(), id)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, event)
}
