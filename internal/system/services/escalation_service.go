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

package services

import (
	"net/http"

	"github.com/wso2/email-gateway-service/internal/escalation/handler"
	"github.com/wso2/email-gateway-service/internal/escalation/service"
	"github.com/wso2/email-gateway-service/internal/system/constants"
)

// EscalationService routes contact management and the escalation event feed.
type EscalationService struct {
	handler *handler.EscalationHandler
}

func NewEscalationService(contacts service.ContactServiceInterface, engine service.EngineInterface) *EscalationService {
	return &EscalationService{handler: handler.NewEscalationHandler(contacts, engine)}
}

func (s *EscalationService) RegisterRoutes(mux *http.ServeMux, apiBasePath string) {

	projectContacts := apiBasePath + "/" + constants.ProjectsApiPath + "/{id}/" + constants.EscalationContactsApiPath
	mux.HandleFunc("GET "+projectContacts, s.handler.GetContacts)
	mux.HandleFunc("POST "+projectContacts, s.handler.AddContact)

	contacts := apiBasePath + "/" + constants.EscalationContactsApiPath
	mux.HandleFunc("PUT "+contacts+"/{id}", s.handler.UpdateContact)
	mux.HandleFunc("DELETE "+contacts+"/{id}", s.handler.DeleteContact)

	events := apiBasePath + "/" + constants.EscalationEventsApiPath
	mux.HandleFunc("GET "+events, s.handler.GetEvents)
	mux.HandleFunc("POST "+events+"/{id}/acknowledge", s.handler.AcknowledgeEvent)
}
