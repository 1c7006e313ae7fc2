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

	apiKeyHandler "github.com/wso2/email-gateway-service/internal/api_keys/handler"
	apiKeyService "github.com/wso2/email-gateway-service/internal/api_keys/service"
	"github.com/wso2/email-gateway-service/internal/projects/handler"
	projectService "github.com/wso2/email-gateway-service/internal/projects/service"
	"github.com/wso2/email-gateway-service/internal/system/constants"
)

// ProjectService routes the project registry and key rotation endpoints.
type ProjectService struct {
	handler    *handler.ProjectHandler
	keyHandler *apiKeyHandler.APIKeyHandler
}

func NewProjectService(projects projectService.ProjectServiceInterface,
	keys apiKeyService.APIKeyServiceInterface) *ProjectService {
	return &ProjectService{
		handler:    handler.NewProjectHandler(projects),
		keyHandler: apiKeyHandler.NewAPIKeyHandler(keys),
	}
}

func (s *ProjectService) RegisterRoutes(mux *http.ServeMux, apiBasePath string) {

	base := apiBasePath + "/" + constants.ProjectsApiPath
	mux.HandleFunc("GET "+base, s.handler.GetProjects)
	mux.HandleFunc("POST "+base, s.handler.AddProject)
	mux.HandleFunc("GET "+base+"/{id}", s.handler.GetProject)
	mux.HandleFunc("PUT "+base+"/{id}", s.handler.UpdateProject)
	mux.HandleFunc("DELETE "+base+"/{id}", s.handler.DeleteProject)
	mux.HandleFunc("POST "+base+"/{id}/rotate-key", s.keyHandler.RotateAPIKey)
}
