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

	"github.com/wso2/email-gateway-service/internal/projects/model"
	"github.com/wso2/email-gateway-service/internal/projects/service"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	"github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/security"
	"github.com/wso2/email-gateway-service/internal/system/utils"
)

type ProjectHandler struct {
	service service.ProjectServiceInterface
}

func NewProjectHandler(projectService service.ProjectServiceInterface) *ProjectHandler {
	return &ProjectHandler{service: projectService}
}

// GetProjects handles GET /projects
func (h *ProjectHandler) GetProjects(w http.ResponseWriter, r *http.Request) {

	r, err := security.AuthnAndAuthz(r, constants.OperationView)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, projects)
}

// AddProject handles POST /projects
func (h *ProjectHandler) AddProject(w http.ResponseWriter, r *http.Request) {

	r, err := security.AuthnAndAuthz(r, constants.OperationManage)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	var req model.ProjectCreateRequest
	if err := utils.DecodeJSON(r, &req, "project", errors.PROJECT_VALIDATION); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	created, err := h.service.CreateProject(r.Context(), req)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, created)
}

// GetProject handles GET /projects/{id}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {

	r, err := security.AuthnAndAuthz(r, constants.OperationView)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	id, err := utils.PathID(r, "id")
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	project, err := h.service.GetProject(r.Context(), id)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, project)
}

// UpdateProject handles PUT /projects/{id}
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {

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
	var req model.ProjectUpdateRequest
	if err := utils.DecodeJSON(r, &req, "project", errors.PROJECT_VALIDATION); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	project, err := h.service.UpdateProject(r.Context(), id, req)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, project)
}

// DeleteProject handles DELETE /projects/{id}
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {

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
	if err := h.service.DeleteProject(r.Context(), id); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
