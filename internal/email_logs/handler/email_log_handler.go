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
	"strings"

	"github.com/wso2/email-gateway-service/internal/email_logs/model"
	"github.com/wso2/email-gateway-service/internal/email_logs/service"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	"github.com/wso2/email-gateway-service/internal/system/security"
	"github.com/wso2/email-gateway-service/internal/system/utils"
)

type EmailLogHandler struct {
	service service.EmailLogServiceInterface
}

func NewEmailLogHandler(logService service.EmailLogServiceInterface) *EmailLogHandler {
	return &EmailLogHandler{service: logService}
}

// GetLogs handles GET /logs?project_id&status&search&page&page_size
func (h *EmailLogHandler) GetLogs(w http.ResponseWriter, r *http.Request) {

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
	query := r.URL.Query()
	filter := model.LogFilter{
		ProjectID: projectID,
		Status:    strings.TrimSpace(query.Get("status")),
		Search:    query.Get("search"),
	}
	result, err := h.service.QueryLogs(r.Context(), filter, page, pageSize)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

// GetLog handles GET /logs/{id}
func (h *EmailLogHandler) GetLog(w http.ResponseWriter, r *http.Request) {

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
	entry, err := h.service.GetLog(r.Context(), id)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, entry)
}
