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

	"github.com/wso2/email-gateway-service/internal/api_keys/model"
	"github.com/wso2/email-gateway-service/internal/api_keys/service"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	"github.com/wso2/email-gateway-service/internal/system/security"
	"github.com/wso2/email-gateway-service/internal/system/utils"
)

type APIKeyHandler struct {
	service service.APIKeyServiceInterface
}

func NewAPIKeyHandler(keyService service.APIKeyServiceInterface) *APIKeyHandler {
	return &APIKeyHandler{service: keyService}
}

// RotateAPIKey handles POST /projects/{id}/rotate-key
func (h *APIKeyHandler) RotateAPIKey(w http.ResponseWriter, r *http.Request) {

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
	issued, err := h.service.Rotate(r.Context(), projectID)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, model.RotateKeyResponse{
		APIKeyRaw:    issued.RawKey,
		APIKeyPrefix: issued.Prefix,
		Message:      "API key rotated. Store it now; it will not be shown again.",
	})
}
