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

	"github.com/wso2/email-gateway-service/internal/delivery/model"
	"github.com/wso2/email-gateway-service/internal/delivery/service"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	"github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/utils"
)

// Base64 attachments up to the decoded limit plus headroom for the JSON envelope.
const maxSendBodyBytes = 16 << 20

type DeliveryHandler struct {
	service service.DeliveryServiceInterface
}

func NewDeliveryHandler(deliveryService service.DeliveryServiceInterface) *DeliveryHandler {
	return &DeliveryHandler{service: deliveryService}
}

// SendEmail handles POST /email/send. The caller authenticates with the X-API-Key header.
func (h *DeliveryHandler) SendEmail(w http.ResponseWriter, r *http.Request) {

	r.Body = http.MaxBytesReader(w, r.Body, maxSendBodyBytes)
	var req model.SendRequest
	if err := utils.DecodeJSON(r, &req, "email", errors.EMAIL_VALIDATION); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	result, err := h.service.Send(r.Context(), r.Header.Get(constants.APIKeyHeader), req)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.WriteJSON(w, statusFor(result), result)
}

func statusFor(result *model.SendResult) int {
	switch result.Status {
	case constants.StatusFailed:
		return http.StatusBadGateway
	case constants.StatusQueued:
		return http.StatusAccepted
	default:
		return http.StatusOK
	}
}
