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

	"github.com/wso2/email-gateway-service/internal/delivery/handler"
	"github.com/wso2/email-gateway-service/internal/delivery/service"
	"github.com/wso2/email-gateway-service/internal/system/constants"
)

// DeliveryService routes the tenant facing send endpoint. It is authenticated by API key, not
// by console tokens.
type DeliveryService struct {
	handler *handler.DeliveryHandler
}

func NewDeliveryService(delivery service.DeliveryServiceInterface) *DeliveryService {
	return &DeliveryService{handler: handler.NewDeliveryHandler(delivery)}
}

func (s *DeliveryService) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST "+constants.SendBasePath+"/send", s.handler.SendEmail)
}
