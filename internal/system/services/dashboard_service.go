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

	"github.com/wso2/email-gateway-service/internal/dashboard/handler"
	"github.com/wso2/email-gateway-service/internal/dashboard/service"
	"github.com/wso2/email-gateway-service/internal/system/constants"
)

type DashboardService struct {
	handler *handler.DashboardHandler
}

func NewDashboardService(dashboard service.DashboardServiceInterface) *DashboardService {
	return &DashboardService{handler: handler.NewDashboardHandler(dashboard)}
}

func (s *DashboardService) RegisterRoutes(mux *http.ServeMux, apiBasePath string) {
	mux.HandleFunc("GET "+apiBasePath+"/"+constants.StatsApiPath, s.handler.GetStats)
}
