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

package managers

import (
	"net/http"

	"github.com/wso2/email-gateway-service/internal/system/services"
)

type ServiceManagerInterface interface {
	RegisterServices(apiBasePath string) error
}

type ServiceManager struct {
	mux     *http.ServeMux
	gateway *Gateway
}

// NewServiceManager creates a new instance of ServiceManager.
func NewServiceManager(mux *http.ServeMux, gateway *Gateway) ServiceManagerInterface {

	return &ServiceManager{
		mux:     mux,
		gateway: gateway,
	}
}

// RegisterServices mounts the admin API under apiBasePath next to the send and health endpoints.
func (sm *ServiceManager) RegisterServices(apiBasePath string) error {

	g := sm.gateway
	services.NewProjectService(g.Projects, g.APIKeys).RegisterRoutes(sm.mux, apiBasePath)
	services.NewEmailLogService(g.Logs).RegisterRoutes(sm.mux, apiBasePath)
	services.NewEscalationService(g.Contacts, g.Escalation).RegisterRoutes(sm.mux, apiBasePath)
	services.NewDashboardService(g.Dashboard).RegisterRoutes(sm.mux, apiBasePath)
	services.NewDeliveryService(g.Delivery).RegisterRoutes(sm.mux)
	services.NewHealthService(g.Health).RegisterRoutes(sm.mux)
	return nil
}
