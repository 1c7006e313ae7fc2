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

package mcp

import (
	"net/http"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wso2/email-gateway-service/internal/system/constants"
	"github.com/wso2/email-gateway-service/internal/system/security"
	"github.com/wso2/email-gateway-service/internal/system/utils"
)

const MCPEndpointPath = "/mcp"

// Initialize registers the streamable MCP endpoint on mux. Callers authenticate with the same
// bearer tokens as the admin console and need the manage scope, since tools can acknowledge
// escalations.
func Initialize(mux *http.ServeMux, deps Dependencies) {
	mcpServer := newServer(deps)

	httpHandler := mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
		return mcpServer.getMCPServer()
	}, nil)

	authenticated := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, err := security.AuthnAndAuthz(r, constants.OperationManage)
		if err != nil {
			utils.HandleError(w, r, err)
			return
		}
		httpHandler.ServeHTTP(w, r)
	})
	mux.Handle(MCPEndpointPath, authenticated)
	mux.Handle(MCPEndpointPath+"/", authenticated)
}
