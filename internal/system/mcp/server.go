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
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	logService "github.com/wso2/email-gateway-service/internal/email_logs/service"
	escalationService "github.com/wso2/email-gateway-service/internal/escalation/service"
	projectService "github.com/wso2/email-gateway-service/internal/projects/service"
	emailTools "github.com/wso2/email-gateway-service/internal/system/mcp/tools/email"
)

// Dependencies are the services the MCP tools operate on.
type Dependencies struct {
	Projects   projectService.ProjectServiceInterface
	Logs       logService.EmailLogServiceInterface
	Escalation escalationService.EngineInterface
}

// server holds dependencies for MCP tool registration.
type server struct {
	deps Dependencies
	once sync.Once
	mcp  *mcpsdk.Server
}

func newServer(deps Dependencies) *server {
	return &server{deps: deps}
}

// getMCPServer builds (once) and returns the MCP server with the gateway tools registered.
func (s *server) getMCPServer() *mcpsdk.Server {
	s.once.Do(func() {
		s.mcp = NewMCPServer(s.deps)
	})
	return s.mcp
}

// NewMCPServer returns an MCP server exposing the email_* tools.
func NewMCPServer(deps Dependencies) *mcpsdk.Server {
	mcpServer := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "email-gateway-mcp",
		Version: "1.0.0",
	}, nil)

	emailTools.NewTools(deps.Projects, deps.Logs, deps.Escalation).RegisterTools(mcpServer)
	return mcpServer
}
