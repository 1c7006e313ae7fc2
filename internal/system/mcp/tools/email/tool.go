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

// Package email exposes gateway operations as MCP tools for operators.
package email

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	logModel "github.com/wso2/email-gateway-service/internal/email_logs/model"
	logService "github.com/wso2/email-gateway-service/internal/email_logs/service"
	escalationService "github.com/wso2/email-gateway-service/internal/escalation/service"
	projectModel "github.com/wso2/email-gateway-service/internal/projects/model"
	projectService "github.com/wso2/email-gateway-service/internal/projects/service"
	"github.com/wso2/email-gateway-service/internal/system/constants"
)

type Tools struct {
	projects   projectService.ProjectServiceInterface
	logs       logService.EmailLogServiceInterface
	escalation escalationService.EngineInterface
}

func NewTools(projects projectService.ProjectServiceInterface, logs logService.EmailLogServiceInterface,
	escalation escalationService.EngineInterface) *Tools {
	return &Tools{projects: projects, logs: logs, escalation: escalation}
}

func (t *Tools) RegisterTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:         "email_list_projects",
		Description:  "List email gateway projects with their rate limits and key prefixes.",
		InputSchema:  listProjectsInputSchema,
		OutputSchema: listProjectsOutputSchema,
		Annotations: &mcp.ToolAnnotations{
			Title:        "List Projects",
			ReadOnlyHint: true,
		},
	}, t.listProjects)

	mcp.AddTool(server, &mcp.Tool{
		Name:         "email_query_logs",
		Description:  "Search the delivery log, newest first.",
		InputSchema:  queryLogsInputSchema,
		OutputSchema: queryLogsOutputSchema,
		Annotations: &mcp.ToolAnnotations{
			Title:        "Query Delivery Logs",
			ReadOnlyHint: true,
		},
	}, t.queryLogs)

	mcp.AddTool(server, &mcp.Tool{
		Name:         "email_list_escalations",
		Description:  "List escalation events raised for failing deliveries, newest first.",
		InputSchema:  listEscalationsInputSchema,
		OutputSchema: listEscalationsOutputSchema,
		Annotations: &mcp.ToolAnnotations{
			Title:        "List Escalations",
			ReadOnlyHint: true,
		},
	}, t.listEscalations)

	mcp.AddTool(server, &mcp.Tool{
		Name:         "email_acknowledge_escalation",
		Description:  "Mark an escalation event as handled. Acknowledging twice keeps the first timestamp.",
		InputSchema:  acknowledgeEscalationInputSchema,
		OutputSchema: acknowledgeEscalationOutputSchema,
		Annotations: &mcp.ToolAnnotations{
			Title:          "Acknowledge Escalation",
			IdempotentHint: true,
		},
	}, t.acknowledgeEscalation)
}

func (t *Tools) listProjects(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListProjectsInput,
) (*mcp.CallToolResult, ListProjectsOutput, error) {

	projects, err := t.projects.ListProjects(ctx)
	if err != nil {
		return nil, ListProjectsOutput{}, fmt.Errorf("failed to list projects: %w", err)
	}
	if input.ActiveOnly {
		active := make([]projectModel.Project, 0, len(projects))
		for _, p := range projects {
			if p.IsActive {
				active = append(active, p)
			}
		}
		projects = active
	}
	return nil, ListProjectsOutput{Projects: projects}, nil
}

func (t *Tools) queryLogs(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input QueryLogsInput,
) (*mcp.CallToolResult, QueryLogsOutput, error) {

	filter := logModel.LogFilter{Status: input.Status, Search: input.Search}
	if input.ProjectID > 0 {
		filter.ProjectID = &input.ProjectID
	}
	page, pageSize := paging(input.Page, input.PageSize)
	logs, err := t.logs.QueryLogs(ctx, filter, page, pageSize)
	if err != nil {
		return nil, QueryLogsOutput{}, fmt.Errorf("failed to query logs: %w", err)
	}
	return nil, QueryLogsOutput{Logs: logs}, nil
}

func (t *Tools) listEscalations(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListEscalationsInput,
) (*mcp.CallToolResult, ListEscalationsOutput, error) {

	var projectID *int64
	if input.ProjectID > 0 {
		projectID = &input.ProjectID
	}
	page, pageSize := paging(input.Page, input.PageSize)
	events, err := t.escalation.ListEvents(ctx, projectID, page, pageSize)
	if err != nil {
		return nil, ListEscalationsOutput{}, fmt.Errorf("failed to list escalations: %w", err)
	}
	return nil, ListEscalationsOutput{Events: events}, nil
}

func (t *Tools) acknowledgeEscalation(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AcknowledgeEscalationInput,
) (*mcp.CallToolResult, AcknowledgeEscalationOutput, error) {

	if input.EventID <= 0 {
		return nil, AcknowledgeEscalationOutput{}, fmt.Errorf("event_id is required")
	}
	event, err := t.escalation.Acknowledge(ctx, input.EventID)
	if err != nil {
		return nil, AcknowledgeEscalationOutput{}, fmt.Errorf("failed to acknowledge escalation: %w", err)
	}
	return nil, AcknowledgeEscalationOutput{Event: event}, nil
}

func paging(page, pageSize int) (int, int) {
	if page <= 0 {
		page = constants.DefaultPage
	}
	if pageSize <= 0 {
		pageSize = constants.DefaultPageSize
	}
	return page, pageSize
}
