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

package email

import (
	logModel "github.com/wso2/email-gateway-service/internal/email_logs/model"
	escalationModel "github.com/wso2/email-gateway-service/internal/escalation/model"
	projectModel "github.com/wso2/email-gateway-service/internal/projects/model"
	"github.com/wso2/email-gateway-service/internal/system/pagination"
)

// email_list_projects
type ListProjectsInput struct {
	ActiveOnly bool `json:"active_only,omitempty"`
}

type ListProjectsOutput struct {
	Projects []projectModel.Project `json:"projects"`
}

// email_query_logs
type QueryLogsInput struct {
	ProjectID int64  `json:"project_id,omitempty"`
	Status    string `json:"status,omitempty"`
	Search    string `json:"search,omitempty"`
	Page      int    `json:"page,omitempty"`
	PageSize  int    `json:"page_size,omitempty"`
}

type QueryLogsOutput struct {
	Logs pagination.Page[logModel.EmailLog] `json:"logs"`
}

// email_list_escalations
type ListEscalationsInput struct {
	ProjectID int64 `json:"project_id,omitempty"`
	Page      int   `json:"page,omitempty"`
	PageSize  int   `json:"page_size,omitempty"`
}

type ListEscalationsOutput struct {
	Events pagination.Page[escalationModel.Event] `json:"events"`
}

// email_acknowledge_escalation
type AcknowledgeEscalationInput struct {
	EventID int64 `json:"event_id"`
}

type AcknowledgeEscalationOutput struct {
	Event *escalationModel.Event `json:"event"`
}
