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

package model

import logModel "github.com/wso2/email-gateway-service/internal/email_logs/model"

// Stats is the admin console dashboard. Periods start at UTC midnight, Monday and the first of
// the month respectively.
type Stats struct {
	SentToday          int64                     `json:"sent_today"`
	SentThisWeek       int64                     `json:"sent_this_week"`
	SentThisMonth      int64                     `json:"sent_this_month"`
	FailedToday        int64                     `json:"failed_today"`
	FailedThisWeek     int64                     `json:"failed_this_week"`
	FailureRatePercent float64                   `json:"failure_rate_percent"`
	TotalProjects      int64                     `json:"total_projects"`
	ActiveProjects     int64                     `json:"active_projects"`
	PendingEscalations int64                     `json:"pending_escalations"`
	TopProjects        []logModel.ProjectVolume  `json:"top_projects"`
	RecentFailures     []logModel.FailureSummary `json:"recent_failures"`
}
