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

import "time"

// EmailLog is one send attempt. Apart from the single queued to sent/failed transition it is
// never modified.
type EmailLog struct {
	ID                int64      `json:"id" bson:"_id"`
	RequestID         string     `json:"request_id" bson:"request_id"`
	ProjectID         int64      `json:"project_id" bson:"project_id"`
	ProjectName       string     `json:"project_name" bson:"project_name"`
	ToEmails          []string   `json:"to_emails" bson:"to_emails"`
	Cc                []string   `json:"cc" bson:"cc"`
	Bcc               []string   `json:"bcc" bson:"bcc"`
	Subject           string     `json:"subject" bson:"subject"`
	BodyHTML          string     `json:"body_html" bson:"body_html"`
	AttachmentsCount  int        `json:"attachments_count" bson:"attachments_count"`
	AttachmentNames   []string   `json:"attachment_names" bson:"attachment_names"`
	Status            string     `json:"status" bson:"status"`
	ErrorMessage      *string    `json:"error_message" bson:"error_message"`
	ProviderMessageID *string    `json:"provider_message_id" bson:"provider_message_id"`
	SentAt            *time.Time `json:"sent_at" bson:"sent_at"`
	CreatedAt         time.Time  `json:"created_at" bson:"created_at"`
}

// Outcome is the final state of a send attempt.
type Outcome struct {
	Status            string
	ErrorMessage      string
	ProviderMessageID string
	SentAt            *time.Time
}

// LogFilter selects log entries. Set fields combine with AND.
type LogFilter struct {
	ProjectID *int64
	Status    string
	Search    string
}

// ProjectVolume is a dashboard row of send volume per project.
type ProjectVolume struct {
	ProjectName string `json:"name"`
	Total       int64  `json:"total"`
	Sent        int64  `json:"sent"`
	Failed      int64  `json:"failed"`
}

// FailureMark identifies one failed delivery inside an escalation window.
type FailureMark struct {
	ID        int64
	CreatedAt time.Time
}

// FailureSummary is a dashboard row describing a failed send.
type FailureSummary struct {
	ID           int64     `json:"id"`
	ProjectID    int64     `json:"project_id"`
	Subject      string    `json:"subject"`
	ToEmails     []string  `json:"to_emails"`
	ErrorMessage string    `json:"error_message"`
	CreatedAt    time.Time `json:"created_at"`
}
