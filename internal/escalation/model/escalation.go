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

// Contact is a person notified when a project's failures reach their tier.
type Contact struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Level     int       `json:"level"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactCreateRequest is the body of POST /projects/{id}/escalation-contacts.
type ContactCreateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Level    int    `json:"level"`
	IsActive *bool  `json:"is_active,omitempty"`
}

// ContactUpdateRequest is the body of PUT /escalation-contacts/{id}. Absent fields are unchanged.
type ContactUpdateRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Level    *int    `json:"level,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// Event records that a contact was notified about a failing delivery. Contact and email details
// are copied at notification time so the record survives later edits.
type Event struct {
	ID             int64      `json:"id"`
	ProjectID      int64      `json:"project_id"`
	ProjectName    string     `json:"project_name"`
	EmailLogID     int64      `json:"email_log_id"`
	ContactID      *int64     `json:"contact_id"`
	ContactName    string     `json:"contact_name"`
	ContactEmail   string     `json:"contact_email"`
	Level          int        `json:"level"`
	EmailSubject   string     `json:"email_subject"`
	ErrorMessage   string     `json:"error_message"`
	NotifiedAt     time.Time  `json:"notified_at"`
	AcknowledgedAt *time.Time `json:"acknowledged_at"`
}

// Failure describes the failed delivery handed to the engine.
type Failure struct {
	EmailLogID   int64
	ProjectID    int64
	ProjectName  string
	Subject      string
	ErrorMessage string
}
