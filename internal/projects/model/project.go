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

// Project is a tenant of the gateway. APIKeyPrefix is the displayable prefix of its active key.
type Project struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	Description        string     `json:"description"`
	APIKeyPrefix       string     `json:"api_key_prefix"`
	APIKeyExpiresAt    *time.Time `json:"api_key_expires_at"`
	IsActive           bool       `json:"is_active"`
	RateLimitPerMinute int        `json:"rate_limit_per_minute"`
	RateLimitPerHour   int        `json:"rate_limit_per_hour"`
	CreatedBy          string     `json:"created_by"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ProjectCreated is returned once, on creation. It is the only response carrying the raw key.
type ProjectCreated struct {
	Project
	APIKeyRaw string `json:"api_key_raw"`
}

// ProjectCreateRequest is the body of POST /projects. An empty api_key_expires_at means no expiry.
type ProjectCreateRequest struct {
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	IsActive           *bool   `json:"is_active,omitempty"`
	APIKeyExpiresAt    *string `json:"api_key_expires_at,omitempty"`
	RateLimitPerMinute *int    `json:"rate_limit_per_minute,omitempty"`
	RateLimitPerHour   *int    `json:"rate_limit_per_hour,omitempty"`
}

// ProjectUpdateRequest is the body of PUT /projects/{id}. Absent fields are left unchanged and an
// empty api_key_expires_at clears the expiry.
type ProjectUpdateRequest struct {
	Name               *string `json:"name,omitempty"`
	Description        *string `json:"description,omitempty"`
	IsActive           *bool   `json:"is_active,omitempty"`
	APIKeyExpiresAt    *string `json:"api_key_expires_at,omitempty"`
	RateLimitPerMinute *int    `json:"rate_limit_per_minute,omitempty"`
	RateLimitPerHour   *int    `json:"rate_limit_per_hour,omitempty"`
}

// Limits is the admission configuration of a project.
type Limits struct {
	IsActive  bool
	PerMinute int
	PerHour   int
}
