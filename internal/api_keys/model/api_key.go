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

// APIKey is the stored form of a project key. The raw secret is never part of it.
type APIKey struct {
	ID            int64      `json:"id"`
	ProjectID     int64      `json:"project_id"`
	Prefix        string     `json:"api_key_prefix"`
	KeyHash       string     `json:"-"`
	State         string     `json:"state"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ProjectActive bool       `json:"-"`
}

// IssuedKey is the one-shot disclosure of a freshly generated key.
type IssuedKey struct {
	Prefix string
	RawKey string
}

// RotateKeyResponse is the body of POST /projects/{id}/rotate-key.
type RotateKeyResponse struct {
	APIKeyRaw    string `json:"api_key_raw"`
	APIKeyPrefix string `json:"api_key_prefix"`
	Message      string `json:"message"`
}
