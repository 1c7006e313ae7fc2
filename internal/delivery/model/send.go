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

// AttachmentRequest is a file sent with an email. Content is standard base64.
type AttachmentRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Content     string `json:"content"`
}

// SendRequest is the body of POST /email/send.
type SendRequest struct {
	// RequestID makes the send idempotent. A repeated id returns the original outcome.
	RequestID   string              `json:"request_id,omitempty"`
	To          []string            `json:"to"`
	Cc          []string            `json:"cc,omitempty"`
	Bcc         []string            `json:"bcc,omitempty"`
	Subject     string              `json:"subject"`
	BodyHTML    string              `json:"body_html"`
	Attachments []AttachmentRequest `json:"attachments,omitempty"`
}

// SendResult is the outcome of a send attempt.
type SendResult struct {
	ID                int64   `json:"id"`
	RequestID         string  `json:"request_id"`
	Status            string  `json:"status"`
	ProviderMessageID *string `json:"provider_message_id"`
	ErrorMessage      *string `json:"error_message"`
	Replayed          bool    `json:"replayed"`
}
