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

package scripts

import (
	"embed"
	"fmt"

	"github.com/wso2/email-gateway-service/internal/system/constants"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Schema returns the embedded schema script of the given database type.
func Schema(dbType string) (string, error) {
	raw, err := schemaFS.ReadFile(fmt.Sprintf("schema/%s.sql", dbType))
	if err != nil {
		return "", fmt.Errorf("no schema for database type %q: %w", dbType, err)
	}
	return string(raw), nil
}

// both registers the same statement for every supported dialect.
func both(query string) map[string]string {
	return map[string]string{
		constants.DBTypePostgres: query,
		constants.DBTypeSQLite:   query,
	}
}

const projectColumns = `p.id, p.name, p.description, p.api_key_expires_at, p.is_active, p.rate_limit_per_minute,
       p.rate_limit_per_hour, p.created_by, p.created_at, p.updated_at, COALESCE(k.prefix, '')`

// Projects

var InsertProject = both(`INSERT INTO projects (name, description, api_key_expires_at, is_active,
    rate_limit_per_minute, rate_limit_per_hour, created_by, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`)

var GetProjectByID = both(`SELECT ` + projectColumns + `
    FROM projects p LEFT JOIN api_keys k ON k.project_id = p.id AND k.state = 'active'
    WHERE p.id = $1`)

var ListProjects = both(`SELECT ` + projectColumns + `
    FROM projects p LEFT JOIN api_keys k ON k.project_id = p.id AND k.state = 'active'
    ORDER BY p.created_at DESC, p.id DESC`)

var UpdateProject = both(`UPDATE projects SET name = $1, description = $2, api_key_expires_at = $3, is_active = $4,
    rate_limit_per_minute = $5, rate_limit_per_hour = $6, updated_at = $7 WHERE id = $8`)

var DeleteProject = both(`DELETE FROM projects WHERE id = $1`)

var CountProjects = both(`SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0) FROM projects`)

var GetProjectLimits = both(`SELECT is_active, rate_limit_per_minute, rate_limit_per_hour FROM projects WHERE id = $1`)

// API keys

// LockProjectRow serializes key rotations of one project. SQLite runs with a single connection,
// so the transaction alone serializes writers there.
var LockProjectRow = map[string]string{
	constants.DBTypePostgres: `SELECT api_key_expires_at FROM projects WHERE id = $1 FOR UPDATE`,
	constants.DBTypeSQLite:   `SELECT api_key_expires_at FROM projects WHERE id = $1`,
}

var InsertAPIKey = both(`INSERT INTO api_keys (project_id, prefix, key_hash, state, expires_at, created_at)
    VALUES ($1, $2, $3, 'active', $4, $5) RETURNING id`)

var RevokeActiveAPIKeys = both(`UPDATE api_keys SET state = 'revoked', revoked_at = $1
    WHERE project_id = $2 AND state = 'active'`)

var UpdateActiveAPIKeyExpiry = both(`UPDATE api_keys SET expires_at = $1 WHERE project_id = $2 AND state = 'active'`)

const apiKeyColumns = `k.id, k.project_id, k.prefix, k.key_hash, k.state, k.expires_at, k.created_at, p.is_active`

var GetActiveAPIKeyByProject = both(`SELECT ` + apiKeyColumns + `
    FROM api_keys k JOIN projects p ON p.id = k.project_id
    WHERE k.project_id = $1 AND k.state = 'active'`)

var GetActiveAPIKeysByPrefix = both(`SELECT ` + apiKeyColumns + `
    FROM api_keys k JOIN projects p ON p.id = k.project_id
    WHERE k.prefix = $1 AND k.state = 'active'`)

// Email logs

const emailLogColumns = `l.id, l.request_id, l.project_id, COALESCE(p.name, ''), l.to_emails, l.cc, l.bcc, l.subject,
       l.body_html, l.attachments_count, l.attachment_names, l.status, l.error_message, l.provider_message_id,
       l.sent_at, l.created_at`

// EmailLogFrom is the FROM clause shared by every email log read.
const EmailLogFrom = ` FROM email_logs l LEFT JOIN projects p ON p.id = l.project_id`

// SelectEmailLog is the column list of an email log read; callers append EmailLogFrom and a filter.
const SelectEmailLog = `SELECT ` + emailLogColumns

var InsertEmailLog = both(`INSERT INTO email_logs (request_id, project_id, to_emails, cc, bcc, subject, body_html,
    attachments_count, attachment_names, status, created_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    ON CONFLICT (request_id) DO NOTHING RETURNING id`)

var GetEmailLogByID = both(SelectEmailLog + EmailLogFrom + ` WHERE l.id = $1`)

var GetEmailLogByRequestID = both(SelectEmailLog + EmailLogFrom + ` WHERE l.request_id = $1`)

var MarkEmailLogOutcome = both(`UPDATE email_logs SET status = $1, error_message = $2, provider_message_id = $3,
    sent_at = $4 WHERE id = $5 AND status = 'queued'`)

var CountEmailLogsByStatusSince = both(`SELECT COUNT(*) FROM email_logs WHERE status = $1 AND created_at >= $2`)

var TopProjectsSince = both(`SELECT p.name, COUNT(*),
       COALESCE(SUM(CASE WHEN l.status = 'sent' THEN 1 ELSE 0 END), 0),
       COALESCE(SUM(CASE WHEN l.status = 'failed' THEN 1 ELSE 0 END), 0)
    FROM email_logs l JOIN projects p ON p.id = l.project_id
    WHERE l.created_at >= $1
    GROUP BY p.id, p.name
    ORDER BY COUNT(*) DESC, p.name ASC
    LIMIT $2`)

var RecentFailures = both(`SELECT id, project_id, subject, to_emails, COALESCE(error_message, ''), created_at
    FROM email_logs WHERE status = 'failed' ORDER BY created_at DESC, id DESC LIMIT $1`)

var FailuresSince = both(`SELECT id, created_at FROM email_logs
    WHERE project_id = $1 AND status = 'failed' AND created_at >= $2 ORDER BY created_at ASC, id ASC`)

var DeleteEmailLogsByProject = both(`DELETE FROM email_logs WHERE project_id = $1`)

// Escalation contacts

const contactColumns = `id, project_id, name, email, level, is_active, created_at`

var InsertEscalationContact = both(`INSERT INTO escalation_contacts (project_id, name, email, level, is_active, created_at)
    VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`)

var GetEscalationContact = both(`SELECT ` + contactColumns + ` FROM escalation_contacts WHERE id = $1`)

var ListEscalationContacts = both(`SELECT ` + contactColumns + ` FROM escalation_contacts
    WHERE project_id = $1 ORDER BY level ASC, id ASC`)

var ListActiveEscalationContactsByLevel = both(`SELECT ` + contactColumns + ` FROM escalation_contacts
    WHERE project_id = $1 AND level = $2 AND is_active ORDER BY id ASC`)

var UpdateEscalationContact = both(`UPDATE escalation_contacts SET name = $1, email = $2, level = $3, is_active = $4
    WHERE id = $5`)

var DeleteEscalationContact = both(`DELETE FROM escalation_contacts WHERE id = $1`)

// Escalation events

const eventColumns = `e.id, e.project_id, COALESCE(p.name, ''), e.email_log_id, e.contact_id, e.contact_name,
       e.contact_email, e.level, e.email_subject, e.error_message, e.notified_at, e.acknowledged_at`

// EscalationEventFrom is the FROM clause shared by every escalation event read.
const EscalationEventFrom = ` FROM escalation_events e LEFT JOIN projects p ON p.id = e.project_id`

// SelectEscalationEvent is the column list of an escalation event read.
const SelectEscalationEvent = `SELECT ` + eventColumns

var InsertEscalationEvent = both(`INSERT INTO escalation_events (project_id, email_log_id, contact_id, contact_name,
    contact_email, level, email_subject, error_message, notified_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`)

var GetEscalationEvent = both(SelectEscalationEvent + EscalationEventFrom + ` WHERE e.id = $1`)

var AcknowledgeEscalationEvent = both(`UPDATE escalation_events SET acknowledged_at = $1
    WHERE id = $2 AND acknowledged_at IS NULL`)

var CountPendingEscalationEvents = both(`SELECT COUNT(*) FROM escalation_events WHERE acknowledged_at IS NULL`)

var MaxEscalationLevelSince = both(`SELECT COALESCE(MAX(level), 0) FROM escalation_events
    WHERE project_id = $1 AND notified_at >= $2`)

// Health

var Ping = both(`SELECT 1`)
