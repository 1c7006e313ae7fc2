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

package constants

import "time"

const AdminBasePath = "/email-admin"
const SendBasePath = "/email"
const HealthPath = "/health"

const ProjectsApiPath = "projects"
const LogsApiPath = "logs"
const EscalationContactsApiPath = "escalation-contacts"
const EscalationEventsApiPath = "escalation-events"
const StatsApiPath = "stats"

const APIKeyHeader = "X-API-Key"
const TraceIDHeader = "X-Trace-Id"

type contextKey string

const TraceIDContextKey contextKey = "trace_id"
const PrincipalContextKey contextKey = "principal"

// Supported database types. They key the query maps in database/scripts.
const (
	DBTypePostgres = "postgres"
	DBTypeSQLite   = "sqlite"
)

// Supported delivery log backends.
const (
	LogBackendSQL     = "sql"
	LogBackendMongoDB = "mongodb"
)

// Email delivery states. A log entry leaves StatusQueued exactly once.
const (
	StatusQueued = "queued"
	StatusSent   = "sent"
	StatusFailed = "failed"
)

var AllowedEmailStatuses = map[string]bool{
	StatusQueued: true,
	StatusSent:   true,
	StatusFailed: true,
}

// API key states
const (
	APIKeyStateActive  = "active"
	APIKeyStateRevoked = "revoked"
)

// Escalation levels
const (
	EscalationLevel1 = 1
	EscalationLevel2 = 2
	EscalationLevel3 = 3
)

var AllowedEscalationLevels = map[int]bool{
	EscalationLevel1: true,
	EscalationLevel2: true,
	EscalationLevel3: true,
}

// Project defaults
const (
	DefaultRateLimitPerMinute = 60
	DefaultRateLimitPerHour   = 1000
	MaxProjectNameLength      = 255
)

// Rate limiting windows
const (
	MinuteWindow = time.Minute
	HourWindow   = time.Hour
)

// Pagination
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Dashboard
const (
	TopProjectsLimit    = 5
	RecentFailuresLimit = 10
)

// Console scopes
const (
	ScopeView   = "email_admin:view"
	ScopeManage = "email_admin:manage"
)

// Console operations. Each maps to the scopes configured under auth.required_scopes.
const (
	OperationView   = "view"
	OperationManage = "manage"
)

const DefaultQueueSize = 1000
