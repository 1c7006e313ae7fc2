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

package config

type AddrConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

type LogConfig struct {
	LogLevel string `yaml:"log_level"`
	// Format is either text or json.
	Format string `yaml:"format"`
}

type AuthConfig struct {
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	// JWTSecret signs and verifies admin console bearer tokens (HS256).
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
	Audience  string `yaml:"audience"`
	// RequiredScopes maps an operation name to the scopes a token must carry for it.
	RequiredScopes map[string][]string `yaml:"required_scopes"`
}

type DataSourceConfig struct {
	Hostname string `yaml:"hostname"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type SQLiteConfig struct {
	// Path of the database file. ":memory:" keeps everything in process.
	Path string `yaml:"path"`
}

type DatabaseConfig struct {
	// Type is postgres or sqlite.
	Type       string           `yaml:"type"`
	DataSource DataSourceConfig `yaml:"datasource"`
	SQLite     SQLiteConfig     `yaml:"sqlite"`
	// Schema is the schema file relative to the service home. Empty selects the embedded schema.
	Schema       string `yaml:"schema"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type MongoDBConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type EmailLogConfig struct {
	// Backend is sql or mongodb.
	Backend string        `yaml:"backend"`
	MongoDB MongoDBConfig `yaml:"mongodb"`
}

type RateLimitConfig struct {
	// IdleTTL is how long an untouched project window is kept in memory.
	IdleTTL       string `yaml:"idle_ttl"`
	SweepInterval string `yaml:"sweep_interval"`
}

type TierRuleConfig struct {
	Level     int    `yaml:"level"`
	Condition string `yaml:"condition"`
}

type EscalationConfig struct {
	Window         string           `yaml:"window"`
	ResetOnSuccess bool             `yaml:"reset_on_success"`
	Tiers          []TierRuleConfig `yaml:"tiers"`
	NotifyQueue    int              `yaml:"notify_queue_size"`
}

type APIKeyConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type MailConfig struct {
	// Provider is smtp or log.
	Provider string     `yaml:"provider"`
	SMTP     SMTPConfig `yaml:"smtp"`
	// MessageIDDomain is the right hand side of generated Message-ID headers.
	MessageIDDomain string `yaml:"message_id_domain"`
}

type MCPConfig struct {
	Addr string `yaml:"addr"`
}

type DashboardConfig struct {
	CacheTTL string `yaml:"cache_ttl"`
}

type Config struct {
	Addr       AddrConfig       `yaml:"addr"`
	Log        LogConfig        `yaml:"log"`
	Auth       AuthConfig       `yaml:"auth"`
	Database   DatabaseConfig   `yaml:"database"`
	EmailLogs  EmailLogConfig   `yaml:"email_logs"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Escalation EscalationConfig `yaml:"escalation"`
	APIKeys    APIKeyConfig     `yaml:"api_keys"`
	Mail       MailConfig       `yaml:"mail"`
	MCP        MCPConfig        `yaml:"mcp"`
	Dashboard  DashboardConfig  `yaml:"dashboard"`
}
