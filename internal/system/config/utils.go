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

import (
	"os"
	"path"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/wso2/email-gateway-service/internal/system/constants"
)

// LoadConfig reads the YAML deployment file, expands environment references and applies defaults.
func LoadConfig(gatewayHome, filePath string) (*Config, error) {
	file, err := os.ReadFile(path.Join(gatewayHome, filePath))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read configuration file")
	}
	return ParseConfig(file)
}

// ParseConfig parses YAML configuration bytes.
func ParseConfig(raw []byte) (*Config, error) {

	expanded := os.ExpandEnv(string(raw))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse configuration")
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills in every unset value with its default.
func (c *Config) ApplyDefaults() {

	if c.Addr.Port == 0 {
		c.Addr.Port = 8900
	}
	if c.Log.LogLevel == "" {
		c.Log.LogLevel = "INFO"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Auth.Audience == "" {
		c.Auth.Audience = "email-admin"
	}
	if c.Auth.RequiredScopes == nil {
		c.Auth.RequiredScopes = map[string][]string{
			constants.OperationView:   {constants.ScopeView},
			constants.OperationManage: {constants.ScopeManage},
		}
	}
	if c.Database.Type == "" {
		c.Database.Type = constants.DBTypeSQLite
	}
	if c.Database.SQLite.Path == "" {
		c.Database.SQLite.Path = "email_gateway.db"
	}
	if c.Database.DataSource.SSLMode == "" {
		c.Database.DataSource.SSLMode = "disable"
	}
	if c.EmailLogs.Backend == "" {
		c.EmailLogs.Backend = constants.LogBackendSQL
	}
	if c.EmailLogs.MongoDB.Database == "" {
		c.EmailLogs.MongoDB.Database = "email_gateway"
	}
	if c.EmailLogs.MongoDB.Collection == "" {
		c.EmailLogs.MongoDB.Collection = "email_logs"
	}
	if c.RateLimit.IdleTTL == "" {
		c.RateLimit.IdleTTL = "2h"
	}
	if c.RateLimit.SweepInterval == "" {
		c.RateLimit.SweepInterval = "5m"
	}
	if c.Escalation.Window == "" {
		c.Escalation.Window = "1h"
	}
	if len(c.Escalation.Tiers) == 0 {
		c.Escalation.Tiers = DefaultTierRules()
	}
	if c.Escalation.NotifyQueue <= 0 {
		c.Escalation.NotifyQueue = constants.DefaultQueueSize
	}
	if c.APIKeys.BcryptCost == 0 {
		c.APIKeys.BcryptCost = 10
	}
	if c.Mail.Provider == "" {
		c.Mail.Provider = "log"
	}
	if c.Mail.SMTP.Port == 0 {
		c.Mail.SMTP.Port = 587
	}
	if c.Mail.MessageIDDomain == "" {
		c.Mail.MessageIDDomain = "email-gateway.local"
	}
	if c.MCP.Addr == "" {
		c.MCP.Addr = ":8901"
	}
	if c.Dashboard.CacheTTL == "" {
		c.Dashboard.CacheTTL = "15s"
	}
}

// DefaultTierRules returns the escalation thresholds used when none are configured.
func DefaultTierRules() []TierRuleConfig {
	return []TierRuleConfig{
		{Level: constants.EscalationLevel3, Condition: "failures >= 10"},
		{Level: constants.EscalationLevel2, Condition: "failures >= 3"},
		{Level: constants.EscalationLevel1, Condition: "failures >= 1"},
	}
}

// ParseDuration parses a configured duration, falling back to def when the value is empty or invalid.
func ParseDuration(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
