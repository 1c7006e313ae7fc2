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

package service

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/wso2/email-gateway-service/internal/system/database/client"
	"github.com/wso2/email-gateway-service/internal/system/database/scripts"
	"github.com/wso2/email-gateway-service/internal/system/log"
)

const readinessTimeout = 3 * time.Second

// Check verifies one dependency.
type Check func(ctx context.Context) error

// HealthCheckServiceInterface defines the service interface.
type HealthCheckServiceInterface interface {
	CheckReadiness(ctx context.Context) error
}

// HealthCheckService runs the registered dependency checks.
type HealthCheckService struct {
	checks map[string]Check
}

func NewHealthCheckService(checks map[string]Check) *HealthCheckService {
	return &HealthCheckService{checks: checks}
}

// DatabaseCheck runs a lightweight query against the project database.
func DatabaseCheck(db client.DBClientInterface) Check {
	return func(ctx context.Context) error {
		var one int
		return db.QueryRowContext(ctx, scripts.Ping[db.DBType()]).Scan(&one)
	}
}

// CheckReadiness reports the first failing dependency, in name order.
func (h *HealthCheckService) CheckReadiness(ctx context.Context) error {

	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			log.GetLogger().WithContext(ctx).Warn("Readiness check failed", log.String("dependency", name), log.Error(err))
			return errors.Wrapf(err, "%s connectivity check failed", name)
		}
	}
	return nil
}
