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
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/email-gateway-service/internal/system/database/testdb"
	"github.com/wso2/email-gateway-service/internal/system/log"
)

func TestReadinessWithDatabase(t *testing.T) {
	_ = log.Init("DEBUG")
	svc := NewHealthCheckService(map[string]Check{"database": DatabaseCheck(testdb.NewSQLite(t))})
	require.NoError(t, svc.CheckReadiness(context.Background()))
}

func TestReadinessReportsFailingDependency(t *testing.T) {
	_ = log.Init("DEBUG")
	svc := NewHealthCheckService(map[string]Check{
		"database": func(context.Context) error { return nil },
		"mongodb":  func(context.Context) error { return errors.New("no reachable servers") },
	})
	err := svc.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongodb connectivity check failed")
}

func TestReadinessClosedDatabase(t *testing.T) {
	_ = log.Init("DEBUG")
	db := testdb.NewSQLite(t)
	require.NoError(t, db.Close())

	err := NewHealthCheckService(map[string]Check{"database": DatabaseCheck(db)}).CheckReadiness(context.Background())
	assert.Error(t, err)
}
