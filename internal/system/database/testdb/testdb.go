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

// Package testdb opens throwaway databases with the gateway schema applied.
package testdb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wso2/email-gateway-service/internal/system/config"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	"github.com/wso2/email-gateway-service/internal/system/database/client"
	"github.com/wso2/email-gateway-service/internal/system/database/provider"
)

// NewSQLite returns a client for a private in-memory SQLite database with the schema applied.
// The pool holds a single connection, so every client sees its own database.
func NewSQLite(t testing.TB) client.DBClientInterface {
	t.Helper()

	dbClient, err := provider.Open(config.DatabaseConfig{
		Type:   constants.DBTypeSQLite,
		SQLite: config.SQLiteConfig{Path: ":memory:"},
	})
	require.NoError(t, err)
	require.NoError(t, dbClient.InitDatabase("", ""))
	t.Cleanup(func() { _ = dbClient.Close() })
	return dbClient
}
