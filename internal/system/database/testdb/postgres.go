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

package testdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/wso2/email-gateway-service/internal/system/config"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	"github.com/wso2/email-gateway-service/internal/system/database/client"
	"github.com/wso2/email-gateway-service/internal/system/database/provider"
)

const (
	postgresImage = "postgres:16-alpine"
	testDatabase  = "testdb"
	testUser      = "testuser"
	testPassword  = "testpass"
)

// NewPostgres starts a disposable Postgres container and returns a client with the schema
// applied. The test is skipped when short mode is on or no container runtime is available.
func NewPostgres(t *testing.T) client.DBClientInterface {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests are skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase(testDatabase),
		postgres.WithUsername(testUser),
		postgres.WithPassword(testPassword),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dbClient, err := provider.Open(config.DatabaseConfig{
		Type: constants.DBTypePostgres,
		DataSource: config.DataSourceConfig{
			Hostname: host,
			Port:     port.Int(),
			Name:     testDatabase,
			Username: testUser,
			Password: testPassword,
			SSLMode:  "disable",
		},
	})
	require.NoError(t, err)
	require.NoError(t, dbClient.InitDatabase("", ""))
	t.Cleanup(func() { _ = dbClient.Close() })
	return dbClient
}
