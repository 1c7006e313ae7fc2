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

package provider

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"

	// Registers the "postgres" driver.
	_ "github.com/lib/pq"
	// Registers the "sqlite" driver.
	_ "modernc.org/sqlite"

	"github.com/wso2/email-gateway-service/internal/system/config"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	"github.com/wso2/email-gateway-service/internal/system/database/client"
)

// DBConfig represents the local database configuration.
type DBConfig struct {
	dsn        string
	driverName string
	dbType     string
}

// DBProviderInterface defines the interface for getting database clients.
type DBProviderInterface interface {
	GetDBClient() (client.DBClientInterface, error)
}

// DBProvider is the implementation of DBProviderInterface. All clients it hands out share
// one connection pool.
type DBProvider struct{}

var (
	sharedClient client.DBClientInterface
	sharedMu     sync.Mutex
)

// NewDBProvider creates a new instance of DBProvider.
func NewDBProvider() DBProviderInterface {

	return &DBProvider{}
}

// GetDBClient returns the database client for the configured database type, opening the
// pool on first use.
func (d *DBProvider) GetDBClient() (client.DBClientInterface, error) {

	sharedMu.Lock()
	defer sharedMu.Unlock()
	if sharedClient != nil {
		return sharedClient, nil
	}

	runtimeConfig := config.GetRuntime().Config
	dbClient, err := Open(runtimeConfig.Database)
	if err != nil {
		return nil, err
	}
	sharedClient = dbClient
	return sharedClient, nil
}

// Open opens a new connection pool for the given database configuration.
func Open(dbCfg config.DatabaseConfig) (client.DBClientInterface, error) {

	dbConfig, err := getDBConfig(dbCfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dbConfig.driverName, dbConfig.dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if dbConfig.dbType == constants.DBTypeSQLite {
		// SQLite serializes writers; one connection also keeps in-memory databases alive.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		if dbCfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(dbCfg.MaxOpenConns)
		}
		if dbCfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(dbCfg.MaxIdleConns)
		}
	}

	// Test the database connection.
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return client.NewDBClient(db, dbConfig.dbType), nil
}

// SetDBClient replaces the shared client. Tests use it to inject an in-memory database.
func SetDBClient(dbClient client.DBClientInterface) {

	sharedMu.Lock()
	defer sharedMu.Unlock()
	sharedClient = dbClient
}

// getDBConfig returns the driver and DSN for the configured database type.
func getDBConfig(dbCfg config.DatabaseConfig) (DBConfig, error) {

	var dbConfig DBConfig
	dbConfig.dbType = strings.ToLower(dbCfg.Type)

	switch dbConfig.dbType {
	case constants.DBTypePostgres:
		ds := dbCfg.DataSource
		dbConfig.driverName = "postgres"
		dbConfig.dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			ds.Hostname, ds.Port, ds.Username, ds.Password, ds.Name, ds.SSLMode)
	case constants.DBTypeSQLite, "":
		dbConfig.dbType = constants.DBTypeSQLite
		dbConfig.driverName = "sqlite"
		dbConfig.dsn = SQLiteDSN(dbCfg.SQLite.Path)
	default:
		return dbConfig, errors.Errorf("unsupported database type %q", dbCfg.Type)
	}
	return dbConfig, nil
}

// SQLiteDSN builds a modernc.org/sqlite DSN with foreign keys enforced.
func SQLiteDSN(path string) string {

	pragmas := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path == "" || path == ":memory:" {
		return "file::memory:?" + pragmas
	}
	return "file:" + path + "?" + pragmas + "&_pragma=journal_mode(WAL)"
}
