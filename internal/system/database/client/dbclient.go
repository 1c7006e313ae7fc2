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

package client

import (
	"context"
	"database/sql"
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/wso2/email-gateway-service/internal/system/database/scripts"
	"github.com/wso2/email-gateway-service/internal/system/log"
)

// DBClientInterface defines the interface for database operations.
type DBClientInterface interface {
	ExecuteQuery(query string, args ...interface{}) ([]map[string]interface{}, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	BeginTx(ctx context.Context) (*sql.Tx, error)
	Conn(ctx context.Context) (*sql.Conn, error)
	PingContext(ctx context.Context) error
	DBType() string
	Close() error
	InitDatabase(gatewayHome, file string) error
}

// DBClient is the implementation of DBClientInterface.
type DBClient struct {
	db     *sql.DB
	dbType string
}

// NewDBClient creates a new instance of DBClient with the provided database connection.
// dbType selects the dialect of the queries run through it.
func NewDBClient(db *sql.DB, dbType string) DBClientInterface {

	return &DBClient{
		db:     db,
		dbType: dbType,
	}
}

// InitDatabase applies the schema file found under gatewayHome. When file is empty the
// embedded schema of the client's dialect is applied. Every statement is idempotent.
func (client *DBClient) InitDatabase(gatewayHome, file string) error {

	var schema string
	if file == "" {
		embedded, err := scripts.Schema(client.dbType)
		if err != nil {
			return err
		}
		schema = embedded
	} else {
		sqlBytes, err := os.ReadFile(path.Join(gatewayHome, file))
		if err != nil {
			return errors.Wrap(err, "failed to read schema file")
		}
		schema = string(sqlBytes)
	}

	for _, stmt := range splitStatements(schema) {
		if _, err := client.db.Exec(stmt); err != nil {
			return errors.Wrapf(err, "failed to execute schema statement %q", firstLine(stmt))
		}
	}
	log.GetLogger().Info("Database schema created successfully", log.String("db_type", client.dbType))
	return nil
}

// ExecuteQuery executes a SELECT query and returns the result as a slice of maps.
func (client *DBClient) ExecuteQuery(query string, args ...interface{}) ([]map[string]interface{}, error) {

	rows, err := client.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]interface{}
	for rows.Next() {
		row := make([]interface{}, len(columns))
		rowPointers := make([]interface{}, len(columns))
		for i := range row {
			rowPointers[i] = &row[i]
		}

		if err := rows.Scan(rowPointers...); err != nil {
			return nil, err
		}

		result := map[string]interface{}{}
		for i, col := range columns {
			// Normalize column names to lowercase for consistency.
			result[strings.ToLower(col)] = row[i]
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

func (client *DBClient) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return client.db.QueryContext(ctx, query, args...)
}

func (client *DBClient) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return client.db.QueryRowContext(ctx, query, args...)
}

func (client *DBClient) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return client.db.ExecContext(ctx, query, args...)
}

// BeginTx starts a new database transaction.
func (client *DBClient) BeginTx(ctx context.Context) (*sql.Tx, error) {

	return client.db.BeginTx(ctx, nil)
}

// Conn reserves a single connection of the pool. Session scoped state such as advisory
// locks must use it.
func (client *DBClient) Conn(ctx context.Context) (*sql.Conn, error) {
	return client.db.Conn(ctx)
}

func (client *DBClient) PingContext(ctx context.Context) error {
	return client.db.PingContext(ctx)
}

// DBType returns the dialect key used to pick queries from the scripts package.
func (client *DBClient) DBType() string {
	return client.dbType
}

// Close closes the database connection.
func (client *DBClient) Close() error {
	if os.Getenv("TEST_MODE") == "true" {
		return nil
	}
	return client.db.Close()
}

// splitStatements splits a schema script on semicolons that end a line.
func splitStatements(schema string) []string {

	var statements []string
	var current strings.Builder
	for _, line := range strings.Split(schema, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			statements = append(statements, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		statements = append(statements, rest)
	}
	return statements
}

func firstLine(stmt string) string {
	if i := strings.Index(stmt, "\n"); i >= 0 {
		return stmt[:i]
	}
	return stmt
}
