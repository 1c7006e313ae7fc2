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

package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/pkg/errors"

	"github.com/wso2/email-gateway-service/internal/api_keys/model"
	"github.com/wso2/email-gateway-service/internal/system/database/client"
	"github.com/wso2/email-gateway-service/internal/system/database/scripts"
	errors2 "github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/log"
)

// ErrProjectNotFound is returned when a key is written for a project that does not exist.
var ErrProjectNotFound = stderrors.New("project not found")

// APIKeyStoreInterface persists project keys.
type APIKeyStoreInterface interface {
	// ReplaceActiveKey revokes the active key of the project, if any, and stores a new one in a
	// single transaction. The new key inherits the project's key expiry.
	ReplaceActiveKey(ctx context.Context, projectID int64, prefix, keyHash string, now time.Time) (*model.APIKey, error)
	GetActiveKey(ctx context.Context, projectID int64) (*model.APIKey, error)
	GetActiveKeysByPrefix(ctx context.Context, prefix string) ([]model.APIKey, error)
}

type APIKeyStore struct {
	db client.DBClientInterface
}

func NewAPIKeyStore(db client.DBClientInterface) *APIKeyStore {
	return &APIKeyStore{db: db}
}

func (s *APIKeyStore) ReplaceActiveKey(ctx context.Context, projectID int64, prefix, keyHash string,
	now time.Time) (*model.APIKey, error) {

	dbType := s.db.DBType()
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, serverError(errors2.ROTATE_API_KEY, "Failed to begin transaction.", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Row lock on the project serializes concurrent rotations.
	var expiresAt sql.NullInt64
	err = tx.QueryRowContext(ctx, scripts.LockProjectRow[dbType], projectID).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, serverError(errors2.ROTATE_API_KEY, "Failed to lock project.", err)
	}

	nowMillis := client.ToMillis(now)
	if _, err := tx.ExecContext(ctx, scripts.RevokeActiveAPIKeys[dbType], nowMillis, projectID); err != nil {
		return nil, serverError(errors2.ROTATE_API_KEY, "Failed to revoke active key.", err)
	}

	key := &model.APIKey{
		ProjectID: projectID,
		Prefix:    prefix,
		KeyHash:   keyHash,
		State:     "active",
		ExpiresAt: client.TimePtr(expiresAt),
		CreatedAt: client.FromMillis(nowMillis),
	}
	var expiry interface{}
	if expiresAt.Valid {
		expiry = expiresAt.Int64
	}
	err = tx.QueryRowContext(ctx, scripts.InsertAPIKey[dbType], projectID, prefix, keyHash, expiry, nowMillis).
		Scan(&key.ID)
	if err != nil {
		return nil, serverError(errors2.ROTATE_API_KEY, "Failed to insert key.", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, serverError(errors2.ROTATE_API_KEY, "Failed to commit key rotation.", err)
	}
	return key, nil
}

// GetActiveKey returns the active key of a project, or nil when it has none.
func (s *APIKeyStore) GetActiveKey(ctx context.Context, projectID int64) (*model.APIKey, error) {

	row := s.db.QueryRowContext(ctx, scripts.GetActiveAPIKeyByProject[s.db.DBType()], projectID)
	key, err := scanKey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, serverError(errors2.GET_API_KEY, "Failed to fetch active key.", err)
	}
	return key, nil
}

// GetActiveKeysByPrefix returns every active key with the given prefix. Prefixes are not unique.
func (s *APIKeyStore) GetActiveKeysByPrefix(ctx context.Context, prefix string) ([]model.APIKey, error) {

	rows, err := s.db.QueryContext(ctx, scripts.GetActiveAPIKeysByPrefix[s.db.DBType()], prefix)
	if err != nil {
		return nil, serverError(errors2.GET_API_KEY, "Failed to look up key prefix.", err)
	}
	defer rows.Close()

	var keys []model.APIKey
	for rows.Next() {
		key, err := scanKey(rows)
		if err != nil {
			return nil, serverError(errors2.GET_API_KEY, "Failed to read key row.", err)
		}
		keys = append(keys, *key)
	}
	if err := rows.Err(); err != nil {
		return nil, serverError(errors2.GET_API_KEY, "Failed to look up key prefix.", err)
	}
	return keys, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanKey(row rowScanner) (*model.APIKey, error) {

	var key model.APIKey
	var expiresAt sql.NullInt64
	var createdAt int64
	if err := row.Scan(&key.ID, &key.ProjectID, &key.Prefix, &key.KeyHash, &key.State, &expiresAt, &createdAt,
		&key.ProjectActive); err != nil {
		return nil, err
	}
	key.ExpiresAt = client.TimePtr(expiresAt)
	key.CreatedAt = client.FromMillis(createdAt)
	return &key, nil
}

func serverError(msg errors2.ErrorMessage, description string, err error) error {
	log.GetLogger().Debug(description, log.Error(err))
	return errors2.NewServerError(errors2.Describe(msg, description), errors.WithStack(err))
}
