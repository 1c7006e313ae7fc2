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

package lock

import (
	"context"
	"database/sql"
	"hash/fnv"
	"sync"

	"github.com/wso2/email-gateway-service/internal/system/constants"
	"github.com/wso2/email-gateway-service/internal/system/database/client"
	"github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/log"
)

type DistributedLock interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// NewLock returns the distributed lock of the client's dialect. SQLite deployments are single
// node, so their lock always succeeds.
func NewLock(dbClient client.DBClientInterface) DistributedLock {

	if dbClient.DBType() == constants.DBTypePostgres {
		return NewPostgresLock(dbClient)
	}
	return noopLock{}
}

// PostgresLock implements DistributedLock using PostgreSQL session advisory locks.
// Advisory locks are owned by a session, so each held key pins the connection it was taken on.
type PostgresLock struct {
	dbClient client.DBClientInterface
	mu       sync.Mutex
	held     map[string]*sql.Conn
}

func NewPostgresLock(dbClient client.DBClientInterface) *PostgresLock {
	return &PostgresLock{dbClient: dbClient, held: map[string]*sql.Conn{}}
}

// generateLockKey maps a string key to the bigint key space of pg advisory locks.
func generateLockKey(key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int64(h.Sum64())
}

// Acquire blocks until the advisory lock of key is held.
func (l *PostgresLock) Acquire(ctx context.Context, key string) (bool, error) {

	logger := log.GetLogger()
	lockID := generateLockKey(key)
	conn, err := l.dbClient.Conn(ctx)
	if err != nil {
		errorMsg := "Failed to reserve a connection for the advisory lock"
		logger.Error(errorMsg, log.Error(err))
		return false, errors.NewServerError(errors.Describe(errors.DB_CLIENT_INIT, errorMsg), err)
	}
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", lockID); err != nil {
		_ = conn.Close()
		errorMsg := "Failed to execute pg_advisory_lock"
		logger.Error(errorMsg, log.Error(err))
		return false, errors.NewServerError(errors.Describe(errors.LOCK_ACQUIRE, errorMsg), err)
	}
	l.mu.Lock()
	l.held[key] = conn
	l.mu.Unlock()
	logger.Debug("Advisory lock acquired", log.String("key", key), log.Int64("lock_id", lockID))
	return true, nil
}

func (l *PostgresLock) Release(ctx context.Context, key string) error {

	logger := log.GetLogger()
	lockID := generateLockKey(key)
	l.mu.Lock()
	conn, ok := l.held[key]
	delete(l.held, key)
	l.mu.Unlock()
	if !ok {
		return errors.NewServerError(errors.Describe(errors.LOCK_RELEASE, "Lock "+key+" is not held"), nil)
	}
	defer conn.Close()

	var released bool
	err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", lockID).Scan(&released)
	if err != nil || !released {
		errorMsg := "pg_advisory_unlock failed"
		logger.Error(errorMsg, log.Error(err))
		return errors.NewServerError(errors.Describe(errors.LOCK_RELEASE, errorMsg), err)
	}
	logger.Debug("Advisory lock released", log.String("key", key))
	return nil
}

type noopLock struct{}

func (noopLock) Acquire(context.Context, string) (bool, error) { return true, nil }

func (noopLock) Release(context.Context, string) error { return nil }

// WithLock runs fn while holding the lock of key.
func WithLock(ctx context.Context, l DistributedLock, key string, fn func() error) error {

	acquired, err := l.Acquire(ctx, key)
	if err != nil {
		return err
	}
	if !acquired {
		return errors.NewServerError(errors.Describe(errors.LOCK_ACQUIRE, "Lock "+key+" is held elsewhere"), nil)
	}
	defer func() {
		if err := l.Release(context.WithoutCancel(ctx), key); err != nil {
			log.GetLogger().Warn("Failed to release lock", log.String("key", key), log.Error(err))
		}
	}()
	return fn()
}
