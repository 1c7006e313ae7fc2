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
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/wso2/email-gateway-service/internal/api_keys/model"
	"github.com/wso2/email-gateway-service/internal/api_keys/store"
	sysContext "github.com/wso2/email-gateway-service/internal/system/context"
	errors2 "github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/locks"
	"github.com/wso2/email-gateway-service/internal/system/log"
)

const (
	// KeyPrefix marks every raw key issued by the gateway.
	KeyPrefix = "esk_"
	// PrefixLength is the number of leading characters stored in clear for display and lookup.
	PrefixLength = 12

	secretBytes = 32
)

var rawKeyLength = len(KeyPrefix) + base64.RawURLEncoding.EncodedLen(secretBytes)

// APIKeyServiceInterface is the key vault: it issues, rotates and verifies project keys.
type APIKeyServiceInterface interface {
	Issue(ctx context.Context, projectID int64) (*model.IssuedKey, error)
	Rotate(ctx context.Context, projectID int64) (*model.IssuedKey, error)
	Verify(ctx context.Context, projectID int64, candidate string) error
	Authenticate(ctx context.Context, rawKey string) (int64, error)
}

// APIKeyService is the default implementation of APIKeyServiceInterface.
//
// Rotation holds the project's write lock across the store transaction and verification holds
// the read lock across its read, so a verification that starts after a rotation returns can
// never observe the superseded key.
type APIKeyService struct {
	store  store.APIKeyStoreInterface
	locks  *locks.KeyedRWMutex[int64]
	cost   int
	random io.Reader
	now    func() time.Time
}

func NewAPIKeyService(keyStore store.APIKeyStoreInterface, bcryptCost int) *APIKeyService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &APIKeyService{
		store:  keyStore,
		locks:  locks.NewKeyedRWMutex[int64](),
		cost:   bcryptCost,
		random: rand.Reader,
		now:    time.Now,
	}
}

// WithClock replaces the clock used for expiry checks.
func (s *APIKeyService) WithClock(now func() time.Time) *APIKeyService {
	s.now = now
	return s
}

// Issue generates the key of a project. Any existing key is superseded.
func (s *APIKeyService) Issue(ctx context.Context, projectID int64) (*model.IssuedKey, error) {
	return s.replace(ctx, projectID, errors2.ISSUE_API_KEY, log.ActionIssueAPIKey)
}

// Rotate supersedes the active key of a project. The old secret stops verifying once it returns.
func (s *APIKeyService) Rotate(ctx context.Context, projectID int64) (*model.IssuedKey, error) {
	return s.replace(ctx, projectID, errors2.ROTATE_API_KEY, log.ActionRotateAPIKey)
}

// IssueKey adapts Issue for the project registry.
func (s *APIKeyService) IssueKey(ctx context.Context, projectID int64) (string, string, error) {
	issued, err := s.Issue(ctx, projectID)
	if err != nil {
		return "", "", err
	}
	return issued.Prefix, issued.RawKey, nil
}

func (s *APIKeyService) replace(ctx context.Context, projectID int64, failure errors2.ErrorMessage,
	action string) (*model.IssuedKey, error) {

	rawKey, err := s.generate()
	if err != nil {
		return nil, errors2.NewServerError(failure, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), s.cost)
	if err != nil {
		return nil, errors2.NewServerError(failure, errors.WithStack(err))
	}
	prefix := rawKey[:PrefixLength]

	unlock := s.locks.Lock(projectID)
	key, err := s.store.ReplaceActiveKey(ctx, projectID, prefix, string(hash), s.now().UTC())
	unlock()
	if errors.Is(err, store.ErrProjectNotFound) {
		return nil, errors2.NewClientError(errors2.Describe(errors2.PROJECT_NOT_FOUND,
			"No project exists with id "+strconv.FormatInt(projectID, 10)+"."), http.StatusNotFound)
	}
	if err != nil {
		return nil, err
	}

	log.GetLogger().Audit(log.AuditEvent{
		InitiatorID:   sysContext.GetSubject(ctx),
		InitiatorType: log.InitiatorTypeAdmin,
		TargetID:      strconv.FormatInt(key.ID, 10),
		TargetType:    log.TargetTypeAPIKey,
		ActionID:      action,
		TraceID:       sysContext.GetTraceID(ctx),
		Data:          map[string]interface{}{"project_id": projectID, "api_key_prefix": prefix},
	})
	return &model.IssuedKey{Prefix: prefix, RawKey: rawKey}, nil
}

// Verify checks candidate against the active key of a project. It fails closed: a store
// error is reported as an invalid key. Verification never writes.
func (s *APIKeyService) Verify(ctx context.Context, projectID int64, candidate string) error {

	if !wellFormed(candidate) {
		return invalidKey()
	}

	unlock := s.locks.RLock(projectID)
	key, err := s.store.GetActiveKey(ctx, projectID)
	unlock()
	if err != nil {
		log.GetLogger().WithContext(ctx).Warn("Rejecting key after lookup failure",
			log.Int64("project_id", projectID), log.Error(err))
		return invalidKey()
	}
	if key == nil {
		return invalidKey()
	}
	return s.check(key, candidate)
}

// Authenticate finds the project owning rawKey by its displayable prefix.
func (s *APIKeyService) Authenticate(ctx context.Context, rawKey string) (int64, error) {

	if !wellFormed(rawKey) {
		return 0, invalidKey()
	}
	candidates, err := s.store.GetActiveKeysByPrefix(ctx, rawKey[:PrefixLength])
	if err != nil {
		log.GetLogger().WithContext(ctx).Warn("Rejecting key after prefix lookup failure", log.Error(err))
		return 0, invalidKey()
	}
	for _, candidate := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(candidate.KeyHash), []byte(rawKey)) != nil {
			continue
		}
		// Re-check under the project lock so a concurrent rotation is observed.
		if err := s.Verify(ctx, candidate.ProjectID, rawKey); err != nil {
			return 0, err
		}
		return candidate.ProjectID, nil
	}
	return 0, invalidKey()
}

func (s *APIKeyService) check(key *model.APIKey, candidate string) error {

	if subtle.ConstantTimeCompare([]byte(key.Prefix), []byte(candidate[:PrefixLength])) != 1 {
		return invalidKey()
	}
	if bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(candidate)) != nil {
		return invalidKey()
	}
	if key.ExpiresAt != nil && !s.now().Before(*key.ExpiresAt) {
		return errors2.NewClientError(errors2.API_KEY_EXPIRED, http.StatusUnauthorized)
	}
	if !key.ProjectActive {
		return errors2.NewClientError(errors2.PROJECT_INACTIVE, http.StatusForbidden)
	}
	return nil
}

func (s *APIKeyService) generate() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return "", errors.Wrap(err, "read random bytes")
	}
	return KeyPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

func wellFormed(rawKey string) bool {
	return len(rawKey) == rawKeyLength && strings.HasPrefix(rawKey, KeyPrefix)
}

func invalidKey() error {
	return errors2.NewClientError(errors2.API_KEY_INVALID, http.StatusUnauthorized)
}
