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
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wso2/email-gateway-service/internal/api_keys/store"
	projectModel "github.com/wso2/email-gateway-service/internal/projects/model"
	projectStore "github.com/wso2/email-gateway-service/internal/projects/store"
	"github.com/wso2/email-gateway-service/internal/system/database/testdb"
	"github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/log"
)

type fixture struct {
	svc      *APIKeyService
	projects *projectStore.ProjectStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	_ = log.Init("DEBUG")
	db := testdb.NewSQLite(t)
	return &fixture{
		svc:      NewAPIKeyService(store.NewAPIKeyStore(db), bcrypt.MinCost),
		projects: projectStore.NewProjectStore(db),
	}
}

func (f *fixture) addProject(t *testing.T, expiresAt *time.Time) *projectModel.Project {
	t.Helper()
	now := time.Now().UTC()
	p := &projectModel.Project{
		Name: "tenant", IsActive: true, RateLimitPerMinute: 60, RateLimitPerHour: 1000,
		APIKeyExpiresAt: expiresAt, CreatedAt: now, UpdatedAt: now,
	}
	id, err := f.projects.AddProject(context.Background(), p)
	require.NoError(t, err)
	p.ID = id
	return p
}

func TestIssueProducesVerifiableKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProject(t, nil)

	issued, err := f.svc.Issue(ctx, p.ID)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(issued.RawKey, KeyPrefix))
	assert.Len(t, issued.RawKey, rawKeyLength)
	assert.Equal(t, issued.RawKey[:PrefixLength], issued.Prefix)
	assert.NoError(t, f.svc.Verify(ctx, p.ID, issued.RawKey))

	stored, err := f.projects.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, issued.Prefix, stored.APIKeyPrefix)
}

func TestIssueUnknownProject(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Issue(context.Background(), 404)

	assert.True(t, errors.HasCode(err, errors.PROJECT_NOT_FOUND))
	assert.True(t, errors.IsClientError(err, http.StatusNotFound))
}

func TestRotateInvalidatesOldKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProject(t, nil)

	old, err := f.svc.Issue(ctx, p.ID)
	require.NoError(t, err)
	rotated, err := f.svc.Rotate(ctx, p.ID)
	require.NoError(t, err)

	assert.NotEqual(t, old.RawKey, rotated.RawKey)
	assert.True(t, errors.HasCode(f.svc.Verify(ctx, p.ID, old.RawKey), errors.API_KEY_INVALID))
	assert.NoError(t, f.svc.Verify(ctx, p.ID, rotated.RawKey))

	_, err = f.svc.Authenticate(ctx, old.RawKey)
	assert.True(t, errors.HasCode(err, errors.API_KEY_INVALID))
	owner, err := f.svc.Authenticate(ctx, rotated.RawKey)
	require.NoError(t, err)
	assert.Equal(t, p.ID, owner)
}

func TestVerifyRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProject(t, nil)
	issued, err := f.svc.Issue(ctx, p.ID)
	require.NoError(t, err)

	other := f.addProject(t, nil)
	otherKey, err := f.svc.Issue(ctx, other.ID)
	require.NoError(t, err)

	tampered := issued.RawKey[:len(issued.RawKey)-1] + "A"
	if tampered == issued.RawKey {
		tampered = issued.RawKey[:len(issued.RawKey)-1] + "B"
	}

	for name, candidate := range map[string]string{
		"empty":         "",
		"wrong prefix":  "xyz_" + issued.RawKey[4:],
		"truncated":     issued.RawKey[:20],
		"tampered":      tampered,
		"other project": otherKey.RawKey,
	} {
		t.Run(name, func(t *testing.T) {
			err := f.svc.Verify(ctx, p.ID, candidate)
			assert.True(t, errors.HasCode(err, errors.API_KEY_INVALID))
			assert.True(t, errors.IsClientError(err, http.StatusUnauthorized))
		})
	}

	assert.True(t, errors.HasCode(f.svc.Verify(ctx, 9999, issued.RawKey), errors.API_KEY_INVALID))
}

func TestVerifyExpiredKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour).UTC()
	p := f.addProject(t, &expiry)
	issued, err := f.svc.Issue(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Verify(ctx, p.ID, issued.RawKey))

	f.svc.WithClock(func() time.Time { return expiry.Add(time.Second) })
	err = f.svc.Verify(ctx, p.ID, issued.RawKey)

	assert.True(t, errors.HasCode(err, errors.API_KEY_EXPIRED))
	assert.True(t, errors.IsClientError(err, http.StatusUnauthorized))
}

func TestVerifyInactiveProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProject(t, nil)
	issued, err := f.svc.Issue(ctx, p.ID)
	require.NoError(t, err)

	p.IsActive = false
	_, err = f.projects.UpdateProject(ctx, p)
	require.NoError(t, err)

	err = f.svc.Verify(ctx, p.ID, issued.RawKey)
	assert.True(t, errors.HasCode(err, errors.PROJECT_INACTIVE))
	assert.True(t, errors.IsClientError(err, http.StatusForbidden))
}

func TestConcurrentRotationsLeaveOneValidKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProject(t, nil)
	_, err := f.svc.Issue(ctx, p.ID)
	require.NoError(t, err)

	const rotations = 8
	keys := make([]string, rotations)
	var wg sync.WaitGroup
	for i := 0; i < rotations; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			issued, err := f.svc.Rotate(ctx, p.ID)
			if assert.NoError(t, err) {
				keys[i] = issued.RawKey
			}
		}(i)
	}
	wg.Wait()

	valid := 0
	for _, k := range keys {
		if f.svc.Verify(ctx, p.ID, k) == nil {
			valid++
		}
	}
	assert.Equal(t, 1, valid)
}

func TestVerifyAfterRotateNeverAcceptsOldKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProject(t, nil)
	current, err := f.svc.Issue(ctx, p.ID)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		old := current.RawKey
		done := make(chan struct{})
		go func() {
			defer close(done)
			for j := 0; j < 10; j++ {
				_ = f.svc.Verify(ctx, p.ID, old)
			}
		}()
		current, err = f.svc.Rotate(ctx, p.ID)
		require.NoError(t, err)
		assert.Error(t, f.svc.Verify(ctx, p.ID, old))
		<-done
	}
}
