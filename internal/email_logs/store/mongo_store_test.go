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
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wso2/email-gateway-service/internal/email_logs/model"
	"github.com/wso2/email-gateway-service/internal/system/constants"
)

func setupMongo(t *testing.T) *MongoEmailLogStore {
	t.Helper()
	if testing.Short() {
		t.Skip("mongodb container tests are skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017/tcp")
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(fmt.Sprintf("mongodb://%s:%s", host, port.Port())))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	s, err := NewMongoEmailLogStore(ctx, client.Database("email_gateway_test"), "email_logs")
	require.NoError(t, err)
	return s
}

func mongoEntry(projectID int64, project, subject string, at time.Time) *model.EmailLog {
	e := entry(projectID, subject, at)
	e.ProjectName = project
	return e
}

func TestMongoStore(t *testing.T) {
	s := setupMongo(t)
	ctx := context.Background()
	alpha, beta := int64(1), int64(2)

	t.Run("append is idempotent and ids are sequential", func(t *testing.T) {
		e := mongoEntry(alpha, "alpha", "Welcome", base)
		first, created, err := s.Append(ctx, e)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, int64(1), first.ID)
		assert.Equal(t, constants.StatusQueued, first.Status)

		again, created, err := s.Append(ctx, e)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, again.ID)

		next, _, err := s.Append(ctx, mongoEntry(alpha, "alpha", "Second", base.Add(time.Minute)))
		require.NoError(t, err)
		assert.Equal(t, int64(2), next.ID)
	})

	t.Run("outcome is recorded once", func(t *testing.T) {
		stored, _, err := s.Append(ctx, mongoEntry(alpha, "alpha", "Receipt", base.Add(2*time.Minute)))
		require.NoError(t, err)
		require.NoError(t, s.MarkOutcome(ctx, stored.ID, model.Outcome{Status: constants.StatusFailed, ErrorMessage: "Mailbox FULL"}))
		assert.ErrorIs(t, s.MarkOutcome(ctx, stored.ID, model.Outcome{Status: constants.StatusSent}), ErrStatusFinal)
		assert.ErrorIs(t, s.MarkOutcome(ctx, 999, model.Outcome{Status: constants.StatusSent}), ErrLogNotFound)

		got, err := s.Get(ctx, stored.ID)
		require.NoError(t, err)
		assert.Equal(t, constants.StatusFailed, got.Status)
		require.NotNil(t, got.ErrorMessage)
		assert.Equal(t, "Mailbox FULL", *got.ErrorMessage)
	})

	t.Run("query filters newest first", func(t *testing.T) {
		stored, _, err := s.Append(ctx, mongoEntry(beta, "beta", "Digest", base.Add(3*time.Minute)))
		require.NoError(t, err)
		require.NoError(t, s.MarkOutcome(ctx, stored.ID, model.Outcome{Status: constants.StatusSent}))

		all, err := s.Query(ctx, model.LogFilter{}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(4), all.Total)
		assert.Equal(t, "Digest", all.Items[0].Subject)

		byError, err := s.Query(ctx, model.LogFilter{Search: "mailbox full"}, 1, 10)
		require.NoError(t, err)
		require.Len(t, byError.Items, 1)
		assert.Equal(t, "Receipt", byError.Items[0].Subject)

		literal, err := s.Query(ctx, model.LogFilter{Search: "Rec.ipt"}, 1, 10)
		require.NoError(t, err)
		assert.Zero(t, literal.Total)

		byProject, err := s.Query(ctx, model.LogFilter{ProjectID: &alpha}, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(3), byProject.Total)
		require.Len(t, byProject.Items, 1)
		assert.Equal(t, "Welcome", byProject.Items[0].Subject)

		beyond, err := s.Query(ctx, model.LogFilter{}, 9, 10)
		require.NoError(t, err)
		assert.Empty(t, beyond.Items)
		assert.NotNil(t, beyond.Items)
	})

	t.Run("aggregates", func(t *testing.T) {
		top, err := s.TopProjects(ctx, base, 5)
		require.NoError(t, err)
		require.Len(t, top, 2)
		assert.Equal(t, model.ProjectVolume{ProjectName: "alpha", Total: 3, Sent: 0, Failed: 1}, top[0])

		recent, err := s.RecentFailures(ctx, 5)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, "Mailbox FULL", recent[0].ErrorMessage)

		marks, err := s.FailuresSince(ctx, alpha, base)
		require.NoError(t, err)
		require.Len(t, marks, 1)
		assert.True(t, marks[0].CreatedAt.Equal(base.Add(2*time.Minute)))

		sent, err := s.CountByStatusSince(ctx, constants.StatusSent, base)
		require.NoError(t, err)
		assert.Equal(t, int64(1), sent)
	})

	t.Run("delete by project", func(t *testing.T) {
		require.NoError(t, s.DeleteByProject(ctx, alpha))
		left, err := s.Query(ctx, model.LogFilter{}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), left.Total)
		assert.Equal(t, beta, left.Items[0].ProjectID)
	})
}
