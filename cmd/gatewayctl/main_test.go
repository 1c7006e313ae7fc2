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

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   string
}

func newGateway(t *testing.T, status int, body string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var seen []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		seen = append(seen, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   string(data),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--url", srv.URL, "--token", "tok"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestProjectsList(t *testing.T) {
	srv, seen := newGateway(t, http.StatusOK, `[{"id":1,"name":"billing","is_active":true}]`)

	out, err := run(t, srv, "projects", "list")
	require.NoError(t, err)
	require.Len(t, *seen, 1)
	assert.Equal(t, http.MethodGet, (*seen)[0].Method)
	assert.Equal(t, "/email-admin/projects", (*seen)[0].Path)
	assert.Equal(t, "Bearer tok", (*seen)[0].Auth)
	assert.Contains(t, out, `"name": "billing"`)
}

func TestProjectsCreateSendsOnlyChangedLimits(t *testing.T) {
	srv, seen := newGateway(t, http.StatusCreated, `{"id":7,"name":"alerts","api_key_raw":"egs_secret"}`)

	out, err := run(t, srv, "projects", "create", "alerts", "--per-minute", "5", "-d", "ops alerts")
	require.NoError(t, err)
	assert.Contains(t, out, "egs_secret")

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte((*seen)[0].Body), &body))
	assert.Equal(t, "alerts", body["name"])
	assert.Equal(t, "ops alerts", body["description"])
	assert.EqualValues(t, 5, body["rate_limit_per_minute"])
	assert.NotContains(t, body, "rate_limit_per_hour")
	assert.NotContains(t, body, "is_active")
}

func TestProjectsRotateKey(t *testing.T) {
	srv, seen := newGateway(t, http.StatusOK, `{"api_key_raw":"egs_new","api_key_prefix":"egs_new"}`)

	_, err := run(t, srv, "projects", "rotate-key", "3")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, (*seen)[0].Method)
	assert.Equal(t, "/email-admin/projects/3/rotate-key", (*seen)[0].Path)
}

func TestLogsListQuery(t *testing.T) {
	srv, seen := newGateway(t, http.StatusOK, `{"items":[],"total":0,"page":2,"page_size":5}`)

	_, err := run(t, srv, "logs", "list", "--project", "4", "--status", "failed", "--page", "2", "--page-size", "5")
	require.NoError(t, err)
	assert.Equal(t, "/email-admin/logs", (*seen)[0].Path)
	assert.Equal(t, "page=2&page_size=5&project_id=4&status=failed", (*seen)[0].Query)
}

func TestEventsAck(t *testing.T) {
	srv, seen := newGateway(t, http.StatusOK, `{"id":9,"acknowledged_at":"2026-01-02T03:04:05Z"}`)

	out, err := run(t, srv, "events", "ack", "9")
	require.NoError(t, err)
	assert.Equal(t, "/email-admin/escalation-events/9/acknowledge", (*seen)[0].Path)
	assert.Contains(t, out, "2026-01-02T03:04:05Z")
}

func TestStats(t *testing.T) {
	srv, _ := newGateway(t, http.StatusOK, `{"sent_today":3,"failure_rate_percent":25}`)

	out, err := run(t, srv, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, `"sent_today": 3`)
}

func TestErrorBodyIsReported(t *testing.T) {
	srv, _ := newGateway(t, http.StatusNotFound,
		`{"code":"EGS-11004","message":"Project not found.","description":"No project with id 5.","trace_id":"abc"}`)

	_, err := run(t, srv, "projects", "get", "5")
	require.Error(t, err)
	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "EGS-11004", apiErr.Code)
	assert.Contains(t, err.Error(), "trace abc")
}

func TestInvalidIDIsRejectedLocally(t *testing.T) {
	srv, seen := newGateway(t, http.StatusOK, `{}`)

	_, err := run(t, srv, "events", "ack", "abc")
	require.Error(t, err)
	assert.Empty(t, *seen)
}
