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

// Package securitytest configures console authentication for handler tests.
package securitytest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wso2/email-gateway-service/internal/system/authn"
	"github.com/wso2/email-gateway-service/internal/system/config"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	"github.com/wso2/email-gateway-service/internal/system/log"
)

const (
	Secret = "handler-test-secret"
	Issuer = "egs-test"
)

// Setup installs a runtime configuration that accepts tokens minted by Bearer.
func Setup(t testing.TB) {
	t.Helper()
	_ = log.Init("DEBUG")
	cfg, err := config.ParseConfig([]byte("auth:\n  jwt_secret: " + Secret + "\n  issuer: " + Issuer + "\n"))
	require.NoError(t, err)
	config.OverrideRuntime(*cfg)
}

// Bearer returns an Authorization header value carrying the given scopes.
func Bearer(t testing.TB, scopes ...string) string {
	t.Helper()
	token, err := authn.IssueToken(Secret, Issuer, "email-admin", "operator", scopes, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

// Admin returns a bearer token with every console scope.
func Admin(t testing.TB) string {
	return Bearer(t, constants.ScopeView, constants.ScopeManage)
}
