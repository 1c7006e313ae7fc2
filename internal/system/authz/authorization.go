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

package authz

import (
	"slices"
	"strings"

	"github.com/wso2/email-gateway-service/internal/system/config"
	"github.com/wso2/email-gateway-service/internal/system/log"
)

// ValidatePermission checks if the provided scopes match the expected scopes for an operation
func ValidatePermission(scopeStr string, operation string) bool {

	logger := log.GetLogger()
	if scopeStr == "" {
		logger.Debug("No scopes provided", log.String("operation", operation))
		return false
	}

	requiredScopes := config.GetRuntime().Config.Auth.RequiredScopes
	expectedScopes, ok := requiredScopes[operation]
	if !ok {
		logger.Debug("No scopes configured for operation", log.String("operation", operation))
		return false
	}

	grantedScopes := strings.Fields(scopeStr)
	for _, expected := range expectedScopes {
		if !slices.Contains(grantedScopes, expected) {
			logger.Debug("Missing scope", log.String("operation", operation), log.String("scope", expected))
			return false
		}
	}
	return true
}
