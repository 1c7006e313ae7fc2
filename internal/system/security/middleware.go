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

package security

import (
	"net/http"
	"strings"

	"github.com/wso2/email-gateway-service/internal/system/authn"
	"github.com/wso2/email-gateway-service/internal/system/authz"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	sysContext "github.com/wso2/email-gateway-service/internal/system/context"
	"github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/log"
)

// AuthnAndAuthz authenticates the console bearer token of r and checks it grants operation.
// On success the returned request carries the principal in its context.
func AuthnAndAuthz(r *http.Request, operation string) (*http.Request, error) {

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return r, errors.NewClientError(errors.Describe(errors.UN_AUTHORIZED,
			"Missing or invalid Authorization header"), http.StatusUnauthorized)
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

	//  Validate token
	claims, err := authn.ValidateAuthenticationAndReturnClaims(token)
	if err != nil {
		return r, err
	}

	//  Validate authorization
	scope := authn.ScopesOf(claims)
	if !authz.ValidatePermission(scope, operation) {
		return r, errors.NewClientError(errors.FORBIDDEN, http.StatusForbidden)
	}

	subject, _ := claims.GetSubject()
	principal := sysContext.Principal{Subject: subject, Scopes: strings.Fields(scope)}
	return r.WithContext(sysContext.WithPrincipal(r.Context(), principal)), nil
}

// TraceMiddleware places the request trace id in the context and echoes it in the response.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := strings.TrimSpace(r.Header.Get(constants.TraceIDHeader))
		if traceID == "" || len(traceID) > 128 {
			traceID = sysContext.GenerateTraceID()
		}
		w.Header().Set(constants.TraceIDHeader, traceID)
		next.ServeHTTP(w, r.WithContext(sysContext.WithTraceID(r.Context(), traceID)))
	})
}

// CORSMiddleware answers preflight requests for the configured console origins.
func CORSMiddleware(allowedOrigins []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && originAllowed(allowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key, X-Trace-Id")
			w.Header().Set("Access-Control-Expose-Headers", "Retry-After, X-Trace-Id")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func originAllowed(allowed []string, origin string) bool {
	for _, o := range allowed {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// RecoverMiddleware turns a handler panic into a 500 response.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.GetLogger().WithContext(r.Context()).Error("Recovered from panic", log.Any("panic", rec))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
