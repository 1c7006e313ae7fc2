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

package authn

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wso2/email-gateway-service/internal/system/config"
	errors2 "github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/log"
)

// ValidateAuthenticationAndReturnClaims verifies an HS256 console token and returns its claims.
func ValidateAuthenticationAndReturnClaims(token string) (jwt.MapClaims, error) {

	logger := log.GetLogger()
	authCfg := config.GetRuntime().Config.Auth
	if authCfg.JWTSecret == "" {
		logger.Error("Console token received but no JWT secret is configured.")
		return nil, unauthorizedError()
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if authCfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(authCfg.Issuer))
	}
	if authCfg.Audience != "" {
		options = append(options, jwt.WithAudience(authCfg.Audience))
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(authCfg.JWTSecret), nil
	}, options...)
	if err != nil || !parsed.Valid {
		logger.Debug("Console token rejected.", log.Error(err))
		return nil, unauthorizedError()
	}
	return claims, nil
}

// ParseJWTClaims parses claims from a JWT without verifying the signature
func ParseJWTClaims(tokenString string) (map[string]interface{}, error) {

	logger := log.GetLogger()
	claims := jwt.MapClaims{}
	_, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims)
	if err != nil {
		errMsg := "Error occurred when parsing claims from JWT token."
		logger.Debug(errMsg, log.Error(err))
		return nil, errors2.NewServerError(errors2.Describe(errors2.PARSING_ERROR, errMsg), err)
	}
	return claims, nil
}

// IssueToken signs a console token. gatewayctl and tests use it to mint credentials.
func IssueToken(secret, issuer, audience, subject string, scopes []string, ttl time.Duration) (string, error) {

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   subject,
		"scope": strings.Join(scopes, " "),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	if issuer != "" {
		claims["iss"] = issuer
	}
	if audience != "" {
		claims["aud"] = audience
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ScopesOf returns the space separated scope claim as a string.
func ScopesOf(claims jwt.MapClaims) string {
	scope, _ := claims["scope"].(string)
	return scope
}

func unauthorizedError() error {
	return errors2.NewClientError(errors2.UN_AUTHORIZED, http.StatusUnauthorized)
}
