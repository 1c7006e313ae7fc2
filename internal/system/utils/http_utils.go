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

package utils

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/wso2/email-gateway-service/internal/system/constants"
	sysContext "github.com/wso2/email-gateway-service/internal/system/context"
	customerrors "github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/log"
)

type errorBody struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Description string `json:"description"`
	TraceID     string `json:"trace_id,omitempty"`
}

// HandleError sends an HTTP error response based on the provided error
func HandleError(w http.ResponseWriter, r *http.Request, err error) {

	traceID := ""
	if r != nil {
		traceID = sysContext.GetTraceID(r.Context())
	}

	var clientError *customerrors.ClientError
	if ok := errors.As(err, &clientError); ok {
		if clientError.StatusCode == http.StatusTooManyRequests && clientError.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.FormatInt(RetryAfterSeconds(clientError.RetryAfter.Seconds()), 10))
		}
		WriteJSON(w, clientError.StatusCode, errorBody{
			Code:        clientError.Code,
			Message:     clientError.Message,
			Description: clientError.Description,
			TraceID:     traceID,
		})
		return
	}

	logger := log.GetLogger()
	if r != nil {
		logger = logger.WithContext(r.Context())
	}
	var serverError *customerrors.ServerError
	if ok := errors.As(err, &serverError); ok {
		logger.Error(serverError.Error())
		WriteJSON(w, http.StatusInternalServerError, errorBody{
			Code:        serverError.Code,
			Message:     "Internal server error",
			Description: serverError.Message,
			TraceID:     traceID,
		})
		return
	}

	logger.Error("Unhandled error", log.Error(err))
	WriteJSON(w, http.StatusInternalServerError, errorBody{
		Code:    "",
		Message: "Internal server error",
		TraceID: traceID,
	})
}

// RetryAfterSeconds rounds a wait up to whole seconds, never below one.
func RetryAfterSeconds(seconds float64) int64 {
	s := int64(math.Ceil(seconds))
	if s < 1 {
		return 1
	}
	return s
}

// WriteJSON writes body as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body interface{}) {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.GetLogger().Error("Failed to encode response", log.Error(err))
	}
}

// DecodeJSON decodes the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v interface{}, resourceName string, code customerrors.ErrorMessage) error {

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		description, status := DescribeDecodeError(err, resourceName)
		return customerrors.NewClientError(customerrors.Describe(code, description), status)
	}
	return nil
}

// PathID parses the named path value as a positive integer id.
func PathID(r *http.Request, name string) (int64, error) {

	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, customerrors.NewClientError(customerrors.Describe(customerrors.INVALID_PATH_PARAM,
			"Path parameter '"+name+"' must be a positive integer."), http.StatusBadRequest)
	}
	return id, nil
}

// OptionalQueryID parses an optional positive integer query parameter.
func OptionalQueryID(r *http.Request, name string) (*int64, error) {

	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, customerrors.NewClientError(customerrors.Describe(customerrors.INVALID_QUERY_PARAM,
			"Query parameter '"+name+"' must be a positive integer."), http.StatusBadRequest)
	}
	return &id, nil
}

// PageParams reads page and page_size. Missing values take defaults; out of range values
// are passed through so the store answers them with an empty page.
func PageParams(r *http.Request) (page, pageSize int, err error) {

	page, err = intQuery(r, "page", constants.DefaultPage)
	if err != nil {
		return 0, 0, err
	}
	pageSize, err = intQuery(r, "page_size", constants.DefaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	return page, pageSize, nil
}

func intQuery(r *http.Request, name string, def int) (int, error) {

	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, customerrors.NewClientError(customerrors.Describe(customerrors.INVALID_QUERY_PARAM,
			"Query parameter '"+name+"' must be an integer."), http.StatusBadRequest)
	}
	return v, nil
}
