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
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// DescribeDecodeError turns a JSON decoding failure into a client facing description and the
// status to answer with. Oversized bodies get 413, everything else 400.
func DescribeDecodeError(err error, resourceName string) (string, int) {

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Sprintf("Request body for %s exceeds %d bytes.", resourceName, tooLarge.Limit),
			http.StatusRequestEntityTooLarge
	}
	if errors.Is(err, io.EOF) {
		return fmt.Sprintf("Request body for %s is empty.", resourceName), http.StatusBadRequest
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Sprintf("Request body for %s is truncated.", resourceName), http.StatusBadRequest
	}
	// DisallowUnknownFields reports through a plain error.
	if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return fmt.Sprintf("Unknown field %s in %s request body.", field, resourceName), http.StatusBadRequest
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf("Malformed JSON in %s request body.", resourceName), http.StatusBadRequest
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return fmt.Sprintf("Request body for %s must be a JSON object.", resourceName), http.StatusBadRequest
		}
		return fmt.Sprintf("Field '%s' in %s request body must be of type %s.", typeErr.Field, resourceName,
			jsonTypeName(typeErr.Type.String())), http.StatusBadRequest
	}
	return fmt.Sprintf("Invalid JSON payload for %s.", resourceName), http.StatusBadRequest
}

func jsonTypeName(goType string) string {
	switch {
	case strings.HasPrefix(goType, "[]"):
		return "array"
	case strings.HasPrefix(goType, "int"), strings.HasPrefix(goType, "*int"):
		return "integer"
	case strings.HasSuffix(goType, "bool"):
		return "boolean"
	case strings.HasSuffix(goType, "string"):
		return "string"
	default:
		return "object"
	}
}
