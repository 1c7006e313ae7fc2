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

package client

import (
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// Timestamps are persisted as unix milliseconds in every dialect.

// ToMillis converts a time to unix milliseconds.
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts unix milliseconds to a UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// NullableMillis converts an optional time to a value accepted by both drivers.
func NullableMillis(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

// TimePtr converts a nullable millisecond column to an optional time.
func TimePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := FromMillis(v.Int64)
	return &t
}

// NullableString maps the empty string to NULL.
func NullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// Placeholders numbers positional parameters for dynamically built queries.
type Placeholders struct {
	args []interface{}
}

// Add appends arg and returns its placeholder.
func (p *Placeholders) Add(arg interface{}) string {
	p.args = append(p.args, arg)
	return "$" + strconv.Itoa(len(p.args))
}

// Args returns the collected arguments in placeholder order.
func (p *Placeholders) Args() []interface{} {
	return p.args
}

// EscapeLike escapes LIKE wildcards so s matches literally. Use with ESCAPE '\'.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
