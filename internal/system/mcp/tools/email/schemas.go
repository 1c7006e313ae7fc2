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

package email

import "github.com/google/jsonschema-go/jsonschema"

var pageProperties = map[string]*jsonschema.Schema{
	"page": {
		Type:        "integer",
		Description: "1-based page number (defaults to 1).",
	},
	"page_size": {
		Type:        "integer",
		Description: "Results per page (defaults to 20, at most 200).",
	},
}

func withPaging(props map[string]*jsonschema.Schema) map[string]*jsonschema.Schema {
	for k, v := range pageProperties {
		props[k] = v
	}
	return props
}

var listProjectsInputSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"active_only": {
			Type:        "boolean",
			Description: "Only return projects that can currently send email.",
		},
	},
}

var queryLogsInputSchema = &jsonschema.Schema{
	Type: "object",
	Properties: withPaging(map[string]*jsonschema.Schema{
		"project_id": {
			Type:        "integer",
			Description: "Restrict to one project.",
		},
		"status": {
			Type:        "string",
			Description: "Delivery status.",
			Enum:        []any{"queued", "sent", "failed"},
		},
		"search": {
			Type:        "string",
			Description: "Case-insensitive substring of the subject or the error message.",
		},
	}),
}

var listEscalationsInputSchema = &jsonschema.Schema{
	Type: "object",
	Properties: withPaging(map[string]*jsonschema.Schema{
		"project_id": {
			Type:        "integer",
			Description: "Restrict to one project.",
		},
	}),
}

var acknowledgeEscalationInputSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"event_id"},
	Properties: map[string]*jsonschema.Schema{
		"event_id": {
			Type:        "integer",
			Description: "Id of the escalation event to acknowledge.",
		},
	},
}

// Output schemas. Pointer and slice fields serialize as null when unset, so they are declared
// nullable here instead of being inferred from the Go types.

func nullable(typ, description string) *jsonschema.Schema {
	return &jsonschema.Schema{Types: []string{typ, "null"}, Description: description}
}

func field(typ string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: typ}
}

func nullableStrings(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Types: []string{"array", "null"}, Items: field("string"), Description: description}
}

func pageSchema(item *jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"items":     {Types: []string{"array", "null"}, Items: item},
			"total":     {Type: "integer", Description: "Number of matches across all pages."},
			"page":      field("integer"),
			"page_size": field("integer"),
		},
	}
}

func projectSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"id":                    field("integer"),
			"name":                  field("string"),
			"description":           field("string"),
			"api_key_prefix":        {Type: "string", Description: "Leading characters of the active key."},
			"api_key_expires_at":    nullable("string", "Expiry of the active key, null when it never expires."),
			"is_active":             field("boolean"),
			"rate_limit_per_minute": field("integer"),
			"rate_limit_per_hour":   field("integer"),
			"created_by":            field("string"),
			"created_at":            field("string"),
			"updated_at":            field("string"),
		},
	}
}

func emailLogSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"id":                  field("integer"),
			"request_id":          field("string"),
			"project_id":          field("integer"),
			"project_name":        field("string"),
			"to_emails":           nullableStrings("Primary recipients."),
			"cc":                  nullableStrings(""),
			"bcc":                 nullableStrings(""),
			"subject":             field("string"),
			"body_html":           field("string"),
			"attachments_count":   field("integer"),
			"attachment_names":    nullableStrings(""),
			"status":              {Type: "string", Enum: []any{"queued", "sent", "failed"}},
			"error_message":       nullable("string", "Provider error of a failed delivery."),
			"provider_message_id": nullable("string", ""),
			"sent_at":             nullable("string", "Set once the provider accepted the message."),
			"created_at":          field("string"),
		},
	}
}

func eventProperties() map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		"id":              field("integer"),
		"project_id":      field("integer"),
		"project_name":    field("string"),
		"email_log_id":    field("integer"),
		"contact_id":      nullable("integer", "Null once the contact was deleted."),
		"contact_name":    field("string"),
		"contact_email":   field("string"),
		"level":           {Type: "integer", Description: "Escalation tier, 1 to 3."},
		"email_subject":   field("string"),
		"error_message":   field("string"),
		"notified_at":     field("string"),
		"acknowledged_at": nullable("string", "Null until an operator acknowledges the event."),
	}
}

var listProjectsOutputSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"projects": {Types: []string{"array", "null"}, Items: projectSchema()},
	},
}

var queryLogsOutputSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"logs": pageSchema(emailLogSchema()),
	},
}

var listEscalationsOutputSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"events": pageSchema(&jsonschema.Schema{Type: "object", Properties: eventProperties()}),
	},
}

var acknowledgeEscalationOutputSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"event": {Types: []string{"object", "null"}, Properties: eventProperties()},
	},
}
