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

package errors

const errorPrefix = "EGS-"

var (
	// Server error codes

	ADD_PROJECT = ErrorMessage{
		Code:    errorPrefix + "15001",
		Message: "Error while adding project.",
	}

	GET_PROJECT = ErrorMessage{
		Code:    errorPrefix + "15002",
		Message: "Error while fetching project(s).",
	}

	UPDATE_PROJECT = ErrorMessage{
		Code:    errorPrefix + "15003",
		Message: "Error while updating project.",
	}

	DELETE_PROJECT = ErrorMessage{
		Code:    errorPrefix + "15004",
		Message: "Error while deleting project.",
	}

	ISSUE_API_KEY = ErrorMessage{
		Code:    errorPrefix + "15005",
		Message: "Error while issuing API key.",
	}

	ROTATE_API_KEY = ErrorMessage{
		Code:    errorPrefix + "15006",
		Message: "Error while rotating API key.",
	}

	GET_API_KEY = ErrorMessage{
		Code:    errorPrefix + "15007",
		Message: "Error while fetching API key.",
	}

	ADD_EMAIL_LOG = ErrorMessage{
		Code:    errorPrefix + "15008",
		Message: "Error while recording email delivery.",
	}

	GET_EMAIL_LOG = ErrorMessage{
		Code:    errorPrefix + "15009",
		Message: "Error while fetching email log(s).",
	}

	UPDATE_EMAIL_LOG = ErrorMessage{
		Code:    errorPrefix + "15010",
		Message: "Error while updating email delivery status.",
	}

	ADD_ESCALATION_CONTACT = ErrorMessage{
		Code:    errorPrefix + "15011",
		Message: "Error while adding escalation contact.",
	}

	GET_ESCALATION_CONTACT = ErrorMessage{
		Code:    errorPrefix + "15012",
		Message: "Error while fetching escalation contact(s).",
	}

	UPDATE_ESCALATION_CONTACT = ErrorMessage{
		Code:    errorPrefix + "15013",
		Message: "Error while updating escalation contact.",
	}

	DELETE_ESCALATION_CONTACT = ErrorMessage{
		Code:    errorPrefix + "15014",
		Message: "Error while deleting escalation contact.",
	}

	ADD_ESCALATION_EVENT = ErrorMessage{
		Code:    errorPrefix + "15015",
		Message: "Error while recording escalation event.",
	}

	GET_ESCALATION_EVENT = ErrorMessage{
		Code:    errorPrefix + "15016",
		Message: "Error while fetching escalation event(s).",
	}

	ACKNOWLEDGE_ESCALATION_EVENT = ErrorMessage{
		Code:    errorPrefix + "15017",
		Message: "Error while acknowledging escalation event.",
	}

	ESCALATION_POLICY = ErrorMessage{
		Code:    errorPrefix + "15018",
		Message: "Error while evaluating escalation policy.",
	}

	GET_STATS = ErrorMessage{
		Code:    errorPrefix + "15019",
		Message: "Error while computing dashboard statistics.",
	}

	SEND_EMAIL = ErrorMessage{
		Code:    errorPrefix + "15020",
		Message: "Error while sending email.",
	}

	DB_CLIENT_INIT = ErrorMessage{
		Code:    errorPrefix + "15021",
		Message: "Unable to initialize database client.",
	}

	LOCK_ACQUIRE = ErrorMessage{
		Code:    errorPrefix + "15022",
		Message: "Advisory lock acquisition failed",
	}

	LOCK_RELEASE = ErrorMessage{
		Code:    errorPrefix + "15023",
		Message: "Error while releasing the lock.",
	}

	MARSHAL_JSON = ErrorMessage{
		Code:    errorPrefix + "15024",
		Message: "Error while marshalling JSON.",
	}

	UNMARSHAL_JSON = ErrorMessage{
		Code:    errorPrefix + "15025",
		Message: "Error while un-marshalling JSON.",
	}

	PARSING_ERROR = ErrorMessage{
		Code:    errorPrefix + "15026",
		Message: "Parsing token failed.",
	}

	HEALTH_CHECK = ErrorMessage{
		Code:    errorPrefix + "15027",
		Message: "Health check failed.",
	}

	// Client error codes

	BAD_REQUEST = ErrorMessage{
		Code:    errorPrefix + "11001",
		Message: "Invalid body format.",
	}

	UN_AUTHORIZED = ErrorMessage{
		Code:        errorPrefix + "11002",
		Message:     "Unauthorized",
		Description: "Missing or invalid credentials.",
	}

	FORBIDDEN = ErrorMessage{
		Code:        errorPrefix + "11003",
		Message:     "Forbidden",
		Description: "Do not have permission to perform this operation.",
	}

	PROJECT_NOT_FOUND = ErrorMessage{
		Code:    errorPrefix + "11004",
		Message: "Project not found.",
	}

	PROJECT_VALIDATION = ErrorMessage{
		Code:    errorPrefix + "11005",
		Message: "Project validation failed.",
	}

	PROJECT_INACTIVE = ErrorMessage{
		Code:        errorPrefix + "11006",
		Message:     "Project is inactive.",
		Description: "The project has been deactivated and cannot send email.",
	}

	API_KEY_INVALID = ErrorMessage{
		Code:        errorPrefix + "11007",
		Message:     "Invalid API key.",
		Description: "The API key is missing, malformed or does not match the active key of the project.",
	}

	API_KEY_EXPIRED = ErrorMessage{
		Code:        errorPrefix + "11008",
		Message:     "API key expired.",
		Description: "The API key has expired. Rotate the key from the admin console.",
	}

	RATE_LIMITED = ErrorMessage{
		Code:    errorPrefix + "11009",
		Message: "Rate limit exceeded.",
	}

	EMAIL_LOG_NOT_FOUND = ErrorMessage{
		Code:    errorPrefix + "11010",
		Message: "Email log not found.",
	}

	EMAIL_LOG_CONFLICT = ErrorMessage{
		Code:    errorPrefix + "11011",
		Message: "Email delivery status is already final.",
	}

	EMAIL_VALIDATION = ErrorMessage{
		Code:    errorPrefix + "11012",
		Message: "Email request validation failed.",
	}

	ESCALATION_CONTACT_NOT_FOUND = ErrorMessage{
		Code:    errorPrefix + "11013",
		Message: "Escalation contact not found.",
	}

	ESCALATION_CONTACT_VALIDATION = ErrorMessage{
		Code:    errorPrefix + "11014",
		Message: "Escalation contact validation failed.",
	}

	ESCALATION_EVENT_NOT_FOUND = ErrorMessage{
		Code:    errorPrefix + "11015",
		Message: "Escalation event not found.",
	}

	INVALID_QUERY_PARAM = ErrorMessage{
		Code:    errorPrefix + "11016",
		Message: "Invalid query parameter.",
	}

	INVALID_PATH_PARAM = ErrorMessage{
		Code:    errorPrefix + "11017",
		Message: "Invalid path parameter.",
	}

	RATE_LIMIT_VALIDATION = ErrorMessage{
		Code:    errorPrefix + "11018",
		Message: "Invalid rate limit request.",
	}
)
