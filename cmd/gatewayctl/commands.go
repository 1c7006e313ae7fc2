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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	apiKeyModel "github.com/wso2/email-gateway-service/internal/api_keys/model"
	dashboardModel "github.com/wso2/email-gateway-service/internal/dashboard/model"
	emailLogModel "github.com/wso2/email-gateway-service/internal/email_logs/model"
	escalationModel "github.com/wso2/email-gateway-service/internal/escalation/model"
	projectModel "github.com/wso2/email-gateway-service/internal/projects/model"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	"github.com/wso2/email-gateway-service/internal/system/pagination"
)

type clientFactory func() *adminClient

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func idArg(raw string) (string, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return "", fmt.Errorf("invalid id %q: must be a positive integer", raw)
	}
	return strconv.FormatInt(id, 10), nil
}

func pageQuery(cmd *cobra.Command) url.Values {
	query := url.Values{}
	page, _ := cmd.Flags().GetInt("page")
	size, _ := cmd.Flags().GetInt("page-size")
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(size))
	if projectID, _ := cmd.Flags().GetInt64("project"); projectID > 0 {
		query.Set("project_id", strconv.FormatInt(projectID, 10))
	}
	return query
}

func addPageFlags(cmd *cobra.Command) {
	cmd.Flags().Int("page", constants.DefaultPage, "Page number, starting at 1")
	cmd.Flags().Int("page-size", constants.DefaultPageSize, "Entries per page")
	cmd.Flags().Int64("project", 0, "Only entries of this project id")
}

func projectsCmd(client clientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage projects and their API keys",
	}
	cmd.AddCommand(projectsListCmd(client))
	cmd.AddCommand(projectsGetCmd(client))
	cmd.AddCommand(projectsCreateCmd(client))
	cmd.AddCommand(projectsRotateKeyCmd(client))
	return cmd
}

func projectsListCmd(client clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var projects []projectModel.Project
			c := client()
			if err := c.do(cmd.Context(), http.MethodGet, c.adminPath(constants.ProjectsApiPath), nil, nil, &projects); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), projects)
		},
	}
}

func projectsGetCmd(client clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "get [id]",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args[0])
			if err != nil {
				return err
			}
			var project projectModel.Project
			c := client()
			if err := c.do(cmd.Context(), http.MethodGet, c.adminPath(constants.ProjectsApiPath, id), nil, nil, &project); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), project)
		},
	}
}

func projectsCreateCmd(client clientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a project and print its API key",
		Long:  "Create a project. The raw API key is printed once and cannot be retrieved later.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := projectModel.ProjectCreateRequest{Name: args[0]}
			req.Description, _ = cmd.Flags().GetString("description")
			if cmd.Flags().Changed("per-minute") {
				v, _ := cmd.Flags().GetInt("per-minute")
				req.RateLimitPerMinute = &v
			}
			if cmd.Flags().Changed("per-hour") {
				v, _ := cmd.Flags().GetInt("per-hour")
				req.RateLimitPerHour = &v
			}
			if cmd.Flags().Changed("expires-at") {
				v, _ := cmd.Flags().GetString("expires-at")
				req.APIKeyExpiresAt = &v
			}
			if cmd.Flags().Changed("inactive") {
				inactive, _ := cmd.Flags().GetBool("inactive")
				active := !inactive
				req.IsActive = &active
			}
			var created projectModel.ProjectCreated
			c := client()
			if err := c.do(cmd.Context(), http.MethodPost, c.adminPath(constants.ProjectsApiPath), nil, req, &created); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), created)
		},
	}
	cmd.Flags().StringP("description", "d", "", "Project description")
	cmd.Flags().Int("per-minute", constants.DefaultRateLimitPerMinute, "Sends allowed per minute")
	cmd.Flags().Int("per-hour", constants.DefaultRateLimitPerHour, "Sends allowed per hour")
	cmd.Flags().String("expires-at", "", "API key expiry (RFC 3339)")
	cmd.Flags().Bool("inactive", false, "Create the project deactivated")
	return cmd
}

func projectsRotateKeyCmd(client clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate-key [id]",
		Short: "Replace the API key of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args[0])
			if err != nil {
				return err
			}
			var rotated apiKeyModel.RotateKeyResponse
			c := client()
			path := c.adminPath(constants.ProjectsApiPath, id, "rotate-key")
			if err := c.do(cmd.Context(), http.MethodPost, path, nil, nil, &rotated); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rotated)
		},
	}
}

func logsCmd(client clientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Inspect the delivery log",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List delivery log entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := pageQuery(cmd)
			if status, _ := cmd.Flags().GetString("status"); status != "" {
				query.Set("status", status)
			}
			if search, _ := cmd.Flags().GetString("search"); search != "" {
				query.Set("search", search)
			}
			var page pagination.Page[emailLogModel.EmailLog]
			c := client()
			if err := c.do(cmd.Context(), http.MethodGet, c.adminPath(constants.LogsApiPath), query, nil, &page); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	addPageFlags(list)
	list.Flags().String("status", "", "Only entries in this state (queued, sent, failed)")
	list.Flags().String("search", "", "Match subject or error message")
	cmd.AddCommand(list)
	return cmd
}

func eventsCmd(client clientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect and acknowledge escalation events",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List escalation events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var page pagination.Page[escalationModel.Event]
			c := client()
			if err := c.do(cmd.Context(), http.MethodGet, c.adminPath(constants.EscalationEventsApiPath), pageQuery(cmd), nil, &page); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	addPageFlags(list)

	ack := &cobra.Command{
		Use:   "ack [id]",
		Short: "Acknowledge an escalation event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args[0])
			if err != nil {
				return err
			}
			var event escalationModel.Event
			c := client()
			path := c.adminPath(constants.EscalationEventsApiPath, id, "acknowledge")
			if err := c.do(cmd.Context(), http.MethodPost, path, nil, nil, &event); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), event)
		},
	}

	cmd.AddCommand(list)
	cmd.AddCommand(ack)
	return cmd
}

func statsCmd(client clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats dashboardModel.Stats
			c := client()
			if err := c.do(cmd.Context(), http.MethodGet, c.adminPath(constants.StatsApiPath), nil, nil, &stats); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}
