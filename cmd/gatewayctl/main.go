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
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

const (
	defaultURL = "http://localhost:8900"
	urlEnv     = "EGS_URL"
	tokenEnv   = "EGS_TOKEN"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. The admin client is created lazily from the persistent
// flags so subcommands can be exercised against any base URL.
func newRootCmd() *cobra.Command {
	var baseURL, token string

	rootCmd := &cobra.Command{
		Use:           "gatewayctl",
		Short:         "gatewayctl - admin client for the email gateway",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", envOr(urlEnv, defaultURL), "Gateway base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv(tokenEnv), "Bearer token for the admin API")

	client := func() *adminClient {
		return newAdminClient(baseURL, token)
	}

	rootCmd.AddCommand(projectsCmd(client))
	rootCmd.AddCommand(logsCmd(client))
	rootCmd.AddCommand(eventsCmd(client))
	rootCmd.AddCommand(statsCmd(client))

	return rootCmd
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
