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
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wso2/email-gateway-service/internal/system/config"
	"github.com/wso2/email-gateway-service/internal/system/database/provider"
	"github.com/wso2/email-gateway-service/internal/system/log"
	"github.com/wso2/email-gateway-service/internal/system/managers"
	"github.com/wso2/email-gateway-service/internal/system/mcp"
	"github.com/wso2/email-gateway-service/internal/system/security"
)

func main() {
	gatewayHome := resolveGatewayHome()
	const configFile = "/repository/conf/deployment.yaml"

	envFiles, err := filepath.Glob(filepath.Join(gatewayHome, "config", "*.env"))
	if err != nil || len(envFiles) == 0 {
		fmt.Println("No .env files found in config directory.")
	}
	_ = godotenv.Load(envFiles...)

	// Load the configuration file
	gatewayConfig, err := config.LoadConfig(gatewayHome, configFile)
	if err != nil {
		fmt.Println("Failed to load configuration.", err)
		os.Exit(1)
	}
	// Initialize runtime configurations
	if err := config.InitializeRuntime(gatewayHome, gatewayConfig); err != nil {
		fmt.Println("Failed to initialize gateway runtime.", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := log.InitWithFormat(gatewayConfig.Log.LogLevel, gatewayConfig.Log.Format, os.Stdout); err != nil {
		fmt.Println("Failed to initialize logger.", err)
		os.Exit(1)
	}
	logger := log.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := provider.NewDBProvider().GetDBClient()
	if err != nil {
		logger.Fatal("Failed to connect to the database.", log.Error(err))
	}
	gateway, err := managers.BuildGateway(ctx, *gatewayConfig, gatewayHome, dbClient)
	if err != nil {
		logger.Fatal("Failed to initialize the gateway.", log.Error(err))
	}
	gateway.Start(ctx)

	// Register MCP routes (/mcp)
	mux := http.NewServeMux()
	mcp.Initialize(mux, mcp.Dependencies{
		Projects:   gateway.Projects,
		Logs:       gateway.Logs,
		Escalation: gateway.Escalation,
	})

	addr := gatewayConfig.MCP.Addr
	server := &http.Server{
		Addr:              addr,
		Handler:           security.RecoverMiddleware(security.TraceMiddleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Email gateway MCP server listening.", log.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Failed to start MCP server.", log.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	gateway.Close(shutdownCtx)
}

// resolveGatewayHome parses flags and determines the gateway home directory.
func resolveGatewayHome() string {
	homeFlag := flag.String("gatewayHome", "", "Path to email gateway home directory")

	// Parse flags once (only if not already parsed)
	if !flag.Parsed() {
		flag.Parse()
	}

	if *homeFlag != "" {
		fmt.Printf("Using %s from command line argument\n", *homeFlag)
		return *homeFlag
	}

	// Fallback to environment variable
	if envHome := os.Getenv("GATEWAY_HOME"); envHome != "" {
		fmt.Printf("Using GATEWAY_HOME from environment: %s\n", envHome)
		return envHome
	}

	// Fallback to working directory
	dir, err := os.Getwd()
	if err != nil {
		fmt.Println("Failed to get current working directory", err)
		os.Exit(1)
	}
	return dir
}
