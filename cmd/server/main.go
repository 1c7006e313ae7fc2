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
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wso2/email-gateway-service/internal/system/config"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	"github.com/wso2/email-gateway-service/internal/system/database/provider"
	"github.com/wso2/email-gateway-service/internal/system/log"
	"github.com/wso2/email-gateway-service/internal/system/managers"
	"github.com/wso2/email-gateway-service/internal/system/security"
)

const (
	configFile      = "/repository/conf/deployment.yaml"
	shutdownTimeout = 15 * time.Second
)

func main() {
	gatewayHome := getGatewayHome()

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

	// Initialize runtime configurations.
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

	// Initialize database
	dbClient, err := provider.NewDBProvider().GetDBClient()
	if err != nil {
		logger.Fatal("Failed to connect to the database.", log.Error(err))
	}
	gateway, err := managers.BuildGateway(ctx, *gatewayConfig, gatewayHome, dbClient)
	if err != nil {
		logger.Fatal("Failed to initialize the gateway.", log.Error(err))
	}
	gateway.Start(ctx)

	serverAddr := fmt.Sprintf("%s:%d", gatewayConfig.Addr.Host, gatewayConfig.Addr.Port)
	ln, err := net.Listen("tcp", serverAddr)
	if err != nil {
		logger.Fatal("Failed to start listener.", log.String("addr", serverAddr), log.Error(err))
	}

	server := &http.Server{
		Handler:           initHandler(gateway, gatewayConfig.Auth.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Email gateway started.", log.String("addr", serverAddr),
			log.String("db_type", dbClient.DBType()), log.String("email_logs", gatewayConfig.EmailLogs.Backend))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Failed to serve requests.", log.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down email gateway.")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Graceful shutdown failed.", log.Error(err))
	}
	gateway.Close(shutdownCtx)
}

// initHandler initializes the HTTP multiplexer, registers the services and wraps the middleware.
func initHandler(gateway *managers.Gateway, corsOrigins []string) http.Handler {

	mux := http.NewServeMux()
	serviceManager := managers.NewServiceManager(mux, gateway)

	// Register the services.
	if err := serviceManager.RegisterServices(constants.AdminBasePath); err != nil {
		log.GetLogger().Error("Failed to register the services.", log.Error(err))
	}

	return security.RecoverMiddleware(security.TraceMiddleware(security.CORSMiddleware(corsOrigins, mux)))
}

func getGatewayHome() string {

	// Parse project directory from command line arguments.
	homeFlag := flag.String("gatewayHome", "", "Path to email gateway home directory")
	flag.Parse()

	if *homeFlag != "" {
		fmt.Printf("Using %s from command line argument\n", *homeFlag)
		return *homeFlag
	}
	if envHome := os.Getenv("GATEWAY_HOME"); envHome != "" {
		return envHome
	}
	// If no command line argument is provided, use the current working directory.
	dir, err := os.Getwd()
	if err != nil {
		fmt.Println("Failed to get current working directory.", err)
		os.Exit(1)
	}
	return dir
}
