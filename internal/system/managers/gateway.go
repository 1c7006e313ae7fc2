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

package managers

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	apiKeyService "github.com/wso2/email-gateway-service/internal/api_keys/service"
	apiKeyStore "github.com/wso2/email-gateway-service/internal/api_keys/store"
	dashboardService "github.com/wso2/email-gateway-service/internal/dashboard/service"
	deliveryService "github.com/wso2/email-gateway-service/internal/delivery/service"
	logService "github.com/wso2/email-gateway-service/internal/email_logs/service"
	logStore "github.com/wso2/email-gateway-service/internal/email_logs/store"
	"github.com/wso2/email-gateway-service/internal/escalation/policy"
	escalationService "github.com/wso2/email-gateway-service/internal/escalation/service"
	escalationStore "github.com/wso2/email-gateway-service/internal/escalation/store"
	healthService "github.com/wso2/email-gateway-service/internal/health_check/service"
	projectService "github.com/wso2/email-gateway-service/internal/projects/service"
	projectStore "github.com/wso2/email-gateway-service/internal/projects/store"
	rateLimitService "github.com/wso2/email-gateway-service/internal/rate_limit/service"
	"github.com/wso2/email-gateway-service/internal/system/config"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	"github.com/wso2/email-gateway-service/internal/system/database/client"
	"github.com/wso2/email-gateway-service/internal/system/database/lock"
	"github.com/wso2/email-gateway-service/internal/system/log"
	"github.com/wso2/email-gateway-service/internal/system/mail"
	"github.com/wso2/email-gateway-service/internal/system/workers"
)

const (
	schemaLockKey       = "email-gateway-schema"
	notifyWorkers       = 2
	mongoConnectTimeout = 10 * time.Second
)

// Gateway is the wired service graph shared by the HTTP and MCP servers.
type Gateway struct {
	DB         client.DBClientInterface
	Projects   *projectService.ProjectService
	APIKeys    *apiKeyService.APIKeyService
	Limiter    *rateLimitService.RateLimiter
	Logs       *logService.EmailLogService
	Contacts   *escalationService.ContactService
	Escalation *escalationService.Engine
	Delivery   *deliveryService.DeliveryService
	Dashboard  *dashboardService.DashboardService
	Health     *healthService.HealthCheckService

	cfg         config.Config
	mongo       *mongo.Client
	notifyQueue *workers.Queue
}

// BuildGateway applies the schema and wires every component over db.
func BuildGateway(ctx context.Context, cfg config.Config, gatewayHome string, db client.DBClientInterface) (*Gateway, error) {

	err := lock.WithLock(ctx, lock.NewLock(db), schemaLockKey, func() error {
		return db.InitDatabase(gatewayHome, cfg.Database.Schema)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize database schema")
	}

	g := &Gateway{DB: db, cfg: cfg}
	checks := map[string]healthService.Check{"database": healthService.DatabaseCheck(db)}

	var logs logStore.EmailLogStoreInterface
	var purger projectService.LogPurger
	switch strings.ToLower(cfg.EmailLogs.Backend) {
	case constants.LogBackendMongoDB:
		mongoStore, err := g.openMongo(ctx, cfg.EmailLogs.MongoDB)
		if err != nil {
			return nil, err
		}
		logs, purger = mongoStore, mongoStore
		checks["mongodb"] = func(ctx context.Context) error { return g.mongo.Ping(ctx, readpref.Primary()) }
	case constants.LogBackendSQL, "":
		logs = logStore.NewSQLEmailLogStore(db)
	default:
		return nil, errors.Errorf("unsupported email log backend %q", cfg.EmailLogs.Backend)
	}

	sender, err := mail.NewSender(cfg.Mail)
	if err != nil {
		return nil, err
	}
	tiers, err := policy.New(cfg.Escalation.Tiers, config.ParseDuration(cfg.Escalation.Window, time.Hour))
	if err != nil {
		return nil, errors.Wrap(err, "invalid escalation tiers")
	}

	projects := projectStore.NewProjectStore(db)
	events := escalationStore.NewEventStore(db)
	contacts := escalationStore.NewContactStore(db)

	g.notifyQueue = workers.NewQueue("escalation-notify", cfg.Escalation.NotifyQueue, notifyWorkers)
	g.APIKeys = apiKeyService.NewAPIKeyService(apiKeyStore.NewAPIKeyStore(db), cfg.APIKeys.BcryptCost)
	g.Limiter = rateLimitService.NewRateLimiter(projects)
	g.Logs = logService.NewEmailLogService(logs)
	g.Escalation = escalationService.NewEngine(contacts, events, logs,
		escalationService.NewMailNotifier(g.notifyQueue, sender),
		escalationService.EngineOptions{Policy: tiers, ResetOnSuccess: cfg.Escalation.ResetOnSuccess})
	g.Projects = projectService.NewProjectService(projects, g.APIKeys, purger, g.Limiter, g.Escalation)
	g.Contacts = escalationService.NewContactService(contacts, projects)
	g.Delivery = deliveryService.NewDeliveryService(g.APIKeys, g.Limiter, g.Logs, projects, sender, g.Escalation)
	g.Dashboard = dashboardService.NewDashboardService(logs, projects, g.Escalation,
		config.ParseDuration(cfg.Dashboard.CacheTTL, 15*time.Second))
	g.Health = healthService.NewHealthCheckService(checks)
	return g, nil
}

func (g *Gateway) openMongo(ctx context.Context, cfg config.MongoDBConfig) (*logStore.MongoEmailLogStore, error) {

	if cfg.URI == "" {
		return nil, errors.New("email_logs.mongodb.uri is required for the mongodb backend")
	}
	connectCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to mongodb")
	}
	if err := mongoClient.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return nil, errors.Wrap(err, "failed to ping mongodb")
	}
	g.mongo = mongoClient

	store, err := logStore.NewMongoEmailLogStore(connectCtx, mongoClient.Database(cfg.Database), cfg.Collection)
	if err != nil {
		return nil, err
	}
	log.GetLogger().Info("Email logs stored in MongoDB", log.String("database", cfg.Database),
		log.String("collection", cfg.Collection))
	return store, nil
}

// Start launches the background workers. They stop when ctx is done or Close is called.
func (g *Gateway) Start(ctx context.Context) {

	sweep := config.ParseDuration(g.cfg.RateLimit.SweepInterval, 5*time.Minute)
	idle := config.ParseDuration(g.cfg.RateLimit.IdleTTL, 2*time.Hour)
	g.notifyQueue.Start(ctx)
	g.Limiter.StartSweeper(sweep, idle)
	g.Escalation.StartSweeper(sweep, idle)
}

// Close stops the workers and releases the database connections.
func (g *Gateway) Close(ctx context.Context) {

	g.Limiter.Stop()
	g.Escalation.Stop()
	g.notifyQueue.Stop()
	if g.mongo != nil {
		if err := g.mongo.Disconnect(ctx); err != nil {
			log.GetLogger().Warn("Failed to disconnect from mongodb", log.Error(err))
		}
	}
	if err := g.DB.Close(); err != nil {
		log.GetLogger().Warn("Failed to close database", log.Error(err))
	}
}
