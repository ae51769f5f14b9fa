package gateway

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/drivelens/drivelens/pkg/analytics"
	apiv1 "github.com/drivelens/drivelens/pkg/api/v1"
	"github.com/drivelens/drivelens/pkg/auth"
	"github.com/drivelens/drivelens/pkg/common"
	"github.com/drivelens/drivelens/pkg/drive"
	"github.com/drivelens/drivelens/pkg/limiter"
	"github.com/drivelens/drivelens/pkg/llm"
	"github.com/drivelens/drivelens/pkg/oauth"
	"github.com/drivelens/drivelens/pkg/query"
	"github.com/drivelens/drivelens/pkg/repository"
	"github.com/drivelens/drivelens/pkg/sync"
	"github.com/drivelens/drivelens/pkg/types"
)

const shutdownTimeout = 10 * time.Second

type Gateway struct {
	Config      types.AppConfig
	BackendRepo *repository.PostgresBackend
	httpServer  *http.Server
	echo        *echo.Echo
	ctx         context.Context
	cancelFunc  context.CancelFunc

	baseRouteGroup *echo.Group
	rootRouteGroup *echo.Group

	credentialRepo repository.CredentialRepository
	fileRepo       repository.FileRepository

	googleOAuth *oauth.GoogleClient
	stateStore  *oauth.StateStore
	tokenIssuer *auth.TokenIssuer
	driveClient *drive.Client
	syncEngine  *sync.Engine
	chatClient  llm.ChatClient
}

func NewGateway() (*Gateway, error) {
	configManager, err := common.NewConfigManager[types.AppConfig]()
	if err != nil {
		return nil, err
	}
	config := configManager.GetConfig()

	// Setup logging
	if config.PrettyLogs {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	backendRepo, err := repository.NewPostgresBackend(config.Database.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := backendRepo.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run postgres migrations: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	driveClient := drive.NewClient()
	googleOAuth := oauth.NewGoogleClient(config.OAuth.Google)

	gateway := &Gateway{
		Config:         config,
		BackendRepo:    backendRepo,
		ctx:            ctx,
		cancelFunc:     cancel,
		credentialRepo: backendRepo,
		fileRepo:       backendRepo,
		googleOAuth:    googleOAuth,
		stateStore:     oauth.NewStateStore(0), // Default TTL
		tokenIssuer:    auth.NewTokenIssuer(config.Gateway.JWTSecret, config.Gateway.SessionTTL),
		driveClient:    driveClient,
		syncEngine:     sync.NewEngine(backendRepo, backendRepo, driveClient, googleOAuth, config.Sync),
	}

	if chatClient := llm.NewOpenAIClient(config.OpenAI); chatClient != nil {
		gateway.chatClient = chatClient
	} else {
		log.Warn().Msg("openai api key not configured - query and insights disabled")
	}

	return gateway, nil
}

func (g *Gateway) initHTTP() error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.RemoveTrailingSlash())

	// Configure logging middleware
	if g.Config.Gateway.HTTP.EnablePrettyLogs {
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Format: "${time_rfc3339} ${method} ${uri} ${status} ${latency_human}\n",
		}))
	}

	// CORS
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     g.Config.Gateway.HTTP.CORS.AllowedOrigins,
		AllowHeaders:     g.Config.Gateway.HTTP.CORS.AllowedHeaders,
		AllowMethods:     g.Config.Gateway.HTTP.CORS.AllowedMethods,
		AllowCredentials: true,
	}))

	e.Use(middleware.Recover())
	e.Use(auth.HTTPMiddleware(g.tokenIssuer))

	g.echo = e
	g.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", g.Config.Gateway.HTTP.Host, g.Config.Gateway.HTTP.Port),
		Handler: e,
	}

	g.baseRouteGroup = e.Group(apiv1.HttpServerBaseRoute)
	g.rootRouteGroup = e.Group(apiv1.HttpServerRootRoute)

	return nil
}

func (g *Gateway) registerServices() error {
	apiv1.NewHealthGroup(g.baseRouteGroup.Group("/health"), g.BackendRepo)

	apiv1.NewAuthGroup(
		g.baseRouteGroup.Group("/auth"),
		g.googleOAuth,
		g.stateStore,
		g.tokenIssuer,
		g.credentialRepo,
		g.Config.Gateway.ClientOrigin,
	)

	apiv1.NewSyncGroup(g.baseRouteGroup.Group("/sync"), g.syncEngine, g.fileRepo)
	apiv1.NewFileGroup(g.baseRouteGroup.Group("/files"), g.fileRepo, g.driveClient, g.syncEngine)

	analyticsService := analytics.NewService(g.fileRepo)
	providerConfigured := g.chatClient != nil

	apiv1.NewQueryGroup(
		g.baseRouteGroup.Group("/query"),
		query.NewClassifier(g.chatClient),
		query.NewExecutor(g.fileRepo),
		query.NewAnswerer(g.chatClient),
		limiter.New(g.Config.Query.RateLimit, g.Config.Query.RateWindow),
		providerConfigured,
	)

	apiv1.NewAnalyticsGroup(
		g.baseRouteGroup.Group("/analytics"),
		analyticsService,
		analytics.NewInsightsGenerator(g.chatClient),
		analytics.NewInsightsCache(g.Config.Analytics.InsightsCacheTTL, g.Config.Analytics.InsightsCacheMaxEntries),
		limiter.New(g.Config.Analytics.InsightsRateLimit, g.Config.Analytics.InsightsRateWindow),
		providerConfigured,
	)

	log.Info().Msg("api services registered")
	return nil
}

func (g *Gateway) StartAsync() error {
	if err := g.initHTTP(); err != nil {
		return fmt.Errorf("failed to initialize http server: %w", err)
	}

	if err := g.registerServices(); err != nil {
		return fmt.Errorf("failed to register services: %w", err)
	}

	// Start HTTP server
	go func() {
		addr := fmt.Sprintf("%s:%d", g.Config.Gateway.HTTP.Host, g.Config.Gateway.HTTP.Port)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			log.Error().Err(err).Msg("failed to listen on http")
			return
		}

		if err := g.httpServer.Serve(lis); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server error")
		}
	}()

	log.Info().
		Str("host", g.Config.Gateway.HTTP.Host).
		Int("port", g.Config.Gateway.HTTP.Port).
		Msg("gateway http server running")

	return nil
}

// Start runs the gateway until an interrupt or termination signal arrives
func (g *Gateway) Start() error {
	if err := g.StartAsync(); err != nil {
		return err
	}

	terminationSignal := make(chan os.Signal, 1)
	signal.Notify(terminationSignal, os.Interrupt, syscall.SIGTERM)
	<-terminationSignal

	log.Info().Msg("termination signal received. shutting down...")
	g.shutdown()

	return nil
}

// Shutdown gracefully shuts down the gateway (exported for external use)
func (g *Gateway) Shutdown() {
	g.shutdown()
}

func (g *Gateway) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if g.httpServer != nil {
		if err := g.httpServer.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("http server shutdown error")
		}
	}

	g.stateStore.Stop()

	if g.BackendRepo != nil {
		if err := g.BackendRepo.Close(); err != nil {
			log.Error().Err(err).Msg("postgres close error")
		}
	}

	g.cancelFunc()
}
