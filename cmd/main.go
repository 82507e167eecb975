package main

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schradermade/hvac-ai-sub002/internal/authgw"
	"github.com/schradermade/hvac-ai-sub002/internal/embedding"
	"github.com/schradermade/hvac-ai-sub002/internal/evidence"
	"github.com/schradermade/hvac-ai-sub002/internal/handler"
	"github.com/schradermade/hvac-ai-sub002/internal/llm"
	mid "github.com/schradermade/hvac-ai-sub002/internal/middleware"
	"github.com/schradermade/hvac-ai-sub002/internal/model"
	"github.com/schradermade/hvac-ai-sub002/internal/orchestrator"
	"github.com/schradermade/hvac-ai-sub002/internal/searchindex"
	"github.com/schradermade/hvac-ai-sub002/internal/tasks"
	"github.com/schradermade/hvac-ai-sub002/internal/vectorstore"
	"github.com/schradermade/hvac-ai-sub002/pkg/config"
	"github.com/schradermade/hvac-ai-sub002/pkg/database"
	"github.com/schradermade/hvac-ai-sub002/pkg/logger"
	"github.com/schradermade/hvac-ai-sub002/prometheus"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logConfig := &logger.LogConfig{
		Level:       appConfig.Log.Level,
		Environment: appConfig.Server.Env,
		ServiceName: "hvac-ai",
	}
	if err := logger.InitLogger(logConfig); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting hvac-ai",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	db, err := database.Connect(&appConfig.Database)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(db, model.All()...); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connection established")

	// Background task runner for post-ingest reindexing
	runner := tasks.NewGoRunner(log, 0)

	// Search index maintainer and evidence assembler
	search := searchindex.NewMaintainer(db)
	assembler := evidence.NewAssembler(db)

	// Vector retrieval stack, enabled only when a Qdrant URL is configured
	var retriever *vectorstore.Retriever
	var reindexer *vectorstore.Reindexer
	if appConfig.VectorEnabled() {
		embedder, err := embedding.NewClient(embedding.Config{
			BaseURL: appConfig.AI.BaseURL,
			APIKey:  appConfig.AI.APIKey,
			Model:   appConfig.AI.EmbeddingModel,
			Timeout: appConfig.AI.Timeout,
		})
		if err != nil {
			log.Fatal("Failed to initialize embeddings client", zap.Error(err))
		}
		index := vectorstore.NewQdrant(vectorstore.QdrantConfig{
			URL:        appConfig.Vector.URL,
			APIKey:     appConfig.Vector.APIKey,
			Collection: appConfig.Vector.Collection,
			Timeout:    appConfig.Vector.Timeout,
		})
		retriever = vectorstore.NewRetriever(embedder, index,
			appConfig.Vector.TopK, appConfig.Vector.FallbackTopK, log)
		reindexer = vectorstore.NewReindexer(db, embedder, index)
		log.Info("Vector retrieval enabled",
			zap.String("collection", appConfig.Vector.Collection),
			zap.Int("top_k", appConfig.Vector.TopK))
	} else {
		log.Info("Vector retrieval disabled, no vector store URL configured")
	}

	// Chat model orchestrator, enabled only when provider credentials exist
	var orch *orchestrator.Orchestrator
	if appConfig.AI.APIKey != "" {
		chatClient, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			BaseURL: appConfig.AI.BaseURL,
			APIKey:  appConfig.AI.APIKey,
			Timeout: appConfig.AI.Timeout,
		})
		if err != nil {
			log.Fatal("Failed to initialize chat model client", zap.Error(err))
		}
		orch = orchestrator.New(chatClient, orchestrator.Config{
			Model:       appConfig.AI.ChatModel,
			Temperature: appConfig.AI.Temperature,
			TopP:        appConfig.AI.TopP,
			MaxTokens:   appConfig.AI.MaxTokens,
		})
		log.Info("Chat orchestrator enabled", zap.String("model", appConfig.AI.ChatModel))
	} else {
		log.Warn("Chat orchestrator disabled, no model API key configured")
	}

	// Handlers
	ingestHandler := handler.NewIngestHandler(db, search, runner, reindexer)
	directoryHandler := handler.NewDirectoryHandler(db)
	aiHandler := handler.NewAIHandler(assembler, retriever, orch, 0)
	reindexHandler := handler.NewReindexHandler(search, reindexer)
	searchHandler := handler.NewSearchHandler(search)

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomw.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.Middleware())

	// Metrics and health endpoints
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", handler.HealthCheck)

	// Tenant-scoped routes require the x-tenant-id header; bearer-token
	// verification is layered on top only when a JWKS source is configured
	tenantMW := []echo.MiddlewareFunc{mid.TenantMiddleware}
	if appConfig.AuthEnabled() {
		gateway := authgw.New(authgw.Config{
			JWKSURL:   appConfig.Auth.JWKSURL,
			Issuer:    appConfig.Auth.Issuer,
			Audience:  appConfig.Auth.Audience,
			LocalJWKS: appConfig.Auth.LocalJWKS,
		}, authgw.NewKeySetCache(), authgw.NewGormIdentityStore(db))
		tenantMW = append(tenantMW, mid.BearerAuthMiddleware(gateway))
		log.Info("Bearer token verification enabled", zap.String("issuer", appConfig.Auth.Issuer))
	} else {
		log.Warn("Bearer token verification disabled, no JWKS source configured")
	}

	// AI routes
	aiAPI := e.Group("/jobs/:jobId/ai", tenantMW...)
	aiAPI.GET("/context", aiHandler.JobContext)
	aiAPI.POST("/session", aiHandler.CreateSession)
	aiAPI.POST("/chat", aiHandler.Chat)

	// Ingestion routes
	ingestAPI := e.Group("/ingest", tenantMW...)
	ingestAPI.POST("/clients", ingestHandler.CreateClient)
	ingestAPI.POST("/properties", ingestHandler.CreateProperty)
	ingestAPI.POST("/jobs", ingestHandler.CreateJob)
	ingestAPI.POST("/equipment", ingestHandler.CreateEquipment)
	ingestAPI.POST("/job-events", ingestHandler.CreateJobEvent)
	ingestAPI.POST("/notes", ingestHandler.CreateNote)

	// Directory routes
	dirAPI := e.Group("", tenantMW...)
	dirAPI.GET("/clients", directoryHandler.ListClients)
	dirAPI.GET("/clients/:id", directoryHandler.GetClient)
	dirAPI.GET("/technicians", directoryHandler.ListTechnicians)
	dirAPI.GET("/technicians/:id", directoryHandler.GetTechnician)
	dirAPI.POST("/technicians", directoryHandler.CreateTechnician)

	// Lexical search
	dirAPI.GET("/search/jobs", searchHandler.SearchJobs)

	// Admin reindex routes are protected by the admin API key, not bearer auth
	adminAPI := e.Group("", mid.AdminKeyMiddleware(appConfig.Admin.APIKey), mid.TenantMiddleware)
	adminAPI.POST("/vectorize/reindex/job/:jobId", reindexHandler.VectorizeJob)
	adminAPI.POST("/search/reindex/client/:id", reindexHandler.SearchReindexClient)
	adminAPI.POST("/search/reindex/property/:id", reindexHandler.SearchReindexProperty)
	adminAPI.POST("/search/reindex/tenant", reindexHandler.SearchReindexTenant)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
