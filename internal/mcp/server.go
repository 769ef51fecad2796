package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/afero"

	"github.com/kfreiman/interviewcoach/internal/agents"
	"github.com/kfreiman/interviewcoach/internal/analysis"
	"github.com/kfreiman/interviewcoach/internal/coach"
	"github.com/kfreiman/interviewcoach/internal/converter"
	"github.com/kfreiman/interviewcoach/internal/events"
	"github.com/kfreiman/interviewcoach/internal/ingest"
	"github.com/kfreiman/interviewcoach/internal/interview"
	"github.com/kfreiman/interviewcoach/internal/llm"
	"github.com/kfreiman/interviewcoach/internal/prompts"
	"github.com/kfreiman/interviewcoach/internal/redaction"
	"github.com/kfreiman/interviewcoach/internal/safety"
	"github.com/kfreiman/interviewcoach/internal/storage"
	"github.com/kfreiman/interviewcoach/internal/store"
)

// cleanupInterval is how often expired documents and sessions are dropped
const cleanupInterval = time.Hour

// Server encapsulates the MCP server with all its dependencies
type Server struct {
	mcpServer      *mcp.Server
	storageManager *storage.StorageManager
	db             Pinger
	coach          *coach.Coach
	cleanup        *CleanupStorageTool
	logger         *slog.Logger
	config         Config
	closers        []func() error
}

// NewServer wires storage, the database, the model, the safety checker and
// the event publisher into a coach and registers the MCP handlers
func NewServer(ctx context.Context, cfg Config, logger *slog.Logger) (*Server, error) {
	ttl, err := cfg.TTL()
	if err != nil {
		return nil, err
	}

	s := &Server{logger: logger, config: cfg}
	ok := false
	defer func() {
		if !ok {
			s.Close()
		}
	}()

	s.storageManager, err = storage.NewStorageManager(ctx, storage.StorageConfig{
		BasePath:   cfg.StoragePath,
		DefaultTTL: ttl,
		Logger:     logger,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to initialize storage manager", "error", err)
		return nil, fmt.Errorf("storage init: %w", err)
	}

	storeCfg := cfg.Store()
	storeCfg.Logger = logger
	db, err := store.Open(ctx, storeCfg)
	if err != nil {
		logger.ErrorContext(ctx, "failed to open database", "error", err)
		return nil, fmt.Errorf("database init: %w", err)
	}
	s.db = db
	s.closers = append(s.closers, db.Close)

	catalog, err := prompts.LoadCatalog(afero.NewOsFs(), cfg.PromptCatalogPath)
	if err != nil {
		return nil, err
	}

	publisher := events.New(events.Config{URL: cfg.AMQPURL, Exchange: cfg.AMQPExchange, Logger: logger})
	s.closers = append(s.closers, publisher.Close)

	registry := interview.NewRegistry()
	coachCfg := coach.Config{
		Registry:      registry,
		Ranker:        analysis.NewRanker(),
		QuestionStore: db,
		AnswerStore:   db,
		ProfileStore:  db,
		Events:        publisher,
		Logger:        logger,
	}

	gen, moderator, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	coachCfg.Safety = safety.NewChecker(cfg.SafetyMaxChars, moderator).WithLogger(logger)

	if gen != nil {
		agentCfg := agents.Config{
			Generator:   gen,
			Catalog:     catalog,
			Temperature: cfg.LLMTemperature,
			Logger:      logger,
		}
		coachCfg.Questions = agents.NewQuestionAgent(agentCfg)
		coachCfg.Evaluator = agents.NewEvaluatorAgent(agentCfg)
		coachCfg.Judge = agents.NewFallacyAgent(agentCfg)
		coachCfg.Profiler = agents.NewProfilerAgent(agentCfg)
	} else {
		logger.WarnContext(ctx, "GEMINI_API_KEY is not set; interview tools will fail until it is configured")
	}
	s.coach = coach.New(coachCfg)

	extractor := converter.NewExtractor().WithLogger(logger)
	fetcher := converter.NewPageFetcher().WithLogger(logger)
	s.closers = append(s.closers, extractor.Close, fetcher.Close)
	ingestor := ingest.NewIngestorWithConfig(ingest.IngestorConfig{
		Extractor: extractor,
		Store:     s.storageManager,
		Fetcher:   fetcher,
		Redactor:  redaction.NewRedactor(),
		Logger:    logger,
	})

	s.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, &mcp.ServerOptions{
		Instructions: ServerInstructions,
	})
	s.registerHandlers(ingestor, db, catalog, ttl)

	ok = true
	return s, nil
}

// newGenerator builds the Gemini chain. Without an API key it returns nil.
func newGenerator(ctx context.Context, cfg Config, logger *slog.Logger) (llm.Generator, safety.Moderator, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, nil, nil
	}
	primary, err := llm.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, nil, err
	}
	primary.WithLogger(logger)

	var moderator safety.Moderator
	if cfg.ModerationEnabled {
		moderator = primary
	}
	if cfg.GeminiFallbackModel == "" || cfg.GeminiFallbackModel == primary.Model() {
		return primary, moderator, nil
	}

	fallback, err := llm.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiFallbackModel)
	if err != nil {
		return nil, nil, err
	}
	fallback.WithLogger(logger)
	return llm.NewFallback(primary, fallback).WithLogger(logger), moderator, nil
}

// registerHandlers registers all resources, tools, and prompts on the MCP server
func (s *Server) registerHandlers(ingestor ingest.Ingestor, db *store.Store, catalog *prompts.Catalog, ttl time.Duration) {
	registry := s.coach.Registry()

	storageHandler := NewStorageResourceHandler(s.storageManager).WithLogger(s.logger)
	for _, resource := range ResourceDefinitions {
		s.mcpServer.AddResource(resource, storageHandler.ReadStats)
	}
	for _, template := range ResourceTemplateDefinitions {
		s.mcpServer.AddResourceTemplate(template, storageHandler.ReadResource)
	}

	sessionTools := NewSessionTools(s.coach, db).WithLogger(s.logger)
	s.mcpServer.AddTool(ToolDefinitions["create_session"], sessionTools.CreateSession)
	s.mcpServer.AddTool(ToolDefinitions["build_profile"], sessionTools.BuildProfile)
	s.mcpServer.AddTool(ToolDefinitions["start_interview"], sessionTools.StartInterview)
	s.mcpServer.AddTool(ToolDefinitions["submit_answer"], sessionTools.SubmitAnswer)
	s.mcpServer.AddTool(ToolDefinitions["skip_question"], sessionTools.SkipQuestion)
	s.mcpServer.AddTool(ToolDefinitions["reset_interview"], sessionTools.ResetInterview)
	s.mcpServer.AddTool(ToolDefinitions["get_session"], sessionTools.GetSession)

	ingestTool := NewIngestDocumentTool(ingestor, registry, db).WithLogger(s.logger)
	s.mcpServer.AddTool(ToolDefinitions["ingest_document"], ingestTool.Call)

	analyticsTool := NewAnalyticsTool(db, registry).WithLogger(s.logger)
	s.mcpServer.AddTool(ToolDefinitions["get_analytics"], analyticsTool.Call)

	modesTool := NewListPromptModesTool(catalog)
	s.mcpServer.AddTool(ToolDefinitions["list_prompt_modes"], modesTool.Call)

	s.cleanup = NewCleanupStorageTool(s.storageManager, registry, ttl).WithLogger(s.logger)
	s.mcpServer.AddTool(ToolDefinitions["cleanup_storage"], s.cleanup.Call)

	interviewPrompt := NewMockInterviewPrompt(registry, catalog)
	for _, promptDef := range PromptDefinitions {
		s.mcpServer.AddPrompt(promptDef, interviewPrompt.Handle)
	}
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	httpHandler := mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		return s.mcpServer
	}, &mcp.StreamableHTTPOptions{
		JSONResponse: true,
	})

	mux := http.NewServeMux()
	mux.Handle("/mcp", httpHandler)
	mux.HandleFunc("/health/live", s.LivenessHandler)
	mux.HandleFunc("/health/ready", s.ReadinessHandler)
	mux.HandleFunc("/", s.indexHandler)
	return mux
}

// ListenAndServe serves HTTP until ctx is cancelled, then shuts down
// gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cleanup != nil {
		s.cleanup.StartCleanupRoutine(ctx, cleanupInterval)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.InfoContext(ctx, "starting MCP server",
		"port", s.config.Port,
		"endpoints", []string{"/mcp", "/health/live", "/health/ready", "/"},
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.InfoContext(ctx, "shutting down MCP server")
		return srv.Shutdown(shutdownCtx)
	}
}

// Close releases the database, the broker connection and the converters
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// indexHandler returns the server information page
func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "Interview Coach MCP Server\n\n")
	fmt.Fprintf(w, "Endpoints:\n")
	fmt.Fprintf(w, "  POST /mcp          - Streamable HTTP transport\n")
	fmt.Fprintf(w, "  GET  /health/live  - Liveness probe\n")
	fmt.Fprintf(w, "  GET  /health/ready - Readiness probe\n")
	fmt.Fprintf(w, "  GET  /             - This help message\n\n")
	fmt.Fprintf(w, "Server: %s %s\n", serverName, serverVersion)
}
