package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prepwise/config"
	"prepwise/db"
	"prepwise/handlers"
	"prepwise/logging"
	"prepwise/services"
	"prepwise/services/agent"
	"prepwise/services/mem0"
	"prepwise/services/pinecone"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Debug)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("[ERROR] Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newMemoryStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msgf("[ERROR] Failed to initialize %s memory backend", cfg.MemoryBackend)
	}
	defer closeStore()

	memoryService := services.NewMemoryService(store)

	tools := []agent.AgentTool{
		agent.NewSearchMemoryTool(memoryService),
		agent.NewGetCurrentTimeTool(),
	}
	if cfg.WebToolsEnabled {
		tools = append([]agent.AgentTool{agent.NewFetchURLTool()}, tools...)
	}
	toolbox := agent.NewToolbox(tools...)

	gateway, err := newModelGateway(cfg, toolbox)
	if err != nil {
		log.Fatal().Err(err).Msgf("[ERROR] Failed to initialize %s model gateway", cfg.ModelProvider)
	}

	profileService := services.NewProfileService(memoryService)
	examService := services.NewExamService(memoryService, gateway, toolbox.Names(), cfg.WebToolsEnabled)
	planService := services.NewPlanService(memoryService, gateway)
	quizService := services.NewQuizService(memoryService, gateway)

	router := handlers.NewRouter(
		handlers.NewAgentHandler(profileService, examService, planService),
		handlers.NewQuizHandler(quizService),
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		log.Info().Msgf("[INFO] Server starting on port %s (model=%s, memory=%s)", cfg.Port, cfg.ModelProvider, cfg.MemoryBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("[ERROR] Server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("[INFO] Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("[ERROR] Graceful shutdown failed")
	}
}

func newMemoryStore(ctx context.Context, cfg *config.Config) (services.MemoryStore, func(), error) {
	switch cfg.MemoryBackend {
	case config.BackendPinecone:
		store, err := pinecone.NewService(ctx, cfg.PineconeAPIKey, cfg.OpenAIAPIKey, cfg.PineconeIndexName)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case config.BackendMem0:
		return mem0.NewClient(cfg.Mem0APIKey, cfg.Mem0BaseURL), func() {}, nil
	default:
		repo, err := db.NewPostgresMemoryRepository(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.Migrate(); err != nil {
			repo.Close()
			return nil, nil, err
		}
		return repo, func() { repo.Close() }, nil
	}
}

func newModelGateway(cfg *config.Config, toolbox *agent.Toolbox) (services.ModelGateway, error) {
	if cfg.ModelProvider == config.ProviderAnthropic {
		return agent.NewAnthropicService(cfg.AnthropicAPIKey, cfg.AnthropicModel, toolbox), nil
	}
	service, err := agent.NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel, toolbox)
	if err != nil {
		return nil, err
	}
	return service, nil
}
