package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kipesa/kipesa-api/internal/auth"
	"github.com/kipesa/kipesa-api/internal/cache"
	"github.com/kipesa/kipesa-api/internal/chatbot"
	"github.com/kipesa/kipesa-api/internal/config"
	"github.com/kipesa/kipesa-api/internal/db"
	"github.com/kipesa/kipesa-api/internal/embeddings"
	"github.com/kipesa/kipesa-api/internal/finance"
	"github.com/kipesa/kipesa-api/internal/knowledge"
	"github.com/kipesa/kipesa-api/internal/llm"
	"github.com/kipesa/kipesa-api/internal/ratelimit"
	"github.com/kipesa/kipesa-api/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the kipesa API server",
	Long:  `Starts the kipesa backend with the chatbot, auth and finance APIs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if serverPort != 0 {
			cfg.Port = serverPort
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		apiKey := os.Getenv(config.APIKeyEnvVar(cfg.Provider))
		if apiKey == "" {
			return fmt.Errorf("%s is not set", config.APIKeyEnvVar(cfg.Provider))
		}

		dbPath := filepath.Join(cfg.DataDir, "kipesa.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		provider := llm.Throttle(llm.NewOpenAIProvider(apiKey, cfg.Model), cfg.LLMRateLimitRPM)

		knowledgeStore := knowledge.NewStore(database)

		var semantic *knowledge.SemanticIndex
		if cfg.SemanticSearch {
			embedder := embeddings.NewOpenAIEmbedder(apiKey, cfg.EmbeddingModel)
			semantic, err = knowledge.NewSemanticIndex(embedder)
			if err != nil {
				return fmt.Errorf("creating semantic index: %w", err)
			}
			if err := indexKnowledge(cmd.Context(), knowledgeStore, semantic); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: semantic indexing failed: %v\n", err)
				semantic = nil
			}
		}

		users := auth.NewStore(database)
		tokens := auth.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.TokenExpiryMinutes)*time.Minute)

		chatService := chatbot.NewService(
			chatbot.NewStore(database),
			knowledgeStore,
			cache.NewMemory(),
			provider,
			users,
			semantic,
			chatbot.Options{
				Model:             cfg.Model,
				MaxTokens:         cfg.MaxTokens,
				Temperature:       cfg.Temperature,
				PresencePenalty:   cfg.PresencePenalty,
				FrequencyPenalty:  cfg.FrequencyPenalty,
				CompletionTimeout: time.Duration(cfg.LLMTimeoutSeconds) * time.Second,
				MaxHistory:        cfg.MaxHistory,
				ConversationTTL:   time.Duration(cfg.ConversationTTLSeconds) * time.Second,
				KnowledgeTTL:      time.Duration(cfg.KnowledgeTTLSeconds) * time.Second,
				ProfileTTL:        time.Duration(cfg.ProfileTTLSeconds) * time.Second,
			},
		)

		srv := server.New(server.Config{
			Port:           cfg.Port,
			AllowedOrigins: cfg.AllowedOrigins,
			AuthMiddleware: tokens.Middleware,
		}, database)

		r := srv.Router()
		authLimiter := ratelimit.New(cfg.AuthRateLimitPerMin)
		auth.RegisterRoutes(r, users, tokens, authLimiter.Middleware)
		finance.RegisterRoutes(r, finance.NewStore(database))
		chatbot.RegisterRoutes(r, chatService, func(req *http.Request) string {
			return auth.UserID(req.Context())
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "kipesa server v%s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  Model: %s\n", cfg.Model)
		if semantic != nil {
			fmt.Fprintf(os.Stderr, "  Semantic search: %d items indexed\n", semantic.Count())
		}

		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

// indexKnowledge loads all active items into the semantic index at boot.
func indexKnowledge(ctx context.Context, store *knowledge.Store, idx *knowledge.SemanticIndex) error {
	for _, language := range []string{"en", "sw"} {
		items, err := store.ListActive(ctx, language)
		if err != nil {
			return fmt.Errorf("listing %s items: %w", language, err)
		}
		if err := idx.Index(ctx, items); err != nil {
			return fmt.Errorf("indexing %s items: %w", language, err)
		}
	}
	return nil
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 0, "override the configured port")
	rootCmd.AddCommand(serverCmd)
}
