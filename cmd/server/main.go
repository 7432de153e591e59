package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/p-n-ai/koulutus-bot/internal/ai"
	"github.com/p-n-ai/koulutus-bot/internal/content"
	"github.com/p-n-ai/koulutus-bot/internal/credits"
	"github.com/p-n-ai/koulutus-bot/internal/generation"
	"github.com/p-n-ai/koulutus-bot/internal/platform/cache"
	"github.com/p-n-ai/koulutus-bot/internal/platform/config"
	"github.com/p-n-ai/koulutus-bot/internal/platform/database"
	"github.com/p-n-ai/koulutus-bot/internal/platform/logging"
	"github.com/p-n-ai/koulutus-bot/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(os.Stdout, cfg.Log))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	b, err := newBackends(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect backends", "error", err)
		os.Exit(1)
	}
	defer b.close()

	handler, err := newHandler(cfg, b)
	if err != nil {
		slog.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Generation streams stay open for up to the generation timeout.
		WriteTimeout: cfg.Generation.TimeoutDuration() + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// newRouter registers every configured provider. Registration order is
// the fallback order.
func newRouter(cfg *config.Config) (*ai.Router, error) {
	router := ai.NewRouter(cfg.AI.DefaultModel)

	if key := cfg.AI.Anthropic.APIKey; key != "" {
		p, err := ai.NewAnthropicProvider(key)
		if err != nil {
			return nil, fmt.Errorf("anthropic provider: %w", err)
		}
		router.Register("anthropic", p)
	}
	if key := cfg.AI.OpenAI.APIKey; key != "" {
		router.Register("openai", ai.NewOpenAIProvider(key))
	}
	if key := cfg.AI.Groq.APIKey; key != "" {
		router.Register("groq", ai.NewGroqProvider(key))
	}
	if key := cfg.AI.OpenRouter.APIKey; key != "" {
		router.Register("openrouter", ai.NewOpenRouterProvider(key))
	}
	if cfg.AI.Ollama.Enabled {
		router.Register("ollama", ai.NewOllamaProvider(cfg.AI.Ollama.URL))
	}

	if !router.HasProvider() {
		return nil, ai.ErrNoProvider
	}
	slog.Info("AI providers registered", "providers", router.Providers(), "default_model", cfg.AI.DefaultModel)
	return router, nil
}

// backends holds the storage side of the app: PostgreSQL when a database
// URL is set, memory otherwise, with an optional Redis read cache.
type backends struct {
	repo    content.Repository
	ledger  credits.Ledger
	audit   generation.AuditLogger
	checks  map[string]server.HealthChecker
	closers []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func newBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	b := &backends{checks: map[string]server.HealthChecker{}}

	if cfg.Database.URL == "" {
		slog.Warn("no database configured, content and credits are kept in memory")
		ledger := credits.NewMemoryLedger(cfg.Generation.StartingCredits)
		b.ledger = ledger
		b.repo = content.NewLocalRepository(content.NewMemoryStore(), ledger)
		b.audit = generation.NopAuditLogger{}
	} else {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		b.checks["database"] = db

		if cfg.Database.AutoMigrate {
			if err := db.Migrate(ctx); err != nil {
				b.close()
				return nil, err
			}
		}

		ledger, err := credits.NewPostgresLedger(db.Pool, cfg.Generation.StartingCredits)
		if err != nil {
			b.close()
			return nil, err
		}
		repo, err := content.NewPostgresRepository(db.Pool, ledger)
		if err != nil {
			b.close()
			return nil, err
		}
		b.ledger = ledger
		b.repo = repo
		b.audit = generation.NewPostgresAuditLogger(db.Pool)
	}

	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			b.close()
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = c.Close() })
		b.checks["cache"] = c
		b.repo = content.NewCachedStore(b.repo, c, cfg.Cache.ContentTTLDuration())
	}

	return b, nil
}

func newHandler(cfg *config.Config, b *backends) (http.Handler, error) {
	router, err := newRouter(cfg)
	if err != nil {
		return nil, err
	}
	gen, err := generation.NewService(generation.Config{
		AI:           router,
		Repository:   b.repo,
		Ledger:       b.ledger,
		Audit:        b.audit,
		DefaultModel: cfg.AI.DefaultModel,
		Temperature:  cfg.AI.Temperature,
		MaxTokens:    cfg.Generation.MaxTokens,
		Timeout:      cfg.Generation.TimeoutDuration(),
	})
	if err != nil {
		return nil, err
	}
	srv, err := server.New(server.Config{
		Generator:  gen,
		Repository: b.repo,
		Ledger:     b.ledger,
		Checks:     b.checks,
	})
	if err != nil {
		return nil, err
	}
	return srv.Handler(), nil
}
