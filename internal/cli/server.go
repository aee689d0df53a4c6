package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/config"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
	pginfra "live-quiz-service/internal/infra/postgres"
	redisinfra "live-quiz-service/internal/infra/redis"
	transport "live-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the live quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pginfra.NewQuizLoader(pool)
	}

	quizTTL := config.Duration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo transport.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var sink app.ResultSink = memory.NewResultSink()
	if pool != nil {
		sink = pginfra.NewResultSink(pool)
	}

	questionTime := config.Duration(cfg.Session.QuestionTime, 10*time.Second)
	gracePeriod := config.Duration(cfg.Session.GracePeriod, 3*time.Second)

	hub := transport.NewHub(logger)
	rooms := app.NewRoomRegistry(hub, sink, questionTime, gracePeriod, logger)
	conns := app.NewConnRegistry()
	wsHandler := transport.NewWSHandler(hub, rooms, conns, quizRepo, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info().Str("port", finalPort).Msg("starting live quiz service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info().Msg("shutting down server")
	case <-ctx.Done():
		logger.Info().Msg("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || cfg.Log.Level == "" {
		level = zerolog.InfoLevel
	}
	var out = zerolog.New(os.Stderr)
	if cfg.Log.Pretty {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return out.Level(level).With().Timestamp().Logger()
}

// sampleQuizzes seeds the in-memory loader when no Postgres is configured,
// so a bare `start` is immediately playable.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Warmup",
			Questions: []domain.Question{
				{
					Prompt:        "What is 2 + 2?",
					Options:       []string{"3", "4", "5", "6"},
					CorrectAnswer: "4",
					Explanation:   "Basic arithmetic.",
				},
				{
					Prompt:        "Capital of France?",
					Options:       []string{"Lyon", "Nice", "Paris", "Lille"},
					CorrectAnswer: "Paris",
					Explanation:   "Paris has been the capital since 508.",
				},
			},
		},
	}
}
