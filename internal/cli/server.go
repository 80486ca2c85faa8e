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
	"github.com/spf13/cobra"
	"learning-quiz-service/internal/app"
	"learning-quiz-service/internal/config"
	"learning-quiz-service/internal/domain"
	"learning-quiz-service/internal/infra/memory"
	pgstore "learning-quiz-service/internal/infra/postgres"
	redisstore "learning-quiz-service/internal/infra/redis"
	"learning-quiz-service/internal/logger"
	transport "learning-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	service, cleanup, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	handler := transport.NewMux(
		transport.NewWSHandler(service, log.With("component", "ws")),
		transport.NewResultHandler(service),
	)
	// no WriteTimeout: quiz sockets stay open for the whole time limit
	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildService picks storage adapters from config: Postgres for the catalog
// and submissions when configured, Redis for caching and session markers,
// in-memory otherwise.
func buildService(ctx context.Context, cfg config.Config, log *logger.Logger) (*app.QuizService, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = redisClient.Close() })
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if cfg.Quiz.Catalog != "" {
		catalog, err := memory.LoadCatalogFile(cfg.Quiz.Catalog)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		loader = catalog
	}

	var submissions app.SubmissionRepository = memory.NewSubmissionStore()
	if redisClient != nil {
		submissions = redisstore.NewSubmissionStore(redisClient, redisTTL)
	}

	if cfg.Postgres.URL != "" {
		db := openBunDB(cfg.Postgres.URL)
		closers = append(closers, func() { _ = db.Close() })
		if err := migrateDB(ctx, db, log); err != nil {
			cleanup()
			return nil, nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, pool.Close)
		loader = pgstore.NewQuizLoader(pool)
		submissions = pgstore.NewSubmissionStore(db)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	var store app.SessionRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
		store = redisstore.NewSessionStore(redisClient, redisTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
		store = memory.NewSessionStore()
	}

	service := app.NewQuizService(store, quizRepo, submissions,
		app.WithScoring(app.ScoringOptions{ExcludeUngraded: cfg.Scoring.ExcludeUngraded}),
		app.WithLogger(log.With("component", "quiz")),
	)
	return service, cleanup, nil
}

// sampleQuizzes is the built-in catalog used when no catalog file or database is configured.
func sampleQuizzes() map[string]domain.Quiz {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:          "quiz-1",
			Title:       "React fundamentals",
			Description: "Check your understanding of core React concepts",
			CourseID:    "1",
			Questions: []domain.Question{
				{
					ID:            "q1",
					Type:          domain.SingleChoice,
					Prompt:        "Which React function creates elements?",
					Options:       []string{"React.Component", "React.createElement", "React.createClass", "React.render"},
					CorrectAnswer: domain.Single("React.createElement"),
					Explanation:   "React.createElement is the core element factory.",
					Points:        10,
					Order:         1,
				},
				{
					ID:            "q2",
					Type:          domain.MultipleChoice,
					Prompt:        "Which of these are core React concepts?",
					Options:       []string{"components", "state", "props", "lifecycle", "directives"},
					CorrectAnswer: domain.Multi("components", "state", "props", "lifecycle"),
					Explanation:   "Directives belong to Angular, not React.",
					Points:        15,
					Order:         2,
				},
				{
					ID:            "q3",
					Type:          domain.TrueFalse,
					Prompt:        "JSX is a syntax extension of JavaScript.",
					CorrectAnswer: domain.Single("true"),
					Explanation:   "JSX lets you write HTML-like markup inside JavaScript.",
					Points:        5,
					Order:         3,
				},
			},
			TimeLimit:    30,
			PassingScore: 70,
			MaxAttempts:  3,
			CreatedAt:    created,
		},
		"quiz-2": {
			ID:          "quiz-2",
			Title:       "JavaScript basics",
			Description: "Syntax and core language concepts",
			CourseID:    "2",
			Questions: []domain.Question{
				{
					ID:            "q1",
					Type:          domain.SingleChoice,
					Prompt:        "Which keyword declares a variable?",
					Options:       []string{"var", "let", "const", "all of the above"},
					CorrectAnswer: domain.Single("all of the above"),
					Points:        10,
					Order:         1,
				},
				{
					ID:            "q2",
					Type:          domain.MultipleChoice,
					Prompt:        "Which are primitive types?",
					Options:       []string{"string", "number", "boolean", "object", "undefined", "null"},
					CorrectAnswer: domain.Multi("string", "number", "boolean", "undefined", "null"),
					Explanation:   "object is a reference type.",
					Points:        15,
					Order:         2,
				},
				{
					ID:            "q3",
					Type:          domain.TrueFalse,
					Prompt:        "JavaScript is statically typed.",
					CorrectAnswer: domain.Single("false"),
					Points:        5,
					Order:         3,
				},
			},
			TimeLimit:    20,
			PassingScore: 60,
			MaxAttempts:  3,
			CreatedAt:    created,
		},
	}
}
