package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"quizforge/internal/adapter/queue"
	"quizforge/internal/adapter/quizgen"
	"quizforge/internal/cache"
	"quizforge/internal/config"
	"quizforge/internal/database"
	"quizforge/internal/logger"
	"quizforge/internal/repository"
	"quizforge/internal/service"

	openaiLLM "github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	db, err := database.NewSQLXPostgresDB(cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	llm, err := openaiLLM.New(
		openaiLLM.WithToken(cfg.LLM.APIKey),
		openaiLLM.WithModel(cfg.LLM.Model),
	)
	if err != nil {
		appLogger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	generator, err := quizgen.NewOpenAIQuestionGenerator(llm, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create question generator", zap.Error(err))
	}

	quizRepository := repository.NewQuizDatabaseAdapter(db)
	tracker := service.NewCompletionTracker(quizRepository)
	finalizer := service.NewFinalizer(quizRepository, appLogger)
	worker := service.NewWorker(quizRepository, generator, tracker, finalizer, appLogger)

	consumer := queue.NewConsumer(redisClient, cfg.Queue, worker.Consume, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Worker starting",
		zap.String("stream", cfg.Queue.Stream),
		zap.String("group", cfg.Queue.Group),
		zap.String("consumer", cfg.Queue.Consumer),
	)

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Fatal("Consumer stopped with error", zap.Error(err))
	}
	appLogger.Info("Worker exited gracefully")
}
