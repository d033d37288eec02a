package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard/internal/auth"
	"github.com/BuzzLyutic/taskboard/internal/config"
	"github.com/BuzzLyutic/taskboard/internal/handler"
	"github.com/BuzzLyutic/taskboard/internal/repo"
	"github.com/BuzzLyutic/taskboard/internal/service"
	"github.com/BuzzLyutic/taskboard/internal/worker"
)

func main() {
	// Подключаем логгер
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	// Подключаем хранилище
	store, err := openStore(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to open store", zap.String("store", cfg.Store), zap.Error(err))
	}
	logger.Info("Store is ready", zap.String("store", cfg.Store))

	// Пул воркеров для bcrypt
	ctx, cancelWorkers := context.WithCancel(context.Background())
	hasher := worker.NewPool(logger, cfg.HashWorkers, cfg.BcryptCost)
	hasher.Start(ctx)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	router := handler.NewRouter(handler.RouterDeps{
		Users:      handler.NewUserHandler(service.NewUserService(store.Users(), hasher, tokens), logger),
		Tasks:      handler.NewTaskHandler(service.NewTaskService(store.Tasks()), logger),
		Tokens:     tokens,
		Logger:     logger,
		RequestLog: true,
	})

	srv := http.Server{ // Создаем сервер
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() { // Запуск сервера и обработка ошибок
		logger.Info("Server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}

	// Сначала дожидаемся запросов, потом останавливаем воркеры
	hasher.Stop()
	cancelWorkers()

	if err := store.Close(shutdownCtx); err != nil {
		logger.Error("Failed to close store", zap.Error(err))
	}
	logger.Info("Server stopped successfully!")
}

func openStore(ctx context.Context, cfg config.Config) (repo.Store, error) {
	switch cfg.Store {
	case config.StoreMongo:
		return repo.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	case config.StoreMemory:
		return repo.NewMemoryStore(), nil
	default:
		return repo.NewPostgresStore(ctx, cfg.DatabaseURL)
	}
}
