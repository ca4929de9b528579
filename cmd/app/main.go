package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskflow-api/internal/app"
	"github.com/BuzzLyutic/taskflow-api/internal/config"
	"github.com/BuzzLyutic/taskflow-api/internal/logger"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Подключаем логгер
	lg, err := logger.New(cfg.App, cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()

	// Подключаем БД
	application, err := app.New(context.Background(), cfg, lg)
	if err != nil {
		lg.Fatal("Failed to initialize application", zap.Error(err)) // Fatal потому что дальнейшая работа теряет смысл
	}

	srv := &http.Server{ // Создаем сервер
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      application.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() { // Запуск сервера и обработка ошибок
		lg.Info("Server started", zap.String("addr", srv.Addr), zap.String("frontend", cfg.HTTP.FrontendURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown: сначала HTTP, потом соединения с хранилищем
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.HTTP.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				lg.Info("Shutting down server...")
				if err := srv.Shutdown(ctx); err != nil {
					return err
				}
				return application.Close(ctx)
			},
		},
	)

	exitCode := <-wait
	lg.Info("Server stopped", zap.Int("exit_code", exitCode))
	_ = lg.Sync()
	os.Exit(exitCode)
}
