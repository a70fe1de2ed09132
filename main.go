package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docuchat/internal/api"
	"docuchat/internal/config"
	"docuchat/internal/extract"
	"docuchat/internal/service/chat"
	"docuchat/internal/service/lifecycle"
	"docuchat/internal/service/postprocess"
	"docuchat/internal/storage"
)

var configPath = flag.String("config", "", "Path to config file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}
	defer logger.Sync()

	db, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer db.Close()
	if err := storage.Migrate(db); err != nil {
		logger.Fatal("migrate database", zap.Error(err))
	}

	ctx := context.Background()
	chatService, err := chat.NewService(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init chat service", zap.Error(err))
	}

	// The chat service doubles as the audio transcriber.
	extractor := extract.NewDispatcher(chatService, logger)
	post := postprocess.NewService(cfg, logger)
	opener := lifecycle.OpenerFunc(func(ctx context.Context, seedText string) (lifecycle.Conversation, error) {
		return chatService.Open(ctx, seedText)
	})
	manager := lifecycle.NewManager(db, opener, post, logger)

	router := gin.Default()
	api.NewHandler(extractor, manager, logger).RegisterRoutes(router)

	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("address", cfg.Address()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}
