package main

import (
	"flag"
	"log"
	"log/slog"
	"net/http"
	"time"

	"irisplate/internal/app"
	"irisplate/internal/config"
	"irisplate/internal/server"
	"irisplate/internal/util"
	"irisplate/pkg/cache"
	"irisplate/pkg/docai"
	"irisplate/pkg/events"
	"irisplate/pkg/storage"
)

func main() {
	configPath := flag.String("config", config.ConfigPath, "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	processor, err := docai.NewClient(docai.Config{
		ProjectID:   cfg.DocAIProjectID,
		Location:    cfg.DocAILocation,
		ProcessorID: cfg.DocAIProcessorID,
		AccessToken: cfg.DocAIAccessToken,
		Endpoint:    cfg.DocAIEndpoint,
	})
	if err != nil {
		log.Fatalf("failed to init document processor: %v", err)
	}

	appCfg := app.Config{
		DatabaseURL: cfg.DatabaseURL,
		Processor:   processor,
	}
	if cfg.RedisAddr != "" {
		ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
		if ttl <= 0 {
			ttl = time.Hour
		}
		appCfg.Cache = cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, ttl)
	}
	if cfg.MinioEndpoint != "" {
		archive, err := storage.NewMinioArchive(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("failed to init image archive: %v", err)
		}
		appCfg.Archive = archive
	}
	if cfg.AMQPURL != "" {
		publisher, err := events.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			log.Fatalf("failed to init event publisher: %v", err)
		}
		defer publisher.Close()
		appCfg.Publisher = publisher
	}

	pipeline, err := app.New(appCfg)
	if err != nil {
		log.Fatalf("failed to init pipeline: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:                 pipeline,
		APITokenSecret:      cfg.APITokenSecret,
		MaxUploadBytes:      cfg.MaxUploadBytes,
		ExtractionListLimit: cfg.ExtractionListLimit,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("equipment records server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
