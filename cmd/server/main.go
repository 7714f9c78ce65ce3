// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uvlhub/internal/config"
	"uvlhub/internal/handler"
	"uvlhub/internal/middleware"
	"uvlhub/internal/pipeline"
	"uvlhub/internal/repository"
	"uvlhub/internal/service"
	"uvlhub/pkg/database"
	"uvlhub/pkg/es"
	"uvlhub/pkg/kafka"
	"uvlhub/pkg/log"
	"uvlhub/pkg/storage"
	"uvlhub/pkg/token"
	"uvlhub/pkg/uvl"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	configPath := os.Getenv("UVLHUB_CONFIG")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}
	config.Init(configPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis 及可选的外部组件
	database.Init(cfg.Database.Driver, cfg.Database.DSN)

	var tokenRepo repository.TokenRepository
	if cfg.Database.Redis.Enabled {
		database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
		tokenRepo = repository.NewTokenRepository(database.RDB)
	} else {
		log.Warnf("Redis 未启用，token 黑名单仅保存在内存中")
		tokenRepo = repository.NewMemoryTokenRepository()
	}

	var mirror service.FileMirror
	if cfg.MinIO.Enabled {
		storage.InitMinIO(cfg.MinIO)
		mirror = storage.Mirror{Bucket: cfg.MinIO.BucketName, Expiry: time.Hour}
	}

	var indexer service.DatasetIndexer
	if cfg.Elasticsearch.Enabled {
		if err := es.InitES(cfg.Elasticsearch); err != nil {
			log.Errorf("es 初始化失败 %s", err)
			return
		}
		indexer = es.Indexer{IndexName: cfg.Elasticsearch.IndexName}
	}

	var queue service.SyncQueue
	if cfg.Kafka.Enabled && cfg.Deposition.Async {
		kafka.InitProducer(cfg.Kafka)
		queue = kafka.Producer{}
	}

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	datasetRepo := repository.NewDatasetRepository(database.DB)
	recordRepo := repository.NewRecordRepository(database.DB)
	doiMappingRepo := repository.NewDOIMappingRepository(database.DB)
	communityRepo := repository.NewCommunityRepository(database.DB)
	depositionRepo := repository.NewDepositionRepository(database.DB)
	exploreRepo := repository.NewExploreRepository(database.DB)

	// 5. 初始化 Service (依赖注入)
	paths := service.Paths{UploadsDir: cfg.App.UploadsDir()}
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays, cfg.JWT.VerificationMaxAgeSeconds)
	converter := uvl.NewCommandConverter(cfg.Download.ConverterCommand)

	authService := service.NewAuthService(userRepo, tokenRepo, jwtManager)
	datasetService := service.NewDatasetService(datasetRepo, recordRepo, paths, cfg.App.Domain, mirror)
	stagingService := service.NewStagingService(paths, time.Duration(cfg.GitHub.TimeoutSeconds)*time.Second)
	depositionService := service.NewDepositionService(depositionRepo, paths)
	syncService := service.NewSyncService(datasetService, depositionService, queue, indexer)
	downloadService := service.NewDownloadService(datasetRepo, recordRepo, doiMappingRepo, converter, mirror, paths, service.DownloadOptions{
		Concurrency:       cfg.Download.Concurrency,
		ConversionTimeout: time.Duration(cfg.Download.ConversionTimeoutSeconds) * time.Second,
	})
	communityService := service.NewCommunityService(communityRepo, datasetRepo)
	exploreService := service.NewExploreService(exploreRepo)

	// 6. 启动后台 Kafka 消费者
	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	defer cancelConsumer()
	if queue != nil {
		processor := pipeline.NewProcessor(syncService, stagingService)
		go kafka.StartConsumer(consumerCtx, cfg.Kafka, processor)
	}

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	authHandler := handler.NewAuthHandler(authService)
	datasetHandler := handler.NewDatasetHandler(datasetService, syncService, stagingService)
	stagingHandler := handler.NewStagingHandler(stagingService)
	downloadHandler := handler.NewDownloadHandler(downloadService, datasetService)
	exploreHandler := handler.NewExploreHandler(exploreService, datasetService)
	communityHandler := handler.NewCommunityHandler(communityService)
	depositionHandler := handler.NewDepositionHandler(depositionService)

	requireAuth := middleware.AuthMiddleware(jwtManager, authService)
	optionalAuth := middleware.OptionalAuth(jwtManager, authService)

	// 8. 注册路由
	registerRoutes(r, routeHandlers{
		auth:         authHandler,
		dataset:      datasetHandler,
		staging:      stagingHandler,
		download:     downloadHandler,
		explore:      exploreHandler,
		community:    communityHandler,
		deposition:   depositionHandler,
		requireAuth:  requireAuth,
		optionalAuth: optionalAuth,
	})

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s, uploads 目录: %s", srv.Addr, paths.UploadsDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	cancelConsumer()
	kafka.CloseProducer()
	log.Info("服务已优雅关闭")
}
