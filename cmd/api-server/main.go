package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/kingstar-club/membership-api/api/swagger"
	"github.com/kingstar-club/membership-api/internal/handler"
	"github.com/kingstar-club/membership-api/internal/middleware"
	"github.com/kingstar-club/membership-api/internal/repository"
	"github.com/kingstar-club/membership-api/internal/service"
	"github.com/kingstar-club/membership-api/pkg/cache"
	"github.com/kingstar-club/membership-api/pkg/config"
	"github.com/kingstar-club/membership-api/pkg/database"
	"github.com/kingstar-club/membership-api/pkg/jobs"
	"github.com/kingstar-club/membership-api/pkg/logger"
	corsmiddleware "github.com/kingstar-club/membership-api/pkg/middleware/cors"
	reqidmiddleware "github.com/kingstar-club/membership-api/pkg/middleware/requestid"
	"github.com/kingstar-club/membership-api/pkg/storage"
)

// @title Club Membership API
// @version 1.0.0
// @description Membership registration, review and card issuance service
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	files, err := storage.NewLocalProvider(cfg.Uploads.StorageDir, cfg.Uploads.BaseURL)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	validate := validator.New()

	memberRepo := repository.NewMemberRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	allocMutex := repository.NewAllocationMutex(redisClient, "membership:alloc", cfg.Membership.AllocLockTTL, cfg.Membership.AllocLockWait)

	metricsSvc := service.NewMetricsService()
	allocator := service.NewIDAllocator(memberRepo, cfg.Membership.IDPrefix, cfg.Membership.IDPadWidth)
	uploadPolicy := service.UploadPolicy{
		MaxFileSize:  cfg.Uploads.MaxFileSize,
		AllowedMIMEs: cfg.Uploads.AllowedMIMEs,
	}

	memberSvc := service.NewMemberService(memberRepo, files, uploadPolicy, validate, logr)
	reviewSvc := service.NewReviewService(memberRepo, auditRepo, allocator, allocMutex, files, validate, logr, metricsSvc, cfg.Membership.AllocRetries)
	authSvc := service.NewAuthService(memberRepo, service.NewStaticCredentialStore(cfg.Admin.Username, cfg.Admin.PasswordHash), validate, logr, service.AuthConfig{
		Secret:           cfg.JWT.Secret,
		AdminExpiration:  cfg.JWT.AdminExpiration,
		MemberExpiration: cfg.JWT.MemberExpiration,
		Issuer:           cfg.JWT.Issuer,
	})
	cardSvc := service.NewCardService(memberRepo, service.CardBranding{
		ClubName:     cfg.Card.ClubName,
		ClubTagline:  cfg.Card.ClubTagline,
		RegistryLine: cfg.Card.RegistryLine,
	}, logr)

	cleanupQueue := startCleanupQueue(ctx, cfg, memberRepo, files, logr)
	defer cleanupQueue.Stop()

	authHandler := handler.NewAuthHandler(authSvc)
	memberHandler := handler.NewMemberHandler(memberSvc, cfg.Uploads.MaxFileSize)
	adminHandler := handler.NewAdminHandler(reviewSvc)
	cardHandler := handler.NewCardHandler(cardSvc)
	attachmentHandler := handler.NewAttachmentHandler(memberRepo, files, signer)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db.Ping)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSize

	registerRoutes(r, cfg, authSvc, routeHandlers{
		auth:       authHandler,
		member:     memberHandler,
		admin:      adminHandler,
		card:       cardHandler,
		attachment: attachmentHandler,
		metrics:    metricsHandler,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

// startCleanupQueue runs the periodic upload sweep: files older than the
// orphan TTL that no member record references are removed.
func startCleanupQueue(ctx context.Context, cfg *config.Config, repo *repository.MemberRepository, files *storage.LocalProvider, logr *zap.Logger) *jobs.Queue {
	queue := jobs.NewQueue("upload-cleanup", func(jobCtx context.Context, _ jobs.Job) error {
		referenced, err := repo.AttachmentIdentifiers(jobCtx)
		if err != nil {
			return err
		}
		deleted, err := files.CleanupOlderThan(cfg.Uploads.OrphanTTL, func(publicID string) bool {
			_, ok := referenced[publicID]
			return ok
		})
		if err != nil {
			return err
		}
		if len(deleted) > 0 {
			logr.Sugar().Infow("removed orphaned uploads", "count", len(deleted))
		}
		return nil
	}, jobs.QueueConfig{Workers: 1, Logger: logr})
	queue.Start(ctx)

	go func() {
		ticker := time.NewTicker(cfg.Uploads.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := queue.Enqueue(jobs.Job{Type: "sweep"}); err != nil {
					logr.Sugar().Warnw("failed to enqueue upload sweep", "error", err)
				}
			}
		}
	}()

	return queue
}
