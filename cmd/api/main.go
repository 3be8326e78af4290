package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NYTimes/gziphandler"
	"golang.org/x/time/rate"

	"catalog-backend/config"
	"catalog-backend/internal/delivery/http/middleware"
	v1 "catalog-backend/internal/delivery/http/v1"
	"catalog-backend/internal/infrastructure/cache"
	pgrepo "catalog-backend/internal/repository/postgres"
	"catalog-backend/internal/task"
	"catalog-backend/internal/usecase"
	"catalog-backend/pkg/logger"
	"catalog-backend/pkg/utils"
)

const serviceName = "catalog-backend"

var version = "dev"

func main() {
	cfg := config.LoadConfig()
	utils.SetSecret(cfg.JWTSecret)

	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	pgxPool, err := pgrepo.NewPgxPool(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pgxPool.Close()
	log.Info().Msg("Connected to PostgreSQL")

	// Repositories
	txManager := pgrepo.NewTransactionManager(pgxPool)
	attributeRepo := pgrepo.NewAttributeRepository(pgxPool)
	assignmentRepo := pgrepo.NewAssignmentRepository(pgxPool)
	variantRepo := pgrepo.NewVariantRepository(pgxPool)
	searchRepo := pgrepo.NewProductSearchRepository(pgxPool)

	// Attribute definitions change rarely; cleanup every 2x TTL.
	memCache := cache.NewMemoryCache(cfg.CatalogCacheTTL, 2*cfg.CatalogCacheTTL)

	// Usecases
	attributeUC := usecase.NewAttributeUsecase(attributeRepo, memCache, cfg.CatalogCacheTTL)
	syncUC := usecase.NewCacheSyncUsecase(txManager, variantRepo, assignmentRepo, cfg.CacheRebuildChunkSize)
	assignmentUC := usecase.NewAssignmentUsecase(txManager, attributeRepo, assignmentRepo, variantRepo, syncUC)
	searchUC := usecase.NewSearchUsecase(searchRepo, variantRepo, attributeUC, cfg)

	mux := http.NewServeMux()
	v1.RegisterRoutes(mux, v1.Handlers{
		Search:      v1.NewSearchHandler(searchUC),
		Attributes:  v1.NewAttributeHandler(attributeUC),
		Assignments: v1.NewAdminAssignmentHandler(assignmentUC, syncUC),
	})

	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pgxPool.Ping(ctx); err != nil {
			utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "db": "unreachable"})
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "db": "connected"})
	}
	mux.HandleFunc("GET /api/v1/health", healthHandler)
	mux.HandleFunc("GET /health", healthHandler)

	reconcile := task.NewCacheReconcileTask(syncUC, cfg.CacheReconcileCron, cfg.CacheRebuildTimeout)
	if err := reconcile.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule cache reconcile")
	}

	rateLimiter := middleware.NewRateLimiter(
		context.Background(),
		rate.Limit(cfg.RateLimitRPS),
		cfg.RateLimitBurst,
		time.Minute,
		3*time.Minute,
	)

	handler := middleware.NewCORSMiddleware(cfg)(mux)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()
	logger.ServiceStart(serviceName, version, cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")
	rateLimiter.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	reconcile.Stop()

	logger.ServiceStop(serviceName)
}
