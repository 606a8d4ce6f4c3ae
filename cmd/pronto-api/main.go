// README: Entry point; loads config, wires module services, starts the HTTP
// server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pronto/internal/ai"
	"pronto/internal/config"
	httptransport "pronto/internal/http"
	"pronto/internal/infra"
	"pronto/internal/maps"
	"pronto/internal/modules/directory"
	"pronto/internal/modules/insurance"
	"pronto/internal/modules/matching"
	"pronto/internal/modules/pricing"
	"pronto/internal/modules/promotions"
	"pronto/internal/modules/request"
	"pronto/internal/modules/surge"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := infra.NewLogger(cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr, cfg.Redis.Password)

	// Optional upstreams; the core degrades without them.
	var advisor ai.Advisor
	if cfg.AI.GeminiKey != "" {
		gem, err := ai.NewGeminiAdvisor(ctx, cfg.AI.GeminiKey)
		if err != nil {
			logger.Warn("gemini init failed, dispatch summaries fall back", zap.Error(err))
		} else {
			defer gem.Close()
			advisor = gem
		}
	}
	var distance pricing.DistanceProvider
	if cfg.Maps.APIKey != "" {
		routes, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			logger.Warn("maps init failed, quotes use great-circle distance", zap.Error(err))
		} else {
			distance = routes
		}
	}

	surgeProvider := surge.NewProvider(redisClient, cfg.Surge.RedisKey)

	pricingStore := pricing.NewStore(dbPool)
	pricingSvc := pricing.NewService(pricingStore, distance, surgeProvider, cfg.Pricing.PerMileRate)

	promoStore := promotions.NewStore(dbPool)
	slotStore := promotions.NewSlotStore(redisClient)
	promoSvc := promotions.NewDecorator(promoStore, promoStore, slotStore, cfg.FirstJobDiscountAmount())

	attemptStore := matching.NewAttemptStore(dbPool)
	requestStore := request.NewStore(dbPool)
	requestSvc := request.NewService(requestStore, attemptStore)

	proDirectory := directory.NewStore(dbPool)
	gate := insurance.NewGate(insurance.NewStore(dbPool))
	dispatchStore := matching.NewDispatchStore(redisClient)
	matchingSvc := matching.NewService(proDirectory, gate, attemptStore, dispatchStore, requestSvc, cfg.Matching)

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Logger:      logger,
		Matching:    matchingSvc,
		Pricing:     pricingSvc,
		Promotions:  promoSvc,
		Requests:    requestSvc,
		Dispatcher:  matchingSvc,
		Attempts:    attemptStore,
		DispatchLog: dispatchStore,
		Surge:       surgeProvider,
		Advisor:     advisor,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("http server", zap.Error(err))
	}
}
