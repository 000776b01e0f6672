package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/vladislavdragonenkov/cartstore/internal/cart"
	healthcheck "github.com/vladislavdragonenkov/cartstore/internal/health"
	"github.com/vladislavdragonenkov/cartstore/internal/metrics"
	grpcsvc "github.com/vladislavdragonenkov/cartstore/internal/service/grpc"
	"github.com/vladislavdragonenkov/cartstore/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Run поднимает хранилище корзины, gRPC API и HTTP-эндпоинты метрик и health
// и блокируется до отмены ctx или фатальной ошибки сервера.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	// Kafka опциональна: без неё корзина работает, просто без ленты изменений.
	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)

	storeOptions := []cart.Option{
		cart.WithLogger(logger.WithField("layer", "store")),
		cart.WithMetrics(metrics.NewCartMetrics()),
		cart.WithSaveTimeout(cfg.SaveTimeout),
	}
	if cfg.SaveMaxAttempts > 1 {
		retry := cart.DefaultRetryConfig()
		retry.MaxAttempts = cfg.SaveMaxAttempts
		storeOptions = append(storeOptions, cart.WithSaveRetry(retry))
	}
	if kafkaProducer != nil {
		storeOptions = append(storeOptions, cart.WithPublisher(kafkaProducer))
	}

	// Фоновая запись переживает отмену ctx и останавливается явно через Close,
	// чтобы мутации, пришедшие во время graceful stop, тоже сохранились.
	storeCtx, storeCancel := context.WithCancel(context.WithoutCancel(ctx))
	defer storeCancel()
	store := cart.Open(storeCtx, deps.backend, storeOptions...)

	cartService := grpcsvc.NewCartService(store, logger.WithField("layer", "grpc"))
	grpcMetrics := promgrpc.NewServerMetrics()
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()))
	if err := prometheus.Register(grpcMetrics); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok2 := are.ExistingCollector.(*promgrpc.ServerMetrics); ok2 {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	grpcsvc.RegisterCartServiceServer(grpcServer, cartService)
	grpcMetrics.InitializeMetrics(grpcServer)

	// Reflection для grpcurl: list показывает cart.v1.CartService, но describe для него
	// вернёт NotFound, у JSON-сервиса нет protobuf-дескриптора. grpc.health.v1 описывается полностью.
	reflection.Register(grpcServer)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(grpcsvc.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	// HTTP Health checks
	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("cart_store", healthcheck.NewReadyChecker("cart_store", store.Ready()))
	healthHandler.RegisterChecker("cart_backend", deps.storageChecker)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		closeStore(store, logger)
		closeKafka(kafkaProducer, logger)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	metricsSrv := startMetricsServer(gctx, cfg.MetricsAddr, logger, healthHandler)

	g.Go(func() error {
		logger.Infof("gRPC сервер слушает %s", lis.Addr())
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-store.Ready():
			healthServer.SetServingStatus(grpcsvc.ServiceName, healthpb.HealthCheckResponse_SERVING)
			logger.WithField("item_count", store.ItemCount()).Info("корзина восстановлена, сервис готов")
		case <-gctx.Done():
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("получен сигнал остановки, останавливаем gRPC сервер")
		healthServer.Shutdown()

		stoppedCh := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stoppedCh)
		}()
		select {
		case <-stoppedCh:
		case <-time.After(shutdownTimeout):
			logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
			grpcServer.Stop()
		}
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	})

	runErr := g.Wait()

	// Сначала дописываем корзину и события, затем закрываем producer.
	closeStore(store, logger)
	closeKafka(kafkaProducer, logger)

	return runErr
}

// closeStore дописывает последний снимок корзины с ограничением по времени.
func closeStore(store *cart.Store, logger *log.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := store.Close(ctx); err != nil {
		logger.WithError(err).Warn("cart store did not flush before shutdown timeout")
		return
	}
	logger.Info("cart store flushed")
}

// startMetricsServer запускает HTTP-обработчик /metrics и health-эндпоинты.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
