package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	cacheadapter "github.com/linktofunnel/storefront/internal/adapters/cache"
	emailadapter "github.com/linktofunnel/storefront/internal/adapters/email"
	eventadapter "github.com/linktofunnel/storefront/internal/adapters/events"
	"github.com/linktofunnel/storefront/internal/adapters/gemini"
	httpadapter "github.com/linktofunnel/storefront/internal/adapters/http"
	"github.com/linktofunnel/storefront/internal/adapters/pdf"
	"github.com/linktofunnel/storefront/internal/adapters/postgres"
	"github.com/linktofunnel/storefront/internal/adapters/security"
	"github.com/linktofunnel/storefront/internal/adapters/stripeapi"
	"github.com/linktofunnel/storefront/internal/adapters/telegram"
	"github.com/linktofunnel/storefront/internal/application"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	delivery   *eventadapter.DeliveryWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping storefront service", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, int32(cfg.MaxDBConns))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	cleanup := func(ctx context.Context) {
		_ = redisClient.Close()
		_ = sqlDB.Close()
	}

	repos := postgres.NewRepositories(db)

	tokenSigner, err := security.NewTokenSigner(cfg.DownloadTokenSecret)
	if err != nil {
		cleanup(ctx)
		return nil, fmt.Errorf("init token signer: %w", err)
	}
	webhookVerifier, err := security.NewWebhookVerifier(cfg.WebhookSecret, cfg.WebhookTolerance)
	if err != nil {
		cleanup(ctx)
		return nil, fmt.Errorf("init webhook verifier: %w", err)
	}
	keyChecker, err := security.NewAPIKeyChecker(cfg.OperatorKeyHash)
	if err != nil {
		cleanup(ctx)
		return nil, fmt.Errorf("init operator key checker: %w", err)
	}

	collaboratorClient := &http.Client{Timeout: cfg.CollaboratorTimeout}
	stripeClient := stripeapi.NewClient(cfg.StripeAPIBase, cfg.StripeSecretKey, collaboratorClient)
	geminiClient := gemini.NewClient(cfg.GeminiAPIBase, cfg.GeminiAPIKey, cfg.GeminiModel, collaboratorClient)
	telegramClient, err := telegram.NewClient(cfg.TelegramAPIBase, cfg.TelegramBotToken, cfg.TelegramChatID, collaboratorClient)
	if err != nil {
		cleanup(ctx)
		return nil, fmt.Errorf("init telegram client: %w", err)
	}
	emailSender, err := emailadapter.NewSender(emailadapter.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, cfg.BaseURL)
	if err != nil {
		cleanup(ctx)
		return nil, fmt.Errorf("init email sender: %w", err)
	}
	renderer, err := pdf.NewRenderer(cfg.ProductFilesDir)
	if err != nil {
		cleanup(ctx)
		return nil, fmt.Errorf("init pdf renderer: %w", err)
	}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			BaseURL:            cfg.BaseURL,
			SuccessURL:         cfg.SuccessURL,
			Currency:           cfg.Currency,
			DownloadTTL:        cfg.DownloadTTL,
			ProductFilesDir:    cfg.ProductFilesDir,
			MonthlyTargetCents: cfg.MonthlyTargetCents,
			DownloadRateLimit:  cfg.DownloadRateLimit,
			DownloadRateWindow: cfg.DownloadRateWindow,
		},
		Products:   repos.Products,
		Sales:      repos.Sales,
		Deliveries: repos.Deliveries,
		Tokens:     tokenSigner,
		Webhooks:   webhookVerifier,
		Payments:   stripeClient,
		Content:    geminiClient,
		Renderer:   renderer,
		Links:      cacheadapter.NewRedisPaymentLinkCache(redisClient),
		Limiter:    cacheadapter.NewRedisDownloadLimiter(redisClient),
		Notifier:   telegramClient,
	})

	handler := httpadapter.NewHandler(svc, keyChecker, emailSender, telegramClient)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		cleanup(ctx)
		return nil, fmt.Errorf("listen gRPC: %w", err)
	}

	delivery := eventadapter.NewDeliveryWorker(
		logger,
		repos.Deliveries,
		emailSender,
		telegramClient,
		cfg.DeliveryPollInterval,
		cfg.DeliveryBatchSize,
		cfg.DeliveryClaimTTL,
		cfg.DeliveryMaxRetries,
	)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		delivery:   delivery,
		cleanupFn:  cleanup,
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", r.grpcLis.Addr().String())
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("delivery worker started")
	err := r.delivery.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	return nil
}
