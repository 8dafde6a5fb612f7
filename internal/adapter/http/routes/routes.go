package routes

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "homeservices/docs" // swag generated
	"homeservices/internal/adapter/http/handlers"
	"homeservices/internal/adapter/http/middleware"
	"homeservices/internal/infrastructure/config"
	"homeservices/internal/infrastructure/logger"
	"homeservices/internal/infrastructure/notify"
	"homeservices/internal/usecase"
	"homeservices/internal/usecase/interfaces"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// App is the wired API: the router plus the background workers it depends on.
type App struct {
	Router   *gin.Engine
	notifier *notify.AsyncNotifier
	sweeper  *usecase.QuoteExpirySweeper
}

// Dependencies are the adapters selected from configuration.
type Dependencies struct {
	Store   interfaces.Store
	Gateway interfaces.IPaymentGateway
	Broker  notify.Broker
	Checks  map[string]handlers.HealthCheck
}

// Run will start the server
func Run() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	zlog, err := logger.New(cfg.GinMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, closeDeps, err := BuildDependencies(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("[app] failed to build dependencies", zap.Error(err))
	}
	defer closeDeps()

	app := NewApp(cfg, zlog, deps)
	app.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zlog.Info("[app] listening", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver), zap.String("gateway", deps.Gateway.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("[app] failed to startup the application", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("[app] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("[app] graceful shutdown failed", zap.Error(err))
	}
}

// NewApp wires use cases and handlers over deps and registers every route.
func NewApp(cfg *config.Config, zlog *zap.Logger, deps Dependencies) *App {
	notifier := notify.NewAsyncNotifier(
		notify.MultiPublisher{deps.Broker, notify.NewLogPublisher(zlog)},
		notify.DefaultBufferSize,
		zlog,
	)

	userUseCase := usecase.NewUserUseCase(deps.Store.Users, zlog)
	serviceUseCase := usecase.NewServiceUseCase(deps.Store, userUseCase, notifier, zlog)
	quoteUseCase := usecase.NewQuoteUseCase(deps.Store, notifier, cfg.QuoteTTL, zlog)
	paymentUseCase := usecase.NewPaymentUseCase(deps.Store, deps.Gateway, notifier, cfg.PaymentCurrency, zlog)
	statsUseCase := usecase.NewStatsUseCase(deps.Store)

	h := apiHandlers{
		health:   handlers.NewHealthHandler(deps.Checks),
		services: handlers.NewServiceHandler(serviceUseCase, zlog),
		users:    handlers.NewUserHandler(userUseCase, zlog),
		quotes:   handlers.NewQuoteHandler(quoteUseCase, zlog),
		payments: handlers.NewPaymentHandler(paymentUseCase, zlog),
		events:   handlers.NewEventsHandler(deps.Broker, serviceUseCase, zlog),
		stats:    handlers.NewStatsHandler(statsUseCase),
	}

	router := gin.New()
	setMiddlewares(router, cfg, zlog)

	// Swagger documentation endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Rotas publicas
	v1 := router.Group("/v1")
	addPingRoutes(v1, h.health)
	addWebhookRoutes(v1, h.payments)

	authenticated := v1.Group("", middleware.Authenticate(cfg.JWTSecret))
	addMarketplaceRoutes(authenticated, h)

	return &App{
		Router:   router,
		notifier: notifier,
		sweeper:  usecase.NewQuoteExpirySweeper(quoteUseCase, cfg.QuoteSweepInterval, zlog),
	}
}

// Start launches the notification drain and, when configured, the quote expiry sweeper.
// Both stop when ctx ends.
func (a *App) Start(ctx context.Context) {
	go a.notifier.Run(ctx)
	go a.sweeper.Run(ctx)
}

func setMiddlewares(router *gin.Engine, cfg *config.Config, zlog *zap.Logger) {
	router.Use(middleware.RequestLogger(zlog))
	router.Use(middleware.Recovery(zlog))

	corsCfg := cors.DefaultConfig()
	origins := cfg.AllowedOrigins()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	corsCfg.AddAllowHeaders("Authorization", "Stripe-Signature", "X-Signature", "X-Mock-Signature")
	router.Use(cors.New(corsCfg))
}
