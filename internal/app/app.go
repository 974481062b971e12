package app

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"goldbook/internal/config"
	"goldbook/internal/db"
	httpserver "goldbook/internal/http"
	"goldbook/internal/http/handlers"
	"goldbook/internal/http/middleware"
	"goldbook/internal/notify"
	"goldbook/internal/password"
	"goldbook/internal/pricefeed"
	"goldbook/internal/redisstore"
	"goldbook/internal/repository"
	"goldbook/internal/service"
)

// App wires goldbook dependencies.
type App struct {
	server      *httpserver.Server
	bridge      *notify.Bridge
	pool        *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	pool, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigration(context.Background(), pool); err != nil {
		pool.Close()
		return nil, err
	}

	redisClient, err := db.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		pool.Close()
		return nil, err
	}

	accountRepo := repository.NewAccountRepository(pool)
	txRepo := repository.NewTransactionRepository(pool)

	hasher := password.NewBcryptHasher(0)
	tokens := service.NewTokenService(cfg.JWT.Secret, cfg.TokenTTL())
	sessionStore := redisstore.NewSessionStore(redisClient, cfg.SessionTTL())

	sessions := service.NewSessionService(accountRepo, sessionStore, tokens, hasher, logger)
	ledger := service.NewLedgerService(accountRepo, txRepo, cfg.MaxQuoteAge(), logger)
	directory := service.NewDirectoryService(accountRepo, txRepo, hasher, logger)

	priceClient := pricefeed.NewClient(cfg.PriceFeed.URL, pricefeed.NewDefaultHTTPClient(cfg.PriceFeedTimeout()))

	var bridge *notify.Bridge
	if cfg.Events.StreamURL != "" {
		bridge = notify.NewBridge(cfg.Events.StreamURL, func(ctx context.Context) {
			snapshot, err := priceClient.CurrentPrices(ctx)
			if err != nil {
				logger.Warn("price re-fetch failed", zap.Error(err))
				return
			}
			logger.Info("prices refreshed",
				zap.Float64("gold_per_gram", snapshot.GoldPricePerGram),
				zap.Float64("silver_per_gram", snapshot.SilverPricePerGram),
			)
		}, logger)
	}

	routes := httpserver.Routes{
		Login:      handlers.NewLoginHandler(sessions),
		AdminLogin: handlers.NewAdminLoginHandler(sessions),
		Logout:     handlers.NewLogoutHandler(sessions),
		Session:    handlers.NewSessionHandler(sessions),

		Prices:         handlers.NewPricesHandler(priceClient),
		PurchaseQuote:  handlers.NewQuoteHandler(ledger, priceClient),
		PurchaseCommit: handlers.NewCommitHandler(ledger, sessions, logger),

		ListUsers:        handlers.NewListUsersHandler(directory),
		CreateUser:       handlers.NewCreateUserHandler(directory),
		DeleteUser:       handlers.NewDeleteUserHandler(directory),
		UserTransactions: handlers.NewUserTransactionsHandler(directory),
		SetMonthsPaid:    handlers.NewSetMonthsPaidHandler(directory),

		Health: handlers.NewHealthHandler(),

		Auth:      middleware.Auth(tokens),
		AdminAuth: middleware.AdminAuth(tokens),
	}

	router := httpserver.NewRouter(routes)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		bridge:      bridge,
		pool:        pool,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts the event bridge and HTTP server.
func (a *App) Run(ctx context.Context) error {
	if a.bridge != nil {
		go a.bridge.Run(ctx)
	}
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
