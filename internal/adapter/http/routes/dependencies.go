package routes

import (
	"context"
	"fmt"

	"homeservices/internal/adapter/http/handlers"
	"homeservices/internal/adapter/persistence/memory"
	"homeservices/internal/adapter/persistence/repository"
	"homeservices/internal/adapter/persistence/sqlstore"
	"homeservices/internal/infrastructure/config"
	"homeservices/internal/infrastructure/database"
	"homeservices/internal/infrastructure/notify"
	"homeservices/internal/infrastructure/payments"
	"homeservices/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// BuildDependencies opens the store, the payment gateway and the event broker
// selected by cfg. The returned func releases whatever was opened.
func BuildDependencies(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (Dependencies, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	deps := Dependencies{Checks: map[string]handlers.HealthCheck{}}

	store, check, closeStore, err := openStore(ctx, cfg, zlog)
	if err != nil {
		return Dependencies{}, func() {}, err
	}
	deps.Store = store
	deps.Checks["store"] = check
	closers = append(closers, closeStore)

	deps.Gateway, err = payments.New(payments.Options{
		Provider:                 cfg.PaymentGateway,
		StripeSecretKey:          cfg.StripeSecretKey,
		StripeWebhookSecret:      cfg.StripeWebhookSecret,
		MercadoPagoAccessToken:   cfg.MercadoPagoAccessToken,
		MercadoPagoWebhookSecret: cfg.MercadoPagoWebhookSecret,
		MercadoPagoPayerEmail:    cfg.MercadoPagoPayerEmail,
		MockSecret:               cfg.MockGatewaySecret,
	}, zlog)
	if err != nil {
		closeAll()
		return Dependencies{}, func() {}, fmt.Errorf("payment gateway: %w", err)
	}

	if cfg.RedisAddr != "" {
		rdb := notify.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			closeAll()
			return Dependencies{}, func() {}, fmt.Errorf("redis: %w", err)
		}
		deps.Broker = notify.NewRedisBroker(rdb, zlog)
		deps.Checks["broker"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		closers = append(closers, func() { _ = rdb.Close() })
		zlog.Info("[app] events over redis", zap.String("addr", cfg.RedisAddr))
	} else {
		deps.Broker = notify.NewLocalBroker()
	}
	return deps, closeAll, nil
}

func openStore(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (interfaces.Store, handlers.HealthCheck, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDynamoDB:
		ddb, err := database.ConnectDynamoDB(ctx, database.DynamoDBSettings{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Endpoint:        cfg.DynamoDBEndpoint,
		})
		if err != nil {
			return interfaces.Store{}, nil, nil, err
		}
		check := func(ctx context.Context) error {
			_, err := ddb.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(cfg.ServicesTable)})
			return err
		}
		return repository.NewDynamoStore(ddb, repository.Tables{
			Users:    cfg.UsersTable,
			Services: cfg.ServicesTable,
			Quotes:   cfg.QuotesTable,
			Payments: cfg.PaymentsTable,
		}), check, func() {}, nil

	case config.StoreSQL:
		db, err := database.ConnectSQL(cfg.DBDriver, cfg.DBDSN, zlog)
		if err != nil {
			return interfaces.Store{}, nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return interfaces.Store{}, nil, nil, err
		}
		if err := sqlstore.Migrate(db); err != nil {
			_ = sqlDB.Close()
			return interfaces.Store{}, nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return sqlstore.NewStore(db), sqlDB.PingContext, func() { _ = sqlDB.Close() }, nil

	default:
		zlog.Warn("[app] using the in-memory store; data is lost on restart")
		return memory.NewStore().Bundle(), func(context.Context) error { return nil }, func() {}, nil
	}
}
