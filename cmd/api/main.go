package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/broker"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/listener"
	"storefront/internal/logger"
	repo "storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// cookieの期限と揃える
const cartTTL = 30 * 24 * time.Hour

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	//.envは無くてもよい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.GoEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg.GoEnv)
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal("db migrate failed", zap.Error(err))
	}

	//Repository（GORM実装）生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	cartStorage, closeStorage, err := newCartStorage(ctx, cfg)
	if err != nil {
		log.Fatal("cart storage init failed", zap.Error(err))
	}
	defer closeStorage()

	//カタログ（DBから定期的に読み直す）
	feed := usecase.NewCatalogFeed()
	catalogSync := usecase.NewCatalogSync(productRepo, feed, log)

	//Kafkaはブローカー指定があるときだけ
	var publisher repo.CatalogEventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := broker.NewKafkaCatalogPublisher(cfg.KafkaBrokers, cfg.KafkaCatalogTopic)
		defer func() { _ = kp.Close() }()
		publisher = kp

		hostname, _ := os.Hostname()
		groupID := broker.InstanceGroupID(cfg.KafkaGroupID, hostname, os.Getpid())
		reader := broker.NewCatalogReader(cfg.KafkaBrokers, cfg.KafkaCatalogTopic, groupID)
		defer func() { _ = reader.Close() }()

		go listener.NewCatalogListener(reader, feed, catalogSync, log).Start(ctx)
	}
	go catalogSync.Run(ctx, cfg.CatalogSyncInterval)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//Usecase生成
	productUC := usecase.NewProductUsecase(feed)
	cartUC := usecase.NewCartUsecase(cartStorage, feed, cfg.Cart, cfg.CartStorageKey, usecase.CartCacheOptions{
		Size: cfg.CartCacheSize,
		TTL:  cfg.CartCacheTTL,
	}, log)
	orderUC := usecase.NewOrderUsecase(txm, cartUC, feed, cfg.Cart, publisher, idGen, clock, log)
	inventoryUC := usecase.NewInventoryUsecase(txm, feed, publisher, idGen, clock, log)

	//Server起動
	srv := server.New(cfg, log, server.Handlers{
		Product:        handler.NewProductHandler(productUC),
		Cart:           handler.NewCartHandler(cartUC),
		Order:          handler.NewOrderHandler(orderUC),
		AdminInventory: handler.NewAdminInventoryHandler(inventoryUC),
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
}

// CART_STORAGE に合わせて保存先を作る
func newCartStorage(ctx context.Context, cfg config.Config) (repo.CartStorage, func(), error) {
	if cfg.CartStorage == config.CartStorageRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		return infraRepo.NewCartRedisStorage(rdb, cartTTL), func() { _ = rdb.Close() }, nil
	}

	fs, err := infraRepo.NewCartFileStorage(cfg.CartFileDir)
	if err != nil {
		return nil, nil, err
	}
	return fs, func() {}, nil
}
