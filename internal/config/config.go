package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CartStorageFile  = "file"
	CartStorageRedis = "redis"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string // サーバーポート（8080）
	GoEnv string // dev/prod

	JWTSecret string // 管理者JWT署名シークレット

	CartStorage    string // file / redis
	CartFileDir    string // file保存先ディレクトリ
	CartStorageKey string // 保存キー（セッションIDの前に付く）
	CartCacheSize  int           // メモリに持つカートの上限
	CartCacheTTL   time.Duration // メモリ上のカートを読み直すまでの時間

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers      []string // 空ならKafkaは使わない
	KafkaCatalogTopic string
	KafkaGroupID      string // consumer groupの接頭辞（インスタンスごとに後ろを付ける）

	CatalogSyncInterval time.Duration // DBからカタログを読み直す間隔

	Cart CartConfig
}

// カート金額計算の設定
type CartConfig struct {
	FreeShippingThreshold decimal.Decimal // 送料無料ライン（200）
	ShippingFee           decimal.Decimal // 一律送料（15）
	TaxRate               decimal.Decimal // 税率（0.08）
	LowStockThreshold     int64           // 残りわずか表示（5）
}

// Loadは環境変数
func Load() (Config, error) {
	cfg := Config{
		Port:  os.Getenv("PORT"),
		GoEnv: os.Getenv("GO_ENV"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		CartStorage:    getenv("CART_STORAGE", CartStorageFile),
		CartFileDir:    getenv("CART_FILE_DIR", "./data/carts"),
		CartStorageKey: getenv("CART_STORAGE_KEY", "cart"),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		KafkaBrokers:      splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaCatalogTopic: getenv("KAFKA_CATALOG_TOPIC", "catalog-events"),
		KafkaGroupID:      getenv("KAFKA_GROUP_ID", "storefront-cart"),
	}

	var err error
	if cfg.RedisDB, err = atoiDefault("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.CatalogSyncInterval, err = durationDefault("CATALOG_SYNC_INTERVAL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.CartCacheSize, err = atoiDefault("CART_CACHE_SIZE", 10000); err != nil {
		return Config{}, err
	}
	if cfg.CartCacheTTL, err = durationDefault("CART_CACHE_TTL", 10*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.Cart, err = loadCartConfig(); err != nil {
		return Config{}, err
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	switch cfg.CartStorage {
	case CartStorageFile, CartStorageRedis:
	default:
		return Config{}, fmt.Errorf("CART_STORAGE must be %q or %q", CartStorageFile, CartStorageRedis)
	}
	if cfg.CatalogSyncInterval <= 0 {
		return Config{}, fmt.Errorf("CATALOG_SYNC_INTERVAL must be positive")
	}
	if cfg.CartCacheSize <= 0 {
		return Config{}, fmt.Errorf("CART_CACHE_SIZE must be positive")
	}
	if cfg.CartCacheTTL <= 0 {
		return Config{}, fmt.Errorf("CART_CACHE_TTL must be positive")
	}

	return cfg, nil
}

// DefaultCartConfig は送料無料200、送料15、税率8%、残りわずか5。
func DefaultCartConfig() CartConfig {
	return CartConfig{
		FreeShippingThreshold: decimal.NewFromInt(200),
		ShippingFee:           decimal.NewFromInt(15),
		TaxRate:               decimal.RequireFromString("0.08"),
		LowStockThreshold:     5,
	}
}

func loadCartConfig() (CartConfig, error) {
	c := DefaultCartConfig()

	var err error
	if c.FreeShippingThreshold, err = decimalDefault("FREE_SHIPPING_THRESHOLD", c.FreeShippingThreshold); err != nil {
		return CartConfig{}, err
	}
	if c.ShippingFee, err = decimalDefault("SHIPPING_FEE", c.ShippingFee); err != nil {
		return CartConfig{}, err
	}
	if c.TaxRate, err = decimalDefault("TAX_RATE", c.TaxRate); err != nil {
		return CartConfig{}, err
	}
	low, err := atoiDefault("LOW_STOCK_THRESHOLD", int(c.LowStockThreshold))
	if err != nil {
		return CartConfig{}, err
	}
	c.LowStockThreshold = int64(low)

	//マイナスは不可
	if c.FreeShippingThreshold.IsNegative() {
		return CartConfig{}, fmt.Errorf("FREE_SHIPPING_THRESHOLD must be >= 0")
	}
	if c.ShippingFee.IsNegative() {
		return CartConfig{}, fmt.Errorf("SHIPPING_FEE must be >= 0")
	}
	if c.TaxRate.IsNegative() {
		return CartConfig{}, fmt.Errorf("TAX_RATE must be >= 0")
	}
	if c.LowStockThreshold < 0 {
		return CartConfig{}, fmt.Errorf("LOW_STOCK_THRESHOLD must be >= 0")
	}
	return c, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func decimalDefault(key string, def decimal.Decimal) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be decimal: %w", key, err)
	}
	return d, nil
}

// "a:9092, b:9092" → [a:9092 b:9092]
func splitList(v string) []string {
	out := []string{}
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
