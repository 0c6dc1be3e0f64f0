package listener

import (
	"context"
	"encoding/json"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader は *kafka.Reader のうち使う部分だけ。
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// CatalogRefresher は全件読み直し（usecase.CatalogSync）。
type CatalogRefresher interface {
	Refresh(ctx context.Context) error
}

// CatalogListener はカタログ変更イベントを読んでフィードへ反映する。
type CatalogListener struct {
	reader  MessageReader
	feed    *usecase.CatalogFeed
	refresh CatalogRefresher
	logger  *zap.Logger
	backoff time.Duration
}

func NewCatalogListener(reader MessageReader, feed *usecase.CatalogFeed, refresh CatalogRefresher, logger *zap.Logger) *CatalogListener {
	return &CatalogListener{
		reader:  reader,
		feed:    feed,
		refresh: refresh,
		logger:  logger,
		backoff: 1 * time.Second,
	}
}

func (l *CatalogListener) Start(ctx context.Context) {
	l.logger.Info("Starting catalog Kafka listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping catalog Kafka listener")
			return
		default:
			msg, err := l.reader.ReadMessage(ctx)
			if err != nil {
				// 止める途中のエラーは出さない
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.backoff):
				}
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

func (l *CatalogListener) processMessage(ctx context.Context, value []byte) {
	var event model.CatalogEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal catalog event", zap.Error(err))
		return
	}

	switch event.EventType {
	case model.CatalogEventStockChanged:
		if event.Stock == nil {
			l.logger.Warn("StockChanged without stock", zap.String("event_id", event.EventID))
			return
		}
		if !l.feed.ApplyStock(event.ProductID, event.VariantID, *event.Stock) {
			l.logger.Debug("stock event for unknown product",
				zap.String("product_id", event.ProductID),
				zap.String("variant_id", event.VariantID),
			)
		}

	case model.CatalogEventStatusChanged:
		if !l.feed.ApplyStatus(event.ProductID, event.Status) {
			l.logger.Debug("status event for unknown product", zap.String("product_id", event.ProductID))
		}

	case model.CatalogEventCatalogChanged:
		if err := l.refresh.Refresh(ctx); err != nil {
			l.logger.Error("Failed to refresh catalog", zap.String("event_id", event.EventID), zap.Error(err))
		}
	}
}
