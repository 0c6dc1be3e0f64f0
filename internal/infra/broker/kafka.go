package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain/model"

	"github.com/segmentio/kafka-go"
)

// KafkaCatalogPublisher はカタログ変更イベントをKafkaへ送る。
// キーは商品IDなので、同じ商品のイベントは同じパーティションに入る。
type KafkaCatalogPublisher struct {
	writer *kafka.Writer
}

func NewKafkaCatalogPublisher(brokers []string, topic string) *KafkaCatalogPublisher {
	return &KafkaCatalogPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           50 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaCatalogPublisher) Publish(ctx context.Context, events ...model.CatalogEvent) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		value, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode catalog event: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(ev.ProductID),
			Value: value,
			Time:  ev.Timestamp,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write catalog events: %w", err)
	}
	return nil
}

func (p *KafkaCatalogPublisher) Close() error {
	return p.writer.Close()
}

// InstanceGroupID はインスタンス専用のgroup id。
// 各インスタンスが全パーティションを読んで自分のフィードを更新するため、groupは共有しない。
func InstanceGroupID(prefix string, hostname string, pid int) string {
	host := strings.TrimSpace(hostname)
	if host == "" {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%s-%d", prefix, host, pid)
}

// NewCatalogReader はカタログイベント購読用のReader（consumer group）。
// 起動時の状態はDBから読むので、新しいgroupは最新のoffsetから始める。
func NewCatalogReader(brokers []string, topic string, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
	})
}
