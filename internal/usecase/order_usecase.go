package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderUsecase struct {
	tx        repo.TransactionManager
	carts     *CartUsecase
	feed      *CatalogFeed
	rules     config.CartConfig
	publisher repo.CatalogEventPublisher
	idGen     IDGenerator
	clock     Clock
	log       *zap.Logger
}

// publisherはnilでもよい（Kafkaを使わない構成）。
func NewOrderUsecase(
	tx repo.TransactionManager,
	carts *CartUsecase,
	feed *CatalogFeed,
	rules config.CartConfig,
	publisher repo.CatalogEventPublisher,
	idGen IDGenerator,
	clock Clock,
	log *zap.Logger,
) *OrderUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderUsecase{
		tx:        tx,
		carts:     carts,
		feed:      feed,
		rules:     rules,
		publisher: publisher,
		idGen:     idGen,
		clock:     clock,
		log:       log,
	}
}

type PlaceOrderInput struct {
	IdempotencyKey string
}

type OrderItemOutput struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id,omitempty"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
}

type OrderOutput struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	ShippingCost decimal.Decimal   `json:"shipping_cost"`
	Tax          decimal.Decimal   `json:"tax"`
	Total        decimal.Decimal   `json:"total"`
	CreatedAt    time.Time         `json:"created_at"`
	Items        []OrderItemOutput `json:"items"`
}

// 減算後の在庫（コミット後にフィードとKafkaへ流す）
type stockUpdate struct {
	productID string
	variantID string
	stock     int64
}

// PlaceOrder はカートを注文にする。
// 注文に進めるかは最新カタログで判定し直し、DBでも在庫を再チェックして減らす。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, sessionID string, in PlaceOrderInput) (OrderOutput, error) {
	if sessionID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}

	store := u.carts.Store(ctx, sessionID)

	var (
		out     OrderOutput
		replay  bool
		ordered []model.CartLine
		updates []stockUpdate
	)

	//注文処理はトランザクション
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, sessionID, key)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if found {
			items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out = toOrderOutput(existing, items)
			replay = true
			return nil
		}

		lines := store.Lines()
		ordered = lines
		if len(lines) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}

		//最新カタログで在庫切れが無いか
		view := ComputeView(lines, u.feed.Current(), u.rules.LowStockThreshold)
		if !CheckoutReady(view) {
			return NewHTTPError(http.StatusConflict, "out of stock")
		}

		now := u.clock.Now()
		orderID := u.idGen.NewID()
		orderItems := make([]model.OrderItem, 0, len(lines))
		updates = make([]stockUpdate, 0, len(lines))

		for _, l := range lines {
			//在庫減算（足りないなら false）
			left, ok, err := r.Inventory().DecreaseStockIfEnough(ctx, l.ProductID, l.VariantID, l.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusConflict, "out of stock")
			}
			updates = append(updates, stockUpdate{productID: l.ProductID, variantID: l.VariantID, stock: left})

			//スナップショット
			name := l.Name
			if l.VariantName != "" {
				name = l.Name + " / " + l.VariantName
			}
			orderItems = append(orderItems, model.OrderItem{
				OrderID:             orderID,
				ProductID:           l.ProductID,
				VariantID:           l.VariantID,
				ProductNameSnapshot: name,
				UnitPriceSnapshot:   l.Price,
				Quantity:            l.Quantity,
				CreatedAt:           now,
			})
		}

		totals := ComputeTotals(lines, u.rules)
		order := model.Order{
			ID:             orderID,
			SessionID:      sessionID,
			Status:         model.OrderStatusPending,
			Subtotal:       totals.Subtotal,
			ShippingCost:   totals.ShippingCost,
			Tax:            totals.Tax,
			Total:          totals.Total,
			IdempotencyKey: key,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := r.Orders().Create(ctx, order); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(order, orderItems)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	if replay {
		return out, nil
	}

	//注文した分だけカートから外して、減った在庫をすぐ反映
	store.RemoveOrdered(ctx, ordered)
	u.applyStock(ctx, updates)

	u.log.Info("order placed",
		zap.String("order_id", out.ID),
		zap.Int("items", len(out.Items)),
		zap.String("total", out.Total.StringFixed(2)),
	)
	return out, nil
}

func (u *OrderUsecase) GetOrderDetail(ctx context.Context, sessionID string, orderID string) (OrderOutput, error) {
	if sessionID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.SessionID != sessionID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) applyStock(ctx context.Context, updates []stockUpdate) {
	events := make([]model.CatalogEvent, 0, len(updates))
	now := u.clock.Now()

	for _, up := range updates {
		u.feed.ApplyStock(up.productID, up.variantID, up.stock)

		stock := up.stock
		events = append(events, model.CatalogEvent{
			EventID:   u.idGen.NewID(),
			EventType: model.CatalogEventStockChanged,
			ProductID: up.productID,
			VariantID: up.variantID,
			Stock:     &stock,
			Timestamp: now,
		})
	}

	if u.publisher == nil || len(events) == 0 {
		return
	}
	if err := u.publisher.Publish(ctx, events...); err != nil {
		u.log.Warn("publish stock events failed", zap.Int("events", len(events)), zap.Error(err))
	}
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
	}

	return OrderOutput{
		ID:           o.ID,
		Status:       string(o.Status),
		Subtotal:     o.Subtotal,
		ShippingCost: o.ShippingCost,
		Tax:          o.Tax,
		Total:        o.Total,
		CreatedAt:    o.CreatedAt,
		Items:        outItems,
	}
}
