package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// InventoryUsecase は管理者の在庫更新。
// 更新後はフィードへ反映し、Kafkaにも流して他のインスタンスへ伝える。
type InventoryUsecase struct {
	tx        repo.TransactionManager
	feed      *CatalogFeed
	publisher repo.CatalogEventPublisher
	idGen     IDGenerator
	clock     Clock
	log       *zap.Logger
}

// DI
func NewInventoryUsecase(
	tx repo.TransactionManager,
	feed *CatalogFeed,
	publisher repo.CatalogEventPublisher,
	idGen IDGenerator,
	clock Clock,
	log *zap.Logger,
) *InventoryUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &InventoryUsecase{
		tx:        tx,
		feed:      feed,
		publisher: publisher,
		idGen:     idGen,
		clock:     clock,
		log:       log,
	}
}

type UpdateStockInput struct {
	ProductID string
	VariantID string
	Stock     int64
	Reason    string
}

func (u *InventoryUsecase) AdminUpdateStock(ctx context.Context, adminUserID int64, in UpdateStockInput) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	productID := strings.TrimSpace(in.ProductID)
	variantID := strings.TrimSpace(in.VariantID)
	reason := strings.TrimSpace(in.Reason)
	if productID == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	if reason == "" {
		return NewHTTPError(http.StatusBadRequest, "reason required")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//変更前の在庫（before）
		before, err := r.Inventory().GetStock(ctx, productID, variantID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//在庫の現在値を更新
		if err := r.Inventory().SetStock(ctx, productID, variantID, in.Stock); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		now := u.clock.Now()

		//履歴を作成（差分）
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   productID,
			VariantID:   variantID,
			AdminUserID: adminUserID,
			Delta:       in.Stock - before,
			Reason:      reason,
			CreatedAt:   now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//監査ログを作成（在庫更新）
		//「誰が」「何を」「どの対象に」「どう変えたか」を残す
		resourceType, resourceID := model.AuditResourceProduct, productID
		if variantID != "" {
			resourceType, resourceID = model.AuditResourceVariant, productID+"/"+variantID
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateStock,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			BeforeJSON:   fmt.Sprintf(`{"stock":%d}`, before),
			AfterJSON:    fmt.Sprintf(`{"stock":%d}`, in.Stock),
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		return nil
	})
	if err != nil {
		return err
	}

	u.feed.ApplyStock(productID, variantID, in.Stock)

	if u.publisher != nil {
		stock := in.Stock
		if err := u.publisher.Publish(ctx, model.CatalogEvent{
			EventID:   u.idGen.NewID(),
			EventType: model.CatalogEventStockChanged,
			ProductID: productID,
			VariantID: variantID,
			Stock:     &stock,
			Timestamp: u.clock.Now(),
		}); err != nil {
			u.log.Warn("publish stock event failed", zap.String("product_id", productID), zap.Error(err))
		}
	}

	return nil
}
