package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type inventoryFixture struct {
	tx        *TxManagerMock
	inventory *InventoryRepoMock
	audit     *AuditRepoMock
	publisher *PublisherMock
	feed      *usecase.CatalogFeed
	uc        *usecase.InventoryUsecase
}

func newInventoryFixture() *inventoryFixture {
	f := &inventoryFixture{
		inventory: new(InventoryRepoMock),
		audit:     new(AuditRepoMock),
		publisher: new(PublisherMock),
		feed:      newTestFeed(testProducts()),
	}
	f.tx = &TxManagerMock{Repos: &TxReposMock{
		orders:     new(OrderRepoMock),
		orderItems: new(OrderItemRepoMock),
		inventory:  f.inventory,
		auditLogs:  f.audit,
	}}
	f.uc = usecase.NewInventoryUsecase(f.tx, f.feed, f.publisher, &fixedIDGen{}, fixedClock{t: testNow}, zap.NewNop())
	return f
}

func TestInventoryUsecase_AdminUpdateStock_Validation(t *testing.T) {
	f := newInventoryFixture()
	ctx := context.Background()

	tests := []struct {
		name    string
		adminID int64
		in      usecase.UpdateStockInput
		status  int
		want    string
	}{
		{name: "no admin", adminID: 0, in: usecase.UpdateStockInput{ProductID: "A", Stock: 1, Reason: "r"}, status: http.StatusUnauthorized, want: "unauthorized"},
		{name: "no product", adminID: 1, in: usecase.UpdateStockInput{ProductID: "", Stock: 1, Reason: "r"}, status: http.StatusBadRequest, want: "invalid product id"},
		{name: "negative", adminID: 1, in: usecase.UpdateStockInput{ProductID: "A", Stock: -1, Reason: "r"}, status: http.StatusBadRequest, want: "stock must be >= 0"},
		{name: "no reason", adminID: 1, in: usecase.UpdateStockInput{ProductID: "A", Stock: 1, Reason: " "}, status: http.StatusBadRequest, want: "reason required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.uc.AdminUpdateStock(ctx, tt.adminID, tt.in)
			assertErrContains(t, err, tt.want)
			assertHTTPStatus(t, err, tt.status)
		})
	}
	f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestInventoryUsecase_AdminUpdateStock_Success(t *testing.T) {
	f := newInventoryFixture()

	f.tx.On("WithinTx", mock.Anything).Return()
	f.inventory.On("GetStock", mock.Anything, "C", "50ml").Return(int64(0), nil)
	f.inventory.On("SetStock", mock.Anything, "C", "50ml", int64(12)).Return(nil)
	f.inventory.On("CreateAdjustment", mock.Anything, mock.MatchedBy(func(a model.InventoryAdjustment) bool {
		return a.ProductID == "C" && a.VariantID == "50ml" && a.AdminUserID == 7 && a.Delta == 12 && a.Reason == "restock"
	})).Return(nil)
	f.audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpdateStock &&
			l.ResourceType == model.AuditResourceVariant &&
			l.ResourceID == "C/50ml" &&
			l.BeforeJSON == `{"stock":0}` &&
			l.AfterJSON == `{"stock":12}`
	})).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(events []model.CatalogEvent) bool {
		return len(events) == 1 && events[0].VariantID == "50ml" && *events[0].Stock == 12
	})).Return(nil)

	err := f.uc.AdminUpdateStock(context.Background(), 7, usecase.UpdateStockInput{
		ProductID: "C", VariantID: "50ml", Stock: 12, Reason: "restock",
	})
	require.NoError(t, err)

	c, _ := f.feed.Current().Lookup("C")
	v, _ := c.FindVariant("50ml")
	assert.Equal(t, int64(12), v.Stock)

	f.inventory.AssertExpectations(t)
	f.audit.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestInventoryUsecase_AdminUpdateStock_NotFound(t *testing.T) {
	f := newInventoryFixture()

	f.tx.On("WithinTx", mock.Anything).Return()
	f.inventory.On("GetStock", mock.Anything, "Z", "").Return(int64(0), repo.ErrNotFound)

	err := f.uc.AdminUpdateStock(context.Background(), 1, usecase.UpdateStockInput{ProductID: "Z", Stock: 1, Reason: "r"})
	assertHTTPStatus(t, err, http.StatusNotFound)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

// Kafkaへの送信失敗は更新自体を失敗にしない
func TestInventoryUsecase_AdminUpdateStock_PublishFailureIgnored(t *testing.T) {
	f := newInventoryFixture()

	f.tx.On("WithinTx", mock.Anything).Return()
	f.inventory.On("GetStock", mock.Anything, "A", "").Return(int64(3), nil)
	f.inventory.On("SetStock", mock.Anything, "A", "", int64(1)).Return(nil)
	f.inventory.On("CreateAdjustment", mock.Anything, mock.MatchedBy(func(a model.InventoryAdjustment) bool {
		return a.Delta == -2
	})).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(errBoom)

	err := f.uc.AdminUpdateStock(context.Background(), 1, usecase.UpdateStockInput{ProductID: "A", Stock: 1, Reason: "damaged"})
	require.NoError(t, err)

	a, _ := f.feed.Current().Lookup("A")
	assert.Equal(t, int64(1), a.Stock)
}
