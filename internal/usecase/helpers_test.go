package usecase_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// helper
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

func assertHTTPStatus(t *testing.T, err error, status int) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok, "err=%v", err) {
		assert.Equal(t, status, he.Status)
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testRules() config.CartConfig {
	return config.DefaultCartConfig()
}

// A: 45.00 在庫3（variantなし） / B: 10.00 在庫5 / C: 30.00 variantあり / D: 下書き
func testProducts() []model.Product {
	return []model.Product{
		{ID: "A", Name: "Hydrating Serum", Price: dec("45.00"), Status: model.ProductStatusActive, Stock: 3, Category: "serum", Tags: []string{"hydration"}},
		{ID: "B", Name: "Lip Balm", Price: dec("10.00"), Status: model.ProductStatusActive, Stock: 5, Category: "lips"},
		{ID: "C", Name: "Night Cream", Price: dec("30.00"), Status: model.ProductStatusActive, Category: "cream",
			Variants: []model.Variant{{ID: "30ml", Name: "30ml", Stock: 2}, {ID: "50ml", Name: "50ml", Stock: 0}}},
		{ID: "D", Name: "Draft Toner", Price: dec("20.00"), Status: model.ProductStatusDraft, Stock: 10},
	}
}

func newTestFeed(products []model.Product) *usecase.CatalogFeed {
	feed := usecase.NewCatalogFeed()
	feed.Publish(model.NewCatalog(products))
	return feed
}

type fixedIDGen struct {
	mu sync.Mutex
	n  int
}

func (g *fixedIDGen) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return "id-" + strconv.Itoa(g.n)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// =====================
// CartStorage（メモリ）
// =====================

type memCartStorage struct {
	mu      sync.Mutex
	data    map[string][]model.CartLine
	loads   int
	saves   int
	saveErr error
	loadErr error
}

func newMemCartStorage() *memCartStorage {
	return &memCartStorage{data: map[string][]model.CartLine{}}
}

func (s *memCartStorage) Load(_ context.Context, key string) ([]model.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	lines := s.data[key]
	out := make([]model.CartLine, len(lines))
	copy(out, lines)
	return out, nil
}

func (s *memCartStorage) Save(_ context.Context, key string, lines []model.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	out := make([]model.CartLine, len(lines))
	copy(out, lines)
	s.data[key] = out
	return nil
}

var errBoom = errors.New("boom")

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
// AfterTx はtx本体の直後（コミット相当）に呼ばれる。割り込みの再現用
type TxManagerMock struct {
	mock.Mock
	Repos   repo.TxRepos
	AfterTx func()
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.Called(ctx)
	err := fn(m.Repos)
	if err == nil && m.AfterTx != nil {
		m.AfterTx()
	}
	return err
}

type TxReposMock struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	inventory  repo.InventoryRepository
	auditLogs  repo.AuditLogRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository         { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *TxReposMock) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository   { return r.auditLogs }

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *OrderRepoMock) FindByIdempotencyKey(ctx context.Context, sessionID string, key string) (model.Order, bool, error) {
	args := m.Called(ctx, sessionID, key)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) GetStock(ctx context.Context, productID string, variantID string) (int64, error) {
	args := m.Called(ctx, productID, variantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *InventoryRepoMock) SetStock(ctx context.Context, productID string, variantID string, newStock int64) error {
	args := m.Called(ctx, productID, variantID, newStock)
	return args.Error(0)
}

func (m *InventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID string, variantID string, qty int64) (int64, bool, error) {
	args := m.Called(ctx, productID, variantID, qty)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *InventoryRepoMock) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, events ...model.CatalogEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) ListCatalog(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}
