package usecase_test

import (
	"context"
	"math"
	"sync"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productByID(t *testing.T, id string) model.Product {
	t.Helper()
	p, ok := model.NewCatalog(testProducts()).Lookup(id)
	require.True(t, ok)
	return p
}

// 同じ商品を何回Addしても1明細、数量=回数
func TestCartStore_Add_SameKeyMerges(t *testing.T) {
	ctx := context.Background()
	s := usecase.NewCartStore("cart:x", nil, nil)
	a := productByID(t, "A")

	for i := 0; i < 4; i++ {
		s.Add(ctx, a, nil)
	}

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, int64(4), lines[0].Quantity)
	assert.Equal(t, "Hydrating Serum", lines[0].Name)
	assert.Equal(t, "45.00", lines[0].Price.StringFixed(2))
}

// variant違いは別明細。追加順を保つ
func TestCartStore_Add_VariantsAreSeparateLines(t *testing.T) {
	ctx := context.Background()
	s := usecase.NewCartStore("cart:x", nil, nil)
	c := productByID(t, "C")
	v30, _ := c.FindVariant("30ml")
	v50, _ := c.FindVariant("50ml")

	s.Add(ctx, c, &v30)
	s.Add(ctx, productByID(t, "A"), nil)
	s.Add(ctx, c, &v50)
	s.Add(ctx, c, &v30)

	lines := s.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, model.LineKey{ProductID: "C", VariantID: "30ml"}, lines[0].Key())
	assert.Equal(t, int64(2), lines[0].Quantity)
	assert.Equal(t, "30ml", lines[0].VariantName)
	assert.Equal(t, "A", lines[1].ProductID)
	assert.Equal(t, model.LineKey{ProductID: "C", VariantID: "50ml"}, lines[2].Key())
}

// 価格は追加時点のまま
func TestCartStore_Add_KeepsPriceSnapshot(t *testing.T) {
	ctx := context.Background()
	s := usecase.NewCartStore("cart:x", nil, nil)
	a := productByID(t, "A")

	s.Add(ctx, a, nil)
	a.Price = dec("99.00")
	s.Add(ctx, a, nil)

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "45.00", lines[0].Price.StringFixed(2))
}

func TestCartStore_UpdateQuantity_FloorIsOne(t *testing.T) {
	ctx := context.Background()
	s := usecase.NewCartStore("cart:x", nil, nil)
	s.Add(ctx, productByID(t, "B"), nil)

	for _, delta := range []int64{-1, -5, 3, -100, 2, 0, -1} {
		s.UpdateQuantity(ctx, "B", "", delta)
		assert.GreaterOrEqual(t, s.Lines()[0].Quantity, int64(1))
	}
	assert.Equal(t, int64(1), s.Lines()[0].Quantity)

	s.UpdateQuantity(ctx, "B", "", 9)
	assert.Equal(t, int64(10), s.Lines()[0].Quantity)
}

func TestCartStore_UpdateQuantity_UnknownLineIsNoop(t *testing.T) {
	ctx := context.Background()
	st := newMemCartStorage()
	s := usecase.NewCartStore("cart:x", st, nil)
	s.Add(ctx, productByID(t, "B"), nil)
	saves := st.saves

	s.UpdateQuantity(ctx, "Z", "", 1)
	s.UpdateQuantity(ctx, "B", "nope", 1)
	s.Remove(ctx, "Z", "")

	assert.Equal(t, int64(1), s.Lines()[0].Quantity)
	assert.Equal(t, saves, st.saves)
}

func TestCartStore_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	s := usecase.NewCartStore("cart:x", nil, nil)
	s.Add(ctx, productByID(t, "A"), nil)
	s.Add(ctx, productByID(t, "B"), nil)

	s.Remove(ctx, "A", "")
	require.Len(t, s.Lines(), 1)
	assert.Equal(t, "B", s.Lines()[0].ProductID)

	s.Clear(ctx)
	assert.Empty(t, s.Lines())
}

func TestCartStore_PersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	st := newMemCartStorage()

	s := usecase.NewCartStore("cart:x", st, nil)
	s.Add(ctx, productByID(t, "A"), nil)
	s.Add(ctx, productByID(t, "A"), nil)
	s.Add(ctx, productByID(t, "B"), nil)

	reloaded := usecase.NewCartStore("cart:x", st, nil)
	reloaded.Load(ctx)
	assert.Equal(t, s.Lines(), reloaded.Lines())
}

// 保存データの数量0や重複はLoad時に直す
func TestCartStore_Load_SanitizesStoredLines(t *testing.T) {
	ctx := context.Background()
	st := newMemCartStorage()
	st.data["cart:x"] = []model.CartLine{
		{ProductID: "A", Price: dec("45"), Quantity: 0},
		{ProductID: "", Price: dec("1"), Quantity: 2},
		{ProductID: "B", Price: dec("10"), Quantity: 2},
		{ProductID: "A", Price: dec("45"), Quantity: 3},
	}

	s := usecase.NewCartStore("cart:x", st, nil)
	s.Load(ctx)

	lines := s.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "A", lines[0].ProductID)
	assert.Equal(t, int64(4), lines[0].Quantity)
	assert.Equal(t, "B", lines[1].ProductID)
}

// 読み書きに失敗してもメモリ上のカートで動き続ける
func TestCartStore_StorageFailuresAreTolerated(t *testing.T) {
	ctx := context.Background()
	st := newMemCartStorage()
	st.loadErr = errBoom
	st.saveErr = errBoom

	s := usecase.NewCartStore("cart:x", st, nil)
	s.Load(ctx)
	s.Add(ctx, productByID(t, "A"), nil)

	require.Len(t, s.Lines(), 1)
	assert.Equal(t, 1, st.saves)
}

func TestCartStore_LinesReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := usecase.NewCartStore("cart:x", nil, nil)
	s.Add(ctx, productByID(t, "A"), nil)

	lines := s.Lines()
	lines[0].Quantity = 99

	assert.Equal(t, int64(1), s.Lines()[0].Quantity)
}

func TestCartStore_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s := usecase.NewCartStore("cart:x", newMemCartStorage(), nil)
	a := productByID(t, "A")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(ctx, a, nil)
		}()
	}
	wg.Wait()

	require.Len(t, s.Lines(), 1)
	assert.Equal(t, int64(50), s.Lines()[0].Quantity)
}

// 大きすぎるdeltaはあふれずに上限で止まる
func TestCartStore_UpdateQuantity_SaturatesOnOverflow(t *testing.T) {
	ctx := context.Background()
	s := usecase.NewCartStore("cart:x", nil, nil)
	s.Add(ctx, productByID(t, "B"), nil)
	s.Add(ctx, productByID(t, "B"), nil)

	s.UpdateQuantity(ctx, "B", "", math.MaxInt64)
	assert.Equal(t, int64(math.MaxInt64), s.Lines()[0].Quantity)

	s.UpdateQuantity(ctx, "B", "", math.MinInt64)
	assert.Equal(t, int64(1), s.Lines()[0].Quantity)
}

// 注文した分だけ外す。増えた分と後から入った明細は残る
func TestCartStore_RemoveOrdered(t *testing.T) {
	ctx := context.Background()
	st := newMemCartStorage()
	s := usecase.NewCartStore("cart:x", st, nil)
	s.Add(ctx, productByID(t, "A"), nil)
	s.Add(ctx, productByID(t, "B"), nil)
	ordered := s.Lines()

	s.UpdateQuantity(ctx, "B", "", 2)
	s.Add(ctx, productByID(t, "C"), &model.Variant{ID: "30ml", Name: "30ml"})

	s.RemoveOrdered(ctx, ordered)

	lines := s.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "B", lines[0].ProductID)
	assert.Equal(t, int64(2), lines[0].Quantity)
	assert.Equal(t, model.LineKey{ProductID: "C", VariantID: "30ml"}, lines[1].Key())
	assert.Equal(t, lines, st.data["cart:x"])
}

func TestCartStore_RemoveOrdered_NothingMatchesIsNoop(t *testing.T) {
	ctx := context.Background()
	st := newMemCartStorage()
	s := usecase.NewCartStore("cart:x", st, nil)
	s.Add(ctx, productByID(t, "A"), nil)
	saves := st.saves

	s.RemoveOrdered(ctx, []model.CartLine{{ProductID: "Z", Quantity: 1}})

	require.Len(t, s.Lines(), 1)
	assert.Equal(t, saves, st.saves)
}
