package usecase

import (
	"context"
	"math"
	"testing"

	"storefront/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogProducts(n int) []domain.Product {
	out := make([]domain.Product, n)
	for i := range out {
		out[i] = product(i+1, "1.00")
	}
	return out
}

func TestPaginate(t *testing.T) {
	env := newTestEnv(t)
	catalog := NewCatalogUseCase(env.session, 4, newTestLogger())
	products := catalogProducts(10)

	tests := []struct {
		name      string
		products  []domain.Product
		page      int
		wantPage  int
		wantIDs   []int
		wantPages int
	}{
		{name: "first page", products: products, page: 1, wantPage: 1, wantIDs: []int{1, 2, 3, 4}, wantPages: 3},
		{name: "partial last page", products: products, page: 3, wantPage: 3, wantIDs: []int{9, 10}, wantPages: 3},
		{name: "page below one clamps to first", products: products, page: 0, wantPage: 1, wantIDs: []int{1, 2, 3, 4}, wantPages: 3},
		{name: "page past the end clamps to last", products: products, page: 9, wantPage: 3, wantIDs: []int{9, 10}, wantPages: 3},
		{name: "empty catalog", products: nil, page: 2, wantPage: 1, wantIDs: nil, wantPages: 0},
		{name: "huge page on empty catalog", products: nil, page: math.MaxInt / 6, wantPage: 1, wantIDs: nil, wantPages: 0},
		{name: "huge page clamps to last", products: products, page: math.MaxInt / 6, wantPage: 3, wantIDs: []int{9, 10}, wantPages: 3},
		{name: "most negative page", products: products, page: math.MinInt, wantPage: 1, wantIDs: []int{1, 2, 3, 4}, wantPages: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := catalog.Paginate(tt.products, tt.page)

			var ids []int
			for _, p := range got.Items {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantPages, got.TotalPages)
			assert.Equal(t, len(tt.products), got.TotalItems)
			assert.Equal(t, 4, got.PageSize)
		})
	}
}

func TestBrowse(t *testing.T) {
	ctx := context.Background()
	jewel := product(5, "120.00")
	jewel.Category = "jewelery"
	env := newTestEnv(t, product(1, "10.00"), product(2, "20.00"), jewel)
	catalog := NewCatalogUseCase(env.session, 2, newTestLogger())

	page, err := catalog.Browse(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 5, page.Items[0].ID)
	assert.Equal(t, 3, page.TotalItems)

	page, err = catalog.Browse(ctx, "jewelery", 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "jewelery", page.Items[0].Category)

	env.store.unavailable = true
	_, err = catalog.Browse(ctx, "", 1)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}

func TestCatalogValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, product(1, "10.00"))
	catalog := NewCatalogUseCase(env.session, 12, newTestLogger())

	_, err := catalog.GetProduct(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = catalog.ListProductsByCategory(ctx, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = catalog.GetProduct(ctx, 77)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	p, err := catalog.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Product 1", p.Title)

	categories, err := catalog.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"electronics", "jewelery"}, categories)
}
