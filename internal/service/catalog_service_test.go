package service

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"storefront-service/internal/models"
	"storefront-service/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalogStore implements CatalogStore with the same filter
// semantics as the SQL store
type fakeCatalogStore struct {
	products []models.Product
	nextID   int64
}

func (f *fakeCatalogStore) ListProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, error) {
	var out []models.Product
	for _, p := range f.products {
		if len(filter.Categories) > 0 {
			matched := false
			for _, c := range filter.Categories {
				if p.Category == c {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		if filter.MaxPrice != nil && p.Price.GreaterThan(*filter.MaxPrice) {
			continue
		}
		out = append(out, p)
	}

	switch filter.Sort {
	case models.SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case models.SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	}
	return out, nil
}

func (f *fakeCatalogStore) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			p := f.products[i]
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeCatalogStore) CreateProduct(ctx context.Context, product *models.Product) error {
	for _, p := range f.products {
		if p.SKU == product.SKU {
			return fmt.Errorf("sku %q: %w", product.SKU, store.ErrDuplicateSKU)
		}
	}
	f.nextID++
	product.ID = f.nextID
	f.products = append(f.products, *product)
	return nil
}

func (f *fakeCatalogStore) UpdateProduct(ctx context.Context, product *models.Product) error {
	for i := range f.products {
		if f.products[i].ID == product.ID {
			f.products[i] = *product
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeCatalogStore) SetProductSizes(ctx context.Context, productID int64, sizeIDs []int64) error {
	return nil
}

func (f *fakeCatalogStore) ListSizes(ctx context.Context) ([]models.Size, error) {
	return []models.Size{{ID: 1, Name: "S"}, {ID: 2, Name: "M"}, {ID: 3, Name: "L"}}, nil
}

func catalogFixture() *fakeCatalogStore {
	return &fakeCatalogStore{
		nextID: 3,
		products: []models.Product{
			{ID: 1, Category: "shirts", Name: "Cheap Shirt", SKU: "S-15",
				Price: decimal.RequireFromString("15.00")},
			{ID: 2, Category: "shirts", Name: "Mid Shirt", SKU: "S-25",
				Price: decimal.RequireFromString("25.00")},
			{ID: 3, Category: "hats", Name: "Fancy Hat", SKU: "H-35",
				Price: decimal.RequireFromString("35.00")},
		},
	}
}

func TestListProductsMaxPriceInclusive(t *testing.T) {
	svc := NewCatalogService(catalogFixture())

	maxPrice := decimal.RequireFromString("25")
	listings, err := svc.ListProducts(context.Background(), store.ProductFilter{MaxPrice: &maxPrice})
	require.NoError(t, err)

	require.Len(t, listings, 2, "max_price=25 over [15, 25, 35] must return two products")
	assert.Equal(t, "S-15", listings[0].SKU)
	assert.Equal(t, "S-25", listings[1].SKU)
}

func TestListProductsSortDescending(t *testing.T) {
	svc := NewCatalogService(catalogFixture())

	maxPrice := decimal.RequireFromString("25")
	listings, err := svc.ListProducts(context.Background(), store.ProductFilter{
		MaxPrice: &maxPrice,
		Sort:     models.SortPriceDesc,
	})
	require.NoError(t, err)

	require.Len(t, listings, 2)
	assert.True(t, listings[0].Price.Equal(decimal.RequireFromString("25.00")))
	assert.True(t, listings[1].Price.Equal(decimal.RequireFromString("15.00")))
}

func TestListProductsCategoriesORMatched(t *testing.T) {
	svc := NewCatalogService(catalogFixture())

	listings, err := svc.ListProducts(context.Background(), store.ProductFilter{
		Categories: []string{"hats", "jackets"},
	})
	require.NoError(t, err)

	require.Len(t, listings, 1)
	assert.Equal(t, "Fancy Hat", listings[0].Name)
}

func TestListProductsInvalidSort(t *testing.T) {
	svc := NewCatalogService(catalogFixture())

	_, err := svc.ListProducts(context.Background(), store.ProductFilter{Sort: "name_asc"})
	verr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "sort", verr.Field)
}

func TestListProductsDisplayPriceUsesSale(t *testing.T) {
	st := catalogFixture()
	st.products[0].IsOnSale = true
	st.products[0].SalePrice = decimal.NullDecimal{
		Decimal: decimal.RequireFromString("9.99"), Valid: true,
	}
	svc := NewCatalogService(st)

	listings, err := svc.ListProducts(context.Background(), store.ProductFilter{})
	require.NoError(t, err)

	assert.True(t, listings[0].DisplayPrice.Equal(decimal.RequireFromString("9.99")))
	assert.True(t, listings[1].DisplayPrice.Equal(listings[1].Price),
		"products not on sale display the base price")
}

func TestGetProductNotFound(t *testing.T) {
	svc := NewCatalogService(catalogFixture())

	_, err := svc.GetProduct(context.Background(), 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewCatalogService(catalogFixture())

	_, err := svc.CreateProduct(context.Background(), &CreateProductRequest{
		Category: "shirts", Price: decimal.RequireFromString("10.00"), SKU: "S-NEW",
	})
	verr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "name", verr.Field)
}

func TestCreateProductDuplicateSKURejected(t *testing.T) {
	st := catalogFixture()
	svc := NewCatalogService(st)

	_, err := svc.CreateProduct(context.Background(), &CreateProductRequest{
		Category: "shirts", Name: "Another Shirt",
		Price: decimal.RequireFromString("10.00"), SKU: "S-15",
	})
	assert.ErrorIs(t, err, store.ErrDuplicateSKU)
	assert.Len(t, st.products, 3, "conflicting product must not be stored")
}
