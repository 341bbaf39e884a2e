package service

import (
	"context"
	"strings"

	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogStore is the persistence surface the catalog service needs
type CatalogStore interface {
	ListProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	SetProductSizes(ctx context.Context, productID int64, sizeIDs []int64) error
	ListSizes(ctx context.Context) ([]models.Size, error)
}

// CatalogService handles product catalog reads and the administrator
// write path
type CatalogService struct {
	store  CatalogStore
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// ProductListing is a product row decorated with its effective display
// price
type ProductListing struct {
	models.Product
	DisplayPrice decimal.Decimal `json:"display_price"`
}

// ListProducts returns products matching the filter. The display price
// is computed from the latest stored row at read time.
func (s *CatalogService) ListProducts(ctx context.Context, filter store.ProductFilter) ([]ProductListing, error) {
	if filter.Sort != models.SortNone &&
		filter.Sort != models.SortPriceAsc &&
		filter.Sort != models.SortPriceDesc {
		return nil, &ValidationError{Field: "sort", Reason: "must be price_asc or price_desc"}
	}

	products, err := s.store.ListProducts(ctx, filter)
	if err != nil {
		return nil, err
	}

	listings := make([]ProductListing, 0, len(products))
	for i := range products {
		listings = append(listings, ProductListing{
			Product:      products[i],
			DisplayPrice: products[i].DisplayPrice(),
		})
	}
	return listings, nil
}

// GetProduct returns one product with its sizes
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*ProductListing, error) {
	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ProductListing{Product: *product, DisplayPrice: product.DisplayPrice()}, nil
}

// ListSizes returns the size labels available for product assignment
func (s *CatalogService) ListSizes(ctx context.Context) ([]models.Size, error) {
	return s.store.ListSizes(ctx)
}

// CreateProductRequest carries the administrator's product fields
type CreateProductRequest struct {
	Category    string              `json:"category"`
	Name        string              `json:"name"`
	Price       decimal.Decimal     `json:"price"`
	SKU         string              `json:"sku"`
	Description string              `json:"description"`
	ImageMain   string              `json:"image_main"`
	ImageThumb1 *string             `json:"image_thumb1,omitempty"`
	ImageThumb2 *string             `json:"image_thumb2,omitempty"`
	ImageThumb3 *string             `json:"image_thumb3,omitempty"`
	Stock       int                 `json:"stock"`
	IsOnSale    bool                `json:"is_on_sale"`
	SalePrice   decimal.NullDecimal `json:"sale_price,omitempty"`
	SizeIDs     []int64             `json:"size_ids,omitempty"`
}

func (r *CreateProductRequest) validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return missingField("name")
	case strings.TrimSpace(r.SKU) == "":
		return missingField("sku")
	case strings.TrimSpace(r.Category) == "":
		return missingField("category")
	case r.Price.IsNegative():
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	case r.Stock < 0:
		return &ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	return nil
}

// CreateProduct inserts a new product on behalf of an administrator. A
// duplicate SKU surfaces as store.ErrDuplicateSKU.
func (s *CatalogService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	product := &models.Product{
		Category:    req.Category,
		Name:        req.Name,
		Price:       req.Price,
		SKU:         req.SKU,
		Description: req.Description,
		ImageMain:   req.ImageMain,
		ImageThumb1: req.ImageThumb1,
		ImageThumb2: req.ImageThumb2,
		ImageThumb3: req.ImageThumb3,
		Stock:       req.Stock,
		IsOnSale:    req.IsOnSale,
		SalePrice:   req.SalePrice,
	}

	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	if len(req.SizeIDs) > 0 {
		if err := s.store.SetProductSizes(ctx, product.ID, req.SizeIDs); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.String("sku", product.SKU))
	return product, nil
}

// UpdateProduct updates an existing product on behalf of an
// administrator
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, req *CreateProductRequest) (*models.Product, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Category = req.Category
	product.Name = req.Name
	product.Price = req.Price
	product.Description = req.Description
	product.ImageMain = req.ImageMain
	product.ImageThumb1 = req.ImageThumb1
	product.ImageThumb2 = req.ImageThumb2
	product.ImageThumb3 = req.ImageThumb3
	product.Stock = req.Stock
	product.IsOnSale = req.IsOnSale
	product.SalePrice = req.SalePrice

	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}

	if req.SizeIDs != nil {
		if err := s.store.SetProductSizes(ctx, product.ID, req.SizeIDs); err != nil {
			return nil, err
		}
	}

	return product, nil
}
