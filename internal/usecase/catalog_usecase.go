package usecase

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/sirupsen/logrus"
)

// CatalogUseCase forwards catalog queries to the store API unmodified.
type CatalogUseCase interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListProductsByCategory(ctx context.Context, category string) ([]domain.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	GetProduct(ctx context.Context, productID int) (*domain.Product, error)

	Browse(ctx context.Context, category string, page int) (*domain.ProductPage, error)
	Paginate(products []domain.Product, page int) domain.ProductPage
}

type catalogUseCase struct {
	session  SessionReader
	pageSize int
	log      *logrus.Logger
}

func NewCatalogUseCase(session SessionReader, pageSize int, logger *logrus.Logger) CatalogUseCase {
	if pageSize < 1 {
		pageSize = 1
	}
	return &catalogUseCase{
		session:  session,
		pageSize: pageSize,
		log:      logger,
	}
}

func (uc *catalogUseCase) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := uc.session.Client().ListProducts(ctx)
	if err != nil {
		uc.log.Warnf("Use Case: Failed to list products: %v", err)
		return nil, fmt.Errorf("could not list products: %w", err)
	}
	return products, nil
}

func (uc *catalogUseCase) ListProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	if category == "" {
		return nil, fmt.Errorf("%w: category cannot be empty", domain.ErrValidation)
	}
	products, err := uc.session.Client().ListProductsByCategory(ctx, category)
	if err != nil {
		uc.log.Warnf("Use Case: Failed to list products for category '%s': %v", category, err)
		return nil, fmt.Errorf("could not list products for category %s: %w", category, err)
	}
	return products, nil
}

func (uc *catalogUseCase) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := uc.session.Client().ListCategories(ctx)
	if err != nil {
		uc.log.Warnf("Use Case: Failed to list categories: %v", err)
		return nil, fmt.Errorf("could not list categories: %w", err)
	}
	return categories, nil
}

func (uc *catalogUseCase) GetProduct(ctx context.Context, productID int) (*domain.Product, error) {
	if productID <= 0 {
		uc.log.Warnf("Use Case: Attempted to get product with invalid ID: %d", productID)
		return nil, fmt.Errorf("%w: invalid product ID", domain.ErrValidation)
	}
	product, err := uc.session.Client().GetProduct(ctx, productID)
	if err != nil {
		if !errors.Is(err, domain.ErrProductNotFound) {
			uc.log.Warnf("Use Case: Failed to get product ID %d: %v", productID, err)
		}
		return nil, err
	}
	return product, nil
}

// Browse lists all products, or one category when category is set, and returns the requested page.
func (uc *catalogUseCase) Browse(ctx context.Context, category string, page int) (*domain.ProductPage, error) {
	var (
		products []domain.Product
		err      error
	)
	if category == "" {
		products, err = uc.ListProducts(ctx)
	} else {
		products, err = uc.ListProductsByCategory(ctx, category)
	}
	if err != nil {
		return nil, err
	}

	result := uc.Paginate(products, page)
	return &result, nil
}

// Paginate slices products into fixed-size pages. Out-of-range pages clamp to the first or last page;
// an empty listing is always page 1.
func (uc *catalogUseCase) Paginate(products []domain.Product, page int) domain.ProductPage {
	total := len(products)
	totalPages := (total + uc.pageSize - 1) / uc.pageSize

	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * uc.pageSize
	end := start + uc.pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	items := make([]domain.Product, end-start)
	copy(items, products[start:end])

	return domain.ProductPage{
		Items:      items,
		Page:       page,
		PageSize:   uc.pageSize,
		TotalPages: totalPages,
		TotalItems: total,
	}
}
