package usecase

import (
	"context"
	"fmt"
	"net/http"

	"storefront/internal/clients"
	"storefront/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const maxProductFetches = 8

type OrderUseCase interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
}

type orderUseCase struct {
	session SessionReader
	userID  int
	log     *logrus.Logger
}

func NewOrderUseCase(session SessionReader, userID int, logger *logrus.Logger) OrderUseCase {
	return &orderUseCase{
		session: session,
		userID:  userID,
		log:     logger,
	}
}

// ListOrders returns the user's carts with product details. A product that fails
// to load becomes a placeholder line instead of failing the whole listing.
func (uc *orderUseCase) ListOrders(ctx context.Context) ([]domain.Order, error) {
	if !uc.session.IsAuthenticated() {
		return nil, domain.ErrNotAuthenticated
	}

	client := uc.session.Client()
	carts, err := client.ListUserCarts(ctx, uc.userID)
	if err != nil {
		if clients.StatusCode(err) == http.StatusUnauthorized {
			return nil, uc.session.HandleUnauthorized(ctx, err)
		}
		uc.log.Errorf("Use Case: Failed to list carts for user %d: %v", uc.userID, err)
		return nil, fmt.Errorf("could not load orders: %w", err)
	}
	if len(carts) == 0 {
		uc.log.Infof("Use Case: No carts found for user %d", uc.userID)
		return []domain.Order{}, nil
	}

	orders := make([]domain.Order, len(carts))
	for i, cart := range carts {
		orders[i] = domain.Order{
			ID:     cart.ID,
			UserID: cart.UserID,
			Date:   cart.Date,
			Lines:  make([]domain.OrderLine, len(cart.Products)),
		}
	}

	// Each goroutine writes only its own orders[i].Lines[j].
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxProductFetches)
	for i, cart := range carts {
		for j, item := range cart.Products {
			i, j, item := i, j, item
			g.Go(func() error {
				orders[i].Lines[j] = uc.loadLine(gctx, client, item)
				return nil
			})
		}
	}
	_ = g.Wait()

	for i := range orders {
		sub := decimal.Zero
		for _, line := range orders[i].Lines {
			sub = sub.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
		orders[i].Subtotal = sub
	}

	uc.log.Infof("Use Case: Loaded %d orders for user %d", len(orders), uc.userID)
	return orders, nil
}

func (uc *orderUseCase) loadLine(ctx context.Context, client clients.StoreClient, item domain.RemoteCartItem) domain.OrderLine {
	product, err := client.GetProduct(ctx, item.ProductID)
	if err != nil {
		uc.log.Warnf("Use Case: Failed to load product %d for order line: %v", item.ProductID, err)
		return domain.OrderLine{
			ProductID: item.ProductID,
			Title:     domain.PlaceholderTitle,
			Price:     decimal.Zero,
			Quantity:  item.Quantity,
			Failed:    true,
		}
	}
	return domain.OrderLine{
		ProductID: product.ID,
		Title:     product.Title,
		Price:     product.Price,
		Image:     product.Image,
		Quantity:  item.Quantity,
	}
}
