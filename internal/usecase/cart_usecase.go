package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"storefront/internal/clients"
	"storefront/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// SessionReader is the part of the session the cart depends on.
type SessionReader interface {
	IsAuthenticated() bool
	Client() clients.StoreClient
	HandleUnauthorized(ctx context.Context, err error) error
}

type CartUseCase interface {
	AddOrIncrement(ctx context.Context, productID int) error
	Remove(ctx context.Context, productID int)
	SetQuantity(ctx context.Context, productID, quantity int) error
	Clear(ctx context.Context)
	Restore(ctx context.Context)

	Lines() []domain.CartLine
	TotalItemCount() int
	Subtotal() decimal.Decimal
	TotalPrice() decimal.Decimal
	Summary() domain.CartSummary
}

type cartUseCase struct {
	mu    sync.RWMutex
	lines []domain.CartLine

	fetches   singleflight.Group
	session   SessionReader
	stateRepo domain.StateRepository
	shipping  decimal.Decimal
	log       *logrus.Logger
}

func NewCartUseCase(session SessionReader, stateRepo domain.StateRepository, shipping decimal.Decimal, logger *logrus.Logger) CartUseCase {
	return &cartUseCase{
		session:   session,
		stateRepo: stateRepo,
		shipping:  shipping,
		log:       logger,
	}
}

// AddOrIncrement is a silent no-op for anonymous sessions.
func (uc *cartUseCase) AddOrIncrement(ctx context.Context, productID int) error {
	if !uc.session.IsAuthenticated() {
		uc.log.Debugf("Use Case: Ignoring add of product %d for anonymous session", productID)
		return nil
	}

	if uc.incrementIfPresent(ctx, productID) {
		return nil
	}

	// Concurrent adds of the same absent product share one fetch. It runs detached from
	// the first caller's cancellation; the client timeout still bounds it.
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := uc.fetches.Do(strconv.Itoa(productID), func() (interface{}, error) {
		return uc.session.Client().GetProduct(fetchCtx, productID)
	})
	if err != nil {
		err = uc.session.HandleUnauthorized(ctx, err)
		uc.log.Warnf("Use Case: Failed to fetch product %d for cart: %v", productID, err)
		return fmt.Errorf("could not add product %d to cart: %w", productID, err)
	}
	product := v.(*domain.Product)

	uc.mu.Lock()
	defer uc.mu.Unlock()
	// Logout drops the token before its Clear hook takes this lock, so a session seen
	// here as authenticated has not been cleared yet.
	if !uc.session.IsAuthenticated() {
		uc.log.Debugf("Use Case: Session ended while fetching product %d, dropping add", productID)
		return nil
	}
	if idx := uc.indexOf(productID); idx >= 0 {
		uc.lines[idx].Quantity++
	} else {
		uc.lines = append(uc.lines, domain.CartLine{Product: *product, Quantity: 1})
		uc.log.Infof("Use Case: Added product %d ('%s') to cart", productID, product.Title)
	}
	uc.persistLocked(ctx)
	return nil
}

func (uc *cartUseCase) incrementIfPresent(ctx context.Context, productID int) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	idx := uc.indexOf(productID)
	if idx < 0 {
		return false
	}
	uc.lines[idx].Quantity++
	uc.log.Debugf("Use Case: Incremented product %d to quantity %d", productID, uc.lines[idx].Quantity)
	uc.persistLocked(ctx)
	return true
}

func (uc *cartUseCase) Remove(ctx context.Context, productID int) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	idx := uc.indexOf(productID)
	if idx < 0 {
		return
	}
	uc.lines = append(uc.lines[:idx:idx], uc.lines[idx+1:]...)
	uc.log.Infof("Use Case: Removed product %d from cart", productID)
	uc.persistLocked(ctx)
}

// SetQuantity rejects quantities below 1 instead of removing the line.
func (uc *cartUseCase) SetQuantity(ctx context.Context, productID, quantity int) error {
	if quantity < 1 {
		uc.log.Warnf("Use Case: Rejected quantity %d for product %d", quantity, productID)
		return fmt.Errorf("product %d: %w", productID, domain.ErrInvalidQuantity)
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	idx := uc.indexOf(productID)
	if idx < 0 {
		return fmt.Errorf("product %d: %w", productID, domain.ErrLineNotFound)
	}
	uc.lines[idx].Quantity = quantity
	uc.persistLocked(ctx)
	return nil
}

func (uc *cartUseCase) Clear(ctx context.Context) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.lines = nil
	uc.log.Info("Use Case: Cart cleared")
	uc.persistLocked(ctx)
}

// Restore loads the persisted cart. Missing or unreadable state yields an empty cart.
func (uc *cartUseCase) Restore(ctx context.Context) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.lines = nil
	data, err := uc.stateRepo.Get(ctx, domain.CartKey)
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			uc.log.Warnf("Use Case: Could not read persisted cart, starting empty: %v", err)
		}
		return
	}

	var lines []domain.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		uc.log.Warnf("Use Case: Persisted cart is unreadable, starting empty: %v", err)
		return
	}
	for _, line := range lines {
		if line.Quantity < 1 {
			uc.log.Warnf("Use Case: Skipping persisted line for product %d with quantity %d", line.ID, line.Quantity)
			continue
		}
		uc.lines = append(uc.lines, line)
	}
	uc.log.Infof("Use Case: Restored cart with %d lines", len(uc.lines))
}

func (uc *cartUseCase) Lines() []domain.CartLine {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	out := make([]domain.CartLine, len(uc.lines))
	copy(out, uc.lines)
	return out
}

func (uc *cartUseCase) TotalItemCount() int {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return itemCount(uc.lines)
}

func (uc *cartUseCase) Subtotal() decimal.Decimal {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return subtotal(uc.lines)
}

// TotalPrice is the subtotal plus shipping; shipping only applies to a non-empty cart.
func (uc *cartUseCase) TotalPrice() decimal.Decimal {
	return uc.Summary().Total
}

func (uc *cartUseCase) Summary() domain.CartSummary {
	lines := uc.Lines()

	sub := subtotal(lines)
	shipping := decimal.Zero
	if len(lines) > 0 {
		shipping = uc.shipping
	}
	return domain.CartSummary{
		Lines:     lines,
		ItemCount: itemCount(lines),
		Subtotal:  sub,
		Shipping:  shipping,
		Total:     sub.Add(shipping),
	}
}

func (uc *cartUseCase) indexOf(productID int) int {
	for i, line := range uc.lines {
		if line.ID == productID {
			return i
		}
	}
	return -1
}

// persistLocked writes the whole cart. Failures are logged and the in-memory state stands.
func (uc *cartUseCase) persistLocked(ctx context.Context) {
	lines := uc.lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to encode cart: %v", err)
		return
	}
	if err := uc.stateRepo.Set(ctx, domain.CartKey, data); err != nil {
		uc.log.Warnf("Use Case: Failed to persist cart: %v", err)
	}
}

func itemCount(lines []domain.CartLine) int {
	total := 0
	for _, line := range lines {
		total += line.Quantity
	}
	return total
}

func subtotal(lines []domain.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.LineTotal())
	}
	return total
}
