package mocks

import (
	"context"
	"sync"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
)

// MemoryOrders is an in-memory ports.OrderRepository.
// ApplyStatus skips an update matching the latest history row, as the postgres repository does.
type MemoryOrders struct {
	orders   map[int64]domain.Order
	products map[int64][]domain.OrderProduct
	totals   map[int64][]domain.OrderTotal
	status   map[int64]int
	History  map[int64][]domain.OrderStatusUpdate
	applyErr error
	mu       sync.Mutex
}

// NewMemoryOrders seeds the store with orders
func NewMemoryOrders(orders ...domain.Order) *MemoryOrders {
	m := &MemoryOrders{
		orders:   make(map[int64]domain.Order),
		products: make(map[int64][]domain.OrderProduct),
		totals:   make(map[int64][]domain.OrderTotal),
		status:   make(map[int64]int),
		History:  make(map[int64][]domain.OrderStatusUpdate),
	}
	for _, o := range orders {
		m.orders[o.OrderID] = o
	}
	return m
}

// SetLines seeds the products and totals of an order
func (m *MemoryOrders) SetLines(orderID int64, products []domain.OrderProduct, totals []domain.OrderTotal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[orderID] = products
	m.totals[orderID] = totals
}

// FailNextApply makes the next ApplyStatus call return err without writing
func (m *MemoryOrders) FailNextApply(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyErr = err
}

func (m *MemoryOrders) GetOrder(_ context.Context, orderID int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &o, nil
}

func (m *MemoryOrders) ApplyStatus(_ context.Context, update domain.OrderStatusUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.applyErr; err != nil {
		m.applyErr = nil
		return false, err
	}
	if _, ok := m.orders[update.OrderID]; !ok {
		return false, domain.ErrOrderNotFound
	}
	history := m.History[update.OrderID]
	if n := len(history); n > 0 && history[n-1].StatusID == update.StatusID && history[n-1].Comment == update.Comment {
		return false, nil
	}
	m.status[update.OrderID] = update.StatusID
	m.History[update.OrderID] = append(history, update)
	return true, nil
}

func (m *MemoryOrders) ListProducts(_ context.Context, orderID int64) ([]domain.OrderProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[orderID], nil
}

func (m *MemoryOrders) ListTotals(_ context.Context, orderID int64) ([]domain.OrderTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals[orderID], nil
}

// Status returns the current status id of an order
func (m *MemoryOrders) Status(orderID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status[orderID]
}
