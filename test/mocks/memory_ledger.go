package mocks

import (
	"context"
	"sync"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"github.com/shopspring/decimal"
)

// MemoryTransactions is an in-memory ports.TransactionRepository with the upsert
// semantics of the postgres ledger: nil fields keep the stored value.
type MemoryTransactions struct {
	rows  map[string]domain.Transaction
	order []string
	mu    sync.Mutex
	Saves int
}

// NewMemoryTransactions seeds the ledger with rows
func NewMemoryTransactions(rows ...domain.Transaction) *MemoryTransactions {
	m := &MemoryTransactions{rows: make(map[string]domain.Transaction)}
	for _, r := range rows {
		m.rows[r.UniqueID] = r
		m.order = append(m.order, r.UniqueID)
	}
	return m
}

func (m *MemoryTransactions) Save(_ context.Context, _ ports.DBTX, u domain.TransactionUpsert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saves++

	row, exists := m.rows[u.UniqueID]
	if !exists {
		row = domain.Transaction{UniqueID: u.UniqueID}
		m.order = append(m.order, u.UniqueID)
	}
	if u.Timestamp != nil {
		row.Timestamp = *u.Timestamp
	}
	if u.Message != nil {
		row.Message = u.Message
	}
	if u.TechnicalMessage != nil {
		row.TechnicalMessage = u.TechnicalMessage
	}
	if u.TerminalToken != nil {
		row.TerminalToken = u.TerminalToken
	}
	if u.Amount != nil {
		row.Amount = *u.Amount
	}
	if u.ReferenceID != nil {
		row.ReferenceID = *u.ReferenceID
	}
	if u.OrderID != nil {
		row.OrderID = *u.OrderID
	}
	if u.Type != nil {
		row.Type = *u.Type
	}
	if u.Mode != nil {
		row.Mode = *u.Mode
	}
	if u.Status != nil {
		row.Status = *u.Status
	}
	if u.Currency != nil {
		row.Currency = *u.Currency
	}
	m.rows[u.UniqueID] = row
	return nil
}

func (m *MemoryTransactions) FindByID(_ context.Context, _ ports.DBTX, uniqueID string) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[uniqueID]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return &row, nil
}

func (m *MemoryTransactions) FindByOrder(_ context.Context, _ ports.DBTX, orderID int64) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Transaction, 0)
	for _, id := range m.order {
		if row := m.rows[id]; row.OrderID == orderID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *MemoryTransactions) FindByTypeAndStatus(ctx context.Context, db ports.DBTX, filter ports.TransactionFilter) ([]domain.Transaction, error) {
	rows, _ := m.FindByOrder(ctx, db, filter.OrderID)
	out := make([]domain.Transaction, 0)
	for _, row := range rows {
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		if !domain.IsRootReference(filter.ReferenceID) && row.ReferenceID != filter.ReferenceID {
			continue
		}
		if len(filter.Types) > 0 && !containsType(filter.Types, row.Type) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *MemoryTransactions) SumAmount(ctx context.Context, db ports.DBTX, filter ports.TransactionFilter) (decimal.Decimal, error) {
	rows, _ := m.FindByTypeAndStatus(ctx, db, filter)
	sum, _, err := domain.SumAmounts(rows)
	return sum, err
}

// Get returns a stored row for assertions
func (m *MemoryTransactions) Get(uniqueID string) (domain.Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[uniqueID]
	return row, ok
}

// Len returns the number of stored rows
func (m *MemoryTransactions) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func containsType(types []domain.TransactionType, t domain.TransactionType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
