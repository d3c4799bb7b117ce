package mocks

import (
	"context"
	"time"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// TransactionRepository mocks ports.TransactionRepository
type TransactionRepository struct {
	mock.Mock
}

func (m *TransactionRepository) Save(ctx context.Context, db ports.DBTX, tx domain.TransactionUpsert) error {
	args := m.Called(ctx, db, tx)
	return args.Error(0)
}

func (m *TransactionRepository) FindByID(ctx context.Context, db ports.DBTX, uniqueID string) (*domain.Transaction, error) {
	args := m.Called(ctx, db, uniqueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *TransactionRepository) FindByOrder(ctx context.Context, db ports.DBTX, orderID int64) ([]domain.Transaction, error) {
	args := m.Called(ctx, db, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *TransactionRepository) FindByTypeAndStatus(ctx context.Context, db ports.DBTX, filter ports.TransactionFilter) ([]domain.Transaction, error) {
	args := m.Called(ctx, db, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *TransactionRepository) SumAmount(ctx context.Context, db ports.DBTX, filter ports.TransactionFilter) (decimal.Decimal, error) {
	args := m.Called(ctx, db, filter)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// OrderRepository mocks ports.OrderRepository
type OrderRepository struct {
	mock.Mock
}

func (m *OrderRepository) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *OrderRepository) ApplyStatus(ctx context.Context, update domain.OrderStatusUpdate) (bool, error) {
	args := m.Called(ctx, update)
	return args.Bool(0), args.Error(1)
}

func (m *OrderRepository) ListProducts(ctx context.Context, orderID int64) ([]domain.OrderProduct, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrderProduct), args.Error(1)
}

func (m *OrderRepository) ListTotals(ctx context.Context, orderID int64) ([]domain.OrderTotal, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrderTotal), args.Error(1)
}

// RecurringRepository mocks ports.RecurringRepository
type RecurringRepository struct {
	mock.Mock
}

func (m *RecurringRepository) FindByOrder(ctx context.Context, orderID int64) (*domain.RecurringOrder, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecurringOrder), args.Error(1)
}

func (m *RecurringRepository) Link(ctx context.Context, orderID int64, reference string, status domain.RecurringStatus) error {
	args := m.Called(ctx, orderID, reference, status)
	return args.Error(0)
}

func (m *RecurringRepository) AddTransaction(ctx context.Context, tx domain.RecurringTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *RecurringRepository) Cancel(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

// ConsumerRepository mocks ports.ConsumerRepository
type ConsumerRepository struct {
	mock.Mock
}

func (m *ConsumerRepository) FindByEmail(ctx context.Context, db ports.DBTX, email string) (*domain.Consumer, error) {
	args := m.Called(ctx, db, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Consumer), args.Error(1)
}

func (m *ConsumerRepository) Create(ctx context.Context, db ports.DBTX, email, consumerID string) error {
	args := m.Called(ctx, db, email, consumerID)
	return args.Error(0)
}

// CronLogRepository mocks ports.CronLogRepository
type CronLogRepository struct {
	mock.Mock
}

func (m *CronLogRepository) Start(ctx context.Context, db ports.DBTX, pid int, startedAt time.Time) (int64, error) {
	args := m.Called(ctx, db, pid, startedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CronLogRepository) Finish(ctx context.Context, db ports.DBTX, entryID int64, runTime string) error {
	args := m.Called(ctx, db, entryID, runTime)
	return args.Error(0)
}

func (m *CronLogRepository) AddTransaction(ctx context.Context, db ports.DBTX, entry domain.CronLogTransaction) error {
	args := m.Called(ctx, db, entry)
	return args.Error(0)
}

func (m *CronLogRepository) LastRun(ctx context.Context, db ports.DBTX) (time.Time, error) {
	args := m.Called(ctx, db)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *CronLogRepository) ListEntries(ctx context.Context, db ports.DBTX, limit int) ([]domain.CronLogEntry, error) {
	args := m.Called(ctx, db, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CronLogEntry), args.Error(1)
}
