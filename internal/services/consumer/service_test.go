package consumer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"github.com/kevin07696/genesis-reconciliation/internal/services/consumer"
	"github.com/kevin07696/genesis-reconciliation/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestConsumerID(t *testing.T) {
	const email = "jane@example.com"

	tests := []struct {
		name  string
		setup func(repo *mocks.ConsumerRepository, gw *mocks.PaymentGateway)
		want  string
	}{
		{
			name: "stored mapping wins",
			setup: func(repo *mocks.ConsumerRepository, gw *mocks.PaymentGateway) {
				repo.On("FindByEmail", mock.Anything, nil, email).Return(&domain.Consumer{CustomerEmail: email, ConsumerID: "c-1"}, nil)
			},
			want: "c-1",
		},
		{
			name: "falls back to gateway",
			setup: func(repo *mocks.ConsumerRepository, gw *mocks.PaymentGateway) {
				repo.On("FindByEmail", mock.Anything, nil, email).Return(nil, domain.ErrConsumerNotFound)
				gw.On("RetrieveConsumer", mock.Anything, email).Return(&ports.GatewayResult{ConsumerID: "c-2", Status: domain.TransactionStatusApproved}, nil)
			},
			want: "c-2",
		},
		{
			name: "storage failure still asks gateway",
			setup: func(repo *mocks.ConsumerRepository, gw *mocks.PaymentGateway) {
				repo.On("FindByEmail", mock.Anything, nil, email).Return(nil, errors.New("connection reset"))
				gw.On("RetrieveConsumer", mock.Anything, email).Return(&ports.GatewayResult{ConsumerID: "c-3"}, nil)
			},
			want: "c-3",
		},
		{
			name: "gateway error status means none",
			setup: func(repo *mocks.ConsumerRepository, gw *mocks.PaymentGateway) {
				repo.On("FindByEmail", mock.Anything, nil, email).Return(nil, domain.ErrConsumerNotFound)
				gw.On("RetrieveConsumer", mock.Anything, email).Return(&ports.GatewayResult{Status: domain.TransactionStatusError, ConsumerID: "ignored"}, nil)
			},
			want: "",
		},
		{
			name: "gateway failure means none",
			setup: func(repo *mocks.ConsumerRepository, gw *mocks.PaymentGateway) {
				repo.On("FindByEmail", mock.Anything, nil, email).Return(nil, domain.ErrConsumerNotFound)
				gw.On("RetrieveConsumer", mock.Anything, email).Return(nil, domain.ErrGatewayUnavailable)
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.ConsumerRepository)
			gw := new(mocks.PaymentGateway)
			tt.setup(repo, gw)

			svc := consumer.NewService(repo, gw, mocks.NopLogger{})
			assert.Equal(t, tt.want, svc.ConsumerID(context.Background(), email))
			repo.AssertExpectations(t)
			gw.AssertExpectations(t)
		})
	}
}

func TestConsumerID_EmptyEmail(t *testing.T) {
	repo := new(mocks.ConsumerRepository)
	gw := new(mocks.PaymentGateway)
	svc := consumer.NewService(repo, gw, mocks.NopLogger{})

	assert.Empty(t, svc.ConsumerID(context.Background(), ""))
	repo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestRemember(t *testing.T) {
	repo := new(mocks.ConsumerRepository)
	repo.On("Create", mock.Anything, nil, "jane@example.com", "c-9").Return(errors.New("duplicate"))
	svc := consumer.NewService(repo, new(mocks.PaymentGateway), mocks.NopLogger{})

	svc.Remember(context.Background(), "jane@example.com", "c-9")
	svc.Remember(context.Background(), "jane@example.com", "")

	repo.AssertNumberOfCalls(t, "Create", 1)
}
