package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/walletflow/internal/domain"
)

// MockWalletLister is a mock implementation of WalletLister for testing
type MockWalletLister struct {
	mock.Mock
}

func (m *MockWalletLister) ListWallets(ctx context.Context) ([]*domain.Wallet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Wallet), args.Error(1)
}

func wallet(kind domain.WalletKind, balance string) *domain.Wallet {
	return &domain.Wallet{Kind: kind, Balance: decimal.RequireFromString(balance)}
}

func TestGetNetWorth(t *testing.T) {
	ctx := context.Background()
	lister := new(MockWalletLister)
	service := NewDashboardService(lister)

	lister.On("ListWallets", ctx).Return([]*domain.Wallet{
		wallet(domain.WalletKindSimple, "100.50"),
		wallet(domain.WalletKindSimple, "49.50"),
		wallet(domain.WalletKindDeposit, "1001"),
		wallet(domain.WalletKindStock, "250"),
	}, nil)

	result, err := service.GetNetWorth(ctx)

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(result.Liquidity))
	assert.True(t, decimal.NewFromInt(1001).Equal(result.Savings))
	assert.True(t, decimal.NewFromInt(250).Equal(result.Investments))
	assert.True(t, decimal.NewFromInt(1401).Equal(result.Total))
	assert.Equal(t, 4, result.WalletCount)
	lister.AssertExpectations(t)
}

func TestGetNetWorth_NoWallets(t *testing.T) {
	ctx := context.Background()
	lister := new(MockWalletLister)
	lister.On("ListWallets", ctx).Return([]*domain.Wallet{}, nil)

	result, err := NewDashboardService(lister).GetNetWorth(ctx)

	require.NoError(t, err)
	assert.True(t, result.Total.IsZero())
	assert.Equal(t, 0, result.WalletCount)
}

func TestGetNetWorth_ListError(t *testing.T) {
	ctx := context.Background()
	lister := new(MockWalletLister)
	lister.On("ListWallets", ctx).Return(nil, errors.New("db down"))

	_, err := NewDashboardService(lister).GetNetWorth(ctx)

	assert.ErrorContains(t, err, "failed to list wallets: db down")
}
