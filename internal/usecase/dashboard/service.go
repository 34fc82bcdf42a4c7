package dashboard

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/simaogato/walletflow/internal/domain"
)

// WalletLister lists wallets with accrual applied
type WalletLister interface {
	ListWallets(ctx context.Context) ([]*domain.Wallet, error)
}

// NetWorthResult represents the calculated net worth
type NetWorthResult struct {
	Total       decimal.Decimal
	Liquidity   decimal.Decimal
	Savings     decimal.Decimal
	Investments decimal.Decimal
	WalletCount int
}

// DashboardService handles dashboard-related operations
type DashboardService struct {
	Wallets WalletLister
}

// NewDashboardService creates a new DashboardService instance
func NewDashboardService(wallets WalletLister) *DashboardService {
	return &DashboardService{
		Wallets: wallets,
	}
}

// GetNetWorth calculates the total net worth
// Logic:
//   - Liquidity: Sum of all SIMPLE wallet balances
//   - Savings: Sum of all DEPOSIT wallet balances, accrued up to now
//   - Investments: Sum of all STOCK wallet balances (book value)
//   - Total: Liquidity + Savings + Investments
func (s *DashboardService) GetNetWorth(ctx context.Context) (*NetWorthResult, error) {
	wallets, err := s.Wallets.ListWallets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}

	result := &NetWorthResult{
		Total:       decimal.Zero,
		Liquidity:   decimal.Zero,
		Savings:     decimal.Zero,
		Investments: decimal.Zero,
		WalletCount: len(wallets),
	}

	for _, w := range wallets {
		switch w.Kind {
		case domain.WalletKindSimple:
			result.Liquidity = result.Liquidity.Add(w.Balance)
		case domain.WalletKindDeposit:
			result.Savings = result.Savings.Add(w.Balance)
		case domain.WalletKindStock:
			result.Investments = result.Investments.Add(w.Balance)
		}
	}

	result.Total = result.Liquidity.Add(result.Savings).Add(result.Investments)
	return result, nil
}
