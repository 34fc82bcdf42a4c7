package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ratePtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestWallet_Validate(t *testing.T) {
	tests := []struct {
		name    string
		wallet  Wallet
		wantErr bool
		errMsg  string
	}{
		{
			name:    "Simple wallet without rate should pass",
			wallet:  Wallet{ID: uuid.New(), Name: "Cash", Kind: WalletKindSimple},
			wantErr: false,
		},
		{
			name:    "Deposit wallet with rate should pass",
			wallet:  Wallet{ID: uuid.New(), Name: "Savings", Kind: WalletKindDeposit, InterestRate: ratePtr("4.5")},
			wantErr: false,
		},
		{
			name:    "Deposit wallet without rate should fail",
			wallet:  Wallet{ID: uuid.New(), Name: "Savings", Kind: WalletKindDeposit},
			wantErr: true,
			errMsg:  "interest rate is required for deposit wallets",
		},
		{
			name:    "Deposit wallet with zero rate should fail",
			wallet:  Wallet{ID: uuid.New(), Name: "Savings", Kind: WalletKindDeposit, InterestRate: ratePtr("0")},
			wantErr: true,
			errMsg:  "greater than 0",
		},
		{
			name:    "Deposit wallet with rate above 100 should fail",
			wallet:  Wallet{ID: uuid.New(), Name: "Savings", Kind: WalletKindDeposit, InterestRate: ratePtr("100.01")},
			wantErr: true,
			errMsg:  "at most 100",
		},
		{
			name:    "Deposit wallet with six-decimal rate should pass",
			wallet:  Wallet{ID: uuid.New(), Name: "Savings", Kind: WalletKindDeposit, InterestRate: ratePtr("4.123456")},
			wantErr: false,
		},
		{
			name:    "Deposit wallet with trailing zeros beyond six decimals should pass",
			wallet:  Wallet{ID: uuid.New(), Name: "Savings", Kind: WalletKindDeposit, InterestRate: ratePtr("4.500000000")},
			wantErr: false,
		},
		{
			name:    "Deposit wallet with seven-decimal rate should fail",
			wallet:  Wallet{ID: uuid.New(), Name: "Savings", Kind: WalletKindDeposit, InterestRate: ratePtr("4.1234567")},
			wantErr: true,
			errMsg:  "at most 6 decimal places",
		},
		{
			name:    "Stock wallet with rate should fail",
			wallet:  Wallet{ID: uuid.New(), Name: "Broker", Kind: WalletKindStock, InterestRate: ratePtr("3")},
			wantErr: true,
			errMsg:  "only be set for deposit wallets",
		},
		{
			name:    "Empty name should fail",
			wallet:  Wallet{ID: uuid.New(), Name: "  ", Kind: WalletKindSimple},
			wantErr: true,
			errMsg:  "name cannot be empty",
		},
		{
			name:    "Unknown kind should fail",
			wallet:  Wallet{ID: uuid.New(), Name: "Cash", Kind: WalletKind("crypto")},
			wantErr: true,
			errMsg:  "unknown wallet kind",
		},
		{
			name:    "Negative balance should fail",
			wallet:  Wallet{ID: uuid.New(), Name: "Cash", Kind: WalletKindSimple, Balance: decimal.NewFromInt(-1)},
			wantErr: true,
			errMsg:  "cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.wallet.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidation))
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewWallet_DepositAnchorsAccrualAtCreation(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	deposit := NewWallet("Savings", WalletKindDeposit, "", ratePtr("5"), now)
	require.NotNil(t, deposit.LastInterestApplied)
	assert.Equal(t, now, *deposit.LastInterestApplied)
	assert.True(t, deposit.Balance.IsZero())

	simple := NewWallet("Cash", WalletKindSimple, "", nil, now)
	assert.Nil(t, simple.LastInterestApplied)
}

func TestAccrue_OneDayAtThirtySixPointFivePercent(t *testing.T) {
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	w := NewWallet("Savings", WalletKindDeposit, "", ratePtr("36.5"), created)
	w.Balance = decimal.NewFromInt(1000)

	balance, anchor := Accrue(*w, created.Add(24*time.Hour))

	assert.True(t, decimal.RequireFromString("1001").Equal(balance), "got %s", balance)
	require.NotNil(t, anchor)
	assert.Equal(t, created.Add(24*time.Hour), *anchor)
	// Accrue is pure
	assert.True(t, decimal.NewFromInt(1000).Equal(w.Balance))
}

func TestAccrue_MatchesCompoundFormula(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		rate string
		days int
		want string
	}{
		{name: "Two days at 36.5%", rate: "36.5", days: 2, want: "1002.001"},
		{name: "Ten days at 36.5%", rate: "36.5", days: 10, want: "1010.04512021"},
		{name: "One year at 5%", rate: "5", days: 365, want: "1051.2675"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWallet("Savings", WalletKindDeposit, "", ratePtr(tt.rate), created)
			w.Balance = decimal.NewFromInt(1000)

			balance, _ := Accrue(*w, created.Add(time.Duration(tt.days)*24*time.Hour))

			diff := balance.Sub(decimal.RequireFromString(tt.want)).Abs()
			assert.True(t, diff.LessThan(decimal.RequireFromString("0.0001")), "got %s want %s", balance, tt.want)
		})
	}
}

func TestAccrue_PartialDayIsNoOp(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w := NewWallet("Savings", WalletKindDeposit, "", ratePtr("10"), created)
	w.Balance = decimal.NewFromInt(500)

	changed := w.ApplyAccrual(created.Add(23*time.Hour + 59*time.Minute))

	assert.False(t, changed)
	assert.True(t, decimal.NewFromInt(500).Equal(w.Balance))
	assert.Equal(t, created, *w.LastInterestApplied)
}

func TestApplyAccrual_IdempotentForSameInstant(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := created.Add(3*24*time.Hour + 5*time.Hour)

	w := NewWallet("Savings", WalletKindDeposit, "", ratePtr("36.5"), created)
	w.Balance = decimal.NewFromInt(1000)

	assert.True(t, w.ApplyAccrual(now))
	first := w.Balance
	// Anchor advances by whole days only, keeping the 5 spare hours
	assert.Equal(t, created.Add(3*24*time.Hour), *w.LastInterestApplied)

	assert.False(t, w.ApplyAccrual(now))
	assert.True(t, first.Equal(w.Balance))
}

func TestApplyAccrual_NonDepositIsNoOp(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, kind := range []WalletKind{WalletKindSimple, WalletKindStock} {
		w := NewWallet("W", kind, "", nil, created)
		w.Balance = decimal.NewFromInt(100)

		assert.False(t, w.ApplyAccrual(created.Add(400*24*time.Hour)))
		assert.True(t, decimal.NewFromInt(100).Equal(w.Balance))
	}
}

func TestApplyAccrual_ClockBeforeAnchorIsNoOp(t *testing.T) {
	created := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	w := NewWallet("Savings", WalletKindDeposit, "", ratePtr("10"), created)
	w.Balance = decimal.NewFromInt(100)

	assert.False(t, w.ApplyAccrual(created.Add(-48*time.Hour)))
}

func TestWallet_CreditDebit(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w := NewWallet("Cash", WalletKindSimple, "", nil, now)

	require.NoError(t, w.Credit(decimal.NewFromInt(1000), now))
	require.NoError(t, w.Debit(decimal.NewFromInt(300), now))
	assert.True(t, decimal.NewFromInt(700).Equal(w.Balance))

	err := w.Debit(decimal.NewFromInt(800), now)
	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.True(t, decimal.NewFromInt(700).Equal(w.Balance), "failed debit must not change the balance")

	require.NoError(t, w.Debit(decimal.NewFromInt(700), now))
	assert.True(t, w.Balance.IsZero())

	assert.True(t, errors.Is(w.Credit(decimal.Zero, now), ErrValidation))
	assert.True(t, errors.Is(w.Debit(decimal.NewFromInt(-5), now), ErrValidation))
}

func TestWallet_CreditRejectsOverflow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w := NewWallet("Cash", WalletKindSimple, "", nil, now)

	require.NoError(t, w.Credit(decimal.RequireFromString("999999999999.99999998"), now))
	require.NoError(t, w.Credit(decimal.RequireFromString("0.00000001"), now))

	err := w.Credit(decimal.RequireFromString("0.00000001"), now)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "would exceed")
	assert.True(t, decimal.RequireFromString("999999999999.99999999").Equal(w.Balance), "rejected credit must not change the balance")
}

func TestSortForLocking(t *testing.T) {
	ids := []uuid.UUID{
		uuid.MustParse("ffffffff-0000-0000-0000-000000000000"),
		uuid.MustParse("00000000-0000-0000-0000-000000000002"),
		uuid.MustParse("80000000-0000-0000-0000-000000000000"),
		uuid.MustParse("00000000-0000-0000-0000-000000000001"),
	}

	SortForLocking(ids)

	assert.Equal(t, []uuid.UUID{
		uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		uuid.MustParse("00000000-0000-0000-0000-000000000002"),
		uuid.MustParse("80000000-0000-0000-0000-000000000000"),
		uuid.MustParse("ffffffff-0000-0000-0000-000000000000"),
	}, ids)
}

func TestParseWalletKind(t *testing.T) {
	kind, err := ParseWalletKind(" Deposit ")
	require.NoError(t, err)
	assert.Equal(t, WalletKindDeposit, kind)

	_, err = ParseWalletKind("checking")
	assert.True(t, errors.Is(err, ErrValidation))
}
