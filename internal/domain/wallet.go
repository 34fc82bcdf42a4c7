package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletKind represents the balance-accrual rule of a wallet
type WalletKind string

const (
	WalletKindSimple  WalletKind = "simple"
	WalletKindDeposit WalletKind = "deposit"
	WalletKindStock   WalletKind = "stock"
)

const (
	// BalanceScale is the number of decimal places kept on stored balances and amounts
	BalanceScale int32 = 8

	// RateScale is the number of decimal places kept on interest rates
	RateScale int32 = 6

	// accrualScale is the working precision of the compounded daily factor
	accrualScale int32 = 18

	day = 24 * time.Hour
)

var (
	maxInterestRate = decimal.NewFromInt(100)

	// MaxBalance bounds balances and amounts to 12 integer digits
	MaxBalance = decimal.New(1, 12)
	daysPerYearPct  = decimal.NewFromInt(365 * 100)
)

// ParseWalletKind converts a wire value into a WalletKind
func ParseWalletKind(s string) (WalletKind, error) {
	switch k := WalletKind(strings.ToLower(strings.TrimSpace(s))); k {
	case WalletKindSimple, WalletKindDeposit, WalletKindStock:
		return k, nil
	}
	return "", Validationf("unknown wallet kind %q", s)
}

// Wallet represents a balance-holding account in the domain layer
type Wallet struct {
	ID                  uuid.UUID
	Name                string
	Kind                WalletKind
	Description         string
	Balance             decimal.Decimal  // Materialized balance; may lag accrual until ApplyAccrual runs
	InterestRate        *decimal.Decimal // Percent per annum. NOT NULL iff Kind is deposit.
	LastInterestApplied *time.Time       // Deposit only. Accrual anchor.
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewWallet builds a wallet with a zero balance.
// Deposit wallets start accruing from the creation instant.
func NewWallet(name string, kind WalletKind, description string, interestRate *decimal.Decimal, now time.Time) *Wallet {
	w := &Wallet{
		ID:           uuid.New(),
		Name:         name,
		Kind:         kind,
		Description:  description,
		Balance:      decimal.Zero,
		InterestRate: interestRate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if kind == WalletKindDeposit {
		anchor := now
		w.LastInterestApplied = &anchor
	}
	return w
}

// Validate ensures the wallet adheres to domain rules
func (w *Wallet) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return Validationf("wallet name cannot be empty")
	}

	if _, err := ParseWalletKind(string(w.Kind)); err != nil {
		return err
	}

	if err := ValidateInterestRate(w.Kind, w.InterestRate); err != nil {
		return err
	}

	if w.Balance.IsNegative() {
		return Validationf("wallet balance cannot be negative")
	}

	return nil
}

// ValidateInterestRate checks that a rate is present iff the kind is deposit,
// and that a present rate lies in (0, 100].
func ValidateInterestRate(kind WalletKind, rate *decimal.Decimal) error {
	if kind != WalletKindDeposit {
		if rate != nil {
			return Validationf("interest rate can only be set for deposit wallets")
		}
		return nil
	}

	if rate == nil {
		return Validationf("interest rate is required for deposit wallets")
	}
	if rate.LessThanOrEqual(decimal.Zero) || rate.GreaterThan(maxInterestRate) {
		return Validationf("interest rate must be greater than 0 and at most 100")
	}
	if !rate.Equal(rate.Round(RateScale)) {
		return Validationf("interest rate supports at most %d decimal places", RateScale)
	}
	return nil
}

// Accrue computes the compound daily interest owed to a deposit wallet at now.
// It returns the new balance and the new accrual anchor without touching w.
// Logic:
//  1. d = whole days between the anchor (LastInterestApplied, else CreatedAt) and now
//  2. If d < 1 or the wallet is not a deposit: no change
//  3. balance × (1 + rate/100/365)^d, anchor advanced by exactly d days
func Accrue(w Wallet, now time.Time) (decimal.Decimal, *time.Time) {
	if w.Kind != WalletKindDeposit || w.InterestRate == nil {
		return w.Balance, w.LastInterestApplied
	}

	anchor := w.CreatedAt
	if w.LastInterestApplied != nil {
		anchor = *w.LastInterestApplied
	}

	days := int64(now.Sub(anchor) / day)
	if days < 1 {
		return w.Balance, w.LastInterestApplied
	}

	dailyRate := w.InterestRate.DivRound(daysPerYearPct, accrualScale)
	factor := powRound(decimal.NewFromInt(1).Add(dailyRate), days, accrualScale)

	next := anchor.Add(time.Duration(days) * day)
	return w.Balance.Mul(factor).Round(BalanceScale), &next
}

// ApplyAccrual materializes Accrue on the wallet.
// Returns true if the wallet changed and must be persisted.
func (w *Wallet) ApplyAccrual(now time.Time) bool {
	balance, anchor := Accrue(*w, now)
	if anchor == w.LastInterestApplied {
		return false
	}

	w.Balance = balance
	w.LastInterestApplied = anchor
	w.UpdatedAt = now
	return true
}

// Credit adds amount to the balance
func (w *Wallet) Credit(amount decimal.Decimal, now time.Time) error {
	if !amount.IsPositive() {
		return Validationf("credit amount must be positive")
	}

	balance := w.Balance.Add(amount)
	if balance.GreaterThanOrEqual(MaxBalance) {
		return Validationf("wallet %q balance would exceed %s", w.Name, MaxBalance.String())
	}

	w.Balance = balance
	w.UpdatedAt = now
	return nil
}

// Debit removes amount from the balance.
// Fails with ErrInsufficientFunds instead of letting the balance go negative.
func (w *Wallet) Debit(amount decimal.Decimal, now time.Time) error {
	if !amount.IsPositive() {
		return Validationf("debit amount must be positive")
	}

	if amount.GreaterThan(w.Balance) {
		return fmt.Errorf("%w: wallet %q holds %s, cannot debit %s",
			ErrInsufficientFunds, w.Name, w.Balance.StringFixed(2), amount.String())
	}

	w.Balance = w.Balance.Sub(amount)
	w.UpdatedAt = now
	return nil
}

// powRound raises base to a positive integer power by repeated squaring,
// rounding every intermediate product to scale places.
func powRound(base decimal.Decimal, exp int64, scale int32) decimal.Decimal {
	result := decimal.NewFromInt(1)
	for exp > 0 {
		if exp&1 == 1 {
			result = result.Mul(base).Round(scale)
		}
		base = base.Mul(base).Round(scale)
		exp >>= 1
	}
	return result
}
