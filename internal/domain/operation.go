package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OperationKind represents the kind of monetary event
type OperationKind string

const (
	OperationKindAddition   OperationKind = "addition"
	OperationKindWithdrawal OperationKind = "withdrawal"
	OperationKindTransfer   OperationKind = "transfer"
)

// ParseOperationKind converts a wire value into an OperationKind
func ParseOperationKind(s string) (OperationKind, error) {
	switch k := OperationKind(strings.ToLower(strings.TrimSpace(s))); k {
	case OperationKindAddition, OperationKindWithdrawal, OperationKindTransfer:
		return k, nil
	}
	return "", Validationf("unknown operation type %q", s)
}

// Category is the closed classification tag of an operation
type Category string

const (
	CategoryHealthcare    Category = "healthcare"
	CategoryFood          Category = "food"
	CategoryHome          Category = "home"
	CategoryEducation     Category = "education"
	CategorySubscriptions Category = "subscriptions"
	CategoryEntertainment Category = "entertainment"
	CategoryRestaurants   Category = "restaurants"
	CategoryTransport     Category = "transport"
	CategoryShopping      Category = "shopping"
	CategorySalary        Category = "salary"
	CategoryOther         Category = "other"
)

// Categories lists every recognized category in display order
var Categories = []Category{
	CategoryHealthcare,
	CategoryFood,
	CategoryHome,
	CategoryEducation,
	CategorySubscriptions,
	CategoryEntertainment,
	CategoryRestaurants,
	CategoryTransport,
	CategoryShopping,
	CategorySalary,
	CategoryOther,
}

// ParseCategory converts a wire value ("Food", "food") into a Category
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", Validationf("unknown category %q", s)
}

// Operation represents an immutable journal entry.
// A transfer is a single entry with two balance effects (debit owner, credit target).
type Operation struct {
	ID             uuid.UUID
	WalletID       uuid.UUID
	Kind           OperationKind
	Amount         decimal.Decimal // Always positive
	Category       Category
	Description    string
	OperationTime  time.Time
	TargetWalletID *uuid.UUID // NOT NULL iff Kind is transfer
	CreatedAt      time.Time
}

// Validate ensures the operation adheres to domain rules
func (o *Operation) Validate() error {
	if o.WalletID == uuid.Nil {
		return Validationf("wallet id is required")
	}

	if _, err := ParseOperationKind(string(o.Kind)); err != nil {
		return err
	}

	if !o.Amount.IsPositive() {
		return Validationf("amount must be positive")
	}

	if !o.Amount.Equal(o.Amount.Round(BalanceScale)) {
		return Validationf("amount supports at most %d decimal places", BalanceScale)
	}

	if o.Amount.GreaterThanOrEqual(MaxBalance) {
		return Validationf("amount must be less than %s", MaxBalance.String())
	}

	if _, err := ParseCategory(string(o.Category)); err != nil {
		return err
	}

	if o.Kind == OperationKindTransfer {
		if o.TargetWalletID == nil {
			return Validationf("target wallet is required for transfer operations")
		}
		if *o.TargetWalletID == o.WalletID {
			return Validationf("cannot transfer to the same wallet")
		}
	} else if o.TargetWalletID != nil {
		return Validationf("target wallet can only be set for transfer operations")
	}

	return nil
}

// Touches reports whether the operation affects the given wallet on either side
func (o *Operation) Touches(walletID uuid.UUID) bool {
	if o.WalletID == walletID {
		return true
	}
	return o.TargetWalletID != nil && *o.TargetWalletID == walletID
}

// OperationFilter selects journal entries. Nil fields are ignored; set fields combine with AND.
type OperationFilter struct {
	WalletID *uuid.UUID // Matches the owning wallet only
	Start    *time.Time // Inclusive
	End      *time.Time // Inclusive
	Category *Category
	Kind     *OperationKind
}

// Matches reports whether op satisfies every set criterion
func (f OperationFilter) Matches(op *Operation) bool {
	if f.WalletID != nil && op.WalletID != *f.WalletID {
		return false
	}
	if f.Start != nil && op.OperationTime.Before(*f.Start) {
		return false
	}
	if f.End != nil && op.OperationTime.After(*f.End) {
		return false
	}
	if f.Category != nil && op.Category != *f.Category {
		return false
	}
	if f.Kind != nil && op.Kind != *f.Kind {
		return false
	}
	return true
}

// Validate rejects an inverted period
func (f OperationFilter) Validate() error {
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return Validationf("end date must not be before start date")
	}
	return nil
}
