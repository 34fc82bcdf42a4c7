package domain

import (
	"bytes"
	"context"
	"sort"

	"github.com/google/uuid"
)

// WalletRepository defines the interface for wallet persistence operations
type WalletRepository interface {
	// GetByID retrieves a wallet by its ID.
	// Inside a transaction the row stays locked until commit.
	// Returns an error wrapping ErrNotFound if no wallet matches.
	GetByID(ctx context.Context, id uuid.UUID) (*Wallet, error)

	// GetByName retrieves a wallet by its exact name
	GetByName(ctx context.Context, name string) (*Wallet, error)

	// List retrieves all wallets in creation order. Rows are not locked.
	List(ctx context.Context) ([]*Wallet, error)

	// Create creates a new wallet
	Create(ctx context.Context, wallet *Wallet) error

	// Update persists the mutable fields and the balance of an existing wallet
	Update(ctx context.Context, wallet *Wallet) error

	// Delete removes a wallet
	Delete(ctx context.Context, id uuid.UUID) error
}

// OperationRepository defines the interface for journal persistence operations
type OperationRepository interface {
	// GetByID retrieves an operation by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Operation, error)

	// Create creates a new operation
	Create(ctx context.Context, op *Operation) error

	// Delete removes an operation
	Delete(ctx context.Context, id uuid.UUID) error

	// List retrieves the operations matching filter, newest operation_time first
	List(ctx context.Context, filter OperationFilter) ([]*Operation, error)

	// CountByWallet counts operations referencing the wallet as owner or transfer target
	CountByWallet(ctx context.Context, walletID uuid.UUID) (int, error)
}

// Repositories bundles the repositories bound to one unit of work
type Repositories struct {
	Wallets    WalletRepository
	Operations OperationRepository
}

// UnitOfWork runs a function inside one storage transaction.
// The transaction commits if fn returns nil and rolls back otherwise.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// SortForLocking puts wallet ids in the one order every unit of work locks
// them in, so transactions touching overlapping wallets never deadlock.
func SortForLocking(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}
