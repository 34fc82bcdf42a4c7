package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/walletflow/internal/domain"
)

// CreateWalletInput represents the input for creating a wallet
type CreateWalletInput struct {
	Name         string `validate:"required,max=100"`
	Kind         string `validate:"required"`
	Description  string `validate:"max=500"`
	InterestRate *decimal.Decimal // Required iff Kind is deposit
}

// UpdateWalletInput represents a partial update. Nil fields are left unchanged.
type UpdateWalletInput struct {
	Name              *string `validate:"omitempty,max=100"`
	Description       *string `validate:"omitempty,max=500"`
	InterestRate      *decimal.Decimal
	ClearInterestRate bool
}

// LedgerService owns wallet records and their balance rules
type LedgerService struct {
	Store  domain.UnitOfWork
	Logger *zap.Logger
	Clock  func() time.Time
}

// NewLedgerService creates a new LedgerService instance
func NewLedgerService(store domain.UnitOfWork, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		Store:  store,
		Logger: logger,
		Clock:  time.Now,
	}
}

// Now returns the service clock in UTC at storage precision
func (s *LedgerService) Now() time.Time {
	return s.Clock().UTC().Truncate(time.Microsecond)
}

// CreateWallet creates a wallet with a zero balance
// Logic:
//  1. Validate input shape, kind and interest rate consistency
//  2. Reject duplicate names
//  3. Persist
func (s *LedgerService) CreateWallet(ctx context.Context, input CreateWalletInput) (*domain.Wallet, error) {
	if err := ValidateInput(input); err != nil {
		return nil, err
	}

	kind, err := domain.ParseWalletKind(input.Kind)
	if err != nil {
		return nil, err
	}

	wallet := domain.NewWallet(strings.TrimSpace(input.Name), kind, input.Description, input.InterestRate, s.Now())
	if err := wallet.Validate(); err != nil {
		return nil, err
	}

	err = s.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if err := ensureNameFree(ctx, repos, wallet.Name, uuid.Nil); err != nil {
			return err
		}
		return repos.Wallets.Create(ctx, wallet)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("wallet created",
		zap.String("wallet_id", wallet.ID.String()),
		zap.String("kind", string(wallet.Kind)))
	return wallet, nil
}

// GetWallet retrieves a wallet with any pending accrual materialized
func (s *LedgerService) GetWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	var wallet *domain.Wallet
	err := s.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		wallet, err = s.Load(ctx, repos, id, s.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// ListWallets retrieves all wallets in creation order, accrual applied
// Logic:
//  1. Read every wallet without row locks
//  2. Re-load the deposit wallets with accrual due through Load, in locking order
//  3. Wallets deleted in between are left out
func (s *LedgerService) ListWallets(ctx context.Context) ([]*domain.Wallet, error) {
	var wallets []*domain.Wallet
	err := s.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		listed, err := repos.Wallets.List(ctx)
		if err != nil {
			return err
		}

		now := s.Now()
		position := make(map[uuid.UUID]int)
		due := make([]uuid.UUID, 0)
		for i, w := range listed {
			if candidate := *w; candidate.ApplyAccrual(now) {
				position[w.ID] = i
				due = append(due, w.ID)
			}
		}
		domain.SortForLocking(due)

		for _, id := range due {
			wallet, err := s.Load(ctx, repos, id, now)
			if errors.Is(err, domain.ErrNotFound) {
				listed[position[id]] = nil
				continue
			}
			if err != nil {
				return err
			}
			listed[position[id]] = wallet
		}

		wallets = make([]*domain.Wallet, 0, len(listed))
		for _, w := range listed {
			if w != nil {
				wallets = append(wallets, w)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wallets, nil
}

// UpdateWallet mutates name, description and interest rate.
// A rate change first accrues up to now at the old rate.
func (s *LedgerService) UpdateWallet(ctx context.Context, id uuid.UUID, input UpdateWalletInput) (*domain.Wallet, error) {
	if err := ValidateInput(input); err != nil {
		return nil, err
	}
	if input.ClearInterestRate && input.InterestRate != nil {
		return nil, domain.Validationf("cannot both set and clear the interest rate")
	}

	var wallet *domain.Wallet
	err := s.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		now := s.Now()

		var err error
		wallet, err = s.Load(ctx, repos, id, now)
		if err != nil {
			return err
		}

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name != wallet.Name {
				if err := ensureNameFree(ctx, repos, name, wallet.ID); err != nil {
					return err
				}
			}
			wallet.Name = name
		}
		if input.Description != nil {
			wallet.Description = *input.Description
		}

		switch {
		case input.ClearInterestRate:
			wallet.InterestRate = nil
		case input.InterestRate != nil:
			rate := *input.InterestRate
			wallet.InterestRate = &rate
		}

		if err := wallet.Validate(); err != nil {
			return err
		}

		wallet.UpdatedAt = now
		return repos.Wallets.Update(ctx, wallet)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("wallet updated", zap.String("wallet_id", wallet.ID.String()))
	return wallet, nil
}

// DeleteWallet removes a wallet.
// Wallets still referenced by operations (either side) are rejected with ErrConflict.
func (s *LedgerService) DeleteWallet(ctx context.Context, id uuid.UUID) error {
	err := s.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		wallet, err := repos.Wallets.GetByID(ctx, id)
		if err != nil {
			return err
		}

		count, err := repos.Operations.CountByWallet(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.Conflictf("wallet %q still has %d operations; delete them first", wallet.Name, count)
		}

		return repos.Wallets.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.Logger.Info("wallet deleted", zap.String("wallet_id", id.String()))
	return nil
}

// Load fetches a wallet inside an open unit of work and materializes accrual up to now.
// The journal uses it before any balance mutation.
func (s *LedgerService) Load(ctx context.Context, repos domain.Repositories, id uuid.UUID, now time.Time) (*domain.Wallet, error) {
	wallet, err := repos.Wallets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.accrue(ctx, repos, wallet, now); err != nil {
		return nil, err
	}
	return wallet, nil
}

// Save persists a wallet mutated inside an open unit of work
func (s *LedgerService) Save(ctx context.Context, repos domain.Repositories, wallet *domain.Wallet) error {
	return repos.Wallets.Update(ctx, wallet)
}

func (s *LedgerService) accrue(ctx context.Context, repos domain.Repositories, wallet *domain.Wallet, now time.Time) error {
	before := wallet.Balance
	if !wallet.ApplyAccrual(now) {
		return nil
	}

	s.Logger.Debug("interest accrued",
		zap.String("wallet_id", wallet.ID.String()),
		zap.String("from", before.String()),
		zap.String("to", wallet.Balance.String()))
	return repos.Wallets.Update(ctx, wallet)
}

func ensureNameFree(ctx context.Context, repos domain.Repositories, name string, self uuid.UUID) error {
	existing, err := repos.Wallets.GetByName(ctx, name)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return domain.Conflictf("wallet with name %q already exists", name)
	}
	return nil
}
