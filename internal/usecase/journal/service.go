package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/walletflow/internal/domain"
	"github.com/simaogato/walletflow/internal/usecase/ledger"
)

// RecordOperationInput represents the input for recording an operation
type RecordOperationInput struct {
	WalletID       uuid.UUID `validate:"required"`
	Kind           string    `validate:"required"`
	Amount         decimal.Decimal
	Category       string     `validate:"required"`
	Description    string     `validate:"max=500"`
	OperationTime  *time.Time // Defaults to now
	TargetWalletID *uuid.UUID // Required iff Kind is transfer
}

// JournalService records, queries and reverses operations.
// It is the only mutator of wallet balances besides accrual.
type JournalService struct {
	Store     domain.UnitOfWork
	Ledger    *ledger.LedgerService
	Publisher Publisher
	Logger    *zap.Logger
}

// NewJournalService creates a new JournalService instance
func NewJournalService(store domain.UnitOfWork, ledgerService *ledger.LedgerService, publisher Publisher, logger *zap.Logger) *JournalService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &JournalService{
		Store:     store,
		Ledger:    ledgerService,
		Publisher: publisher,
		Logger:    logger,
	}
}

// Record validates an operation, applies its balance effect and stores it
// Logic:
//  1. Validate input shape, kind, category, amount and transfer target
//  2. Load the owning wallet (and target) with accrual applied, locked in id order
//  3. Dispatch by kind: credit, debit, or debit owner then credit target
//  4. Persist wallets and the operation in the same unit of work
//  5. Publish operation.recorded after commit
func (s *JournalService) Record(ctx context.Context, input RecordOperationInput) (*domain.Operation, error) {
	if err := ledger.ValidateInput(input); err != nil {
		return nil, err
	}

	kind, err := domain.ParseOperationKind(input.Kind)
	if err != nil {
		return nil, err
	}
	category, err := domain.ParseCategory(input.Category)
	if err != nil {
		return nil, err
	}

	now := s.Ledger.Now()
	op := &domain.Operation{
		ID:             uuid.New(),
		WalletID:       input.WalletID,
		Kind:           kind,
		Amount:         input.Amount,
		Category:       category,
		Description:    input.Description,
		OperationTime:  now,
		TargetWalletID: input.TargetWalletID,
		CreatedAt:      now,
	}
	if input.OperationTime != nil {
		op.OperationTime = input.OperationTime.UTC().Truncate(time.Microsecond)
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}

	err = s.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		wallets, err := s.lockWallets(ctx, repos, now, op)
		if err != nil {
			return err
		}
		owner := wallets[op.WalletID]

		switch op.Kind {
		case domain.OperationKindAddition:
			err = owner.Credit(op.Amount, now)
		case domain.OperationKindWithdrawal:
			err = owner.Debit(op.Amount, now)
		case domain.OperationKindTransfer:
			if err = owner.Debit(op.Amount, now); err == nil {
				err = wallets[*op.TargetWalletID].Credit(op.Amount, now)
			}
		}
		if err != nil {
			return err
		}

		if err := s.saveWallets(ctx, repos, wallets); err != nil {
			return err
		}
		return repos.Operations.Create(ctx, op)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("operation recorded",
		zap.String("operation_id", op.ID.String()),
		zap.String("wallet_id", op.WalletID.String()),
		zap.String("kind", string(op.Kind)),
		zap.String("amount", op.Amount.String()))
	s.publish(ctx, newEvent(EventOperationRecorded, op, now))
	return op, nil
}

// GetOperation retrieves a single operation
func (s *JournalService) GetOperation(ctx context.Context, id uuid.UUID) (*domain.Operation, error) {
	var op *domain.Operation
	err := s.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		op, err = repos.Operations.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return op, nil
}

// Query lists the operations matching every set filter, newest first
func (s *JournalService) Query(ctx context.Context, filter domain.OperationFilter) ([]*domain.Operation, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var ops []*domain.Operation
	err := s.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		ops, err = repos.Operations.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ops, nil
}

// Summarize aggregates the operations matching filter into totals and a category breakdown
func (s *JournalService) Summarize(ctx context.Context, filter domain.OperationFilter) (domain.Summary, error) {
	ops, err := s.Query(ctx, filter)
	if err != nil {
		return domain.Summary{}, err
	}
	return domain.Summarize(ops, filter.Start, filter.End), nil
}

// DeleteOperation reverses an operation's balance effect and removes it
// Logic:
//  1. Load the operation and its wallets (accrual applied, id order)
//  2. Reverse: addition debits owner, withdrawal credits owner,
//     transfer debits target and credits owner
//  3. A reversal debit that the wallet cannot absorb fails with ErrInsufficientFunds
//  4. Remove the record; publish operation.deleted after commit
func (s *JournalService) DeleteOperation(ctx context.Context, id uuid.UUID) error {
	var op *domain.Operation
	now := s.Ledger.Now()

	err := s.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		op, err = repos.Operations.GetByID(ctx, id)
		if err != nil {
			return err
		}

		wallets, err := s.lockWallets(ctx, repos, now, op)
		if err != nil {
			return err
		}
		owner := wallets[op.WalletID]

		switch op.Kind {
		case domain.OperationKindAddition:
			err = owner.Debit(op.Amount, now)
		case domain.OperationKindWithdrawal:
			err = owner.Credit(op.Amount, now)
		case domain.OperationKindTransfer:
			if err = wallets[*op.TargetWalletID].Debit(op.Amount, now); err == nil {
				err = owner.Credit(op.Amount, now)
			}
		}
		if err != nil {
			return err
		}

		if err := s.saveWallets(ctx, repos, wallets); err != nil {
			return err
		}
		return repos.Operations.Delete(ctx, op.ID)
	})
	if err != nil {
		return err
	}

	s.Logger.Info("operation deleted",
		zap.String("operation_id", op.ID.String()),
		zap.String("kind", string(op.Kind)))
	s.publish(ctx, newEvent(EventOperationDeleted, op, now))
	return nil
}

// lockWallets loads every wallet an operation touches in locking order
func (s *JournalService) lockWallets(ctx context.Context, repos domain.Repositories, now time.Time, op *domain.Operation) (map[uuid.UUID]*domain.Wallet, error) {
	ids := []uuid.UUID{op.WalletID}
	if op.TargetWalletID != nil {
		ids = append(ids, *op.TargetWalletID)
	}
	domain.SortForLocking(ids)

	wallets := make(map[uuid.UUID]*domain.Wallet, len(ids))
	for _, id := range ids {
		w, err := s.Ledger.Load(ctx, repos, id, now)
		if err != nil {
			return nil, err
		}
		wallets[id] = w
	}
	return wallets, nil
}

func (s *JournalService) saveWallets(ctx context.Context, repos domain.Repositories, wallets map[uuid.UUID]*domain.Wallet) error {
	for _, w := range wallets {
		if err := s.Ledger.Save(ctx, repos, w); err != nil {
			return err
		}
	}
	return nil
}

func (s *JournalService) publish(ctx context.Context, event Event) {
	if err := s.Publisher.Publish(ctx, event); err != nil {
		s.Logger.Warn("failed to publish journal event",
			zap.String("type", string(event.Type)),
			zap.String("operation_id", event.OperationID.String()),
			zap.Error(err))
	}
}
