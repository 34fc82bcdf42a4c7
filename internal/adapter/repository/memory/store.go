package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/simaogato/walletflow/internal/domain"
)

// state is the full dataset. Slices keep insertion order.
type state struct {
	wallets    map[uuid.UUID]domain.Wallet
	walletIDs  []uuid.UUID
	operations map[uuid.UUID]domain.Operation
	opIDs      []uuid.UUID
}

func newState() *state {
	return &state{
		wallets:    make(map[uuid.UUID]domain.Wallet),
		operations: make(map[uuid.UUID]domain.Operation),
	}
}

func (s *state) clone() *state {
	c := &state{
		wallets:    make(map[uuid.UUID]domain.Wallet, len(s.wallets)),
		walletIDs:  append([]uuid.UUID(nil), s.walletIDs...),
		operations: make(map[uuid.UUID]domain.Operation, len(s.operations)),
		opIDs:      append([]uuid.UUID(nil), s.opIDs...),
	}
	for id, w := range s.wallets {
		c.wallets[id] = w
	}
	for id, op := range s.operations {
		c.operations[id] = op
	}
	return c
}

// Store is a concurrency-safe in-memory domain.UnitOfWork for tests and demos.
// Transactions are serialized; each one works on a copy that replaces the
// live state only when the callback succeeds.
type Store struct {
	mu   sync.Mutex
	data *state
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{data: newState()}
}

// WithinTx implements domain.UnitOfWork
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.data.clone()
	repos := domain.Repositories{
		Wallets:    &walletRepository{data: working},
		Operations: &operationRepository{data: working},
	}

	if err := fn(ctx, repos); err != nil {
		return err
	}

	s.data = working
	return nil
}

// walletRepository implements domain.WalletRepository
type walletRepository struct {
	data *state
}

func (r *walletRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Wallet, error) {
	w, ok := r.data.wallets[id]
	if !ok {
		return nil, domain.NotFoundf("wallet %s", id)
	}
	return copyWallet(w), nil
}

func (r *walletRepository) GetByName(_ context.Context, name string) (*domain.Wallet, error) {
	for _, id := range r.data.walletIDs {
		if w := r.data.wallets[id]; w.Name == name {
			return copyWallet(w), nil
		}
	}
	return nil, domain.NotFoundf("wallet named %q", name)
}

func (r *walletRepository) List(_ context.Context) ([]*domain.Wallet, error) {
	wallets := make([]*domain.Wallet, 0, len(r.data.walletIDs))
	for _, id := range r.data.walletIDs {
		wallets = append(wallets, copyWallet(r.data.wallets[id]))
	}
	return wallets, nil
}

func (r *walletRepository) Create(_ context.Context, wallet *domain.Wallet) error {
	if _, exists := r.data.wallets[wallet.ID]; exists {
		return domain.Conflictf("wallet %s already exists", wallet.ID)
	}
	for _, w := range r.data.wallets {
		if w.Name == wallet.Name {
			return domain.Conflictf("wallet with name %q already exists", wallet.Name)
		}
	}
	r.data.wallets[wallet.ID] = *copyWallet(*wallet)
	r.data.walletIDs = append(r.data.walletIDs, wallet.ID)
	return nil
}

func (r *walletRepository) Update(_ context.Context, wallet *domain.Wallet) error {
	if _, exists := r.data.wallets[wallet.ID]; !exists {
		return domain.NotFoundf("wallet %s", wallet.ID)
	}
	for id, w := range r.data.wallets {
		if id != wallet.ID && w.Name == wallet.Name {
			return domain.Conflictf("wallet with name %q already exists", wallet.Name)
		}
	}
	r.data.wallets[wallet.ID] = *copyWallet(*wallet)
	return nil
}

func (r *walletRepository) Delete(_ context.Context, id uuid.UUID) error {
	if _, exists := r.data.wallets[id]; !exists {
		return domain.NotFoundf("wallet %s", id)
	}
	delete(r.data.wallets, id)
	r.data.walletIDs = removeID(r.data.walletIDs, id)
	return nil
}

// operationRepository implements domain.OperationRepository
type operationRepository struct {
	data *state
}

func (r *operationRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Operation, error) {
	op, ok := r.data.operations[id]
	if !ok {
		return nil, domain.NotFoundf("operation %s", id)
	}
	return copyOperation(op), nil
}

func (r *operationRepository) Create(_ context.Context, op *domain.Operation) error {
	if _, exists := r.data.operations[op.ID]; exists {
		return domain.Conflictf("operation %s already exists", op.ID)
	}
	if _, ok := r.data.wallets[op.WalletID]; !ok {
		return domain.NotFoundf("wallet %s", op.WalletID)
	}
	if op.TargetWalletID != nil {
		if _, ok := r.data.wallets[*op.TargetWalletID]; !ok {
			return domain.NotFoundf("target wallet %s", *op.TargetWalletID)
		}
	}
	r.data.operations[op.ID] = *copyOperation(*op)
	r.data.opIDs = append(r.data.opIDs, op.ID)
	return nil
}

func (r *operationRepository) Delete(_ context.Context, id uuid.UUID) error {
	if _, exists := r.data.operations[id]; !exists {
		return domain.NotFoundf("operation %s", id)
	}
	delete(r.data.operations, id)
	r.data.opIDs = removeID(r.data.opIDs, id)
	return nil
}

func (r *operationRepository) List(_ context.Context, filter domain.OperationFilter) ([]*domain.Operation, error) {
	ops := make([]*domain.Operation, 0)
	for _, id := range r.data.opIDs {
		op := r.data.operations[id]
		if filter.Matches(&op) {
			ops = append(ops, copyOperation(op))
		}
	}

	sort.SliceStable(ops, func(i, j int) bool {
		if !ops[i].OperationTime.Equal(ops[j].OperationTime) {
			return ops[i].OperationTime.After(ops[j].OperationTime)
		}
		return ops[i].CreatedAt.After(ops[j].CreatedAt)
	})
	return ops, nil
}

func (r *operationRepository) CountByWallet(_ context.Context, walletID uuid.UUID) (int, error) {
	count := 0
	for _, op := range r.data.operations {
		if op.Touches(walletID) {
			count++
		}
	}
	return count, nil
}

func copyWallet(w domain.Wallet) *domain.Wallet {
	if w.InterestRate != nil {
		rate := *w.InterestRate
		w.InterestRate = &rate
	}
	if w.LastInterestApplied != nil {
		at := *w.LastInterestApplied
		w.LastInterestApplied = &at
	}
	return &w
}

func copyOperation(op domain.Operation) *domain.Operation {
	if op.TargetWalletID != nil {
		target := *op.TargetWalletID
		op.TargetWalletID = &target
	}
	return &op
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
