package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/walletflow/internal/domain"
)

const walletColumns = `id, name, kind, description, balance, interest_rate, last_interest_applied, created_at, updated_at`

// walletRepository implements domain.WalletRepository
type walletRepository struct {
	tx *sql.Tx
	d  dialect
}

// GetByID retrieves a wallet and locks its row until the transaction ends
func (r *walletRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1` + r.d.forUpdate

	wallet, err := scanWallet(r.tx.QueryRowContext(ctx, r.d.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("wallet %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

// GetByName retrieves a wallet by its exact name
func (r *walletRepository) GetByName(ctx context.Context, name string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE name = $1`

	wallet, err := scanWallet(r.tx.QueryRowContext(ctx, r.d.rebind(query), name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("wallet named %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet by name: %w", err)
	}
	return wallet, nil
}

// List retrieves all wallets in creation order without locking them.
// Callers that write a listed wallet re-read it through GetByID.
func (r *walletRepository) List(ctx context.Context) ([]*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets ORDER BY created_at, ` + r.d.seqColumn

	rows, err := r.tx.QueryContext(ctx, r.d.rebind(query))
	if err != nil {
		return nil, fmt.Errorf("failed to query wallets: %w", err)
	}
	defer rows.Close()

	wallets := make([]*domain.Wallet, 0)
	for rows.Next() {
		wallet, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, wallet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallets: %w", err)
	}

	return wallets, nil
}

// Create creates a new wallet
func (r *walletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	query := `
		INSERT INTO wallets (id, name, kind, description, balance, interest_rate, last_interest_applied, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.tx.ExecContext(ctx, r.d.rebind(query),
		wallet.ID,
		wallet.Name,
		string(wallet.Kind),
		wallet.Description,
		wallet.Balance.String(),
		nullDecimal(wallet.InterestRate),
		r.d.nullTime(wallet.LastInterestApplied),
		r.d.timeArg(wallet.CreatedAt),
		r.d.timeArg(wallet.UpdatedAt),
	)
	if r.d.isUnique(err) {
		return domain.Conflictf("wallet with name %q already exists", wallet.Name)
	}
	if err != nil {
		return fmt.Errorf("failed to insert wallet: %w", err)
	}
	return nil
}

// Update persists the mutable fields and the balance of an existing wallet
func (r *walletRepository) Update(ctx context.Context, wallet *domain.Wallet) error {
	query := `
		UPDATE wallets
		SET name = $2, description = $3, balance = $4, interest_rate = $5,
		    last_interest_applied = $6, updated_at = $7
		WHERE id = $1
	`

	res, err := r.tx.ExecContext(ctx, r.d.rebind(query),
		wallet.ID,
		wallet.Name,
		wallet.Description,
		wallet.Balance.String(),
		nullDecimal(wallet.InterestRate),
		r.d.nullTime(wallet.LastInterestApplied),
		r.d.timeArg(wallet.UpdatedAt),
	)
	if r.d.isUnique(err) {
		return domain.Conflictf("wallet with name %q already exists", wallet.Name)
	}
	if err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}
	return expectOneRow(res, domain.NotFoundf("wallet %s", wallet.ID))
}

// Delete removes a wallet. Wallets referenced by operations are rejected.
func (r *walletRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.tx.ExecContext(ctx, r.d.rebind(`DELETE FROM wallets WHERE id = $1`), id)
	if r.d.isFK(err) {
		return domain.Conflictf("wallet %s is referenced by operations", id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete wallet: %w", err)
	}
	return expectOneRow(res, domain.NotFoundf("wallet %s", id))
}

func scanWallet(row rowScanner) (*domain.Wallet, error) {
	var (
		wallet domain.Wallet
		kind   string
		rate   decimal.NullDecimal
		last   = newNullableTime()
	)

	err := row.Scan(
		&wallet.ID,
		&wallet.Name,
		&kind,
		&wallet.Description,
		&wallet.Balance,
		&rate,
		last,
		scanTime(&wallet.CreatedAt),
		scanTime(&wallet.UpdatedAt),
	)
	if err != nil {
		return nil, err
	}

	wallet.Kind = domain.WalletKind(kind)
	if rate.Valid {
		r := rate.Decimal
		wallet.InterestRate = &r
	}
	wallet.LastInterestApplied = last.ptr()
	return &wallet, nil
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}
