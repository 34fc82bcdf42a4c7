package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/simaogato/walletflow/internal/domain"
)

const operationColumns = `id, wallet_id, kind, amount, category, description, operation_time, target_wallet_id, created_at`

// operationRepository implements domain.OperationRepository
type operationRepository struct {
	tx *sql.Tx
	d  dialect
}

// GetByID retrieves an operation by its ID
func (r *operationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Operation, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE id = $1` + r.d.forUpdate

	op, err := scanOperation(r.tx.QueryRowContext(ctx, r.d.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("operation %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operation: %w", err)
	}
	return op, nil
}

// Create creates a new operation
func (r *operationRepository) Create(ctx context.Context, op *domain.Operation) error {
	query := `
		INSERT INTO operations (id, wallet_id, kind, amount, category, description, operation_time, target_wallet_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	target := uuid.NullUUID{}
	if op.TargetWalletID != nil {
		target = uuid.NullUUID{UUID: *op.TargetWalletID, Valid: true}
	}

	_, err := r.tx.ExecContext(ctx, r.d.rebind(query),
		op.ID,
		op.WalletID,
		string(op.Kind),
		op.Amount.String(),
		string(op.Category),
		op.Description,
		r.d.timeArg(op.OperationTime),
		target,
		r.d.timeArg(op.CreatedAt),
	)
	switch {
	case r.d.isFK(err):
		return domain.NotFoundf("wallet referenced by operation %s", op.ID)
	case r.d.isUnique(err):
		return domain.Conflictf("operation %s already exists", op.ID)
	case err != nil:
		return fmt.Errorf("failed to insert operation: %w", err)
	}
	return nil
}

// Delete removes an operation
func (r *operationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.tx.ExecContext(ctx, r.d.rebind(`DELETE FROM operations WHERE id = $1`), id)
	if err != nil {
		return fmt.Errorf("failed to delete operation: %w", err)
	}
	return expectOneRow(res, domain.NotFoundf("operation %s", id))
}

// List retrieves the operations matching filter, newest operation_time first
func (r *operationRepository) List(ctx context.Context, filter domain.OperationFilter) ([]*domain.Operation, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filter.WalletID != nil {
		add("wallet_id = $%d", *filter.WalletID)
	}
	if filter.Start != nil {
		add("operation_time >= $%d", r.d.timeArg(*filter.Start))
	}
	if filter.End != nil {
		add("operation_time <= $%d", r.d.timeArg(*filter.End))
	}
	if filter.Category != nil {
		add("category = $%d", string(*filter.Category))
	}
	if filter.Kind != nil {
		add("kind = $%d", string(*filter.Kind))
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + operationColumns + ` FROM operations`)
	if len(where) > 0 {
		b.WriteString(` WHERE ` + strings.Join(where, ` AND `))
	}
	b.WriteString(` ORDER BY operation_time DESC, created_at DESC, ` + r.d.seqColumn + ` DESC`)

	rows, err := r.tx.QueryContext(ctx, r.d.rebind(b.String()), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	ops := make([]*domain.Operation, 0)
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operations: %w", err)
	}

	return ops, nil
}

// CountByWallet counts operations referencing the wallet as owner or transfer target
func (r *operationRepository) CountByWallet(ctx context.Context, walletID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM operations WHERE wallet_id = $1 OR target_wallet_id = $1`

	var count int
	if err := r.tx.QueryRowContext(ctx, r.d.rebind(query), walletID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count operations: %w", err)
	}
	return count, nil
}

func scanOperation(row rowScanner) (*domain.Operation, error) {
	var (
		op       domain.Operation
		kind     string
		category string
		target   uuid.NullUUID
	)

	err := row.Scan(
		&op.ID,
		&op.WalletID,
		&kind,
		&op.Amount,
		&category,
		&op.Description,
		scanTime(&op.OperationTime),
		&target,
		scanTime(&op.CreatedAt),
	)
	if err != nil {
		return nil, err
	}

	op.Kind = domain.OperationKind(kind)
	op.Category = domain.Category(category)
	if target.Valid {
		id := target.UUID
		op.TargetWalletID = &id
	}
	return &op, nil
}
