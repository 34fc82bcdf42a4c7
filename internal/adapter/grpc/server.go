package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/walletflow/internal/domain"
	"github.com/simaogato/walletflow/internal/usecase/dashboard"
	"github.com/simaogato/walletflow/internal/usecase/journal"
	"github.com/simaogato/walletflow/internal/usecase/ledger"
)

// Server implements the WalletFlowService gRPC server
type Server struct {
	LedgerService    *ledger.LedgerService
	JournalService   *journal.JournalService
	DashboardService *dashboard.DashboardService
}

// NewServer creates a new gRPC server instance
func NewServer(
	ledgerService *ledger.LedgerService,
	journalService *journal.JournalService,
	dashboardService *dashboard.DashboardService,
) *Server {
	return &Server{
		LedgerService:    ledgerService,
		JournalService:   journalService,
		DashboardService: dashboardService,
	}
}

// CreateWallet handles the CreateWallet RPC
func (s *Server) CreateWallet(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)

	var (
		input ledger.CreateWalletInput
		err   error
	)
	if input.Name, err = r.str("name"); err != nil {
		return nil, err
	}
	if input.Kind, err = r.str("kind"); err != nil {
		return nil, err
	}
	if input.Description, err = r.str("description"); err != nil {
		return nil, err
	}
	if input.InterestRate, err = r.optDecimal("interest_rate"); err != nil {
		return nil, err
	}

	wallet, err := s.LedgerService.CreateWallet(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]any{"wallet": walletToMap(wallet)})
}

// GetWallet handles the GetWallet RPC
func (s *Server) GetWallet(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := newRequest(req).uuid("id")
	if err != nil {
		return nil, err
	}

	wallet, err := s.LedgerService.GetWallet(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]any{"wallet": walletToMap(wallet)})
}

// ListWallets handles the ListWallets RPC
func (s *Server) ListWallets(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	wallets, err := s.LedgerService.ListWallets(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	items := make([]any, 0, len(wallets))
	for _, w := range wallets {
		items = append(items, walletToMap(w))
	}

	return respond(map[string]any{"wallets": items})
}

// UpdateWallet handles the UpdateWallet RPC.
// Absent fields are left unchanged; "interest_rate": null clears the rate.
func (s *Server) UpdateWallet(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)

	id, err := r.uuid("id")
	if err != nil {
		return nil, err
	}

	var input ledger.UpdateWalletInput
	if input.Name, err = r.optString("name"); err != nil {
		return nil, err
	}
	if input.Description, err = r.optString("description"); err != nil {
		return nil, err
	}
	if input.InterestRate, err = r.optDecimal("interest_rate"); err != nil {
		return nil, err
	}
	if input.ClearInterestRate, err = r.boolean("clear_interest_rate"); err != nil {
		return nil, err
	}
	if r.isNull("interest_rate") {
		input.ClearInterestRate = true
	}

	wallet, err := s.LedgerService.UpdateWallet(ctx, id, input)
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]any{"wallet": walletToMap(wallet)})
}

// DeleteWallet handles the DeleteWallet RPC
func (s *Server) DeleteWallet(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := newRequest(req).uuid("id")
	if err != nil {
		return nil, err
	}

	if err := s.LedgerService.DeleteWallet(ctx, id); err != nil {
		// A referenced wallet is a precondition failure, not a duplicate
		if errors.Is(err, domain.ErrConflict) {
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		}
		return nil, mapError(err)
	}

	return respond(map[string]any{})
}

// RecordOperation handles the RecordOperation RPC
func (s *Server) RecordOperation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)

	var (
		input journal.RecordOperationInput
		err   error
	)
	if input.WalletID, err = r.uuid("wallet_id"); err != nil {
		return nil, err
	}
	if input.Kind, err = r.str("kind"); err != nil {
		return nil, err
	}
	if input.Amount, err = r.decimal("amount"); err != nil {
		return nil, err
	}
	if input.Category, err = r.str("category"); err != nil {
		return nil, err
	}
	if input.Description, err = r.str("description"); err != nil {
		return nil, err
	}
	if input.OperationTime, err = r.optTime("operation_time", false); err != nil {
		return nil, err
	}
	if input.TargetWalletID, err = r.optUUID("target_wallet_id"); err != nil {
		return nil, err
	}

	op, err := s.JournalService.Record(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]any{"operation": operationToMap(op)})
}

// GetOperation handles the GetOperation RPC
func (s *Server) GetOperation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := newRequest(req).uuid("id")
	if err != nil {
		return nil, err
	}

	op, err := s.JournalService.GetOperation(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]any{"operation": operationToMap(op)})
}

// ListOperations handles the ListOperations RPC
func (s *Server) ListOperations(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	filter, err := newRequest(req).filter()
	if err != nil {
		return nil, mapError(err)
	}

	ops, err := s.JournalService.Query(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}

	items := make([]any, 0, len(ops))
	for _, op := range ops {
		items = append(items, operationToMap(op))
	}

	return respond(map[string]any{"operations": items})
}

// SummarizeOperations handles the SummarizeOperations RPC
func (s *Server) SummarizeOperations(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	filter, err := newRequest(req).filter()
	if err != nil {
		return nil, mapError(err)
	}

	summary, err := s.JournalService.Summarize(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]any{"summary": summaryToMap(summary)})
}

// DeleteOperation handles the DeleteOperation RPC
func (s *Server) DeleteOperation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := newRequest(req).uuid("id")
	if err != nil {
		return nil, err
	}

	if err := s.JournalService.DeleteOperation(ctx, id); err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]any{})
}

// GetNetWorth handles the GetNetWorth RPC
func (s *Server) GetNetWorth(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	result, err := s.DashboardService.GetNetWorth(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	return respond(netWorthToMap(result))
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	// Default to Internal error for unknown errors
	return status.Errorf(codes.Internal, "%s", err.Error())
}
