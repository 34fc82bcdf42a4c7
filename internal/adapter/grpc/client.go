package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls the WalletFlow service over an existing connection
type Client struct {
	conn  grpc.ClientConnInterface
	token string
}

// NewClient creates a new Client. A non-empty token is sent as the
// authorization header on every call.
func NewClient(conn grpc.ClientConnInterface, token string) *Client {
	return &Client{conn: conn, token: token}
}

// Call invokes method with a request document and returns the response document
func (c *Client) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (map[string]any, error) {
	if req == nil {
		req = map[string]any{}
	}
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", c.token)
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

// WithIdempotencyKey attaches an idempotency key to the outgoing context
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, idempotencyHeader, key)
}

// CreateWallet creates a wallet from name, kind, description and interest_rate
func (c *Client) CreateWallet(ctx context.Context, req map[string]any) (map[string]any, error) {
	return c.Call(ctx, "CreateWallet", req)
}

// GetWallet fetches one wallet with accrual applied
func (c *Client) GetWallet(ctx context.Context, id string) (map[string]any, error) {
	return c.Call(ctx, "GetWallet", map[string]any{"id": id})
}

// ListWallets lists every wallet in creation order
func (c *Client) ListWallets(ctx context.Context) (map[string]any, error) {
	return c.Call(ctx, "ListWallets", nil)
}

// UpdateWallet changes name, description or interest_rate of the wallet named by id
func (c *Client) UpdateWallet(ctx context.Context, req map[string]any) (map[string]any, error) {
	return c.Call(ctx, "UpdateWallet", req)
}

// DeleteWallet removes a wallet no operation references
func (c *Client) DeleteWallet(ctx context.Context, id string) error {
	_, err := c.Call(ctx, "DeleteWallet", map[string]any{"id": id})
	return err
}

// RecordOperation records an addition, withdrawal or transfer
func (c *Client) RecordOperation(ctx context.Context, req map[string]any) (map[string]any, error) {
	return c.Call(ctx, "RecordOperation", req)
}

// GetOperation fetches one operation
func (c *Client) GetOperation(ctx context.Context, id string) (map[string]any, error) {
	return c.Call(ctx, "GetOperation", map[string]any{"id": id})
}

// ListOperations lists the operations matching filter, newest first
func (c *Client) ListOperations(ctx context.Context, filter map[string]any) (map[string]any, error) {
	return c.Call(ctx, "ListOperations", filter)
}

// SummarizeOperations aggregates the operations matching filter
func (c *Client) SummarizeOperations(ctx context.Context, filter map[string]any) (map[string]any, error) {
	return c.Call(ctx, "SummarizeOperations", filter)
}

// DeleteOperation reverses an operation and removes it
func (c *Client) DeleteOperation(ctx context.Context, id string) error {
	_, err := c.Call(ctx, "DeleteOperation", map[string]any{"id": id})
	return err
}

// GetNetWorth returns the totals across all wallets
func (c *Client) GetNetWorth(ctx context.Context) (map[string]any, error) {
	return c.Call(ctx, "GetNetWorth", nil)
}
