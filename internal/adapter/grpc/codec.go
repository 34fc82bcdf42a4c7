package grpc

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/walletflow/internal/domain"
	"github.com/simaogato/walletflow/internal/usecase/dashboard"
)

const dateLayout = "2006-01-02"

// request reads typed fields out of a Struct message.
// Missing keys and explicit nulls are both treated as absent.
type request struct {
	fields map[string]*structpb.Value
}

func newRequest(s *structpb.Struct) request {
	return request{fields: s.GetFields()}
}

func (r request) value(key string) (*structpb.Value, bool) {
	v, ok := r.fields[key]
	if !ok || v == nil {
		return nil, false
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, false
	}
	return v, true
}

// isNull reports whether key was sent with an explicit null
func (r request) isNull(key string) bool {
	v, ok := r.fields[key]
	if !ok || v == nil {
		return false
	}
	_, isNull := v.GetKind().(*structpb.Value_NullValue)
	return isNull
}

func (r request) optString(key string) (*string, error) {
	v, ok := r.value(key)
	if !ok {
		return nil, nil
	}
	s, isString := v.GetKind().(*structpb.Value_StringValue)
	if !isString {
		return nil, status.Errorf(codes.InvalidArgument, "%s must be a string", key)
	}
	return &s.StringValue, nil
}

func (r request) str(key string) (string, error) {
	s, err := r.optString(key)
	if err != nil || s == nil {
		return "", err
	}
	return *s, nil
}

func (r request) optUUID(key string) (*uuid.UUID, error) {
	s, err := r.optString(key)
	if err != nil || s == nil {
		return nil, err
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", key, err)
	}
	return &id, nil
}

func (r request) uuid(key string) (uuid.UUID, error) {
	id, err := r.optUUID(key)
	if err != nil {
		return uuid.Nil, err
	}
	if id == nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return *id, nil
}

// optDecimal accepts a decimal string ("12.50") or a JSON number
func (r request) optDecimal(key string) (*decimal.Decimal, error) {
	v, ok := r.value(key)
	if !ok {
		return nil, nil
	}

	var (
		d   decimal.Decimal
		err error
	)
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		d, err = decimal.NewFromString(k.StringValue)
	case *structpb.Value_NumberValue:
		d = decimal.NewFromFloat(k.NumberValue)
	default:
		return nil, status.Errorf(codes.InvalidArgument, "%s must be a decimal string or number", key)
	}
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", key, err)
	}
	return &d, nil
}

func (r request) decimal(key string) (decimal.Decimal, error) {
	d, err := r.optDecimal(key)
	if err != nil {
		return decimal.Zero, err
	}
	if d == nil {
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return *d, nil
}

func (r request) boolean(key string) (bool, error) {
	v, ok := r.value(key)
	if !ok {
		return false, nil
	}
	b, isBool := v.GetKind().(*structpb.Value_BoolValue)
	if !isBool {
		return false, status.Errorf(codes.InvalidArgument, "%s must be a boolean", key)
	}
	return b.BoolValue, nil
}

// optTime accepts RFC 3339 or YYYY-MM-DD. With endOfDay a bare date
// covers the whole day (last microsecond).
func (r request) optTime(key string, endOfDay bool) (*time.Time, error) {
	s, err := r.optString(key)
	if err != nil || s == nil {
		return nil, err
	}
	t, err := parseTime(*s, endOfDay)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid %s: expected RFC 3339 or YYYY-MM-DD", key)
	}
	return &t, nil
}

func parseTime(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Microsecond)
	}
	return t, nil
}

// filter reads the optional query parameters shared by listing and summary
func (r request) filter() (domain.OperationFilter, error) {
	var (
		f   domain.OperationFilter
		err error
	)
	if f.WalletID, err = r.optUUID("wallet_id"); err != nil {
		return f, err
	}
	if f.Start, err = r.optTime("start_date", false); err != nil {
		return f, err
	}
	if f.End, err = r.optTime("end_date", true); err != nil {
		return f, err
	}

	category, err := r.optString("category")
	if err != nil {
		return f, err
	}
	if category != nil {
		c, err := domain.ParseCategory(*category)
		if err != nil {
			return f, err
		}
		f.Category = &c
	}

	kind, err := r.optString("operation_type")
	if err != nil {
		return f, err
	}
	if kind != nil {
		k, err := domain.ParseOperationKind(*kind)
		if err != nil {
			return f, err
		}
		f.Kind = &k
	}
	return f, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func optionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func walletToMap(w *domain.Wallet) map[string]any {
	m := map[string]any{
		"id":                    w.ID.String(),
		"name":                  w.Name,
		"kind":                  string(w.Kind),
		"description":           w.Description,
		"balance":               w.Balance.String(),
		"interest_rate":         nil,
		"last_interest_applied": optionalTime(w.LastInterestApplied),
		"created_at":            formatTime(w.CreatedAt),
		"updated_at":            formatTime(w.UpdatedAt),
	}
	if w.InterestRate != nil {
		m["interest_rate"] = w.InterestRate.String()
	}
	return m
}

func operationToMap(op *domain.Operation) map[string]any {
	m := map[string]any{
		"id":               op.ID.String(),
		"wallet_id":        op.WalletID.String(),
		"kind":             string(op.Kind),
		"amount":           op.Amount.String(),
		"category":         string(op.Category),
		"description":      op.Description,
		"operation_time":   formatTime(op.OperationTime),
		"target_wallet_id": nil,
		"created_at":       formatTime(op.CreatedAt),
	}
	if op.TargetWalletID != nil {
		m["target_wallet_id"] = op.TargetWalletID.String()
	}
	return m
}

func summaryToMap(s domain.Summary) map[string]any {
	categories := make([]any, 0, len(s.Categories))
	for _, c := range s.Categories {
		categories = append(categories, map[string]any{
			"category":     string(c.Category),
			"count":        c.Count,
			"total_amount": c.TotalAmount.String(),
		})
	}
	return map[string]any{
		"total_additions":   s.TotalAdditions.String(),
		"total_withdrawals": s.TotalWithdrawals.String(),
		"net_change":        s.NetChange.String(),
		"total_volume":      s.TotalVolume.String(),
		"categories":        categories,
		"period_start":      optionalTime(s.PeriodStart),
		"period_end":        optionalTime(s.PeriodEnd),
	}
}

func netWorthToMap(r *dashboard.NetWorthResult) map[string]any {
	return map[string]any{
		"total_net_worth": r.Total.String(),
		"liquidity":       r.Liquidity.String(),
		"savings":         r.Savings.String(),
		"investments":     r.Investments.String(),
		"wallet_count":    r.WalletCount,
	}
}

// respond converts a response document into a Struct message
func respond(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return s, nil
}
