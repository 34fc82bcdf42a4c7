package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func newIdempotencyFixture(t *testing.T) (*miniredis.Miniredis, grpc.UnaryServerInterceptor) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, IdempotencyInterceptor(rdb, time.Hour, zap.NewNop())
}

func withKey(key string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(idempotencyHeader, key))
}

// countingHandler returns a fresh response document on every call
func countingHandler(calls *int) grpc.UnaryHandler {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		*calls++
		return structpb.NewStruct(map[string]any{"call": float64(*calls)})
	}
}

func TestIdempotencyInterceptor_ReplaysStoredResponse(t *testing.T) {
	mr, interceptor := newIdempotencyFixture(t)
	info := &grpc.UnaryServerInfo{FullMethod: FullMethod("RecordOperation")}

	calls := 0
	first, err := interceptor(withKey("abc"), nil, info, countingHandler(&calls))
	require.NoError(t, err)
	second, err := interceptor(withKey("abc"), nil, info, countingHandler(&calls))
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "handler must run once per key")
	assert.True(t, proto.Equal(first.(*structpb.Struct), second.(*structpb.Struct)))
	assert.True(t, mr.Exists(idempotencyPrefix+info.FullMethod+":abc"))
	assert.Greater(t, mr.TTL(idempotencyPrefix+info.FullMethod+":abc"), time.Duration(0))

	_, err = interceptor(withKey("other"), nil, info, countingHandler(&calls))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyInterceptor_PassThrough(t *testing.T) {
	mr, interceptor := newIdempotencyFixture(t)

	tests := []struct {
		name   string
		ctx    context.Context
		method string
	}{
		{name: "Read-only method", ctx: withKey("abc"), method: FullMethod("GetWallet")},
		{name: "Missing header", ctx: context.Background(), method: FullMethod("CreateWallet")},
		{name: "Empty key", ctx: withKey(""), method: FullMethod("CreateWallet")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			info := &grpc.UnaryServerInfo{FullMethod: tt.method}
			for i := 0; i < 2; i++ {
				_, err := interceptor(tt.ctx, nil, info, countingHandler(&calls))
				require.NoError(t, err)
			}
			assert.Equal(t, 2, calls)
		})
	}
	assert.Empty(t, mr.Keys())
}

func TestIdempotencyInterceptor_FailureReleasesKey(t *testing.T) {
	mr, interceptor := newIdempotencyFixture(t)
	info := &grpc.UnaryServerInfo{FullMethod: FullMethod("DeleteOperation")}

	_, err := interceptor(withKey("retry"), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.FailedPrecondition, "insufficient funds")
	})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Empty(t, mr.Keys())

	calls := 0
	_, err = interceptor(withKey("retry"), nil, info, countingHandler(&calls))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestIdempotencyInterceptor_InProgress(t *testing.T) {
	mr, interceptor := newIdempotencyFixture(t)
	info := &grpc.UnaryServerInfo{FullMethod: FullMethod("CreateWallet")}
	require.NoError(t, mr.Set(idempotencyPrefix+info.FullMethod+":busy", inProgressMarker))

	calls := 0
	_, err := interceptor(withKey("busy"), nil, info, countingHandler(&calls))
	assert.Equal(t, codes.Aborted, status.Code(err))
	assert.Zero(t, calls)
}

func TestIdempotencyInterceptor_StoreUnavailable(t *testing.T) {
	mr, interceptor := newIdempotencyFixture(t)
	mr.Close()
	info := &grpc.UnaryServerInfo{FullMethod: FullMethod("CreateWallet")}

	calls := 0
	_, err := interceptor(withKey("abc"), nil, info, countingHandler(&calls))
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Zero(t, calls)
}

func TestIdempotencyInterceptor_SlowHandler(t *testing.T) {
	previous := redisTimeout
	redisTimeout = 50 * time.Millisecond
	t.Cleanup(func() { redisTimeout = previous })

	slow := func(err error, calls *int) grpc.UnaryHandler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			time.Sleep(3 * redisTimeout)
			*calls++
			if err != nil {
				return nil, err
			}
			return structpb.NewStruct(map[string]any{"call": float64(*calls)})
		}
	}

	t.Run("Failure still releases the key", func(t *testing.T) {
		mr, interceptor := newIdempotencyFixture(t)
		info := &grpc.UnaryServerInfo{FullMethod: FullMethod("RecordOperation")}

		calls := 0
		_, err := interceptor(withKey("slow-fail"), nil, info, slow(status.Error(codes.Internal, "busy"), &calls))
		assert.Equal(t, codes.Internal, status.Code(err))
		assert.Empty(t, mr.Keys())

		_, err = interceptor(withKey("slow-fail"), nil, info, slow(nil, &calls))
		require.NoError(t, err)
		assert.Equal(t, 2, calls, "retry must reach the handler")
	})

	t.Run("Success still stores the response", func(t *testing.T) {
		mr, interceptor := newIdempotencyFixture(t)
		info := &grpc.UnaryServerInfo{FullMethod: FullMethod("CreateWallet")}

		calls := 0
		first, err := interceptor(withKey("slow-ok"), nil, info, slow(nil, &calls))
		require.NoError(t, err)

		cacheKey := idempotencyPrefix + info.FullMethod + ":slow-ok"
		stored, err := mr.Get(cacheKey)
		require.NoError(t, err)
		assert.NotEqual(t, inProgressMarker, stored)

		second, err := interceptor(withKey("slow-ok"), nil, info, slow(nil, &calls))
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.True(t, proto.Equal(first.(*structpb.Struct), second.(*structpb.Struct)))
	})
}
