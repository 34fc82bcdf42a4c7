package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	idempotencyHeader = "idempotency-key"
	idempotencyPrefix = "walletflow:idempotency:v1:"
	inProgressMarker  = "__in_progress__"
)

// redisTimeout bounds each Redis round trip. Every round trip gets its own
// deadline, so a slow handler cannot leave the key stuck in progress.
var redisTimeout = 2 * time.Second

// mutatingMethods are replay-protected when the caller sends an idempotency key
var mutatingMethods = map[string]bool{
	FullMethod("CreateWallet"):    true,
	FullMethod("UpdateWallet"):    true,
	FullMethod("DeleteWallet"):    true,
	FullMethod("RecordOperation"): true,
	FullMethod("DeleteOperation"): true,
}

// IdempotencyInterceptor replays the stored response of a mutating call
// that carries an already seen idempotency-key header. Calls without the
// header pass through. A concurrent duplicate fails with Aborted.
// Failed calls release the key so the client can retry.
func IdempotencyInterceptor(cache *redis.Client, ttl time.Duration, logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if !mutatingMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		md, _ := metadata.FromIncomingContext(ctx)
		keys := md.Get(idempotencyHeader)
		if len(keys) == 0 || keys[0] == "" {
			return handler(ctx, req)
		}
		cacheKey := idempotencyPrefix + info.FullMethod + ":" + keys[0]

		reserved, err := setNX(ctx, cache, cacheKey, ttl)
		if err != nil {
			logger.Error("idempotency reservation failed", zap.String("key", keys[0]), zap.Error(err))
			return nil, status.Error(codes.Unavailable, "idempotency store failure")
		}

		if !reserved {
			return replay(ctx, cache, cacheKey, logger)
		}

		resp, err := handler(ctx, req)
		if err != nil {
			release(ctx, cache, cacheKey, logger)
			return nil, err
		}

		msg, ok := resp.(*structpb.Struct)
		if !ok {
			release(ctx, cache, cacheKey, logger)
			return resp, nil
		}

		payload, err := protojson.Marshal(msg)
		if err != nil {
			logger.Error("failed to encode idempotent response", zap.String("key", keys[0]), zap.Error(err))
			release(ctx, cache, cacheKey, logger)
			return resp, nil
		}

		storeCtx, cancel := redisContext(ctx)
		defer cancel()
		if err := cache.Set(storeCtx, cacheKey, payload, ttl).Err(); err != nil {
			logger.Error("failed to persist idempotent response", zap.String("key", keys[0]), zap.Error(err))
			release(ctx, cache, cacheKey, logger)
		}

		return resp, nil
	}
}

// redisContext detaches from the caller's cancellation and applies redisTimeout
func redisContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), redisTimeout)
}

func setNX(ctx context.Context, cache *redis.Client, cacheKey string, ttl time.Duration) (bool, error) {
	ctx, cancel := redisContext(ctx)
	defer cancel()
	return cache.SetNX(ctx, cacheKey, inProgressMarker, ttl).Result()
}

// release drops the in-progress marker so the client can retry
func release(ctx context.Context, cache *redis.Client, cacheKey string, logger *zap.Logger) {
	ctx, cancel := redisContext(ctx)
	defer cancel()
	if err := cache.Del(ctx, cacheKey).Err(); err != nil {
		logger.Warn("failed to release idempotency key", zap.String("cache_key", cacheKey), zap.Error(err))
	}
}

func replay(ctx context.Context, cache *redis.Client, cacheKey string, logger *zap.Logger) (interface{}, error) {
	ctx, cancel := redisContext(ctx)
	defer cancel()

	cached, err := cache.Get(ctx, cacheKey).Result()
	if errors.Is(err, redis.Nil) {
		// Released between SETNX and GET: the first attempt failed
		return nil, status.Error(codes.Aborted, "concurrent request with the same idempotency key failed; retry")
	}
	if err != nil {
		logger.Error("idempotency lookup failed", zap.String("cache_key", cacheKey), zap.Error(err))
		return nil, status.Error(codes.Unavailable, "idempotency store failure")
	}

	if cached == inProgressMarker {
		return nil, status.Error(codes.Aborted, "duplicate request currently processing")
	}

	out := new(structpb.Struct)
	if err := protojson.Unmarshal([]byte(cached), out); err != nil {
		logger.Warn("failed to decode stored idempotent response", zap.String("cache_key", cacheKey), zap.Error(err))
		return nil, status.Error(codes.Aborted, "duplicate request")
	}
	return out, nil
}
