package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	t.Run("Connects and pings", func(t *testing.T) {
		client, err := NewRedisClient(ctx, "redis://"+mr.Addr()+"/0")
		require.NoError(t, err)
		defer client.Close()

		require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
		got, err := mr.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "v", got)
	})

	tests := []struct {
		name   string
		url    string
		errMsg string
	}{
		{name: "Empty url", url: "", errMsg: "redis url is required"},
		{name: "Bad scheme", url: "http://" + mr.Addr(), errMsg: "parse redis url"},
		{name: "Unreachable", url: "redis://127.0.0.1:1/0", errMsg: "ping redis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRedisClient(ctx, tt.url)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
