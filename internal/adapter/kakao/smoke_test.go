//go:build kakao

package kakao

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Kakao Local API and require a valid KAKAO_REST_KEY env var.
// Run with: go test -tags=kakao ./internal/adapter/kakao/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	key := os.Getenv("KAKAO_REST_KEY")
	if key == "" {
		t.Fatal("KAKAO_REST_KEY must be set to run smoke tests")
	}
	return NewClient(key, "", 10*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_ForwardGeocode(t *testing.T) {
	result, err := smokeClient(t).ForwardGeocode(context.Background(), "대구광역시 중구 동인동")
	require.NoError(t, err)

	assert.True(t, result.Found())
	assert.InDelta(t, 35.87, result.Lat, 0.05, "lat should be near Daegu Jung-gu")
	assert.InDelta(t, 128.59, result.Lon, 0.05, "lon should be near Daegu Jung-gu")
}
