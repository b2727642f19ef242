package app

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/submission-intake/constants"
	"github.com/joseph-ayodele/submission-intake/internal/common"
	"github.com/joseph-ayodele/submission-intake/internal/submission"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(common.LogConfig{Level: "warn", Format: "json"}, &buf)
	l.Info("hidden")
	l.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	l = NewLogger(common.LogConfig{Level: "bogus"}, &buf)
	l.Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}

func TestNewTokenCache(t *testing.T) {
	cache, closeFn := NewTokenCache(context.Background(), common.RedisConfig{}, slog.Default())
	defer closeFn()
	_, ok := cache.(*submission.MemoryTokenCache)
	assert.True(t, ok)

	cache, closeFn = NewTokenCache(context.Background(), common.RedisConfig{Addr: "127.0.0.1:1"}, slog.Default())
	defer closeFn()
	_, ok = cache.(*submission.MemoryTokenCache)
	assert.True(t, ok, "unreachable redis falls back to memory")
}

func TestNewSubmitter(t *testing.T) {
	cfg, err := common.LoadConfig("")
	require.NoError(t, err)
	cfg.Submission.Environment = "prod"
	_, err = NewSubmitter(cfg, submission.NewMemoryTokenCache(), slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QUOTE_PROD_")

	cfg.Submission.Production = common.QuoteEnvConfig{
		BaseURL: "https://quotes.example", TokenURL: "https://auth.example/token", ClientID: "id", ClientSecret: "s",
	}
	c, err := NewSubmitter(cfg, submission.NewMemoryTokenCache(), slog.Default())
	require.NoError(t, err)
	assert.Equal(t, constants.EnvProduction, c.Environment())
}
