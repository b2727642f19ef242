package submission

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/submission-intake/constants"
)

// TokenCache holds one bearer token per environment.
type TokenCache interface {
	Get(ctx context.Context, env constants.Environment) (Token, bool)
	Put(ctx context.Context, env constants.Environment, tok Token) error
	Invalidate(ctx context.Context, env constants.Environment) error
}

// MemoryTokenCache is a process-local TokenCache.
type MemoryTokenCache struct {
	mu     sync.Mutex
	tokens map[constants.Environment]Token
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{tokens: map[constants.Environment]Token{}}
}

func (c *MemoryTokenCache) Get(_ context.Context, env constants.Environment) (Token, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tok, ok := c.tokens[env]
	return tok, ok
}

func (c *MemoryTokenCache) Put(_ context.Context, env constants.Environment, tok Token) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[env] = tok
	return nil
}

func (c *MemoryTokenCache) Invalidate(_ context.Context, env constants.Environment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, env)
	return nil
}

// RedisTokenCache shares tokens between processes. Entries expire with the token's usable lifetime.
type RedisTokenCache struct {
	rdb    *redis.Client
	prefix string
	logger *slog.Logger
}

func NewRedisTokenCache(rdb *redis.Client, logger *slog.Logger) *RedisTokenCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisTokenCache{rdb: rdb, prefix: "intake:quote_token:", logger: logger}
}

func (c *RedisTokenCache) key(env constants.Environment) string {
	return c.prefix + string(env)
}

// Get treats any Redis failure as a miss so a cache outage only costs a token exchange.
func (c *RedisTokenCache) Get(ctx context.Context, env constants.Environment) (Token, bool) {
	raw, err := c.rdb.Get(ctx, c.key(env)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("submission.token_cache.get_failed", "env", env, "error", err)
		}
		return Token{}, false
	}
	var tok Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		c.logger.Warn("submission.token_cache.decode_failed", "env", env, "error", err)
		return Token{}, false
	}
	return tok, true
}

func (c *RedisTokenCache) Put(ctx context.Context, env constants.Environment, tok Token) error {
	ttl := time.Until(tok.ExpiresAt) - ExpiryMargin
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(env), b, ttl).Err()
}

func (c *RedisTokenCache) Invalidate(ctx context.Context, env constants.Environment) error {
	return c.rdb.Del(ctx, c.key(env)).Err()
}
