// File: utils/cache.go
package utils

import (
	"context"
	"time"

	"sponsorly/config"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var (
	// CacheClient holds match lists and AI explanations.
	CacheClient *redis.Client
	// AuthCacheClient holds the token hash of each signed-in user.
	AuthCacheClient *redis.Client
)

const redisPingTimeout = 2 * time.Second

// connectRedis opens a client on the given logical database and exits the
// process when the first ping fails.
func connectRedis(name string, db int) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		GetLogger().Fatal("redis unreachable",
			zap.String("client", name),
			zap.String("addr", config.AppConfig.RedisAddr),
			zap.Int("db", db),
			zap.Error(err))
	}
	GetLogger().Debug("redis connected", zap.String("client", name), zap.Int("db", db))
	return client
}

func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		CacheClient = connectRedis("cache", config.AppConfig.RedisCacheDB)
	}
	return CacheClient
}

func GetAuthCacheClient() *redis.Client {
	if AuthCacheClient == nil {
		AuthCacheClient = connectRedis("auth", config.AppConfig.RedisAuthDB)
	}
	return AuthCacheClient
}

// InitRedis connects the cache and auth clients used by the API process.
func InitRedis() {
	GetCacheClient()
	GetAuthCacheClient()
}
