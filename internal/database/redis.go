package database

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

// OpenRedis はredis://形式のURLからRedisクライアントを生成する。
// 接続は遅延されるため、疎通確認にはPingを使用すること。
func OpenRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}
