package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/newsdesk/internal/config"
	"github.com/hitoshi/newsdesk/internal/database"
	"github.com/hitoshi/newsdesk/internal/handler"
	"github.com/hitoshi/newsdesk/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// stores は設定に応じて選択したリポジトリと接続を保持する。
type stores struct {
	comments repository.CommentRepository
	sessions repository.SessionRepository
	checks   map[string]handler.HealthCheck
	closers  []func(ctx context.Context) error
}

// openStores はCOMMENT_STOREとSESSION_STOREに従って接続を開き、リポジトリを構築する。
// 途中で失敗した場合は開いた接続を閉じてからエラーを返す。
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	s := &stores{checks: make(map[string]handler.HealthCheck)}
	opened := false
	defer func() {
		if !opened {
			_ = s.close(context.Background())
		}
	}()

	var (
		db  *sql.DB
		err error
	)
	if cfg.CommentStore == config.StorePostgres || cfg.SessionStore == config.StorePostgres {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		s.closers = append(s.closers, func(context.Context) error { return db.Close() })
		if err = db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.checks[config.StorePostgres] = db.PingContext
		slog.Info("database connection established")
	}

	switch cfg.CommentStore {
	case config.StoreMongo:
		var client *mongo.Client
		var mdb *mongo.Database
		client, mdb, err = database.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to open mongo: %w", err)
		}
		s.closers = append(s.closers, client.Disconnect)
		if err = client.Ping(ctx, readpref.Primary()); err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		s.checks[config.StoreMongo] = func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		}
		s.comments = repository.NewMongoCommentRepo(mdb)
		slog.Info("mongo connection established", slog.String("database", mdb.Name()))
	default:
		s.comments = repository.NewPostgresCommentRepo(db)
	}

	switch cfg.SessionStore {
	case config.StoreRedis:
		var client *redis.Client
		client, err = database.OpenRedis(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis: %w", err)
		}
		s.closers = append(s.closers, func(context.Context) error { return client.Close() })
		if err = client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.checks[config.StoreRedis] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
		s.sessions = repository.NewRedisSessionRepo(client)
		slog.Info("redis connection established")
	default:
		s.sessions = repository.NewPostgresSessionRepo(db)
	}

	opened = true
	return s, nil
}

// close は開いた接続を逆順に閉じる。
func (s *stores) close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
