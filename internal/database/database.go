package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"konnectia/internal/config"
	"konnectia/internal/database/migrations"
	"konnectia/internal/utils"
)

// Service owns the process-wide connections: Postgres for accounts and
// passcodes, Mongo for the social graph, Redis for throttling.
type Service interface {
	Health() map[string]string
	SQL() *sql.DB
	Mongo() *mongo.Database
	Redis() *redis.Client
	RecordPoolStats()
	Close(ctx context.Context) error
}

type service struct {
	sqlDB   *sql.DB
	mongoDB *mongo.Client
	mongo   *mongo.Database
	redis   *redis.Client
}

func New(ctx context.Context, cfg *config.Config) (Service, error) {
	sqlDB, err := OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	rdb, err := NewRedisClient(cfg.RedisURL)
	if err != nil {
		sqlDB.Close()
		_ = client.Disconnect(ctx)
		return nil, err
	}

	s := &service{
		sqlDB:   sqlDB,
		mongoDB: client,
		mongo:   client.Database(cfg.MongoDatabase),
		redis:   rdb,
	}
	log.Info().Str("mongo_database", cfg.MongoDatabase).Msg("Database connections established")
	return s, nil
}

// OpenPostgres connects through the pgx stdlib driver and applies the
// embedded migrations.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}
	return db, nil
}

func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func NewRedisClient(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	return redis.NewClient(opt), nil
}

func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := map[string]string{}
	var failed []error

	if err := s.sqlDB.PingContext(ctx); err != nil {
		stats["postgres"] = "down"
		failed = append(failed, err)
	} else {
		stats["postgres"] = "up"
	}
	if err := s.mongoDB.Ping(ctx, nil); err != nil {
		stats["mongo"] = "down"
		failed = append(failed, err)
	} else {
		stats["mongo"] = "up"
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		stats["redis"] = "down"
		failed = append(failed, err)
	} else {
		stats["redis"] = "up"
	}

	if len(failed) > 0 {
		err := errors.Join(failed...)
		log.Error().Err(err).Msg("Database health check failed")
		stats["status"] = "down"
		stats["message"] = "db down"
		stats["error"] = err.Error()
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"
	return stats
}

func (s *service) SQL() *sql.DB {
	return s.sqlDB
}

func (s *service) Mongo() *mongo.Database {
	return s.mongo
}

func (s *service) Redis() *redis.Client {
	return s.redis
}

// RecordPoolStats copies the Postgres and Redis pool counters into the
// pool gauges.
func (s *service) RecordPoolStats() {
	utils.RecordSQLPoolStats("postgres", s.sqlDB.Stats())
	st := s.redis.PoolStats()
	utils.RecordRedisPoolStats(st.TotalConns, st.IdleConns, st.Timeouts)
}

func (s *service) Close(ctx context.Context) error {
	return errors.Join(
		s.sqlDB.Close(),
		s.mongoDB.Disconnect(ctx),
		s.redis.Close(),
	)
}
