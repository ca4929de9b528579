package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskflow-api/internal/cache"
	"github.com/BuzzLyutic/taskflow-api/internal/config"
	"github.com/BuzzLyutic/taskflow-api/internal/repo"
	"github.com/BuzzLyutic/taskflow-api/internal/service"
	"github.com/BuzzLyutic/taskflow-api/migrations"
)

// App owns the long-lived connections. They are opened by New and released by Close.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	mongo  *mongo.Client
	pg     *pgxpool.Pool
	redis  *redis.Client
	router http.Handler
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	taskRepo, userRepo, err := a.openStore(ctx)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	opts := []service.Option{service.WithLogger(logger)}
	if cfg.Redis.URL != "" {
		rdb, err := newRedis(ctx, cfg.Redis.URL)
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		a.redis = rdb
		opts = append(opts, service.WithCache(cache.NewTaskCache(rdb, cfg.Redis.TTL)))
		logger.Info("Task cache enabled", zap.Duration("ttl", cfg.Redis.TTL))
	}

	a.router = NewRouter(RouterDeps{
		Tasks:       service.NewTaskService(taskRepo, opts...),
		Users:       service.NewUserService(userRepo),
		Logger:      logger,
		FrontendURL: cfg.HTTP.FrontendURL,
		OwnerID:     cfg.App.DefaultOwnerID,
		Version:     cfg.App.Version,
		Started:     time.Now(),
	})
	return a, nil
}

func (a *App) Router() http.Handler {
	return a.router
}

// Close releases every connection that was opened. Safe to call on a partially built App.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.mongo != nil {
		errs = append(errs, a.mongo.Disconnect(ctx))
	}
	if a.pg != nil {
		a.pg.Close()
	}
	return errors.Join(errs...)
}

func (a *App) openStore(ctx context.Context) (repo.TaskRepository, repo.UserRepository, error) {
	driver, err := a.cfg.DB.Driver()
	if err != nil {
		return nil, nil, err
	}

	switch driver {
	case config.DriverPostgres:
		pool, err := newPostgres(ctx, a.cfg.DB.URL)
		if err != nil {
			return nil, nil, err
		}
		a.pg = pool
		db := stdlib.OpenDBFromPool(pool)
		err = migrations.Up(db)
		db.Close()
		if err != nil {
			return nil, nil, err
		}
		a.logger.Info("Successfully connected to the Database!", zap.String("driver", string(driver)))
		return repo.NewPGTaskRepo(pool), repo.NewPGUserRepo(pool), nil

	default:
		client, err := newMongo(ctx, a.cfg.DB.URL)
		if err != nil {
			return nil, nil, err
		}
		a.mongo = client
		db := client.Database(a.cfg.DB.Database())

		tasks := repo.NewMongoTaskRepo(db)
		users := repo.NewMongoUserRepo(db)
		if err := tasks.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		if err := users.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		a.logger.Info("Successfully connected to the Database!",
			zap.String("driver", string(driver)), zap.String("database", db.Name()))
		return tasks, users, nil
	}
}

func newMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetRetryWrites(true))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

func newPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}
	return pool, nil
}

func newRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
