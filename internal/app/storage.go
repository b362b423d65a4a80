package app

import (
	"context"
	"fmt"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/config"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/escalation"
	escalationmemory "github.com/codedchaitanya/On-Call-Incident-Management-System/internal/escalation/memory"
	escalationpostgres "github.com/codedchaitanya/On-Call-Incident-Management-System/internal/escalation/postgres"
	escalationsqlite "github.com/codedchaitanya/On-Call-Incident-Management-System/internal/escalation/sqlite"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/incidents"
	incidentsmemory "github.com/codedchaitanya/On-Call-Incident-Management-System/internal/incidents/memory"
	incidentspostgres "github.com/codedchaitanya/On-Call-Incident-Management-System/internal/incidents/postgres"
	incidentssqlite "github.com/codedchaitanya/On-Call-Incident-Management-System/internal/incidents/sqlite"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/notifications"
	notificationsredis "github.com/codedchaitanya/On-Call-Incident-Management-System/internal/notifications/redis"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/oncall"
	oncallmemory "github.com/codedchaitanya/On-Call-Incident-Management-System/internal/oncall/memory"
	oncallpostgres "github.com/codedchaitanya/On-Call-Incident-Management-System/internal/oncall/postgres"
	oncallsqlite "github.com/codedchaitanya/On-Call-Incident-Management-System/internal/oncall/sqlite"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/metrics"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/postgres"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/sqlite"
	"github.com/go-redis/redis/v8"
)

// storage bundles the repositories of the configured driver.
type storage struct {
	driver    string
	incidents incidents.Repository
	schedules oncall.Repository
	levels    escalation.Repository

	ping          func(ctx context.Context) error
	recordMetrics func()
	close         func()
}

func openStorage(cfg *config.Config) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		return openPostgres(cfg)
	case config.StorageSQLite:
		return openSQLite(cfg)
	case config.StorageMemory:
		return &storage{
			driver:        config.StorageMemory,
			incidents:     incidentsmemory.NewRepository(),
			schedules:     oncallmemory.NewRepository(),
			levels:        escalationmemory.NewRepository(),
			ping:          func(context.Context) error { return nil },
			recordMetrics: func() {},
			close:         func() {},
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func openPostgres(cfg *config.Config) (*storage, error) {
	if err := postgres.Migrate(cfg.Database.URL); err != nil {
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer cancel()

	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &storage{
		driver:        config.StoragePostgres,
		incidents:     incidentspostgres.NewRepository(db),
		schedules:     oncallpostgres.NewRepository(db),
		levels:        escalationpostgres.NewRepository(db),
		ping:          db.Ping,
		recordMetrics: func() { metrics.RecordDBPoolMetrics(db) },
		close:         db.Close,
	}, nil
}

func openSQLite(cfg *config.Config) (*storage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := sqlite.Open(ctx, sqlite.Config{
		Path:        cfg.SQLite.Path,
		BusyTimeout: cfg.SQLite.BusyTimeout,
	})
	if err != nil {
		return nil, err
	}

	if err := sqlite.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return &storage{
		driver:        config.StorageSQLite,
		incidents:     incidentssqlite.NewRepository(db),
		schedules:     oncallsqlite.NewRepository(db),
		levels:        escalationsqlite.NewRepository(db),
		ping:          db.PingContext,
		recordMetrics: func() { metrics.RecordSQLDBMetrics(config.StorageSQLite, db) },
		close:         func() { _ = db.Close() },
	}, nil
}

// feedQueue is the notification queue with its lifecycle hooks.
type feedQueue struct {
	notifications.Queue
	ping  func(ctx context.Context) error
	close func()
}

func openQueue(cfg *config.Config) (*feedQueue, error) {
	qc := cfg.Notifications.Queue
	switch qc.Driver {
	case config.QueueMemory:
		return &feedQueue{
			Queue: notifications.NewRingQueue(qc.Capacity),
			ping:  func(context.Context) error { return nil },
			close: func() {},
		}, nil
	case config.QueueRedis:
		rc := cfg.Notifications.Redis
		client := redis.NewClient(&redis.Options{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		q := notificationsredis.NewQueue(client, rc.Key, qc.Capacity)
		if err := q.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}

		return &feedQueue{
			Queue: q,
			ping:  q.Ping,
			close: func() { _ = client.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown notification queue driver %q", qc.Driver)
}
