package db

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/angelmondragon/taxchat-backend/pkg/config"
	"github.com/angelmondragon/taxchat-backend/pkg/logger"
	"golang.org/x/sync/semaphore"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultPoolSize bounds concurrent acquisitions when the config leaves it unset.
const DefaultPoolSize = 5

// Client wraps the shared GORM connection and gates access to its pool.
type Client struct {
	conn    *gorm.DB
	dialect string
	slots   *semaphore.Weighted
}

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New boots a GORM client using the provided configuration.
func New(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	var dialector gorm.Dialector
	dialect := config.DriverPostgres
	if cfg.IsSQLite() {
		dialect = config.DriverSQLite
		dialector = sqlite.Open(cfg.DSN)
	} else {
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DSN,
			PreferSimpleProtocol: true,
		})
	}

	conn, err := gorm.Open(dialector, gormConfig())
	if err != nil {
		return nil, fmt.Errorf("opening db connection: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}

	applyPoolSettings(sqlDB, cfg)

	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{"driver": dialect, "pool_size": poolSize(cfg.MaxOpenConns)})
		logg.Info(ctx, "database connection established")
	}

	return FromConn(conn, dialect, cfg.MaxOpenConns), nil
}

// FromConn wraps an already opened GORM handle. size <= 0 uses DefaultPoolSize.
func FromConn(conn *gorm.DB, dialect string, size int) *Client {
	return &Client{
		conn:    conn,
		dialect: dialect,
		slots:   semaphore.NewWeighted(int64(poolSize(size))),
	}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: gormlogger.New(
			log.New(io.Discard, "", log.LstdFlags),
			gormlogger.Config{LogLevel: gormlogger.Silent},
		),
		SkipDefaultTransaction: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func poolSize(n int) int {
	if n <= 0 {
		return DefaultPoolSize
	}
	return n
}

func applyPoolSettings(sqlDB *sql.DB, cfg config.DBConfig) {
	size := poolSize(cfg.MaxOpenConns)
	sqlDB.SetMaxOpenConns(size)
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(min(cfg.MaxIdleConns, size))
	}
}

// DB returns the underlying GORM connection.
func (c *Client) DB() *gorm.DB {
	return c.conn
}

// Dialect reports the configured driver name.
func (c *Client) Dialect() string {
	return c.dialect
}

// Ping verifies the datasource is reachable.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close shuts down the pooled connections.
func (c *Client) Close() error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Acquire hands fn a context-bound handle while holding one pool slot.
// It never waits: a saturated pool returns ErrConnectionExhausted.
func (c *Client) Acquire(ctx context.Context, fn func(conn *gorm.DB) error) error {
	if !c.slots.TryAcquire(1) {
		return ErrConnectionExhausted
	}
	defer c.slots.Release(1)

	return Storage(fn(c.conn.WithContext(ctx)), "query")
}

// WithTx executes fn inside a transaction, rolling back on error/panic.
// The pool slot is released only after commit or rollback completes.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if !c.slots.TryAcquire(1) {
		return ErrConnectionExhausted
	}
	defer c.slots.Release(1)

	tx := c.conn.WithContext(ctx).Begin()
	if tx.Error != nil {
		return Storage(tx.Error, "begin transaction")
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return Storage(err, "transaction")
	}

	return Storage(tx.Commit().Error, "commit transaction")
}
