// Package store persists the food catalog in a relational database through gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hmans/larder/internal/config"
	"github.com/hmans/larder/internal/food"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Store provides access to ingredients and cuisines.
// A Store returned from Transaction is bound to that transaction.
type Store struct {
	db  *gorm.DB
	log *logrus.Entry
}

// Open connects to the database using the given driver and DSN.
func Open(ctx context.Context, driver, dsn string, logger *logrus.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	log := logger.WithField("component", "store")
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if driver == config.DriverSQLite {
		// SQLite allows a single writer; serialize access through one connection.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("connecting to %s database: %w", driver, err)
	}

	log.WithField("driver", driver).Debug("database opened")
	return &Store{db: db, log: log}, nil
}

// New wraps an existing gorm handle.
func New(db *gorm.DB, logger *logrus.Logger) *Store {
	return &Store{db: db, log: logger.WithField("component", "store")}
}

func newGormLogger(log *logrus.Entry) gormlogger.Interface {
	level := gormlogger.Warn
	if log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		level = gormlogger.Info
	}
	return gormlogger.New(log, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// DB returns the underlying gorm handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates the tables for all models.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(food.Models()...); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}
	return nil
}

// Transaction runs fn inside a database transaction. The transaction is
// committed only if fn returns nil; any error or panic rolls it back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, log: s.log})
	})
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the database connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps gorm errors to package errors.
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ResetSequences advances Postgres ID sequences past rows inserted with
// explicit IDs. It is a no-op on SQLite, which tracks AUTOINCREMENT itself.
func (s *Store) ResetSequences(ctx context.Context) error {
	if s.db.Dialector.Name() != config.DriverPostgres {
		return nil
	}
	for _, table := range []string{food.Ingredient{}.TableName(), food.Cuisine{}.TableName()} {
		stmt := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM %[1]s",
			table,
		)
		if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("resetting sequence for %s: %w", table, err)
		}
	}
	return nil
}
