package database

import (
	"errors"
	"fmt"
	"time"

	"stock-ledger/internal/config"
	"stock-ledger/internal/models"

	mysqldriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second

	// mysqlDuplicateEntry is ER_DUP_ENTRY.
	mysqlDuplicateEntry = 1062
)

// Connect opens the MySQL pool, waits for the server to come up and syncs the schema.
func Connect(cfg *config.Config) error {
	dsn, addr, err := NormalizeDSN(cfg.DSN)
	if err != nil {
		return err
	}

	var db *gorm.DB
	// 1. Connect with GORM (Wait for DB to be ready)
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger:         logger.Default.LogMode(gormLogLevel(cfg.DBLogLevel)),
			TranslateError: true,
		})
		if err == nil {
			break
		}
		zap.L().Warn("failed to connect to database, retrying",
			zap.String("addr", addr), zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(connectBackoff)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database after %d attempts: %w", connectAttempts, err)
	}

	// 2. Bound the pool
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("unable to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	zap.L().Info("connected to MySQL", zap.String("addr", addr), zap.Int("pool_size", cfg.DBMaxOpenConns))

	// 3. Auto-Migrate
	if err := Migrate(db); err != nil {
		return err
	}
	zap.L().Info("database schema synced")

	DB = db
	return nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// NormalizeDSN forces parseTime and the local time zone so DATETIME columns
// scan into time.Time values comparable with time.Now, and returns the server address for logging without credentials.
func NormalizeDSN(dsn string) (string, string, error) {
	c, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return "", "", fmt.Errorf("invalid DB_DSN: %w", err)
	}
	c.ParseTime = true
	c.Loc = time.Local
	return c.FormatDSN(), c.Addr, nil
}

// IsDuplicateKey reports whether err is a unique constraint violation.
func IsDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqldriver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
