package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
}

// retryDelays is the backoff between connection attempts, doubling each time
var retryDelays = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}

// InitDatabase opens the configured database, retrying with backoff while the
// server is unreachable, and sizes the connection pool for the driver.
func InitDatabase(cfg DatabaseConfig) (*gorm.DB, error) {
	dialector, err := cfg.dialector()
	if err != nil {
		return nil, err
	}

	attempts := cfg.MaxRetries
	if attempts <= 0 || attempts > len(retryDelays) {
		attempts = len(retryDelays)
	}
	fields := logrus.Fields{"db_driver": cfg.driver(), "db_host": cfg.Host, "db_name": cfg.Name, "db_path": cfg.Path}
	log.WithFields(fields).Info("Connecting to database")

	for attempt := 1; ; attempt++ {
		db, err := open(dialector, cfg.driver())
		if err == nil {
			log.WithFields(fields).WithField("attempt", attempt).Info("Database connection established")
			return db, nil
		}
		if attempt == attempts {
			return nil, fmt.Errorf("connect to %s database after %d attempts: %w", cfg.driver(), attempts, err)
		}

		delay := retryDelays[attempt-1]
		log.WithError(err).WithFields(logrus.Fields{"attempt": attempt, "retry_in": delay.String()}).Warn("Database connection failed")
		time.Sleep(delay)
	}
}

func (c *DatabaseConfig) driver() string {
	switch d := strings.ToLower(c.Driver); d {
	case "", "sqlite":
		return "sqlite"
	case "postgresql":
		return "postgres"
	default:
		return d
	}
}

func (c *DatabaseConfig) dialector() (gorm.Dialector, error) {
	switch c.driver() {
	case "postgres":
		return postgres.Open(c.DSN()), nil
	case "sqlite":
		return sqlite.Open(c.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: postgres, sqlite)", c.Driver)
	}
}

func open(dialector gorm.Dialector, driver string) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	configurePool(sqlDB, driver)
	return db, nil
}

// configurePool limits SQLite to a single connection since it allows one writer
func configurePool(sqlDB *sql.DB, driver string) {
	maxOpen, maxIdle := 25, 5
	if driver == "sqlite" {
		maxOpen, maxIdle = 1, 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
}
