package database

import (
	"fmt"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/config"
)

// DatabaseConfig selects the driver and its connection settings
type DatabaseConfig struct {
	// Driver is postgres or sqlite (the default)
	Driver string

	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	// URL takes precedence over the discrete PostgreSQL fields when set
	URL string

	// Path is the SQLite database file
	Path string

	// MaxRetries bounds connection attempts; zero means the default of 5
	MaxRetries int
}

// FromAppConfig extracts the database settings from the application configuration
func FromAppConfig(c *config.Config) DatabaseConfig {
	return DatabaseConfig{
		Driver:   c.DBDriver,
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		Name:     c.DBName,
		SSLMode:  c.DBSSLMode,
		URL:      c.DatabaseURL,
		Path:     c.DBPath,
	}
}

// String masks the password
func (c *DatabaseConfig) String() string {
	return fmt.Sprintf("DatabaseConfig{Driver: %s, Host: %s, Port: %s, User: %s, Password: [REDACTED], Name: %s, SSLMode: %s, Path: %s}",
		c.driver(), c.Host, c.Port, c.User, c.Name, c.SSLMode, c.Path)
}

// DSN returns the connection string for the driver. PostgreSQL prefers URL
// over the discrete fields.
func (c *DatabaseConfig) DSN() string {
	switch c.driver() {
	case "postgres":
		if c.URL != "" {
			return c.URL
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
	case "sqlite":
		return c.Path
	default:
		return ""
	}
}
