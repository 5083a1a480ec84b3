package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"manager/internal/util"
)

// Config holds everything the binary needs to start.
type Config struct {
	Addr          string
	DBDriver      string
	DBDSN         string
	JWTSecret     string
	TokenTTL      time.Duration
	LogLevel      string
	LogFile       string
	CORSOrigins   []string
	PageSize      int
	AdminUsername string
	AdminPassword string
}

// Load reads an optional .env file, then flags whose defaults come from the environment.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	fset := flag.NewFlagSet("manager", flag.ContinueOnError)
	var (
		cfg     Config
		origins string
	)
	fset.StringVar(&cfg.Addr, "addr", util.EnvOrDefault("MANAGER_ADDR", ":8080"), "HTTP listen address")
	fset.StringVar(&cfg.DBDriver, "db-driver", util.EnvOrDefault("MANAGER_DB_DRIVER", "sqlite3"), "Database driver: sqlite3 or postgres")
	fset.StringVar(&cfg.DBDSN, "db", util.EnvOrDefault("MANAGER_DB_DSN", "data/manager.db"), "SQLite file path or PostgreSQL connection string")
	fset.StringVar(&cfg.JWTSecret, "jwt-secret", util.EnvOrDefault("MANAGER_JWT_SECRET", ""), "Secret used to sign session tokens")
	fset.DurationVar(&cfg.TokenTTL, "token-ttl", util.EnvDurationOrDefault("MANAGER_TOKEN_TTL", 12*time.Hour), "Session token lifetime")
	fset.StringVar(&cfg.LogLevel, "log-level", util.EnvOrDefault("MANAGER_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	fset.StringVar(&cfg.LogFile, "log-file", util.EnvOrDefault("MANAGER_LOG_FILE", ""), "Also write logs to this rotated file")
	fset.StringVar(&origins, "cors-origins", util.EnvOrDefault("MANAGER_CORS_ORIGINS", "*"), "Comma separated list of allowed CORS origins")
	fset.IntVar(&cfg.PageSize, "page-size", util.EnvIntOrDefault("MANAGER_PAGE_SIZE", 10), "Default page size of list endpoints")
	fset.StringVar(&cfg.AdminUsername, "admin-username", util.EnvOrDefault("MANAGER_ADMIN_USERNAME", ""), "Create this staff account when no worker exists")
	fset.StringVar(&cfg.AdminPassword, "admin-password", util.EnvOrDefault("MANAGER_ADMIN_PASSWORD", ""), "Password for the bootstrap staff account")
	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}

	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.JWTSecret == "":
		return errors.New("jwt secret is required (MANAGER_JWT_SECRET)")
	case c.DBDSN == "":
		return errors.New("database dsn is required (MANAGER_DB_DSN)")
	case c.DBDriver != "sqlite3" && c.DBDriver != "postgres":
		return fmt.Errorf("unsupported database driver %q", c.DBDriver)
	case c.PageSize <= 0:
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	case (c.AdminUsername == "") != (c.AdminPassword == ""):
		return errors.New("admin username and password must be set together")
	}
	return nil
}
