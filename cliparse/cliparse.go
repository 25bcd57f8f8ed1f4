package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	StaffKeySalt string
	BootstrapKey string
	IPHashSalt   string
	LogFormat    string
}

// ParseFlags validates flags and sets port number
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var envFile string

	flagSet := flag.NewFlagSet("youthgov-queue", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	flagSet.IntVar(&cfg.Port, "p", 0, "Server port")
	flagSet.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	flagSet.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	flagSet.StringVar(&cfg.LogFormat, "log-format", "", "Log format (text or json)")
	flagSet.StringVar(&envFile, "env", ".env", "Path to a .env file to load")

	// Secrets (prefer env variables, but allow CLI for dev)
	flagSet.StringVar(&cfg.StaffKeySalt, "staff-salt", "", "Staff key salt (prefer env)")
	flagSet.StringVar(&cfg.BootstrapKey, "bootstrap-key", "", "Key for creating the first admin (prefer env)")
	flagSet.StringVar(&cfg.IPHashSalt, "ip-salt", "", "Salt for activity log IP hashes (prefer env)")

	if err := flagSet.Parse(args); err != nil {
		return Config{}, err
	}

	// Values already in the environment win over the .env file
	if err := loadEnvFile(envFile); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = os.Getenv("LOG_FORMAT")
		if cfg.LogFormat == "" {
			cfg.LogFormat = "text"
		}
	}

	// Secrets - staff salt MUST be provided
	if cfg.StaffKeySalt == "" {
		cfg.StaffKeySalt = os.Getenv("STAFF_KEY_SALT")
	}
	if cfg.StaffKeySalt == "" {
		return Config{}, errors.New("STAFF_KEY_SALT required")
	}

	if cfg.BootstrapKey == "" {
		cfg.BootstrapKey = os.Getenv("BOOTSTRAP_KEY")
	}

	if cfg.IPHashSalt == "" {
		cfg.IPHashSalt = os.Getenv("IP_HASH_SALT")
	}
	if cfg.IPHashSalt == "" {
		// Reuse staff salt for IP hashing
		cfg.IPHashSalt = cfg.StaffKeySalt
	}

	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}
