package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultEnvFile is loaded before the environment is read, when it exists.
const DefaultEnvFile = ".env"

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Pipeline modes.
const (
	ModeQuick  = "quick"
	ModeEnrich = "enrich"
	ModeFull   = "full"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Pipeline PipelineConfig
	RealData RealDataConfig
	LogLevel string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig selects and configures the snapshot store.
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	Name       string
	User       string
	Password   string
	PoolMin    int
	PoolMax    int
	SQLitePath string
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// PipelineConfig drives one enrichment run.
type PipelineConfig struct {
	Mode            string
	Input           string
	InputEncoding   string
	Fallback        string
	Output          string
	Areas           []string
	Delay           time.Duration
	FetchTimeout    time.Duration
	ReferenceYear   int
	Publish         bool
	MetricsTextfile string
}

// RealDataConfig points at the real-data service used in enrich and full
// modes.
type RealDataConfig struct {
	BaseURL string
}

// flagKeys maps pipeline flag names to their configuration keys.
var flagKeys = map[string]string{
	"mode": "PIPELINE_MODE",
}

// PipelineFlags declares the command-line flags of the enrichment CLI. The
// mode is the only flag; every other setting comes from the environment.
func PipelineFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("enrich", pflag.ContinueOnError)
	fs.StringP("mode", "m", ModeQuick, "enrichment mode: quick, enrich or full")
	return fs
}

// Load reads configuration from DefaultEnvFile, the environment and, when
// non-nil, parsed command-line flags.
func Load(flags *pflag.FlagSet) (*Config, error) {
	return LoadWithEnvFile(DefaultEnvFile, flags)
}

// LoadWithEnvFile is Load with an explicit dotenv path. A missing file is
// not an error. Variables already set in the environment win over the file.
func LoadWithEnvFile(envFile string, flags *pflag.FlagSet) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", envFile, err)
		}
	}

	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "schoolter")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("SQLITE_PATH", "data/schoolter.db")

	v.SetDefault("PIPELINE_MODE", ModeQuick)
	v.SetDefault("PIPELINE_INPUT", "data/edubasealldata.csv")
	v.SetDefault("PIPELINE_INPUT_ENCODING", "utf-8")
	v.SetDefault("PIPELINE_FALLBACK", "")
	v.SetDefault("PIPELINE_OUTPUT", "data/schools.js")
	v.SetDefault("PIPELINE_AREAS", "")
	v.SetDefault("PIPELINE_DELAY", "500ms")
	v.SetDefault("PIPELINE_FETCH_TIMEOUT", "10s")
	v.SetDefault("PIPELINE_REFERENCE_YEAR", 2025)
	v.SetDefault("PIPELINE_PUBLISH", false)
	v.SetDefault("REALDATA_BASE_URL", "")
	v.SetDefault("METRICS_TEXTFILE", "")

	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(v.GetString("DB_DRIVER")),
			Host:       v.GetString("DB_HOST"),
			Port:       v.GetString("DB_PORT"),
			Name:       v.GetString("DB_NAME"),
			User:       v.GetString("DB_USER"),
			Password:   v.GetString("DB_PASSWORD"),
			PoolMin:    v.GetInt("DB_POOL_MIN"),
			PoolMax:    v.GetInt("DB_POOL_MAX"),
			SQLitePath: v.GetString("SQLITE_PATH"),
		},
		CORS: CORSConfig{
			Origins: splitList(v.GetString("CORS_ORIGINS")),
		},
		Pipeline: PipelineConfig{
			Mode:            strings.ToLower(v.GetString("PIPELINE_MODE")),
			Input:           v.GetString("PIPELINE_INPUT"),
			InputEncoding:   strings.ToLower(v.GetString("PIPELINE_INPUT_ENCODING")),
			Fallback:        v.GetString("PIPELINE_FALLBACK"),
			Output:          v.GetString("PIPELINE_OUTPUT"),
			Areas:           splitList(v.GetString("PIPELINE_AREAS")),
			Delay:           v.GetDuration("PIPELINE_DELAY"),
			FetchTimeout:    v.GetDuration("PIPELINE_FETCH_TIMEOUT"),
			ReferenceYear:   v.GetInt("PIPELINE_REFERENCE_YEAR"),
			Publish:         v.GetBool("PIPELINE_PUBLISH"),
			MetricsTextfile: v.GetString("METRICS_TEXTFILE"),
		},
		RealData: RealDataConfig{
			BaseURL: strings.TrimRight(v.GetString("REALDATA_BASE_URL"), "/"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}
	if cfg.Pipeline.Fallback == "" {
		cfg.Pipeline.Fallback = cfg.Pipeline.Output
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings every binary needs. Database settings are
// checked separately by DatabaseConfig.Validate.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}
	return c.Pipeline.Validate(c.RealData)
}

// Validate checks the pipeline section.
func (p *PipelineConfig) Validate(rd RealDataConfig) error {
	switch p.Mode {
	case ModeQuick:
	case ModeEnrich, ModeFull:
		if rd.BaseURL == "" {
			return fmt.Errorf("REALDATA_BASE_URL is required in %s mode", p.Mode)
		}
	default:
		return fmt.Errorf("PIPELINE_MODE must be one of quick, enrich, full (got %q)", p.Mode)
	}
	switch p.InputEncoding {
	case "utf-8", "utf8", "windows-1252", "cp1252":
	default:
		return fmt.Errorf("PIPELINE_INPUT_ENCODING must be utf-8 or windows-1252 (got %q)", p.InputEncoding)
	}
	if p.Output == "" {
		return fmt.Errorf("PIPELINE_OUTPUT is required")
	}
	if p.Delay < 0 {
		return fmt.Errorf("PIPELINE_DELAY must be non-negative")
	}
	if p.FetchTimeout <= 0 {
		return fmt.Errorf("PIPELINE_FETCH_TIMEOUT must be positive")
	}
	if p.ReferenceYear < 2000 || p.ReferenceYear > 2100 {
		return fmt.Errorf("PIPELINE_REFERENCE_YEAR must be between 2000 and 2100")
	}
	return nil
}

// Validate checks the settings of the selected driver.
func (d *DatabaseConfig) Validate() error {
	switch d.Driver {
	case DriverSQLite:
		if d.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
		return nil
	case DriverPostgres:
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite (got %q)", d.Driver)
	}

	if d.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if d.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if d.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if d.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if d.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if d.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if d.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if d.PoolMin > d.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}
	return nil
}

// splitList splits a comma-separated string, dropping blanks.
func splitList(value string) []string {
	if value == "" {
		return []string{}
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
