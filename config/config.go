package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del toolkit.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Toolkit ToolkitConfig `yaml:"toolkit"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig contiene los base URLs de las APIs.
type APIConfig struct {
	GammaBase string `yaml:"gamma_base"`
	DataBase  string `yaml:"data_base"`
}

// ToolkitConfig controla el cliente HTTP y el cache.
type ToolkitConfig struct {
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	MaxAttempts     int     `yaml:"max_attempts"`
	RetryBackoffMS  int     `yaml:"retry_backoff_ms"`
	GammaRatePerSec float64 `yaml:"gamma_rate_per_sec"` // requests/s contra Gamma
	DataRatePerSec  float64 `yaml:"data_rate_per_sec"`  // requests/s contra la Data API
}

// StorageConfig controla dónde se persisten los snapshots.
type StorageConfig struct {
	DSN    string `yaml:"dsn"`    // ruta al archivo SQLite, o ":memory:"
	Record bool   `yaml:"record"` // persistir cada fetch a upstream
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	return &cfg, nil
}

// Default devuelve la configuración por defecto, sin archivo.
func Default() *Config {
	var cfg Config
	setDefaults(&cfg)
	return &cfg
}

// Timeout devuelve el timeout por request HTTP.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Toolkit.TimeoutSeconds) * time.Second
}

// CacheTTL devuelve el TTL de las entradas del cache.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Toolkit.CacheTTLSeconds) * time.Second
}

// RetryBackoff devuelve la espera base entre intentos.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Toolkit.RetryBackoffMS) * time.Millisecond
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("POLYMARKET_GAMMA_BASE"); v != "" {
		cfg.API.GammaBase = v
	}
	if v := os.Getenv("POLYMARKET_DATA_BASE"); v != "" {
		cfg.API.DataBase = v
	}
	if v := os.Getenv("POLYMARKET_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("POLYMARKET_TIMEOUT_SECONDS=%q: %w", v, err)
		}
		cfg.Toolkit.TimeoutSeconds = n
	}
	if v := os.Getenv("POLYMARKET_CACHE_TTL_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("POLYMARKET_CACHE_TTL_SECONDS=%q: %w", v, err)
		}
		cfg.Toolkit.CacheTTLSeconds = n
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.API.DataBase == "" {
		cfg.API.DataBase = "https://data-api.polymarket.com"
	}
	if cfg.Toolkit.TimeoutSeconds <= 0 {
		cfg.Toolkit.TimeoutSeconds = 30
	}
	if cfg.Toolkit.CacheTTLSeconds <= 0 {
		cfg.Toolkit.CacheTTLSeconds = 300
	}
	if cfg.Toolkit.MaxAttempts <= 0 {
		cfg.Toolkit.MaxAttempts = 2
	}
	if cfg.Toolkit.RetryBackoffMS <= 0 {
		cfg.Toolkit.RetryBackoffMS = 250
	}
	if cfg.Toolkit.GammaRatePerSec <= 0 {
		cfg.Toolkit.GammaRatePerSec = 18
	}
	if cfg.Toolkit.DataRatePerSec <= 0 {
		cfg.Toolkit.DataRatePerSec = 12
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "polytoolkit.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
