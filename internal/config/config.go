package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/starrand/internal/observability/logger"
)

type Config struct {
	App struct {
		// dev | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
		// Timeout de shutdown ordenado (ej: "5s")
		ShutdownTimeout string `yaml:"shutdown_timeout"`
		// Si es true la IP del cliente sale de X-Forwarded-For (solo detrás de un proxy propio).
		TrustProxy bool `yaml:"trust_proxy"`
	} `yaml:"server"`

	Epoch struct {
		Seconds uint32 `yaml:"seconds"`
		First   uint8  `yaml:"first"`
		Last    uint8  `yaml:"last"`
	} `yaml:"epoch"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		Backend     string `yaml:"backend"` // memory | redis
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
	} `yaml:"rate"`

	Redis struct {
		Addr   string `yaml:"addr"`
		DB     int    `yaml:"db"`
		Prefix string `yaml:"prefix"`
	} `yaml:"redis"`
}

// Default devuelve la config con los defaults del servicio.
func Default() *Config {
	c := &Config{}
	c.App.Env = "dev"
	c.Server.Addr = "127.0.0.1:8080"
	c.Server.ShutdownTimeout = "5s"
	c.Epoch.Seconds = 5
	c.Epoch.First = 0
	c.Epoch.Last = 255
	c.Log.Level = "info"
	c.Metrics.Enabled = true
	c.Rate.Backend = "memory"
	c.Rate.Window = "1m"
	c.Rate.MaxRequests = 600
	c.Redis.Addr = "localhost:6379"
	c.Redis.Prefix = "rl:"
	return c
}

// Load parte de Default(), pisa con el YAML (si path no es vacío) y luego con ENV.
func Load(path string) (*Config, error) {
	c := Default()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate chequea rangos y duraciones.
func (c *Config) Validate() error {
	if c.Epoch.First > c.Epoch.Last {
		return fmt.Errorf("epoch.first (%d) debe ser <= epoch.last (%d)", c.Epoch.First, c.Epoch.Last)
	}
	if c.Epoch.Seconds == 0 {
		return fmt.Errorf("epoch.seconds debe ser >= 1")
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr es requerido")
	}
	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("server.shutdown_timeout: %w", err)
	}
	if !logger.ValidLevel(c.Log.Level) {
		return fmt.Errorf("log.level desconocido: %q (debug|info|warn|error)", c.Log.Level)
	}
	if c.Rate.Enabled {
		switch c.Rate.Backend {
		case "memory", "redis":
		default:
			return fmt.Errorf("rate.backend desconocido: %q (memory|redis)", c.Rate.Backend)
		}
		if _, err := time.ParseDuration(c.Rate.Window); err != nil {
			return fmt.Errorf("rate.window: %w", err)
		}
		if c.Rate.MaxRequests <= 0 {
			return fmt.Errorf("rate.max_requests debe ser > 0")
		}
	}
	return nil
}

// EpochDuration devuelve la duración de cada epoch.
func (c *Config) EpochDuration() time.Duration {
	return time.Duration(c.Epoch.Seconds) * time.Second
}

// ShutdownTimeout devuelve el timeout de shutdown ya parseado (Validate lo garantiza).
func (c *Config) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// RateWindow devuelve la ventana de rate limiting ya parseada.
func (c *Config) RateWindow() time.Duration {
	d, err := time.ParseDuration(c.Rate.Window)
	if err != nil {
		return time.Minute
	}
	return d
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvUint(key string, bits int) (uint64, bool) {
	if s, ok := getEnvStr(key); ok {
		if u, err := strconv.ParseUint(s, 10, bits); err == nil {
			return u, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(s); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("LISTEN_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeout = v
	}
	if v, ok := getEnvBool("TRUST_PROXY"); ok {
		c.Server.TrustProxy = v
	}

	// EPOCH
	if v, ok := getEnvUint("EPOCH_SECONDS", 32); ok {
		c.Epoch.Seconds = uint32(v)
	}
	if v, ok := getEnvUint("FIRST_EPOCH", 8); ok {
		c.Epoch.First = uint8(v)
	}
	if v, ok := getEnvUint("LAST_EPOCH", 8); ok {
		c.Epoch.Last = uint8(v)
	}

	// LOG / METRICS
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_BACKEND"); ok {
		c.Rate.Backend = strings.ToLower(v)
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}

	// REDIS
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Redis.Prefix = v
	}
}
