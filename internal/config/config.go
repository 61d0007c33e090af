// Package config carga la configuración del servicio desde YAML, con
// defaults razonables, o enteramente desde variables de entorno.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Store struct {
		// Path del documento JSON (la "base de datos" completa).
		Path string `yaml:"path"`
	} `yaml:"store"`

	Regalos struct {
		// Tope de regalos por persona; se rechaza server-side.
		MaxPorPersona int `yaml:"max_por_persona"`
	} `yaml:"regalos"`

	Relay struct {
		// Buffer del canal por suscriptor.
		Buffer    int    `yaml:"buffer"`
		Heartbeat string `yaml:"heartbeat"`
	} `yaml:"relay"`

	Metadata struct {
		Timeout  string `yaml:"timeout"`
		CacheTTL string `yaml:"cache_ttl"`
		// Rate limit por IP del endpoint de metadata.
		RateMax    int    `yaml:"rate_max"`
		RateWindow string `yaml:"rate_window"`
	} `yaml:"metadata"`
}

// Load lee el YAML del path dado y aplica defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return &c, nil
}

// FromEnv arma la config solo desde variables de entorno.
func FromEnv() *Config {
	var c Config
	c.App.Env = getenv("APP_ENV", "")
	c.Server.Addr = getenv("REGALOS_ADDR", "")
	c.Server.CORSAllowedOrigins = splitCSV(getenv("REGALOS_CORS_ORIGINS", ""))
	c.Log.Level = getenv("LOG_LEVEL", "")
	c.Store.Path = getenv("REGALOS_DB_PATH", "")
	c.Regalos.MaxPorPersona = getenvInt("REGALOS_MAX_POR_PERSONA", 0)
	c.Relay.Buffer = getenvInt("REGALOS_RELAY_BUFFER", 0)
	c.Relay.Heartbeat = getenv("REGALOS_RELAY_HEARTBEAT", "")
	c.Metadata.Timeout = getenv("REGALOS_METADATA_TIMEOUT", "")
	c.Metadata.CacheTTL = getenv("REGALOS_METADATA_CACHE_TTL", "")
	c.Metadata.RateMax = getenvInt("REGALOS_METADATA_RATE_MAX", 0)
	c.Metadata.RateWindow = getenv("REGALOS_METADATA_RATE_WINDOW", "")
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if len(c.Server.CORSAllowedOrigins) == 0 {
		c.Server.CORSAllowedOrigins = []string{"http://localhost:3000"}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Store.Path == "" {
		c.Store.Path = "db.json"
	}
	if c.Regalos.MaxPorPersona == 0 {
		c.Regalos.MaxPorPersona = 10
	}
	if c.Relay.Buffer == 0 {
		c.Relay.Buffer = 64
	}
	if c.Relay.Heartbeat == "" {
		c.Relay.Heartbeat = "30s"
	}
	if c.Metadata.Timeout == "" {
		c.Metadata.Timeout = "10s"
	}
	if c.Metadata.CacheTTL == "" {
		c.Metadata.CacheTTL = "15m"
	}
	if c.Metadata.RateMax == 0 {
		c.Metadata.RateMax = 60
	}
	if c.Metadata.RateWindow == "" {
		c.Metadata.RateWindow = "1m"
	}
}

// RelayHeartbeat parsea el heartbeat como duración.
func (c *Config) RelayHeartbeat() time.Duration {
	return parseDuration(c.Relay.Heartbeat, 30*time.Second)
}

// MetadataTimeout parsea el timeout de metadata como duración.
func (c *Config) MetadataTimeout() time.Duration {
	return parseDuration(c.Metadata.Timeout, 10*time.Second)
}

// MetadataCacheTTL parsea el TTL del cache de metadata como duración.
func (c *Config) MetadataCacheTTL() time.Duration {
	return parseDuration(c.Metadata.CacheTTL, 15*time.Minute)
}

// MetadataRateWindow parsea la ventana del rate limit de metadata.
func (c *Config) MetadataRateWindow() time.Duration {
	return parseDuration(c.Metadata.RateWindow, time.Minute)
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitCSV(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
