package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultPath = "config/local.yaml"

type Config struct {
	Env              string        `yaml:"env" env:"ENV" env-default:"local"`
	Jaeger           string        `yaml:"jaeger" env:"JAEGER"`
	SolutionCacheTTL time.Duration `yaml:"solution_cache_ttl" env:"SOLUTION_CACHE_TTL" env-default:"1h"`
	Log              LogConfig     `yaml:"log"`
	HTTP             HTTPConfig    `yaml:"http"`
	DB               DBConfig      `yaml:"db"`
	Redis            RedisConfig   `yaml:"redis"`
	Solver           SolverConfig  `yaml:"solver"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

type HTTPConfig struct {
	Host            string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            int           `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"90s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" env:"HTTP_MAX_BODY_BYTES" env-default:"4194304"`
}

// DBConfig is optional. Without a host or DATABASE_URL the service runs
// without snapshot storage and run history.
type DBConfig struct {
	URL      string `yaml:"url" env:"DATABASE_URL"`
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Name     string `yaml:"name" env:"DB_NAME"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
}

// RedisConfig is optional. An empty address disables the solution cache.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type SolverConfig struct {
	TimeLimit    time.Duration `yaml:"time_limit" env:"SOLVER_TIME_LIMIT" env-default:"30s"`
	PollInterval time.Duration `yaml:"poll_interval" env:"SOLVER_POLL_INTERVAL" env-default:"5ms"`
}

func (c HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c DBConfig) Enabled() bool {
	return strings.TrimSpace(c.URL) != "" || strings.TrimSpace(c.Host) != ""
}

func (c DBConfig) DSN() string {
	if strings.TrimSpace(c.URL) != "" {
		return c.URL
	}

	u := &url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}

	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()

	return u.String()
}

func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

// ResolvePath picks the config file: the flag value, then CONFIG_PATH, then config/local.yaml.
func ResolvePath(flagValue string) string {
	if res := strings.TrimSpace(flagValue); res != "" {
		return res
	}
	if res := strings.TrimSpace(os.Getenv("CONFIG_PATH")); res != "" {
		return res
	}
	return defaultPath
}

// Load reads the file when it exists and the environment otherwise.
func Load(configPath string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(configPath); err != nil {
		if !os.IsNotExist(err) || configPath != defaultPath {
			return nil, fmt.Errorf("config file %q: %w", configPath, err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read config from env: %w", err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("read config %q: %w", configPath, err)
	}

	return &cfg, nil
}
