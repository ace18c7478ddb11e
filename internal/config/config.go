package config

import (
	"net"
	"os"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
)

// Config is read from environment variables named by the mapstructure tags.
type Config struct {
	Port string `mapstructure:"PORT"`

	DBHost           string        `mapstructure:"DB_HOST"`
	DBPort           string        `mapstructure:"DB_PORT"`
	DBUser           string        `mapstructure:"DB_USER"`
	DBPass           string        `mapstructure:"DB_PASS"`
	DBName           string        `mapstructure:"DB_NAME"`
	DBConnectRetries int           `mapstructure:"DB_CONNECT_RETRIES"`
	DBRetryInterval  time.Duration `mapstructure:"DB_RETRY_INTERVAL"`
	DBMaxOpenConns   int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	MigrationRetries int           `mapstructure:"MIGRATION_RETRIES"`

	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	WeatherCacheTTL time.Duration `mapstructure:"WEATHER_CACHE_TTL"`

	KafkaBrokers []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string   `mapstructure:"KAFKA_TOPIC"`

	BcryptCost int    `mapstructure:"BCRYPT_COST"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`
}

func Default() Config {
	return Config{
		Port:             "3000",
		DBHost:           "127.0.0.1",
		DBPort:           "3306",
		DBUser:           "root",
		DBName:           "weather",
		DBConnectRetries: 10,
		DBRetryInterval:  3 * time.Second,
		DBMaxOpenConns:   10,
		MigrationRetries: 3,
		WeatherCacheTTL:  5 * time.Minute,
		KafkaTopic:       "weather-service-events",
		BcryptCost:       10,
		LogLevel:         "info",
	}
}

// Load returns Default overridden by every non-empty environment variable.
func Load() (Config, error) {
	return FromEnv(os.Environ())
}

// FromEnv is Load over an explicit KEY=VALUE list.
func FromEnv(environ []string) (Config, error) {
	cfg := Default()

	values := make(map[string]interface{}, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" {
			continue
		}
		values[key] = value
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(values); err != nil {
		return Config{}, err
	}

	brokers := cfg.KafkaBrokers[:0]
	for _, b := range cfg.KafkaBrokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	cfg.KafkaBrokers = brokers

	return cfg, nil
}

// MySQLDSN builds the go-sql-driver DSN. parseTime stays off so DATE
// columns scan as YYYY-MM-DD strings.
func (c Config) MySQLDSN() string {
	dsn := mysql.NewConfig()
	dsn.User = c.DBUser
	dsn.Passwd = c.DBPass
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(c.DBHost, c.DBPort)
	dsn.DBName = c.DBName
	dsn.Timeout = 5 * time.Second
	return dsn.FormatDSN()
}

// ZerologLevel parses LogLevel, falling back to info.
func (c Config) ZerologLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
