package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"weather-service/internal/api"
	"weather-service/internal/cache"
	"weather-service/internal/config"
	"weather-service/internal/credential"
	"weather-service/internal/event"
	"weather-service/internal/repository"
	"weather-service/internal/service"
	"weather-service/migrations"
)

type eventPublisher interface {
	service.EventPublisher
	Close() error
}

// connectDB opens the handle and waits for MySQL to answer. The handle is
// returned even when every ping failed so the server can still start.
func connectDB(ctx context.Context, cfg config.Config) (*sql.DB, bool, error) {
	db, err := sql.Open("mysql", cfg.MySQLDSN())
	if err != nil {
		return nil, false, err
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)

	for i := 0; i < cfg.DBConnectRetries; i++ {
		err = db.PingContext(ctx)
		if err == nil {
			log.Info().Msgf("Connected to DB %s at %s:%s", cfg.DBName, cfg.DBHost, cfg.DBPort)
			return db, true, nil
		}
		log.Warn().Err(err).Msgf("Retry %d: failed to connect to DB %s (%s:%s)", i+1, cfg.DBName, cfg.DBHost, cfg.DBPort)
		select {
		case <-ctx.Done():
			return db, false, nil
		case <-time.After(cfg.DBRetryInterval):
		}
	}
	return db, false, nil
}

func main() {
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	zerolog.SetGlobalLevel(cfg.ZerologLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, connected, err := connectDB(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid database configuration")
	}
	if connected {
		migrations.Run(ctx, db, cfg.MigrationRetries)
	} else {
		log.Error().Msgf("Could not connect to DB %s, continuing without schema initialization", cfg.DBName)
	}

	var (
		rdb          *redis.Client
		weatherCache service.WeatherCache = cache.NopWeatherCache{}
	)
	if cfg.RedisAddr != "" {
		rdb = config.NewRedisClient(cfg.RedisAddr)
		weatherCache = cache.NewRedisWeatherCache(rdb, cfg.WeatherCacheTTL)
		log.Info().Msgf("Weather cache enabled at %s", cfg.RedisAddr)
	}

	var events eventPublisher = event.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		events = event.NewKafkaPublisher(config.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		log.Info().Msgf("Publishing events to topic %s", cfg.KafkaTopic)
	}

	userRepo := repository.NewUserRepository(db)
	weatherRepo := repository.NewWeatherRepository(db)
	userService := service.NewUserService(userRepo, credential.NewHasher(cfg.BcryptCost), events)
	weatherService := service.NewWeatherService(weatherRepo, weatherCache, events)

	e := api.NewRouter(
		api.NewUserHandler(userService),
		api.NewWeatherHandler(weatherService),
		api.NewHealthHandler(db),
	)

	go func() {
		log.Info().Msgf("Server running on port %s", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down server")
	}
	if err := events.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing event publisher")
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing redis client")
		}
	}
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database")
	}
}
