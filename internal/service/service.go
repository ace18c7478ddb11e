package service

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"weather-service/internal/entity"
	"weather-service/internal/event"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// UserStore is the account data access used by UserService.
type UserStore interface {
	CreateUser(ctx context.Context, user *entity.User) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdateUser(ctx context.Context, user *entity.User) error
	DeleteUserByEmail(ctx context.Context, email string) (int64, error)
}

// WeatherStore is the weather data access used by WeatherService.
type WeatherStore interface {
	CreateWeather(ctx context.Context, record *entity.WeatherRecord) (*entity.WeatherRecord, error)
	UpdateWeather(ctx context.Context, record *entity.WeatherRecord) (int64, error)
	FindWeather(ctx context.Context, filter entity.WeatherFilter) ([]entity.WeatherRecord, error)
}

// WeatherCache stores query results under a generation number. Entries
// written under an older generation are never read again.
type WeatherCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, gen int64, filter entity.WeatherFilter) ([]entity.WeatherRecord, bool, error)
	Set(ctx context.Context, gen int64, filter entity.WeatherFilter, records []entity.WeatherRecord) error
	Invalidate(ctx context.Context) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type EventPublisher interface {
	Publish(ctx context.Context, e event.Event) error
}

// publish never fails the caller: the row is already written.
func publish(ctx context.Context, events EventPublisher, e event.Event) {
	if err := events.Publish(ctx, e); err != nil {
		logger.Error().Err(err).Str("event", e.Type).Msgf("Error publishing event for %s", e.Key)
	}
}
