package migrations

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "migrations").Logger()

// retryInterval is the pause between attempts of a failed CREATE TABLE.
var retryInterval = 1 * time.Second

const usersTable = `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password VARCHAR(255) NOT NULL,
		UNIQUE KEY users_email_unique (email)
	);
`

const weatherDataTable = `
	CREATE TABLE IF NOT EXISTS weather_data (
		id INT AUTO_INCREMENT PRIMARY KEY,
		city VARCHAR(255) NOT NULL,
		temperature DECIMAL(5,2) NOT NULL,
		date DATE NOT NULL,
		windSpeed DECIMAL(5,2) NOT NULL
	);
`

// Run creates both tables. A failure on one table is logged and does not
// stop the other.
func Run(ctx context.Context, db *sql.DB, retries int) {
	if err := AutoMigrateUsers(ctx, db, retries); err != nil {
		logger.Error().Err(err).Msg("Error creating users table")
	} else {
		logger.Info().Msg("Users table ready")
	}

	if err := AutoMigrateWeatherData(ctx, db, retries); err != nil {
		logger.Error().Err(err).Msg("Error creating weather_data table")
	} else {
		logger.Info().Msg("Weather data table ready")
	}
}

// AutoMigrateUsers creates the users table if it does not exist.
func AutoMigrateUsers(ctx context.Context, db *sql.DB, retries int) error {
	return execWithRetry(ctx, db, usersTable, retries)
}

// AutoMigrateWeatherData creates the weather_data table if it does not exist.
func AutoMigrateWeatherData(ctx context.Context, db *sql.DB, retries int) error {
	return execWithRetry(ctx, db, weatherDataTable, retries)
}

func execWithRetry(ctx context.Context, db *sql.DB, query string, retries int) error {
	_, err := db.ExecContext(ctx, query)
	for i := 0; err != nil && i < retries; i++ {
		logger.Warn().Err(err).Msgf("Retry %d creating table", i+1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
		_, err = db.ExecContext(ctx, query)
	}
	return err
}
