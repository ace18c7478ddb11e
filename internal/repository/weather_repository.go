package repository

import (
	"context"
	"database/sql"
	"strings"

	"weather-service/internal/entity"
)

type WeatherRepository struct {
	db *sql.DB
}

func NewWeatherRepository(db *sql.DB) *WeatherRepository {
	return &WeatherRepository{db}
}

func (r *WeatherRepository) CreateWeather(ctx context.Context, record *entity.WeatherRecord) (*entity.WeatherRecord, error) {
	query := `INSERT INTO weather_data (city, temperature, date, windSpeed) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, record.City, record.Temperature, record.Date, record.WindSpeed)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	record.ID = int(id)
	return record, nil
}

// UpdateWeather sets temperature and wind speed on the rows matching
// record's city and date, and returns how many rows changed.
func (r *WeatherRepository) UpdateWeather(ctx context.Context, record *entity.WeatherRecord) (int64, error) {
	query := `UPDATE weather_data SET temperature = ?, windSpeed = ? WHERE city = ? AND date = ?`
	res, err := r.db.ExecContext(ctx, query, record.Temperature, record.WindSpeed, record.City, record.Date)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// FindWeather returns the records matching every non-empty field of filter.
func (r *WeatherRepository) FindWeather(ctx context.Context, filter entity.WeatherFilter) ([]entity.WeatherRecord, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.City != "" {
		conditions = append(conditions, "city = ?")
		args = append(args, filter.City)
	}
	if filter.Date != "" {
		conditions = append(conditions, "date = ?")
		args = append(args, filter.Date)
	}

	query := `SELECT id, city, temperature, date, windSpeed FROM weather_data`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []entity.WeatherRecord
	for rows.Next() {
		var record entity.WeatherRecord
		err := rows.Scan(&record.ID, &record.City, &record.Temperature, &record.Date, &record.WindSpeed)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
