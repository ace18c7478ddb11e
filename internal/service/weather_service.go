package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"weather-service/internal/entity"
	"weather-service/internal/event"
)

// WeatherService handles weather records.
type WeatherService struct {
	repo   WeatherStore
	cache  WeatherCache
	events EventPublisher

	// stale is set when a write could not invalidate the cache. Queries skip
	// the cache until an invalidation succeeds.
	stale atomic.Bool
}

// NewWeatherService creates a new instance of WeatherService.
func NewWeatherService(repo WeatherStore, cache WeatherCache, events EventPublisher) *WeatherService {
	return &WeatherService{
		repo:   repo,
		cache:  cache,
		events: events,
	}
}

func (s *WeatherService) CreateWeather(ctx context.Context, record *entity.WeatherRecord) error {
	created, err := s.repo.CreateWeather(ctx, record)
	if err != nil {
		logger.Error().Err(err).Msgf("Error adding weather data for %s", record.City)
		return newError(ErrValidation, "error adding weather data", err)
	}

	logger.Info().Msgf("Weather data %d added for %s on %s", created.ID, created.City, created.Date)
	s.invalidate(ctx)
	publish(ctx, s.events, event.Event{
		Type:    event.WeatherCreated,
		Key:     created.City + "/" + created.Date,
		Payload: created,
	})
	return nil
}

// UpdateWeather sets temperature and wind speed of the record with the same
// city and date.
func (s *WeatherService) UpdateWeather(ctx context.Context, record *entity.WeatherRecord) error {
	updated, err := s.repo.UpdateWeather(ctx, record)
	if err != nil {
		logger.Error().Err(err).Msgf("Error updating weather data for %s on %s", record.City, record.Date)
		return newError(ErrValidation, "error updating weather data", err)
	}

	if updated == 0 {
		logger.Warn().Msgf("Weather data for %s on %s not found", record.City, record.Date)
		return newError(ErrNotFound, "weather data not found for city/date", nil)
	}

	logger.Info().Msgf("Weather data for %s on %s updated", record.City, record.Date)
	s.invalidate(ctx)
	publish(ctx, s.events, event.Event{
		Type:    event.WeatherUpdated,
		Key:     record.City + "/" + record.Date,
		Payload: record,
	})
	return nil
}

// QueryWeather returns the records matching filter. At least one of city
// and date must be set.
func (s *WeatherService) QueryWeather(ctx context.Context, filter entity.WeatherFilter) ([]entity.WeatherRecord, error) {
	if filter.Empty() {
		return nil, newError(ErrValidation, "city or date query parameter is required", nil)
	}

	gen, cacheErr := s.generation(ctx)
	if cacheErr != nil {
		logger.Warn().Err(cacheErr).Msg("Weather cache unavailable")
	} else {
		records, hit, err := s.cache.Get(ctx, gen, filter)
		if err != nil {
			logger.Warn().Err(err).Msg("Error reading weather cache")
		}
		if hit && len(records) > 0 {
			return records, nil
		}
	}

	records, err := s.repo.FindWeather(ctx, filter)
	if err != nil {
		logger.Error().Err(err).Msg("Error fetching weather data")
		return nil, newError(ErrInternal, "error fetching weather data", err)
	}

	if len(records) == 0 {
		logger.Info().Msgf("Weather data not found for %s", describe(filter))
		return nil, newError(ErrNotFound, "weather data not found", nil)
	}

	if cacheErr == nil {
		if err := s.cache.Set(ctx, gen, filter, records); err != nil {
			logger.Warn().Err(err).Msg("Error writing weather cache")
		}
	}

	return records, nil
}

func (s *WeatherService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.Error().Err(err).Msg("Error invalidating weather cache, bypassing it until invalidation succeeds")
		s.stale.Store(true)
		return
	}
	s.stale.Store(false)
}

// generation returns the cache generation to read and write under, retrying
// a failed invalidation first.
func (s *WeatherService) generation(ctx context.Context) (int64, error) {
	if s.stale.Load() {
		if err := s.cache.Invalidate(ctx); err != nil {
			return 0, fmt.Errorf("cache not invalidated since last write: %w", err)
		}
		s.stale.Store(false)
	}
	return s.cache.Generation(ctx)
}

func describe(filter entity.WeatherFilter) string {
	return fmt.Sprintf("city=%q date=%q", filter.City, filter.Date)
}
