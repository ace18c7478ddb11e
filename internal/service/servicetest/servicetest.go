// Package servicetest provides in-memory stores, a cache and an event
// recorder for testing code built on package service.
package servicetest

import (
	"context"
	"sync"

	"weather-service/internal/entity"
	"weather-service/internal/event"
	"weather-service/internal/repository"
)

// UserStore keeps users in memory and enforces unique emails like the
// users table does.
type UserStore struct {
	mu     sync.Mutex
	users  map[int]entity.User
	nextID int

	// Err, when set, is returned by every call.
	Err error
}

func NewUserStore() *UserStore {
	return &UserStore{users: map[int]entity.User{}, nextID: 1}
}

func (s *UserStore) CreateUser(_ context.Context, user *entity.User) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if s.emailTaken(user.Email, 0) {
		return nil, repository.ErrDuplicateEmail
	}
	user.ID = s.nextID
	s.nextID++
	s.users[user.ID] = *user
	return user, nil
}

func (s *UserStore) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *UserStore) UpdateUser(_ context.Context, user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.users[user.ID]; !ok {
		return nil
	}
	if s.emailTaken(user.Email, user.ID) {
		return repository.ErrDuplicateEmail
	}
	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) DeleteUserByEmail(_ context.Context, email string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for id, u := range s.users {
		if u.Email == email {
			delete(s.users, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored users.
func (s *UserStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// User returns the stored row with id.
func (s *UserStore) User(id int) (entity.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *UserStore) emailTaken(email string, exceptID int) bool {
	for id, u := range s.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

// WeatherStore keeps weather records in insertion order.
type WeatherStore struct {
	mu      sync.Mutex
	records []entity.WeatherRecord

	// Err, when set, is returned by every call.
	Err error
	// Finds counts FindWeather calls.
	Finds int
}

func NewWeatherStore() *WeatherStore {
	return &WeatherStore{}
}

func (s *WeatherStore) CreateWeather(_ context.Context, record *entity.WeatherRecord) (*entity.WeatherRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	record.ID = len(s.records) + 1
	s.records = append(s.records, *record)
	return record, nil
}

func (s *WeatherStore) UpdateWeather(_ context.Context, record *entity.WeatherRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for i := range s.records {
		if s.records[i].City == record.City && s.records[i].Date == record.Date {
			s.records[i].Temperature = record.Temperature
			s.records[i].WindSpeed = record.WindSpeed
			n++
		}
	}
	return n, nil
}

func (s *WeatherStore) FindWeather(_ context.Context, filter entity.WeatherFilter) ([]entity.WeatherRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Finds++
	if s.Err != nil {
		return nil, s.Err
	}
	var out []entity.WeatherRecord
	for _, r := range s.records {
		if filter.City != "" && r.City != filter.City {
			continue
		}
		if filter.Date != "" && r.Date != filter.Date {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Records returns a copy of every stored record.
func (s *WeatherStore) Records() []entity.WeatherRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.WeatherRecord(nil), s.records...)
}

// WeatherCache is a map-backed cache with generation semantics.
type WeatherCache struct {
	mu      sync.Mutex
	gen     int64
	entries map[int64]map[entity.WeatherFilter][]entity.WeatherRecord

	// Err, when set, is returned by every call.
	Err error
	// InvalidateErr, when set, is returned by Invalidate only.
	InvalidateErr error
}

func NewWeatherCache() *WeatherCache {
	return &WeatherCache{entries: map[int64]map[entity.WeatherFilter][]entity.WeatherRecord{}}
}

func (c *WeatherCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, c.Err
}

func (c *WeatherCache) Get(_ context.Context, gen int64, filter entity.WeatherFilter) ([]entity.WeatherRecord, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, false, c.Err
	}
	records, ok := c.entries[gen][filter]
	return records, ok, nil
}

func (c *WeatherCache) Set(_ context.Context, gen int64, filter entity.WeatherFilter, records []entity.WeatherRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	if c.entries[gen] == nil {
		c.entries[gen] = map[entity.WeatherFilter][]entity.WeatherRecord{}
	}
	c.entries[gen][filter] = append([]entity.WeatherRecord(nil), records...)
	return nil
}

func (c *WeatherCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	if c.InvalidateErr != nil {
		return c.InvalidateErr
	}
	c.gen++
	return nil
}

// Publisher records published events.
type Publisher struct {
	mu     sync.Mutex
	events []event.Event

	// Err, when set, is returned by Publish after recording the event.
	Err error
}

func (p *Publisher) Publish(_ context.Context, e event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.Err
}

// Types returns the type of every published event, in order.
func (p *Publisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}
