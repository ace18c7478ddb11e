package service

import (
	"context"
	"errors"
	"fmt"

	"weather-service/internal/credential"
	"weather-service/internal/entity"
	"weather-service/internal/event"
	"weather-service/internal/repository"
)

// UserService registers, authenticates, updates and deletes accounts.
type UserService struct {
	repo   UserStore
	hasher PasswordHasher
	events EventPublisher
}

// NewUserService creates a new instance of UserService.
func NewUserService(repo UserStore, hasher PasswordHasher, events EventPublisher) *UserService {
	return &UserService{
		repo:   repo,
		hasher: hasher,
		events: events,
	}
}

type userEvent struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Register stores a new account with a hashed password.
func (s *UserService) Register(ctx context.Context, user *entity.User) error {
	if err := credential.ValidatePassword(user.Password); err != nil {
		return newError(ErrValidation, err.Error(), nil)
	}

	hash, err := s.hasher.Hash(user.Password)
	if err != nil {
		logger.Error().Err(err).Msg("Error hashing password")
		return newError(ErrInternal, "error registering user", err)
	}
	user.Password = hash

	createdUser, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		logger.Error().Err(err).Msgf("Error registering user %s", user.Email)
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return newError(ErrValidation, "email already registered", err)
		}
		return newError(ErrValidation, "error registering user", err)
	}

	logger.Info().Msgf("User %d registered", createdUser.ID)
	publish(ctx, s.events, event.Event{
		Type:    event.UserRegistered,
		Key:     createdUser.Email,
		Payload: userEvent{ID: createdUser.ID, Username: createdUser.Username, Email: createdUser.Email},
	})
	return nil
}

// Login checks password against the account stored for email. No session
// is created.
func (s *UserService) Login(ctx context.Context, email, password string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn().Msgf("Login for unknown email %s", email)
			return newError(ErrInvalidCredentials, "invalid credentials", nil)
		}
		logger.Error().Err(err).Msgf("Error looking up user %s", email)
		return newError(ErrValidation, "error logging in", err)
	}

	if !s.hasher.Verify(password, user.Password) {
		logger.Warn().Msgf("Wrong password for user %d", user.ID)
		return newError(ErrInvalidCredentials, "invalid credentials", nil)
	}

	logger.Info().Msgf("User %d logged in", user.ID)
	return nil
}

// UpdateAccount replaces username, email and password of account user.ID.
// The password is hashed like on Register. A missing account is not an
// error.
func (s *UserService) UpdateAccount(ctx context.Context, user *entity.User) error {
	if err := credential.ValidatePassword(user.Password); err != nil {
		return newError(ErrValidation, err.Error(), nil)
	}

	hash, err := s.hasher.Hash(user.Password)
	if err != nil {
		logger.Error().Err(err).Msg("Error hashing password")
		return newError(ErrInternal, "error updating user account", err)
	}
	user.Password = hash

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		logger.Error().Err(err).Msgf("Error updating user %d", user.ID)
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return newError(ErrValidation, "email already registered", err)
		}
		return newError(ErrValidation, "error updating user account", err)
	}

	logger.Info().Msgf("User %d updated", user.ID)
	publish(ctx, s.events, event.Event{
		Type:    event.UserUpdated,
		Key:     user.Email,
		Payload: userEvent{ID: user.ID, Username: user.Username, Email: user.Email},
	})
	return nil
}

// DeleteAccount removes every account registered with email.
func (s *UserService) DeleteAccount(ctx context.Context, email string) error {
	deleted, err := s.repo.DeleteUserByEmail(ctx, email)
	if err != nil {
		logger.Error().Err(err).Msgf("Error deleting user %s", email)
		return newError(ErrInternal, "error deleting user account", err)
	}

	if deleted == 0 {
		logger.Warn().Msgf("User account with email %s not found", email)
		return newError(ErrNotFound, fmt.Sprintf("user account with email %s not found", email), nil)
	}

	logger.Info().Msgf("User account with email %s deleted", email)
	publish(ctx, s.events, event.Event{
		Type:    event.UserDeleted,
		Key:     email,
		Payload: map[string]string{"email": email},
	})
	return nil
}
