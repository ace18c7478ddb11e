package api

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"weather-service/internal/entity"
	"weather-service/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new instance of UserHandler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Register creates an account --> /api/auth/register
func (h *UserHandler) Register(c echo.Context) error {
	user := entity.User{}
	if err := c.Bind(&user); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	if err := h.userService.Register(c.Request().Context(), &user); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "user registered successfully"})
}

// Login checks credentials --> /api/auth/login
func (h *UserHandler) Login(c echo.Context) error {
	login := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{}

	if err := c.Bind(&login); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	if err := h.userService.Login(c.Request().Context(), login.Email, login.Password); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "login successful"})
}

// Update replaces an account --> /api/auth/update
func (h *UserHandler) Update(c echo.Context) error {
	user := entity.User{}
	if err := c.Bind(&user); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	if err := h.userService.UpdateAccount(c.Request().Context(), &user); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "user account updated successfully"})
}

// Delete removes an account --> /api/auth/delete/:email
func (h *UserHandler) Delete(c echo.Context) error {
	// echo matches on RawPath when the request carries one, leaving params escaped
	email := c.Param("email")
	if c.Request().URL.RawPath != "" {
		unescaped, err := url.PathUnescape(email)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid email"})
		}
		email = unescaped
	}

	if err := h.userService.DeleteAccount(c.Request().Context(), email); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": fmt.Sprintf("user account with email %s deleted successfully", email)})
}
