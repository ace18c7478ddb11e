package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"weather-service/internal/credential"
	"weather-service/internal/entity"
	"weather-service/internal/service"
	"weather-service/internal/service/servicetest"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type testServer struct {
	e        *echo.Echo
	users    *servicetest.UserStore
	weather  *servicetest.WeatherStore
	database *fakePinger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{
		users:    servicetest.NewUserStore(),
		weather:  servicetest.NewWeatherStore(),
		database: &fakePinger{},
	}
	events := &servicetest.Publisher{}
	userService := service.NewUserService(s.users, credential.NewHasher(bcrypt.MinCost), events)
	weatherService := service.NewWeatherService(s.weather, servicetest.NewWeatherCache(), events)
	s.e = NewRouter(NewUserHandler(userService), NewWeatherHandler(weatherService), NewHealthHandler(s.database))
	return s
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/auth/register", `{"username":"alice","email":"alice@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user registered successfully", decodeBody(t, rec)["message"])

	stored, ok := s.users.User(1)
	require.True(t, ok)
	assert.NotEqual(t, "password123", stored.Password)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestRegisterShortPassword(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{
		`{"username":"alice","email":"alice@example.com","password":"1234567"}`,
		`{"password":"short"}`,
		`{"username":"bob","email":"bob@example.com"}`,
	} {
		rec := s.do(http.MethodPost, "/api/auth/register", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.NotEmpty(t, decodeBody(t, rec)["error"])
	}
	assert.Equal(t, 0, s.users.Len())
}

func TestRegisterLongPassword(t *testing.T) {
	s := newTestServer(t)
	password := strings.Repeat("p", 80)

	rec := s.do(http.MethodPost, "/api/auth/register", `{"username":"alice","email":"alice@example.com","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"`+password+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateLongPassword(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/auth/register", `{"username":"alice","email":"alice@example.com","password":"password123"}`).Code)
	password := strings.Repeat("q", 120)

	rec := s.do(http.MethodPut, "/api/auth/update", `{"id":1,"username":"alice","email":"alice@example.com","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"`+password+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterMalformedBody(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/auth/register", `{"username":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	body := `{"username":"alice","email":"alice@example.com","password":"password123"}`

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/auth/register", body).Code)

	rec := s.do(http.MethodPost, "/api/auth/register", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email already registered", decodeBody(t, rec)["error"])
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/auth/register", `{"username":"alice","email":"alice@example.com","password":"password123"}`).Code)

	rec := s.do(http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "login successful", decodeBody(t, rec)["message"])

	rec = s.do(http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"password000"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", decodeBody(t, rec)["error"])

	rec = s.do(http.MethodPost, "/api/auth/login", `{"email":"nobody@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/login", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginStoreFailure(t *testing.T) {
	s := newTestServer(t)
	s.users.Err = errors.New("bad connection")

	rec := s.do(http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdate(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/auth/register", `{"username":"alice","email":"alice@example.com","password":"password123"}`).Code)

	rec := s.do(http.MethodPut, "/api/auth/update", `{"id":1,"username":"alicia","email":"alicia@example.com","password":"newpassword"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/login", `{"email":"alicia@example.com","password":"newpassword"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPut, "/api/auth/update", `{"id":404,"username":"ghost","email":"ghost@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPut, "/api/auth/update", `{"id":"one"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDelete(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/auth/register", `{"username":"alice","email":"alice@example.com","password":"password123"}`).Code)

	rec := s.do(http.MethodDelete, "/api/auth/delete/alice%40example.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "alice@example.com")
	assert.Equal(t, 0, s.users.Len())

	rec = s.do(http.MethodDelete, "/api/auth/delete/alice@example.com", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "alice@example.com")
}

func TestDeleteEmailWithPercent(t *testing.T) {
	for _, target := range []string{
		"/api/auth/delete/a%25b@x.io",
		"/api/auth/delete/a%25b%40x.io",
	} {
		s := newTestServer(t)
		require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/auth/register", `{"username":"ab","email":"a%b@x.io","password":"password123"}`).Code)

		rec := s.do(http.MethodDelete, target, "")
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.Contains(t, decodeBody(t, rec)["message"], "a%b@x.io")
		assert.Equal(t, 0, s.users.Len())
	}
}

func TestDeleteNonexistentLeavesUsers(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/auth/register", `{"username":"alice","email":"alice@example.com","password":"password123"}`).Code)

	rec := s.do(http.MethodDelete, "/api/auth/delete/bob@example.com", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, s.users.Len())
}

func TestDeleteStoreFailure(t *testing.T) {
	s := newTestServer(t)
	s.users.Err = errors.New("lock wait timeout")

	rec := s.do(http.MethodDelete, "/api/auth/delete/alice@example.com", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWeatherEndToEnd(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/weather", `{"city":"Berlin","temperature":18.5,"date":"2024-05-01","windSpeed":12.0}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/weather?city=Berlin&date=2024-05-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var records []entity.WeatherRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, entity.WeatherRecord{ID: 1, City: "Berlin", Temperature: 18.5, Date: "2024-05-01", WindSpeed: 12.0}, records[0])

	rec = s.do(http.MethodPut, "/api/weather", `{"city":"Berlin","temperature":20.0,"date":"2024-05-01","windSpeed":12.0}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/weather?city=Berlin&date=2024-05-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	records = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, 20.0, records[0].Temperature)
}

func TestQueryWeather(t *testing.T) {
	s := newTestServer(t)
	for _, body := range []string{
		`{"city":"Berlin","temperature":18.5,"date":"2024-05-01","windSpeed":12}`,
		`{"city":"Berlin","temperature":16,"date":"2024-05-02","windSpeed":7}`,
		`{"city":"Paris","temperature":21,"date":"2024-05-01","windSpeed":4}`,
	} {
		require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/weather", body).Code)
	}

	count := func(target string) int {
		rec := s.do(http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, rec.Code, target)
		var records []entity.WeatherRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
		return len(records)
	}
	assert.Equal(t, 2, count("/api/weather?city=Berlin"))
	assert.Equal(t, 2, count("/api/weather?date=2024-05-01"))
	assert.Equal(t, 1, count("/api/weather?city=Berlin&date=2024-05-02"))

	rec := s.do(http.MethodGet, "/api/weather", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/weather?city=Oslo", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQueryWeatherStoreFailure(t *testing.T) {
	s := newTestServer(t)
	s.weather.Err = errors.New("connection reset")

	rec := s.do(http.MethodGet, "/api/weather?city=Berlin", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "error fetching weather data", decodeBody(t, rec)["error"])
}

func TestUpdateWeatherNotFound(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/weather", `{"city":"Berlin","temperature":18.5,"date":"2024-05-01","windSpeed":12}`).Code)
	before := s.weather.Records()

	rec := s.do(http.MethodPut, "/api/weather", `{"city":"Berlin","temperature":30,"date":"2024-06-01","windSpeed":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, before, s.weather.Records())
}

func TestCreateWeatherFailure(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/weather", `{"city":"Berlin","temperature":"warm"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.weather.Err = errors.New("incorrect date value")
	rec = s.do(http.MethodPost, "/api/weather", `{"city":"Berlin","temperature":18.5,"date":"May","windSpeed":12}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "up", body["database"])

	s.database.err = errors.New("dial tcp: connection refused")
	rec = s.do(http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "down", decodeBody(t, rec)["database"])
}

func TestDocs(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api-docs", "")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/api-docs/index.html", rec.Header().Get(echo.HeaderLocation))

	rec = s.do(http.MethodGet, "/api-docs/index.html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML)
	assert.Contains(t, rec.Body.String(), "SwaggerUIBundle")
	assert.NotContains(t, rec.Body.String(), "unpkg.com")

	rec = s.do(http.MethodGet, "/api-docs/swagger.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "2.0", doc["swagger"])
	assert.Contains(t, doc["paths"], "/weather")
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusOf(&service.Error{Kind: service.ErrValidation}))
	assert.Equal(t, http.StatusUnauthorized, statusOf(&service.Error{Kind: service.ErrInvalidCredentials}))
	assert.Equal(t, http.StatusNotFound, statusOf(&service.Error{Kind: service.ErrNotFound}))
	assert.Equal(t, http.StatusInternalServerError, statusOf(&service.Error{Kind: service.ErrInternal}))
	assert.Equal(t, http.StatusInternalServerError, statusOf(errors.New("boom")))
}
