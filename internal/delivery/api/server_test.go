package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"atrium/config"
	apimiddleware "atrium/internal/delivery/api/middleware"
	"atrium/internal/delivery/api/router"
	"atrium/internal/delivery/api/router/handler"
	"atrium/internal/domain/entity"
	domainerrors "atrium/internal/domain/errors"
	"atrium/internal/domain/service"
	"atrium/internal/infra/auth"
	mockUsecase "atrium/internal/mocks/usecase"
	"atrium/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type serverFixtures struct {
	e      *echo.Echo
	uc     *mockUsecase.MockAuthUsecase
	tokens service.TokenService
}

func newServerFixtures(t *testing.T) serverFixtures {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{}
	cfg.HTTP.MaxRequestBodySize = "100KB"

	tokens, err := auth.NewJWTService(service.TokenConfig{
		Secret:     []byte("server-test-secret"),
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}, logger)
	require.NoError(t, err)

	uc := mockUsecase.NewMockAuthUsecase(t)

	e := NewEcho(cfg, logger, router.RouterParams{
		AuthHandler:    handler.NewAuthHandler(uc),
		AuthMiddleware: apimiddleware.NewAuthMiddleware(tokens, logger),
	})

	return serverFixtures{e: e, uc: uc, tokens: tokens}
}

func (f serverFixtures) do(method, path, body, bearer string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string           `json:"code"`
		Message string           `json:"message"`
		Details []map[string]any `json:"details"`
	} `json:"error"`
	Meta struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))

	return env
}

func testUser(role entity.Role) *entity.User {
	return &entity.User{
		ID:           uuid.New(),
		Email:        "alice@example.com",
		Username:     "alice",
		PasswordHash: "$argon2id$secret-material",
		Role:         role,
		Status:       entity.UserStatusActive,
	}
}

func TestServer_Health(t *testing.T) {
	f := newServerFixtures(t)

	rec := f.do(http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, string(decode(t, rec).Data))
}

func TestServer_Metrics(t *testing.T) {
	f := newServerFixtures(t)

	rec := f.do(http.MethodGet, "/metrics", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestServer_RequestIDIsEchoed(t *testing.T) {
	f := newServerFixtures(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "req-123", decode(t, rec).Meta.RequestID)
}

func TestServer_Register(t *testing.T) {
	f := newServerFixtures(t)
	user := testUser(entity.RoleUser)
	pair := &service.TokenPair{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", ExpiresIn: 3600}

	f.uc.EXPECT().Register(mock.Anything, &usecase.RegisterInput{
		Email: "alice@example.com", Username: "alice", Password: "correct-horse",
	}).Return(&usecase.AuthOutput{User: user, Tokens: pair}, nil)

	rec := f.do(http.MethodPost, "/auth/register", `{"email":"alice@example.com","username":"alice","password":"correct-horse"}`, "")

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "argon2id")

	var view handler.AuthView
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &view))
	assert.Equal(t, user.ID, view.User.ID)
	assert.Equal(t, "user", view.User.Role)
	assert.Equal(t, pair, view.Tokens)
}

func TestServer_Register_ValidationDetails(t *testing.T) {
	f := newServerFixtures(t)

	rec := f.do(http.MethodPost, "/auth/register", `{"email":"not-an-email","username":"al","password":"short"}`, "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	fields := make([]string, 0, len(env.Error.Details))
	for _, d := range env.Error.Details {
		fields = append(fields, d["field"].(string))
	}
	assert.ElementsMatch(t, []string{"email", "username", "password"}, fields)
}

func TestServer_Register_MalformedBody(t *testing.T) {
	f := newServerFixtures(t)

	rec := f.do(http.MethodPost, "/auth/register", `{"email":`, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", decode(t, rec).Error.Code)
}

func TestServer_Register_Conflict(t *testing.T) {
	f := newServerFixtures(t)

	f.uc.EXPECT().Register(mock.Anything, mock.Anything).
		Return(nil, errors.Wrap(domainerrors.ErrUsernameTaken, "username check"))

	rec := f.do(http.MethodPost, "/auth/register", `{"email":"bob@example.com","username":"alice","password":"correct-horse"}`, "")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "USERNAME_TAKEN", decode(t, rec).Error.Code)
}

func TestServer_Login_InvalidCredentials(t *testing.T) {
	f := newServerFixtures(t)

	f.uc.EXPECT().Login(mock.Anything, &usecase.LoginInput{Email: "alice@example.com", Password: "wrong"}).
		Return(nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed"))

	rec := f.do(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"wrong"}`, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)
	assert.Empty(t, env.Error.Details)
}

func TestServer_Refresh_RejectedTokenIsGeneric401(t *testing.T) {
	f := newServerFixtures(t)

	f.uc.EXPECT().Refresh(mock.Anything, &usecase.RefreshInput{RefreshToken: "bogus"}).
		Return(nil, errors.Wrap(service.ErrAuthentication, "refresh token rejected"))

	rec := f.do(http.MethodPost, "/auth/refresh", `{"refresh_token":"bogus"}`, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
	assert.Equal(t, "invalid or expired token", env.Error.Message)
}

func TestServer_Me(t *testing.T) {
	f := newServerFixtures(t)
	user := testUser(entity.RoleUser)
	pair, err := f.tokens.IssuePair(user.ID, user.Email, user.Role.String())
	require.NoError(t, err)

	f.uc.EXPECT().Me(mock.Anything, user.ID).Return(user, nil)

	rec := f.do(http.MethodGet, "/api/v1/me", "", pair.AccessToken)

	require.Equal(t, http.StatusOK, rec.Code)
	var view handler.UserView
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &view))
	assert.Equal(t, user.ID, view.ID)
	assert.Equal(t, "alice", view.Username)
}

func TestServer_Me_Unauthenticated(t *testing.T) {
	f := newServerFixtures(t)
	user := testUser(entity.RoleUser)
	pair, err := f.tokens.IssuePair(user.ID, user.Email, user.Role.String())
	require.NoError(t, err)

	cases := map[string]func(*http.Request){
		"missing header":    func(*http.Request) {},
		"wrong scheme":      func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Basic "+pair.AccessToken) },
		"empty bearer":      func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer ") },
		"garbage token":     func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer abc.def.ghi") },
		"refresh as access": func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+pair.RefreshToken) },
	}

	var bodies []string
	for name, prepare := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			prepare(req)
			rec := httptest.NewRecorder()
			f.e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			env := decode(t, rec)
			assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
			bodies = append(bodies, env.Error.Message)
		})
	}

	for _, msg := range bodies {
		assert.Equal(t, "invalid or expired token", msg)
	}
}

func TestServer_AdminPing(t *testing.T) {
	f := newServerFixtures(t)

	adminPair, err := f.tokens.IssuePair(uuid.New(), "root@example.com", entity.RoleAdmin.String())
	require.NoError(t, err)
	userPair, err := f.tokens.IssuePair(uuid.New(), "alice@example.com", entity.RoleUser.String())
	require.NoError(t, err)

	rec := f.do(http.MethodGet, "/api/v1/admin/ping", "", adminPair.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/admin/ping", "", userPair.AccessToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decode(t, rec).Error.Code)
}

func TestServer_UnhandledErrorIsOpaque(t *testing.T) {
	f := newServerFixtures(t)

	f.uc.EXPECT().Login(mock.Anything, mock.Anything).
		Return(nil, errors.Wrap(service.ErrInternal, "parse stored hash: bad base64"))

	rec := f.do(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"pw"}`, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "base64")
	body := decode(t, rec)
	assert.Equal(t, domainerrors.ErrInternalError.ErrorCode(), body.Error.Code)
	assert.Equal(t, domainerrors.ErrInternalError.Message(), body.Error.Message)
}
