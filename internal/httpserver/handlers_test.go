package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/mallkit/internal/middleware"
	"github.com/Skotchmaster/mallkit/internal/models"
	"github.com/Skotchmaster/mallkit/internal/repo"
	"github.com/Skotchmaster/mallkit/internal/service"
	"github.com/Skotchmaster/mallkit/internal/tokens"
	"github.com/Skotchmaster/mallkit/internal/transport"
)

type testEnv struct {
	E         *echo.Echo
	DB        *gorm.DB
	JWTSecret []byte
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	jwtSecret := []byte("test-jwt-secret")
	gormRepo := repo.GormRepo{DB: db}

	e := echo.New()
	Register(e, &Deps{
		AuthHandler: &AuthHTTP{
			Svc: &service.AuthService{Repo: gormRepo, JWTSecret: jwtSecret},
		},
		OrderHandler: &OrderHTTP{
			Svc: &service.OrderService{Repo: gormRepo},
		},
		Auth: middleware.NewTokenAuth(jwtSecret, gormRepo),
	})

	return &testEnv{E: e, DB: db, JWTSecret: jwtSecret}
}

func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(middleware.HeaderToken, token)
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) register(t *testing.T, phone, password, username string) transport.AuthResponse {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"phone": phone, "password": password, "username": username,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var res transport.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func (env *testEnv) promoteToAdmin(t *testing.T, phone string) {
	t.Helper()

	require.NoError(t, env.DB.Model(&models.User{}).Where("phone = ?", phone).Update("role", "admin").Error)
}

func widgetOrderBody() map[string]any {
	return map[string]any{
		"items": []map[string]any{
			{"id": "x", "name": "Widget", "price": 9.99, "qty": 2, "image": "img.png"},
		},
		"total_amount": 19.98,
	}
}

func TestLiveness(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRegister_ReturnsTokenAndConflictsOnSecondCall(t *testing.T) {
	env := newTestEnv(t)

	res := env.register(t, "+1555", "pw", "alice")
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "user", res.Role)
	assert.Equal(t, "alice", res.User)

	rec := env.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"phone": "+1555", "password": "other", "username": "bob",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_SuccessAndWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "+1555", "pw", "alice")

	rec := env.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"phone": "+1555", "password": "pw",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var res transport.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "alice", res.User)

	rec = env.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"phone": "+1555", "password": "wrong",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfile_RequiresValidToken(t *testing.T) {
	env := newTestEnv(t)
	res := env.register(t, "+1555", "pw", "alice")

	rec := env.do(t, http.MethodGet, "/api/user/profile", res.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile transport.ProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "+1555", profile.Phone)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "user", profile.Role)
}

func TestProtectedEndpoints_MissingOrMalformedToken(t *testing.T) {
	env := newTestEnv(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/user/profile"},
		{http.MethodPost, "/api/orders"},
		{http.MethodGet, "/api/orders"},
		{http.MethodGet, "/api/admin/orders"},
	}

	for _, p := range paths {
		rec := env.do(t, p.method, p.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s without token", p.method, p.path)

		rec = env.do(t, p.method, p.path, "garbage-token", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s with malformed token", p.method, p.path)
	}
}

func TestProtectedEndpoint_ExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "+1555", "pw", "alice")

	expired, err := tokens.IssueAt("+1555", "user", env.JWTSecret, time.Now().Add(-tokens.TTL-time.Hour))
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/api/user/profile", expired, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedEndpoint_UnknownSubject(t *testing.T) {
	env := newTestEnv(t)

	// Valid signature, but the phone was never registered.
	token, err := tokens.Issue("+19998887777", "user", env.JWTSecret)
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/api/user/profile", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateOrder_ThenListReturnsIt(t *testing.T) {
	env := newTestEnv(t)
	res := env.register(t, "+1555", "pw", "alice")

	rec := env.do(t, http.MethodPost, "/api/orders", res.Token, widgetOrderBody())
	require.Equal(t, http.StatusOK, rec.Code)

	var created transport.CreateOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "paid", created.Status)

	rec = env.do(t, http.MethodGet, "/api/orders", res.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var orders []transport.OrderView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, created.ID, orders[0].ID)
	assert.Equal(t, 19.98, orders[0].TotalAmount)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "Widget", orders[0].Items[0].Name)
}

func TestCreateOrder_EmptyItemsRejected(t *testing.T) {
	env := newTestEnv(t)
	res := env.register(t, "+1555", "pw", "alice")

	rec := env.do(t, http.MethodPost, "/api/orders", res.Token, map[string]any{
		"items": []map[string]any{}, "total_amount": 0,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrders_NeverLeaksAcrossUsers(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "+1555", "pw", "alice")
	bob := env.register(t, "+1666", "pw", "bob")

	rec := env.do(t, http.MethodPost, "/api/orders", alice.Token, widgetOrderBody())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/orders", bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var orders []transport.OrderView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	assert.Empty(t, orders)
}

func TestAdminOrders_ForbiddenForUserVisibleForAdmin(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "+1555", "pw", "alice")
	boss := env.register(t, "+1777", "pw", "boss")
	env.promoteToAdmin(t, "+1777")

	rec := env.do(t, http.MethodPost, "/api/orders", alice.Token, widgetOrderBody())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/orders", alice.Token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Role is resolved from the store on every request, so the token issued
	// before the promotion is enough.
	rec = env.do(t, http.MethodPost, "/api/orders", boss.Token, widgetOrderBody())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/orders", boss.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var all []transport.AdminOrderView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 2)

	phones := []string{all[0].UserPhone, all[1].UserPhone}
	assert.Contains(t, phones, "+1555")
	assert.Contains(t, phones, "+1777")
}
