package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("test-secret")

type memoryStore struct {
	accounts map[string]*Account
}

func (m *memoryStore) GetByUsername(_ context.Context, username string) (*Account, error) {
	a, ok := m.accounts[username]
	if !ok {
		return nil, nil
	}
	return a, nil
}

func (m *memoryStore) Create(_ context.Context, a *Account) error {
	m.accounts[a.Username] = a
	return nil
}

func givenService(t *testing.T) (*Service, *memoryStore) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pa55"), bcrypt.MinCost)
	require.NoError(t, err)
	store := &memoryStore{accounts: map[string]*Account{
		"admin":    {Username: "admin", PasswordHash: string(hash), Role: RoleAdmin},
		"disabled": {Username: "disabled", PasswordHash: string(hash), Role: RoleLibrarian, IsDisabled: true},
		"clerk":    {Username: "clerk", PasswordHash: string(hash), Role: RoleLibrarian},
	}}
	return NewServiceWithStore(store, testSecret, time.Hour), store
}

func givenRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	protected := api.Group("")
	protected.Use(RequireAuth(svc.Secret()))
	RegisterRoutes(api, protected, svc)
	return r
}

func doJSON(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoginIssuesTokenWithClaims(t *testing.T) {
	svc, _ := givenService(t)

	tokenStr, err := svc.Login(context.Background(), "admin", "pa55")
	require.NoError(t, err)

	token, err := jwt.Parse(tokenStr, func(*jwt.Token) (any, error) { return testSecret, nil })
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "admin", claims["sub"])
	assert.Equal(t, RoleAdmin, claims["role"])
	assert.NotEmpty(t, claims["jti"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := givenService(t)
	testCases := []struct {
		username string
		password string
	}{
		{"admin", "wrong"},
		{"nobody", "pa55"},
		{"disabled", "pa55"},
	}
	for _, tt := range testCases {
		_, err := svc.Login(context.Background(), tt.username, tt.password)
		assert.ErrorIs(t, err, ErrBadCredential, tt.username)
	}
}

func TestRegister(t *testing.T) {
	svc, store := givenService(t)

	require.NoError(t, svc.Register(context.Background(), " newbie ", "pw", RoleLibrarian))
	assert.Contains(t, store.accounts, "newbie")
	assert.NotEqual(t, "pw", store.accounts["newbie"].PasswordHash)

	assert.ErrorIs(t, svc.Register(context.Background(), "admin", "pw", RoleAdmin), ErrAlreadyExists)
	assert.Error(t, svc.Register(context.Background(), "x", "pw", "root"))
	assert.Error(t, svc.Register(context.Background(), "", "pw", RoleAdmin))
}

func TestTokenFromHeader(t *testing.T) {
	testCases := []struct {
		header   string
		expected string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"abc", "abc"},
		{"Bearer ", ""},
		{"Bearer", ""},
		{"null", ""},
		{"Bearer null", ""},
		{"", ""},
	}
	for _, tt := range testCases {
		assert.Equal(t, tt.expected, tokenFromHeader(tt.header), tt.header)
	}
}

func TestLoginHandlerReturnsTokenEnvelope(t *testing.T) {
	svc, _ := givenService(t)
	r := givenRouter(svc)

	w := doJSON(r, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "admin", Password: "pa55"})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Data.Token)
}

func TestLoginHandlerBadPasswordIsNotUnauthorized(t *testing.T) {
	svc, _ := givenService(t)
	r := givenRouter(svc)

	w := doJSON(r, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "admin", Password: "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "message")
}

func TestCheckRequiresValidToken(t *testing.T) {
	svc, _ := givenService(t)
	r := givenRouter(svc)
	token, err := svc.Login(context.Background(), "clerk", "pa55")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/api/auth/check", "Bearer "+token, nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/api/auth/check", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodGet, "/api/auth/check", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodGet, "/api/auth/check", "Bearer garbage", nil).Code)
}

func TestCheckRejectsExpiredToken(t *testing.T) {
	svc, _ := givenService(t)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	r := givenRouter(svc)
	token, err := svc.Login(context.Background(), "clerk", "pa55")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodGet, "/api/auth/check", "Bearer "+token, nil).Code)
}

func TestInfoReturnsCurrentAccount(t *testing.T) {
	svc, _ := givenService(t)
	r := givenRouter(svc)
	token, err := svc.Login(context.Background(), "clerk", "pa55")
	require.NoError(t, err)

	w := doJSON(r, http.MethodGet, "/api/auth/info", "Bearer "+token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data AccountInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "clerk", body.Data.Username)
	assert.Equal(t, RoleLibrarian, body.Data.Role)
}

func TestRegisterIsAdminOnly(t *testing.T) {
	svc, _ := givenService(t)
	r := givenRouter(svc)
	clerkToken, err := svc.Login(context.Background(), "clerk", "pa55")
	require.NoError(t, err)
	adminToken, err := svc.Login(context.Background(), "admin", "pa55")
	require.NoError(t, err)

	req := RegisterRequest{Username: "another", Password: "pw"}
	assert.Equal(t, http.StatusForbidden, doJSON(r, http.MethodPost, "/api/auth/register", "Bearer "+clerkToken, req).Code)
	assert.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/api/auth/register", "Bearer "+adminToken, req).Code)
	assert.Equal(t, http.StatusConflict, doJSON(r, http.MethodPost, "/api/auth/register", "Bearer "+adminToken, req).Code)
}
