package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/maratshchur/django-auth-template/internal/auth/service"
	"github.com/maratshchur/django-auth-template/internal/auth/store/drivers/sqlite"
	"github.com/maratshchur/django-auth-template/pkg/authsdk"
	"github.com/maratshchur/django-auth-template/pkg/cryptox"
	"github.com/maratshchur/django-auth-template/pkg/jwtx"
	"github.com/maratshchur/django-auth-template/pkg/slogx"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "authhttp")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testServer struct {
	t      *testing.T
	clock  *clock
	store  *sqlite.Store
	router *Router
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	clk := &clock{now: time.Unix(1735689600, 0).UTC()}
	secret := []byte("0123456789abcdef0123456789abcdef")

	signer, err := jwtx.NewSignerHS256(secret)
	require.NoError(t, err)
	verifier, err := jwtx.NewVerifierHS256(secret, jwtx.WithClock(clk.Now))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics := service.NewMetrics(reg)
	creds := &service.CredentialService{Store: st, Now: clk.Now}
	issuer := &service.TokenIssuer{
		Signer:     signer,
		Store:      st,
		AccessTTL:  30 * time.Second,
		RefreshTTL: 2592000 * time.Second,
		Now:        clk.Now,
		Metrics:    metrics,
	}

	r := NewRouter("test", st, slogx.Discard(), reg)
	r.CredentialService = creds
	r.SessionService = &service.SessionService{Credentials: creds, Issuer: issuer, Store: st, Now: clk.Now, Metrics: metrics}
	r.UserService = &service.UserService{Store: st, Now: clk.Now}
	r.TokenVerifier = &service.TokenVerifier{Verifier: verifier, Store: st}
	r.ApplyRoutes()

	return &testServer{t: t, clock: clk, store: st, router: r}
}

func (s *testServer) do(method, path, body string, header ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if len(header) > 0 {
		req.Header.Set("Authorization", header[0])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) json(method, path string, v any, header ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	b, err := json.Marshal(v)
	require.NoError(s.t, err)
	return s.do(method, path, string(b), header...)
}

func (s *testServer) register(email, password string) {
	s.t.Helper()
	rec := s.json(http.MethodPost, "/register", authsdk.RegisterRequest{Email: email, Password: password})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *testServer) login(email, password string) authsdk.TokenResponse {
	s.t.Helper()
	rec := s.json(http.MethodPost, "/login", authsdk.LoginRequest{Email: email, Password: password})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[authsdk.TokenResponse](s.t, rec)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestScenario(t *testing.T) {
	s := newTestServer(t)

	rec := s.json(http.MethodPost, "/register", authsdk.RegisterRequest{Email: "a@x.com", Password: "pw123456"})
	require.Equal(t, http.StatusCreated, rec.Code)
	reg := decode[authsdk.RegisterResponse](t, rec)
	require.Equal(t, "a@x.com", reg.Email)
	require.NotEmpty(t, reg.ID)

	tokens := s.login("a@x.com", "pw123456")
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	rec = s.do(http.MethodGet, "/me", "", "Bearer "+tokens.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[authsdk.UserResponse](t, rec)
	require.Equal(t, "a@x.com", me.Email)
	require.Equal(t, reg.ID, me.ID)

	rec = s.json(http.MethodPost, "/refresh", authsdk.RefreshRequest{RefreshToken: tokens.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	rotated := decode[authsdk.TokenResponse](t, rec)
	require.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	rec = s.json(http.MethodPost, "/refresh", authsdk.RefreshRequest{RefreshToken: tokens.RefreshToken})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"Invalid or expired refresh token"}`, rec.Body.String())

	rec = s.json(http.MethodPost, "/logout", authsdk.LogoutRequest{RefreshToken: rotated.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":"Successfully logged out"}`, rec.Body.String())

	rec = s.json(http.MethodPost, "/refresh", authsdk.RefreshRequest{RefreshToken: rotated.RefreshToken})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"Invalid or expired refresh token"}`, rec.Body.String())
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)
	s.register("a@x.com", "pw123456")

	tests := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{"missing email", `{"password":"pw123456"}`, "email", "This field is required."},
		{"bad email", `{"email":"nope","password":"pw123456"}`, "email", "Enter a valid email address."},
		{"short password", `{"email":"b@x.com","password":"short"}`, "password", "Ensure this field has at least 8 characters."},
		{"duplicate", `{"email":"a@x.com","password":"pw123456"}`, "email", "user with this email already exists."},
		{"bad json", `{"email":`, "non_field_errors", "Invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/register", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			fields := decode[map[string][]string](t, rec)
			require.Contains(t, fields[tt.field], tt.msg)
		})
	}
}

func TestLoginFailuresAreIdentical(t *testing.T) {
	s := newTestServer(t)
	s.register("a@x.com", "pw123456")

	wrong := s.json(http.MethodPost, "/login", authsdk.LoginRequest{Email: "a@x.com", Password: "wrong-password"})
	unknown := s.json(http.MethodPost, "/login", authsdk.LoginRequest{Email: "nobody@x.com", Password: "pw123456"})

	require.Equal(t, http.StatusBadRequest, wrong.Code)
	require.Equal(t, http.StatusBadRequest, unknown.Code)
	require.JSONEq(t, `{"non_field_errors":["Invalid email or password"]}`, wrong.Body.String())
	require.Equal(t, wrong.Body.String(), unknown.Body.String())

	rec := s.do(http.MethodPost, "/login", `{"email":"a@x.com"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, []string{"This field is required."}, decode[map[string][]string](t, rec)["password"])
}

func TestMeAuthErrors(t *testing.T) {
	s := newTestServer(t)
	s.register("a@x.com", "pw123456")
	tokens := s.login("a@x.com", "pw123456")

	tests := []struct {
		name   string
		header string
		detail string
	}{
		{"missing", "", "Authentication credentials were not provided"},
		{"wrong scheme", "Basic " + tokens.AccessToken, "Authorization header must start with Bearer"},
		{"one part", "Bearer", "Invalid Authorization header format"},
		{"three parts", "Bearer a b", "Invalid Authorization header format"},
		{"garbage", "Bearer not-a-jwt", "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec *httptest.ResponseRecorder
			if tt.header == "" {
				rec = s.do(http.MethodGet, "/me", "")
			} else {
				rec = s.do(http.MethodGet, "/me", "", tt.header)
			}
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
			require.Equal(t, tt.detail, decode[map[string]string](t, rec)["detail"])
		})
	}

	t.Run("lowercase scheme accepted", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/me", "", "bearer "+tokens.AccessToken)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestMeTokenExpiry(t *testing.T) {
	s := newTestServer(t)
	s.register("a@x.com", "pw123456")
	tokens := s.login("a@x.com", "pw123456")

	s.clock.Advance(29 * time.Second)
	rec := s.do(http.MethodGet, "/me", "", "Bearer "+tokens.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	s.clock.Advance(time.Second)
	rec = s.do(http.MethodGet, "/me", "", "Bearer "+tokens.AccessToken)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"detail":"Token has expired"}`, rec.Body.String())
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="invalid_token"`)
}

func TestMeDeletedUser(t *testing.T) {
	s := newTestServer(t)
	s.register("a@x.com", "pw123456")
	tokens := s.login("a@x.com", "pw123456")

	user, err := s.store.Users().GetUserByEmail(t.Context(), "a@x.com")
	require.NoError(t, err)
	require.NoError(t, s.store.Users().DeleteUser(t.Context(), user.ID))

	rec := s.do(http.MethodGet, "/me", "", "Bearer "+tokens.AccessToken)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"detail":"User not found"}`, rec.Body.String())
}

func TestUpdateMe(t *testing.T) {
	s := newTestServer(t)
	s.register("a@x.com", "pw123456")
	s.register("b@x.com", "pw123456")
	tokens := s.login("a@x.com", "pw123456")
	auth := "Bearer " + tokens.AccessToken

	rec := s.do(http.MethodPut, "/me", `{"username":"alice"}`, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[authsdk.UserResponse](t, rec)
	require.Equal(t, "alice", me.Username)
	require.Equal(t, "a@x.com", me.Email)

	rec = s.do(http.MethodPut, "/me", `{"email":"b@x.com"}`, auth)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, []string{"user with this email already exists."}, decode[map[string][]string](t, rec)["email"])

	rec = s.do(http.MethodPut, "/me", `{"email":"not-an-email"}`, auth)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// id is read-only and silently ignored.
	rec = s.do(http.MethodPut, "/me", `{"id":"other","email":"A2@X.COM"}`, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	me = decode[authsdk.UserResponse](t, rec)
	require.NotEqual(t, "other", me.ID)
	require.Equal(t, "A2@x.com", me.Email)

	rec = s.do(http.MethodPut, "/me", `{"username":"x"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing", `{}`, `{"error":"Refresh token is required"}`},
		{"empty", `{"refresh_token":""}`, `{"error":"Refresh token is required"}`},
		{"malformed", `{"refresh_token":"invalidtoken"}`, `{"error":"Invalid refresh token format"}`},
		{"unknown", `{"refresh_token":"5b0c7f0e-8a9b-4c3d-9e1f-2a3b4c5d6e7f"}`, `{"error":"Invalid or expired refresh token"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/refresh", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestRefreshTokenExpires(t *testing.T) {
	s := newTestServer(t)
	s.register("a@x.com", "pw123456")
	tokens := s.login("a@x.com", "pw123456")

	s.clock.Advance(2592000 * time.Second)
	rec := s.json(http.MethodPost, "/refresh", authsdk.RefreshRequest{RefreshToken: tokens.RefreshToken})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"Invalid or expired refresh token"}`, rec.Body.String())
}

func TestConcurrentRefreshSingleWinner(t *testing.T) {
	s := newTestServer(t)
	s.register("a@x.com", "pw123456")
	tokens := s.login("a@x.com", "pw123456")

	body, err := json.Marshal(authsdk.RefreshRequest{RefreshToken: tokens.RefreshToken})
	require.NoError(t, err)

	const workers = 8
	codes := make(chan int, workers)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/refresh", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)
			codes <- rec.Code
		}()
	}
	wg.Wait()
	close(codes)

	var ok, rejected int
	for code := range codes {
		switch code {
		case http.StatusOK:
			ok++
		case http.StatusBadRequest:
			rejected++
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, workers-1, rejected)
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/logout", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"Refresh token is required"}`, rec.Body.String())

	for _, token := range []string{"5b0c7f0e-8a9b-4c3d-9e1f-2a3b4c5d6e7f", "invalidtoken"} {
		rec = s.json(http.MethodPost, "/logout", authsdk.LogoutRequest{RefreshToken: token})
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/livez", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decode[authsdk.HealthResponse](t, rec).Status)

	rec = s.do(http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[authsdk.HealthResponse](t, rec)
	require.Equal(t, "ok", health.Checks.Database)
	require.Empty(t, health.Checks.RefreshStore)

	s.do(http.MethodPost, "/login", `{}`)
	rec = s.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `http_requests_total{method="POST",route="POST /login",status="400"} 1`)
}

type pingFunc func() error

func (f pingFunc) Ping(_ context.Context) error { return f() }

func TestReadyzDegraded(t *testing.T) {
	db := pingFunc(func() error { return nil })
	refresh := pingFunc(func() error { return errors.New("dial tcp 10.0.0.7:6379: connection refused") })

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	req = req.WithContext(slogx.WithContext(req.Context(), logger))

	rec := httptest.NewRecorder()
	ReadyzHandler(time.Now(), "test", db, refresh).ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotContains(t, rec.Body.String(), "10.0.0.7")
	health := decode[authsdk.HealthResponse](t, rec)
	require.Equal(t, "degraded", health.Status)
	require.Equal(t, "ok", health.Checks.Database)
	require.Equal(t, "error", health.Checks.RefreshStore)

	// The detail goes to the log instead.
	require.Contains(t, logs.String(), "10.0.0.7:6379")
	require.Contains(t, logs.String(), `"check":"refresh_store"`)
}
