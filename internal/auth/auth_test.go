package auth

import (
	repo "Culvert/internal/repo"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type stubRepo struct {
	users map[string]struct {
		id   int
		hash string
	}
	err error
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: map[string]struct {
		id   int
		hash string
	}{}}
}

func (s *stubRepo) CreateUser(_ context.Context, login, _, password string) (int, error) {
	if _, ok := s.users[login]; ok {
		return 0, errors.New("duplicate")
	}
	id := len(s.users) + 1
	s.users[login] = struct {
		id   int
		hash string
	}{id, password}
	return id, nil
}

func (s *stubRepo) GetBylogin(_ context.Context, login string) (int, string, error) {
	if s.err != nil {
		return 0, "", s.err
	}
	u, ok := s.users[login]
	if !ok {
		return 0, "", repo.ErrNotFound
	}
	return u.id, u.hash, nil
}

func (s *stubRepo) GetSettings(context.Context, int) (repo.Settings, error) {
	return repo.Settings{}, repo.ErrNotFound
}

func (s *stubRepo) SaveSettings(context.Context, int, repo.Settings) error { return nil }

func newTestEnv() *Authenv {
	return &Authenv{JWTkey: []byte("test-key"), Repo: newStubRepo()}
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestRegisterThenAccessProtected(t *testing.T) {
	env := newTestEnv()

	rr := httptest.NewRecorder()
	env.RegisterHandler(rr, httptest.NewRequest(http.MethodPost, "/api/register",
		strings.NewReader(`{"login":"eng","email":"eng@example.com","password":"secret1"}`)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	cookie := sessionCookie(t, rr)

	var seen int
	protected := env.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/user/settings", nil)
	req.AddCookie(cookie)
	protected.ServeHTTP(httptest.NewRecorder(), req)
	if seen != 1 {
		t.Fatalf("expected user 1 on context, got %d", seen)
	}
}

func TestAuthMiddlewareRejects(t *testing.T) {
	env := newTestEnv()
	protected := env.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("no cookie: expected 401, got %d", rr.Code)
	}

	other := &Authenv{JWTkey: []byte("other-key")}
	token, err := other.newToken(7, "x")
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("foreign token: expected 401, got %d", rr.Code)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv()
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatal(err)
	}
	env.Repo.CreateUser(context.Background(), "eng", "eng@example.com", hash)

	cases := []struct {
		body   string
		status int
	}{
		{`{"login":"eng","password":"secret1"}`, http.StatusOK},
		{`{"login":"eng","password":"wrong"}`, http.StatusUnauthorized},
		{`{"login":"nobody","password":"secret1"}`, http.StatusUnauthorized},
		{`{"login":"","password":""}`, http.StatusBadRequest},
	}
	for _, c := range cases {
		rr := httptest.NewRecorder()
		env.AuthHandler(rr, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(c.body)))
		if rr.Code != c.status {
			t.Fatalf("%s: expected %d, got %d", c.body, c.status, rr.Code)
		}
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	env := newTestEnv()
	rr := httptest.NewRecorder()
	env.RegisterHandler(rr, httptest.NewRequest(http.MethodPost, "/api/register",
		strings.NewReader(`{"login":"eng","email":"e@x","password":"123"}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(0, 2)
	h := limiter.LimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		req.RemoteAddr = "10.0.0.1:" + string(rune('1'+i)) + "000"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
}
