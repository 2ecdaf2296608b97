package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	channel "Culvert/internal/calc/channel"
	config "Culvert/internal/config"
	observability "Culvert/internal/observability"
	repo "Culvert/internal/repo"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type memRepo struct {
	mu       sync.Mutex
	users    map[string]int
	hashes   map[string]string
	settings map[int]repo.Settings
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[string]int{}, hashes: map[string]string{}, settings: map[int]repo.Settings{}}
}

func (m *memRepo) CreateUser(_ context.Context, login, _, password string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := len(m.users) + 1
	m.users[login] = id
	m.hashes[login] = password
	return id, nil
}

func (m *memRepo) GetBylogin(_ context.Context, login string) (int, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.users[login]
	if !ok {
		return 0, "", repo.ErrNotFound
	}
	return id, m.hashes[login], nil
}

func (m *memRepo) GetSettings(_ context.Context, userID int) (repo.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[userID]
	if !ok {
		return repo.Settings{}, repo.ErrNotFound
	}
	return s, nil
}

func (m *memRepo) SaveSettings(_ context.Context, userID int, s repo.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[userID] = s
	return nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	app := &App{
		Config: &config.Config{
			TokenKey:        "test-key",
			RateLimitRPS:    100,
			RateLimitBurst:  100,
			SolverMaxIter:   100,
			SolverTolerance: 1e-6,
			SpecificWeight:  9000,
			BatchMaxItems:   10,
			BatchWorkers:    2,
		},
		Repo:    newMemRepo(),
		Log:     zap.NewNop(),
		Metrics: observability.NewMetrics(),
	}
	router := mux.NewRouter()
	HandleList(router, app)
	srv := httptest.NewServer(app.Wrap(router))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string, cookie *http.Cookie) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func register(t *testing.T, srv *httptest.Server) *http.Cookie {
	t.Helper()
	resp := post(t, srv, "/api/register", `{"login":"eng","email":"eng@example.com","password":"secret1"}`, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}
	for _, c := range resp.Cookies() {
		if c.Name == "session_token" {
			return &http.Cookie{Name: c.Name, Value: c.Value}
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get(observability.RequestIDHeader) == "" {
		t.Fatal("missing request id header")
	}

	resp, err = srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", resp.StatusCode)
	}
}

func TestToolsRequireSession(t *testing.T) {
	srv := newTestServer(t)
	resp := post(t, srv, "/api/user/tools/channel/calc", `{"target":"Q"}`, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCalcUsesUserSettings(t *testing.T) {
	srv := newTestServer(t)
	cookie := register(t, srv)

	body := `{"target":"Q","diameter_m":1,"relative_depth":0.5,"slope":0.0045,"roughness":0.013}`
	resp := post(t, srv, "/api/user/tools/channel/calc", body, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("calc: expected 200, got %d", resp.StatusCode)
	}
	var res channel.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.SpecificWeightNM3 != 9000 || res.FlowRateM3S < 0.804 || res.FlowRateM3S > 0.805 {
		t.Fatalf("unexpected result %+v", res)
	}

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/user/settings",
		strings.NewReader(`{"specific_weight_n_m3":9810,"max_relative_depth":0.6}`))
	if err != nil {
		t.Fatal(err)
	}
	req.AddCookie(cookie)
	put, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	put.Body.Close()
	if put.StatusCode != http.StatusNoContent {
		t.Fatalf("settings: expected 204, got %d", put.StatusCode)
	}

	resp = post(t, srv, "/api/user/tools/channel/calc", body, cookie)
	res = channel.Result{}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.SpecificWeightNM3 != 9810 {
		t.Fatalf("expected the saved specific weight, got %v", res.SpecificWeightNM3)
	}
}

func TestCalcErrorBody(t *testing.T) {
	srv := newTestServer(t)
	cookie := register(t, srv)

	resp := post(t, srv, "/api/user/tools/channel/calc", `{"target":"yD","diameter_m":1,"slope":0.0045,"roughness":0.013,"flow_rate_m3s":100}`, cookie)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	var e channel.Error
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatal(err)
	}
	if e.Kind != channel.KindNonConvergence {
		t.Fatalf("unexpected error body %+v", e)
	}
}
