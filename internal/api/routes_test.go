package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/playmatatu/pinball/internal/config"
	"github.com/playmatatu/pinball/internal/session"
	"github.com/playmatatu/pinball/internal/ws"
)

const operatorKey = "let-me-in"

type testServer struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hash, err := bcrypt.GenerateFromPassword([]byte(operatorKey), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		Environment:     "test",
		JWTSecret:       "test-secret",
		APIKeyHash:      string(hash),
		TokenTTLMinutes: 5,
		PhysicsTickMs:   16,
		PhysicsSeed:     1,
		MaxSessions:     4,
		MaxCatchUpMs:    250,
	}
	router := gin.New()
	SetupRoutes(router, cfg, Deps{Manager: session.NewManager(cfg, session.Deps{}), Hub: ws.NewHub()})
	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path string, body any) (int, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			s.t.Fatalf("%s %s: bad body %q", method, path, w.Body.String())
		}
	}
	return w.Code, out
}

func (s *testServer) login() {
	s.t.Helper()
	code, body := s.do("POST", "/api/v1/auth/token", map[string]string{"key": operatorKey})
	if code != http.StatusOK {
		s.t.Fatalf("login = %d %v", code, body)
	}
	s.token = body["token"].(string)
}

func (s *testServer) createSession() string {
	s.t.Helper()
	code, body := s.do("POST", "/api/v1/sessions", map[string]any{
		"table": map[string]any{"name": "Demo"},
		"elements": []any{
			map[string]any{"kind": "flipper", "name": "LeftFlipper", "center": map[string]float64{"x": 300, "y": 1800}},
			map[string]any{"kind": "spaceship", "name": "X"},
		},
	})
	if code != http.StatusCreated {
		s.t.Fatalf("create = %d %v", code, body)
	}
	if skipped, _ := body["skipped"].([]any); len(skipped) != 1 {
		s.t.Errorf("skipped = %v, want one entry", body["skipped"])
	}
	return body["session"].(map[string]any)["id"].(string)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do("GET", "/api/v1/health", nil)
	if code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v", code, body)
	}
}

func TestTokenRequired(t *testing.T) {
	s := newTestServer(t)
	if code, _ := s.do("GET", "/api/v1/sessions", nil); code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", code)
	}
	s.token = "garbage"
	if code, _ := s.do("GET", "/api/v1/sessions", nil); code != http.StatusUnauthorized {
		t.Errorf("bad token = %d, want 401", code)
	}
	s.token = ""
	if code, _ := s.do("POST", "/api/v1/auth/token", map[string]string{"key": "wrong"}); code != http.StatusUnauthorized {
		t.Errorf("wrong key = %d, want 401", code)
	}
	s.login()
	if code, _ := s.do("GET", "/api/v1/sessions", nil); code != http.StatusOK {
		t.Errorf("with token = %d, want 200", code)
	}
}

func TestElementCommandsAndProps(t *testing.T) {
	s := newTestServer(t)
	s.login()
	id := s.createSession()
	base := "/api/v1/sessions/" + id

	if code, body := s.do("POST", base+"/elements/LeftFlipper/RotateToEnd", nil); code != http.StatusOK {
		t.Errorf("RotateToEnd = %d %v", code, body)
	}
	if code, _ := s.do("POST", base+"/elements/Nobody/RotateToEnd", nil); code != http.StatusNotFound {
		t.Errorf("unknown element = %d, want 404", code)
	}
	if code, _ := s.do("POST", base+"/elements/LeftFlipper/Jump", nil); code != http.StatusNotFound {
		t.Errorf("unknown command = %d, want 404", code)
	}

	if code, body := s.do("PUT", base+"/elements/LeftFlipper/props", map[string]any{"Mass": 5000}); code != http.StatusOK {
		t.Errorf("set Mass = %d %v", code, body)
	}
	code, body := s.do("GET", base+"/elements/LeftFlipper", nil)
	if code != http.StatusOK {
		t.Fatalf("get element = %d %v", code, body)
	}
	props := body["props"].(map[string]any)
	if props["Mass"] != 1000.0 {
		t.Errorf("Mass = %v, want clamped 1000", props["Mass"])
	}
	if code, _ := s.do("PUT", base+"/elements/LeftFlipper/props", map[string]any{"CurrentAngle": 3}); code != http.StatusUnprocessableEntity {
		t.Errorf("read-only prop = %d, want 422", code)
	}

	code, body = s.do("GET", base+"/elements", nil)
	if code != http.StatusOK || len(body["elements"].([]any)) != 1 {
		t.Errorf("elements = %d %v", code, body)
	}
}

func TestBallLifecycle(t *testing.T) {
	s := newTestServer(t)
	s.login()
	base := "/api/v1/sessions/" + s.createSession()

	code, body := s.do("POST", base+"/balls", map[string]any{"pos": map[string]float64{"x": 500, "y": 1000, "z": 25}})
	if code != http.StatusCreated {
		t.Fatalf("create ball = %d %v", code, body)
	}
	if body["id"] != 1.0 || body["radius"] != 25.0 {
		t.Errorf("ball = %v", body)
	}
	if code, _ := s.do("POST", base+"/balls", map[string]any{}); code != http.StatusBadRequest {
		t.Errorf("ball without pos = %d, want 400", code)
	}
	if code, _ := s.do("PUT", base+"/balls/1", map[string]any{"vel": map[string]float64{"x": 1}}); code != http.StatusOK {
		t.Errorf("update ball = %d", code)
	}
	if code, _ := s.do("PUT", base+"/balls/9", map[string]any{"vel": map[string]float64{"x": 1}}); code != http.StatusNotFound {
		t.Errorf("update missing ball = %d, want 404", code)
	}
	if code, _ := s.do("DELETE", base+"/balls/x", nil); code != http.StatusBadRequest {
		t.Errorf("non-numeric ball = %d, want 400", code)
	}
	if code, _ := s.do("DELETE", base+"/balls/1", nil); code != http.StatusOK {
		t.Errorf("delete ball = %d", code)
	}
	code, body = s.do("GET", base+"/balls", nil)
	if code != http.StatusOK || len(body["balls"].([]any)) != 0 {
		t.Errorf("balls = %d %v", code, body)
	}
}

func TestTableParamsAndStates(t *testing.T) {
	s := newTestServer(t)
	s.login()
	base := "/api/v1/sessions/" + s.createSession()

	if code, _ := s.do("PUT", base+"/table", map[string]float64{"Friction": 5}); code != http.StatusOK {
		t.Errorf("set table = %d", code)
	}
	code, body := s.do("GET", base+"/table", nil)
	if code != http.StatusOK || body["Friction"] != 1.0 {
		t.Errorf("table = %d %v", code, body)
	}
	if code, _ := s.do("PUT", base+"/table", map[string]float64{"OverridePhysics": 99}); code != http.StatusUnprocessableEntity {
		t.Errorf("bad preset = %d, want 422", code)
	}
	if code, _ := s.do("PUT", base+"/table", map[string]float64{"Wind": 1}); code != http.StatusNotFound {
		t.Errorf("unknown param = %d, want 404", code)
	}

	code, body = s.do("GET", base+"/states", nil)
	if code != http.StatusOK {
		t.Fatalf("states = %d %v", code, body)
	}
	if _, ok := body["states"].(map[string]any); !ok {
		t.Errorf("states = %v", body)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)
	s.login()
	id := s.createSession()
	base := "/api/v1/sessions/" + id

	if code, body := s.do("POST", base+"/pause", nil); code != http.StatusOK || body["status"] != "PAUSED" {
		t.Errorf("pause = %d %v", code, body)
	}
	code, body := s.do("GET", base, nil)
	if code != http.StatusOK || body["session"].(map[string]any)["status"] != "PAUSED" {
		t.Errorf("get = %d %v", code, body)
	}
	if code, _ := s.do("POST", base+"/resume", nil); code != http.StatusOK {
		t.Errorf("resume = %d", code)
	}
	if code, _ := s.do("GET", base+"/values/HighScore", nil); code != http.StatusNotImplemented {
		t.Errorf("values without store = %d, want 501", code)
	}
	if code, _ := s.do("GET", "/api/v1/sessions/history", nil); code != http.StatusNotImplemented {
		t.Errorf("history without store = %d, want 501", code)
	}
	if code, _ := s.do("DELETE", base, nil); code != http.StatusOK {
		t.Errorf("delete = %d", code)
	}
	if code, _ := s.do("GET", base, nil); code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", code)
	}
	if code, _ := s.do("GET", base+"/ws", nil); code != http.StatusNotFound {
		t.Errorf("ws after delete = %d, want 404", code)
	}
}

func TestCreateSessionRejectsBadTable(t *testing.T) {
	s := newTestServer(t)
	s.login()
	code, _ := s.do("POST", "/api/v1/sessions", map[string]any{"table": map[string]any{"name": ""}})
	if code != http.StatusBadRequest {
		t.Errorf("create = %d, want 400", code)
	}
}
