package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rosterapi/roster/internal/service"
	"github.com/rosterapi/roster/internal/storage"
)

type testEnv struct {
	t      *testing.T
	srv    *Server
	ts     *httptest.Server
	client *http.Client
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := storage.New("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	authSvc := service.NewAuthService("test-secret", "admin@school.com", "admin123", 24*time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := DefaultConfig()
	cfg.RateLimitMax = 1000
	srv := New(cfg, store, authSvc, logger)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testEnv{t: t, srv: srv, ts: ts, client: ts.Client()}
}

// login authenticates with the demo credentials and stashes the token for
// subsequent requests.
func (e *testEnv) login() {
	e.t.Helper()
	status, body := e.request(http.MethodPost, "/api/v1/auth/login",
		map[string]any{"email": "admin@school.com", "password": "admin123"})
	if status != http.StatusOK {
		e.t.Fatalf("login: status %d, body %s", status, body)
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		e.t.Fatalf("login: decode: %v", err)
	}
	if resp.Token == "" {
		e.t.Fatal("login: empty token")
	}
	e.token = resp.Token
}

// request sends a JSON request, attaching the bearer token when one is set.
func (e *testEnv) request(method, path string, payload any) (int, []byte) {
	e.t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			e.t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, body)
	if err != nil {
		e.t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		e.t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, raw
}

func (e *testEnv) createStudent(name, email string) int64 {
	e.t.Helper()
	status, body := e.request(http.MethodPost, "/api/v1/students", map[string]any{
		"name": name, "email": email, "age": 16, "grade": "XI",
	})
	if status != http.StatusCreated {
		e.t.Fatalf("create student: status %d, body %s", status, body)
	}
	var resp struct {
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		e.t.Fatalf("create student: decode: %v", err)
	}
	return resp.Data.ID
}

func decodeError(t *testing.T, body []byte) (string, int) {
	t.Helper()
	var envelope struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
		Status  int    `json:"status"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode error envelope: %v (body %s)", err, body)
	}
	if !envelope.Error {
		t.Errorf("error flag not set in %s", body)
	}
	return envelope.Message, envelope.Status
}

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.request(http.MethodPost, "/api/v1/auth/login",
		map[string]any{"email": "admin@school.com", "password": "admin123"})
	if status != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body %s)", status, body)
	}

	var resp struct {
		Success   bool   `json:"success"`
		Token     string `json:"token"`
		ExpiresIn int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Token == "" {
		t.Errorf("unexpected response: %s", body)
	}
	if resp.ExpiresIn != 86400 {
		t.Errorf("expires_in: got %d, want 86400", resp.ExpiresIn)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.request(http.MethodPost, "/api/v1/auth/login",
		map[string]any{"email": "admin@school.com", "password": "wrong"})
	if status != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", status)
	}
	msg, _ := decodeError(t, body)
	if msg != "Invalid credentials" {
		t.Errorf("message: got %q", msg)
	}
}

func TestLoginMissingFields(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.request(http.MethodPost, "/api/v1/auth/login",
		map[string]any{"email": "admin@school.com"})
	if status != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", status)
	}
	msg, _ := decodeError(t, body)
	if msg != "Email and password required" {
		t.Errorf("message: got %q", msg)
	}
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.request(http.MethodGet, "/api/v1/students", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", status)
	}
	msg, code := decodeError(t, body)
	if msg != "Authorization token required" {
		t.Errorf("message: got %q", msg)
	}
	if code != http.StatusUnauthorized {
		t.Errorf("status field: got %d", code)
	}
}

func TestStudentCRUDLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	id := env.createStudent("Ram Sharma", "ram@school.com")

	// Read it back.
	status, body := env.request(http.MethodGet, fmt.Sprintf("/api/v1/students/%d", id), nil)
	if status != http.StatusOK {
		t.Fatalf("get: status %d, body %s", status, body)
	}
	var getResp struct {
		Data struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &getResp); err != nil {
		t.Fatalf("get: decode: %v", err)
	}
	if getResp.Data.Name != "Ram Sharma" || getResp.Data.Email != "ram@school.com" {
		t.Errorf("get: unexpected data %+v", getResp.Data)
	}

	// Full overwrite.
	status, body = env.request(http.MethodPut, fmt.Sprintf("/api/v1/students/%d", id), map[string]any{
		"name": "Ram B. Sharma", "email": "ram.b@school.com", "age": 17, "grade": "XII",
	})
	if status != http.StatusOK {
		t.Fatalf("update: status %d, body %s", status, body)
	}

	// Soft delete.
	status, _ = env.request(http.MethodDelete, fmt.Sprintf("/api/v1/students/%d", id), nil)
	if status != http.StatusOK {
		t.Fatalf("delete: status %d", status)
	}

	// Gone from reads afterward.
	status, body = env.request(http.MethodGet, fmt.Sprintf("/api/v1/students/%d", id), nil)
	if status != http.StatusNotFound {
		t.Fatalf("get after delete: status %d, body %s", status, body)
	}
	msg, _ := decodeError(t, body)
	if msg != "Student not found" {
		t.Errorf("message: got %q", msg)
	}
}

func TestCreateStudentValidation(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	cases := []struct {
		name    string
		payload map[string]any
		message string
	}{
		{
			name:    "missing name",
			payload: map[string]any{"email": "x@school.com", "age": 16, "grade": "XI"},
			message: "Field 'name' is required",
		},
		{
			name:    "missing email",
			payload: map[string]any{"name": "X", "age": 16, "grade": "XI"},
			message: "Field 'email' is required",
		},
		{
			name:    "bad email",
			payload: map[string]any{"name": "X", "email": "not-an-email", "age": 16, "grade": "XI"},
			message: "Invalid email format",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := env.request(http.MethodPost, "/api/v1/students", tc.payload)
			if status != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400 (body %s)", status, body)
			}
			msg, _ := decodeError(t, body)
			if msg != tc.message {
				t.Errorf("message: got %q, want %q", msg, tc.message)
			}
		})
	}
}

func TestCreateStudentDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	id := env.createStudent("Ram Sharma", "ram@school.com")

	status, body := env.request(http.MethodPost, "/api/v1/students", map[string]any{
		"name": "Other Ram", "email": "ram@school.com", "age": 15, "grade": "X",
	})
	if status != http.StatusConflict {
		t.Fatalf("status: got %d, want 409 (body %s)", status, body)
	}
	msg, _ := decodeError(t, body)
	if msg != "Email already exists" {
		t.Errorf("message: got %q", msg)
	}

	// The email stays reserved even after the original row is soft-deleted.
	if status, _ := env.request(http.MethodDelete, fmt.Sprintf("/api/v1/students/%d", id), nil); status != http.StatusOK {
		t.Fatalf("delete: status %d", status)
	}
	status, _ = env.request(http.MethodPost, "/api/v1/students", map[string]any{
		"name": "Other Ram", "email": "ram@school.com", "age": 15, "grade": "X",
	})
	if status != http.StatusConflict {
		t.Errorf("status after delete: got %d, want 409", status)
	}
}

func TestInvalidStudentID(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	status, body := env.request(http.MethodGet, "/api/v1/students/abc", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", status)
	}
	msg, _ := decodeError(t, body)
	if msg != "Invalid student ID" {
		t.Errorf("message: got %q", msg)
	}
}

func TestListStudentsPaginationMetadata(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	for i := 1; i <= 45; i++ {
		env.createStudent(fmt.Sprintf("Student %02d", i), fmt.Sprintf("s%02d@school.com", i))
	}

	status, body := env.request(http.MethodGet, "/api/v1/students?page=1&limit=20", nil)
	if status != http.StatusOK {
		t.Fatalf("status: got %d (body %s)", status, body)
	}

	var resp struct {
		Data       []json.RawMessage `json:"data"`
		Pagination struct {
			CurrentPage int   `json:"current_page"`
			PerPage     int   `json:"per_page"`
			Total       int64 `json:"total"`
			TotalPages  int   `json:"total_pages"`
			HasNext     bool  `json:"has_next"`
			HasPrev     bool  `json:"has_prev"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 20 {
		t.Errorf("page size: got %d, want 20", len(resp.Data))
	}
	p := resp.Pagination
	if p.CurrentPage != 1 || p.PerPage != 20 || p.Total != 45 || p.TotalPages != 3 {
		t.Errorf("pagination: %+v", p)
	}
	if !p.HasNext || p.HasPrev {
		t.Errorf("pagination flags: has_next=%v has_prev=%v", p.HasNext, p.HasPrev)
	}

	// Last page.
	status, body = env.request(http.MethodGet, "/api/v1/students?page=3&limit=20", nil)
	if status != http.StatusOK {
		t.Fatalf("page 3: status %d", status)
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 5 {
		t.Errorf("page 3 size: got %d, want 5", len(resp.Data))
	}
	if resp.Pagination.HasNext || !resp.Pagination.HasPrev {
		t.Errorf("page 3 flags: %+v", resp.Pagination)
	}
}

func TestListStudentsEmpty(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	status, body := env.request(http.MethodGet, "/api/v1/students", nil)
	if status != http.StatusOK {
		t.Fatalf("status: got %d", status)
	}
	var resp struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data == nil {
		t.Error("data must be an empty array, not null")
	}
	if len(resp.Data) != 0 {
		t.Errorf("data: got %d records, want 0", len(resp.Data))
	}
}

func TestUnknownRouteEnvelope(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	status, body := env.request(http.MethodGet, "/api/v1/teachers", nil)
	if status != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", status)
	}
	msg, code := decodeError(t, body)
	if msg != "Endpoint not found" {
		t.Errorf("message: got %q", msg)
	}
	if code != http.StatusNotFound {
		t.Errorf("status field: got %d", code)
	}
}

func TestPlaceholderShadowsLiteral(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	// /students/{id} is registered before any would-be literal sibling, so a
	// non-numeric segment lands in the id handler and fails parsing there.
	status, body := env.request(http.MethodGet, "/api/v1/students/stats", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400 (body %s)", status, body)
	}
	msg, _ := decodeError(t, body)
	if msg != "Invalid student ID" {
		t.Errorf("message: got %q", msg)
	}
}

func TestHealthEndpointAuthenticated(t *testing.T) {
	env := newTestEnv(t)

	// Requires a token like any other API route.
	status, _ := env.request(http.MethodGet, "/api/v1/health", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("without token: status %d, want 401", status)
	}

	env.login()
	status, body := env.request(http.MethodGet, "/api/v1/health", nil)
	if status != http.StatusOK {
		t.Fatalf("status: got %d", status)
	}
	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status field: got %q", resp.Status)
	}
}

func TestProbesUnauthenticated(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/healthz", "/readyz", "/openapi.json"} {
		status, body := env.request(http.MethodGet, path, nil)
		if status != http.StatusOK {
			t.Errorf("%s: status %d, body %s", path, status, body)
		}
	}
}

func TestOpenAPIDocumentShape(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.request(http.MethodGet, "/openapi.json", nil)
	if status != http.StatusOK {
		t.Fatalf("status: got %d", status)
	}
	var doc struct {
		OpenAPI string                     `json:"openapi"`
		Paths   map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.OpenAPI == "" {
		t.Error("missing openapi version field")
	}
	for _, p := range []string{"/auth/login", "/students", "/students/{id}", "/health"} {
		if _, ok := doc.Paths[p]; !ok {
			t.Errorf("missing path %q", p)
		}
	}
}

func TestRateLimitOverHTTP(t *testing.T) {
	store, err := storage.New("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	// A tiny cap keeps the test fast; the window semantics are the same.
	cfg := DefaultConfig()
	cfg.RateLimitMax = 3
	authSvc := service.NewAuthService("test-secret", "admin@school.com", "admin123", time.Hour)
	srv := New(cfg, store, authSvc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	env := &testEnv{t: t, srv: srv, ts: ts, client: ts.Client()}
	env.login()

	// Login consumed one request on the IP key; the token keys its own window.
	for i := 0; i < 3; i++ {
		status, body := env.request(http.MethodGet, "/api/v1/students", nil)
		if status != http.StatusOK {
			t.Fatalf("request %d: status %d, body %s", i+1, status, body)
		}
	}
	status, body := env.request(http.MethodGet, "/api/v1/students", nil)
	if status != http.StatusTooManyRequests {
		t.Fatalf("over limit: status %d, body %s", status, body)
	}
	msg, _ := decodeError(t, body)
	if msg != "Rate limit exceeded" {
		t.Errorf("message: got %q", msg)
	}
}
