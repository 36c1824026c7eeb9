package middleware

import (
	jwtPkg "PanicButton/pkg/jwt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func newTestMiddleware(t *testing.T) (Middleware, jwtPkg.IJWT) {
	t.Helper()
	j, err := jwtPkg.New("test-secret")
	if err != nil {
		t.Fatal(err)
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return New(l, j), j
}

func signed(t *testing.T, j jwtPkg.IJWT, claims map[string]interface{}) string {
	t.Helper()
	token, _, err := j.Sign(claims, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func whoami(c *fiber.Ctx) error {
	user, err := jwtPkg.GetUserLoginData(c)
	if err != nil {
		return c.SendString("anonymous")
	}
	return c.SendString(user.ID)
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestTokenMiddleware(t *testing.T) {
	m, j := newTestMiddleware(t)
	app := fiber.New()
	app.Get("/me", m.NewTokenMiddleware, whoami)

	valid := signed(t, j, map[string]interface{}{"id": "u1", "email": "a@example.com"})
	noEmail := signed(t, j, map[string]interface{}{"id": "u1"})

	tests := []struct {
		name     string
		header   string
		query    string
		wantCode int
		wantBody string
	}{
		{"valid header", "Bearer " + valid, "", http.StatusOK, "u1"},
		{"valid query", "", "?token=" + valid, http.StatusOK, "u1"},
		{"missing", "", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", "Basic " + valid, "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"garbage", "Bearer nope", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"missing claim", "Bearer " + noEmail, "", http.StatusUnauthorized, "UNAUTHORIZED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			code, body := do(t, app, req)
			if code != tt.wantCode || !strings.Contains(body, tt.wantBody) {
				t.Errorf("got %d %s", code, body)
			}
		})
	}
}

func TestOptionalTokenMiddleware(t *testing.T) {
	m, j := newTestMiddleware(t)
	app := fiber.New()
	app.Get("/analyze", m.NewOptionalTokenMiddleware, whoami)

	valid := signed(t, j, map[string]interface{}{"id": "u1", "email": "a@example.com"})

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"anonymous", "", "anonymous"},
		{"valid", "Bearer " + valid, "u1"},
		{"invalid degrades", "Bearer broken", "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/analyze", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			code, body := do(t, app, req)
			if code != http.StatusOK || body != tt.want {
				t.Errorf("got %d %s", code, body)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	m, _ := newTestMiddleware(t)
	app := fiber.New()
	app.Use(m.NewRequestIDMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(m.GetRequestID(c))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 26 || resp.Header.Get(RequestIDKey) != string(body) {
		t.Errorf("expected a generated ULID, got %q", body)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDKey, "client-id")
	if _, body := do(t, app, req); body != "client-id" {
		t.Errorf("client id not propagated: %q", body)
	}
}

func TestRateLimiter(t *testing.T) {
	m, _ := newTestMiddleware(t)
	m.(*middleware).rateLimitter = newRateLimiter(0, 2)

	app := fiber.New()
	app.Get("/", m.NewRateLimiter, func(c *fiber.Ctx) error { return c.SendString("ok") })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		code, _ := do(t, app, httptest.NewRequest("GET", "/", nil))
		codes = append(codes, code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("unexpected codes %v", codes)
	}
}

func TestSanitizeRequestBody(t *testing.T) {
	got := sanitizeRequestBody([]byte(`{"email":"a@example.com","password":"hunter2","transcript":"he is here"}`))

	if strings.Contains(got, "hunter2") || strings.Contains(got, "he is here") {
		t.Errorf("sensitive data leaked: %s", got)
	}
	if !strings.Contains(got, "a@example.com") || !strings.Contains(got, "[REDACTED") {
		t.Errorf("unexpected sanitized body: %s", got)
	}
	if sanitizeRequestBody([]byte("not json")) != "[non-JSON body]" {
		t.Error("expected non-JSON marker")
	}
}
