package context

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestRequestID(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "unknown" {
		t.Errorf("got %q", got)
	}
	if got := GetRequestID(WithRequestID(context.Background(), "abc")); got != "abc" {
		t.Errorf("got %q", got)
	}
}

func TestUserID(t *testing.T) {
	if got := GetUserID(context.Background()); got != "" {
		t.Errorf("got %q", got)
	}
	if got := GetUserID(WithUserID(context.Background(), "u1")); got != "u1" {
		t.Errorf("got %q", got)
	}
}

func TestFromFiberCtx(t *testing.T) {
	app := fiber.New()
	app.Get("/locals", func(c *fiber.Ctx) error {
		c.Locals("X-Request-ID", "from-locals")
		return c.SendString(GetRequestID(FromFiberCtx(c)))
	})
	app.Get("/header", func(c *fiber.Ctx) error {
		return c.SendString(GetRequestID(FromFiberCtx(c)))
	})

	tests := []struct {
		path   string
		header string
		want   string
	}{
		{"/locals", "", "from-locals"},
		{"/header", "from-header", "from-header"},
		{"/header", "", "unknown"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest("GET", tt.path, nil)
		if tt.header != "" {
			req.Header.Set("X-Request-ID", tt.header)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		if string(body) != tt.want {
			t.Errorf("%s: got %q, want %q", tt.path, body, tt.want)
		}
	}
}
