package session_test

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"mesero/internal/session"
)

// harness wires Establish and Read behind two routes so the cookie round-trips
// the same way a browser would see it.
func harness() *fiber.App {
	app := fiber.New()
	app.Post("/start", func(c *fiber.Ctx) error {
		session.Establish(c, session.Session{
			TableID: 5, TableNumber: 5, CustomerID: "cust-1", OrderID: "order-1", CustomerName: "Ana",
		})
		return c.SendStatus(204)
	})
	app.Get("/whoami", func(c *fiber.Ctx) error {
		s, ok := session.Read(c)
		if !ok {
			return c.SendStatus(401)
		}
		return c.JSON(s)
	})
	return app
}

func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func TestSessionRoundTrip(t *testing.T) {
	app := harness()

	resp, err := app.Test(httptest.NewRequest("POST", "/start", nil))
	if err != nil {
		t.Fatal(err)
	}
	val := cookieValue(resp, session.CookieName)
	if val == "" {
		t.Fatal("no session cookie set")
	}

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: val})
	resp2, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp2.StatusCode != 200 {
		t.Fatalf("fresh session should be readable, got %d", resp2.StatusCode)
	}
}

func TestExpiredSessionIsAbsentAndCleared(t *testing.T) {
	app := harness()

	stale := session.Session{
		TableID: 5, TableNumber: 5, CustomerID: "cust-1", OrderID: "order-1",
		CreatedAt: time.Now().Add(-5 * time.Hour).Unix(),
	}
	data, _ := json.Marshal(stale)
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: base64.RawURLEncoding.EncodeToString(data)})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("a session older than the TTL must be absent, got %d", resp.StatusCode)
	}
	// The clearing cookie is an expired empty value.
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			if c.Value != "" || c.Expires.After(time.Now()) {
				t.Fatalf("expired session should be cleared, got %+v", c)
			}
			return
		}
	}
	t.Fatal("expected a clearing cookie")
}

func TestCorruptSessionIsAbsent(t *testing.T) {
	app := harness()

	for _, val := range []string{"%%%not-base64%%%", base64.RawURLEncoding.EncodeToString([]byte("{broken"))} {
		req := httptest.NewRequest("GET", "/whoami", nil)
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: val})
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != 401 {
			t.Fatalf("corrupt payload %q should be absent, got %d", val, resp.StatusCode)
		}
	}
}

func TestZeroTimestampIsAbsent(t *testing.T) {
	app := harness()

	data, _ := json.Marshal(session.Session{TableID: 5, OrderID: "order-1"})
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: base64.RawURLEncoding.EncodeToString(data)})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("a bundle without a timestamp is never valid, got %d", resp.StatusCode)
	}
}
