// Package session holds the customer's identifier bundle in a browser cookie:
// which table, which order, who is ordering. The server never persists it;
// expiry is evaluated whenever the bundle is read.
package session

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	CookieName = "dine_session"
	TTL        = 4 * time.Hour
)

type Session struct {
	TableID      int64  `json:"table_id"`
	TableNumber  int64  `json:"table_number"`
	CustomerID   string `json:"customer_id"`
	OrderID      string `json:"order_id"`
	CustomerName string `json:"customer_name"`
	CreatedAt    int64  `json:"created_at"` // unix seconds
}

func (s Session) age() time.Duration {
	return time.Since(time.Unix(s.CreatedAt, 0))
}

// Establish persists the bundle with a fresh timestamp.
func Establish(c *fiber.Ctx, s Session) {
	s.CreatedAt = time.Now().Unix()
	write(c, s)
}

// Read returns the session if present and younger than TTL. Corrupt or
// expired payloads are cleared and reported as absent, never as errors.
func Read(c *fiber.Ctx) (Session, bool) {
	raw := c.Cookies(CookieName)
	if raw == "" {
		return Session{}, false
	}
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		Clear(c)
		return Session{}, false
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		Clear(c)
		return Session{}, false
	}
	if s.CreatedAt == 0 || s.age() > TTL {
		Clear(c)
		return Session{}, false
	}
	return s, true
}

// Update merges fields via fn and refreshes the timestamp.
func Update(c *fiber.Ctx, fn func(*Session)) bool {
	s, ok := Read(c)
	if !ok {
		return false
	}
	fn(&s)
	s.CreatedAt = time.Now().Unix()
	write(c, s)
	return true
}

func Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}

func write(c *fiber.Ctx, s Session) {
	data, _ := json.Marshal(s)
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(TTL),
	})
}
