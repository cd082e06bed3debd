package handlers

import (
	"mesero/internal/session"

	"github.com/gofiber/fiber/v2"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	// Inject staff user if present
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	// Inject the customer session so every page knows its table
	if s, ok := session.Read(c); ok {
		data["Session"] = s
	}
	// Pick up the token the CSRF middleware put into Locals
	if tok, _ := c.Locals("CSRFToken").(string); tok != "" {
		data["CSRFToken"] = tok
	} else if cookTok := c.Cookies("csrf_"); cookTok != "" {
		data["CSRFToken"] = cookTok
	}
	return c.Render(tmpl, data)
}
