package handlers

import (
	"fmt"
	"net/url"

	"mesero/internal/config"
	"mesero/internal/session"

	"github.com/gofiber/fiber/v2"
)

// QRHandler renders the share screen. QR encoding is delegated to a public
// image endpoint; no local QR logic exists.
type QRHandler struct {
	Cfg config.Config
}

const qrEndpoint = "https://quickchart.io/qr"

// QRImageURL builds the third-party image URL for a table link, optionally
// stamping a center logo.
func QRImageURL(baseURL string, tableNumber int64, logoURL string) string {
	target := fmt.Sprintf("%s/?table=%d", baseURL, tableNumber)
	q := url.Values{}
	q.Set("text", target)
	q.Set("size", "300")
	if logoURL != "" {
		q.Set("centerImageUrl", logoURL)
	}
	return qrEndpoint + "?" + q.Encode()
}

// GET /qr
func (h *QRHandler) Share(c *fiber.Ctx) error {
	sess, ok := session.Read(c)
	if !ok {
		return c.Redirect("/")
	}
	link := fmt.Sprintf("%s/?table=%d", h.Cfg.BaseURL, sess.TableNumber)
	return render(c, "qr", fiber.Map{
		"Link":  link,
		"Image": QRImageURL(h.Cfg.BaseURL, sess.TableNumber, ""),
	})
}
