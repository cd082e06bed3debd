package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	html "github.com/gofiber/template/html/v2"

	"mesero/internal/config"
	"mesero/internal/events"
	"mesero/internal/http/handlers"
	"mesero/internal/repos"
	"mesero/internal/services"
	"mesero/internal/session"
)

func testConfig() config.Config {
	return config.Config{
		Port: "0", BaseURL: "http://mesero.test",
		TaxRate: 0.08, StaffPassphrase: "mesero2024",
	}
}

// newApp builds the customer-facing slice of the real route table on a seeded
// in-memory database.
func newApp(t *testing.T) (*fiber.App, *events.MemoryBus) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	bus := events.NewMemoryBus()
	authSvc := &services.AuthService{Users: repos.NewUserRepo(db)}
	deps := handlers.NewDeps(db, testConfig(), authSvc, bus)

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Use(csrf.New(csrf.Config{KeyLookup: "form:csrf", CookieName: "csrf_", CookieSameSite: "Lax"}))

	app.Get("/", deps.EntryHandler.Home)
	app.Post("/session", deps.EntryHandler.Start)
	app.Get("/leave", deps.EntryHandler.Leave)
	app.Get("/menu", deps.MenuHandler.Menu)
	app.Get("/menu/search", deps.MenuHandler.Search)
	app.Get("/product/:id", deps.MenuHandler.Detail)
	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart", deps.CartHandler.Add)
	app.Post("/cart/update", deps.CartHandler.Update)
	app.Post("/cart/send", deps.CartHandler.Send)
	app.Get("/orders", deps.OrderHandler.History)
	app.Post("/bill", deps.OrderHandler.RequestBill)
	app.Get("/qr", deps.QRHandler.Share)
	return app, bus
}

func cookieOf(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func postForm(t *testing.T, app *fiber.App, path string, form url.Values, cookies map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range cookies {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func getWith(t *testing.T, app *fiber.App, path string, cookies map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	for k, v := range cookies {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestScanTableToKitchenFlow(t *testing.T) {
	app, _ := newApp(t)

	// Scan the QR link for seeded table 5.
	respEntry := getWith(t, app, "/?table=5", nil)
	if respEntry.StatusCode != 200 {
		t.Fatalf("entry screen: %d", respEntry.StatusCode)
	}
	csrfTok := cookieOf(respEntry, "csrf_")
	if csrfTok == "" {
		t.Fatal("csrf cookie missing")
	}

	// Sit down.
	respStart := postForm(t, app, "/session",
		url.Values{"csrf": {csrfTok}, "table": {"5"}, "name": {"Ana"}},
		map[string]string{"csrf_": csrfTok})
	if respStart.StatusCode != http.StatusFound {
		t.Fatalf("start session: %d", respStart.StatusCode)
	}
	sess := cookieOf(respStart, session.CookieName)
	if sess == "" {
		t.Fatal("no customer session cookie")
	}
	jar := map[string]string{session.CookieName: sess, "csrf_": csrfTok}

	// Menu renders with the seeded catalog.
	respMenu := getWith(t, app, "/menu", jar)
	body, _ := io.ReadAll(respMenu.Body)
	if respMenu.StatusCode != 200 || !strings.Contains(string(body), "Chicken Bowl") {
		t.Fatalf("menu should list the catalog: %d", respMenu.StatusCode)
	}

	// Two bowls into the cart.
	respAdd := postForm(t, app, "/cart",
		url.Values{"csrf": {csrfTok}, "productId": {"prod-chicken-bowl"}, "qty": {"2"}}, jar)
	if respAdd.StatusCode != http.StatusFound {
		t.Fatalf("add to cart: %d", respAdd.StatusCode)
	}
	respCart := getWith(t, app, "/cart", jar)
	body, _ = io.ReadAll(respCart.Body)
	if !strings.Contains(string(body), "Chicken Bowl") {
		t.Fatal("cart should show the added line")
	}

	// Send to the kitchen, then review the running tab with tax.
	respSend := postForm(t, app, "/cart/send", url.Values{"csrf": {csrfTok}}, jar)
	if respSend.StatusCode != http.StatusFound {
		t.Fatalf("send: %d", respSend.StatusCode)
	}
	respOrders := getWith(t, app, "/orders", jar)
	body, _ = io.ReadAll(respOrders.Body)
	if !strings.Contains(string(body), "25.98") || !strings.Contains(string(body), "28.06") {
		t.Fatalf("tab should show subtotal 25.98 and total 28.06 at 8%% tax")
	}
}

func TestEntryRedirectsWhenSessionExists(t *testing.T) {
	app, _ := newApp(t)

	respEntry := getWith(t, app, "/?table=5", nil)
	csrfTok := cookieOf(respEntry, "csrf_")
	respStart := postForm(t, app, "/session",
		url.Values{"csrf": {csrfTok}, "table": {"5"}, "name": {"Ana"}},
		map[string]string{"csrf_": csrfTok})
	sess := cookieOf(respStart, session.CookieName)

	resp := getWith(t, app, "/", map[string]string{session.CookieName: sess})
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/menu" {
		t.Fatalf("seated customers go straight to the menu, got %d -> %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestGuardedPagesRedirectWithoutSession(t *testing.T) {
	app, _ := newApp(t)

	for _, path := range []string{"/menu", "/cart", "/orders", "/qr"} {
		resp := getWith(t, app, path, nil)
		if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/" {
			t.Fatalf("%s without a session should bounce to the entry screen, got %d", path, resp.StatusCode)
		}
	}
}

func TestInvalidTableLink(t *testing.T) {
	app, _ := newApp(t)

	resp := getWith(t, app, "/?table=abc", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("non-numeric table link: want 400, got %d", resp.StatusCode)
	}
	resp = getWith(t, app, "/?table=9998", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown table: want 404, got %d", resp.StatusCode)
	}
}

func TestLeaveClearsSession(t *testing.T) {
	app, _ := newApp(t)

	respEntry := getWith(t, app, "/?table=5", nil)
	csrfTok := cookieOf(respEntry, "csrf_")
	respStart := postForm(t, app, "/session",
		url.Values{"csrf": {csrfTok}, "table": {"5"}, "name": {"Ana"}},
		map[string]string{"csrf_": csrfTok})
	sess := cookieOf(respStart, session.CookieName)

	respLeave := getWith(t, app, "/leave", map[string]string{session.CookieName: sess})
	if respLeave.StatusCode != http.StatusFound {
		t.Fatalf("leave: %d", respLeave.StatusCode)
	}
	for _, c := range respLeave.Cookies() {
		if c.Name == session.CookieName && c.Value == "" {
			return
		}
	}
	t.Fatal("leave should clear the session cookie")
}
