package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	html "github.com/gofiber/template/html/v2"
	"golang.org/x/crypto/bcrypt"

	"mesero/internal/events"
	"mesero/internal/http/handlers"
	"mesero/internal/repos"
	"mesero/internal/services"
)

func newStaffApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	bus := events.NewMemoryBus()
	authSvc := &services.AuthService{Users: repos.NewUserRepo(db)}
	authH := &handlers.AuthHandler{Auth: authSvc}
	deps := handlers.NewDeps(db, testConfig(), authSvc, bus)

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Use(csrf.New(csrf.Config{KeyLookup: "form:csrf", CookieName: "csrf_", CookieSameSite: "Lax"}))

	app.Get("/login", authH.LoginForm)
	app.Post("/login", authH.Login)
	app.Post("/logout", authH.Logout)

	staff := app.Group("/staff", handlers.RequireStaff(authSvc))
	staff.Get("/", deps.StaffHandler.Board)
	staff.Get("/tables", deps.StaffHandler.TablesBoard)

	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/", deps.AdminHandler.Dashboard)
	admin.Get("/stats", deps.AdminHandler.StatsPage)
	return app
}

func login(t *testing.T, app *fiber.App, email string) (sid, csrfTok string) {
	t.Helper()
	respForm, err := app.Test(httptest.NewRequest("GET", "/login", nil))
	if err != nil {
		t.Fatal(err)
	}
	csrfTok = cookieOf(respForm, "csrf_")
	if csrfTok == "" {
		t.Fatal("csrf cookie missing")
	}

	form := url.Values{"csrf": {csrfTok}, "email": {email}, "password": {"Passw0rd!"}}
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: csrfTok})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("login as %s: %d", email, resp.StatusCode)
	}
	sid = cookieOf(resp, "sid")
	if sid == "" {
		t.Fatal("no sid cookie after login")
	}
	return sid, csrfTok
}

func TestSeededPasswordsAreHashed(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	var hashes []string
	if err := db.Select(&hashes, `SELECT password_hash FROM users`); err != nil {
		t.Fatal(err)
	}
	if len(hashes) != 3 {
		t.Fatalf("want 3 seeded staff users, got %d", len(hashes))
	}
	for _, h := range hashes {
		if !strings.HasPrefix(h, "$2") {
			t.Fatalf("unexpected hash format: %s", h)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(h), []byte("Passw0rd!")); err != nil {
			t.Fatalf("seed hash does not validate known password: %v", err)
		}
	}
}

func TestStaffPagesRequireLogin(t *testing.T) {
	app := newStaffApp(t)

	for _, path := range []string{"/staff", "/staff/tables"} {
		resp := getWith(t, app, path, nil)
		if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login" {
			t.Fatalf("%s should bounce anonymous visitors to login, got %d", path, resp.StatusCode)
		}
	}
}

func TestWaiterSeesBoardButNotAdmin(t *testing.T) {
	app := newStaffApp(t)
	sid, _ := login(t, app, "rosa@mesero.test")

	resp := getWith(t, app, "/staff", map[string]string{"sid": sid})
	if resp.StatusCode != 200 {
		t.Fatalf("waiter board: %d", resp.StatusCode)
	}

	resp = getWith(t, app, "/admin", map[string]string{"sid": sid})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("waiters must not reach admin pages, got %d", resp.StatusCode)
	}
}

func TestAdminReachesDashboardAndStats(t *testing.T) {
	app := newStaffApp(t)
	sid, _ := login(t, app, "admin@mesero.test")

	for _, path := range []string{"/admin", "/admin/stats", "/staff"} {
		resp := getWith(t, app, path, map[string]string{"sid": sid})
		if resp.StatusCode != 200 {
			t.Fatalf("%s as admin: %d", path, resp.StatusCode)
		}
	}
}

func TestBadCredentialsRejected(t *testing.T) {
	app := newStaffApp(t)

	respForm, _ := app.Test(httptest.NewRequest("GET", "/login", nil))
	csrfTok := cookieOf(respForm, "csrf_")

	form := url.Values{"csrf": {csrfTok}, "email": {"rosa@mesero.test"}, "password": {"Wrong0ne!"}}
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: csrfTok})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401 for bad creds, got %d", resp.StatusCode)
	}
}
