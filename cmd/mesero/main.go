package main

import (
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"mesero/internal/config"
	"mesero/internal/events"
	"mesero/internal/http/handlers"
	applog "mesero/internal/log"
	"mesero/internal/repos"
	"mesero/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// Change-feed bus: NATS when configured, in-process otherwise
	var bus events.Bus
	if cfg.NATSURL != "" {
		nb, err := events.NewNATSBus(cfg.NATSURL)
		if err != nil {
			log.Fatal(err)
		}
		defer nb.Close()
		bus = nb
		log.Printf("[events] using NATS at %s", cfg.NATSURL)
	} else {
		bus = events.NewMemoryBus()
		log.Printf("[events] using in-process bus")
	}

	// Staff auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	// Templates & app
	engine := html.New("./web/templates", ".html")
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			// Avoid leaking internals; best-effort render
			if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	// Attach staff user to context if logged in (for templates/headers)
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	})
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/events") || strings.HasPrefix(p, "/staff/events")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		Next: func(c *fiber.Ctx) bool {
			// SSE streams are GET-only and long-lived
			return strings.HasPrefix(c.Path(), "/events") || strings.HasPrefix(c.Path(), "/staff/events")
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"form": c.FormValue("csrf")})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	app.Static("/static", "./web/static")

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, authSvc, bus)

	// Customer flow
	app.Get("/", deps.EntryHandler.Home)
	app.Post("/session", limiter.New(limiter.Config{Max: 10, Expiration: time.Minute}), deps.EntryHandler.Start)
	app.Get("/leave", deps.EntryHandler.Leave)
	app.Get("/menu", deps.MenuHandler.Menu)
	app.Get("/menu/search", limiter.New(limiter.Config{Max: 20, Expiration: time.Minute}), deps.MenuHandler.Search)
	app.Get("/product/:id", deps.MenuHandler.Detail)

	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart", deps.CartHandler.Add)
	app.Post("/cart/update", deps.CartHandler.Update)
	app.Post("/cart/remove", deps.CartHandler.Remove)
	app.Post("/cart/send", deps.CartHandler.Send)

	app.Get("/orders", deps.OrderHandler.History)
	app.Post("/bill", deps.OrderHandler.RequestBill)
	app.Get("/payment", deps.OrderHandler.PaymentPage)
	app.Post("/payment/confirm", deps.OrderHandler.ConfirmPayment)
	app.Post("/assist", deps.OrderHandler.Assist)
	app.Get("/qr", deps.QRHandler.Share)

	// Realtime feeds
	app.Get("/events", deps.EventsHandler.Customer)

	// Staff auth (login throttled)
	app.Get("/login", authH.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), authH.Login)
	app.Post("/logout", authH.Logout)

	// Waitstaff
	staff := app.Group("/staff", handlers.RequireStaff(authSvc))
	staff.Get("/", deps.StaffHandler.Board)
	staff.Get("/events", deps.EventsHandler.Staff)
	staff.Post("/notifications/:id/ack", deps.StaffHandler.Acknowledge)
	staff.Post("/notifications/:id/complete", deps.StaffHandler.Complete)
	staff.Get("/tables", deps.StaffHandler.TablesBoard)
	staff.Post("/items/:id/status", deps.StaffHandler.AdvanceItem)
	staff.Post("/items/:id/cancel", deps.StaffHandler.CancelItem)
	staff.Post("/tables/:id/charge", deps.StaffHandler.ChargeTable)
	staff.Post("/tables/:id/status", deps.StaffHandler.SetTableStatus)

	// Admin
	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/", deps.AdminHandler.Dashboard)
	admin.Get("/products", deps.AdminHandler.Products)
	admin.Post("/products", deps.AdminHandler.CreateProduct)
	admin.Post("/products/:id", deps.AdminHandler.UpdateProduct)
	admin.Post("/products/:id/availability", deps.AdminHandler.ToggleAvailability)
	admin.Post("/products/:id/delete", deps.AdminHandler.DeleteProduct)
	admin.Get("/tables", deps.AdminHandler.TablesPage)
	admin.Post("/tables", deps.AdminHandler.CreateTable)
	admin.Post("/tables/:id", deps.AdminHandler.UpdateTable)
	admin.Post("/tables/:id/delete", deps.AdminHandler.DeleteTable)
	admin.Get("/stats", deps.AdminHandler.StatsPage)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
