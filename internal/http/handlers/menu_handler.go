package handlers

import (
	"strings"

	applog "mesero/internal/log"
	"mesero/internal/services"
	"mesero/internal/session"
	"mesero/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type MenuHandler struct {
	Catalog *services.CatalogService
	Order   *services.OrderService
}

// GET /menu
func (h *MenuHandler) Menu(c *fiber.Ctx) error {
	sess, ok := session.Read(c)
	if !ok {
		return c.Redirect("/")
	}

	sections, err := h.Catalog.Menu()
	if err != nil {
		applog.Error(c, "menu.load.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load the menu"})
	}

	_, items, err := h.Order.Refresh(sess.OrderID)
	if err != nil {
		applog.Error(c, "menu.cart.fail", err, map[string]any{"order_id": sess.OrderID})
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your order"})
	}

	return render(c, "menu", fiber.Map{
		"Sections":  sections,
		"CartCount": services.ItemCount(items),
	})
}

// GET /menu/search?q=
func (h *MenuHandler) Search(c *fiber.Ctx) error {
	if _, ok := session.Read(c); !ok {
		return c.Redirect("/")
	}
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	if q == "" {
		return c.Redirect("/menu")
	}
	if len(q) > 50 {
		q = q[:50]
	}
	products, err := h.Catalog.Search(q)
	if err != nil {
		applog.Error(c, "menu.search.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load results"})
	}
	return render(c, "menu_search", fiber.Map{"Q": q, "Products": products, "Count": len(products)})
}

// GET /product/:id
func (h *MenuHandler) Detail(c *fiber.Ctx) error {
	if _, ok := session.Read(c); !ok {
		return c.Redirect("/")
	}
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product"})
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "This dish is no longer on the menu"})
	}
	p, err := h.Catalog.Get(id)
	if err != nil || !p.Available {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "This dish is no longer on the menu"})
	}
	return render(c, "product", fiber.Map{"P": p, "Extras": productExtras(p)})
}
