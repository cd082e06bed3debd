package handlers

import (
	"strconv"

	"mesero/internal/domain"
	applog "mesero/internal/log"
	"mesero/internal/services"
	"mesero/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Catalog *services.CatalogService
	Tables  *services.TableService
	Stats   *services.StatsService
}

// GET /admin — dashboard with today's sales.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	report, err := h.Stats.Daily(c.Query("day"))
	if err != nil {
		applog.Error(c, "admin.stats.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load statistics"})
	}
	return render(c, "admin_dashboard", fiber.Map{"Report": report})
}

// GET /admin/products
func (h *AdminHandler) Products(c *fiber.Ctx) error {
	prods, err := h.Catalog.ListAll()
	if err != nil {
		applog.Error(c, "admin.products.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load products"})
	}
	return render(c, "admin_products", fiber.Map{"Products": prods, "Categories": domain.Categories})
}

func (h *AdminHandler) productFromForm(c *fiber.Ctx) (domain.Product, bool) {
	name := c.FormValue("name")
	if name == "" || len(name) > 80 {
		return domain.Product{}, false
	}
	price, okP := validate.Price(c.FormValue("price"))
	category, okC := validate.Category(c.FormValue("category"))
	if !okP || !okC {
		return domain.Product{}, false
	}
	prep, _ := strconv.Atoi(c.FormValue("prep_minutes"))
	rating, _ := strconv.ParseFloat(c.FormValue("rating"), 64)
	extras := c.FormValue("extras")
	if extras == "" {
		extras = "[]"
	}
	return domain.Product{
		Name:        name,
		Description: c.FormValue("description"),
		Price:       price,
		Category:    category,
		ImageURL:    c.FormValue("image_url"),
		Available:   c.FormValue("available") != "0",
		PrepMinutes: prep,
		Rating:      rating,
		Favorite:    c.FormValue("favorite") == "1",
		ExtrasJSON:  extras,
	}, true
}

// POST /admin/products
func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	p, ok := h.productFromForm(c)
	if !ok {
		return c.Status(400).SendString("invalid input")
	}
	created, err := h.Catalog.Create(p)
	if err != nil {
		applog.Error(c, "admin.products.create.fail", err, map[string]any{"name": p.Name})
		return c.Status(400).SendString("could not create product")
	}
	applog.Audit(c, "admin.products.create", map[string]any{"product": created.ID})
	return c.Redirect("/admin/products")
}

// POST /admin/products/:id
func (h *AdminHandler) UpdateProduct(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	p, ok := h.productFromForm(c)
	if !okID || !ok {
		return c.Status(400).SendString("invalid input")
	}
	p.ID = id
	if err := h.Catalog.Update(p); err != nil {
		applog.Error(c, "admin.products.update.fail", err, map[string]any{"product": id})
		return c.Status(400).SendString("could not update product")
	}
	applog.Audit(c, "admin.products.update", map[string]any{"product": id})
	return c.Redirect("/admin/products")
}

// POST /admin/products/:id/availability — single-field toggle.
func (h *AdminHandler) ToggleAvailability(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return c.Status(400).SendString("missing id")
	}
	available := c.FormValue("available") == "1"
	if err := h.Catalog.SetAvailability(id, available); err != nil {
		applog.Error(c, "admin.products.availability.fail", err, map[string]any{"product": id})
		return c.Status(400).SendString("could not update availability")
	}
	applog.Audit(c, "admin.products.availability", map[string]any{"product": id, "available": available})
	return c.Redirect("/admin/products")
}

// POST /admin/products/:id/delete
func (h *AdminHandler) DeleteProduct(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return c.Status(400).SendString("missing id")
	}
	if err := h.Catalog.Delete(id); err != nil {
		applog.Error(c, "admin.products.delete.fail", err, map[string]any{"product": id})
		return c.Status(400).SendString("could not delete product")
	}
	applog.Audit(c, "admin.products.delete", map[string]any{"product": id})
	return c.Redirect("/admin/products")
}

// GET /admin/tables
func (h *AdminHandler) TablesPage(c *fiber.Ctx) error {
	tables, err := h.Tables.List()
	if err != nil {
		applog.Error(c, "admin.tables.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load tables"})
	}
	return render(c, "admin_tables", fiber.Map{"Tables": tables})
}

// POST /admin/tables — two-step creation: the display number is assigned
// from the generated id.
func (h *AdminHandler) CreateTable(c *fiber.Ctx) error {
	capacity, _ := strconv.Atoi(c.FormValue("capacity"))
	t, err := h.Tables.Create(capacity, c.FormValue("branch"))
	if err != nil {
		applog.Error(c, "admin.tables.create.fail", err, nil)
		return c.Status(400).SendString("could not create table")
	}
	applog.Audit(c, "admin.tables.create", map[string]any{"table": t.ID, "number": t.Number})
	return c.Redirect("/admin/tables")
}

// POST /admin/tables/:id
func (h *AdminHandler) UpdateTable(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(400).SendString("invalid table")
	}
	capacity, err := strconv.Atoi(c.FormValue("capacity"))
	if err != nil || capacity < 1 {
		return c.Status(400).SendString("invalid capacity")
	}
	if err := h.Tables.Update(id, capacity, c.FormValue("branch")); err != nil {
		applog.Error(c, "admin.tables.update.fail", err, map[string]any{"table": id})
		return c.Status(400).SendString("could not update table")
	}
	applog.Audit(c, "admin.tables.update", map[string]any{"table": id})
	return c.Redirect("/admin/tables")
}

// POST /admin/tables/:id/delete
func (h *AdminHandler) DeleteTable(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(400).SendString("invalid table")
	}
	if err := h.Tables.Delete(id); err != nil {
		applog.Error(c, "admin.tables.delete.fail", err, map[string]any{"table": id})
		return c.Status(400).SendString("could not delete table")
	}
	applog.Audit(c, "admin.tables.delete", map[string]any{"table": id})
	return c.Redirect("/admin/tables")
}

// GET /admin/stats?day=YYYY-MM-DD
func (h *AdminHandler) StatsPage(c *fiber.Ctx) error {
	report, err := h.Stats.Daily(c.Query("day"))
	if err != nil {
		applog.Error(c, "admin.stats.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load statistics"})
	}
	return render(c, "admin_stats", fiber.Map{"Report": report})
}
