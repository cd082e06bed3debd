package handlers

import (
	"mesero/internal/domain"
	applog "mesero/internal/log"
	"mesero/internal/services"
	"mesero/internal/session"
	"mesero/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// EntryHandler owns the table-selection entry point: the printed QR link
// lands here with a table-number query parameter.
type EntryHandler struct {
	Tables *services.TableService
	Order  *services.OrderService
}

// GET /?table=N
func (h *EntryHandler) Home(c *fiber.Ctx) error {
	if _, ok := session.Read(c); ok {
		return c.Redirect("/menu")
	}

	if raw := c.Query("table"); raw != "" {
		num, ok := validate.TableNumber(raw)
		if !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "table", "value": raw})
			return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "Invalid table link"})
		}
		t, err := h.Tables.ByNumber(num)
		if err != nil {
			return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Table not found"})
		}
		if t.Status == domain.TableMaintenance {
			return render(c, "entry", fiber.Map{"Err": "This table is unavailable right now"})
		}
		return render(c, "entry", fiber.Map{"Table": t})
	}

	tables, err := h.Tables.List()
	if err != nil {
		applog.Error(c, "entry.tables.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load tables"})
	}
	return render(c, "entry", fiber.Map{"Tables": tables})
}

// POST /session starts the customer's order and establishes the session.
func (h *EntryHandler) Start(c *fiber.Ctx) error {
	num, ok := validate.TableNumber(c.FormValue("table"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "table"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid table")
	}
	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("name must be 1-40 characters")
	}

	t, err := h.Tables.ByNumber(num)
	if err != nil {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Table not found"})
	}
	if t.Status == domain.TableMaintenance {
		return c.Status(fiber.StatusConflict).Render("entry", fiber.Map{"Err": "This table is unavailable right now"})
	}

	customerID := uuid.NewString()
	o, err := h.Order.Start(t.ID, t.Number, customerID, name)
	if err != nil {
		applog.Error(c, "session.start.fail", err, map[string]any{"table": t.Number})
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not start your order. Please try again."})
	}

	session.Establish(c, session.Session{
		TableID:      t.ID,
		TableNumber:  t.Number,
		CustomerID:   customerID,
		OrderID:      o.ID,
		CustomerName: name,
	})
	applog.Audit(c, "session.start", map[string]any{"table": t.Number, "order_id": o.ID})
	return c.Redirect("/menu")
}

// GET /leave clears the session; the freed-table SSE event navigates here.
func (h *EntryHandler) Leave(c *fiber.Ctx) error {
	session.Clear(c)
	return c.Redirect("/")
}
