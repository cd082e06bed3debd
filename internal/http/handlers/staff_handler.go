package handlers

import (
	"crypto/subtle"
	"errors"
	"strconv"

	"mesero/internal/config"
	"mesero/internal/domain"
	applog "mesero/internal/log"
	"mesero/internal/repos"
	"mesero/internal/services"
	"mesero/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type StaffHandler struct {
	Notifs *services.NotificationService
	Tables *services.TableService
	Order  *services.OrderService
	Cfg    config.Config
}

// GET /staff — the pending-notification board. ?sort=fcfs puts oldest first.
func (h *StaffHandler) Board(c *fiber.Ctx) error {
	fcfs := c.Query("sort") == "fcfs"
	entries, err := h.Notifs.Board(fcfs)
	if err != nil {
		applog.Error(c, "staff.board.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load notifications"})
	}
	return render(c, "staff_board", fiber.Map{"Entries": entries, "FCFS": fcfs})
}

// POST /staff/notifications/:id/ack — a local marker, never persisted.
func (h *StaffHandler) Acknowledge(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing id")
	}
	h.Notifs.Acknowledge(id)
	return c.Redirect("/staff")
}

// POST /staff/notifications/:id/complete
func (h *StaffHandler) Complete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing id")
	}
	if err := h.Notifs.Complete(id); err != nil {
		applog.Error(c, "staff.notification.complete.fail", err, map[string]any{"notification": id})
		return c.Status(fiber.StatusBadRequest).SendString("could not complete notification")
	}
	applog.Audit(c, "staff.notification.complete", map[string]any{"notification": id})
	return c.Redirect("/staff")
}

// GET /staff/tables — the floor plan: every table with its open orders
// grouped per customer.
func (h *StaffHandler) TablesBoard(c *fiber.Ctx) error {
	boards, err := h.Tables.Board()
	if err != nil {
		applog.Error(c, "staff.tables.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load tables"})
	}
	return render(c, "staff_tables", fiber.Map{"Boards": boards})
}

// POST /staff/items/:id/status advances a line through the kitchen states.
func (h *StaffHandler) AdvanceItem(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	next := c.FormValue("status")
	if !ok || next == "" {
		return c.Status(fiber.StatusBadRequest).SendString("missing id or status")
	}
	if err := h.Order.AdvanceItem(id, next); err != nil {
		applog.Error(c, "staff.item.advance.fail", err, map[string]any{"item": id, "status": next})
		return c.Status(fiber.StatusBadRequest).SendString("could not update item")
	}
	applog.Audit(c, "staff.item.advance", map[string]any{"item": id, "status": next})
	return c.Redirect("/staff/tables")
}

// POST /staff/items/:id/cancel cancels part or all of a line. Gated behind
// the shared passphrase; this is a speed bump, not an authorization system.
func (h *StaffHandler) CancelItem(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing id")
	}
	pass := c.FormValue("passphrase")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(h.Cfg.StaffPassphrase)) != 1 {
		applog.Security(c, "staff.item.cancel.badpass", map[string]any{"item": id})
		return c.Status(fiber.StatusForbidden).SendString("wrong passphrase")
	}
	n, err := strconv.Atoi(c.FormValue("qty"))
	if err != nil || n < 1 {
		return c.Status(fiber.StatusBadRequest).SendString("invalid quantity")
	}
	if err := h.Order.CancelItem(id, n); err != nil {
		if errors.Is(err, repos.ErrCancelTooMany) {
			return c.Status(fiber.StatusBadRequest).SendString("cannot cancel more than the remaining quantity")
		}
		if errors.Is(err, services.ErrNotCancellable) {
			return c.Status(fiber.StatusConflict).SendString("ready or served items cannot be cancelled")
		}
		applog.Error(c, "staff.item.cancel.fail", err, map[string]any{"item": id})
		return c.Status(fiber.StatusBadRequest).SendString("could not cancel item")
	}
	applog.Audit(c, "staff.item.cancel", map[string]any{"item": id, "qty": n})
	return c.Redirect("/staff/tables")
}

// POST /staff/tables/:id/charge closes out the table.
func (h *StaffHandler) ChargeTable(c *fiber.Ctx) error {
	tableID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("invalid table")
	}
	method, okM := validate.PaymentMethod(c.FormValue("method"))
	if !okM {
		return c.Status(fiber.StatusBadRequest).SendString("choose cash, card or transfer")
	}
	staffID := ""
	if u, ok := c.Locals("user").(*domain.User); ok {
		staffID = u.ID
	}
	sale, err := h.Tables.Charge(tableID, method, staffID)
	if err != nil {
		if errors.Is(err, services.ErrNothingToCharge) {
			return c.Status(fiber.StatusConflict).SendString("table has no open orders")
		}
		applog.Error(c, "staff.table.charge.fail", err, map[string]any{"table": tableID})
		return c.Status(fiber.StatusBadRequest).SendString("could not charge table")
	}
	applog.Audit(c, "staff.table.charge", map[string]any{
		"table": tableID, "orders": sale.OrderCount, "total": sale.Total, "method": method,
	})
	return c.Redirect("/staff/tables")
}

// POST /staff/tables/:id/status flips reserved/maintenance/available.
func (h *StaffHandler) SetTableStatus(c *fiber.Ctx) error {
	tableID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("invalid table")
	}
	status := c.FormValue("status")
	switch status {
	case domain.TableAvailable, domain.TableOccupied, domain.TableReserved, domain.TableMaintenance:
	default:
		return c.Status(fiber.StatusBadRequest).SendString("invalid status")
	}
	if err := h.Tables.SetStatus(tableID, status); err != nil {
		applog.Error(c, "staff.table.status.fail", err, map[string]any{"table": tableID})
		return c.Status(fiber.StatusBadRequest).SendString("could not update table")
	}
	applog.Audit(c, "staff.table.status", map[string]any{"table": tableID, "status": status})
	return c.Redirect("/staff/tables")
}
