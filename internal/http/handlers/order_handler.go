package handlers

import (
	"mesero/internal/config"
	applog "mesero/internal/log"
	"mesero/internal/services"
	"mesero/internal/session"
	"mesero/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	Order *services.OrderService
	Cfg   config.Config
}

// GET /orders shows the customer's running tab with the tax breakdown.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	sess, ok := session.Read(c)
	if !ok {
		return c.Redirect("/")
	}
	o, items, err := h.Order.Refresh(sess.OrderID)
	if err != nil {
		applog.Error(c, "orders.load.fail", err, map[string]any{"order_id": sess.OrderID})
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your order"})
	}
	bill := services.ComputeBill(items, h.Cfg.TaxRate)
	return render(c, "orders", fiber.Map{
		"Order":    o,
		"Items":    items,
		"Subtotal": services.Cents(bill.Subtotal),
		"Tax":      services.Cents(bill.Tax),
		"Total":    services.Cents(bill.Total),
		"TaxPct":   bill.TaxRate * 100,
	})
}

// POST /bill files a bill request with the chosen payment method.
func (h *OrderHandler) RequestBill(c *fiber.Ctx) error {
	sess, ok := session.Read(c)
	if !ok {
		return c.Redirect("/")
	}
	method, okM := validate.PaymentMethod(c.FormValue("method"))
	if !okM {
		return c.Status(fiber.StatusBadRequest).SendString("choose cash, card or transfer")
	}
	if err := h.Order.RequestBill(sess.OrderID, sess.TableNumber, method); err != nil {
		applog.Error(c, "bill.request.fail", err, map[string]any{"order_id": sess.OrderID})
		return c.Status(fiber.StatusBadRequest).SendString("Could not request the bill.")
	}
	applog.Audit(c, "bill.request", map[string]any{"order_id": sess.OrderID, "method": method})
	return c.Redirect("/payment")
}

// GET /payment
func (h *OrderHandler) PaymentPage(c *fiber.Ctx) error {
	sess, ok := session.Read(c)
	if !ok {
		return c.Redirect("/")
	}
	o, items, err := h.Order.Refresh(sess.OrderID)
	if err != nil {
		applog.Error(c, "payment.load.fail", err, map[string]any{"order_id": sess.OrderID})
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your bill"})
	}
	bill := services.ComputeBill(items, h.Cfg.TaxRate)
	return render(c, "payment", fiber.Map{
		"Order":    o,
		"Subtotal": services.Cents(bill.Subtotal),
		"Tax":      services.Cents(bill.Tax),
		"Total":    services.Cents(bill.Total),
	})
}

// POST /payment/confirm is a manual confirmation click, nothing more.
func (h *OrderHandler) ConfirmPayment(c *fiber.Ctx) error {
	sess, ok := session.Read(c)
	if !ok {
		return c.Redirect("/")
	}
	if err := h.Order.ConfirmPayment(sess.OrderID); err != nil {
		applog.Error(c, "payment.confirm.fail", err, map[string]any{"order_id": sess.OrderID})
		return c.Status(fiber.StatusBadRequest).SendString("Could not confirm payment.")
	}
	applog.Audit(c, "payment.confirm", map[string]any{"order_id": sess.OrderID})
	return render(c, "payment_done", fiber.Map{})
}

// POST /assist calls a waiter over.
func (h *OrderHandler) Assist(c *fiber.Ctx) error {
	sess, ok := session.Read(c)
	if !ok {
		return c.Redirect("/")
	}
	if err := h.Order.RequestAssistance(sess.TableID, sess.TableNumber, sess.OrderID); err != nil {
		applog.Error(c, "assist.fail", err, map[string]any{"table": sess.TableNumber})
		return c.Status(fiber.StatusBadRequest).SendString("Could not call a waiter.")
	}
	applog.Audit(c, "assist.request", map[string]any{"table": sess.TableNumber})
	return c.Redirect("/menu")
}
