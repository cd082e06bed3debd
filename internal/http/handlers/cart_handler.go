package handlers

import (
	"encoding/json"
	"errors"

	"mesero/internal/domain"
	applog "mesero/internal/log"
	"mesero/internal/services"
	"mesero/internal/session"
	"mesero/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	Order   *services.OrderService
	Catalog *services.CatalogService
}

func productExtras(p domain.Product) []domain.Extra {
	var extras []domain.Extra
	_ = json.Unmarshal([]byte(p.ExtrasJSON), &extras)
	return extras
}

// GET /cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	sess, ok := session.Read(c)
	if !ok {
		return c.Redirect("/")
	}
	o, items, err := h.Order.Refresh(sess.OrderID)
	if err != nil {
		applog.Error(c, "cart.load.fail", err, map[string]any{"order_id": sess.OrderID})
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
	}
	return render(c, "cart", fiber.Map{
		"Order": o,
		"Items": items,
		"Count": services.ItemCount(items),
		"Total": services.Cents(services.Subtotal(items)),
	})
}

// POST /cart adds a line to the customer's order.
func (h *CartHandler) Add(c *fiber.Ctx) error {
	sess, ok := session.Read(c)
	if !ok {
		return c.Redirect("/")
	}
	productID, okID := validate.ID(c.FormValue("productId"))
	if !okID {
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	qty := validate.Qty(c.FormValue("qty"))
	notes := validate.Notes(c.FormValue("notes"))

	var extras []string
	for _, v := range c.Context().PostArgs().PeekMulti("extra") {
		extras = append(extras, string(v))
	}

	if _, err := h.Order.AddItem(sess.OrderID, productID, qty, notes, extras); err != nil {
		if errors.Is(err, services.ErrNoActiveOrder) {
			applog.Security(c, "cart.add.noorder", map[string]any{"order_id": sess.OrderID})
			session.Clear(c)
			return c.Redirect("/")
		}
		applog.Error(c, "cart.add.fail", err, map[string]any{"product": productID})
		return c.Status(fiber.StatusBadRequest).SendString("Could not add the item. Please try again.")
	}
	applog.Audit(c, "cart.add", map[string]any{"order_id": sess.OrderID, "product": productID, "qty": qty})
	return c.Redirect("/cart")
}

// POST /cart/update changes a line's quantity; zero or less removes it.
func (h *CartHandler) Update(c *fiber.Ctx) error {
	sess, ok := session.Read(c)
	if !ok {
		return c.Redirect("/")
	}
	itemID, okID := validate.ID(c.FormValue("itemId"))
	if !okID {
		return c.Status(fiber.StatusBadRequest).SendString("missing itemId")
	}
	qty := c.FormValue("qty")
	n := 0
	if qty != "" && qty != "0" && qty != "-1" {
		n = validate.Qty(qty)
	}
	if err := h.Order.UpdateItemQty(sess.OrderID, itemID, n); err != nil {
		applog.Error(c, "cart.update.fail", err, map[string]any{"item": itemID})
		return c.Status(fiber.StatusBadRequest).SendString("Could not update the item.")
	}
	return c.Redirect("/cart")
}

// POST /cart/remove
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sess, ok := session.Read(c)
	if !ok {
		return c.Redirect("/")
	}
	itemID, okID := validate.ID(c.FormValue("itemId"))
	if !okID {
		return c.Status(fiber.StatusBadRequest).SendString("missing itemId")
	}
	if err := h.Order.RemoveItem(sess.OrderID, itemID); err != nil {
		applog.Error(c, "cart.remove.fail", err, map[string]any{"item": itemID})
		return c.Status(fiber.StatusBadRequest).SendString("Could not remove the item.")
	}
	return c.Redirect("/cart")
}

// POST /cart/send submits the order to the kitchen.
func (h *CartHandler) Send(c *fiber.Ctx) error {
	sess, ok := session.Read(c)
	if !ok {
		return c.Redirect("/")
	}
	if err := h.Order.Send(sess.OrderID, sess.TableNumber); err != nil {
		applog.Error(c, "cart.send.fail", err, map[string]any{"order_id": sess.OrderID})
		return c.Status(fiber.StatusBadRequest).SendString("Could not send your order.")
	}
	applog.Audit(c, "order.send", map[string]any{"order_id": sess.OrderID})
	return c.Redirect("/orders")
}
