package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"mesero/internal/domain"
	"mesero/internal/events"
	"mesero/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// EventsHandler streams bus events to browsers over SSE. One stream per
// screen; subscriptions are dropped as soon as the connection closes.
type EventsHandler struct {
	Bus events.Bus
}

func sseHeaders(c *fiber.Ctx) {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
}

func writeEvent(w *bufio.Writer, ev events.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}

// GET /events — the customer feed: item changes on the session's order plus
// table status. A table_freed for the session's table is the last event sent;
// the page reacts by clearing the session and navigating back to the entry
// screen.
func (h *EventsHandler) Customer(c *fiber.Ctx) error {
	sess, ok := session.Read(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}
	tableID := sess.TableID

	ch := make(chan events.Event, 16)
	push := func(ev events.Event) {
		select {
		case ch <- ev:
		default: // slow consumer: drop rather than block the bus
		}
	}
	unsubItems, err := h.Bus.Subscribe(events.OrderItemsTopic(sess.OrderID), push)
	if err != nil {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}
	unsubTables, err := h.Bus.Subscribe(events.TopicTableStatus, push)
	if err != nil {
		unsubItems()
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	sseHeaders(c)
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubItems()
		defer unsubTables()
		ticker := time.NewTicker(25 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case ev := <-ch:
				// Table events for other tables are not this client's business.
				if ev.Type == domain.NotifyTableFreed && ev.TableID != tableID {
					continue
				}
				if err := writeEvent(w, ev); err != nil {
					return
				}
				if ev.Type == domain.NotifyTableFreed {
					return
				}
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

// GET /staff/events — notifications and table status for the board.
func (h *EventsHandler) Staff(c *fiber.Ctx) error {
	ch := make(chan events.Event, 32)
	push := func(ev events.Event) {
		select {
		case ch <- ev:
		default:
		}
	}
	unsubStaff, err := h.Bus.Subscribe(events.TopicStaff, push)
	if err != nil {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}
	unsubTables, err := h.Bus.Subscribe(events.TopicTableStatus, push)
	if err != nil {
		unsubStaff()
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	sseHeaders(c)
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubStaff()
		defer unsubTables()
		ticker := time.NewTicker(25 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case ev := <-ch:
				if err := writeEvent(w, ev); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}
