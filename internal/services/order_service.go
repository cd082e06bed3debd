package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"mesero/internal/domain"
	"mesero/internal/events"
	"mesero/internal/repos"

	"github.com/google/uuid"
)

var (
	ErrNoActiveOrder  = errors.New("no active order for this session")
	ErrNotOnOrder     = errors.New("item does not belong to this order")
	ErrUnavailable    = errors.New("product is not available")
	ErrBadTransition  = errors.New("invalid item status transition")
	ErrNotCancellable = errors.New("item can no longer be cancelled")
)

// OrderService keeps an order, its line items, and the stored total in sync.
// Every mutation re-reads the authoritative item list and rewrites the total
// only when it drifted; subscribers hear about each change through the bus.
type OrderService struct {
	Orders *repos.OrderRepo
	Prods  *repos.ProductRepo
	Notifs *repos.NotificationRepo
	Bus    events.Bus
}

func NewOrderService(orders *repos.OrderRepo, prods *repos.ProductRepo, notifs *repos.NotificationRepo, bus events.Bus) *OrderService {
	return &OrderService{Orders: orders, Prods: prods, Notifs: notifs, Bus: bus}
}

// Start opens an order for a seated customer: order row, table occupied,
// new_order notification — one transaction, then one staff event.
func (s *OrderService) Start(tableID, tableNumber int64, customerID, customerName string) (domain.Order, error) {
	o := domain.Order{
		ID:           uuid.NewString(),
		TableID:      tableID,
		CustomerID:   customerID,
		CustomerName: customerName,
		Status:       domain.OrderActive,
	}
	n := domain.Notification{
		ID:      uuid.NewString(),
		TableID: tableID,
		OrderID: o.ID,
		Type:    domain.NotifyNewOrder,
		Message: fmt.Sprintf("Table %d: %s started an order", tableNumber, customerName),
	}
	if err := s.Orders.StartOrder(o, n); err != nil {
		return domain.Order{}, err
	}
	_ = s.Bus.Publish(events.TopicStaff, events.Event{
		Type: domain.NotifyNewOrder, TableID: tableID, OrderID: o.ID, Message: n.Message,
	})
	return o, nil
}

// Refresh loads the order with its items and heals a drifted stored total.
func (s *OrderService) Refresh(orderID string) (domain.Order, []domain.OrderItem, error) {
	o, err := s.Orders.Get(orderID)
	if err != nil {
		return domain.Order{}, nil, err
	}
	items, err := s.Orders.Items(orderID)
	if err != nil {
		return domain.Order{}, nil, err
	}
	total := Subtotal(items)
	if math.Abs(total-o.Total) > 1e-9 {
		if err := s.Orders.UpdateTotal(orderID, total); err != nil {
			return domain.Order{}, nil, err
		}
		o.Total = total
	}
	return o, items, nil
}

func (s *OrderService) requireActive(orderID string) (domain.Order, error) {
	if orderID == "" {
		return domain.Order{}, ErrNoActiveOrder
	}
	o, err := s.Orders.Get(orderID)
	if err != nil {
		return domain.Order{}, ErrNoActiveOrder
	}
	if o.Status != domain.OrderActive && o.Status != domain.OrderSent {
		return domain.Order{}, ErrNoActiveOrder
	}
	return o, nil
}

// AddItem snapshots the product name and price (plus chosen paid extras) onto
// a new line. Extras ride along in the notes field.
func (s *OrderService) AddItem(orderID, productID string, qty int, notes string, extraNames []string) (domain.OrderItem, error) {
	if _, err := s.requireActive(orderID); err != nil {
		return domain.OrderItem{}, err
	}
	p, err := s.Prods.Get(productID)
	if err != nil {
		return domain.OrderItem{}, err
	}
	if !p.Available {
		return domain.OrderItem{}, ErrUnavailable
	}
	if qty < 1 {
		qty = 1
	}

	price := p.Price
	if len(extraNames) > 0 {
		var offered []domain.Extra
		_ = json.Unmarshal([]byte(p.ExtrasJSON), &offered)
		var chosen []string
		for _, name := range extraNames {
			for _, e := range offered {
				if e.Name == name {
					price += e.Price
					chosen = append(chosen, fmt.Sprintf("%s (+%.2f)", e.Name, e.Price))
				}
			}
		}
		if len(chosen) > 0 {
			tag := "Extras: " + strings.Join(chosen, ", ")
			if notes != "" {
				notes += " | "
			}
			notes += tag
		}
	}

	it := domain.OrderItem{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		ProductID: p.ID,
		Name:      p.Name,
		Price:     price,
		Qty:       qty,
		Notes:     notes,
		Status:    domain.ItemOrdered,
	}
	if err := s.Orders.InsertItem(it); err != nil {
		return domain.OrderItem{}, err
	}
	if _, err := s.recomputeTotal(orderID); err != nil {
		return domain.OrderItem{}, err
	}
	s.publishItem(events.ItemInserted, orderID, it.ID)
	return it, nil
}

// UpdateItemQty sets a new quantity; anything below one removes the line.
func (s *OrderService) UpdateItemQty(orderID, itemID string, qty int) error {
	if qty < 1 {
		return s.RemoveItem(orderID, itemID)
	}
	if _, err := s.requireActive(orderID); err != nil {
		return err
	}
	if err := s.ownItem(orderID, itemID); err != nil {
		return err
	}
	if err := s.Orders.UpdateItemQty(itemID, qty); err != nil {
		return err
	}
	if _, err := s.recomputeTotal(orderID); err != nil {
		return err
	}
	s.publishItem(events.ItemUpdated, orderID, itemID)
	return nil
}

func (s *OrderService) RemoveItem(orderID, itemID string) error {
	if _, err := s.requireActive(orderID); err != nil {
		return err
	}
	if err := s.ownItem(orderID, itemID); err != nil {
		return err
	}
	if err := s.Orders.DeleteItem(itemID); err != nil {
		return err
	}
	if _, err := s.recomputeTotal(orderID); err != nil {
		return err
	}
	s.publishItem(events.ItemDeleted, orderID, itemID)
	return nil
}

// Send submits the order to the kitchen and tells the waitstaff board.
func (s *OrderService) Send(orderID string, tableNumber int64) error {
	o, err := s.requireActive(orderID)
	if err != nil {
		return err
	}
	if err := s.Orders.UpdateStatus(orderID, domain.OrderSent); err != nil {
		return err
	}
	n := domain.Notification{
		ID:      uuid.NewString(),
		TableID: o.TableID,
		OrderID: orderID,
		Type:    domain.NotifyOrderUpdated,
		Message: fmt.Sprintf("Table %d: order sent to kitchen", tableNumber),
	}
	if err := s.Notifs.Create(n); err != nil {
		return err
	}
	_ = s.Bus.Publish(events.TopicStaff, events.Event{
		Type: n.Type, TableID: o.TableID, OrderID: orderID, Message: n.Message,
	})
	return nil
}

// AdvanceItem moves a line strictly forward through the kitchen states.
func (s *OrderService) AdvanceItem(itemID, next string) error {
	it, err := s.Orders.GetItem(itemID)
	if err != nil {
		return err
	}
	forward := map[string]string{
		domain.ItemOrdered:   domain.ItemPreparing,
		domain.ItemPreparing: domain.ItemReady,
		domain.ItemReady:     domain.ItemServed,
	}
	if forward[it.Status] != next {
		return ErrBadTransition
	}
	if err := s.Orders.UpdateItemStatus(itemID, next); err != nil {
		return err
	}
	s.publishItem(events.ItemUpdated, it.OrderID, itemID)
	return nil
}

// CancelItem cancels n units of a line. Only ordered or preparing lines
// qualify; cancelling more than the remaining quantity is rejected.
func (s *OrderService) CancelItem(itemID string, n int) error {
	it, err := s.Orders.GetItem(itemID)
	if err != nil {
		return err
	}
	if it.Status != domain.ItemOrdered && it.Status != domain.ItemPreparing {
		return ErrNotCancellable
	}
	if n < 1 || n > it.ActiveQty() {
		return repos.ErrCancelTooMany
	}
	if err := s.Orders.CancelItemQty(itemID, n); err != nil {
		return err
	}
	if _, err := s.recomputeTotal(it.OrderID); err != nil {
		return err
	}
	s.publishItem(events.ItemUpdated, it.OrderID, itemID)
	return nil
}

// RequestBill files a bill_request with the chosen payment method.
func (s *OrderService) RequestBill(orderID string, tableNumber int64, method string) error {
	o, err := s.Orders.Get(orderID)
	if err != nil {
		return err
	}
	n := domain.Notification{
		ID:            uuid.NewString(),
		TableID:       o.TableID,
		OrderID:       orderID,
		Type:          domain.NotifyBillRequest,
		Message:       fmt.Sprintf("Table %d requests the bill (%s)", tableNumber, method),
		PaymentMethod: method,
	}
	if err := s.Notifs.Create(n); err != nil {
		return err
	}
	_ = s.Bus.Publish(events.TopicStaff, events.Event{
		Type: n.Type, TableID: o.TableID, OrderID: orderID, Message: n.Message,
	})
	return nil
}

// RequestAssistance files an assistance call for the table.
func (s *OrderService) RequestAssistance(tableID, tableNumber int64, orderID string) error {
	n := domain.Notification{
		ID:      uuid.NewString(),
		TableID: tableID,
		OrderID: orderID,
		Type:    domain.NotifyAssistance,
		Message: fmt.Sprintf("Table %d needs assistance", tableNumber),
	}
	if err := s.Notifs.Create(n); err != nil {
		return err
	}
	_ = s.Bus.Publish(events.TopicStaff, events.Event{
		Type: n.Type, TableID: tableID, OrderID: orderID, Message: n.Message,
	})
	return nil
}

// ConfirmPayment marks the customer's own order paid (manual confirmation,
// no processor behind it).
func (s *OrderService) ConfirmPayment(orderID string) error {
	return s.Orders.UpdateStatus(orderID, domain.OrderPaid)
}

func (s *OrderService) ownItem(orderID, itemID string) error {
	it, err := s.Orders.GetItem(itemID)
	if err != nil {
		return err
	}
	if it.OrderID != orderID {
		return ErrNotOnOrder
	}
	return nil
}

// recomputeTotal folds over the freshly re-read item list and writes the
// result back only when the stored total drifted.
func (s *OrderService) recomputeTotal(orderID string) (float64, error) {
	items, err := s.Orders.Items(orderID)
	if err != nil {
		return 0, err
	}
	total := Subtotal(items)
	o, err := s.Orders.Get(orderID)
	if err != nil {
		return 0, err
	}
	if math.Abs(total-o.Total) > 1e-9 {
		if err := s.Orders.UpdateTotal(orderID, total); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func (s *OrderService) publishItem(kind, orderID, itemID string) {
	_ = s.Bus.Publish(events.OrderItemsTopic(orderID), events.Event{
		Type: kind, OrderID: orderID, ItemID: itemID,
	})
}
