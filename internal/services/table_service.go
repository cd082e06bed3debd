package services

import (
	"errors"
	"fmt"

	"mesero/internal/domain"
	"mesero/internal/events"
	"mesero/internal/repos"

	"github.com/google/uuid"
)

var ErrNothingToCharge = errors.New("table has no open orders")

type TableService struct {
	Tables *repos.TableRepo
	Orders *repos.OrderRepo
	Sales  *repos.SalesRepo
	Bus    events.Bus
}

func NewTableService(tables *repos.TableRepo, orders *repos.OrderRepo, sales *repos.SalesRepo, bus events.Bus) *TableService {
	return &TableService{Tables: tables, Orders: orders, Sales: sales, Bus: bus}
}

func (s *TableService) Create(capacity int, branch string) (domain.Table, error) {
	if capacity < 1 {
		capacity = 4
	}
	if branch == "" {
		branch = "main"
	}
	return s.Tables.Create(capacity, branch)
}

func (s *TableService) List() ([]domain.Table, error)            { return s.Tables.List() }
func (s *TableService) Get(id int64) (domain.Table, error)       { return s.Tables.Get(id) }
func (s *TableService) ByNumber(n int64) (domain.Table, error)   { return s.Tables.GetByNumber(n) }
func (s *TableService) Update(id int64, cap int, br string) error { return s.Tables.Update(id, cap, br) }
func (s *TableService) Delete(id int64) error                    { return s.Tables.Delete(id) }

func (s *TableService) SetStatus(id int64, status string) error {
	if err := s.Tables.UpdateStatus(id, status); err != nil {
		return err
	}
	_ = s.Bus.Publish(events.TopicTableStatus, events.Event{Type: "table_status", TableID: id, Message: status})
	return nil
}

// TableBoard groups a table's open orders by customer for the floor view.
type TableBoard struct {
	Table  domain.Table
	Orders []BoardOrder
}

type BoardOrder struct {
	Order domain.Order
	Items []domain.OrderItem
}

func (s *TableService) Board() ([]TableBoard, error) {
	tables, err := s.Tables.List()
	if err != nil {
		return nil, err
	}
	out := make([]TableBoard, 0, len(tables))
	for _, t := range tables {
		board := TableBoard{Table: t}
		orders, err := s.Orders.ListOpenByTable(t.ID)
		if err != nil {
			return nil, err
		}
		for _, o := range orders {
			items, err := s.Orders.Items(o.ID)
			if err != nil {
				return nil, err
			}
			board.Orders = append(board.Orders, BoardOrder{Order: o, Items: items})
		}
		out = append(out, board)
	}
	return out, nil
}

// Charge closes out the table: one transaction for the closing record, paid
// orders, and status reset; the freed event goes out only after commit so
// customer clients never observe a half-closed table.
func (s *TableService) Charge(tableID int64, method, staffID string) (domain.DailySale, error) {
	t, err := s.Tables.Get(tableID)
	if err != nil {
		return domain.DailySale{}, err
	}
	orders, err := s.Orders.ListOpenByTable(tableID)
	if err != nil {
		return domain.DailySale{}, err
	}
	if len(orders) == 0 {
		return domain.DailySale{}, ErrNothingToCharge
	}

	total := 0.0
	for _, o := range orders {
		// Totals are derived from the lines, not trusted from the order row.
		items, err := s.Orders.Items(o.ID)
		if err != nil {
			return domain.DailySale{}, err
		}
		total += Subtotal(items)
	}

	sale := domain.DailySale{
		ID:            uuid.NewString(),
		TableID:       tableID,
		OrderCount:    len(orders),
		Total:         total,
		PaymentMethod: method,
		ChargedBy:     staffID,
	}
	freed := domain.Notification{
		ID:      uuid.NewString(),
		TableID: tableID,
		Type:    domain.NotifyTableFreed,
		Message: fmt.Sprintf("Table %d was charged and freed", t.Number),
	}
	if err := s.Sales.ChargeTable(sale, freed); err != nil {
		return domain.DailySale{}, err
	}

	_ = s.Bus.Publish(events.TopicTableStatus, events.Event{
		Type: domain.NotifyTableFreed, TableID: tableID, Message: freed.Message,
	})
	return sale, nil
}
