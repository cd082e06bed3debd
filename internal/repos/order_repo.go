package repos

import (
	"errors"

	"mesero/internal/domain"

	"github.com/jmoiron/sqlx"
)

var ErrCancelTooMany = errors.New("cancel quantity exceeds remaining quantity")

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `id, table_id, customer_id, customer_name, status, total,
  created_at, COALESCE(updated_at,'') AS updated_at`

const itemCols = `id, order_id, product_id, name, price, qty, notes, status, cancelled_qty, created_at`

func (r *OrderRepo) Get(orderID string) (domain.Order, error) {
	var o domain.Order
	err := r.db.Get(&o, `SELECT `+orderCols+` FROM orders WHERE id=?`, orderID)
	return o, err
}

// ListOpenByTable returns the table's not-yet-paid orders, oldest first.
// Several may coexist: one per seated customer.
func (r *OrderRepo) ListOpenByTable(tableID int64) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.Select(&out, `
	  SELECT `+orderCols+` FROM orders
	  WHERE table_id=? AND status IN ('active','sent','completed')
	  ORDER BY datetime(created_at)
	`, tableID)
	return out, err
}

func (r *OrderRepo) Items(orderID string) ([]domain.OrderItem, error) {
	var out []domain.OrderItem
	err := r.db.Select(&out, `
	  SELECT `+itemCols+` FROM order_items
	  WHERE order_id=? ORDER BY datetime(created_at), id
	`, orderID)
	return out, err
}

func (r *OrderRepo) GetItem(itemID string) (domain.OrderItem, error) {
	var it domain.OrderItem
	err := r.db.Get(&it, `SELECT `+itemCols+` FROM order_items WHERE id=?`, itemID)
	return it, err
}

func (r *OrderRepo) InsertItem(it domain.OrderItem) error {
	_, err := r.db.Exec(`
	  INSERT INTO order_items(id,order_id,product_id,name,price,qty,notes,status)
	  VALUES(?,?,?,?,?,?,?,'ordered')
	`, it.ID, it.OrderID, it.ProductID, it.Name, it.Price, it.Qty, it.Notes)
	return err
}

func (r *OrderRepo) UpdateItemQty(itemID string, qty int) error {
	_, err := r.db.Exec(`UPDATE order_items SET qty=? WHERE id=?`, qty, itemID)
	return err
}

func (r *OrderRepo) DeleteItem(itemID string) error {
	_, err := r.db.Exec(`DELETE FROM order_items WHERE id=?`, itemID)
	return err
}

func (r *OrderRepo) UpdateItemStatus(itemID, status string) error {
	_, err := r.db.Exec(`UPDATE order_items SET status=? WHERE id=?`, status, itemID)
	return err
}

// CancelItemQty increments the cancelled counter by n, guarded so it can never
// exceed the ordered quantity. Cancelling the exact remainder flips the line
// to cancelled.
func (r *OrderRepo) CancelItemQty(itemID string, n int) error {
	res, err := r.db.Exec(`
	  UPDATE order_items
	  SET cancelled_qty = cancelled_qty + ?,
	      status = CASE WHEN cancelled_qty + ? >= qty THEN 'cancelled' ELSE status END
	  WHERE id=? AND cancelled_qty + ? <= qty
	`, n, n, itemID, n)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrCancelTooMany
	}
	return nil
}

func (r *OrderRepo) UpdateTotal(orderID string, total float64) error {
	_, err := r.db.Exec(`UPDATE orders SET total=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, total, orderID)
	return err
}

func (r *OrderRepo) UpdateStatus(orderID, status string) error {
	_, err := r.db.Exec(`UPDATE orders SET status=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, status, orderID)
	return err
}

// StartOrder creates the customer's order, flips the table to occupied, and
// writes the waitstaff notification in one transaction; a failure rolls back
// all three effects.
func (r *OrderRepo) StartOrder(o domain.Order, n domain.Notification) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
	  INSERT INTO orders(id,table_id,customer_id,customer_name,status,total)
	  VALUES(?,?,?,?,'active',0)
	`, o.ID, o.TableID, o.CustomerID, o.CustomerName); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE tables SET status='occupied', updated_at=CURRENT_TIMESTAMP WHERE id=?`, o.TableID); err != nil {
		return err
	}
	if _, err := tx.Exec(`
	  INSERT INTO waiter_notifications(id,table_id,order_id,type,message,status)
	  VALUES(?,?,?,?,?,'pending')
	`, n.ID, n.TableID, n.OrderID, n.Type, n.Message); err != nil {
		return err
	}
	return tx.Commit()
}
