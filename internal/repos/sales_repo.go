package repos

import (
	"mesero/internal/domain"

	"github.com/jmoiron/sqlx"
)

type SalesRepo struct{ db *sqlx.DB }

func NewSalesRepo(db *sqlx.DB) *SalesRepo { return &SalesRepo{db: db} }

// ChargeTable closes out a table: writes the daily_sales record, marks the
// table's open orders paid, resets the table to available, and inserts the
// table_freed notification. All four writes commit together or not at all.
func (r *SalesRepo) ChargeTable(sale domain.DailySale, freed domain.Notification) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
	  INSERT INTO daily_sales(id,table_id,order_count,total,payment_method,charged_by)
	  VALUES(?,?,?,?,?,?)
	`, sale.ID, sale.TableID, sale.OrderCount, sale.Total, sale.PaymentMethod, sale.ChargedBy); err != nil {
		return err
	}
	if _, err := tx.Exec(`
	  UPDATE orders SET status='paid', updated_at=CURRENT_TIMESTAMP
	  WHERE table_id=? AND status IN ('active','sent','completed')
	`, sale.TableID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE tables SET status='available', updated_at=CURRENT_TIMESTAMP WHERE id=?`, sale.TableID); err != nil {
		return err
	}
	if _, err := tx.Exec(`
	  INSERT INTO waiter_notifications(id,table_id,order_id,type,message,status)
	  VALUES(?,?,?,?,?,'completed')
	`, freed.ID, freed.TableID, freed.OrderID, freed.Type, freed.Message); err != nil {
		return err
	}
	return tx.Commit()
}

type DayStats struct {
	Day        string  `db:"day"`
	Tables     int     `db:"tables"`
	OrderCount int     `db:"order_count"`
	Revenue    float64 `db:"revenue"`
}

type MethodSplit struct {
	PaymentMethod string  `db:"payment_method"`
	Tables        int     `db:"tables"`
	Revenue       float64 `db:"revenue"`
}

type TopProduct struct {
	Name    string  `db:"name"`
	Qty     int     `db:"qty"`
	Revenue float64 `db:"revenue"`
}

// StatsForDay aggregates closing records for a YYYY-MM-DD day.
func (r *SalesRepo) StatsForDay(day string) (DayStats, error) {
	var s DayStats
	err := r.db.Get(&s, `
	  SELECT ? AS day,
	         COUNT(*) AS tables,
	         COALESCE(SUM(order_count),0) AS order_count,
	         COALESCE(SUM(total),0) AS revenue
	  FROM daily_sales
	  WHERE date(created_at) = ?
	`, day, day)
	return s, err
}

func (r *SalesRepo) MethodSplitForDay(day string) ([]MethodSplit, error) {
	var out []MethodSplit
	err := r.db.Select(&out, `
	  SELECT payment_method, COUNT(*) AS tables, COALESCE(SUM(total),0) AS revenue
	  FROM daily_sales
	  WHERE date(created_at) = ?
	  GROUP BY payment_method
	  ORDER BY revenue DESC
	`, day)
	return out, err
}

// TopProductsForDay ranks billable quantities sold on paid orders.
func (r *SalesRepo) TopProductsForDay(day string, limit int) ([]TopProduct, error) {
	if limit <= 0 {
		limit = 5
	}
	var out []TopProduct
	err := r.db.Select(&out, `
	  SELECT oi.name,
	         SUM(oi.qty - oi.cancelled_qty) AS qty,
	         SUM(oi.price * (oi.qty - oi.cancelled_qty)) AS revenue
	  FROM order_items oi
	  JOIN orders o ON o.id = oi.order_id
	  WHERE o.status = 'paid' AND date(o.updated_at) = ?
	  GROUP BY oi.name
	  HAVING qty > 0
	  ORDER BY qty DESC
	  LIMIT ?
	`, day, limit)
	return out, err
}
