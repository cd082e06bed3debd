package repos

import (
	"mesero/internal/domain"

	"github.com/jmoiron/sqlx"
)

type NotificationRepo struct{ db *sqlx.DB }

func NewNotificationRepo(db *sqlx.DB) *NotificationRepo { return &NotificationRepo{db: db} }

const notificationCols = `id, table_id, order_id, type, message, status, payment_method, created_at`

func (r *NotificationRepo) Create(n domain.Notification) error {
	_, err := r.db.Exec(`
	  INSERT INTO waiter_notifications(id,table_id,order_id,type,message,status,payment_method)
	  VALUES(?,?,?,?,?,'pending',?)
	`, n.ID, n.TableID, n.OrderID, n.Type, n.Message, n.PaymentMethod)
	return err
}

func (r *NotificationRepo) Get(id string) (domain.Notification, error) {
	var n domain.Notification
	err := r.db.Get(&n, `SELECT `+notificationCols+` FROM waiter_notifications WHERE id=?`, id)
	return n, err
}

// ListPending returns undone notifications; fcfs=true puts the oldest first.
func (r *NotificationRepo) ListPending(fcfs bool) ([]domain.Notification, error) {
	order := `DESC`
	if fcfs {
		order = `ASC`
	}
	var out []domain.Notification
	err := r.db.Select(&out, `
	  SELECT `+notificationCols+` FROM waiter_notifications
	  WHERE status='pending'
	  ORDER BY datetime(created_at) `+order+`
	`)
	return out, err
}

func (r *NotificationRepo) Complete(id string) error {
	_, err := r.db.Exec(`UPDATE waiter_notifications SET status='completed' WHERE id=?`, id)
	return err
}
