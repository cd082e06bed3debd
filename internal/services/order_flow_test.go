package services_test

import (
	"math"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"mesero/internal/domain"
	"mesero/internal/events"
	"mesero/internal/repos"
	"mesero/internal/services"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	schema := `
	CREATE TABLE tables(id INTEGER PRIMARY KEY AUTOINCREMENT, number INTEGER NOT NULL DEFAULT 0,
	  capacity INTEGER NOT NULL DEFAULT 4, branch TEXT NOT NULL DEFAULT 'main',
	  status TEXT NOT NULL DEFAULT 'available', created_at TEXT DEFAULT CURRENT_TIMESTAMP, updated_at TEXT);
	CREATE TABLE products(id TEXT PRIMARY KEY, name TEXT NOT NULL, description TEXT,
	  price NUMERIC NOT NULL, category TEXT NOT NULL, image_url TEXT NOT NULL DEFAULT '',
	  available INTEGER NOT NULL DEFAULT 1, prep_minutes INTEGER NOT NULL DEFAULT 0,
	  rating NUMERIC NOT NULL DEFAULT 0, favorite INTEGER NOT NULL DEFAULT 0,
	  extras_json TEXT NOT NULL DEFAULT '[]', created_at TEXT DEFAULT CURRENT_TIMESTAMP, updated_at TEXT);
	CREATE TABLE orders(id TEXT PRIMARY KEY, table_id INTEGER NOT NULL, customer_id TEXT NOT NULL,
	  customer_name TEXT NOT NULL DEFAULT '', status TEXT NOT NULL DEFAULT 'active',
	  total NUMERIC NOT NULL DEFAULT 0, created_at TEXT DEFAULT CURRENT_TIMESTAMP, updated_at TEXT);
	CREATE TABLE order_items(id TEXT PRIMARY KEY, order_id TEXT NOT NULL, product_id TEXT NOT NULL,
	  name TEXT NOT NULL, price NUMERIC NOT NULL, qty INTEGER NOT NULL CHECK (qty >= 1),
	  notes TEXT NOT NULL DEFAULT '', status TEXT NOT NULL DEFAULT 'ordered',
	  cancelled_qty INTEGER NOT NULL DEFAULT 0 CHECK (cancelled_qty <= qty),
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP);
	CREATE TABLE waiter_notifications(id TEXT PRIMARY KEY, table_id INTEGER NOT NULL,
	  order_id TEXT NOT NULL DEFAULT '', type TEXT NOT NULL, message TEXT NOT NULL DEFAULT '',
	  status TEXT NOT NULL DEFAULT 'pending', payment_method TEXT NOT NULL DEFAULT '',
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP);
	CREATE TABLE daily_sales(id TEXT PRIMARY KEY, table_id INTEGER NOT NULL, order_count INTEGER NOT NULL,
	  total NUMERIC NOT NULL, payment_method TEXT NOT NULL DEFAULT '', charged_by TEXT NOT NULL DEFAULT '',
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP);

	INSERT INTO tables(number,capacity,branch,status) VALUES (1,4,'main','available');
	INSERT INTO products(id,name,price,category,available,extras_json) VALUES
	  ('prod-chicken-bowl','Chicken Bowl',12.99,'Lunch',1,
	   '[{"name":"Extra chicken","price":2.50},{"name":"Guacamole","price":1.75}]'),
	  ('prod-flan','Flan de Cajeta',5.50,'Postres',1,'[]'),
	  ('prod-86d','Sold Out Special',7.00,'Dinner',0,'[]');
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatal(err)
	}
	return db
}

func newOrderSvc(t *testing.T, db *sqlx.DB) (*services.OrderService, *events.MemoryBus) {
	t.Helper()
	bus := events.NewMemoryBus()
	svc := services.NewOrderService(
		repos.NewOrderRepo(db), repos.NewProductRepo(db), repos.NewNotificationRepo(db), bus,
	)
	return svc, bus
}

func TestStartOccupiesTableAndNotifies(t *testing.T) {
	db := memdb(t)
	svc, bus := newOrderSvc(t, db)

	var heard []events.Event
	unsub, err := bus.Subscribe(events.TopicStaff, func(ev events.Event) { heard = append(heard, ev) })
	if err != nil {
		t.Fatal(err)
	}
	defer unsub()

	o, err := svc.Start(1, 1, "cust-1", "Ana")
	if err != nil {
		t.Fatal(err)
	}
	if o.ID == "" || o.Status != domain.OrderActive {
		t.Fatalf("bad order: %+v", o)
	}

	var status string
	if err := db.Get(&status, `SELECT status FROM tables WHERE id=1`); err != nil {
		t.Fatal(err)
	}
	if status != domain.TableOccupied {
		t.Fatalf("want occupied table, got %s", status)
	}

	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM waiter_notifications WHERE type='new_order' AND order_id=?`, o.ID); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("want one new_order notification, got %d", n)
	}
	if len(heard) != 1 || heard[0].Type != domain.NotifyNewOrder {
		t.Fatalf("staff topic should hear about the new order: %+v", heard)
	}
}

func TestAddUpdateRemoveKeepsTotalInSync(t *testing.T) {
	db := memdb(t)
	svc, _ := newOrderSvc(t, db)

	o, err := svc.Start(1, 1, "cust-1", "Ana")
	if err != nil {
		t.Fatal(err)
	}

	it, err := svc.AddItem(o.ID, "prod-chicken-bowl", 1, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	got, _, err := svc.Refresh(o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !approx(got.Total, 12.99) {
		t.Fatalf("want total 12.99, got %v", got.Total)
	}

	if err := svc.UpdateItemQty(o.ID, it.ID, 3); err != nil {
		t.Fatal(err)
	}
	got, items, err := svc.Refresh(o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !approx(got.Total, 38.97) || services.ItemCount(items) != 3 {
		t.Fatalf("want 38.97 over 3 units, got total=%v count=%d", got.Total, services.ItemCount(items))
	}

	if err := svc.RemoveItem(o.ID, it.ID); err != nil {
		t.Fatal(err)
	}
	got, items, err = svc.Refresh(o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Total != 0 || len(items) != 0 {
		t.Fatalf("want empty order, got total=%v items=%d", got.Total, len(items))
	}
}

func TestUpdateQtyZeroRemovesLine(t *testing.T) {
	db := memdb(t)
	svc, _ := newOrderSvc(t, db)

	o, _ := svc.Start(1, 1, "cust-1", "Ana")
	it, err := svc.AddItem(o.ID, "prod-flan", 2, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.UpdateItemQty(o.ID, it.ID, 0); err != nil {
		t.Fatal(err)
	}
	_, items, err := svc.Refresh(o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("zero quantity should remove the line, got %d lines", len(items))
	}
}

func TestAddItemExtrasFoldIntoPriceAndNotes(t *testing.T) {
	db := memdb(t)
	svc, _ := newOrderSvc(t, db)

	o, _ := svc.Start(1, 1, "cust-1", "Ana")
	it, err := svc.AddItem(o.ID, "prod-chicken-bowl", 1, "no cilantro", []string{"Extra chicken", "not-offered"})
	if err != nil {
		t.Fatal(err)
	}
	if !approx(it.Price, 15.49) {
		t.Fatalf("want 12.99 + 2.50 = 15.49, got %v", it.Price)
	}
	if !strings.Contains(it.Notes, "no cilantro") || !strings.Contains(it.Notes, "Extra chicken (+2.50)") {
		t.Fatalf("notes should carry the chosen extras: %q", it.Notes)
	}
	if strings.Contains(it.Notes, "not-offered") {
		t.Fatalf("extras not on the product must be ignored: %q", it.Notes)
	}
}

func TestAddItemRejectsUnavailableProduct(t *testing.T) {
	db := memdb(t)
	svc, _ := newOrderSvc(t, db)

	o, _ := svc.Start(1, 1, "cust-1", "Ana")
	if _, err := svc.AddItem(o.ID, "prod-86d", 1, "", nil); err != services.ErrUnavailable {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}

func TestItemsDoNotCrossOrders(t *testing.T) {
	db := memdb(t)
	svc, _ := newOrderSvc(t, db)

	a, _ := svc.Start(1, 1, "cust-a", "Ana")
	b, _ := svc.Start(1, 1, "cust-b", "Beto")
	it, err := svc.AddItem(a.ID, "prod-flan", 1, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.RemoveItem(b.ID, it.ID); err != services.ErrNotOnOrder {
		t.Fatalf("want ErrNotOnOrder, got %v", err)
	}
}

func TestSendMovesOrderAndFilesNotification(t *testing.T) {
	db := memdb(t)
	svc, _ := newOrderSvc(t, db)

	o, _ := svc.Start(1, 1, "cust-1", "Ana")
	if _, err := svc.AddItem(o.ID, "prod-flan", 1, "", nil); err != nil {
		t.Fatal(err)
	}
	if err := svc.Send(o.ID, 1); err != nil {
		t.Fatal(err)
	}
	got, _, err := svc.Refresh(o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.OrderSent {
		t.Fatalf("want sent, got %s", got.Status)
	}
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM waiter_notifications WHERE type='order_updated' AND order_id=?`, o.ID); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("want one order_updated notification, got %d", n)
	}

	// A sent order still accepts additions.
	if _, err := svc.AddItem(o.ID, "prod-flan", 1, "", nil); err != nil {
		t.Fatalf("sent order should still accept items: %v", err)
	}
}

func TestRefreshHealsDriftedTotal(t *testing.T) {
	db := memdb(t)
	svc, _ := newOrderSvc(t, db)

	o, _ := svc.Start(1, 1, "cust-1", "Ana")
	if _, err := svc.AddItem(o.ID, "prod-chicken-bowl", 2, "", nil); err != nil {
		t.Fatal(err)
	}
	// Corrupt the stored total behind the service's back.
	if _, err := db.Exec(`UPDATE orders SET total=999 WHERE id=?`, o.ID); err != nil {
		t.Fatal(err)
	}
	got, _, err := svc.Refresh(o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !approx(got.Total, 25.98) {
		t.Fatalf("refresh should heal the total back to 25.98, got %v", got.Total)
	}
	var stored float64
	if err := db.Get(&stored, `SELECT total FROM orders WHERE id=?`, o.ID); err != nil {
		t.Fatal(err)
	}
	if !approx(stored, 25.98) {
		t.Fatalf("healed total should be persisted, got %v", stored)
	}
}
