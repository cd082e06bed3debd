package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline data if DB is empty (tables/products)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure staff users exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Dining tables. number mirrors id (set right after insert).
CREATE TABLE IF NOT EXISTS tables(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  number INTEGER NOT NULL DEFAULT 0,
  capacity INTEGER NOT NULL DEFAULT 4 CHECK (capacity >= 1),
  branch TEXT NOT NULL DEFAULT 'main',
  status TEXT NOT NULL DEFAULT 'available'
    CHECK (status IN ('available','occupied','reserved','maintenance')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_tables_status ON tables(status);

-- Menu products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  price NUMERIC NOT NULL CHECK (price >= 0),
  category TEXT NOT NULL CHECK (category IN
    ('Breakfast','Lunch','Dinner','Combos','Refill','Bebidas','Postres','Drinks')),
  image_url TEXT NOT NULL DEFAULT '',
  available INTEGER NOT NULL DEFAULT 1,
  prep_minutes INTEGER NOT NULL DEFAULT 0,
  rating NUMERIC NOT NULL DEFAULT 0,
  favorite INTEGER NOT NULL DEFAULT 0,
  extras_json TEXT NOT NULL DEFAULT '[]',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
CREATE INDEX IF NOT EXISTS idx_products_name     ON products(LOWER(name));

-- Orders: one per seated customer, several may share a table.
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  table_id INTEGER NOT NULL REFERENCES tables(id) ON DELETE RESTRICT,
  customer_id TEXT NOT NULL,
  customer_name TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'active'
    CHECK (status IN ('active','sent','completed','paid','cancelled')),
  total NUMERIC NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_orders_table  ON orders(table_id);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);

CREATE TABLE IF NOT EXISTS order_items(
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id),
  name TEXT NOT NULL,
  price NUMERIC NOT NULL,
  qty INTEGER NOT NULL CHECK (qty >= 1),
  notes TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'ordered'
    CHECK (status IN ('ordered','preparing','ready','served','cancelled')),
  cancelled_qty INTEGER NOT NULL DEFAULT 0 CHECK (cancelled_qty <= qty),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);

-- Waitstaff notifications
CREATE TABLE IF NOT EXISTS waiter_notifications(
  id TEXT PRIMARY KEY,
  table_id INTEGER NOT NULL REFERENCES tables(id) ON DELETE CASCADE,
  order_id TEXT NOT NULL DEFAULT '',
  type TEXT NOT NULL CHECK (type IN
    ('new_order','assistance','bill_request','order_updated','table_freed')),
  message TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending'
    CHECK (status IN ('pending','acknowledged','completed')),
  payment_method TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_notifications_status ON waiter_notifications(status);

-- Closing records written when a table is charged
CREATE TABLE IF NOT EXISTS daily_sales(
  id TEXT PRIMARY KEY,
  table_id INTEGER NOT NULL,
  order_count INTEGER NOT NULL,
  total NUMERIC NOT NULL,
  payment_method TEXT NOT NULL DEFAULT '',
  charged_by TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_daily_sales_created ON daily_sales(created_at);

-- Staff users & their cookie sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('WAITER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo tables/products")

	tx := db.MustBegin()
	for i := 0; i < 8; i++ {
		r := tx.MustExec(`INSERT INTO tables(capacity,branch,status) VALUES(4,'main','available')`)
		id, _ := r.LastInsertId()
		tx.MustExec(`UPDATE tables SET number=? WHERE id=?`, id, id)
	}

	tx.MustExec(`INSERT INTO products(id,name,description,price,category,available,prep_minutes,rating,favorite,extras_json) VALUES
	  ('prod-chicken-bowl','Chicken Bowl','Grilled chicken over rice with salsa verde','12.99','Lunch',1,12,4.7,1,
	   '[{"name":"Extra chicken","price":2.50},{"name":"Guacamole","price":1.75}]'),
	  ('prod-chilaquiles','Chilaquiles Verdes','Tortilla chips in green salsa, crema and egg','9.50','Breakfast',1,10,4.5,0,'[]'),
	  ('prod-carne-asada','Carne Asada Plate','Flank steak, beans, tortillas','16.75','Dinner',1,18,4.8,1,
	   '[{"name":"Extra tortillas","price":1.00}]'),
	  ('prod-combo-familiar','Combo Familiar','Two mains, two sides, pitcher of agua fresca','34.00','Combos',1,25,4.4,0,'[]'),
	  ('prod-refill-soda','Soda Refill','Bottomless fountain drink','2.00','Refill',1,1,4.0,0,'[]'),
	  ('prod-horchata','Horchata','House rice-cinnamon drink','3.25','Bebidas',1,2,4.6,1,'[]'),
	  ('prod-flan','Flan de Cajeta','Caramel custard','5.50','Postres',1,5,4.9,1,'[]'),
	  ('prod-margarita','Margarita','Classic lime margarita','8.00','Drinks',1,4,4.3,0,'[]')`)

	return tx.Commit()
}

// seedUsers ensures two WAITERs and one ADMIN exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-rosa", "rosa@mesero.test", "Rosa", "WAITER", "Passw0rd!"),
		mk("u-diego", "diego@mesero.test", "Diego", "WAITER", "Passw0rd!"),
		mk("u-admin", "admin@mesero.test", "Admin", "ADMIN", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
