package domain

// Table statuses
const (
	TableAvailable   = "available"
	TableOccupied    = "occupied"
	TableReserved    = "reserved"
	TableMaintenance = "maintenance"
)

// Order statuses
const (
	OrderActive    = "active"
	OrderSent      = "sent"
	OrderCompleted = "completed"
	OrderPaid      = "paid"
	OrderCancelled = "cancelled"
)

// Order item statuses
const (
	ItemOrdered   = "ordered"
	ItemPreparing = "preparing"
	ItemReady     = "ready"
	ItemServed    = "served"
	ItemCancelled = "cancelled"
)

// Notification types
const (
	NotifyNewOrder     = "new_order"
	NotifyAssistance   = "assistance"
	NotifyBillRequest  = "bill_request"
	NotifyOrderUpdated = "order_updated"
	NotifyTableFreed   = "table_freed"
)

// Notification statuses
const (
	NotificationPending      = "pending"
	NotificationAcknowledged = "acknowledged"
	NotificationCompleted    = "completed"
)

// Categories is the fixed menu taxonomy, in display order.
var Categories = []string{
	"Breakfast", "Lunch", "Dinner", "Combos", "Refill", "Bebidas", "Postres", "Drinks",
}

type Table struct {
	ID        int64  `db:"id"`
	Number    int64  `db:"number"`
	Capacity  int    `db:"capacity"`
	Branch    string `db:"branch"`
	Status    string `db:"status"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

type Product struct {
	ID          string  `db:"id"`
	Name        string  `db:"name"`
	Description string  `db:"description"`
	Price       float64 `db:"price"`
	Category    string  `db:"category"`
	ImageURL    string  `db:"image_url"`
	Available   bool    `db:"available"`
	PrepMinutes int     `db:"prep_minutes"`
	Rating      float64 `db:"rating"`
	Favorite    bool    `db:"favorite"`
	ExtrasJSON  string  `db:"extras_json"` // [{"name":...,"price":...}]
	CreatedAt   string  `db:"created_at"`
	UpdatedAt   string  `db:"updated_at"`
}

// Extra is a paid add-on offered on a product.
type Extra struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type Order struct {
	ID           string  `db:"id"`
	TableID      int64   `db:"table_id"`
	CustomerID   string  `db:"customer_id"`
	CustomerName string  `db:"customer_name"`
	Status       string  `db:"status"`
	Total        float64 `db:"total"`
	CreatedAt    string  `db:"created_at"`
	UpdatedAt    string  `db:"updated_at"`
}

type OrderItem struct {
	ID           string  `db:"id"`
	OrderID      string  `db:"order_id"`
	ProductID    string  `db:"product_id"`
	Name         string  `db:"name"`  // snapshot at add time
	Price        float64 `db:"price"` // snapshot, extras included
	Qty          int     `db:"qty"`
	Notes        string  `db:"notes"` // free text; selected extras ride along here
	Status       string  `db:"status"`
	CancelledQty int     `db:"cancelled_qty"`
	CreatedAt    string  `db:"created_at"`
}

// ActiveQty is the billable quantity of the line.
func (it OrderItem) ActiveQty() int { return it.Qty - it.CancelledQty }

type Notification struct {
	ID            string `db:"id"`
	TableID       int64  `db:"table_id"`
	OrderID       string `db:"order_id"`
	Type          string `db:"type"`
	Message       string `db:"message"`
	Status        string `db:"status"`
	PaymentMethod string `db:"payment_method"`
	CreatedAt     string `db:"created_at"`
}

// DailySale is the closing record written when staff charges a table.
type DailySale struct {
	ID            string  `db:"id"`
	TableID       int64   `db:"table_id"`
	OrderCount    int     `db:"order_count"`
	Total         float64 `db:"total"`
	PaymentMethod string  `db:"payment_method"`
	ChargedBy     string  `db:"charged_by"`
	CreatedAt     string  `db:"created_at"`
}
