package repos

import (
	"mesero/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
  id, name, COALESCE(description,'') AS description, price, category, image_url, available,
  prep_minutes, rating, favorite, extras_json,
  created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ProductRepo) ListByCategory(category string, onlyAvailable bool) ([]domain.Product, error) {
	q := `SELECT ` + productCols + ` FROM products WHERE category = ?`
	if onlyAvailable {
		q += ` AND available = 1`
	}
	q += ` ORDER BY favorite DESC, name`
	var out []domain.Product
	err := r.db.Select(&out, q, category)
	return out, err
}

func (r *ProductRepo) ListAll() ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `SELECT `+productCols+` FROM products ORDER BY category, name`)
	return out, err
}

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	return p, err
}

func (r *ProductRepo) Search(q string, onlyAvailable bool) ([]domain.Product, error) {
	where := `(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)`
	args := []any{"%" + q + "%", "%" + q + "%"}
	if onlyAvailable {
		where += ` AND available = 1`
	}
	var out []domain.Product
	err := r.db.Select(&out, `SELECT `+productCols+` FROM products WHERE `+where+` ORDER BY name`, args...)
	return out, err
}

func (r *ProductRepo) Create(p domain.Product) error {
	_, err := r.db.Exec(`
	  INSERT INTO products(id,name,description,price,category,image_url,available,
	    prep_minutes,rating,favorite,extras_json)
	  VALUES(?,?,?,?,?,?,?,?,?,?,?)
	`, p.ID, p.Name, p.Description, p.Price, p.Category, p.ImageURL, p.Available,
		p.PrepMinutes, p.Rating, p.Favorite, p.ExtrasJSON)
	return err
}

func (r *ProductRepo) Update(p domain.Product) error {
	_, err := r.db.Exec(`
	  UPDATE products SET name=?, description=?, price=?, category=?, image_url=?,
	    prep_minutes=?, rating=?, favorite=?, extras_json=?, updated_at=CURRENT_TIMESTAMP
	  WHERE id=?
	`, p.Name, p.Description, p.Price, p.Category, p.ImageURL,
		p.PrepMinutes, p.Rating, p.Favorite, p.ExtrasJSON, p.ID)
	return err
}

func (r *ProductRepo) SetAvailability(id string, available bool) error {
	_, err := r.db.Exec(`UPDATE products SET available=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, available, id)
	return err
}

func (r *ProductRepo) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM products WHERE id=?`, id)
	return err
}
