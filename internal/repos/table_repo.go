package repos

import (
	"mesero/internal/domain"

	"github.com/jmoiron/sqlx"
)

type TableRepo struct{ db *sqlx.DB }

func NewTableRepo(db *sqlx.DB) *TableRepo { return &TableRepo{db: db} }

const tableCols = `id, number, capacity, branch, status, created_at, COALESCE(updated_at,'') AS updated_at`

// Create inserts a table and then sets its display number to the generated id.
// The numbering scheme derives from the primary key, so creation is two steps
// inside one transaction.
func (r *TableRepo) Create(capacity int, branch string) (domain.Table, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return domain.Table{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`INSERT INTO tables(capacity,branch,status) VALUES(?,?,'available')`, capacity, branch)
	if err != nil {
		return domain.Table{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Table{}, err
	}
	if _, err := tx.Exec(`UPDATE tables SET number=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, id, id); err != nil {
		return domain.Table{}, err
	}

	var t domain.Table
	if err := tx.Get(&t, `SELECT `+tableCols+` FROM tables WHERE id=?`, id); err != nil {
		return domain.Table{}, err
	}
	return t, tx.Commit()
}

func (r *TableRepo) Get(id int64) (domain.Table, error) {
	var t domain.Table
	err := r.db.Get(&t, `SELECT `+tableCols+` FROM tables WHERE id=?`, id)
	return t, err
}

func (r *TableRepo) GetByNumber(number int64) (domain.Table, error) {
	var t domain.Table
	err := r.db.Get(&t, `SELECT `+tableCols+` FROM tables WHERE number=?`, number)
	return t, err
}

func (r *TableRepo) List() ([]domain.Table, error) {
	var out []domain.Table
	err := r.db.Select(&out, `SELECT `+tableCols+` FROM tables ORDER BY number`)
	return out, err
}

func (r *TableRepo) UpdateStatus(id int64, status string) error {
	_, err := r.db.Exec(`UPDATE tables SET status=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, status, id)
	return err
}

func (r *TableRepo) Update(id int64, capacity int, branch string) error {
	_, err := r.db.Exec(`UPDATE tables SET capacity=?, branch=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`,
		capacity, branch, id)
	return err
}

func (r *TableRepo) Delete(id int64) error {
	_, err := r.db.Exec(`DELETE FROM tables WHERE id=?`, id)
	return err
}
