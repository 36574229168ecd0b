package borrowingrepo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"libraryapi/model"
)

// OverdueReader lists open borrowings due on or before a given day.
type OverdueReader struct {
	db *sqlx.DB
}

func NewOverdueReader(db *sqlx.DB) *OverdueReader { return &OverdueReader{db: db} }

func (r *OverdueReader) ListOverdue(ctx context.Context, today time.Time) ([]model.OverdueBorrowing, error) {
	const q = `
			SELECT br.id, br.borrow_date, br.expected_return_date,
			       b.title AS book_title, u.email AS user_email
			FROM borrowings br
			JOIN books b ON b.id = br.book_id
			JOIN users u ON u.id = br.user_id
			WHERE br.actual_return_date IS NULL
			AND br.expected_return_date <= $1
			ORDER BY br.expected_return_date, br.id`
	var out []model.OverdueBorrowing
	if err := r.db.SelectContext(ctx, &out, q, model.DateOf(today)); err != nil {
		return nil, err
	}
	return out, nil
}
