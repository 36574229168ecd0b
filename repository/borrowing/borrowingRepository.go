// repository/borrowing/borrowingRepository.go
package borrowingrepo

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"

	"libraryapi/model"
	"libraryapi/repository"
	"libraryapi/service/query"
	"libraryapi/util/database"
)

var dialect = goqu.Dialect("postgres")

// Tx is the set of statements a borrow or a return runs inside one transaction.
type Tx interface {
	// EnsureUser records a borrower seen in a token so the borrowing can reference it.
	EnsureUser(ctx context.Context, u model.User) error
	BookExists(ctx context.Context, bookID int64) (bool, error)
	// TakeCopy decrements inventory if at least one copy is on the shelf.
	TakeCopy(ctx context.Context, bookID int64) (bool, error)
	PutCopyBack(ctx context.Context, bookID int64) error
	InsertBorrowing(ctx context.Context, b *model.Borrowing) error
	// LockBorrowing reads a borrowing and holds it until the transaction ends.
	LockBorrowing(ctx context.Context, id int64) (*model.Borrowing, error)
	// CloseBorrowing stamps the return date if the borrowing is still open.
	CloseBorrowing(ctx context.Context, id int64, on time.Time) (bool, error)
}

type Repo interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Get(ctx context.Context, id int64) (*model.BorrowingDetail, error)
	List(ctx context.Context, f query.BorrowingFilter) ([]model.BorrowingDetail, int, error)
}

type repo struct {
	db database.Pool
}

func New(db database.Pool) Repo { return &repo{db: db} }

func (r *repo) InTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) EnsureUser(ctx context.Context, u model.User) error {
	const q = `
			INSERT INTO users (id, email, is_staff)
			VALUES ($1,$2,$3)
			ON CONFLICT (id) DO NOTHING`
	_, err := t.tx.Exec(ctx, q, u.ID, u.Email, u.IsStaff)
	return err
}

func (t *pgTx) BookExists(ctx context.Context, bookID int64) (bool, error) {
	var ok bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, bookID).Scan(&ok)
	return ok, err
}

func (t *pgTx) TakeCopy(ctx context.Context, bookID int64) (bool, error) {
	const q = `
			UPDATE books
			SET inventory = inventory - 1
			WHERE id = $1
			AND inventory >= 1`
	tag, err := t.tx.Exec(ctx, q, bookID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (t *pgTx) PutCopyBack(ctx context.Context, bookID int64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE books SET inventory = inventory + 1 WHERE id = $1`, bookID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (t *pgTx) InsertBorrowing(ctx context.Context, b *model.Borrowing) error {
	const q = `
			INSERT INTO borrowings (borrow_date, expected_return_date, book_id, user_id)
			VALUES ($1,$2,$3,$4)
			RETURNING id`
	return t.tx.QueryRow(ctx, q, b.BorrowDate, b.ExpectedReturnDate, b.BookID, b.UserID).Scan(&b.ID)
}

func (t *pgTx) LockBorrowing(ctx context.Context, id int64) (*model.Borrowing, error) {
	const q = `
			SELECT id, borrow_date, expected_return_date, actual_return_date, book_id, user_id
			FROM borrowings
			WHERE id = $1
			FOR UPDATE`
	var b model.Borrowing
	err := t.tx.QueryRow(ctx, q, id).Scan(&b.ID, &b.BorrowDate, &b.ExpectedReturnDate, &b.ActualReturnDate, &b.BookID, &b.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (t *pgTx) CloseBorrowing(ctx context.Context, id int64, on time.Time) (bool, error) {
	const q = `
			UPDATE borrowings
			SET actual_return_date = $2
			WHERE id = $1
			AND actual_return_date IS NULL`
	tag, err := t.tx.Exec(ctx, q, id, on)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Reads

var detailCols = []any{
	goqu.I("br.id"), goqu.I("br.borrow_date"), goqu.I("br.expected_return_date"), goqu.I("br.actual_return_date"),
	goqu.I("br.book_id"), goqu.I("br.user_id"),
	goqu.I("b.id"), goqu.I("b.title"), goqu.I("b.author"), goqu.I("b.cover"), goqu.I("b.inventory"), goqu.I("b.daily_fee"),
	goqu.I("u.id"), goqu.I("u.email"), goqu.I("u.first_name"), goqu.I("u.last_name"), goqu.I("u.is_staff"),
}

func detailDataset() *goqu.SelectDataset {
	return dialect.From(goqu.T("borrowings").As("br")).Prepared(true).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("br.book_id")))).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("br.user_id"))))
}

func listDataset(f query.BorrowingFilter) *goqu.SelectDataset {
	ds := detailDataset()
	if f.UserID != nil {
		ds = ds.Where(goqu.I("br.user_id").Eq(*f.UserID))
	}
	if f.IsActive != nil {
		if *f.IsActive {
			ds = ds.Where(goqu.I("br.actual_return_date").IsNull())
		} else {
			ds = ds.Where(goqu.I("br.actual_return_date").IsNotNull())
		}
	}
	return ds
}

func (r *repo) Get(ctx context.Context, id int64) (*model.BorrowingDetail, error) {
	q, args, err := detailDataset().Select(detailCols...).Where(goqu.I("br.id").Eq(id)).ToSQL()
	if err != nil {
		return nil, err
	}
	d, err := scanDetail(r.db.QueryRow(ctx, q, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return d, err
}

func (r *repo) List(ctx context.Context, f query.BorrowingFilter) ([]model.BorrowingDetail, int, error) {
	cq, cargs, err := listDataset(f).Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, cq, cargs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q, args, err := listDataset(f).
		Select(detailCols...).
		Order(goqu.I("br.borrow_date").Desc(), goqu.I("br.id").Desc()).
		Limit(uint(f.Page.Size)).
		Offset(uint(f.Page.Offset())).
		ToSQL()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.BorrowingDetail, 0, f.Page.Size)
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}

func scanDetail(row pgx.Row) (*model.BorrowingDetail, error) {
	var d model.BorrowingDetail
	var cover string
	err := row.Scan(
		&d.ID, &d.BorrowDate, &d.ExpectedReturnDate, &d.ActualReturnDate, &d.BookID, &d.UserID,
		&d.Book.ID, &d.Book.Title, &d.Book.Author, &cover, &d.Book.Inventory, &d.Book.DailyFee,
		&d.User.ID, &d.User.Email, &d.User.FirstName, &d.User.LastName, &d.User.IsStaff,
	)
	if err != nil {
		return nil, err
	}
	d.Book.Cover = model.Cover(cover)
	return &d, nil
}
