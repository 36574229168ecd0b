package bookrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"libraryapi/model"
	"libraryapi/repository"
	"libraryapi/service/query"
	"libraryapi/util/database"
)

var dialect = goqu.Dialect("postgres")

var bookCols = []any{"id", "title", "author", "cover", "inventory", "daily_fee"}

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	Update(ctx context.Context, id int64, p model.BookPatch) (*model.Book, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*model.Book, error)
	Search(ctx context.Context, f query.BookSearch) ([]model.Book, int, error)
}

type repo struct{ db database.DBTX }

func New(db database.DBTX) Repo { return &repo{db} }

func (r *repo) Create(ctx context.Context, b *model.Book) error {
	const q = `
INSERT INTO books (title, author, cover, inventory, daily_fee)
VALUES ($1,$2,$3,$4,$5)
RETURNING id`
	if err := r.db.QueryRow(ctx, q, b.Title, b.Author, string(b.Cover), b.Inventory, b.DailyFee).Scan(&b.ID); err != nil {
		return mapWriteErr(err)
	}
	return nil
}

func (r *repo) Update(ctx context.Context, id int64, p model.BookPatch) (*model.Book, error) {
	if p.Empty() {
		return r.Get(ctx, id)
	}
	rec := goqu.Record{}
	if p.Title != nil {
		rec["title"] = *p.Title
	}
	if p.Author != nil {
		rec["author"] = *p.Author
	}
	if p.Cover != nil {
		rec["cover"] = string(*p.Cover)
	}
	if p.Inventory != nil {
		rec["inventory"] = *p.Inventory
	}
	if p.DailyFee != nil {
		rec["daily_fee"] = p.DailyFee.StringFixed(2)
	}

	q, args, err := dialect.Update("books").Prepared(true).
		Set(rec).
		Where(goqu.C("id").Eq(id)).
		Returning(bookCols...).
		ToSQL()
	if err != nil {
		return nil, err
	}
	b, err := scanBook(r.db.QueryRow(ctx, q, args...))
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return b, nil
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *repo) Get(ctx context.Context, id int64) (*model.Book, error) {
	const q = `
SELECT id, title, author, cover, inventory, daily_fee
FROM books
WHERE id = $1`
	b, err := scanBook(r.db.QueryRow(ctx, q, id))
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return b, nil
}

func (r *repo) Search(ctx context.Context, f query.BookSearch) ([]model.Book, int, error) {
	cq, cargs, err := searchDataset(f).Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, cq, cargs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q, args, err := searchDataset(f).
		Select(bookCols...).
		Order(goqu.C("id").Asc()).
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

	out := make([]model.Book, 0, f.Page.Size)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	return out, total, rows.Err()
}

// searchDataset builds the WHERE clause shared by the count and page queries.
func searchDataset(f query.BookSearch) *goqu.SelectDataset {
	ds := dialect.From("books").Prepared(true)
	if f.Title != "" {
		ds = ds.Where(goqu.C("title").ILike("%" + query.EscapeLike(f.Title) + "%"))
	}
	if f.Author != "" {
		ds = ds.Where(goqu.C("author").ILike("%" + query.EscapeLike(f.Author) + "%"))
	}
	return ds
}

func scanBook(row pgx.Row) (*model.Book, error) {
	var b model.Book
	var cover string
	if err := row.Scan(&b.ID, &b.Title, &b.Author, &cover, &b.Inventory, &b.DailyFee); err != nil {
		return nil, err
	}
	b.Cover = model.Cover(cover)
	return &b, nil
}

func mapWriteErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		if strings.Contains(strings.ToLower(pgErr.ConstraintName), "title") {
			return repository.ErrDuplicateTitle
		}
	}
	return err
}
