// Package memory is a process-local store used for tests and USE_MOCK_DB runs.
// It honours the same contracts as the Postgres repositories.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"libraryapi/model"
	"libraryapi/repository"
	borrowingrepo "libraryapi/repository/borrowing"
	"libraryapi/service/query"
)

type state struct {
	nextBookID      int64
	nextBorrowingID int64
	books           map[int64]model.Book
	borrowings      map[int64]model.Borrowing
	users           map[int64]model.User
}

func (s *state) clone() *state {
	c := &state{
		nextBookID:      s.nextBookID,
		nextBorrowingID: s.nextBorrowingID,
		books:           make(map[int64]model.Book, len(s.books)),
		borrowings:      make(map[int64]model.Borrowing, len(s.borrowings)),
		users:           make(map[int64]model.User, len(s.users)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.books {
		c.books[k] = v
	}
	for k, v := range s.borrowings {
		c.borrowings[k] = v
	}
	return c
}

type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store {
	return &Store{st: &state{
		books:      map[int64]model.Book{},
		borrowings: map[int64]model.Borrowing{},
		users:      map[int64]model.User{},
	}}
}

// PutUser registers a borrower so borrowing views can embed it.
func (s *Store) PutUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.users[u.ID] = u
}

func (s *Store) Books() *Books { return &Books{s: s} }

func (s *Store) Borrowings() *Borrowings { return &Borrowings{s: s} }

// Books

type Books struct{ s *Store }

func (r *Books) Create(_ context.Context, b *model.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.titleTaken(b.Title, 0) {
		return repository.ErrDuplicateTitle
	}
	r.s.st.nextBookID++
	b.ID = r.s.st.nextBookID
	r.s.st.books[b.ID] = *b
	return nil
}

func (r *Books) Update(_ context.Context, id int64, p model.BookPatch) (*model.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.st.books[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	next := p.Apply(b)
	if p.Title != nil && r.titleTaken(next.Title, id) {
		return nil, repository.ErrDuplicateTitle
	}
	r.s.st.books[id] = next
	return &next, nil
}

func (r *Books) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.books[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.st.books, id)
	for bid, br := range r.s.st.borrowings {
		if br.BookID == id {
			delete(r.s.st.borrowings, bid)
		}
	}
	return nil
}

func (r *Books) Get(_ context.Context, id int64) (*model.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.st.books[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (r *Books) Search(_ context.Context, f query.BookSearch) ([]model.Book, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var hits []model.Book
	for _, b := range r.s.st.books {
		if f.Matches(b) {
			hits = append(hits, b)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })
	return query.Window(hits, f.Page), len(hits), nil
}

func (r *Books) titleTaken(title string, except int64) bool {
	for id, b := range r.s.st.books {
		if id != except && b.Title == title {
			return true
		}
	}
	return false
}

// Borrowings

type Borrowings struct{ s *Store }

// InTx runs fn under the store lock and restores the prior state if fn fails.
func (r *Borrowings) InTx(ctx context.Context, fn func(tx borrowingrepo.Tx) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := r.s.st.clone()
	if err := fn(&memTx{st: r.s.st}); err != nil {
		r.s.st = snap
		return err
	}
	return nil
}

func (r *Borrowings) Get(_ context.Context, id int64) (*model.BorrowingDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.st.borrowings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	d := r.detail(b)
	return &d, nil
}

func (r *Borrowings) List(_ context.Context, f query.BorrowingFilter) ([]model.BorrowingDetail, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var hits []model.Borrowing
	for _, b := range r.s.st.borrowings {
		if f.Matches(b) {
			hits = append(hits, b)
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if !hits[i].BorrowDate.Equal(hits[j].BorrowDate) {
			return hits[i].BorrowDate.After(hits[j].BorrowDate)
		}
		return hits[i].ID > hits[j].ID
	})
	page := query.Window(hits, f.Page)
	out := make([]model.BorrowingDetail, 0, len(page))
	for _, b := range page {
		out = append(out, r.detail(b))
	}
	return out, len(hits), nil
}

func (r *Borrowings) ListOverdue(_ context.Context, today time.Time) ([]model.OverdueBorrowing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	today = model.DateOf(today)
	var out []model.OverdueBorrowing
	for _, b := range r.s.st.borrowings {
		if !b.Active() || b.ExpectedReturnDate.After(today) {
			continue
		}
		d := r.detail(b)
		out = append(out, model.OverdueBorrowing{
			ID:                 b.ID,
			BorrowDate:         b.BorrowDate,
			ExpectedReturnDate: b.ExpectedReturnDate,
			BookTitle:          d.Book.Title,
			UserEmail:          d.User.Email,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpectedReturnDate.Equal(out[j].ExpectedReturnDate) {
			return out[i].ExpectedReturnDate.Before(out[j].ExpectedReturnDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Borrowings) detail(b model.Borrowing) model.BorrowingDetail {
	u, ok := r.s.st.users[b.UserID]
	if !ok {
		u = model.User{ID: b.UserID}
	}
	return model.BorrowingDetail{Borrowing: b, Book: r.s.st.books[b.BookID], User: u}
}

// memTx runs with the store lock already held.
type memTx struct{ st *state }

func (t *memTx) EnsureUser(_ context.Context, u model.User) error {
	if _, ok := t.st.users[u.ID]; !ok {
		t.st.users[u.ID] = u
	}
	return nil
}

func (t *memTx) BookExists(_ context.Context, bookID int64) (bool, error) {
	_, ok := t.st.books[bookID]
	return ok, nil
}

func (t *memTx) TakeCopy(_ context.Context, bookID int64) (bool, error) {
	b, ok := t.st.books[bookID]
	if !ok || b.Inventory < 1 {
		return false, nil
	}
	b.Inventory--
	t.st.books[bookID] = b
	return true, nil
}

func (t *memTx) PutCopyBack(_ context.Context, bookID int64) error {
	b, ok := t.st.books[bookID]
	if !ok {
		return repository.ErrNotFound
	}
	b.Inventory++
	t.st.books[bookID] = b
	return nil
}

func (t *memTx) InsertBorrowing(_ context.Context, b *model.Borrowing) error {
	t.st.nextBorrowingID++
	b.ID = t.st.nextBorrowingID
	t.st.borrowings[b.ID] = *b
	return nil
}

func (t *memTx) LockBorrowing(_ context.Context, id int64) (*model.Borrowing, error) {
	b, ok := t.st.borrowings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (t *memTx) CloseBorrowing(_ context.Context, id int64, on time.Time) (bool, error) {
	b, ok := t.st.borrowings[id]
	if !ok || !b.Active() {
		return false, nil
	}
	d := model.DateOf(on)
	b.ActualReturnDate = &d
	t.st.borrowings[id] = b
	return true, nil
}
