// Package borrowingsvc runs the borrow/return state machine and the overdue sweep.
package borrowingsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"libraryapi/model"
	"libraryapi/repository"
	borrowingrepo "libraryapi/repository/borrowing"
	"libraryapi/service/policy"
	"libraryapi/service/query"
)

// errors used by controllers

type ErrCode string

const (
	ErrAuthRequired    ErrCode = "AUTH_REQUIRED"
	ErrInvalidDate     ErrCode = "INVALID_DATE"
	ErrBookNotFound    ErrCode = "BOOK_NOT_FOUND"
	ErrOutOfStock      ErrCode = "OUT_OF_STOCK"
	ErrAlreadyReturned ErrCode = "ALREADY_RETURNED"
	ErrNotFound        ErrCode = "NOT_FOUND"
)

type codedError struct {
	code  ErrCode
	field string
	msg   string
}

func (e codedError) Error() string {
	if e.msg == "" {
		return string(e.code)
	}
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

func (e codedError) Code() ErrCode { return e.code }

func makeErr(c ErrCode) error { return codedError{code: c} }

func fieldErr(c ErrCode, field, msg string) error { return codedError{code: c, field: field, msg: msg} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Reason returns the field a validation error is about and its message.
func Reason(err error) (field, msg string) {
	var ce codedError
	if errors.As(err, &ce) {
		return ce.field, ce.msg
	}
	return "", ""
}

const (
	NonFieldErrors = "non_field_errors"

	msgPastDate        = "must not be in the past."
	msgOutOfStock      = "This book is out of stock."
	msgAlreadyReturned = "This book has already been returned."
)

type Repo interface {
	InTx(ctx context.Context, fn func(tx borrowingrepo.Tx) error) error
	Get(ctx context.Context, id int64) (*model.BorrowingDetail, error)
	List(ctx context.Context, f query.BorrowingFilter) ([]model.BorrowingDetail, int, error)
}

// Notifier fires a message without waiting for delivery.
type Notifier interface {
	Dispatch(text string)
}

type Journal interface {
	Record(ctx context.Context, ev model.LendingEvent) error
}

type Service interface {
	Borrow(ctx context.Context, p model.Principal, bookID int64, expected time.Time) (*model.BorrowingDetail, error)
	Return(ctx context.Context, p model.Principal, id int64) (*model.Borrowing, error)
	Get(ctx context.Context, p model.Principal, id int64) (*model.BorrowingDetail, error)
	List(ctx context.Context, p model.Principal, f query.BorrowingFilter) ([]model.BorrowingDetail, int, error)
}

var _ Service = (*Ledger)(nil)

type Ledger struct {
	r       Repo
	n       Notifier
	j       Journal
	now     func() time.Time
	log     *zap.Logger
	journal time.Duration
}

type Option func(*Ledger)

func WithNotifier(n Notifier) Option { return func(l *Ledger) { l.n = n } }

func WithJournal(j Journal) Option { return func(l *Ledger) { l.j = j } }

func WithClock(now func() time.Time) Option { return func(l *Ledger) { l.now = now } }

func WithLogger(log *zap.Logger) Option { return func(l *Ledger) { l.log = log } }

func New(r Repo, opts ...Option) *Ledger {
	l := &Ledger{r: r, now: time.Now, log: zap.NewNop(), journal: 2 * time.Second}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Borrow takes one copy of bookID off the shelf for p. The decrement and the new
// borrowing commit together; the notification and journal entry happen after.
func (l *Ledger) Borrow(ctx context.Context, p model.Principal, bookID int64, expected time.Time) (*model.BorrowingDetail, error) {
	if policy.CheckSelf(p, policy.BorrowingCreate) != policy.Allow {
		return nil, makeErr(ErrAuthRequired)
	}
	today := model.DateOf(l.now())
	expected = model.DateOf(expected)
	if expected.Before(today) {
		return nil, fieldErr(ErrInvalidDate, "expected_return_date", msgPastDate)
	}

	b := model.Borrowing{
		BorrowDate:         today,
		ExpectedReturnDate: expected,
		BookID:             bookID,
		UserID:             p.UserID,
	}
	err := l.r.InTx(ctx, func(tx borrowingrepo.Tx) error {
		taken, err := tx.TakeCopy(ctx, bookID)
		if err != nil {
			return fmt.Errorf("take copy: %w", err)
		}
		if !taken {
			exists, err := tx.BookExists(ctx, bookID)
			if err != nil {
				return fmt.Errorf("check book: %w", err)
			}
			if !exists {
				return fieldErr(ErrBookNotFound, "book", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", bookID))
			}
			return fieldErr(ErrOutOfStock, "book", msgOutOfStock)
		}
		if err := tx.EnsureUser(ctx, model.User{ID: p.UserID, Email: p.Email, IsStaff: p.IsStaff()}); err != nil {
			return fmt.Errorf("ensure user: %w", err)
		}
		if err := tx.InsertBorrowing(ctx, &b); err != nil {
			return fmt.Errorf("insert borrowing: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	d, err := l.r.Get(ctx, b.ID)
	if err != nil {
		l.log.Warn("reload borrowing failed", zap.Int64("borrowing_id", b.ID), zap.Error(err))
		d = &model.BorrowingDetail{Borrowing: b, User: model.User{ID: p.UserID, Email: p.Email}}
	}

	if l.n != nil {
		l.n.Dispatch(BorrowMessage(*d))
	}
	l.record(ctx, model.LendingBorrowed, b, today)
	return d, nil
}

// Return closes an open borrowing and puts the copy back. A borrowing the
// caller may not touch is reported as missing.
func (l *Ledger) Return(ctx context.Context, p model.Principal, id int64) (*model.Borrowing, error) {
	if !p.Authenticated() {
		return nil, makeErr(ErrAuthRequired)
	}
	today := model.DateOf(l.now())

	var closed model.Borrowing
	err := l.r.InTx(ctx, func(tx borrowingrepo.Tx) error {
		b, err := tx.LockBorrowing(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return makeErr(ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock borrowing: %w", err)
		}
		if policy.Check(p, policy.BorrowingReturn, b.UserID) != policy.Allow {
			return makeErr(ErrNotFound)
		}
		if !b.Active() {
			return fieldErr(ErrAlreadyReturned, NonFieldErrors, msgAlreadyReturned)
		}

		ok, err := tx.CloseBorrowing(ctx, id, today)
		if err != nil {
			return fmt.Errorf("close borrowing: %w", err)
		}
		if !ok {
			return fieldErr(ErrAlreadyReturned, NonFieldErrors, msgAlreadyReturned)
		}
		if err := tx.PutCopyBack(ctx, b.BookID); err != nil {
			return fmt.Errorf("restock book: %w", err)
		}

		b.ActualReturnDate = &today
		closed = *b
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.record(ctx, model.LendingReturned, closed, today)
	return &closed, nil
}

func (l *Ledger) Get(ctx context.Context, p model.Principal, id int64) (*model.BorrowingDetail, error) {
	if !p.Authenticated() {
		return nil, makeErr(ErrAuthRequired)
	}
	d, err := l.r.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, makeErr(ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get borrowing: %w", err)
	}
	if policy.Check(p, policy.BorrowingRead, d.UserID) != policy.Allow {
		return nil, makeErr(ErrNotFound)
	}
	return d, nil
}

// List returns the page of borrowings p may see that match f.
func (l *Ledger) List(ctx context.Context, p model.Principal, f query.BorrowingFilter) ([]model.BorrowingDetail, int, error) {
	if policy.CheckSelf(p, policy.BorrowingRead) != policy.Allow {
		return nil, 0, makeErr(ErrAuthRequired)
	}
	items, total, err := l.r.List(ctx, query.ScopeBorrowings(p, f))
	if err != nil {
		return nil, 0, fmt.Errorf("list borrowings: %w", err)
	}
	return items, total, nil
}

func (l *Ledger) record(ctx context.Context, kind model.LendingEventKind, b model.Borrowing, day time.Time) {
	if l.j == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.journal)
	defer cancel()
	ev := model.LendingEvent{
		Kind:        kind,
		BorrowingID: b.ID,
		BookID:      b.BookID,
		UserID:      b.UserID,
		Date:        day,
		RecordedAt:  l.now().UTC(),
	}
	if err := l.j.Record(ctx, ev); err != nil {
		l.log.Warn("journal write failed", zap.String("kind", string(kind)), zap.Int64("borrowing_id", b.ID), zap.Error(err))
	}
}

func BorrowMessage(d model.BorrowingDetail) string {
	return fmt.Sprintf("New borrowing created!\nBook title: %s\nUser: %s\nExpected return date: %s",
		d.Book.Title, d.User.Email, d.ExpectedReturnDate.Format(model.DateLayout))
}
