// model/borrowing.go
package model

import "time"

type Borrowing struct {
	ID                 int64      `json:"id" db:"id"`
	BorrowDate         time.Time  `json:"borrow_date" db:"borrow_date"`
	ExpectedReturnDate time.Time  `json:"expected_return_date" db:"expected_return_date"`
	ActualReturnDate   *time.Time `json:"actual_return_date" db:"actual_return_date"`
	BookID             int64      `json:"book_id" db:"book_id"`
	UserID             int64      `json:"user_id" db:"user_id"`
}

// Active reports whether the book is still out.
func (b Borrowing) Active() bool { return b.ActualReturnDate == nil }

// BorrowingDetail is a borrowing joined with its book and borrower.
type BorrowingDetail struct {
	Borrowing
	Book Book
	User User
}

type OverdueBorrowing struct {
	ID                 int64     `db:"id"`
	BorrowDate         time.Time `db:"borrow_date"`
	ExpectedReturnDate time.Time `db:"expected_return_date"`
	BookTitle          string    `db:"book_title"`
	UserEmail          string    `db:"user_email"`
}

type LendingEventKind string

const (
	LendingBorrowed LendingEventKind = "BORROWED"
	LendingReturned LendingEventKind = "RETURNED"
)

// LendingEvent is one line of the lending journal.
type LendingEvent struct {
	Kind        LendingEventKind
	BorrowingID int64
	BookID      int64
	UserID      int64
	Date        time.Time
	RecordedAt  time.Time
}
