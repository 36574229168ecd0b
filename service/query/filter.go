// Package query holds the search and scoping rules shared by the HTTP layer and the stores.
package query

import (
	"math"
	"strings"

	"libraryapi/model"
)

const (
	BookPageSize      = 15
	BorrowingPageSize = 5
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	return Page{Number: number, Size: size}
}

// Offset is the number of items before the page. It saturates at math.MaxInt
// so a page far past the end stays past the end.
func (p Page) Offset() int {
	if p.Number <= 1 || p.Size <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

// Valid reports whether the page exists for total items. The first page always exists.
func (p Page) Valid(total int) bool {
	return p.Number == 1 || p.Offset() < total
}

func (p Page) HasNext(total int) bool {
	off := p.Offset()
	return off < total && total-off > p.Size
}

// Window slices items down to the page.
func Window[T any](items []T, p Page) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Size
	if p.Size <= 0 || p.Size > len(items)-start {
		end = len(items)
	}
	return items[start:end]
}

type BookSearch struct {
	Title  string
	Author string
	Page   Page
}

// Matches applies the case-insensitive substring rules.
func (f BookSearch) Matches(b model.Book) bool {
	if f.Title != "" && !containsFold(b.Title, f.Title) {
		return false
	}
	if f.Author != "" && !containsFold(b.Author, f.Author) {
		return false
	}
	return true
}

type BorrowingFilter struct {
	UserID   *int64
	IsActive *bool
	Page     Page
}

func (f BorrowingFilter) Matches(b model.Borrowing) bool {
	if f.UserID != nil && b.UserID != *f.UserID {
		return false
	}
	if f.IsActive != nil && b.Active() != *f.IsActive {
		return false
	}
	return true
}

// ScopeBorrowings narrows a requested filter to what p may see. Members only ever
// see their own borrowings; staff see everything unless they ask for one user.
func ScopeBorrowings(p model.Principal, requested BorrowingFilter) BorrowingFilter {
	out := requested
	if !p.IsStaff() {
		uid := p.UserID
		out.UserID = &uid
	}
	return out
}

// ParseIsActive accepts "true" or "false" in any case. Anything else means no filter.
func ParseIsActive(raw string) *bool {
	var v bool
	switch strings.ToLower(raw) {
	case "true":
		v = true
	case "false":
		v = false
	default:
		return nil
	}
	return &v
}

// EscapeLike escapes LIKE metacharacters so user input matches literally.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
