// model/book.go
package model

import "github.com/shopspring/decimal"

type Cover string

const (
	CoverHard Cover = "HARD"
	CoverSoft Cover = "SOFT"
)

func (c Cover) Valid() bool { return c == CoverHard || c == CoverSoft }

type Book struct {
	ID        int64           `json:"id" db:"id"`
	Title     string          `json:"title" db:"title"`
	Author    string          `json:"author" db:"author"`
	Cover     Cover           `json:"cover" db:"cover"`
	Inventory int64           `json:"inventory" db:"inventory"`
	DailyFee  decimal.Decimal `json:"daily_fee" db:"daily_fee"`
}

// BookPatch carries a partial update; nil fields are left untouched.
type BookPatch struct {
	Title     *string
	Author    *string
	Cover     *Cover
	Inventory *int64
	DailyFee  *decimal.Decimal
}

func (p BookPatch) Empty() bool {
	return p.Title == nil && p.Author == nil && p.Cover == nil && p.Inventory == nil && p.DailyFee == nil
}

// Apply returns b with the patch applied.
func (p BookPatch) Apply(b Book) Book {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Cover != nil {
		b.Cover = *p.Cover
	}
	if p.Inventory != nil {
		b.Inventory = *p.Inventory
	}
	if p.DailyFee != nil {
		b.DailyFee = *p.DailyFee
	}
	return b
}
