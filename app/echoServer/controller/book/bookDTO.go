package book

import (
	"github.com/shopspring/decimal"

	"libraryapi/model"
)

type BookReq struct {
	Title     *string          `json:"title" validate:"omitnil,max=255"`
	Author    *string          `json:"author" validate:"omitnil,max=255"`
	Cover     *string          `json:"cover"`
	Inventory *int64           `json:"inventory" validate:"omitnil,gte=0"`
	DailyFee  *decimal.Decimal `json:"daily_fee"`
}

func (r BookReq) Patch() model.BookPatch {
	p := model.BookPatch{
		Title:     r.Title,
		Author:    r.Author,
		Inventory: r.Inventory,
		DailyFee:  r.DailyFee,
	}
	if r.Cover != nil {
		c := model.Cover(*r.Cover)
		p.Cover = &c
	}
	return p
}

type BookResp struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Cover     string `json:"cover"`
	Inventory int64  `json:"inventory"`
	DailyFee  string `json:"daily_fee"`
}

func ToResp(b model.Book) BookResp {
	return BookResp{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		Cover:     string(b.Cover),
		Inventory: b.Inventory,
		DailyFee:  b.DailyFee.StringFixed(2),
	}
}

func ToResps(books []model.Book) []BookResp {
	out := make([]BookResp, 0, len(books))
	for _, b := range books {
		out = append(out, ToResp(b))
	}
	return out
}
