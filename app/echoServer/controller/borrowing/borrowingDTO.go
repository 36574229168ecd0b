package borrowing

import (
	"libraryapi/app/echoServer/controller/book"
	"libraryapi/model"
)

type CreateReq struct {
	Book               int64  `json:"book" validate:"required"`
	ExpectedReturnDate string `json:"expected_return_date" validate:"required,datetime=2006-01-02"`
}

type UserResp struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsStaff   bool   `json:"is_staff"`
}

type Resp struct {
	ID                 int64         `json:"id"`
	BorrowDate         string        `json:"borrow_date"`
	ExpectedReturnDate string        `json:"expected_return_date"`
	ActualReturnDate   *string       `json:"actual_return_date"`
	Book               book.BookResp `json:"book"`
	User               UserResp      `json:"user"`
}

type CreatedResp struct {
	ID                 int64    `json:"id"`
	User               UserResp `json:"user"`
	Book               int64    `json:"book"`
	ExpectedReturnDate string   `json:"expected_return_date"`
}

func toUser(u model.User) UserResp {
	return UserResp{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, IsStaff: u.IsStaff}
}

func ToResp(d model.BorrowingDetail) Resp {
	r := Resp{
		ID:                 d.ID,
		BorrowDate:         d.BorrowDate.Format(model.DateLayout),
		ExpectedReturnDate: d.ExpectedReturnDate.Format(model.DateLayout),
		Book:               book.ToResp(d.Book),
		User:               toUser(d.User),
	}
	if d.ActualReturnDate != nil {
		s := d.ActualReturnDate.Format(model.DateLayout)
		r.ActualReturnDate = &s
	}
	return r
}

func ToResps(ds []model.BorrowingDetail) []Resp {
	out := make([]Resp, 0, len(ds))
	for _, d := range ds {
		out = append(out, ToResp(d))
	}
	return out
}
