package booksvc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"libraryapi/model"
	"libraryapi/repository"
	"libraryapi/service/query"
)

// errors used by controllers

type ErrCode string

const (
	ErrInvalidField   ErrCode = "INVALID_FIELD"
	ErrDuplicateTitle ErrCode = "DUPLICATE_TITLE"
	ErrNotFound       ErrCode = "NOT_FOUND"
)

const (
	msgRequired  = "This field is required."
	msgBlank     = "This field may not be blank."
	msgTooLong   = "Ensure this field has no more than 255 characters."
	msgNegative  = "Ensure this value is greater than or equal to 0."
	msgPlaces    = "Ensure that there are no more than 2 decimal places."
	msgDigits    = "Ensure that there are no more than 10 digits in total."
	msgDuplicate = "book with this title already exists."
)

type codedError struct {
	code   ErrCode
	fields map[string][]string
}

func (e codedError) Error() string {
	if len(e.fields) == 0 {
		return string(e.code)
	}
	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.fields[k], " "))
	}
	return string(e.code) + " (" + strings.Join(parts, "; ") + ")"
}

func (e codedError) Code() ErrCode { return e.code }

func (e codedError) Fields() map[string][]string { return e.fields }

func makeErr(c ErrCode) error { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Fields returns the per-field messages carried by a validation error.
func Fields(err error) map[string][]string {
	var ce codedError
	if errors.As(err, &ce) {
		return ce.fields
	}
	return nil
}

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	Update(ctx context.Context, id int64, p model.BookPatch) (*model.Book, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*model.Book, error)
	Search(ctx context.Context, f query.BookSearch) ([]model.Book, int, error)
}

type Service interface {
	Create(ctx context.Context, in model.BookPatch) (*model.Book, error)
	Update(ctx context.Context, id int64, in model.BookPatch) (*model.Book, error)
	Replace(ctx context.Context, id int64, in model.BookPatch) (*model.Book, error)
	Delete(ctx context.Context, id int64) error
	Detail(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context, f query.BookSearch) ([]model.Book, int, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

// Create stores a new book. Every field but cover is required.
func (s *service) Create(ctx context.Context, in model.BookPatch) (*model.Book, error) {
	p, err := normalize(in, true)
	if err != nil {
		return nil, err
	}
	b := p.Apply(model.Book{Cover: model.CoverSoft})
	if err := s.r.Create(ctx, &b); err != nil {
		return nil, mapRepoErr(err)
	}
	return &b, nil
}

func (s *service) Update(ctx context.Context, id int64, in model.BookPatch) (*model.Book, error) {
	p, err := normalize(in, false)
	if err != nil {
		return nil, err
	}
	b, err := s.r.Update(ctx, id, p)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return b, nil
}

// Replace overwrites every field of a book, with the same rules as Create.
func (s *service) Replace(ctx context.Context, id int64, in model.BookPatch) (*model.Book, error) {
	p, err := normalize(in, true)
	if err != nil {
		return nil, err
	}
	b, err := s.r.Update(ctx, id, p)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return b, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.r.Delete(ctx, id); err != nil {
		return mapRepoErr(err)
	}
	return nil
}

func (s *service) Detail(ctx context.Context, id int64) (*model.Book, error) {
	b, err := s.r.Get(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return b, nil
}

func (s *service) List(ctx context.Context, f query.BookSearch) ([]model.Book, int, error) {
	f.Title = strings.TrimSpace(f.Title)
	f.Author = strings.TrimSpace(f.Author)
	books, total, err := s.r.Search(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("search books: %w", err)
	}
	return books, total, nil
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return makeErr(ErrNotFound)
	case errors.Is(err, repository.ErrDuplicateTitle):
		return codedError{code: ErrDuplicateTitle, fields: map[string][]string{"title": {msgDuplicate}}}
	default:
		return fmt.Errorf("book store: %w", err)
	}
}

var maxFee = decimal.New(1, 8)

// normalize trims and validates a book payload. On create, missing fields are
// errors and a missing cover defaults to SOFT.
func normalize(p model.BookPatch, create bool) (model.BookPatch, error) {
	fe := map[string][]string{}
	add := func(field, msg string) { fe[field] = append(fe[field], msg) }

	text := func(field string, v *string) *string {
		if v == nil {
			if create {
				add(field, msgRequired)
			}
			return nil
		}
		t := strings.TrimSpace(*v)
		switch {
		case t == "":
			add(field, msgBlank)
		case utf8.RuneCountInString(t) > 255:
			add(field, msgTooLong)
		}
		return &t
	}
	p.Title = text("title", p.Title)
	p.Author = text("author", p.Author)

	switch {
	case p.Cover != nil:
		c := model.Cover(strings.TrimSpace(string(*p.Cover)))
		if c == "" {
			c = model.CoverSoft
		}
		if !c.Valid() {
			add("cover", fmt.Sprintf("%q is not a valid choice.", string(c)))
		}
		p.Cover = &c
	case create:
		c := model.CoverSoft
		p.Cover = &c
	}

	if p.Inventory == nil {
		if create {
			add("inventory", msgRequired)
		}
	} else if *p.Inventory < 0 {
		add("inventory", msgNegative)
	}

	if p.DailyFee == nil {
		if create {
			add("daily_fee", msgRequired)
		}
	} else {
		fee := *p.DailyFee
		if fee.IsNegative() {
			add("daily_fee", msgNegative)
		}
		if !fee.Equal(fee.Round(2)) {
			add("daily_fee", msgPlaces)
		}
		if fee.Abs().GreaterThanOrEqual(maxFee) {
			add("daily_fee", msgDigits)
		}
	}

	if len(fe) > 0 {
		return p, codedError{code: ErrInvalidField, fields: fe}
	}
	return p, nil
}
