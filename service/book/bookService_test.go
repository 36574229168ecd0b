// service/book/bookService_test.go
package booksvc_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/model"
	"libraryapi/repository"
	booksvc "libraryapi/service/book"
	"libraryapi/service/query"
)

type repoMock struct {
	createFn func(ctx context.Context, b *model.Book) error
	updateFn func(ctx context.Context, id int64, p model.BookPatch) (*model.Book, error)
	deleteFn func(ctx context.Context, id int64) error
	getFn    func(ctx context.Context, id int64) (*model.Book, error)
	searchFn func(ctx context.Context, f query.BookSearch) ([]model.Book, int, error)
}

func (m *repoMock) Create(ctx context.Context, b *model.Book) error { return m.createFn(ctx, b) }
func (m *repoMock) Update(ctx context.Context, id int64, p model.BookPatch) (*model.Book, error) {
	return m.updateFn(ctx, id, p)
}
func (m *repoMock) Delete(ctx context.Context, id int64) error { return m.deleteFn(ctx, id) }
func (m *repoMock) Get(ctx context.Context, id int64) (*model.Book, error) {
	return m.getFn(ctx, id)
}
func (m *repoMock) Search(ctx context.Context, f query.BookSearch) ([]model.Book, int, error) {
	return m.searchFn(ctx, f)
}

func ptr[T any](v T) *T { return &v }

func validPatch() model.BookPatch {
	return model.BookPatch{
		Title:     ptr("  Clean Code "),
		Author:    ptr("Robert Martin"),
		Inventory: ptr(int64(3)),
		DailyFee:  ptr(decimal.RequireFromString("5.99")),
	}
}

func TestCreate_Validation(t *testing.T) {
	s := booksvc.New(&repoMock{})

	_, err := s.Create(context.Background(), model.BookPatch{})
	require.Equal(t, booksvc.ErrInvalidField, booksvc.Code(err))
	fields := booksvc.Fields(err)
	for _, f := range []string{"title", "author", "inventory", "daily_fee"} {
		assert.Contains(t, fields, f)
	}
	assert.NotContains(t, fields, "cover")

	bad := validPatch()
	bad.Title = ptr("   ")
	bad.Cover = ptr(model.Cover("PAPERBACK"))
	bad.Inventory = ptr(int64(-1))
	bad.DailyFee = ptr(decimal.RequireFromString("1.999"))
	_, err = s.Create(context.Background(), bad)
	fields = booksvc.Fields(err)
	assert.Equal(t, []string{"This field may not be blank."}, fields["title"])
	assert.Equal(t, []string{`"PAPERBACK" is not a valid choice.`}, fields["cover"])
	assert.Equal(t, []string{"Ensure this value is greater than or equal to 0."}, fields["inventory"])
	assert.Equal(t, []string{"Ensure that there are no more than 2 decimal places."}, fields["daily_fee"])

	big := validPatch()
	big.DailyFee = ptr(decimal.RequireFromString("123456789.00"))
	_, err = s.Create(context.Background(), big)
	assert.Equal(t, []string{"Ensure that there are no more than 10 digits in total."}, booksvc.Fields(err)["daily_fee"])
}

func TestCreate_Success(t *testing.T) {
	m := &repoMock{
		createFn: func(ctx context.Context, b *model.Book) error {
			if b.Title != "Clean Code" || b.Cover != model.CoverSoft {
				return errors.New("bad args")
			}
			b.ID = 42
			return nil
		},
	}
	s := booksvc.New(m)
	b, err := s.Create(context.Background(), validPatch())
	require.NoError(t, err)
	assert.EqualValues(t, 42, b.ID)
	assert.Equal(t, "5.99", b.DailyFee.StringFixed(2))
}

func TestCreate_DuplicateTitle(t *testing.T) {
	m := &repoMock{createFn: func(ctx context.Context, b *model.Book) error { return repository.ErrDuplicateTitle }}
	_, err := booksvc.New(m).Create(context.Background(), validPatch())
	require.Equal(t, booksvc.ErrDuplicateTitle, booksvc.Code(err))
	assert.Equal(t, []string{"book with this title already exists."}, booksvc.Fields(err)["title"])
}

func TestUpdate_PartialPatchOnlyValidatesGivenFields(t *testing.T) {
	var got model.BookPatch
	m := &repoMock{updateFn: func(ctx context.Context, id int64, p model.BookPatch) (*model.Book, error) {
		got = p
		return &model.Book{ID: id, Inventory: *p.Inventory}, nil
	}}
	b, err := booksvc.New(m).Update(context.Background(), 7, model.BookPatch{Inventory: ptr(int64(0))})
	require.NoError(t, err)
	assert.EqualValues(t, 0, b.Inventory)
	assert.Nil(t, got.Title)
	assert.Nil(t, got.Cover)
}

func TestReplace_RequiresEveryField(t *testing.T) {
	s := booksvc.New(&repoMock{})
	_, err := s.Replace(context.Background(), 1, model.BookPatch{Title: ptr("Only title")})
	require.Equal(t, booksvc.ErrInvalidField, booksvc.Code(err))
	assert.Contains(t, booksvc.Fields(err), "author")
}

func TestNotFoundMapping(t *testing.T) {
	m := &repoMock{
		updateFn: func(ctx context.Context, id int64, p model.BookPatch) (*model.Book, error) {
			return nil, repository.ErrNotFound
		},
		deleteFn: func(ctx context.Context, id int64) error { return repository.ErrNotFound },
		getFn:    func(ctx context.Context, id int64) (*model.Book, error) { return nil, repository.ErrNotFound },
	}
	s := booksvc.New(m)

	_, err := s.Update(context.Background(), 1, model.BookPatch{Author: ptr("x")})
	assert.Equal(t, booksvc.ErrNotFound, booksvc.Code(err))
	assert.Equal(t, booksvc.ErrNotFound, booksvc.Code(s.Delete(context.Background(), 1)))
	_, err = s.Detail(context.Background(), 1)
	assert.Equal(t, booksvc.ErrNotFound, booksvc.Code(err))
}

func TestList_PassesTrimmedSearch(t *testing.T) {
	m := &repoMock{searchFn: func(ctx context.Context, f query.BookSearch) ([]model.Book, int, error) {
		if f.Title != "django" {
			return nil, 0, errors.New("bad args")
		}
		return []model.Book{{ID: 1}}, 1, nil
	}}
	books, total, err := booksvc.New(m).List(context.Background(), query.BookSearch{Title: " django ", Page: query.NewPage(1, 15)})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, books, 1)
}

func TestInfraErrorsHaveNoCode(t *testing.T) {
	m := &repoMock{getFn: func(ctx context.Context, id int64) (*model.Book, error) { return nil, errors.New("conn refused") }}
	_, err := booksvc.New(m).Detail(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, booksvc.ErrCode(""), booksvc.Code(err))
}
