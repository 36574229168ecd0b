package echoServer_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"libraryapi/app/echoServer"
	"libraryapi/app/echoServer/controller/book"
	"libraryapi/app/echoServer/controller/borrowing"
	"libraryapi/model"
	"libraryapi/repository/memory"
	booksvc "libraryapi/service/book"
	borrowingsvc "libraryapi/service/borrowing"
	"libraryapi/service/query"
	jwtutil "libraryapi/util/jwt"
)

const secret = "test-secret"

var (
	today    = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	tomorrow = today.AddDate(0, 0, 1).Format(model.DateLayout)
)

type env struct {
	e     *echo.Echo
	store *memory.Store
	ann   string
	bob   string
	staff string
}

func token(t *testing.T, id int64, email string, role model.Role) string {
	t.Helper()
	tok, err := jwtutil.Issue(secret, id, email, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.New()
	store.PutUser(model.User{ID: 1, Email: "ann@example.com", FirstName: "Ann"})
	store.PutUser(model.User{ID: 2, Email: "bob@example.com"})
	store.PutUser(model.User{ID: 9, Email: "desk@example.com", IsStaff: true})

	log := zap.NewNop()
	ledger := borrowingsvc.New(store.Borrowings(),
		borrowingsvc.WithClock(func() time.Time { return today }),
		borrowingsvc.WithLogger(log),
	)
	e := echoServer.New(echoServer.C{
		Book:      &book.Controller{Svc: booksvc.New(store.Books()), Log: log},
		Borrowing: &borrowing.Controller{Svc: ledger, Log: log},
		JWTSecret: secret,
		Log:       log,
	})
	return &env{
		e:     e,
		store: store,
		ann:   token(t, 1, "ann@example.com", model.RoleMember),
		bob:   token(t, 2, "bob@example.com", model.RoleMember),
		staff: token(t, 9, "desk@example.com", model.RoleStaff),
	}
}

func (v *env) do(method, path, tok, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if tok != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	v.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, jsoniter.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (v *env) createBook(t *testing.T, title string, inventory int) int64 {
	t.Helper()
	rec := v.do(http.MethodPost, "/books/", v.staff,
		fmt.Sprintf(`{"title":%q,"author":"Someone","inventory":%d,"daily_fee":"1.25"}`, title, inventory))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return int64(decode(t, rec)["id"].(float64))
}

func (v *env) inventory(t *testing.T, id int64) int64 {
	t.Helper()
	b, err := v.store.Books().Get(context.Background(), id)
	require.NoError(t, err)
	return b.Inventory
}

func TestHealth(t *testing.T) {
	v := newEnv(t)
	rec := v.do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestBooks_WriteAccess(t *testing.T) {
	v := newEnv(t)
	body := `{"title":"Dune","author":"Frank Herbert","inventory":2,"daily_fee":"5.99"}`

	rec := v.do(http.MethodPost, "/books/", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = v.do(http.MethodPost, "/books/", v.ann, body)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You do not have permission to perform this action.", decode(t, rec)["detail"])

	rec = v.do(http.MethodPost, "/books", v.staff, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	got := decode(t, rec)
	assert.Equal(t, "SOFT", got["cover"])
	assert.Equal(t, "5.99", got["daily_fee"])

	id := int64(got["id"].(float64))
	rec = v.do(http.MethodGet, fmt.Sprintf("/books/%d", id), "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dune", decode(t, rec)["title"])

	rec = v.do(http.MethodPatch, fmt.Sprintf("/books/%d/", id), v.staff, `{"inventory":7}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 7, decode(t, rec)["inventory"])

	rec = v.do(http.MethodDelete, fmt.Sprintf("/books/%d/", id), v.ann, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = v.do(http.MethodDelete, fmt.Sprintf("/books/%d/", id), v.staff, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = v.do(http.MethodGet, fmt.Sprintf("/books/%d/", id), "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBooks_Validation(t *testing.T) {
	v := newEnv(t)
	v.createBook(t, "Dune", 1)

	rec := v.do(http.MethodPost, "/books/", v.staff, `{"title":"Dune","author":"Other","inventory":1,"daily_fee":"1.00"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []any{"book with this title already exists."}, decode(t, rec)["title"])

	rec = v.do(http.MethodPost, "/books/", v.staff, `{"title":"Emma","author":"Austen","inventory":-1,"daily_fee":"1.00"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec), "inventory")

	rec = v.do(http.MethodPost, "/books/", v.staff, `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	books, _, err := v.store.Books().Search(context.Background(), bookSearchAll())
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestBooks_SearchAndPagination(t *testing.T) {
	v := newEnv(t)
	v.createBook(t, "Two Scoops of Django", 1)
	v.createBook(t, "Fluent Python", 1)
	for i := 0; i < 15; i++ {
		v.createBook(t, fmt.Sprintf("Volume %02d", i), 1)
	}

	rec := v.do(http.MethodGet, "/books/?title=DJANGO", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode(t, rec)
	assert.EqualValues(t, 1, got["count"])
	assert.Nil(t, got["next"])

	rec = v.do(http.MethodGet, "/books/", "", "")
	got = decode(t, rec)
	assert.EqualValues(t, 17, got["count"])
	assert.Len(t, got["results"], 15)
	assert.Equal(t, "http://example.com/books/?page=2", got["next"])

	rec = v.do(http.MethodGet, "/books/?page=2", "", "")
	got = decode(t, rec)
	assert.Len(t, got["results"], 2)
	assert.Equal(t, "http://example.com/books/", got["previous"])

	rec = v.do(http.MethodGet, "/books/?page=3", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Invalid page.", decode(t, rec)["detail"])
	rec = v.do(http.MethodGet, "/books/?page=abc", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPagination_HugePageIsInvalid(t *testing.T) {
	v := newEnv(t)
	bookID := v.createBook(t, "Dune", 1)
	rec := v.do(http.MethodPost, "/borrowings/", v.ann, fmt.Sprintf(`{"book":%d,"expected_return_date":%q}`, bookID, tomorrow))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	for _, path := range []string{
		"/borrowings/?page=3689348814741910324",
		"/books/?page=9223372036854775807",
		"/books/?page=99999999999999999999",
	} {
		rec = v.do(http.MethodGet, path, v.ann, "")
		require.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "Invalid page.", decode(t, rec)["detail"], path)
	}
}

func TestBorrowings_RequireAuthentication(t *testing.T) {
	v := newEnv(t)
	rec := v.do(http.MethodGet, "/borrowings/", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication credentials were not provided.", decode(t, rec)["detail"])

	rec = v.do(http.MethodGet, "/borrowings/", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, err := jwtutil.Issue(secret, 1, "ann@example.com", model.RoleMember, -time.Minute)
	require.NoError(t, err)
	rec = v.do(http.MethodGet, "/books/", expired, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBorrowings_Lifecycle(t *testing.T) {
	v := newEnv(t)
	bookID := v.createBook(t, "Dune", 1)

	yesterday := today.AddDate(0, 0, -1).Format(model.DateLayout)
	rec := v.do(http.MethodPost, "/borrowings/", v.ann, fmt.Sprintf(`{"book":%d,"expected_return_date":%q}`, bookID, yesterday))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []any{"must not be in the past."}, decode(t, rec)["expected_return_date"])
	assert.EqualValues(t, 1, v.inventory(t, bookID))

	rec = v.do(http.MethodPost, "/borrowings/", v.ann, fmt.Sprintf(`{"book":%d,"expected_return_date":%q}`, bookID, tomorrow))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	assert.EqualValues(t, bookID, created["book"])
	assert.Equal(t, tomorrow, created["expected_return_date"])
	assert.Equal(t, "ann@example.com", created["user"].(map[string]any)["email"])
	assert.EqualValues(t, 0, v.inventory(t, bookID))
	id := int64(created["id"].(float64))

	rec = v.do(http.MethodPost, "/borrowings/", v.bob, fmt.Sprintf(`{"book":%d,"expected_return_date":%q}`, bookID, tomorrow))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []any{"This book is out of stock."}, decode(t, rec)["book"])

	rec = v.do(http.MethodGet, fmt.Sprintf("/borrowings/%d/", id), v.ann, "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode(t, rec)
	assert.Nil(t, view["actual_return_date"])
	assert.Equal(t, "Dune", view["book"].(map[string]any)["title"])

	rec = v.do(http.MethodPost, fmt.Sprintf("/borrowings/%d/return/", id), v.ann, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Book returned successfully.", decode(t, rec)["status"])
	assert.EqualValues(t, 1, v.inventory(t, bookID))

	rec = v.do(http.MethodPost, fmt.Sprintf("/borrowings/%d/return", id), v.ann, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []any{"This book has already been returned."}, decode(t, rec)["non_field_errors"])
	assert.EqualValues(t, 1, v.inventory(t, bookID))
}

func TestBorrowings_UnknownBook(t *testing.T) {
	v := newEnv(t)
	rec := v.do(http.MethodPost, "/borrowings/", v.ann, fmt.Sprintf(`{"book":404,"expected_return_date":%q}`, tomorrow))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec), "book")

	rec = v.do(http.MethodPost, "/borrowings/", v.ann, `{"expected_return_date":"tomorrow"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	got := decode(t, rec)
	assert.Contains(t, got, "book")
	assert.Contains(t, got, "expected_return_date")
}

func TestBorrowings_MemberIsolation(t *testing.T) {
	v := newEnv(t)
	bookID := v.createBook(t, "Dune", 5)
	borrow := func(tok string) int64 {
		rec := v.do(http.MethodPost, "/borrowings/", tok, fmt.Sprintf(`{"book":%d,"expected_return_date":%q}`, bookID, tomorrow))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return int64(decode(t, rec)["id"].(float64))
	}
	annID := borrow(v.ann)
	borrow(v.bob)

	rec := v.do(http.MethodGet, fmt.Sprintf("/borrowings/%d/", annID), v.bob, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = v.do(http.MethodPost, fmt.Sprintf("/borrowings/%d/return/", annID), v.bob, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = v.do(http.MethodGet, "/borrowings/?user_id=1", v.bob, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode(t, rec)
	assert.EqualValues(t, 1, got["count"])
	assert.Equal(t, "bob@example.com", got["results"].([]any)[0].(map[string]any)["user"].(map[string]any)["email"])

	rec = v.do(http.MethodGet, "/borrowings/", v.staff, "")
	assert.EqualValues(t, 2, decode(t, rec)["count"])
	rec = v.do(http.MethodGet, "/borrowings/?user_id=1&is_active=TRUE", v.staff, "")
	assert.EqualValues(t, 1, decode(t, rec)["count"])
	rec = v.do(http.MethodGet, "/borrowings/?is_active=false", v.staff, "")
	assert.EqualValues(t, 0, decode(t, rec)["count"])
	rec = v.do(http.MethodGet, "/borrowings/?user_id=abc&is_active=maybe", v.staff, "")
	assert.EqualValues(t, 2, decode(t, rec)["count"])
}

func bookSearchAll() query.BookSearch {
	return query.BookSearch{Page: query.NewPage(1, query.BookPageSize)}
}
