package book

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"libraryapi/app/echoServer/controller"
	"libraryapi/app/echoServer/jwtx"
	"libraryapi/model"
	booksvc "libraryapi/service/book"
	"libraryapi/service/policy"
	"libraryapi/service/query"
)

type Controller struct {
	Svc booksvc.Service
	Log *zap.Logger
}

// GET /books/
func (h *Controller) List(c echo.Context) error {
	n, ok := controller.PageNumber(c)
	if !ok {
		return controller.Detail(c, http.StatusNotFound, controller.MsgInvalidPage)
	}
	f := query.BookSearch{
		Title:  c.QueryParam("title"),
		Author: c.QueryParam("author"),
		Page:   query.NewPage(n, query.BookPageSize),
	}
	books, total, err := h.Svc.List(c.Request().Context(), f)
	if err != nil {
		return controller.Internal(c, h.Log, "book list", err)
	}
	if !f.Page.Valid(total) {
		return controller.Detail(c, http.StatusNotFound, controller.MsgInvalidPage)
	}
	return c.JSON(http.StatusOK, controller.NewPage(c, f.Page, total, ToResps(books)))
}

// GET /books/:id/
func (h *Controller) Detail(c echo.Context) error {
	id, ok := controller.ParseID(c)
	if !ok {
		return controller.Detail(c, http.StatusNotFound, controller.MsgNotFound)
	}
	b, err := h.Svc.Detail(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "book detail", err)
	}
	return c.JSON(http.StatusOK, ToResp(*b))
}

// POST /books/  (staff)
func (h *Controller) Create(c echo.Context) error {
	if d := policy.CheckSelf(jwtx.PrincipalFromContext(c), policy.BookWrite); d != policy.Allow {
		return controller.Denied(c, d)
	}
	var req BookReq
	if fields, err := controller.Bind(c, &req); err != nil {
		return err
	} else if fields != nil {
		return controller.Invalid(c, fields)
	}
	b, err := h.Svc.Create(c.Request().Context(), req.Patch())
	if err != nil {
		return h.fail(c, "book create", err)
	}
	return c.JSON(http.StatusCreated, ToResp(*b))
}

// PATCH /books/:id/  (staff)
func (h *Controller) Update(c echo.Context) error {
	return h.write(c, "book update", h.Svc.Update)
}

// PUT /books/:id/  (staff)
func (h *Controller) Replace(c echo.Context) error {
	return h.write(c, "book replace", h.Svc.Replace)
}

// DELETE /books/:id/  (staff)
func (h *Controller) Delete(c echo.Context) error {
	if d := policy.CheckSelf(jwtx.PrincipalFromContext(c), policy.BookWrite); d != policy.Allow {
		return controller.Denied(c, d)
	}
	id, ok := controller.ParseID(c)
	if !ok {
		return controller.Detail(c, http.StatusNotFound, controller.MsgNotFound)
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, "book delete", err)
	}
	return c.NoContent(http.StatusNoContent)
}

type writeFn func(ctx context.Context, id int64, in model.BookPatch) (*model.Book, error)

func (h *Controller) write(c echo.Context, op string, fn writeFn) error {
	if d := policy.CheckSelf(jwtx.PrincipalFromContext(c), policy.BookWrite); d != policy.Allow {
		return controller.Denied(c, d)
	}
	id, ok := controller.ParseID(c)
	if !ok {
		return controller.Detail(c, http.StatusNotFound, controller.MsgNotFound)
	}
	var req BookReq
	if fields, err := controller.Bind(c, &req); err != nil {
		return err
	} else if fields != nil {
		return controller.Invalid(c, fields)
	}
	b, err := fn(c.Request().Context(), id, req.Patch())
	if err != nil {
		return h.fail(c, op, err)
	}
	return c.JSON(http.StatusOK, ToResp(*b))
}

func (h *Controller) fail(c echo.Context, op string, err error) error {
	switch booksvc.Code(err) {
	case booksvc.ErrInvalidField, booksvc.ErrDuplicateTitle:
		return controller.Invalid(c, booksvc.Fields(err))
	case booksvc.ErrNotFound:
		return controller.Detail(c, http.StatusNotFound, controller.MsgNotFound)
	default:
		return controller.Internal(c, h.Log, op, err)
	}
}
