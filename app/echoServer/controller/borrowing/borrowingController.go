package borrowing

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"libraryapi/app/echoServer/controller"
	"libraryapi/app/echoServer/jwtx"
	"libraryapi/model"
	borrowingsvc "libraryapi/service/borrowing"
	"libraryapi/service/query"
)

type Controller struct {
	Svc borrowingsvc.Service
	Log *zap.Logger
}

// GET /borrowings/?user_id=&is_active=&page=
func (h *Controller) List(c echo.Context) error {
	n, ok := controller.PageNumber(c)
	if !ok {
		return controller.Detail(c, http.StatusNotFound, controller.MsgInvalidPage)
	}
	f := query.BorrowingFilter{
		IsActive: query.ParseIsActive(c.QueryParam("is_active")),
		Page:     query.NewPage(n, query.BorrowingPageSize),
	}
	if uid, err := strconv.ParseInt(c.QueryParam("user_id"), 10, 64); err == nil {
		f.UserID = &uid
	}

	items, total, err := h.Svc.List(c.Request().Context(), jwtx.PrincipalFromContext(c), f)
	if err != nil {
		return h.fail(c, "borrowing list", err)
	}
	if !f.Page.Valid(total) {
		return controller.Detail(c, http.StatusNotFound, controller.MsgInvalidPage)
	}
	return c.JSON(http.StatusOK, controller.NewPage(c, f.Page, total, ToResps(items)))
}

// POST /borrowings/
func (h *Controller) Create(c echo.Context) error {
	var req CreateReq
	if fields, err := controller.Bind(c, &req); err != nil {
		return err
	} else if fields != nil {
		return controller.Invalid(c, fields)
	}
	due, err := model.ParseDate(req.ExpectedReturnDate)
	if err != nil {
		return controller.Invalid(c, map[string][]string{
			"expected_return_date": {"Date has wrong format. Use one of these formats instead: YYYY-MM-DD."},
		})
	}

	d, err := h.Svc.Borrow(c.Request().Context(), jwtx.PrincipalFromContext(c), req.Book, due)
	if err != nil {
		return h.fail(c, "borrowing create", err)
	}
	return c.JSON(http.StatusCreated, CreatedResp{
		ID:                 d.ID,
		User:               toUser(d.User),
		Book:               d.BookID,
		ExpectedReturnDate: d.ExpectedReturnDate.Format(model.DateLayout),
	})
}

// GET /borrowings/:id/
func (h *Controller) Detail(c echo.Context) error {
	id, ok := controller.ParseID(c)
	if !ok {
		return controller.Detail(c, http.StatusNotFound, controller.MsgNotFound)
	}
	d, err := h.Svc.Get(c.Request().Context(), jwtx.PrincipalFromContext(c), id)
	if err != nil {
		return h.fail(c, "borrowing detail", err)
	}
	return c.JSON(http.StatusOK, ToResp(*d))
}

// POST /borrowings/:id/return/
func (h *Controller) Return(c echo.Context) error {
	id, ok := controller.ParseID(c)
	if !ok {
		return controller.Detail(c, http.StatusNotFound, controller.MsgNotFound)
	}
	if _, err := h.Svc.Return(c.Request().Context(), jwtx.PrincipalFromContext(c), id); err != nil {
		return h.fail(c, "borrowing return", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "Book returned successfully."})
}

func (h *Controller) fail(c echo.Context, op string, err error) error {
	switch borrowingsvc.Code(err) {
	case borrowingsvc.ErrAuthRequired:
		return controller.Detail(c, http.StatusUnauthorized, controller.MsgNotAuthenticated)
	case borrowingsvc.ErrNotFound:
		return controller.Detail(c, http.StatusNotFound, controller.MsgNotFound)
	case borrowingsvc.ErrInvalidDate, borrowingsvc.ErrBookNotFound, borrowingsvc.ErrOutOfStock, borrowingsvc.ErrAlreadyReturned:
		field, msg := borrowingsvc.Reason(err)
		return controller.Invalid(c, map[string][]string{field: {msg}})
	default:
		return controller.Internal(c, h.Log, op, err)
	}
}
