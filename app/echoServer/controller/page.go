package controller

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"libraryapi/service/query"
)

type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// PageNumber reads ?page=. A missing value is page 1; anything else that is
// not a positive integer is reported as not ok.
func PageNumber(c echo.Context) (int, bool) {
	raw := c.QueryParam("page")
	if raw == "" {
		return 1, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func NewPage[T any](c echo.Context, p query.Page, total int, results []T) Page[T] {
	if results == nil {
		results = []T{}
	}
	out := Page[T]{Count: total, Results: results}
	if p.HasNext(total) {
		u := pageURL(c, p.Number+1)
		out.Next = &u
	}
	if p.Number > 1 {
		u := pageURL(c, p.Number-1)
		out.Previous = &u
	}
	return out
}

// pageURL rebuilds the absolute request URL pointing at page n. Page 1 drops the parameter.
func pageURL(c echo.Context, n int) string {
	u := *c.Request().URL
	q := u.Query()
	if n == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(n))
	}
	u.RawQuery = q.Encode()
	u.Scheme = c.Scheme()
	u.Host = c.Request().Host
	return u.String()
}
