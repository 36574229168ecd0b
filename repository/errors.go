// Package repository holds the errors every store implementation reports.
package repository

import "errors"

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateTitle = errors.New("book title already exists")
)
