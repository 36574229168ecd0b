package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title *string `json:"title" validate:"omitnil,max=5"`
	Count int     `json:"count" validate:"gte=0"`
	Due   string  `json:"due" validate:"required,datetime=2006-01-02"`
}

func TestFields_UsesJSONNames(t *testing.T) {
	long := "much too long"
	err := New().Validate(sample{Title: &long, Count: -1, Due: "15/06/2026"})
	require.Error(t, err)

	got := Fields(err)
	assert.Equal(t, []string{"Ensure this field has no more than 5 characters."}, got["title"])
	assert.Equal(t, []string{"Ensure this value is greater than or equal to 0."}, got["count"])
	assert.Equal(t, []string{"Date has wrong format. Use one of these formats instead: YYYY-MM-DD."}, got["due"])
}

func TestValidate_NilPointerSkipped(t *testing.T) {
	require.NoError(t, New().Validate(sample{Due: "2026-06-15"}))
}

func TestFields_OtherErrors(t *testing.T) {
	assert.Equal(t, map[string][]string{NonFieldErrors: {"Invalid data."}}, Fields(errors.New("x")))
}
