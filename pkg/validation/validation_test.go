package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

type sample struct {
	Title  string  `json:"title" validate:"required,notblank"`
	Weight float64 `json:"weight" validate:"gte=0,lte=100"`
	Hidden string  `json:"-" validate:"omitempty,max=1"`
}

func TestFieldsUseJSONNames(t *testing.T) {
	err := Validate.Struct(sample{Title: "   ", Weight: 150})
	require.Error(t, err)

	fields := Fields(err)
	assert.Equal(t, "title cannot be blank", fields["title"])
	assert.Equal(t, "weight must be 100 or less", fields["weight"])
}

func TestWrapBuildsValidationError(t *testing.T) {
	err := Validate.Struct(sample{Weight: -1})
	wrapped := Wrap(err, "invalid sample")

	assert.ErrorIs(t, wrapped, appErrors.ErrValidation)
	assert.Equal(t, "invalid sample", wrapped.Message)
	assert.Contains(t, wrapped.Fields, "title")
	assert.Contains(t, wrapped.Fields, "weight")
}

func TestFieldsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, Fields(errors.New("boom")))
	assert.Nil(t, Wrap(errors.New("boom"), "invalid").Fields)
}
