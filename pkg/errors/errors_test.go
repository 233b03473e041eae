package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrValidation, "score out of range")
	require.True(t, errors.Is(err, ErrValidation))
	require.False(t, errors.Is(err, ErrInvalidTransition))
	require.Equal(t, "score out of range", err.Error())
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	require.Equal(t, ErrInternal.Code, appErr.Code)
	require.Equal(t, http.StatusInternalServerError, appErr.Status)

	typed := Wrap(fmt.Errorf("dial tcp"), ErrUpstreamUnavailable.Code, ErrUpstreamUnavailable.Status, "grade service unavailable")
	require.Same(t, typed, FromError(fmt.Errorf("list: %w", typed)))
}

func TestWithStatus(t *testing.T) {
	err := WithStatus(ErrUpstreamClient, http.StatusNotFound)
	require.Equal(t, http.StatusNotFound, err.Status)
	require.Equal(t, http.StatusBadRequest, ErrUpstreamClient.Status)
	require.True(t, errors.Is(err, ErrUpstreamClient))
}
