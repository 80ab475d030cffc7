package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloneMatchesSentinel(t *testing.T) {
	err := Clone(ErrAlreadyDecided, "request R-1 already decided")
	require.True(t, errors.Is(err, ErrAlreadyDecided))
	require.False(t, errors.Is(err, ErrNotFound))

	wrapped := fmt.Errorf("decide: %w", err)
	require.True(t, errors.Is(wrapped, ErrAlreadyDecided))
}

func TestCooldownActiveCarriesHours(t *testing.T) {
	err := CooldownActive(3)
	require.Equal(t, http.StatusTooManyRequests, err.Status)
	require.True(t, errors.Is(err, ErrCooldownActive))

	hours, ok := RemainingHours(err)
	require.True(t, ok)
	require.Equal(t, 3, hours)

	_, ok = RemainingHours(ErrForbidden)
	require.False(t, ok)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	require.Equal(t, ErrInternal.Code, appErr.Code)
	require.Nil(t, FromError(nil))
}
