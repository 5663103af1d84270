package errors_test

import (
	"fmt"
	"testing"

	ierrors "github.com/jrsteele09/go-rolegate/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestWrapf(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		require.NoError(t, ierrors.Wrapf(nil, "lookup %s", "u1"))
	})

	t.Run("keeps chain", func(t *testing.T) {
		err := ierrors.Wrapf(ierrors.ErrStoreUnavailable, "lookup %s", "u1")
		require.EqualError(t, err, "lookup u1: role store unavailable")
		require.True(t, ierrors.Is(err, ierrors.ErrStoreUnavailable))
	})
}

func TestJoin(t *testing.T) {
	cause := fmt.Errorf("dial tcp: refused")
	err := ierrors.Join(ierrors.ErrRoleLookupFailure, cause)
	require.True(t, ierrors.Is(err, ierrors.ErrRoleLookupFailure))
	require.True(t, ierrors.Is(err, cause))
	require.Equal(t, "role lookup failed: dial tcp: refused", err.Error())

	require.Equal(t, ierrors.ErrClosed, ierrors.Join(ierrors.ErrClosed, nil))
}
