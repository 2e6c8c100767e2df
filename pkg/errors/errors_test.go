package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapAndIsCode(t *testing.T) {
	base := errors.New("dial tcp: refused")
	err := Wrap("network_error", "upstream request failed", base)

	require.True(t, IsCode(err, "network_error"))
	require.False(t, IsCode(err, "timeout"))
	require.ErrorIs(t, err, base)
	require.Equal(t, "upstream request failed: dial tcp: refused", err.Error())
}

func TestCodeOfWrappedChain(t *testing.T) {
	err := fmt.Errorf("fetch dam snapshot: %w", Wrap("timeout", "upstream request timed out", nil))
	require.Equal(t, "timeout", CodeOf(err))
	require.Equal(t, "", CodeOf(errors.New("plain")))
}
