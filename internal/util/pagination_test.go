package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	offset, size := Calculate(1, 10)
	require.Equal(t, 0, offset)
	require.Equal(t, 10, size)

	offset, size = Calculate(3, 25)
	require.Equal(t, 50, offset)
	require.Equal(t, 25, size)

	// out-of-range values fall back to defaults
	offset, size = Calculate(0, 0)
	require.Equal(t, 0, offset)
	require.Equal(t, DefaultPageSize, size)

	offset, size = Calculate(-2, 1000)
	require.Equal(t, 0, offset)
	require.Equal(t, DefaultPageSize, size)
}

func TestTotalPages(t *testing.T) {
	require.Equal(t, int64(0), TotalPages(0, 10))
	require.Equal(t, int64(1), TotalPages(10, 10))
	require.Equal(t, int64(2), TotalPages(11, 10))
	require.Equal(t, int64(0), TotalPages(5, 0))
}