package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePaginationParams(t *testing.T) {
	page, limit, err := parsePaginationParams("", "")
	require.NoError(t, err)
	require.Equal(t, int64(1), page)
	require.Equal(t, int64(20), limit)

	page, limit, err = parsePaginationParams("3", "50")
	require.NoError(t, err)
	require.Equal(t, int64(3), page)
	require.Equal(t, int64(50), limit)

	for _, bad := range [][2]string{{"0", "10"}, {"-1", "10"}, {"1", "0"}, {"1", "1000"}, {"abc", "10"}, {"1", "xyz"}} {
		_, _, err := parsePaginationParams(bad[0], bad[1])
		require.Error(t, err, bad)
	}
}
