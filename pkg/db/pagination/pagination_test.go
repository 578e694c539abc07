package pagination

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	p := Pagination{Page: 0, Limit: 1000}.Normalize()
	require.Equal(t, 1, p.Page)
	require.Equal(t, MaxLimit, p.Limit)

	require.Equal(t, 40, Pagination{Page: 3, Limit: 20}.Offset())
}

func TestBuildPageInfo(t *testing.T) {
	info := BuildPageInfo(Pagination{Page: 1, Limit: 10}, 25)
	require.True(t, info.HasMore)

	info = BuildPageInfo(Pagination{Page: 3, Limit: 10}, 25)
	require.False(t, info.HasMore)
	require.EqualValues(t, 25, info.Total)
}
