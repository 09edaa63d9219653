package dto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePage(t *testing.T) {
	tests := map[string]struct {
		page, limit           int
		wantPage, wantLimit   int
	}{
		"defaults applied":    {page: 0, limit: 0, wantPage: 1, wantLimit: 10},
		"negative page":       {page: -3, limit: 5, wantPage: 1, wantLimit: 5},
		"limit capped":        {page: 2, limit: 500, wantPage: 2, wantLimit: 50},
		"in range passes":     {page: 3, limit: 25, wantPage: 3, wantLimit: 25},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			page, limit := NormalizePage(tt.page, tt.limit, 10, 50)
			require.Equal(t, tt.wantPage, page)
			require.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestNewPaginationMeta(t *testing.T) {
	meta := NewPaginationMeta(2, 10, 15)
	require.Equal(t, 2, meta.CurrentPage)
	require.Equal(t, 2, meta.TotalPages)
	require.Equal(t, int64(15), meta.TotalItems)

	meta = NewPaginationMeta(1, 10, 30)
	require.Equal(t, 3, meta.TotalPages)

	meta = NewPaginationMeta(1, 10, 0)
	require.Equal(t, 0, meta.TotalPages)
}
