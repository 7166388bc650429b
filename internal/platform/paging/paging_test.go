package paging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/platform/apperr"
)

func TestParse(t *testing.T) {
	p, err := Parse("", "")
	require.NoError(t, err)
	assert.Equal(t, Page{Page: 1, Limit: DefaultLimit}, p)

	p, err = Parse("3", "25")
	require.NoError(t, err)
	assert.Equal(t, 50, p.Offset())

	for _, tc := range [][2]string{{"0", "10"}, {"1", "0"}, {"1", "101"}, {"x", "10"}, {"1", "ten"}} {
		_, err := Parse(tc[0], tc[1])
		assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument), "%v", tc)
	}
}

func TestOf(t *testing.T) {
	p := Page{Page: 2, Limit: 10}
	assert.Equal(t, Pagination{Total: 21, Page: 2, Limit: 10, TotalPages: 3}, p.Of(21))
	assert.Equal(t, 0, p.Of(0).TotalPages)
	assert.Equal(t, 1, Page{Page: 1, Limit: 100}.Of(100).TotalPages)
}
