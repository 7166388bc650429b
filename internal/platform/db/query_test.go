package db

import (
	"testing"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/platform/paging"
)

func TestPaginate_LiveRowsOnly(t *testing.T) {
	ds := Dialect.From("books").Where(Live("books"), goqu.C("status").Eq("available"))

	query, args, err := Paginate(ds, paging.Page{Page: 3, Limit: 20}).Prepared(true).ToSQL()
	require.NoError(t, err)

	assert.Contains(t, query, "`books`.`deleted_at` IS NULL")
	assert.Contains(t, query, "LIMIT ?")
	assert.Contains(t, query, "OFFSET ?")
	assert.Contains(t, args, "available")
}
