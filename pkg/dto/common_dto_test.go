package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageQuery(t *testing.T) {
	q := PageQuery{}.Normalize(20, 100)
	assert.Equal(t, PageQuery{Page: 1, Limit: 20}, q)
	assert.Zero(t, q.Offset())

	q = PageQuery{Page: 3, Limit: 500}.Normalize(20, 100)
	assert.Equal(t, 20, q.Limit)
	assert.Equal(t, 40, q.Offset())

	meta := NewPaginationMeta(PageQuery{Page: 2, Limit: 10}, 21)
	assert.Equal(t, PaginationMeta{CurrentPage: 2, TotalPages: 3, TotalItems: 21, Limit: 10}, meta)

	assert.Zero(t, NewPaginationMeta(PageQuery{Page: 1, Limit: 10}, 0).TotalPages)
}
