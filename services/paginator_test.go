package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func numbers(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestPaginateThirteenItems(t *testing.T) {
	items := numbers(13)

	first := Paginate(items, 10, 1)
	assert.Len(t, first.Items, 10)
	assert.Equal(t, 2, first.NumPages)
	assert.False(t, first.HasPrevious())
	assert.True(t, first.HasNext())
	assert.Equal(t, 2, first.NextNumber())

	second := Paginate(items, 10, 2)
	assert.Equal(t, []int{11, 12, 13}, second.Items)
	assert.True(t, second.HasPrevious())
	assert.False(t, second.HasNext())
	assert.Equal(t, 1, second.PreviousNumber())
}

func TestPaginateClampsOutOfRange(t *testing.T) {
	items := numbers(13)

	assert.Equal(t, 1, Paginate(items, 10, 0).Number)
	assert.Equal(t, 1, Paginate(items, 10, -4).Number)

	last := Paginate(items, 10, 3)
	assert.Equal(t, 2, last.Number)
	assert.Len(t, last.Items, 3)
}

func TestPaginateEmpty(t *testing.T) {
	p := Paginate([]string{}, 10, 5)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 1, p.NumPages)
	assert.Empty(t, p.Items)
	assert.False(t, p.HasOtherPages())
	assert.Equal(t, []int{1}, p.PageRange())
}

func TestNewPageOffsetAndDefaults(t *testing.T) {
	p := NewPage[string](25, 0, 3)
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.Equal(t, 3, p.NumPages)
	assert.Equal(t, 20, p.Offset())
	assert.Equal(t, []int{1, 2, 3}, p.PageRange())

	exact := NewPage[string](20, 10, 2)
	assert.Equal(t, 2, exact.NumPages)
	assert.False(t, exact.HasNext())
}

func TestParsePageNumber(t *testing.T) {
	assert.Equal(t, 1, ParsePageNumber(""))
	assert.Equal(t, 1, ParsePageNumber("abc"))
	assert.Equal(t, 4, ParsePageNumber(" 4 "))
	assert.Equal(t, -2, ParsePageNumber("-2"), "clamping happens in NewPage")
	assert.Equal(t, math.MaxInt, ParsePageNumber("99999999999999999999"))
	assert.Equal(t, 1, ParsePageNumber("-99999999999999999999"))

	p := NewPage[int](13, 10, ParsePageNumber("99999999999999999999"))
	assert.Equal(t, 2, p.Number)
	assert.Equal(t, 10, p.Offset())
}
