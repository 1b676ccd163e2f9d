package services

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// DefaultPageSize is used when a caller passes a non-positive size.
const DefaultPageSize = 10

// Page is one page of a listing. NumPages is at least 1 so an empty listing
// still renders its first page.
type Page[T any] struct {
	Items    []T
	Number   int
	PageSize int
	Total    int64
	NumPages int
}

// NewPage computes page bounds for a listing of total items. Items is left for
// the caller to fill, usually from a query using Offset and PageSize.
func NewPage[T any](total int64, pageSize, number int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}
	numPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if numPages < 1 {
		numPages = 1
	}
	if number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}
	return Page[T]{Number: number, PageSize: pageSize, Total: total, NumPages: numPages}
}

// Paginate slices an in-memory listing.
func Paginate[T any](items []T, pageSize, number int) Page[T] {
	p := NewPage[T](int64(len(items)), pageSize, number)
	start := p.Offset()
	end := start + p.PageSize
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	p.Items = items[start:end]
	return p
}

// ParsePageNumber reads a ?page= value. Anything that is not a number means page 1.
// Numbers too large for an int become math.MaxInt so NewPage clamps them to the last page.
func ParsePageNumber(raw string) int {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
		return math.MaxInt
	}
	if err != nil {
		return 1
	}
	return n
}

func (p Page[T]) Offset() int { return (p.Number - 1) * p.PageSize }

func (p Page[T]) HasPrevious() bool { return p.Number > 1 }

func (p Page[T]) HasNext() bool { return p.Number < p.NumPages }

func (p Page[T]) HasOtherPages() bool { return p.NumPages > 1 }

func (p Page[T]) PreviousNumber() int {
	if !p.HasPrevious() {
		return p.Number
	}
	return p.Number - 1
}

func (p Page[T]) NextNumber() int {
	if !p.HasNext() {
		return p.Number
	}
	return p.Number + 1
}

// PageRange lists every page number, for rendering page links.
func (p Page[T]) PageRange() []int {
	r := make([]int, p.NumPages)
	for i := range r {
		r[i] = i + 1
	}
	return r
}
