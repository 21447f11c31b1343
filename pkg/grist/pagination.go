package grist

import (
	"context"
)

// DefaultChunk is the page size an iterator uses when none is given.
const DefaultChunk = 10

// PageFetcher retrieves one page of a listing: items from the 1-based
// startIndex, at most count of them, plus the server-reported total.
type PageFetcher[T any] func(ctx context.Context, startIndex, count int) (items []T, total int, err error)

// Page is one fetched chunk of a listing.
type Page[T any] struct {
	Items      []T
	StartIndex int
	Total      int
}

// Iterator walks a paginated listing one explicit advance at a time.
// Index and Chunk form the cursor and may be adjusted between calls
// to Next; the iterator re-reads them on every advance.
//
// Termination is driven by the count of retrieved items reaching the
// server-reported total, never by an empty page: some servers answer
// an out-of-range start index with the first page again, and counting
// retrieved items absorbs that quirk.
//
// An Iterator has no internal locking. Concurrent advances are a
// caller bug.
type Iterator[T any] struct {
	// Index is the 1-based position the next advance fetches from.
	Index int

	// Chunk is the page size requested on the next advance.
	Chunk int

	fetch     PageFetcher[T]
	total     int
	retrieved int
	started   bool
	terminal  bool
}

// NewIterator builds an iterator over fetch, starting at index 1.
// A non-positive chunk falls back to DefaultChunk.
func NewIterator[T any](fetch PageFetcher[T], chunk int) *Iterator[T] {
	if chunk <= 0 {
		chunk = DefaultChunk
	}

	return &Iterator[T]{
		Index: 1,
		Chunk: chunk,
		fetch: fetch,
	}
}

// Next fetches the page at the current cursor and advances past it.
// After the last page it returns ErrExhausted forever.
func (it *Iterator[T]) Next(ctx context.Context) (*Page[T], error) {
	if it.terminal {
		return nil, ErrExhausted
	}

	start := it.Index

	items, total, err := it.fetch(ctx, start, it.Chunk)
	if err != nil {
		return nil, err
	}

	it.started = true
	it.total = total
	it.retrieved += len(items)
	it.Index += len(items)

	if it.retrieved >= total {
		it.terminal = true
	}

	return &Page[T]{
		Items:      items,
		StartIndex: start,
		Total:      total,
	}, nil
}

// HasNext reports whether another advance can yield a page.
func (it *Iterator[T]) HasNext() bool {
	return !it.terminal
}

// Len returns the server-reported total, or zero before the first
// advance while no total is known yet.
func (it *Iterator[T]) Len() int {
	if !it.started {
		return 0
	}

	return it.total
}

// All drains the remaining pages into one slice.
func (it *Iterator[T]) All(ctx context.Context) ([]T, error) {
	var all []T

	for it.HasNext() {
		page, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}

		all = append(all, page.Items...)
	}

	return all, nil
}

// ForEach applies fn to every remaining item. An error from fn stops
// the walk and is returned as-is.
func (it *Iterator[T]) ForEach(ctx context.Context, fn func(T) error) error {
	for it.HasNext() {
		page, err := it.Next(ctx)
		if err != nil {
			return err
		}

		for _, item := range page.Items {
			err = fn(item)
			if err != nil {
				return err
			}
		}
	}

	return nil
}
