// Package feed accumulates paginated catalog results for the active filter
// and debounces filter changes into page fetches.
package feed

import (
	"errors"
	"slices"

	"github.com/rubrical-studios/gh-gfi/internal/api"
	"github.com/rubrical-studios/gh-gfi/internal/filter"
)

// ErrStaleResponse is returned when a page arrives for a filter that is no
// longer the accumulator's current one
var ErrStaleResponse = errors.New("stale response: filter changed since the fetch was issued")

// Accumulator holds the issues fetched so far for one filter. It is not safe
// for concurrent use; Controller serializes access.
type Accumulator struct {
	spec      filter.Spec
	issues    []api.Issue
	pageIndex int
	info      api.PageInfo
	hasPage   bool
}

// NewAccumulator returns an empty accumulator for the empty filter
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Reset drops all accumulated issues and page metadata and records spec as
// the current filter
func (a *Accumulator) Reset(spec filter.Spec) {
	a.spec = spec
	a.issues = nil
	a.pageIndex = 0
	a.info = api.PageInfo{}
	a.hasPage = false
}

// AppendPage appends page's issues in order and records its metadata.
// Pages for any filter other than the current one are rejected with
// ErrStaleResponse and leave the accumulator unchanged.
func (a *Accumulator) AppendPage(page *api.Page, forSpec filter.Spec) error {
	if !forSpec.Equal(a.spec) {
		return ErrStaleResponse
	}
	if page == nil {
		return nil
	}

	a.issues = append(a.issues, page.Issues...)
	a.pageIndex = page.Info.Number
	a.info = page.Info
	a.hasPage = true
	return nil
}

// CanLoadMore reports whether a page has been recorded and it was not the last
func (a *Accumulator) CanLoadMore() bool {
	return a.hasPage && !a.info.Last
}

// Issues returns a copy of the accumulated issues in arrival order
func (a *Accumulator) Issues() []api.Issue {
	return slices.Clone(a.issues)
}

// Len returns the number of accumulated issues
func (a *Accumulator) Len() int {
	return len(a.issues)
}

// PageIndex returns the index of the last appended page
func (a *Accumulator) PageIndex() int {
	return a.pageIndex
}

// Spec returns the filter the accumulated issues belong to
func (a *Accumulator) Spec() filter.Spec {
	return a.spec
}

// PageInfo returns the metadata of the last appended page. The second value
// is false when no page has been appended since the last Reset.
func (a *Accumulator) PageInfo() (api.PageInfo, bool) {
	return a.info, a.hasPage
}

// HasPage reports whether a page has been appended since the last Reset
func (a *Accumulator) HasPage() bool {
	return a.hasPage
}
