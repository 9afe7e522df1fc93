package services

import (
	"net/url"
	"strconv"
	"strings"
)

// MaxListSize caps a page, larger or negative sizes fall back to it
const MaxListSize = 65500

const defaultListSize = 100

// ListArguments are the paging parameters of list endpoints
type ListArguments struct {
	Page int
	Size int64
	Kind string
}

// NewListArguments reads page, pageSize (or the legacy size) and kind from query parameters.
func NewListArguments(params url.Values) *ListArguments {
	listArgs := &ListArguments{
		Page: 1,
		Size: defaultListSize,
	}
	if v := strings.TrimSpace(params.Get("page")); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page > 0 {
			listArgs.Page = page
		}
	}

	size := strings.TrimSpace(params.Get("pageSize"))
	if size == "" {
		size = strings.TrimSpace(params.Get("size"))
	}
	if size != "" {
		if n, err := strconv.ParseInt(size, 10, 64); err == nil {
			listArgs.Size = n
		}
	}
	if listArgs.Size > MaxListSize || listArgs.Size < 0 {
		listArgs.Size = MaxListSize
	}

	listArgs.Kind = strings.TrimSpace(params.Get("kind"))
	return listArgs
}

// Offset is the number of rows skipped before the page
func (a *ListArguments) Offset() int {
	return (a.Page - 1) * int(a.Size)
}

// Limit is the page size as an int
func (a *ListArguments) Limit() int {
	return int(a.Size)
}
