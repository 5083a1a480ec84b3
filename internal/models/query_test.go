package models

import (
	"errors"
	"testing"
)

func TestListQuery_Normalize(t *testing.T) {
	q := ListQuery{Keyword: "  dev ", Page: -3, PageSize: 0}.Normalize(10)
	if q.Keyword != "dev" || q.Page != 1 || q.PageSize != 10 {
		t.Errorf("Normalize = %+v", q)
	}

	q = ListQuery{Page: 3, PageSize: 1000}.Normalize(10)
	if q.PageSize != MaxPageSize {
		t.Errorf("PageSize = %d, want %d", q.PageSize, MaxPageSize)
	}
	if q.Offset() != 2*MaxPageSize {
		t.Errorf("Offset = %d, want %d", q.Offset(), 2*MaxPageSize)
	}
}

func TestNewPage(t *testing.T) {
	q := ListQuery{Page: 1, PageSize: 10}
	empty, err := NewPage[int](nil, q, 0)
	if err != nil {
		t.Fatalf("first page of empty listing: %v", err)
	}
	if empty.Items == nil || empty.TotalPages != 0 {
		t.Errorf("empty page = %+v", empty)
	}

	page, err := NewPage([]int{11, 12}, ListQuery{Page: 2, PageSize: 10}, 12)
	if err != nil {
		t.Fatalf("NewPage failed: %v", err)
	}
	if page.TotalPages != 2 || page.Total != 12 {
		t.Errorf("page = %+v", page)
	}

	if _, err := NewPage[int](nil, ListQuery{Page: 3, PageSize: 10}, 12); !errors.Is(err, ErrNotFound) {
		t.Errorf("page past the end: err = %v, want ErrNotFound", err)
	}
}
