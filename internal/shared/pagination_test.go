package shared

import (
	"math"
	"testing"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(0, 10, 21)
	if p.Page != 1 || p.TotalPages != 3 || p.Offset() != 0 {
		t.Fatalf("unexpected pagination: %+v", p)
	}
	p = NewPagination(3, 10, 21)
	if p.Offset() != 20 {
		t.Fatalf("expected offset 20, got %d", p.Offset())
	}
	p = NewPagination(1, 0, 0)
	if p.PageSize != 20 || p.TotalPages != 0 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
}

func TestNewPaginationClampsHugePage(t *testing.T) {
	p := NewPagination(math.MaxInt, 20, 0)
	if p.Page != MaxPage(20) {
		t.Fatalf("expected page clamped to %d, got %d", MaxPage(20), p.Page)
	}
	if p.Offset() < 0 {
		t.Fatalf("offset overflowed: %d", p.Offset())
	}
}
