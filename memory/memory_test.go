package memory

import "testing"

func TestPageRangeAlignsToPageBoundaries(t *testing.T) {
	ps := PageSize()
	addr := ps + 10
	start, length := pageRange(addr, 16)
	if start != ps {
		t.Fatalf("expected start %d, got %d", ps, start)
	}
	if length != ps {
		t.Fatalf("expected single page length %d, got %d", ps, length)
	}
}

func TestPageRangeSpansMultiplePages(t *testing.T) {
	ps := PageSize()
	addr := ps - 4
	start, length := pageRange(addr, 16)
	if start != 0 {
		t.Fatalf("expected start 0, got %d", start)
	}
	if length != 2*ps {
		t.Fatalf("expected two pages (%d), got %d", 2*ps, length)
	}
}
