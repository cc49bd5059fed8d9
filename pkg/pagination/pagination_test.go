package pagination

import "testing"

func TestNewAppliesDefaults(t *testing.T) {
	p, err := New(0, 0, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Number != 1 || p.Size != DefaultPageSize {
		t.Fatalf("unexpected defaults %+v", p)
	}
	if p.Offset() != 0 {
		t.Fatalf("expected offset 0, got %d", p.Offset())
	}
}

func TestNewRejectsOutOfRange(t *testing.T) {
	cases := []struct {
		number, size int
	}{
		{0, 10},
		{-1, 10},
		{1, 0},
		{1, MaxPageSize + 1},
	}
	for _, tc := range cases {
		if _, err := New(tc.number, tc.size, true, true); err == nil {
			t.Fatalf("expected error for page=%d size=%d", tc.number, tc.size)
		}
	}
}

func TestOffset(t *testing.T) {
	p := Page{Number: 3, Size: 20}
	if p.Offset() != 40 {
		t.Fatalf("expected offset 40, got %d", p.Offset())
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total int64
		size  int
		want  int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{250, 100, 3},
	}
	for _, tc := range cases {
		if got := TotalPages(tc.total, tc.size); got != tc.want {
			t.Fatalf("TotalPages(%d, %d) = %d, want %d", tc.total, tc.size, got, tc.want)
		}
	}
}
