package cursor

import (
	"testing"
)

type row struct {
	id int64
}

func ids(rows []row) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.id
	}
	return out
}

func rowsFrom(vals ...int64) []row {
	out := make([]row, len(vals))
	for i, v := range vals {
		out[i] = row{id: v}
	}
	return out
}

func key(r row) int64 { return r.id }

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"", Forward, false},
		{"forward", Forward, false},
		{"backward", Backward, false},
		{"Backward", Backward, false},
		{" forward ", Forward, false},
		{"sideways", Forward, true},
	}

	for _, tt := range tests {
		got, err := ParseDirection(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDirection(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseDirection(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDirectionSQL(t *testing.T) {
	if op := Forward.CompareOp(); op != "<" {
		t.Errorf("Forward.CompareOp() = %q, want %q", op, "<")
	}
	if op := Backward.CompareOp(); op != ">" {
		t.Errorf("Backward.CompareOp() = %q, want %q", op, ">")
	}
	if sql := Forward.OrderSQL("created_at", "id"); sql != "ORDER BY created_at DESC, id DESC" {
		t.Errorf("Forward.OrderSQL = %q", sql)
	}
	if sql := Backward.OrderSQL("created_at", "id"); sql != "ORDER BY created_at ASC, id ASC" {
		t.Errorf("Backward.OrderSQL = %q", sql)
	}
}

func TestResolve_ForwardFullPage(t *testing.T) {
	// Forward rows arrive newest first; the over-fetch row signals more.
	rows := rowsFrom(10, 9, 8, 7)
	page := Resolve(rows, 3, Forward, key)

	got := ids(page.Items)
	want := []int64{10, 9, 8}
	if len(got) != len(want) {
		t.Fatalf("items = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("items = %v, want %v", got, want)
		}
	}

	if !page.Cursor.HasMore {
		t.Error("HasMore = false, want true")
	}
	if page.Cursor.NextCursor == nil || *page.Cursor.NextCursor != 8 {
		t.Errorf("NextCursor = %v, want 8", page.Cursor.NextCursor)
	}
	if page.Cursor.PrevCursor == nil || *page.Cursor.PrevCursor != 10 {
		t.Errorf("PrevCursor = %v, want 10", page.Cursor.PrevCursor)
	}
	if page.Cursor.Limit != 3 {
		t.Errorf("Limit = %d, want 3", page.Cursor.Limit)
	}
}

func TestResolve_ForwardLastPage(t *testing.T) {
	rows := rowsFrom(3, 2, 1)
	page := Resolve(rows, 5, Forward, key)

	if len(page.Items) != 3 {
		t.Fatalf("items count = %d, want 3", len(page.Items))
	}
	if page.Cursor.HasMore {
		t.Error("HasMore = true, want false")
	}
	if page.Cursor.NextCursor != nil {
		t.Errorf("NextCursor = %v, want nil on the last page", *page.Cursor.NextCursor)
	}
	if page.Cursor.PrevCursor == nil || *page.Cursor.PrevCursor != 3 {
		t.Errorf("PrevCursor = %v, want 3", page.Cursor.PrevCursor)
	}
}

func TestResolve_BackwardReversesToNewestFirst(t *testing.T) {
	// Backward rows arrive oldest first and are flipped for presentation.
	rows := rowsFrom(6, 7, 8, 9)
	page := Resolve(rows, 3, Backward, key)

	got := ids(page.Items)
	want := []int64{8, 7, 6}
	if len(got) != len(want) {
		t.Fatalf("items = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("items = %v, want %v", got, want)
		}
	}

	// The over-fetch means more newer rows exist.
	if !page.Cursor.HasMore {
		t.Error("HasMore = false, want true")
	}
	if page.Cursor.PrevCursor == nil || *page.Cursor.PrevCursor != 8 {
		t.Errorf("PrevCursor = %v, want 8", page.Cursor.PrevCursor)
	}
	if page.Cursor.NextCursor == nil || *page.Cursor.NextCursor != 6 {
		t.Errorf("NextCursor = %v, want 6", page.Cursor.NextCursor)
	}
}

func TestResolve_BackwardNoMore(t *testing.T) {
	rows := rowsFrom(6, 7)
	page := Resolve(rows, 3, Backward, key)

	got := ids(page.Items)
	want := []int64{7, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("items = %v, want %v", got, want)
		}
	}
	if page.Cursor.HasMore {
		t.Error("HasMore = true, want false")
	}
	if page.Cursor.PrevCursor != nil {
		t.Errorf("PrevCursor = %v, want nil with no newer rows", *page.Cursor.PrevCursor)
	}
	if page.Cursor.NextCursor == nil || *page.Cursor.NextCursor != 6 {
		t.Errorf("NextCursor = %v, want 6", page.Cursor.NextCursor)
	}
}

func TestResolve_Empty(t *testing.T) {
	page := Resolve(nil, 10, Forward, key)

	if page.Items == nil {
		t.Fatal("Items should be an empty slice, not nil")
	}
	if len(page.Items) != 0 {
		t.Errorf("items count = %d, want 0", len(page.Items))
	}
	if page.Cursor.HasMore {
		t.Error("HasMore = true, want false")
	}
	if page.Cursor.NextCursor != nil || page.Cursor.PrevCursor != nil {
		t.Error("cursors should be nil for an empty page")
	}
}

func TestResolve_StringKeys(t *testing.T) {
	type item struct{ id string }
	rows := []item{{"c"}, {"b"}, {"a"}}
	page := Resolve(rows, 2, Forward, func(it item) string { return it.id })

	if len(page.Items) != 2 {
		t.Fatalf("items count = %d, want 2", len(page.Items))
	}
	if page.Cursor.NextCursor == nil || *page.Cursor.NextCursor != "b" {
		t.Errorf("NextCursor = %v, want b", page.Cursor.NextCursor)
	}
}
