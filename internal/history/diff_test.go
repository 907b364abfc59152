package history

import (
	"reflect"
	"testing"
	"time"
)

func snap(updatedAt time.Time, details map[string]any) Snapshot {
	return Snapshot{Details: details, UpdatedAt: updatedAt}
}

func TestChangesScalarDiff(t *testing.T) {
	t2 := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)
	t1 := t2.Add(-24 * time.Hour)

	// Newest first.
	sets := Changes([]Snapshot{
		snap(t2, map[string]any{"name": "Unit 7B", "price": float64(120)}),
		snap(t1, map[string]any{"name": "Unit 7B", "price": float64(100)}),
	})

	if len(sets) != 1 {
		t.Fatalf("change sets = %d, want 1", len(sets))
	}

	want := Change{From: float64(100), To: float64(120)}
	if got := sets[0]["price"]; !reflect.DeepEqual(got, want) {
		t.Errorf("price change = %+v, want %+v", got, want)
	}
	if _, ok := sets[0]["name"]; ok {
		t.Error("unchanged name produced a diff entry")
	}
}

func TestChangesSynthesizesUpdatedAt(t *testing.T) {
	t2 := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)
	t1 := t2.Add(-time.Hour)

	sets := Changes([]Snapshot{
		snap(t2, map[string]any{"name": "same"}),
		snap(t1, map[string]any{"name": "same"}),
	})

	got, ok := sets[0]["updated_at"]
	if !ok {
		t.Fatal("updated_at entry missing")
	}
	if got.From != "2024-05-02 09:30:00" || got.To != "2024-05-02 09:30:00" {
		t.Errorf("updated_at = %+v, want synthesized 2024-05-02 09:30:00 on both sides", got)
	}
}

func TestChangesCountAndOrder(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	sets := Changes([]Snapshot{
		snap(base.Add(2*time.Hour), map[string]any{"price": float64(3)}),
		snap(base.Add(time.Hour), map[string]any{"price": float64(2)}),
		snap(base, map[string]any{"price": float64(1)}),
	})

	if len(sets) != 2 {
		t.Fatalf("change sets = %d, want 2", len(sets))
	}
	if sets[0]["price"].To != float64(3) || sets[1]["price"].To != float64(2) {
		t.Errorf("change sets out of order: %+v", sets)
	}

	if got := Changes([]Snapshot{snap(base, map[string]any{})}); len(got) != 0 {
		t.Errorf("single snapshot produced %d sets, want 0", len(got))
	}
	if got := Changes(nil); len(got) != 0 {
		t.Errorf("nil history produced %d sets, want 0", len(got))
	}
}

func TestDiffCollections(t *testing.T) {
	photo := func(id float64, link string) map[string]any {
		return map[string]any{"id": id, "link": link}
	}

	tests := []struct {
		name     string
		previous []any
		current  []any
		wantDiff bool
	}{
		{
			name:     "id added",
			previous: []any{photo(1, "a.jpg")},
			current:  []any{photo(1, "a.jpg"), photo(2, "b.jpg")},
			wantDiff: true,
		},
		{
			name:     "id removed",
			previous: []any{photo(1, "a.jpg"), photo(2, "b.jpg")},
			current:  []any{photo(2, "b.jpg")},
			wantDiff: true,
		},
		{
			name:     "reordered same set",
			previous: []any{photo(1, "a.jpg"), photo(2, "b.jpg")},
			current:  []any{photo(2, "b.jpg"), photo(1, "a.jpg")},
			wantDiff: false,
		},
		{
			// Nested attribute changes with stable ids are invisible to the
			// coarse id-set comparison.
			name:     "same ids different attributes",
			previous: []any{photo(1, "a.jpg")},
			current:  []any{photo(1, "renamed.jpg")},
			wantDiff: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := Diff(
				map[string]any{"photos": tt.previous},
				map[string]any{"photos": tt.current},
			)
			_, got := set["photos"]
			if got != tt.wantDiff {
				t.Errorf("photos diff recorded = %v, want %v", got, tt.wantDiff)
			}
		})
	}
}

func TestDiffSkipsMissingKeys(t *testing.T) {
	set := Diff(
		map[string]any{"gone": "x", "kept": "a"},
		map[string]any{"kept": "b", "new": "y"},
	)

	if _, ok := set["gone"]; ok {
		t.Error("key absent from current snapshot produced a diff entry")
	}
	if _, ok := set["new"]; ok {
		t.Error("key absent from previous snapshot produced a diff entry")
	}
	if set["kept"].To != "b" {
		t.Errorf("kept change = %+v", set["kept"])
	}
}
