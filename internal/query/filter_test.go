package query

import (
	"net/url"
	"reflect"
	"testing"
)

func TestApplyFiltersUnknownKeysIgnored(t *testing.T) {
	b := NewBuilder()
	set := FilterSet{
		"name": func(b *Builder, value string) {
			b.Where("name ILIKE ?", "%"+value+"%")
		},
	}

	ApplyFilters(b, set, map[string]string{
		"name":      "condo",
		"no_such":   "whatever",
		"also_none": "x",
	})

	sql, args := b.SQL("SELECT * FROM t")
	if sql != "SELECT * FROM t WHERE name ILIKE $1" {
		t.Errorf("sql = %q", sql)
	}
	if !reflect.DeepEqual(args, []any{"%condo%"}) {
		t.Errorf("args = %v", args)
	}
}

func TestApplyFiltersStableOrder(t *testing.T) {
	record := func(name string) FilterFunc {
		return func(b *Builder, _ string) { b.Where(name+" = ?", 1) }
	}
	set := FilterSet{"b": record("b"), "a": record("a"), "c": record("c")}

	builder := NewBuilder()
	ApplyFilters(builder, set, map[string]string{"c": "1", "a": "1", "b": "1"})

	sql, _ := builder.SQL("SELECT 1")
	want := "SELECT 1 WHERE a = $1 AND b = $2 AND c = $3"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
}

func TestParseFilterParams(t *testing.T) {
	values := url.Values{
		"filter[name]":   {"condo"},
		"filter[status]": {"published,expired"},
		"filter[]":       {"empty name dropped"},
		"sort":           {"-date"},
		"page":           {"2"},
	}

	got := ParseFilterParams(values)
	want := map[string]string{
		"name":   "condo",
		"status": "published,expired",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseFilterParams() = %v, want %v", got, want)
	}
}

func TestFloatClampsGarbageAndNegatives(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"12.5", 12.5},
		{"0", 0},
		{"-3", 0},
		{"abc", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := Float(tt.in); got != tt.want {
			t.Errorf("Float(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCSV(t *testing.T) {
	got := CSV(" published, expired ,,closed ")
	want := []string{"published", "expired", "closed"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CSV() = %v, want %v", got, want)
	}
}

func TestBuilderOrGroupAndPagination(t *testing.T) {
	b := NewBuilder()
	b.Where("status = ?", 1)
	b.OrWhere("name ILIKE ?", "%a%")
	b.OrWhere("address ILIKE ?", "%a%")
	b.OrderBy("created_at", "desc")
	b.Paginate(20, 3)

	sql, args := b.SQL("SELECT * FROM t")
	want := "SELECT * FROM t WHERE status = $1 AND (name ILIKE $2 OR address ILIKE $3)" +
		" ORDER BY created_at desc LIMIT 20 OFFSET 40"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if len(args) != 3 {
		t.Errorf("args = %v, want 3 bound", args)
	}
}

func TestApplySort(t *testing.T) {
	set := SortSet{
		"date": func(b *Builder, dir string) { b.OrderBy("date", dir) },
	}

	b := NewBuilder()
	ApplySort(b, set, "-date,unknown")

	sql, _ := b.SQL("SELECT 1")
	if sql != "SELECT 1 ORDER BY date desc" {
		t.Errorf("sql = %q", sql)
	}
}
