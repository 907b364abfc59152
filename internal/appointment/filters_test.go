package appointment

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/lazatu/realty-api/internal/query"
)

var filterClock = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func TestStatusFilterAcceptsNameList(t *testing.T) {
	b := query.NewBuilder()
	Filters(filterClock)["status"](b, "pending,reschedule")

	sql, args := b.SQL("SELECT * FROM appointments a")
	if !strings.Contains(sql, "st.name = ANY($1)") {
		t.Errorf("sql = %q, want st.name = ANY($1)", sql)
	}
	if !reflect.DeepEqual(args, []any{[]string{"pending", "reschedule"}}) {
		t.Errorf("args = %v, want both names bound", args)
	}
}

func TestStatusIDFilterAcceptsList(t *testing.T) {
	b := query.NewBuilder()
	Filters(filterClock)["status_id"](b, "2,5")

	sql, args := b.SQL("SELECT * FROM appointments a")
	want := "SELECT * FROM appointments a WHERE a.appointment_status_id = ANY($1)"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if !reflect.DeepEqual(args, []any{[]int64{2, 5}}) {
		t.Errorf("args = %v, want [2 5]", args)
	}
}

func TestDateWordRecentExcludesWeekOldRows(t *testing.T) {
	b := query.NewBuilder()
	Filters(filterClock)["date_word"](b, "recent")

	sql, args := b.SQL("SELECT * FROM appointments a")
	if sql != "SELECT * FROM appointments a WHERE a.date > $1" {
		t.Errorf("sql = %q, want a strict > comparison", sql)
	}

	// A row dated exactly seven days back falls outside "recent".
	cutoff := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)
	if !reflect.DeepEqual(args, []any{cutoff}) {
		t.Errorf("args = %v, want cutoff %v", args, cutoff)
	}
}
