package appointment

import (
	"time"

	"github.com/lazatu/realty-api/internal/query"
)

// Filters is the appointment list registry. date_word needs the request
// clock, so the set is built per request.
func Filters(now time.Time) query.FilterSet {
	return query.FilterSet{
		"status": func(b *query.Builder, value string) {
			b.Where(`EXISTS (
				SELECT 1 FROM appointment_statuses st
				WHERE st.id = a.appointment_status_id AND st.name = ANY(?)
			)`, query.CSV(value))
		},
		"status_id": func(b *query.Builder, value string) {
			ids := make([]int64, 0, 4)
			for _, v := range query.CSV(value) {
				ids = append(ids, query.Int(v))
			}
			b.Where("a.appointment_status_id = ANY(?)", ids)
		},
		"date_word": func(b *query.Builder, value string) {
			today := dateOnly(now)
			switch value {
			case "recent":
				b.Where("a.date > ?", today.AddDate(0, 0, -7))
			case "today":
				b.Where("a.date = ?", today)
			}
		},
		"address": func(b *query.Builder, value string) {
			b.Join("JOIN properties p ON a.property_id = p.id")
			b.Where("(p.address ILIKE ? OR p.formatted_address ILIKE ?)",
				"%"+value+"%", "%"+value+"%")
		},
	}
}

func Sorts() query.SortSet {
	return query.SortSet{
		"date": func(b *query.Builder, dir string) {
			b.OrderBy("a.date", dir)
		},
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
