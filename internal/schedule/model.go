package schedule

import "time"

// Day is one entry of a business account's weekly availability. Days are
// numbered 1 (Monday) through 7 (Sunday); a nil start/end means closed.
type Day struct {
	Day       int     `json:"day"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

// WeekSchedule holds all seven entries in day order.
type WeekSchedule [7]Day

// Schedule is the single availability record per business-account user. The
// week setup is replaced wholesale on update, never appended.
type Schedule struct {
	ID             int64        `json:"id"`
	UserID         int64        `json:"user_id"`
	ScheduleTypeID int64        `json:"schedule_type_id"`
	Setup          WeekSchedule `json:"setup"`
	CreatedAt      time.Time    `json:"-"`
	UpdatedAt      time.Time    `json:"-"`
}

// Type is a preset a schedule is generated from: which days are open and the
// daily opening hours.
type Type struct {
	ID        int64
	Name      string
	Days      []int
	StartTime string
	EndTime   string
}

// Generate expands a preset into the full seven-day setup.
func Generate(t Type) WeekSchedule {
	open := make(map[int]bool, len(t.Days))
	for _, d := range t.Days {
		open[d] = true
	}

	var week WeekSchedule
	for i := range week {
		day := i + 1
		week[i] = Day{Day: day}
		if open[day] {
			start, end := t.StartTime, t.EndTime
			week[i].StartTime = &start
			week[i].EndTime = &end
		}
	}

	return week
}
