// achievements/metrics.go - pure metric functions
package achievements

import (
	"math"
	"sort"
	"time"

	"codemaster/models"
)

// Metric functions are pure: they see only the facts handed to them and the
// evaluation instant, so each rule family can be tested without a database.

// CountCompleted counts distinct completed topics.
func CountCompleted(cs []Completion) int {
	seen := make(map[uint]struct{}, len(cs))
	for _, c := range cs {
		seen[c.TopicID] = struct{}{}
	}
	return len(seen)
}

// civilDay truncates t to its calendar date in loc. The result is midnight
// UTC of that date, so day arithmetic is immune to DST shifts.
func civilDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func activeDays(cs []Completion, loc *time.Location) map[time.Time]struct{} {
	days := make(map[time.Time]struct{}, len(cs))
	for _, c := range cs {
		if c.CompletedAt.IsZero() {
			continue
		}
		days[civilDay(c.CompletedAt, loc)] = struct{}{}
	}
	return days
}

// CurrentStreak is the length of the unbroken run of calendar days with at
// least one completion, counted backward from the day of at. A run that ends
// yesterday still counts; two inactive days in a row break it.
func CurrentStreak(cs []Completion, at time.Time, loc *time.Location) int {
	days := activeDays(cs, loc)
	if len(days) == 0 {
		return 0
	}

	day := civilDay(at, loc)
	if _, ok := days[day]; !ok {
		day = day.AddDate(0, 0, -1)
		if _, ok := days[day]; !ok {
			return 0
		}
	}

	streak := 0
	for {
		if _, ok := days[day]; !ok {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}

// CompletedOn counts completions on the calendar day of at.
func CompletedOn(cs []Completion, at time.Time, loc *time.Location) int {
	day := civilDay(at, loc)
	n := 0
	for _, c := range cs {
		if c.CompletedAt.IsZero() {
			continue
		}
		if civilDay(c.CompletedAt, loc).Equal(day) {
			n++
		}
	}
	return n
}

type ModuleTally struct {
	ModuleID  uint
	Completed int
	Total     int
}

// Complete reports whether every topic of the module is done. A module with
// no topics is never complete.
func (t ModuleTally) Complete() bool {
	return t.Total > 0 && t.Completed == t.Total
}

// ModuleTallies counts completed topics per active module. Inactive modules
// are left out.
func ModuleTallies(mods []ModuleTopics, cs []Completion) []ModuleTally {
	done := make(map[uint]struct{}, len(cs))
	for _, c := range cs {
		done[c.TopicID] = struct{}{}
	}

	out := make([]ModuleTally, 0, len(mods))
	for _, m := range mods {
		if !m.Active {
			continue
		}
		t := ModuleTally{ModuleID: m.ModuleID, Total: len(m.TopicIDs)}
		for _, id := range m.TopicIDs {
			if _, ok := done[id]; ok {
				t.Completed++
			}
		}
		out = append(out, t)
	}
	return out
}

// HourWindows reports the time-of-day windows at falls into: night owl for
// [00:00, 05:00) and early riser for [05:00, 08:00), both in loc.
func HourWindows(at time.Time, loc *time.Location) (nightOwl, earlyRiser bool) {
	hour := at.In(loc).Hour()
	return hour < 5, hour >= 5 && hour < 8
}

// ForumTallies counts replies and participations.
func ForumTallies(events []ForumEvent) (replies, participations int) {
	for _, e := range events {
		switch e.Type {
		case models.ForumReply:
			replies++
		case models.ForumParticipation:
			participations++
		}
	}
	return replies, participations
}

// RecentActivity looks at completions in the window of the given number of
// days ending at at. It returns how many distinct calendar days had activity
// and how many completions fell in the window.
func RecentActivity(cs []Completion, at time.Time, loc *time.Location, days int) (active, total int) {
	since := at.Add(-time.Duration(days) * 24 * time.Hour)
	seen := make(map[time.Time]struct{})
	for _, c := range cs {
		if c.CompletedAt.IsZero() || c.CompletedAt.Before(since) || c.CompletedAt.After(at) {
			continue
		}
		seen[civilDay(c.CompletedAt, loc)] = struct{}{}
		total++
	}
	return len(seen), total
}

// DailyAverage is total/active rounded to one decimal, or 0 without activity.
func DailyAverage(active, total int) float64 {
	if active == 0 {
		return 0
	}
	return math.Round(float64(total)/float64(active)*10) / 10
}

// AverageGapDays is the span between the first and last dated completion
// divided by the number of gaps, in whole days.
func AverageGapDays(cs []Completion) int {
	var dated []time.Time
	for _, c := range cs {
		if !c.CompletedAt.IsZero() {
			dated = append(dated, c.CompletedAt)
		}
	}
	if len(dated) < 2 {
		return 0
	}
	sort.Slice(dated, func(i, j int) bool { return dated[i].Before(dated[j]) })
	span := dated[len(dated)-1].Sub(dated[0]).Hours() / 24
	return int(math.Round(span / float64(len(dated)-1)))
}
