// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/models"
)

// dayKeyFormat is the per-date map key layout ("2006-01-02").
const dayKeyFormat = "2006-01-02"

// dailyDataLimit caps DailyData at the most recent distinct days.
const dailyDataLimit = 30

// dayAccumulator collects one calendar day of activity during the fold.
// Seconds stay integral until output so short events are not truncated
// away individually and the sums do not depend on event order.
type dayAccumulator struct {
	date       string
	seconds    int64
	sessions   int
	categories map[string]int64
}

// Summarize folds an event window into an ActivitySummary relative to now.
//
// The fold is a single pass: four period sums gated by calendar boundaries,
// a 24-bucket hour histogram, a 7-bucket weekday histogram (Sunday-first),
// and a per-date accumulator map. After the pass the arg-maxes, the daily
// average, and the 30-day daily series are derived. All reductions are
// integer sums of seconds, so the fold is exact and callers may pass
// events in any order.
//
// Rounding happens once, at output. Arg-max ties resolve to the first
// bucket in ascending order (hour 0..23, Sunday..Saturday).
func Summarize(events []models.ActivityEvent, now time.Time) *models.ActivitySummary {
	loc := now.Location()

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	startOfWeek := startOfDay.AddDate(0, 0, -int(startOfDay.Weekday()))
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	startOfYear := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, loc)

	var todaySec, weekSec, monthSec, yearSec int64
	var hourly [24]int64
	var weekday [7]int64
	days := make(map[string]*dayAccumulator)

	for i := range events {
		ev := &events[i]
		ts := ev.CreatedAt.In(loc)
		seconds := int64(ev.DurationSeconds)

		if !ts.Before(startOfDay) {
			todaySec += seconds
		}
		if !ts.Before(startOfWeek) {
			weekSec += seconds
		}
		if !ts.Before(startOfMonth) {
			monthSec += seconds
		}
		if !ts.Before(startOfYear) {
			yearSec += seconds
		}

		hourly[ts.Hour()] += seconds
		weekday[int(ts.Weekday())] += seconds

		key := ts.Format(dayKeyFormat)
		day, ok := days[key]
		if !ok {
			day = &dayAccumulator{
				date:       key,
				categories: make(map[string]int64),
			}
			days[key] = day
		}
		day.seconds += seconds
		day.sessions++

		category := ev.Category
		if category == "" {
			category = CategoryForPage(ev.Page)
		}
		day.categories[category] += seconds
	}

	summary := &models.ActivitySummary{
		TodayMinutes:  roundMinutes(todaySec),
		WeekMinutes:   roundMinutes(weekSec),
		MonthMinutes:  roundMinutes(monthSec),
		YearMinutes:   roundMinutes(yearSec),
		TotalSessions: len(events),
	}

	if len(days) > 0 {
		summary.AverageDaily = int(math.Round(float64(yearSec) / float64(len(days)) / 60.0))
	}

	summary.MostActiveHour = argMax(hourly[:])
	summary.MostActiveDay = time.Weekday(argMax(weekday[:])).String()

	for h := range hourly {
		summary.HourlyDistribution[h] = roundMinutes(hourly[h])
	}
	for d := range weekday {
		summary.WeeklyPattern[d] = models.WeeklyPatternEntry{
			Day:     time.Weekday(d).String()[:3],
			Minutes: roundMinutes(weekday[d]),
		}
	}

	summary.DailyData = dailySeries(days)

	return summary
}

// dailySeries flattens the per-date map into the most recent days,
// descending by date, capped at dailyDataLimit.
func dailySeries(days map[string]*dayAccumulator) []models.DailyActivity {
	accs := make([]*dayAccumulator, 0, len(days))
	for _, day := range days {
		accs = append(accs, day)
	}
	// Date keys are zero-padded ISO dates, so lexical order is
	// chronological order.
	sort.Slice(accs, func(i, j int) bool { return accs[i].date > accs[j].date })

	if len(accs) > dailyDataLimit {
		accs = accs[:dailyDataLimit]
	}

	series := make([]models.DailyActivity, len(accs))
	for i, day := range accs {
		categories := make(map[string]int, len(day.categories))
		for cat, sec := range day.categories {
			if rounded := roundMinutes(sec); rounded > 0 {
				categories[cat] = rounded
			}
		}
		series[i] = models.DailyActivity{
			Date:         day.date,
			TotalMinutes: roundMinutes(day.seconds),
			SessionCount: day.sessions,
			Categories:   categories,
		}
	}
	return series
}

// argMax returns the index of the largest value, first occurrence on ties.
func argMax(values []int64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

// roundMinutes converts accumulated seconds to whole minutes, rounding to
// nearest. The single division happens here, at output.
func roundMinutes(seconds int64) int {
	return int(math.Round(float64(seconds) / 60.0))
}
