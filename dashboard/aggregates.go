// Package dashboard implements the therapist portal's data layer: resolving
// the therapist linked to an account, loading its bookings/reviews/blockout
// dates, deriving the schedule and earnings views, and editing availability.
//
// Every derived view here is a pure function of the loaded rows plus filter
// parameters; nothing in this package persists an aggregate.
package dashboard

import (
	"math"
	"time"

	"github.com/serenityspa/serenity-api/model"
)

// DateLayout is the calendar-day format used for booking dates and blockouts.
const DateLayout = "2006-01-02"

// RangeMode selects the earnings window.
type RangeMode string

const (
	RangeAll        RangeMode = "all"
	RangeToday      RangeMode = "today"
	RangeLast7Days  RangeMode = "last-7-days"
	RangeLast30Days RangeMode = "last-30-days"
	RangeMonth      RangeMode = "specific-month"
	RangeDate       RangeMode = "specific-date"
)

// EarningsFilter holds a range mode plus its auxiliary parameters:
// Date for RangeDate, Month/Year for RangeMonth.
type EarningsFilter struct {
	Mode  RangeMode
	Date  string
	Month time.Month
	Year  int
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// parseDay parses a calendar-day string; the bool reports success.
func parseDay(s string) (time.Time, bool) {
	if len(s) > len(DateLayout) {
		// Tolerate full ISO timestamps by using the date part only.
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Upcoming returns bookings still ahead of (or on) the given day that are
// pending or confirmed. Time of day is ignored; an unparseable date excludes
// the row rather than guessing.
func Upcoming(bookings []model.Booking, today time.Time) []model.Booking {
	day := startOfDay(today)
	out := make([]model.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status != model.BookingPending && b.Status != model.BookingConfirmed {
			continue
		}
		d, ok := parseDay(b.BookingDate)
		if !ok || d.Before(day) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Completed returns bookings with completed status.
func Completed(bookings []model.Booking) []model.Booking {
	out := make([]model.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status == model.BookingCompleted {
			out = append(out, b)
		}
	}
	return out
}

// TodaySchedule returns the subset of Upcoming falling on today's calendar date.
func TodaySchedule(bookings []model.Booking, today time.Time) []model.Booking {
	day := startOfDay(today)
	out := make([]model.Booking, 0)
	for _, b := range Upcoming(bookings, today) {
		if d, ok := parseDay(b.BookingDate); ok && d.Equal(day) {
			out = append(out, b)
		}
	}
	return out
}

// AverageRating returns the mean review rating rounded to one decimal,
// or 0 when there are no reviews.
func AverageRating(reviews []model.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	mean := float64(sum) / float64(len(reviews))
	return math.Round(mean*10) / 10
}

// FilterEarnings returns the completed bookings whose date falls inside the
// filter's window, evaluated against the given "now". All relative windows
// are midnight-aligned calendar-day comparisons. An unknown mode behaves
// like RangeAll.
func FilterEarnings(bookings []model.Booking, f EarningsFilter, now time.Time) []model.Booking {
	completed := Completed(bookings)
	today := startOfDay(now)

	matches := func(d time.Time) bool {
		switch f.Mode {
		case RangeToday:
			return d.Equal(today)
		case RangeLast7Days:
			return !d.Before(today.AddDate(0, 0, -6)) && !d.After(today)
		case RangeLast30Days:
			return !d.Before(today.AddDate(0, 0, -29)) && !d.After(today)
		case RangeMonth:
			return d.Year() == f.Year && d.Month() == f.Month
		case RangeDate:
			want, ok := parseDay(f.Date)
			return ok && d.Equal(want)
		default:
			return true
		}
	}

	out := make([]model.Booking, 0, len(completed))
	for _, b := range completed {
		d, ok := parseDay(b.BookingDate)
		if !ok {
			continue
		}
		if matches(d) {
			out = append(out, b)
		}
	}
	return out
}

// TotalTips sums tip amounts over bookings whose tip is assigned to the
// therapist. Tips routed elsewhere are excluded.
func TotalTips(bookings []model.Booking) float64 {
	total := 0.0
	for _, b := range bookings {
		if b.TipRecipient == model.TipRecipientTherapist {
			total += b.TipAmount
		}
	}
	return total
}

// TotalCommission sums commission amounts over the given bookings.
func TotalCommission(bookings []model.Booking) float64 {
	total := 0.0
	for _, b := range bookings {
		total += b.CommissionAmount
	}
	return total
}
