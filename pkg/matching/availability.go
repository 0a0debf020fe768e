package matching

import (
	"math"
	"time"

	"github.com/arnavshah/skillmatch-api-go/pkg/models"
)

// DateLayout is the calendar date format used for windows
const DateLayout = "2006-01-02"

// DateOf truncates t to its calendar date in UTC
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar days from start to end, negative when end is earlier
func DaysBetween(start, end time.Time) int {
	return int(math.Round(DateOf(end).Sub(DateOf(start)).Hours() / 24))
}

// OverlapDays returns how many days [aStart, aEnd] and [bStart, bEnd] share, never negative
func OverlapDays(aStart, aEnd, bStart, bEnd time.Time) int {
	lo := DateOf(aStart)
	if b := DateOf(bStart); b.After(lo) {
		lo = b
	}
	hi := DateOf(aEnd)
	if b := DateOf(bEnd); b.Before(hi) {
		hi = b
	}
	if !hi.After(lo) {
		return 0
	}
	return DaysBetween(lo, hi)
}

// AvailabilityScore returns the fraction of the project window covered by the windows.
// No declared availability counts as fully available, as does an empty project window.
func AvailabilityScore(windows []models.AvailabilityWindow, project models.TimeWindow) float64 {
	if len(windows) == 0 {
		return 1.0
	}

	projectDays := DaysBetween(project.Start, project.End)
	if projectDays <= 0 {
		return 1.0
	}

	// Windows of one user never overlap each other, so overlaps are summed as-is
	covered := 0
	for _, w := range windows {
		covered += OverlapDays(project.Start, project.End, w.From, w.To)
	}

	return math.Min(float64(covered)/float64(projectDays), 1.0)
}
