package matching

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/arnavshah/skillmatch-api-go/pkg/models"
)

const (
	MinLevel = 1
	MaxLevel = 5
)

var (
	ErrInvalidLevel    = errors.New("skill level out of range")
	ErrInvalidPriority = errors.New("unknown requirement priority")
	ErrInvalidWindow   = errors.New("window ends before it starts")
)

// ValidateLevel checks a skill level is within 1..5
func ValidateLevel(level int) error {
	if level < MinLevel || level > MaxLevel {
		return fmt.Errorf("%w: %d not in %d..%d", ErrInvalidLevel, level, MinLevel, MaxLevel)
	}
	return nil
}

// ValidatePriority checks p is one of the known priorities
func ValidatePriority(p models.Priority) error {
	switch p {
	case models.PriorityMustHave, models.PriorityNiceToHave:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidPriority, p)
}

// ValidateWindow checks from is not after to
func ValidateWindow(from, to time.Time) error {
	if DateOf(to).Before(DateOf(from)) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidWindow, from.Format(DateLayout), to.Format(DateLayout))
	}
	return nil
}

// ValidateWindows checks each window and that no two windows share a day
func ValidateWindows(windows []models.AvailabilityWindow) error {
	for _, w := range windows {
		if err := ValidateWindow(w.From, w.To); err != nil {
			return err
		}
	}
	sorted := make([]models.AvailabilityWindow, len(windows))
	copy(sorted, windows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return DateOf(sorted[i].From).Before(DateOf(sorted[j].From))
	})
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if DateOf(cur.From).Before(DateOf(prev.To)) {
			return fmt.Errorf("%w: %s..%s overlaps %s..%s", ErrInvalidWindow,
				cur.From.Format(DateLayout), cur.To.Format(DateLayout),
				prev.From.Format(DateLayout), prev.To.Format(DateLayout))
		}
	}
	return nil
}

// ValidateProject checks every requirement of a project snapshot
func ValidateProject(p models.Project) error {
	for _, r := range p.Requirements {
		if err := ValidateLevel(r.RequiredLevel); err != nil {
			return fmt.Errorf("requirement %s: %w", r.SkillName, err)
		}
		if err := ValidatePriority(r.Priority); err != nil {
			return fmt.Errorf("requirement %s: %w", r.SkillName, err)
		}
	}
	return nil
}

// ValidateCandidate checks skills and availability of a candidate snapshot
func ValidateCandidate(c models.Candidate) error {
	for _, s := range c.Skills {
		if err := ValidateLevel(s.Level); err != nil {
			return fmt.Errorf("skill %s: %w", s.SkillName, err)
		}
	}
	if err := ValidateWindows(c.Availability); err != nil {
		return fmt.Errorf("availability: %w", err)
	}
	return nil
}
